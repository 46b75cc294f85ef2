package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yomu-app/backend/internal/models"
	"github.com/yomu-app/backend/internal/sources/batoto"
)

type linkRepository interface {
	List() ([]models.SourceLink, error)
	TouchVerified(mangaID string, verifiedAt time.Time) error
}

type connectionTester interface {
	TestConnection(ctx context.Context, seriesID string) batoto.ConnectionTest
}

// Poller periodically re-validates stored Batoto links so dead series are
// visible in logs and verified_at timestamps before a reader hits them.
type Poller struct {
	repo     linkRepository
	tester   connectionTester
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
}

type PollerConfig struct {
	Interval time.Duration
}

func NewPoller(repo linkRepository, tester connectionTester, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		repo:     repo,
		tester:   tester,
		interval: cfg.Interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("link poller started", "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Warn("link poller initial run failed", "error", err)
		}
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("link poller stopped")
				close(p.stopCh)
				return
			case <-ticker.C:
				if err := p.RunOnce(ctx); err != nil {
					p.logger.Warn("link poller cycle failed", "error", err)
				}
			}
		}
	}()
}

func (p *Poller) StopWait(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	select {
	case <-p.stopCh:
	case <-time.After(timeout):
	}
}

func (p *Poller) RunOnce(ctx context.Context) error {
	links, err := p.repo.List()
	if err != nil {
		return fmt.Errorf("load source links: %w", err)
	}

	for _, link := range links {
		requestCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		test := p.tester.TestConnection(requestCtx, link.ExternalID)
		cancel()

		if !test.Success {
			p.logger.Warn("source link failed validation",
				"mangaId", link.MangaID, "externalId", link.ExternalID, "error", test.Error)
			continue
		}

		if err := p.repo.TouchVerified(link.MangaID, time.Now().UTC()); err != nil {
			p.logger.Warn("source link verify stamp failed", "mangaId", link.MangaID, "error", err)
		}
	}

	return nil
}
