package batoto

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yomu-app/backend/internal/sources"
)

// Source adapts the scraper to the sources.Source contract. At this boundary
// markup drift is an expected operating condition: an *ExtractionError is
// logged and downgraded to an empty result so one flaky scraping target
// cannot crash flows that may still succeed elsewhere. Transport failures
// still surface as errors.
type Source struct {
	scraper *Scraper
	logger  *slog.Logger
}

func NewSource() *Source {
	return NewSourceWithScraper(NewScraper())
}

func NewSourceWithScraper(scraper *Scraper) *Source {
	return &Source{scraper: scraper, logger: slog.Default()}
}

func (s *Source) Key() string {
	return "batoto"
}

func (s *Source) Name() string {
	return "Batoto"
}

func (s *Source) Scraper() *Scraper {
	return s.scraper
}

func (s *Source) HealthCheck(ctx context.Context) error {
	return s.scraper.Ping(ctx)
}

func (s *Source) GetChapters(ctx context.Context, id string) ([]sources.Chapter, error) {
	chapters, err := s.scraper.ScrapeChapters(ctx, id)
	if err != nil {
		var extraction *ExtractionError
		if errors.As(err, &extraction) {
			s.logger.Warn("batoto chapter selectors matched nothing", "seriesId", id, "reason", extraction.Reason)
			return []sources.Chapter{}, nil
		}
		return nil, err
	}
	return chapters, nil
}

func (s *Source) GetChapterPages(ctx context.Context, chapterID string) (*sources.ChapterPages, error) {
	pages, err := s.scraper.ScrapeChapterPages(ctx, chapterID)
	if err != nil {
		var extraction *ExtractionError
		if errors.As(err, &extraction) {
			s.logger.Warn("batoto page extraction matched nothing", "chapterId", chapterID, "reason", extraction.Reason)
			return &sources.ChapterPages{
				ChapterID: chapterID,
				Pages:     []sources.Page{},
				Referer:   s.scraper.BaseURL(),
			}, nil
		}
		return nil, err
	}
	return pages, nil
}
