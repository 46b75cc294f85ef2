package defaults

import (
	"net/http"
	"time"

	"github.com/yomu-app/backend/internal/config"
	"github.com/yomu-app/backend/internal/sources"
	"github.com/yomu-app/backend/internal/sources/batoto"
	"github.com/yomu-app/backend/internal/sources/mangadex"
)

// NewRegistry builds the standard source registry: MangaDex as the primary
// source and Batoto as the scraping fallback. Selector overrides load from
// the configured YAML file; a load failure keeps the compiled-in defaults
// and is returned alongside the usable registry.
func NewRegistry(cfg config.Config) (*sources.Registry, *batoto.Scraper, error) {
	registry := sources.NewRegistry()

	_ = registry.Register(mangadex.NewSourceWithOptions(
		cfg.MangaDexAPIURL,
		cfg.MangaDexBatchSize,
		cfg.MangaDexMaxOffset,
		nil,
	))

	selectors, selectorsErr := batoto.LoadSelectors(cfg.BatotoSelectorsPath)
	scraper := batoto.NewScraperWithOptions(
		cfg.BatotoBaseURL,
		selectors,
		500*time.Millisecond,
		&http.Client{Timeout: 10 * time.Second},
	)
	_ = registry.Register(batoto.NewSourceWithScraper(scraper))

	return registry, scraper, selectorsErr
}
