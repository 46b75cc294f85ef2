package http

import (
	"database/sql"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/yomu-app/backend/internal/config"
	"github.com/yomu-app/backend/internal/http/handlers"
	"github.com/yomu-app/backend/internal/sources"
	"github.com/yomu-app/backend/internal/sources/batoto"
	sourcedefaults "github.com/yomu-app/backend/internal/sources/defaults"
	"github.com/yomu-app/backend/internal/sources/mangadex"
)

func NewServer(cfg config.Config, db *sql.DB) *fiber.App {
	return NewServerWithRegistry(cfg, db, nil)
}

func NewServerWithRegistry(cfg config.Config, db *sql.DB, registry *sources.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	app.Use(recover.New())

	if registry == nil {
		loaded, _, err := sourcedefaults.NewRegistry(cfg)
		if err != nil {
			slog.Warn("batoto selectors loaded with warnings", "error", err)
		}
		registry = loaded
	}

	mdx := mangadexFromRegistry(registry, cfg)
	scraper := batotoScraperFromRegistry(registry, cfg)

	health := handlers.NewHealthHandler(db)
	sourceHandlers := handlers.NewSourcesHandler(registry)
	chapters := handlers.NewChaptersHandler(registry)
	manga := handlers.NewMangaHandler(cfg.MangaDexAPIURL, mdx)
	links := handlers.NewSourceLinksHandler(db, scraper)

	app.Get("/health", health.Check)
	app.Get("/v1/health", health.Check)

	v1 := app.Group("/v1")
	v1.Get("/sources", sourceHandlers.List)
	v1.Get("/sources/health", sourceHandlers.Health)
	v1.Get("/sources/:key/series/:id/chapters", chapters.List)
	v1.Get("/sources/:key/chapters/:chapterId/pages", chapters.Pages)
	v1.Get("/manga", manga.Search)
	v1.Get("/manga/:id", manga.Detail)
	v1.Get("/manga/:id/chapter-stats", manga.ChapterStats)
	v1.Get("/manga/:id/source-link", links.Get)
	v1.Put("/manga/:id/source-link", links.Set)
	v1.Delete("/manga/:id/source-link", links.Delete)

	return app
}

func mangadexFromRegistry(registry *sources.Registry, cfg config.Config) *mangadex.Source {
	if source, ok := registry.Get("mangadex"); ok {
		if mdx, isMangaDex := source.(*mangadex.Source); isMangaDex {
			return mdx
		}
	}
	return mangadex.NewSourceWithOptions(cfg.MangaDexAPIURL, cfg.MangaDexBatchSize, cfg.MangaDexMaxOffset, nil)
}

func batotoScraperFromRegistry(registry *sources.Registry, cfg config.Config) *batoto.Scraper {
	if source, ok := registry.Get("batoto"); ok {
		if bt, isBatoto := source.(*batoto.Source); isBatoto {
			return bt.Scraper()
		}
	}
	selectors, _ := batoto.LoadSelectors(cfg.BatotoSelectorsPath)
	return batoto.NewScraperWithOptions(cfg.BatotoBaseURL, selectors, 0, nil)
}
