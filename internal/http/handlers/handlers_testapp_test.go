package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yomu-app/backend/internal/config"
	"github.com/yomu-app/backend/internal/database"
	apihttp "github.com/yomu-app/backend/internal/http"
	"github.com/yomu-app/backend/internal/sources"
	"github.com/yomu-app/backend/internal/sources/batoto"
	"github.com/yomu-app/backend/internal/sources/mangadex"
)

// setupTestApp wires the full router against httptest upstreams standing in
// for the MangaDex API and the Batoto site.
func setupTestApp(t *testing.T, mangadexHandler http.Handler, batotoHandler http.Handler) *fiber.App {
	t.Helper()

	if mangadexHandler == nil {
		mangadexHandler = http.NotFoundHandler()
	}
	if batotoHandler == nil {
		batotoHandler = http.NotFoundHandler()
	}

	mangadexServer := httptest.NewServer(mangadexHandler)
	t.Cleanup(mangadexServer.Close)
	batotoServer := httptest.NewServer(batotoHandler)
	t.Cleanup(batotoServer.Close)

	dbPath := filepath.Join(t.TempDir(), "test.sqlite")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.ApplyMigrations(db, filepath.Join("..", "..", "..", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	registry := sources.NewRegistry()
	if err := registry.Register(mangadex.NewSourceWithOptions(mangadexServer.URL, 0, 0, client)); err != nil {
		t.Fatalf("register mangadex: %v", err)
	}
	scraper := batoto.NewScraperWithOptions(batotoServer.URL, batoto.DefaultSelectors(), time.Millisecond, client)
	if err := registry.Register(batoto.NewSourceWithScraper(scraper)); err != nil {
		t.Fatalf("register batoto: %v", err)
	}

	cfg := config.Config{
		AppName:        "test-app",
		MangaDexAPIURL: mangadexServer.URL,
		BatotoBaseURL:  batotoServer.URL,
	}
	app := apihttp.NewServerWithRegistry(cfg, db, registry)
	t.Cleanup(func() { _ = app.Shutdown() })

	return app
}
