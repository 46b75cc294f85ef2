package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/yomu-app/backend/internal/config"
	"github.com/yomu-app/backend/internal/database"
	"github.com/yomu-app/backend/internal/repository"
	sourcedefaults "github.com/yomu-app/backend/internal/sources/defaults"
)

func main() {
	var apply bool
	flag.BoolVar(&apply, "apply", false, "Delete dead links. Without this flag, the command is a dry-run preview.")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open sqlite", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.ApplyMigrations(db, cfg.MigrationsPath); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	_, scraper, selectorsErr := sourcedefaults.NewRegistry(cfg)
	if selectorsErr != nil {
		slog.Warn("selector overrides not loaded, using defaults", "error", selectorsErr)
	}

	repo := repository.NewSourceLinkRepository(db)
	links, err := repo.List()
	if err != nil {
		slog.Error("failed to list source links", "error", err)
		os.Exit(1)
	}

	if len(links) == 0 {
		slog.Info("no source links stored; nothing to check")
		return
	}

	slog.Info("checking source links", "count", len(links), "apply", apply)

	var dead, deleted, verified int
	for _, link := range links {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		test := scraper.TestConnection(ctx, link.ExternalID)
		cancel()

		if test.Success {
			verified++
			// Success with zero chapters usually means selector drift, not a
			// dead series. Leave those links alone.
			if test.ChapterCount == 0 {
				slog.Warn("link reachable but no chapters parsed",
					"manga_id", link.MangaID, "external_id", link.ExternalID, "detail", test.Error)
			}
			continue
		}

		dead++
		slog.Info("dead link detected",
			"manga_id", link.MangaID, "external_id", link.ExternalID, "error", test.Error)

		if !apply {
			continue
		}

		removed, err := repo.Delete(link.MangaID)
		if err != nil {
			slog.Error("failed to delete link", "manga_id", link.MangaID, "error", err)
			os.Exit(1)
		}
		if removed {
			deleted++
		}
	}

	if !apply && dead > 0 {
		slog.Info("dry-run complete; re-run with -apply to delete dead links",
			"dead", dead, "verified", verified)
		return
	}

	slog.Info("prune complete", "dead", dead, "deleted", deleted, "verified", verified)
}
