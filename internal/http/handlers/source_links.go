package handlers

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yomu-app/backend/internal/repository"
	"github.com/yomu-app/backend/internal/sources/batoto"
)

type setSourceLinkRequest struct {
	Input string `json:"input"`
}

// SourceLinksHandler manages the persisted manga→Batoto association. A link
// is only stored after the series id validates and the series scrapes.
type SourceLinksHandler struct {
	repo    *repository.SourceLinkRepository
	scraper *batoto.Scraper
}

func NewSourceLinksHandler(db *sql.DB, scraper *batoto.Scraper) *SourceLinksHandler {
	return &SourceLinksHandler{
		repo:    repository.NewSourceLinkRepository(db),
		scraper: scraper,
	}
}

func (h *SourceLinksHandler) Get(c *fiber.Ctx) error {
	mangaID := strings.TrimSpace(c.Params("id"))
	if mangaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "manga id is required"})
	}

	link, err := h.repo.GetByMangaID(mangaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load source link"})
	}
	if link == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no source link for manga"})
	}

	return c.JSON(link)
}

func (h *SourceLinksHandler) Set(c *fiber.Ctx) error {
	mangaID := strings.TrimSpace(c.Params("id"))
	if mangaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "manga id is required"})
	}

	var req setSourceLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid json body"})
	}

	seriesID, ok := batoto.ValidateSeriesInput(req.Input)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "input must be a batoto series url or id"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	test := h.scraper.TestConnection(ctx, seriesID)
	if !test.Success {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "batoto series is unreachable: " + test.Error,
			"test":    test,
		})
	}

	link, err := h.repo.Upsert(mangaID, "batoto", seriesID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to store source link"})
	}

	if err := h.repo.TouchVerified(mangaID, time.Now().UTC()); err == nil {
		link, _ = h.repo.GetByMangaID(mangaID)
	}

	return c.JSON(fiber.Map{"link": link, "test": test})
}

func (h *SourceLinksHandler) Delete(c *fiber.Ctx) error {
	mangaID := strings.TrimSpace(c.Params("id"))
	if mangaID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "manga id is required"})
	}

	deleted, err := h.repo.Delete(mangaID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to delete source link"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "no source link for manga"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
