package handlers

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yomu-app/backend/internal/sources"
	"github.com/yomu-app/backend/internal/sources/mangadex"
)

const sourceRequestTimeout = 60 * time.Second

type ChaptersHandler struct {
	registry *sources.Registry
}

func NewChaptersHandler(registry *sources.Registry) *ChaptersHandler {
	return &ChaptersHandler{registry: registry}
}

func (h *ChaptersHandler) List(c *fiber.Ctx) error {
	source, ok := h.registry.Get(c.Params("key"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "unknown source"})
	}

	id, err := decodedParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid series id"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), sourceRequestTimeout)
	defer cancel()

	var chapters []sources.Chapter
	if mdx, isMangaDex := source.(*mangadex.Source); isMangaDex {
		opts := mangadex.ChapterOptions{Language: strings.TrimSpace(c.Query("language"))}
		if rawLimit := c.Query("limit"); rawLimit != "" {
			limit, parseErr := strconv.Atoi(rawLimit)
			if parseErr != nil || limit < 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid limit"})
			}
			opts.Limit = limit
		}
		chapters, err = mdx.GetChaptersWithOptions(ctx, id, opts)
	} else {
		chapters, err = source.GetChapters(ctx, id)
	}
	if err != nil {
		return c.Status(statusForSourceError(err)).JSON(fiber.Map{"message": err.Error()})
	}

	return c.JSON(fiber.Map{"items": chapters})
}

func (h *ChaptersHandler) Pages(c *fiber.Ctx) error {
	source, ok := h.registry.Get(c.Params("key"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "unknown source"})
	}

	chapterID, err := decodedParam(c, "chapterId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid chapter id"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), sourceRequestTimeout)
	defer cancel()

	pages, err := source.GetChapterPages(ctx, chapterID)
	if err != nil {
		return c.Status(statusForSourceError(err)).JSON(fiber.Map{"message": err.Error()})
	}

	return c.JSON(pages)
}

// decodedParam unescapes a path parameter; MangaDex composite chapter ids
// arrive URL-encoded ("mangaId%3AchapterId").
func decodedParam(c *fiber.Ctx, name string) (string, error) {
	decoded, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", err
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return "", fiber.ErrBadRequest
	}
	return decoded, nil
}
