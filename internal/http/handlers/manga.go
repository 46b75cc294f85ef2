package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yomu-app/backend/internal/sources/mangadex"
)

var defaultBreakdownLanguages = []string{"en", "es", "pt-br", "fr", "de", "ru", "ja"}

// MangaHandler proxies manga search and detail to the MangaDex API verbatim,
// and serves the informational chapter-stats endpoint. The proxy endpoints
// carry no logic beyond validation; the PWA reads them as if they were
// MangaDex itself.
type MangaHandler struct {
	apiBaseURL string
	httpClient *http.Client
	mangadex   *mangadex.Source
}

func NewMangaHandler(apiBaseURL string, mdx *mangadex.Source) *MangaHandler {
	return &MangaHandler{
		apiBaseURL: strings.TrimRight(strings.TrimSpace(apiBaseURL), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		mangadex:   mdx,
	}
}

func (h *MangaHandler) Search(c *fiber.Ctx) error {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "title is required"})
	}

	values := url.Values{}
	values.Set("title", title)
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		values.Set("limit", limit)
	}
	values.Add("includes[]", "cover_art")

	return h.passThrough(c, "/manga?"+values.Encode())
}

func (h *MangaHandler) Detail(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "manga id is required"})
	}

	return h.passThrough(c, "/manga/"+url.PathEscape(id)+"?includes[]=cover_art&includes[]=author")
}

func (h *MangaHandler) ChapterStats(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "manga id is required"})
	}

	languages := defaultBreakdownLanguages
	if raw := strings.TrimSpace(c.Query("languages")); raw != "" {
		languages = nil
		for _, part := range strings.Split(raw, ",") {
			if language := strings.TrimSpace(part); language != "" {
				languages = append(languages, language)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	return c.JSON(fiber.Map{
		"mangaId":   id,
		"total":     h.mangadex.ChapterCount(ctx, id),
		"languages": h.mangadex.LanguageBreakdown(ctx, id, languages),
	})
}

func (h *MangaHandler) passThrough(c *fiber.Ctx, pathAndQuery string) error {
	req, err := http.NewRequestWithContext(c.Context(), http.MethodGet, h.apiBaseURL+pathAndQuery, nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to build upstream request"})
	}

	res, err := h.httpClient.Do(req)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": fmt.Sprintf("mangadex request failed: %v", err)})
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "failed to read upstream response"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(res.StatusCode).Send(body)
}
