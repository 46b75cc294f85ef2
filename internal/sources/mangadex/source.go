package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yomu-app/backend/internal/sources"
)

const (
	defaultAPIBaseURL = "https://api.mangadex.org"
	defaultBatchSize  = 500
	defaultMaxOffset  = 10000
)

type Source struct {
	apiBaseURL string
	batchSize  int
	maxOffset  int
	httpClient *http.Client
	logger     *slog.Logger
}

// ChapterOptions filters the chapter feed after the full fetch. The feed is
// requested without a language filter so results mirror the MangaDex website;
// filtering and truncation happen client-side on purpose.
type ChapterOptions struct {
	Limit    int
	Language string
}

func NewSource() *Source {
	return NewSourceWithOptions(defaultAPIBaseURL, 0, 0, nil)
}

func NewSourceWithOptions(apiBaseURL string, batchSize int, maxOffset int, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxOffset <= 0 {
		maxOffset = defaultMaxOffset
	}
	if strings.TrimSpace(apiBaseURL) == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	return &Source{
		apiBaseURL: strings.TrimRight(strings.TrimSpace(apiBaseURL), "/"),
		batchSize:  batchSize,
		maxOffset:  maxOffset,
		httpClient: client,
		logger:     slog.Default(),
	}
}

func (s *Source) Key() string {
	return "mangadex"
}

func (s *Source) Name() string {
	return "MangaDex"
}

func (s *Source) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request ping: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &sources.StatusError{Source: "mangadex", Status: res.StatusCode}
	}

	return nil
}

func (s *Source) GetChapters(ctx context.Context, id string) ([]sources.Chapter, error) {
	return s.GetChaptersWithOptions(ctx, id, ChapterOptions{})
}

// GetChaptersWithOptions pages through the chapter feed until a short page,
// the offset ceiling, or a failure. A failed first page is an error; failures
// after that return whatever was accumulated.
func (s *Source) GetChaptersWithOptions(ctx context.Context, mangaID string, opts ChapterOptions) ([]sources.Chapter, error) {
	mangaID = strings.TrimSpace(mangaID)
	if mangaID == "" {
		return nil, fmt.Errorf("manga id is required")
	}

	chapters := make([]sources.Chapter, 0, s.batchSize)
	offset := 0
	for {
		if offset > s.maxOffset {
			s.logger.Warn("chapter feed offset ceiling reached", "mangaId", mangaID, "offset", offset)
			break
		}

		page, err := s.fetchFeedPage(ctx, mangaID, s.batchSize, offset)
		if err != nil {
			if offset == 0 {
				return nil, fmt.Errorf("fetch chapter feed: %w", err)
			}
			s.logger.Warn("chapter feed page failed, returning partial results",
				"mangaId", mangaID, "offset", offset, "fetched", len(chapters), "error", err)
			break
		}

		for _, item := range page.Data {
			chapters = append(chapters, normalizeChapter(item))
		}

		if len(page.Data) < s.batchSize {
			break
		}
		offset += s.batchSize
	}

	if opts.Language != "" {
		filtered := make([]sources.Chapter, 0, len(chapters))
		for _, chapter := range chapters {
			if chapter.Language == opts.Language {
				filtered = append(filtered, chapter)
			}
		}
		chapters = filtered
	}

	if opts.Limit > 0 && len(chapters) > opts.Limit {
		chapters = chapters[:opts.Limit]
	}

	return chapters, nil
}

// GetChapterPages expects the composite key "mangaId:chapterId". The manga id
// half identifies which series the chapter belongs to; callers that only have
// a bare chapter id cannot use this source.
func (s *Source) GetChapterPages(ctx context.Context, chapterID string) (*sources.ChapterPages, error) {
	mangaID, bareChapterID, found := strings.Cut(chapterID, ":")
	if !found {
		return nil, fmt.Errorf("mangadex chapter id must be formatted mangaId:chapterId, got %q", chapterID)
	}
	if strings.TrimSpace(mangaID) == "" || strings.TrimSpace(bareChapterID) == "" {
		return nil, fmt.Errorf("mangadex chapter id must be formatted mangaId:chapterId, got %q", chapterID)
	}

	return s.GetChapterPagesWithOptions(ctx, strings.TrimSpace(mangaID), strings.TrimSpace(bareChapterID), true)
}

func (s *Source) GetChapterPagesWithOptions(ctx context.Context, mangaID string, chapterID string, dataSaver bool) (*sources.ChapterPages, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+"/at-home/server/"+url.PathEscape(chapterID), nil)
	if err != nil {
		return nil, fmt.Errorf("create at-home request: %w", err)
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request chapter images: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &sources.StatusError{Source: "mangadex", Status: res.StatusCode}
	}

	var payload atHomeResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode at-home response: %w", err)
	}

	files := payload.Chapter.Data
	quality := "data"
	if dataSaver {
		files = payload.Chapter.DataSaver
		quality = "data-saver"
	}

	base := strings.TrimRight(payload.BaseURL, "/")
	pages := make([]sources.Page, 0, len(files))
	for _, file := range files {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		pages = append(pages, sources.Page{
			Index:    len(pages),
			ImageURL: base + "/" + quality + "/" + payload.Chapter.Hash + "/" + file,
		})
	}

	return &sources.ChapterPages{
		ChapterID: mangaID + ":" + chapterID,
		Pages:     pages,
	}, nil
}

// ChapterCount reads the feed total from a single limit=1 request. It is
// informational only and reports 0 instead of failing.
func (s *Source) ChapterCount(ctx context.Context, mangaID string) int {
	page, err := s.fetchFeedPage(ctx, mangaID, 1, 0)
	if err != nil {
		s.logger.Debug("chapter count probe failed", "mangaId", mangaID, "error", err)
		return 0
	}
	return page.Total
}

// LanguageBreakdown probes the feed total once per language. Failed probes
// contribute zero.
func (s *Source) LanguageBreakdown(ctx context.Context, mangaID string, languages []string) map[string]int {
	breakdown := make(map[string]int, len(languages))
	for _, language := range languages {
		language = strings.TrimSpace(language)
		if language == "" {
			continue
		}
		page, err := s.fetchFeedPageForLanguage(ctx, mangaID, language)
		if err != nil {
			s.logger.Debug("language breakdown probe failed", "mangaId", mangaID, "language", language, "error", err)
			breakdown[language] = 0
			continue
		}
		breakdown[language] = page.Total
	}
	return breakdown
}

func (s *Source) fetchFeedPage(ctx context.Context, mangaID string, limit int, offset int) (*chapterFeedResponse, error) {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(offset))
	values.Set("order[volume]", "asc")
	values.Set("order[chapter]", "asc")
	return s.requestFeed(ctx, mangaID, values)
}

func (s *Source) fetchFeedPageForLanguage(ctx context.Context, mangaID string, language string) (*chapterFeedResponse, error) {
	values := url.Values{}
	values.Set("limit", "1")
	values.Set("offset", "0")
	values.Add("translatedLanguage[]", language)
	return s.requestFeed(ctx, mangaID, values)
}

func (s *Source) requestFeed(ctx context.Context, mangaID string, values url.Values) (*chapterFeedResponse, error) {
	endpoint := s.apiBaseURL + "/manga/" + url.PathEscape(mangaID) + "/feed?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request: %w", err)
	}

	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &sources.StatusError{Source: "mangadex", Status: res.StatusCode}
	}

	var payload chapterFeedResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	return &payload, nil
}

func normalizeChapter(item feedChapter) sources.Chapter {
	chapter := sources.Chapter{
		ID:          item.ID,
		Chapter:     cleanLabel(item.Attributes.Chapter),
		Volume:      cleanLabel(item.Attributes.Volume),
		Title:       cleanLabel(item.Attributes.Title),
		Language:    item.Attributes.TranslatedLanguage,
		Pages:       item.Attributes.Pages,
		PublishedAt: item.Attributes.PublishAt,
	}
	if externalURL := cleanLabel(item.Attributes.ExternalURL); externalURL != nil {
		chapter.ExternalURL = externalURL
	}
	return chapter
}

func cleanLabel(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

type feedChapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Volume             *string `json:"volume"`
		Chapter            *string `json:"chapter"`
		Title              *string `json:"title"`
		TranslatedLanguage string  `json:"translatedLanguage"`
		Pages              int     `json:"pages"`
		PublishAt          string  `json:"publishAt"`
		ExternalURL        *string `json:"externalUrl"`
	} `json:"attributes"`
}

type chapterFeedResponse struct {
	Result string        `json:"result"`
	Data   []feedChapter `json:"data"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int           `json:"total"`
}

type atHomeResponse struct {
	Result  string `json:"result"`
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash      string   `json:"hash"`
		Data      []string `json:"data"`
		DataSaver []string `json:"dataSaver"`
	} `json:"chapter"`
}
