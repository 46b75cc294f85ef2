package batoto

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/yomu-app/backend/internal/sources"
)

const (
	defaultBaseURL      = "https://mto.to"
	defaultTimeout      = 10 * time.Second
	defaultRequestDelay = 500 * time.Millisecond
	desktopUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var (
	scriptImagePattern = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:jpe?g|png|webp|gif)`)
	skipImageMarkers   = []string{"placeholder", "loading"}
	noiseImageMarkers  = []string{"avatar", "logo", "icon"}
)

// ExtractionError means the page fetched fine but none of the configured
// selectors or fallback strategies found the expected structure. It is the
// "selectors likely stale" signal, distinct from transport failure.
type ExtractionError struct {
	Target string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("batoto %s extraction found nothing: %s", e.Target, e.Reason)
}

// ConnectionTest reports whether a series id is currently scrapeable.
type ConnectionTest struct {
	Success      bool   `json:"success"`
	ChapterCount int    `json:"chapterCount"`
	Error        string `json:"error,omitempty"`
}

type Scraper struct {
	baseURL      string
	httpClient   *http.Client
	selectors    Selectors
	requestDelay time.Duration
	logger       *slog.Logger
}

func NewScraper() *Scraper {
	return NewScraperWithOptions(defaultBaseURL, DefaultSelectors(), defaultRequestDelay, nil)
}

func NewScraperWithOptions(baseURL string, selectors Selectors, requestDelay time.Duration, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if requestDelay < 0 {
		requestDelay = 0
	}
	return &Scraper{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient:   client,
		selectors:    selectors,
		requestDelay: requestDelay,
		logger:       slog.Default(),
	}
}

func (s *Scraper) BaseURL() string {
	return s.baseURL
}

func (s *Scraper) Ping(ctx context.Context) error {
	_, err := s.fetchPage(ctx, s.baseURL+"/")
	return err
}

// ScrapeChapters parses the series page chapter list. Zero matching links is
// reported as *ExtractionError so callers can tell markup drift apart from a
// series that truly has no chapters on a failed fetch.
func (s *Scraper) ScrapeChapters(ctx context.Context, seriesID string) ([]sources.Chapter, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return nil, fmt.Errorf("series id is required")
	}

	body, err := s.fetchPage(ctx, s.baseURL+"/series/"+seriesID)
	if err != nil {
		return nil, fmt.Errorf("fetch series page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse series page: %w", err)
	}

	links := doc.Find(s.selectors.ChapterLink)
	if links.Length() == 0 {
		return nil, &ExtractionError{Target: "chapter", Reason: "no elements matched " + s.selectors.ChapterLink}
	}

	now := time.Now().UTC()
	chapters := make([]sources.Chapter, 0, links.Length())
	seen := make(map[string]struct{}, links.Length())

	links.Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		chapterID := ExtractChapterID(href)
		if chapterID == "" {
			return
		}
		if _, exists := seen[chapterID]; exists {
			return
		}
		seen[chapterID] = struct{}{}

		// Closest tests the link itself first, so a link with no matching
		// ancestor still gets searched for sub-elements.
		item := link.Closest(s.selectors.ChapterItem)
		if item.Length() == 0 {
			item = link
		}

		numberText := strings.TrimSpace(item.Find(s.selectors.ChapterNumber).First().Text())
		if numberText == "" {
			numberText = strings.TrimSpace(link.Text())
		}
		number := ParseChapterNumber(numberText)

		var title *string
		titleText := strings.TrimSpace(item.Find(s.selectors.ChapterTitle).First().Text())
		if titleText != "" && titleText != numberText {
			title = &titleText
		}

		dateText := strings.TrimSpace(item.Find(s.selectors.ChapterDate).First().Text())
		if dateText == "" {
			dateText = strings.TrimSpace(item.Find("time").First().AttrOr("datetime", ""))
		}

		externalURL := s.baseURL + "/chapter/" + chapterID
		chapters = append(chapters, sources.Chapter{
			ID:          chapterID,
			Chapter:     number,
			Volume:      nil,
			Title:       title,
			Language:    "en",
			Pages:       0,
			PublishedAt: ParseDate(dateText, now),
			ExternalURL: &externalURL,
		})
	})

	if len(chapters) == 0 {
		return nil, &ExtractionError{Target: "chapter", Reason: "matched links carried no chapter ids"}
	}

	// Ascending by numeric chapter; an unparsable number sorts as 0 without
	// touching the stored label.
	sort.SliceStable(chapters, func(i, j int) bool {
		return chapterSortValue(chapters[i].Chapter) < chapterSortValue(chapters[j].Chapter)
	})

	return chapters, nil
}

// ScrapeChapterPages extracts image URLs from a chapter page by trying three
// strategies in order, stopping at the first that yields any pages.
func (s *Scraper) ScrapeChapterPages(ctx context.Context, chapterID string) (*sources.ChapterPages, error) {
	chapterID = strings.TrimSpace(chapterID)
	if chapterID == "" {
		return nil, fmt.Errorf("chapter id is required")
	}

	if err := s.courtesyDelay(ctx); err != nil {
		return nil, err
	}

	body, err := s.fetchPage(ctx, s.baseURL+"/chapter/"+chapterID)
	if err != nil {
		return nil, fmt.Errorf("fetch chapter page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse chapter page: %w", err)
	}

	pages := s.pagesFromImageSelector(doc)
	if len(pages) == 0 {
		pages = s.pagesFromLazyAttributes(doc)
	}
	if len(pages) == 0 {
		pages = s.pagesFromScripts(doc)
	}
	if len(pages) == 0 {
		return nil, &ExtractionError{Target: "page", Reason: "no strategy yielded images"}
	}

	for i := range pages {
		pages[i].Index = i
	}

	return &sources.ChapterPages{
		ChapterID: chapterID,
		Pages:     pages,
		Referer:   s.baseURL,
	}, nil
}

// TestConnection validates a series id by running the chapter scrape. It
// never returns a Go error; transport failures come back as Success=false
// while stale selectors come back as Success=true with a zero count, so a
// drifting selector table does not condemn stored links.
func (s *Scraper) TestConnection(ctx context.Context, seriesID string) ConnectionTest {
	chapters, err := s.ScrapeChapters(ctx, seriesID)
	if err != nil {
		var extraction *ExtractionError
		if errors.As(err, &extraction) {
			return ConnectionTest{Success: true, ChapterCount: 0, Error: extraction.Error()}
		}
		return ConnectionTest{Success: false, Error: err.Error()}
	}
	return ConnectionTest{Success: true, ChapterCount: len(chapters)}
}

func (s *Scraper) pagesFromImageSelector(doc *goquery.Document) []sources.Page {
	pages := make([]sources.Page, 0, 16)
	doc.Find(s.selectors.PageImages).Each(func(_ int, img *goquery.Selection) {
		rawURL, _ := img.Attr("src")
		if rawURL == "" || isSkippableImageURL(rawURL) {
			for _, attr := range s.selectors.LazyAttributes {
				if candidate, ok := img.Attr(attr); ok && candidate != "" {
					rawURL = candidate
					break
				}
			}
		}
		if rawURL == "" || isSkippableImageURL(rawURL) {
			return
		}

		page := sources.Page{ImageURL: s.absoluteURL(rawURL)}
		if width, ok := intAttr(img, "width"); ok {
			page.Width = &width
		}
		if height, ok := intAttr(img, "height"); ok {
			page.Height = &height
		}
		pages = append(pages, page)
	})
	return pages
}

func (s *Scraper) pagesFromLazyAttributes(doc *goquery.Document) []sources.Page {
	pages := make([]sources.Page, 0, 16)
	for _, attr := range s.selectors.LazyAttributes {
		doc.Find("[" + attr + "]").Each(func(_ int, element *goquery.Selection) {
			rawURL, _ := element.Attr(attr)
			if rawURL == "" || isSkippableImageURL(rawURL) {
				return
			}
			pages = append(pages, sources.Page{ImageURL: s.absoluteURL(rawURL)})
		})
		if len(pages) > 0 {
			break
		}
	}
	return pages
}

func (s *Scraper) pagesFromScripts(doc *goquery.Document) []sources.Page {
	pages := make([]sources.Page, 0, 16)
	seen := make(map[string]struct{})
	doc.Find("script").Each(func(_ int, script *goquery.Selection) {
		for _, match := range scriptImagePattern.FindAllString(script.Text(), -1) {
			if _, exists := seen[match]; exists {
				continue
			}
			seen[match] = struct{}{}
			if isNoiseImageURL(match) {
				continue
			}
			pages = append(pages, sources.Page{ImageURL: match})
		}
	})
	return pages
}

func (s *Scraper) courtesyDelay(ctx context.Context) error {
	if s.requestDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.requestDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scraper) fetchPage(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", desktopUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", s.baseURL+"/")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", &sources.StatusError{Source: "batoto", Status: res.StatusCode}
	}

	rawBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	return string(rawBody), nil
}

func (s *Scraper) absoluteURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "//") {
		return "https:" + trimmed
	}
	if strings.HasPrefix(trimmed, "/") {
		return s.baseURL + trimmed
	}
	return s.baseURL + "/" + trimmed
}

func chapterSortValue(label *string) float64 {
	if label == nil {
		return 0
	}
	value, err := strconv.ParseFloat(*label, 64)
	if err != nil {
		return 0
	}
	return value
}

func isSkippableImageURL(raw string) bool {
	lowered := strings.ToLower(raw)
	for _, marker := range skipImageMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func isNoiseImageURL(raw string) bool {
	lowered := strings.ToLower(raw)
	for _, marker := range noiseImageMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func intAttr(element *goquery.Selection, name string) (int, bool) {
	raw, ok := element.Attr(name)
	if !ok {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
