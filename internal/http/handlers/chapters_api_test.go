package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChaptersUnknownSourceReturns404(t *testing.T) {
	app := setupTestApp(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/nope/series/abc/chapters", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
}

func TestChaptersListFiltersByLanguageAndLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga/abc/feed", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": "ok",
			"total":  3,
			"data": []map[string]any{
				{"id": "ch-1", "attributes": map[string]any{"chapter": "1", "translatedLanguage": "en", "pages": 10, "publishAt": "2024-03-01T12:00:00+00:00"}},
				{"id": "ch-2", "attributes": map[string]any{"chapter": "2", "translatedLanguage": "es", "pages": 11, "publishAt": "2024-03-02T12:00:00+00:00"}},
				{"id": "ch-3", "attributes": map[string]any{"chapter": "3", "translatedLanguage": "en", "pages": 12, "publishAt": "2024-03-03T12:00:00+00:00"}},
			},
		})
	})
	app := setupTestApp(t, mux, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/mangadex/series/abc/chapters?language=en&limit=1", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(payload.Items))
	}
	if payload.Items[0]["id"] != "ch-1" {
		t.Fatalf("expected first english chapter, got %v", payload.Items[0]["id"])
	}
}

func TestChaptersUpstreamFailureMapsTo502(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manga/abc/feed", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	app := setupTestApp(t, mux, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/mangadex/series/abc/chapters", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.StatusCode)
	}
}

func TestChapterPagesDecodesCompositeKey(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/at-home/server/ch-9", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"baseUrl": "https://uploads.example",
			"chapter": map[string]any{
				"hash":      "h4sh",
				"data":      []string{"1.png"},
				"dataSaver": []string{"1.jpg"},
			},
		})
	})
	app := setupTestApp(t, mux, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/mangadex/chapters/abc%3Ach-9/pages", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var pages struct {
		ChapterID string `json:"chapterId"`
		Pages     []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"pages"`
	}
	if err := json.NewDecoder(res.Body).Decode(&pages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(pages.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages.Pages))
	}
	if pages.Pages[0].ImageURL != "https://uploads.example/data-saver/h4sh/1.jpg" {
		t.Fatalf("unexpected image url %q", pages.Pages[0].ImageURL)
	}
}

func TestChapterPagesRejectsMalformedCompositeKey(t *testing.T) {
	app := setupTestApp(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/mangadex/chapters/just-one-part/pages", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestSourcesListReturnsRegisteredSources(t *testing.T) {
	app := setupTestApp(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/sources", nil)
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	var payload struct {
		Items []struct {
			Key string `json:"key"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(payload.Items))
	}
	if payload.Items[0].Key != "batoto" || payload.Items[1].Key != "mangadex" {
		t.Fatalf("expected sorted keys [batoto mangadex], got %+v", payload.Items)
	}
}
