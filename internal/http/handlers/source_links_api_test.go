package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const batotoSeriesHTML = `<!DOCTYPE html>
<html><body>
<div class="episode-list">
	<div class="episode-item">
		<a href="/chapter/c1">Chapter 1</a>
		<b class="chapter-number">Chapter 1</b>
		<i class="episode-date">2 days ago</i>
	</div>
	<div class="episode-item">
		<a href="/chapter/c2">Chapter 2</a>
		<b class="chapter-number">Chapter 2</b>
		<i class="episode-date">1 hour ago</i>
	</div>
</div>
</body></html>`

func TestSourceLinkLifecycle(t *testing.T) {
	batotoMux := http.NewServeMux()
	batotoMux.HandleFunc("/series/12345", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(batotoSeriesHTML))
	})
	app := setupTestApp(t, nil, batotoMux)

	missingReq := httptest.NewRequest(http.MethodGet, "/v1/manga/manga-1/source-link", nil)
	missingRes, err := app.Test(missingReq)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if missingRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before link exists, got %d", missingRes.StatusCode)
	}

	body, _ := json.Marshal(map[string]string{"input": "https://mto.to/series/12345"})
	setReq := httptest.NewRequest(http.MethodPut, "/v1/manga/manga-1/source-link", bytes.NewReader(body))
	setReq.Header.Set("Content-Type", "application/json")
	setRes, err := app.Test(setReq)
	if err != nil {
		t.Fatalf("set request failed: %v", err)
	}
	if setRes.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", setRes.StatusCode)
	}

	var setPayload map[string]any
	if err := json.NewDecoder(setRes.Body).Decode(&setPayload); err != nil {
		t.Fatalf("decode set response: %v", err)
	}
	link := setPayload["link"].(map[string]any)
	if link["provider"] != "batoto" {
		t.Fatalf("expected provider batoto, got %v", link["provider"])
	}
	if link["externalId"] != "12345" {
		t.Fatalf("expected external id 12345, got %v", link["externalId"])
	}
	if link["verifiedAt"] == nil {
		t.Fatalf("expected verifiedAt to be stamped on successful test")
	}
	test := setPayload["test"].(map[string]any)
	if test["chapterCount"] != 2.0 {
		t.Fatalf("expected 2 chapters in connection test, got %v", test["chapterCount"])
	}

	getReq := httptest.NewRequest(http.MethodGet, "/v1/manga/manga-1/source-link", nil)
	getRes, err := app.Test(getReq)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if getRes.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getRes.StatusCode)
	}

	deleteReq := httptest.NewRequest(http.MethodDelete, "/v1/manga/manga-1/source-link", nil)
	deleteRes, err := app.Test(deleteReq)
	if err != nil {
		t.Fatalf("delete request failed: %v", err)
	}
	if deleteRes.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", deleteRes.StatusCode)
	}

	deleteAgainReq := httptest.NewRequest(http.MethodDelete, "/v1/manga/manga-1/source-link", nil)
	deleteAgainRes, err := app.Test(deleteAgainReq)
	if err != nil {
		t.Fatalf("second delete request failed: %v", err)
	}
	if deleteAgainRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 deleting missing link, got %d", deleteAgainRes.StatusCode)
	}
}

func TestSourceLinkSetRejectsInvalidInput(t *testing.T) {
	app := setupTestApp(t, nil, nil)

	body, _ := json.Marshal(map[string]string{"input": "not a url or id!!"})
	req := httptest.NewRequest(http.MethodPut, "/v1/manga/manga-1/source-link", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.StatusCode)
	}
}

func TestSourceLinkSetRejectsUnreachableSeries(t *testing.T) {
	// No batoto handler registered: every series fetch 404s.
	app := setupTestApp(t, nil, nil)

	body, _ := json.Marshal(map[string]string{"input": "99999"})
	req := httptest.NewRequest(http.MethodPut, "/v1/manga/manga-1/source-link", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.StatusCode)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/v1/manga/manga-1/source-link", nil)
	getRes, err := app.Test(getReq)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if getRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected no link stored after failed test, got %d", getRes.StatusCode)
	}
}
