package batoto

import (
	"testing"
	"time"
)

func TestParseChapterNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
		none  bool
	}{
		{input: "Chapter 10.5", want: "10.5"},
		{input: "Ch. 3", want: "3"},
		{input: "Episode 12", want: "12"},
		{input: "Ep.7 Finale", want: "7"},
		{input: "42 - The Answer", want: "42"},
		{input: "Vol 2", none: true},
		{input: "Special", none: true},
		{input: "", none: true},
	}

	for _, tc := range tests {
		got := ParseChapterNumber(tc.input)
		if tc.none {
			if got != nil {
				t.Fatalf("ParseChapterNumber(%q) = %q, want nil", tc.input, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Fatalf("ParseChapterNumber(%q) = %v, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseDateRelative(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	got := ParseDate("3 days ago", now)
	want := now.AddDate(0, 0, -3).Format(time.RFC3339)
	if got != want {
		t.Fatalf("ParseDate(3 days ago) = %s, want %s", got, want)
	}

	got = ParseDate("5 hours ago", now)
	want = now.Add(-5 * time.Hour).Format(time.RFC3339)
	if got != want {
		t.Fatalf("ParseDate(5 hours ago) = %s, want %s", got, want)
	}
}

func TestParseDateAbsoluteAndFallback(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	if got := ParseDate("2024-01-15T10:00:00Z", now); got != "2024-01-15T10:00:00Z" {
		t.Fatalf("expected passthrough of RFC3339 input, got %s", got)
	}
	if got := ParseDate("Jan 2, 2024", now); got != "2024-01-02T00:00:00Z" {
		t.Fatalf("expected layout parse, got %s", got)
	}

	// Unparsable text still yields a timestamp: now.
	if got := ParseDate("not a date", now); got != now.Format(time.RFC3339) {
		t.Fatalf("expected now for garbage input, got %s", got)
	}
	if got := ParseDate("", now); got != now.Format(time.RFC3339) {
		t.Fatalf("expected now for empty input, got %s", got)
	}
}

func TestExtractIDs(t *testing.T) {
	if got := ExtractSeriesID("https://mto.to/series/12345?foo=bar"); got != "12345" {
		t.Fatalf("ExtractSeriesID = %q, want 12345", got)
	}
	if got := ExtractSeriesID("https://mto.to/series/abc-123/the-title"); got != "abc-123" {
		t.Fatalf("ExtractSeriesID = %q, want abc-123", got)
	}
	if got := ExtractChapterID("/chapter/999#page-2"); got != "999" {
		t.Fatalf("ExtractChapterID = %q, want 999", got)
	}
	if got := ExtractChapterID("https://mto.to/title/999"); got != "" {
		t.Fatalf("ExtractChapterID = %q, want empty", got)
	}
}

func TestValidateSeriesInput(t *testing.T) {
	if id, ok := ValidateSeriesInput("https://mto.to/series/12345?foo=bar"); !ok || id != "12345" {
		t.Fatalf("expected url input to extract 12345, got %q %v", id, ok)
	}
	if id, ok := ValidateSeriesInput("abc-123"); !ok || id != "abc-123" {
		t.Fatalf("expected bare token accepted, got %q %v", id, ok)
	}
	if _, ok := ValidateSeriesInput("https://mto.to/title/123"); ok {
		t.Fatal("expected url without /series/ to be rejected")
	}
	if _, ok := ValidateSeriesInput("not a token!"); ok {
		t.Fatal("expected invalid token to be rejected")
	}
	if _, ok := ValidateSeriesInput("   "); ok {
		t.Fatal("expected blank input to be rejected")
	}
}
