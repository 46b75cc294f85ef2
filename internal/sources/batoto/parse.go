package batoto

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	labeledChapterPattern = regexp.MustCompile(`(?i)\b(?:chapter|chap|ch|episode|ep)\.?\s*(\d+(?:\.\d+)?)`)
	leadingNumberPattern  = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
	relativeTimePattern   = regexp.MustCompile(`(?i)(\d+)\s*(minute|hour|day|week|month)s?\s+ago`)
	seriesTokenPattern    = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// ParseChapterNumber pulls a numeric chapter label out of free-form text.
// It tries a labeled form ("Chapter 10.5", "Ep. 3") and then a leading
// number; nil means no number was found.
func ParseChapterNumber(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if match := labeledChapterPattern.FindStringSubmatch(trimmed); len(match) == 2 {
		return &match[1]
	}
	if match := leadingNumberPattern.FindStringSubmatch(trimmed); len(match) == 2 {
		return &match[1]
	}
	return nil
}

// ParseDate turns whatever date text the site shows into an RFC3339 string.
// Absolute layouts are tried first, then relative forms ("3 days ago");
// anything unparsable becomes now. Chapters always get a timestamp.
func ParseDate(text string, now time.Time) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return now.UTC().Format(time.RFC3339)
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}

	if match := relativeTimePattern.FindStringSubmatch(trimmed); len(match) == 3 {
		quantity, err := strconv.Atoi(match[1])
		if err == nil && quantity >= 0 {
			result := now.UTC()
			switch strings.ToLower(match[2]) {
			case "minute":
				result = result.Add(-time.Duration(quantity) * time.Minute)
			case "hour":
				result = result.Add(-time.Duration(quantity) * time.Hour)
			case "day":
				result = result.AddDate(0, 0, -quantity)
			case "week":
				result = result.AddDate(0, 0, -7*quantity)
			case "month":
				result = result.AddDate(0, -quantity, 0)
			}
			return result.Format(time.RFC3339)
		}
	}

	return now.UTC().Format(time.RFC3339)
}

// ExtractChapterID returns the path segment after the last "/chapter/" in a
// URL, stopping at / ? or #.
func ExtractChapterID(rawURL string) string {
	return extractAfterMarker(rawURL, "/chapter/")
}

// ExtractSeriesID returns the path segment after the last "/series/" in a
// URL, stopping at / ? or #.
func ExtractSeriesID(rawURL string) string {
	return extractAfterMarker(rawURL, "/series/")
}

func extractAfterMarker(rawURL string, marker string) string {
	index := strings.LastIndex(rawURL, marker)
	if index == -1 {
		return ""
	}

	rest := rawURL[index+len(marker):]
	for i, r := range rest {
		if r == '/' || r == '?' || r == '#' {
			return rest[:i]
		}
	}
	return rest
}

// ValidateSeriesInput accepts a full Batoto URL (the series id is extracted)
// or a bare alphanumeric/dash token (taken as-is). Anything else is rejected.
func ValidateSeriesInput(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "/series/") {
		if id := ExtractSeriesID(trimmed); id != "" {
			return id, true
		}
		return "", false
	}

	if seriesTokenPattern.MatchString(trimmed) {
		return trimmed, true
	}
	return "", false
}
