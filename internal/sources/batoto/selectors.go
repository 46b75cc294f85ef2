package batoto

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors is the scraping target table. Batoto's markup drifts, so every
// entry is a comma-separated list of candidate CSS selectors and the whole
// table can be swapped at deploy time from a YAML file instead of a rebuild.
type Selectors struct {
	ChapterLink    string   `yaml:"chapterLink"`
	ChapterItem    string   `yaml:"chapterItem"`
	ChapterNumber  string   `yaml:"chapterNumber"`
	ChapterTitle   string   `yaml:"chapterTitle"`
	ChapterDate    string   `yaml:"chapterDate"`
	PageImages     string   `yaml:"pageImages"`
	LazyAttributes []string `yaml:"lazyAttributes"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		ChapterLink:    `a[href*="/chapter/"]`,
		ChapterItem:    ".episode-item, .chapt-item, .item, li",
		ChapterNumber:  ".chapt b, .episode-title b, .chapter-number, b",
		ChapterTitle:   ".chapt span, .episode-title span, .chapter-title, span",
		ChapterDate:    ".extra-info i, .episode-date, .update-time, i.ps-3",
		PageImages:     "#viewer img, .page-img, img[id^='page-']",
		LazyAttributes: []string{"data-src", "data-lazy-src"},
	}
}

// LoadSelectors merges a YAML override file over the defaults. Empty fields
// in the file keep their default value. An empty path returns the defaults.
func LoadSelectors(path string) (Selectors, error) {
	selectors := DefaultSelectors()
	if path == "" {
		return selectors, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return selectors, fmt.Errorf("read selectors file: %w", err)
	}

	var override Selectors
	if err := yaml.Unmarshal(content, &override); err != nil {
		return selectors, fmt.Errorf("parse selectors file: %w", err)
	}

	if override.ChapterLink != "" {
		selectors.ChapterLink = override.ChapterLink
	}
	if override.ChapterItem != "" {
		selectors.ChapterItem = override.ChapterItem
	}
	if override.ChapterNumber != "" {
		selectors.ChapterNumber = override.ChapterNumber
	}
	if override.ChapterTitle != "" {
		selectors.ChapterTitle = override.ChapterTitle
	}
	if override.ChapterDate != "" {
		selectors.ChapterDate = override.ChapterDate
	}
	if len(override.LazyAttributes) > 0 {
		selectors.LazyAttributes = override.LazyAttributes
	}
	if override.PageImages != "" {
		selectors.PageImages = override.PageImages
	}

	return selectors, nil
}
