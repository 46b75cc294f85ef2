package models

import "time"

// SourceLink associates a MangaDex manga with the fallback provider's series
// id, so the reader can fall through to scraping when the primary source has
// no readable chapters.
type SourceLink struct {
	MangaID    string     `json:"mangaId"`
	Provider   string     `json:"provider"`
	ExternalID string     `json:"externalId"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
