package sources

import "context"

// Chapter is the normalized chapter record shared by every source.
// Label fields are pointers because not every site exposes them; a nil
// Chapter label means the number could not be determined.
type Chapter struct {
	ID          string  `json:"id"`
	Chapter     *string `json:"chapter"`
	Volume      *string `json:"volume"`
	Title       *string `json:"title"`
	Language    string  `json:"language"`
	Pages       int     `json:"pages"`
	PublishedAt string  `json:"publishedAt"`
	ExternalURL *string `json:"externalUrl"`
}

// Page is one image in a chapter. Index is dense and zero-based after
// filtered-out candidates are dropped.
type Page struct {
	Index    int    `json:"index"`
	ImageURL string `json:"imageUrl"`
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
}

// ChapterPages is the page list for one chapter. Referer is set when the
// source's image hosts require a matching Referer header.
type ChapterPages struct {
	ChapterID string `json:"chapterId"`
	Pages     []Page `json:"pages"`
	Referer   string `json:"referer,omitempty"`
}

// Source is the capability contract every provider implements. Implementations
// are stateless; one instance serves concurrent requests.
type Source interface {
	Key() string
	Name() string
	HealthCheck(ctx context.Context) error
	GetChapters(ctx context.Context, id string) ([]Chapter, error)
	GetChapterPages(ctx context.Context, chapterID string) (*ChapterPages, error)
}
