package articles

import (
	"time"
)

// Sentinel defaults for fields no probe could extract. Consumers never
// need null checks beyond Thumbnail.
const (
	TitleNotFound   = "Title not found"
	UnknownAuthor   = "Unknown author"
	Uncategorized   = "Uncategorized"
	EmptySummary    = ""
	EmptyContent    = ""
	TimestampLayout = time.RFC3339
)

// Image is one embedded image reference.
type Image struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Article is the normalized record extracted from one article page. It is
// created once per successful assembly and never mutated afterwards.
type Article struct {
	URL             string           `json:"url"`
	Title           string           `json:"title"`
	Thumbnail       *string          `json:"thumbnail"`
	Category        string           `json:"category"`
	Summary         string           `json:"summary"`
	Author          string           `json:"author"`
	Content         string           `json:"content"`
	PublicationDate string           `json:"publicationDate"`
	Images          map[string]Image `json:"images"`
	ScrapedAt       time.Time        `json:"scrapedAt"`
	WordCount       int              `json:"wordCount"`
}

// HasTitle reports whether a title was extracted rather than defaulted.
func (a *Article) HasTitle() bool {
	return a.Title != "" && a.Title != TitleNotFound
}

// HasContent reports whether any body text was extracted.
func (a *Article) HasContent() bool {
	return a.Content != ""
}
