package scraper

import (
	"time"
)

// Probe kinds. A selector probe queries the document; a readability probe
// runs main-content detection over the raw page HTML.
const (
	KindSelector    = ""
	KindReadability = "readability"
)

// FieldProbe is one structural attempt at extracting a field. Probes for a
// field are tried in order and the first validated match wins.
type FieldProbe struct {
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	// Attr reads an attribute (e.g. "content" on a meta tag) instead of
	// the element text.
	Attr string `json:"attr,omitempty" yaml:"attr,omitempty"`
	// Join concatenates the text of every match instead of the first one.
	Join bool `json:"join,omitempty" yaml:"join,omitempty"`
	// URL marks the value as a reference to resolve against the page URL.
	URL bool `json:"url,omitempty" yaml:"url,omitempty"`
	// MinLength rejects values whose length is not strictly greater.
	MinLength int `json:"min_length,omitempty" yaml:"min_length,omitempty"`
}

// Accepts reports whether a normalized value passes the probe's validator.
func (p FieldProbe) Accepts(value string) bool {
	if value == "" {
		return false
	}
	if p.MinLength > 0 && len([]rune(value)) <= p.MinLength {
		return false
	}
	return true
}

// FieldProbes holds the ordered probe list for every extracted field.
type FieldProbes struct {
	Title     []FieldProbe `json:"title" yaml:"title"`
	Thumbnail []FieldProbe `json:"thumbnail" yaml:"thumbnail"`
	Category  []FieldProbe `json:"category" yaml:"category"`
	Summary   []FieldProbe `json:"summary" yaml:"summary"`
	Author    []FieldProbe `json:"author" yaml:"author"`
	Content   []FieldProbe `json:"content" yaml:"content"`
	// Date selectors are consumed by the date parser rather than the
	// generic field extractor.
	Date []string `json:"date" yaml:"date"`
}

// ListConfig defines how candidate article links are harvested from
// listing pages.
type ListConfig struct {
	ListingURLs []string `json:"listing_urls" yaml:"listing_urls"`
	// ContainerHints are class fragments marking post containers.
	ContainerHints []string `json:"container_hints" yaml:"container_hints"`
	LinkSelectors  []string `json:"link_selectors" yaml:"link_selectors"`
	// PaginationFormats are probed in order; {base} is the listing URL
	// without trailing slash and {n} the page number.
	PaginationFormats []string `json:"pagination_formats" yaml:"pagination_formats"`
	MaxPages          int      `json:"max_pages" yaml:"max_pages"`
	MaxArticles       int      `json:"max_articles" yaml:"max_articles"`
	FallbackMinText   int      `json:"fallback_min_text" yaml:"fallback_min_text"`
	FallbackLimit     int      `json:"fallback_limit" yaml:"fallback_limit"`
	FeedURL           string   `json:"feed_url,omitempty" yaml:"feed_url,omitempty"`
	RespectRobots     bool     `json:"respect_robots" yaml:"respect_robots"`
}

// ClassifierConfig is the data behind the article/non-article URL
// heuristic.
type ClassifierConfig struct {
	Exclusions      []string `json:"exclusions" yaml:"exclusions"`
	SoftExclusions  []string `json:"soft_exclusions" yaml:"soft_exclusions"`
	AssetExtensions []string `json:"asset_extensions" yaml:"asset_extensions"`
	MinSegments     int      `json:"min_segments" yaml:"min_segments"`
	MinLength       int      `json:"min_length" yaml:"min_length"`
}

// Politeness bounds the pauses between requests.
type Politeness struct {
	PageDelayMin    time.Duration `json:"page_delay_min" yaml:"page_delay_min"`
	PageDelayMax    time.Duration `json:"page_delay_max" yaml:"page_delay_max"`
	ArticleDelayMin time.Duration `json:"article_delay_min" yaml:"article_delay_min"`
	ArticleDelayMax time.Duration `json:"article_delay_max" yaml:"article_delay_max"`
}

// Profile defines how to discover and extract articles from one website.
type Profile struct {
	BaseURL    string           `json:"base_url" yaml:"base_url"`
	Probes     FieldProbes      `json:"probes" yaml:"probes"`
	List       ListConfig       `json:"list" yaml:"list"`
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Politeness Politeness       `json:"politeness" yaml:"politeness"`
	// MaxImages caps the image collector; zero or less means unbounded.
	MaxImages int `json:"max_images" yaml:"max_images"`
}
