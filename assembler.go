// Package newsgrab assembles article records from fetched pages and runs
// batches of candidate URLs through fetch, extraction and persistence.
package newsgrab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgrab/articles"
	"github.com/pevans/newsgrab/discovery"
	"github.com/pevans/newsgrab/extract"
	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/logger"
	"github.com/pevans/newsgrab/scraper"
)

// ErrAssemblyRejected is returned when a page yields neither a title nor any
// body text. Such a page is treated as a fetch or parse failure.
var ErrAssemblyRejected = errors.New("page has neither title nor content")

// Field names reported to the probe sink.
const (
	FieldTitle     = "title"
	FieldThumbnail = "thumbnail"
	FieldCategory  = "category"
	FieldSummary   = "summary"
	FieldAuthor    = "author"
	FieldContent   = "content"
	FieldDate      = "publicationDate"
)

// PageFetcher fetches and parses one page.
type PageFetcher interface {
	GetDocument(ctx context.Context, rawURL string) (*goquery.Document, *fetch.Response, error)
}

// Assembler turns one article page into an articles.Article.
type Assembler struct {
	fetcher   PageFetcher
	probes    scraper.FieldProbes
	extractor *extract.Extractor
	dates     *extract.DateParser
	maxImages int
	now       func() time.Time
	log       *logger.Logger
}

// NewAssembler creates an assembler using profile's probe lists and image
// cap. A nil sink discards probe diagnostics.
func NewAssembler(f PageFetcher, profile *scraper.Profile, sink extract.ProbeSink, log *logger.Logger) *Assembler {
	if log == nil {
		log = logger.Nop()
	}

	return &Assembler{
		fetcher:   f,
		probes:    profile.Probes,
		extractor: extract.NewExtractor(sink),
		dates:     extract.NewDateParser(profile.Probes.Date, sink),
		maxImages: profile.MaxImages,
		now:       time.Now,
		log:       log,
	}
}

// WithMaxImages overrides the image cap. Zero or less keeps every image.
func (a *Assembler) WithMaxImages(n int) *Assembler {
	a.maxImages = n
	return a
}

// WithClock sets the time source for scrapedAt and the date fallback.
func (a *Assembler) WithClock(now func() time.Time) *Assembler {
	a.now = now
	a.dates = a.dates.WithClock(now)
	return a
}

// Assemble fetches rawURL and extracts its record. The record's URL is the
// canonical form of rawURL; relative references resolve against the final
// URL after redirects.
func (a *Assembler) Assemble(ctx context.Context, rawURL string) (*articles.Article, error) {
	canonical, err := discovery.Canonicalize(rawURL, nil)
	if err != nil {
		return nil, &fetch.PermanentError{URL: rawURL, Err: err}
	}

	doc, resp, err := a.fetcher.GetDocument(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}

	base := canonical
	if resp != nil && resp.URL != "" {
		base = resp.URL
	}

	article, err := a.build(doc, canonical, base)
	if err != nil {
		return nil, err
	}

	a.log.Debug("article assembled",
		"url", article.URL,
		"title", extract.Truncate(article.Title, 60),
		"words", article.WordCount,
		"images", len(article.Images),
	)

	return article, nil
}

// AssembleDocument extracts a record from an already parsed page.
func (a *Assembler) AssembleDocument(doc *goquery.Document, pageURL string) (*articles.Article, error) {
	canonical, err := discovery.Canonicalize(pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize page url: %w", err)
	}

	return a.build(doc, canonical, pageURL)
}

func (a *Assembler) build(doc *goquery.Document, canonical, base string) (*articles.Article, error) {
	page, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	title, hasTitle := a.extractor.Field(doc, page, FieldTitle, a.probes.Title)
	content, hasContent := a.extractor.Field(doc, page, FieldContent, a.probes.Content)
	if !hasTitle && !hasContent {
		return nil, fmt.Errorf("%w: %s", ErrAssemblyRejected, canonical)
	}

	article := &articles.Article{
		URL:       canonical,
		Title:     orDefault(title, hasTitle, articles.TitleNotFound),
		Content:   orDefault(content, hasContent, articles.EmptyContent),
		Category:  a.field(doc, page, FieldCategory, a.probes.Category, articles.Uncategorized),
		Summary:   a.field(doc, page, FieldSummary, a.probes.Summary, articles.EmptySummary),
		Author:    a.field(doc, page, FieldAuthor, a.probes.Author, articles.UnknownAuthor),
		Images:    extract.CollectImages(doc, page, a.maxImages),
		ScrapedAt: a.now().UTC(),
	}

	if thumb, ok := a.extractor.Field(doc, page, FieldThumbnail, a.probes.Thumbnail); ok {
		article.Thumbnail = &thumb
	}

	date, found := a.dates.Parse(doc)
	if !found {
		a.log.Debug("publication date not found, using scrape date", "url", canonical)
	}
	article.PublicationDate = date
	article.WordCount = extract.WordCount(article.Content)

	return article, nil
}

func (a *Assembler) field(doc *goquery.Document, page *url.URL, name string, probes []scraper.FieldProbe, sentinel string) string {
	value, ok := a.extractor.Field(doc, page, name, probes)
	return orDefault(value, ok, sentinel)
}

func orDefault(value string, ok bool, sentinel string) string {
	if !ok {
		return sentinel
	}
	return value
}
