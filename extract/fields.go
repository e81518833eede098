package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/pevans/newsgrab/scraper"
)

// Extractor runs probe lists against documents. The zero value is not
// usable; construct with NewExtractor.
type Extractor struct {
	sink ProbeSink
}

// NewExtractor creates an extractor. A nil sink discards probe diagnostics.
func NewExtractor(sink ProbeSink) *Extractor {
	if sink == nil {
		sink = nopSink{}
	}
	return &Extractor{sink: sink}
}

// Field returns the value of the first probe whose match passes validation.
// A probe that is present but fails validation is reported and skipped; it
// is never retried. ok is false when every probe failed, in which case the
// caller applies the field's sentinel default.
func (e *Extractor) Field(doc *goquery.Document, page *url.URL, field string, probes []scraper.FieldProbe) (string, bool) {
	for _, probe := range probes {
		value, present := e.probe(doc, page, probe)
		if !present {
			e.sink.Probe(field, probe.Name, OutcomeMissing, "")
			continue
		}

		if !probe.Accepts(value) {
			e.sink.Probe(field, probe.Name, OutcomeRejected, value)
			continue
		}

		e.sink.Probe(field, probe.Name, OutcomeAccepted, value)
		return value, true
	}

	return "", false
}

// probe runs one probe and reports whether it matched anything at all.
func (e *Extractor) probe(doc *goquery.Document, page *url.URL, probe scraper.FieldProbe) (string, bool) {
	if probe.Kind == scraper.KindReadability {
		return readable(doc, page)
	}

	matches := doc.Find(probe.Selector)
	if matches.Length() == 0 {
		return "", false
	}

	if probe.Join {
		parts := make([]string, 0, matches.Length())
		matches.Each(func(_ int, s *goquery.Selection) {
			if text := Normalize(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		return strings.Join(parts, " "), true
	}

	first := matches.First()

	var raw string
	if probe.Attr != "" {
		value, ok := first.Attr(probe.Attr)
		if !ok {
			return "", false
		}
		raw = value
	} else {
		raw = first.Text()
	}

	if probe.URL {
		return resolveRef(page, raw), true
	}

	return Normalize(raw), true
}

// readable runs readability over the page HTML and returns the normalized
// text of the detected main content.
func readable(doc *goquery.Document, page *url.URL) (string, bool) {
	html, err := doc.Html()
	if err != nil {
		return "", false
	}

	if page == nil {
		page = &url.URL{}
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), page)
	if err != nil || article.Content == "" {
		return "", false
	}

	content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", false
	}

	return Normalize(content.Text()), true
}

// resolveRef resolves an href or src against the page URL. Data URIs and
// unparsable references resolve to the empty string.
func resolveRef(page *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ""
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	if page != nil {
		parsed = page.ResolveReference(parsed)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}

	return parsed.String()
}
