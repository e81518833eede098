package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/logger"
	"github.com/pevans/newsgrab/scraper"
)

// ErrNoListingPages is returned when no listing page could be fetched.
var ErrNoListingPages = errors.New("no listing page could be fetched")

// Harvest strategies, recorded as the source of a page's links in debug
// logs.
const (
	StrategyContainer = "container"
	StrategySelector  = "selector"
	StrategyAllLinks  = "all-links"
	StrategyFallback  = "fallback"
	StrategyFeed      = "feed"
)

// Fetcher is the part of fetch.Fetcher the discoverer needs.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*fetch.Response, error)
	GetDocument(ctx context.Context, rawURL string) (*goquery.Document, *fetch.Response, error)
}

// Discoverer walks listing pages and collects candidate article URLs.
type Discoverer struct {
	fetcher    Fetcher
	classifier *Classifier
	list       scraper.ListConfig
	pacer      *fetch.Pacer
	log        *logger.Logger
}

// NewDiscoverer creates a discoverer for profile. A nil pacer disables the
// delay between page fetches.
func NewDiscoverer(f Fetcher, profile *scraper.Profile, pacer *fetch.Pacer, log *logger.Logger) (*Discoverer, error) {
	classifier, err := NewClassifier(profile.BaseURL, profile.Classifier)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Discoverer{
		fetcher:    f,
		classifier: classifier,
		list:       profile.List,
		pacer:      pacer,
		log:        log,
	}, nil
}

// Classifier returns the classifier used for harvested links.
func (d *Discoverer) Classifier() *Classifier {
	return d.classifier
}

// Discover walks every configured listing URL and the optional feed. It
// returns ErrNoListingPages only when nothing at all could be fetched; a
// partial walk returns what it found.
func (d *Discoverer) Discover(ctx context.Context) (*CandidateSet, error) {
	set := NewCandidateSet()

	var robots *robotsRules
	if d.list.RespectRobots {
		rules, err := loadRobots(ctx, d.fetcher, d.classifier.Origin())
		if err != nil {
			if ctx.Err() != nil {
				return set, ctx.Err()
			}
			d.log.Warn("robots.txt unavailable, allowing all", "error", err)
		}
		robots = rules
	}

	listings := d.list.ListingURLs
	if len(listings) == 0 {
		listings = []string{d.classifier.Origin().String()}
	}

	fetched := 0
	for _, listing := range listings {
		if d.full(set) {
			break
		}

		pages, err := d.walkListing(ctx, listing, set, robots)
		fetched += pages
		if err != nil {
			if ctx.Err() != nil {
				return set, ctx.Err()
			}
			d.log.Warn("listing walk failed", "listing", listing, "error", err)
		}
	}

	if d.list.FeedURL != "" && !d.full(set) {
		n, err := d.harvestFeed(ctx, set, robots)
		if err != nil {
			if ctx.Err() != nil {
				return set, ctx.Err()
			}
			d.log.Warn("feed harvest failed", "feed", d.list.FeedURL, "error", err)
		} else {
			fetched++
			d.log.Debug("feed harvested", "feed", d.list.FeedURL, "new", n)
		}
	}

	if fetched == 0 {
		return set, ErrNoListingPages
	}

	return set, nil
}

// walkListing fetches the first page of a listing and then follows
// pagination until a page adds nothing new or MaxPages is reached. It
// returns the number of pages fetched.
func (d *Discoverer) walkListing(ctx context.Context, listing string, set *CandidateSet, robots *robotsRules) (int, error) {
	doc, pageURL, err := d.fetchPage(ctx, listing)
	if err != nil {
		return 0, err
	}

	added := d.harvestPage(doc, pageURL, set, robots)
	if added == 0 {
		added = d.harvestFallback(doc, pageURL, set, robots)
	}
	d.log.Info("listing page harvested", "page", listing, "new", added, "total", set.Len())

	pages := 1
	if added == 0 {
		return pages, nil
	}

	maxPages := d.list.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	format := ""
	for n := 2; n <= maxPages && !d.full(set); n++ {
		var (
			newCount int
			ok       bool
		)

		if format == "" {
			format, newCount, ok = d.probePagination(ctx, listing, n, set, robots)
		} else {
			newCount, ok = d.followPage(ctx, pageFromFormat(format, listing, n), set, robots)
		}
		if ctx.Err() != nil {
			return pages, ctx.Err()
		}
		if !ok {
			break
		}
		pages++

		if newCount == 0 {
			break
		}
	}

	return pages, nil
}

// probePagination tries each pagination format for page n until one yields
// new URLs. The winning format is returned and reused for later pages.
func (d *Discoverer) probePagination(ctx context.Context, listing string, n int, set *CandidateSet, robots *robotsRules) (string, int, bool) {
	for _, format := range d.list.PaginationFormats {
		newCount, ok := d.followPage(ctx, pageFromFormat(format, listing, n), set, robots)
		if ctx.Err() != nil {
			return "", 0, false
		}
		if ok && newCount > 0 {
			d.log.Debug("pagination format selected", "format", format)
			return format, newCount, true
		}
	}

	return "", 0, false
}

func (d *Discoverer) followPage(ctx context.Context, pageURL string, set *CandidateSet, robots *robotsRules) (int, bool) {
	doc, base, err := d.fetchPage(ctx, pageURL)
	if err != nil {
		d.log.Debug("pagination page unavailable", "page", pageURL, "error", err)
		return 0, false
	}

	added := d.harvestPage(doc, base, set, robots)
	d.log.Info("listing page harvested", "page", pageURL, "new", added, "total", set.Len())
	return added, true
}

func (d *Discoverer) fetchPage(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	if d.pacer != nil {
		if err := d.pacer.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	doc, resp, err := d.fetcher.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}

	// Links resolve against the final URL after redirects.
	base, err := url.Parse(resp.URL)
	if err != nil || resp.URL == "" {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse page url: %w", err)
		}
	}

	return doc, base, nil
}

// harvestPage applies the strict strategies in order. A later strategy runs
// only when the earlier ones added nothing.
func (d *Discoverer) harvestPage(doc *goquery.Document, base *url.URL, set *CandidateSet, robots *robotsRules) int {
	strategies := []struct {
		name  string
		links *goquery.Selection
	}{
		{StrategyContainer, d.containerLinks(doc)},
		{StrategySelector, d.selectorLinks(doc)},
		{StrategyAllLinks, doc.Find("a[href]")},
	}

	for _, s := range strategies {
		added := 0
		s.links.Each(func(_ int, a *goquery.Selection) {
			if d.full(set) {
				return
			}
			if d.accept(a, base, set, robots, ConfidenceHigh) {
				added++
			}
		})

		if added > 0 {
			d.log.Debug("links harvested", "page", base.String(), "strategy", s.name, "new", added)
			return added
		}
	}

	return 0
}

// harvestFallback is the permissive pass over anchors with substantial
// text. Its results are marked low confidence.
func (d *Discoverer) harvestFallback(doc *goquery.Document, base *url.URL, set *CandidateSet, robots *robotsRules) int {
	added := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if added >= d.list.FallbackLimit || d.full(set) {
			return false
		}

		text := strings.Join(strings.Fields(a.Text()), " ")
		if utf8.RuneCountInString(text) <= d.list.FallbackMinText {
			return true
		}

		if d.accept(a, base, set, robots, ConfidenceLow) {
			added++
		}
		return true
	})

	if added > 0 {
		d.log.Warn("strict discovery found nothing, used permissive fallback", "page", base.String(), "new", added)
	}
	return added
}

// accept canonicalizes and classifies one anchor and adds it to set.
func (d *Discoverer) accept(a *goquery.Selection, base *url.URL, set *CandidateSet, robots *robotsRules, confidence Confidence) bool {
	href, ok := a.Attr("href")
	if !ok || skippableHref(href) {
		return false
	}

	canonical, err := Canonicalize(href, base)
	if err != nil {
		return false
	}

	var verdict Verdict
	if confidence == ConfidenceLow {
		verdict = d.classifier.ClassifySoft(canonical)
	} else {
		verdict = d.classifier.Classify(canonical)
	}
	if !verdict.Candidate {
		return false
	}

	if !robots.allowed(canonical) {
		d.log.Debug("link rejected", "url", canonical, "reason", ReasonRobotsDisallow)
		return false
	}

	return set.Add(Candidate{URL: canonical, Confidence: confidence, Source: base.String()})
}

func (d *Discoverer) containerLinks(doc *goquery.Document) *goquery.Selection {
	selectors := []string{"article a[href]"}
	for _, hint := range d.list.ContainerHints {
		selectors = append(selectors, fmt.Sprintf(`[class*=%q] a[href]`, hint))
	}
	return doc.Find(strings.Join(selectors, ", "))
}

func (d *Discoverer) selectorLinks(doc *goquery.Document) *goquery.Selection {
	if len(d.list.LinkSelectors) == 0 {
		return doc.Find("a[href]").Slice(0, 0)
	}
	return doc.Find(strings.Join(d.list.LinkSelectors, ", "))
}

func (d *Discoverer) full(set *CandidateSet) bool {
	return d.list.MaxArticles > 0 && set.Len() >= d.list.MaxArticles
}

func skippableHref(href string) bool {
	h := strings.ToLower(strings.TrimSpace(href))
	if h == "" || strings.HasPrefix(h, "#") {
		return true
	}
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(h, prefix) {
			return true
		}
	}
	return false
}

// pageFromFormat expands a pagination format such as "{base}/page/{n}/".
func pageFromFormat(format, listing string, n int) string {
	base := strings.TrimRight(listing, "/")
	page := strings.ReplaceAll(format, "{base}", base)
	return strings.ReplaceAll(page, "{n}", strconv.Itoa(n))
}
