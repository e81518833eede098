package discovery

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"
)

// ParseFeed parses an RSS, Atom or JSON feed body and returns the item
// links in feed order.
func ParseFeed(body []byte) ([]string, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		switch {
		case item.Link != "":
			links = append(links, item.Link)
		case len(item.Links) > 0:
			links = append(links, item.Links[0])
		}
	}

	return links, nil
}

// harvestFeed adds the configured feed's item links. Feed items are
// published articles, so they go through the strict classifier and are
// high confidence when accepted.
func (d *Discoverer) harvestFeed(ctx context.Context, set *CandidateSet, robots *robotsRules) (int, error) {
	if d.pacer != nil {
		if err := d.pacer.Wait(ctx); err != nil {
			return 0, err
		}
	}

	resp, err := d.fetcher.Get(ctx, d.list.FeedURL)
	if err != nil {
		return 0, err
	}

	links, err := ParseFeed(resp.Body)
	if err != nil {
		return 0, err
	}

	base, err := url.Parse(d.list.FeedURL)
	if err != nil {
		return 0, fmt.Errorf("failed to parse feed url: %w", err)
	}

	added := 0
	for _, link := range links {
		if d.full(set) {
			break
		}
		if skippableHref(link) {
			continue
		}

		canonical, err := Canonicalize(link, base)
		if err != nil {
			continue
		}
		if !d.classifier.Classify(canonical).Candidate || !robots.allowed(canonical) {
			continue
		}
		if set.Add(Candidate{URL: canonical, Confidence: ConfidenceHigh, Source: StrategyFeed}) {
			added++
		}
	}

	return added, nil
}
