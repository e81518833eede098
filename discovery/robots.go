package discovery

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pevans/newsgrab/fetch"
	"github.com/temoto/robotstxt"
)

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "newsgrab"

// robotsRules wraps a parsed robots.txt. A nil receiver allows everything.
type robotsRules struct {
	data *robotstxt.RobotsData
}

// loadRobots fetches robots.txt for origin. A 4xx answer allows everything;
// any other failure is returned and the caller allows everything too.
func loadRobots(ctx context.Context, f Fetcher, origin *url.URL) (*robotsRules, error) {
	robotsURL := origin.ResolveReference(&url.URL{Path: "/robots.txt"}).String()

	resp, err := f.Get(ctx, robotsURL)
	if err != nil {
		if code := fetch.StatusCode(err); code >= 400 && code < 500 {
			data, perr := robotstxt.FromStatusAndBytes(code, nil)
			if perr != nil {
				return nil, perr
			}
			return &robotsRules{data: data}, nil
		}
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
	if err != nil {
		return nil, err
	}

	return &robotsRules{data: data}, nil
}

// allowed reports whether the agent may fetch rawURL.
func (r *robotsRules) allowed(rawURL string) bool {
	if r == nil || r.data == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return r.data.TestAgent(u.EscapedPath(), RobotsAgent)
}

// RobotsAllowed loads robots.txt for rawURL's origin and reports whether
// the agent may fetch rawURL. It follows the same rules as discovery: an
// unreachable robots.txt is returned as an error alongside true.
func RobotsAllowed(ctx context.Context, f Fetcher, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() {
		return false, fmt.Errorf("invalid url %q", rawURL)
	}

	rules, err := loadRobots(ctx, f, &url.URL{Scheme: u.Scheme, Host: u.Host})
	if err != nil {
		return true, err
	}
	return rules.allowed(rawURL), nil
}
