// Package discovery finds candidate article URLs on listing pages and
// feeds without relying on a sitemap or API.
package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/pevans/newsgrab/scraper"
)

// ErrInvalidBaseURL is returned when the site origin cannot be parsed.
var ErrInvalidBaseURL = errors.New("base url must be an absolute http(s) url")

// Rejection reasons reported in a Verdict.
const (
	ReasonOK             = ""
	ReasonUnparsable     = "unparsable"
	ReasonFragmentOnly   = "fragment-only"
	ReasonQuery          = "query"
	ReasonScheme         = "scheme"
	ReasonForeignOrigin  = "foreign-origin"
	ReasonExcluded       = "excluded"
	ReasonStaticAsset    = "static-asset"
	ReasonTooShallow     = "too-shallow"
	ReasonTooShort       = "too-short"
	ReasonRobotsDisallow = "robots"
)

// Verdict is the classifier's decision for one URL.
type Verdict struct {
	Candidate bool
	Reason    string
}

func reject(reason string) Verdict { return Verdict{Reason: reason} }

// Classifier decides whether a link looks like an article. It is a
// heuristic: false positives are caught later by the assembler's content
// check.
type Classifier struct {
	origin      *url.URL
	exclusions  []*regexp.Regexp
	soft        []*regexp.Regexp
	assets      []string
	minSegments int
	minLength   int
}

// NewClassifier builds a classifier for the site at baseURL.
func NewClassifier(baseURL string, cfg scraper.ClassifierConfig) (*Classifier, error) {
	origin, err := url.Parse(baseURL)
	if err != nil || origin.Host == "" || (origin.Scheme != "http" && origin.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	exclusions, err := compileAll(cfg.Exclusions)
	if err != nil {
		return nil, err
	}
	soft, err := compileAll(cfg.SoftExclusions)
	if err != nil {
		return nil, err
	}

	assets := make([]string, 0, len(cfg.AssetExtensions))
	for _, ext := range cfg.AssetExtensions {
		assets = append(assets, strings.ToLower(ext))
	}

	return &Classifier{
		origin:      origin,
		exclusions:  exclusions,
		soft:        soft,
		assets:      assets,
		minSegments: cfg.MinSegments,
		minLength:   cfg.MinLength,
	}, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Origin returns the site origin the classifier accepts.
func (c *Classifier) Origin() *url.URL {
	return c.origin
}

// Classify applies the strict article heuristic to an absolute URL.
func (c *Classifier) Classify(raw string) Verdict {
	if strings.HasPrefix(strings.TrimSpace(raw), "#") {
		return reject(ReasonFragmentOnly)
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return reject(ReasonUnparsable)
	}
	if u.RawQuery != "" || u.ForceQuery {
		return reject(ReasonQuery)
	}
	if v := c.common(u); !v.Candidate {
		return v
	}

	p := strings.ToLower(u.EscapedPath())
	for _, re := range c.exclusions {
		if re.MatchString(p) {
			return reject(ReasonExcluded)
		}
	}

	if segments(u.Path) < c.minSegments {
		return reject(ReasonTooShallow)
	}
	if len(raw) <= c.minLength {
		return reject(ReasonTooShort)
	}

	return Verdict{Candidate: true}
}

// ClassifySoft is the permissive rule used by the fallback discovery pass:
// same origin, not a static asset, not matching a soft exclusion.
func (c *Classifier) ClassifySoft(raw string) Verdict {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return reject(ReasonUnparsable)
	}
	if v := c.common(u); !v.Candidate {
		return v
	}

	p := strings.ToLower(u.EscapedPath())
	for _, re := range c.soft {
		if re.MatchString(p) {
			return reject(ReasonExcluded)
		}
	}

	if strings.Trim(u.Path, "/") == "" {
		return reject(ReasonTooShallow)
	}

	return Verdict{Candidate: true}
}

// common holds the checks shared by both rules: scheme, origin and asset
// extension.
func (c *Classifier) common(u *url.URL) Verdict {
	if u.Scheme != "http" && u.Scheme != "https" {
		return reject(ReasonScheme)
	}
	if !strings.EqualFold(u.Hostname(), c.origin.Hostname()) || u.Port() != c.origin.Port() {
		return reject(ReasonForeignOrigin)
	}
	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && slices.Contains(c.assets, ext) {
		return reject(ReasonStaticAsset)
	}
	return Verdict{Candidate: true}
}

func segments(p string) int {
	n := 0
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			n++
		}
	}
	return n
}

// Canonicalize resolves href against base and strips the fragment and query
// string. The result is the identity key for dedupe and persistence.
func Canonicalize(href string, base *url.URL) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}

	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("url is not absolute: %q", href)
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
