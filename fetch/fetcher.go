// Package fetch is the HTTP fetch layer: GET with a per-attempt timeout,
// bounded retries with exponential backoff, and failures classified as
// transient or permanent.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/newsgrab/logger"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent mimics a desktop browser; the target sites serve
// degraded markup to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Retry defines retry behavior.
type Retry struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	// Timeout bounds a single attempt.
	Timeout time.Duration `yaml:"timeout"`
}

// DefaultRetry returns the default retry policy.
func DefaultRetry() Retry {
	return Retry{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Timeout:      15 * time.Second,
	}
}

// Delay returns the backoff before retrying after the given attempt
// (1-based).
func (r Retry) Delay(attempt int) time.Duration {
	if attempt < 1 || r.InitialDelay <= 0 {
		return 0
	}

	multiplier := r.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := time.Duration(float64(r.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	return delay
}

// Response is a successful fetch.
type Response struct {
	URL         string // final URL after redirects
	StatusCode  int
	ContentType string
	Body        []byte // raw bytes as served
}

// Options configures a Fetcher.
type Options struct {
	UserAgent    string
	Retry        Retry
	MaxBodyBytes int64
	Client       *http.Client
	Logger       *logger.Logger
}

// Fetcher performs GET requests with retry.
type Fetcher struct {
	client    *http.Client
	userAgent string
	retry     Retry
	maxBody   int64
	log       *logger.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a fetcher. Zero-valued options take defaults.
func New(opts Options) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = DefaultRetry()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 * 1024 * 1024
	}
	if opts.Client == nil {
		// Per-attempt deadlines come from the request context
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Fetcher{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		retry:     opts.Retry,
		maxBody:   opts.MaxBodyBytes,
		log:       opts.Logger,
		sleep:     sleepContext,
	}
}

// Get fetches rawURL, retrying transient failures with exponential backoff
// up to the configured number of attempts. Permanent failures and caller
// cancellation return immediately.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Response, error) {
	var lastErr error

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		resp, retryAfter, err := f.attempt(ctx, rawURL)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}

		if attempt == f.retry.MaxAttempts {
			break
		}

		delay := f.retry.Delay(attempt)
		if retryAfter > delay {
			delay = min(retryAfter, max(f.retry.MaxDelay, delay))
		}

		f.log.Warn("fetch failed, retrying",
			"url", rawURL,
			"attempt", attempt,
			"max_attempts", f.retry.MaxAttempts,
			"delay", delay,
			"error", err,
		)

		if err := f.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// GetDocument fetches rawURL and parses the body as HTML, decoded to UTF-8
// from the charset named in the Content-Type header or the page's meta tags.
func (f *Fetcher) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, *Response, error) {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}

	body, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return nil, resp, &PermanentError{URL: rawURL, Err: fmt.Errorf("failed to decode body: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, resp, &PermanentError{URL: rawURL, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	return doc, resp, nil
}

// attempt performs a single request bounded by the per-attempt timeout. It
// also returns any Retry-After hint sent with a 429 or 503.
func (f *Fetcher) attempt(ctx context.Context, rawURL string) (*Response, time.Duration, error) {
	attemptCtx := ctx
	if f.retry.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, f.retry.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, 0, &PermanentError{URL: rawURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, classifyNetError(ctx, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, retryAfter(resp.Header.Get("Retry-After")), statusError(rawURL, resp.StatusCode)
	}

	if !acceptableContentType(resp.Header.Get("Content-Type")) {
		return nil, 0, &PermanentError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnsupportedContentType, resp.Header.Get("Content-Type")),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, 0, classifyNetError(ctx, rawURL, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, 0, &PermanentError{URL: rawURL, StatusCode: resp.StatusCode, Err: ErrBodyTooLarge}
	}

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, 0, nil
}

// acceptableContentType accepts HTML, XML and JSON feeds, and plain text. A
// missing header is accepted.
func acceptableContentType(header string) bool {
	if header == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return true
	}

	return strings.HasPrefix(mediaType, "text/") ||
		strings.Contains(mediaType, "html") ||
		strings.Contains(mediaType, "xml") ||
		strings.HasSuffix(mediaType, "json")
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep waits for d or until ctx is done. It is the pause used for
// politeness delays elsewhere in the module.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}
