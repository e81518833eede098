package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFetcher returns a fetcher whose backoff sleeps are recorded
// instead of taken.
func newTestFetcher(opts Options) (*Fetcher, *[]time.Duration) {
	f := New(opts)
	var slept []time.Duration
	f.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return f, &slept
}

func TestGet_Success(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{})
	resp, err := f.Get(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html><body>ok</body></html>", string(resp.Body))
	assert.Equal(t, DefaultUserAgent, userAgent)
}

func TestGet_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	f, slept := newTestFetcher(Options{Retry: Retry{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}})

	resp, err := f.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestGet_TransientExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{Retry: Retry{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}})

	_, err := f.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_PermanentNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f, slept := newTestFetcher(Options{})

	_, err := f.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.False(t, IsTransient(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, *slept)
}

func TestGet_RateLimitHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f, slept := newTestFetcher(Options{Retry: Retry{
		MaxAttempts:  2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}})

	_, err := f.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestGet_UnsupportedContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{})
	_, err := f.Get(context.Background(), server.URL)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestGet_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{MaxBodyBytes: 16})
	_, err := f.Get(context.Background(), server.URL)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestGet_AttemptTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f, _ := newTestFetcher(Options{Retry: Retry{MaxAttempts: 1, Timeout: 50 * time.Millisecond}})
	_, err := f.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGet_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, _ := newTestFetcher(Options{})
	_, err := f.Get(ctx, server.URL)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, IsTransient(err))
}

func TestGet_InvalidSchemeIsPermanent(t *testing.T) {
	f, _ := newTestFetcher(Options{})
	_, err := f.Get(context.Background(), "ftp://example.com/file")

	assert.True(t, IsPermanent(err))
}

func TestGetDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Titre</h1></body></html>`))
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{})
	doc, resp, err := f.GetDocument(context.Background(), server.URL+"/a/b")
	require.NoError(t, err)

	assert.Equal(t, "Titre", doc.Find("h1").Text())
	assert.Equal(t, server.URL+"/a/b", resp.URL)
}

func TestGetDocument_DecodesLatin1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<html><body><h1>\xc9conomie fran\xe7aise</h1></body></html>"))
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{})
	doc, resp, err := f.GetDocument(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Économie française", doc.Find("h1").Text())
	assert.Equal(t, "text/html; charset=iso-8859-1", resp.ContentType)
	assert.True(t, bytes.Contains(resp.Body, []byte{0xc9}), "raw body is kept as served")
}

func TestGetDocument_MetaCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><meta charset="windows-1252"></head><body><h1>` + "\x93Cr\xe9ation\x94" + `</h1></body></html>`))
	}))
	defer server.Close()

	f, _ := newTestFetcher(Options{})
	doc, _, err := f.GetDocument(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "“Création”", doc.Find("h1").Text())
}

func TestRetry_Delay(t *testing.T) {
	r := Retry{InitialDelay: 500 * time.Millisecond, MaxDelay: 3 * time.Second, Multiplier: 2}

	assert.Equal(t, 500*time.Millisecond, r.Delay(1))
	assert.Equal(t, time.Second, r.Delay(2))
	assert.Equal(t, 2*time.Second, r.Delay(3))
	assert.Equal(t, 3*time.Second, r.Delay(4), "capped at MaxDelay")
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, 3*time.Second, retryAfter(" 3 "))
	assert.Equal(t, time.Duration(0), retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
	assert.Equal(t, time.Duration(0), retryAfter("-1"))
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, isRetryableStatus(code), code)
	}
	for _, code := range []int{400, 401, 403, 404, 410} {
		assert.False(t, isRetryableStatus(code), code)
	}
}
