package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

// Sentinel causes wrapped by TransientError and PermanentError.
var (
	ErrUnexpectedStatusCode   = errors.New("unexpected status code")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrBodyTooLarge           = errors.New("response body too large")
)

// TransientError is a failure worth retrying: timeouts, connection resets,
// 5xx and rate limiting.
type TransientError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch error for %s (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error for %s: %v", e.URL, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError is a failure that retrying cannot fix: 4xx other than
// rate limiting, DNS failures, malformed URLs and responses.
type PermanentError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("permanent fetch error for %s (HTTP %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("permanent fetch error for %s: %v", e.URL, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is, or wraps, a TransientError.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsPermanent reports whether err is, or wraps, a PermanentError.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}

// StatusCode extracts the HTTP status carried by a fetch error, or 0.
func StatusCode(err error) int {
	var transient *TransientError
	if errors.As(err, &transient) {
		return transient.StatusCode
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return permanent.StatusCode
	}
	return 0
}

// isRetryableStatus reports whether an HTTP status is transient.
func isRetryableStatus(code int) bool {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}

// statusError classifies a non-2xx response.
func statusError(rawURL string, code int) error {
	cause := fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, code)
	if isRetryableStatus(code) {
		return &TransientError{URL: rawURL, StatusCode: code, Err: cause}
	}
	return &PermanentError{URL: rawURL, StatusCode: code, Err: cause}
}

// classifyNetError decides whether a transport-level failure is transient or
// permanent. Cancellation of the caller's context is returned unchanged so
// the retry loop stops immediately.
func classifyNetError(ctx context.Context, rawURL string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return &PermanentError{URL: rawURL, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return &TransientError{URL: rawURL, Err: err}
		}
		msg := strings.ToLower(urlErr.Err.Error())
		if strings.Contains(msg, "unsupported protocol") || strings.Contains(msg, "no such host") ||
			strings.Contains(msg, "invalid url") {
			return &PermanentError{URL: rawURL, Err: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return &TransientError{URL: rawURL, Err: err}
	}

	// Default to transient (network timeouts, temporary server errors, etc.)
	return &TransientError{URL: rawURL, Err: err}
}
