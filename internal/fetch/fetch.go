// Package fetch downloads remote assets to local scratch files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds a single download end to end.
const DefaultTimeout = 5 * time.Minute

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ClipCurator/1.0)"

// ErrInvalidURL is returned for references that are not http(s) URLs with a host.
var ErrInvalidURL = errors.New("invalid download URL")

// Fetcher retrieves a remote asset into dest.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dest string) error
}

// Error represents an error during asset download.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// IsRemoteURL reports whether s is a well-formed http or https reference.
func IsRemoteURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// HTTPFetcher downloads assets over HTTP.
type HTTPFetcher struct {
	client  *http.Client
	options *Options
}

// NewHTTPFetcher creates a fetcher. A nil opts uses DefaultOptions.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		options: opts,
	}
}

// Fetch streams rawURL into dest. On any failure the partially written file is removed.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	if !IsRemoteURL(rawURL) {
		return &Error{URL: rawURL, Message: "invalid URL", Cause: ErrInvalidURL}
	}

	ctx, cancel := context.WithTimeout(ctx, f.options.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.options.UserAgent)
	for key, value := range f.options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &Error{URL: rawURL, Message: "HTTP request failed", Retryable: true, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Error{
			URL:        rawURL,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	out, err := os.Create(dest)
	if err != nil {
		return &Error{URL: rawURL, Message: "failed to create destination file", Cause: err}
	}

	n, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(dest)
		return &Error{URL: rawURL, Message: "failed to read response body", Retryable: true, Cause: copyErr}
	case closeErr != nil:
		_ = os.Remove(dest)
		return &Error{URL: rawURL, Message: "failed to write destination file", Cause: closeErr}
	case n == 0:
		_ = os.Remove(dest)
		return &Error{URL: rawURL, Message: "empty response body"}
	}
	return nil
}
