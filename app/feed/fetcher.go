package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultFetchTimeout = 30 * time.Second
	maxBodySize         = 10 << 20
)

var ErrInvalidURL = errors.New("invalid URL")

// FetchError reports a failed download or extraction of a single page
type FetchError struct {
	URL string
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	extractor  *ContentExtractor
	userAgent  string
	timeout    time.Duration
}

// NewFetcher creates a fetcher. A requestsPerSecond of zero disables rate limiting.
func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration, requestsPerSecond float64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &Fetcher{
		httpClient: httpClient,
		limiter:    limiter,
		extractor:  NewContentExtractor(),
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Fetch downloads an article page and extracts its fields.
// Every failure is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Extracted, error) {
	data, contentType, err := f.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if !isHTML(contentType) {
		return nil, &FetchError{URL: pageURL, Op: "content type", Err: fmt.Errorf("unexpected content type %q", contentType)}
	}

	extracted, err := f.extractor.Run(pageURL, data)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Op: "extract", Err: err}
	}

	return extracted, nil
}

// Get downloads a document and returns its body and content type.
// The configured timeout applies unless ctx already carries a deadline.
func (f *Fetcher) Get(ctx context.Context, pageURL string) ([]byte, string, error) {
	if err := validateURL(pageURL); err != nil {
		return nil, "", &FetchError{URL: pageURL, Op: "validate", Err: err}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, "", &FetchError{URL: pageURL, Op: "rate limit", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, "", &FetchError{URL: pageURL, Op: "request", Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: pageURL, Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &FetchError{URL: pageURL, Op: "download", Err: fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", &FetchError{URL: pageURL, Op: "read", Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	slog.Debug("Document downloaded", "url", pageURL, "bytes", len(data))

	return data, resp.Header.Get("Content-Type"), nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// isHTML accepts an empty content type, since many sites omit it
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
