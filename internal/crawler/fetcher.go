package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Default fetch settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 5 * 1024 * 1024
	DefaultUserAgent   = "Mozilla/5.0 (compatible; removalscan/1.0; +https://github.com/nao1215/removalscan)"
)

// ErrBodyTooLarge is returned when a response exceeds the body size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Fetcher retrieves the raw content of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPFetcher fetches pages over HTTP(S) using resty.
// It is safe for concurrent use.
type HTTPFetcher struct {
	client      *resty.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	logger      *slog.Logger
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithHeaders adds request headers sent with every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithFetcherLogger sets the logger used for resty diagnostics.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		headers:     make(map[string]string),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = resty.New().
		SetTimeout(f.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{logger: f.logger}).
		SetHeader("User-Agent", f.userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetHeaders(f.headers)

	return f
}

// Fetch performs a GET request and returns the response body.
// Responses with status >= 400 yield a *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode()}
	}

	// Read one byte past the limit to detect oversized bodies.
	data, err := io.ReadAll(io.LimitReader(body, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", url, err)
	}
	if int64(len(data)) > f.maxBodySize {
		return nil, fmt.Errorf("GET %s: %w (%d bytes)", url, ErrBodyTooLarge, f.maxBodySize)
	}
	return data, nil
}

// restyLogger routes resty's internal messages to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
