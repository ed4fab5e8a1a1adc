package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout   = 15 * time.Second
	maxBodySize      = 10 * 1024 * 1024 // 10 MB
	defaultUserAgent = "iiifnav/0.1 (terminal IIIF viewer; +https://github.com/vidyasagar/iiifnav)"
	acceptIIIF       = `application/ld+json;profile="http://iiif.io/api/presentation/3/context.json", application/json;q=0.9, */*;q=0.1`
)

// ErrHTTPStatus is wrapped by errors for non-2xx responses.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// SharedTransport is a tuned HTTP transport shared across all clients.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   20, // collections and manifests usually share a host
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 15 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
}

// FetchResult holds the raw response from fetching a URL.
type FetchResult struct {
	URL         string
	FinalURL    string // after redirects
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	Timeout         time.Duration
	MaxRetries      int
	InitialInterval time.Duration
	Transport       http.RoundTripper
}

// Fetcher retrieves IIIF documents with proper headers, timeouts and
// exponential-backoff retries.
type Fetcher struct {
	client          *http.Client
	userAgent       string
	maxRetries      int
	initialInterval time.Duration
}

// NewFetcher creates a Fetcher using the shared transport unless another is given.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	transport := opts.Transport
	if transport == nil {
		transport = SharedTransport
	}
	return &Fetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (>10)")
				}
				return nil
			},
		},
		userAgent:       defaultUserAgent,
		maxRetries:      opts.MaxRetries,
		initialInterval: opts.InitialInterval,
	}
}

// Client returns the underlying HTTP client.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// FetchJSON retrieves a IIIF document, retrying transport failures and 5xx
// responses. 4xx responses fail immediately.
func (f *Fetcher) FetchJSON(ctx context.Context, rawURL string) (*FetchResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialInterval
	b.MaxInterval = 10 * f.initialInterval
	b.RandomizationFactor = 0.5
	b.Reset()

	var result *FetchResult
	op := func() error {
		res, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		if res.StatusCode >= 500 {
			return fmt.Errorf("%w: %d from %s", ErrHTTPStatus, res.StatusCode, rawURL)
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return backoff.Permanent(fmt.Errorf("%w: %d from %s", ErrHTTPStatus, res.StatusCode, rawURL))
		}
		result = res
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptIIIF)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &FetchResult{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

// IsJSON checks if the content type indicates a JSON or JSON-LD document.
func IsJSON(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "json")
}
