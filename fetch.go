package govwatch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	log "github.com/sirupsen/logrus"
)

// browserUserAgent is sent with every fetch. Several of the watched sites
// serve empty pages to clients that don't look like a browser.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultFetchTimeout bounds a single listing-page fetch.
const DefaultFetchTimeout = 60 * time.Second

// Fetcher retrieves the raw HTML of a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches pages with a plain net/http client.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher. With insecure set, certificate
// verification is skipped and old TLS versions are accepted; a number of
// state-government servers still run TLS stacks no default client will
// negotiate with.
func NewHTTPFetcher(timeout time.Duration, insecure bool) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS10,
		}
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Fetch implements the Fetcher interface.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch of %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// CollyFetcher fetches pages through a colly collector, which brings its
// own redirect, cookie, and compression handling. Used for sites that trip
// up the plain client.
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher creates a colly-backed fetcher with a polite per-domain
// delay.
func NewCollyFetcher(timeout time.Duration, insecure bool) *CollyFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(browserUserAgent),
	)
	c.SetRequestTimeout(timeout)

	if insecure {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS10,
		}
		c.WithTransport(transport)
	}

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       2 * time.Second,
	}); err != nil {
		log.Warnf("Failed to set colly limit rule: %v", err)
	}

	return &CollyFetcher{collector: c}
}

// Fetch implements the Fetcher interface. The collector is cloned per call
// so response callbacks never leak across fetches. Colly drives its own
// request lifecycle, so ctx only gates the call itself, not the transfer.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := f.collector.Clone()

	var html string
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, fetchErr)
	}
	if html == "" {
		return "", fmt.Errorf("fetch of %s returned no content", url)
	}
	return html, nil
}
