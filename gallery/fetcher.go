package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"leomaster/models"
	"leomaster/utils"
)

const userAgent = "leomaster-loader/1.0"

// StatusError is returned when the listing endpoint answers with a
// non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// HTTPFetcher fetches listing pages over HTTP. Page references are
// resolved against the site URL, so both absolute and path-relative
// "next" values work.
type HTTPFetcher struct {
	base    *url.URL
	client  *http.Client
	limiter *utils.RateLimiter
}

// NewHTTPFetcher creates a fetcher for the site at siteURL. A nil client
// means http.DefaultClient; a nil limiter disables spacing.
func NewHTTPFetcher(siteURL string, client *http.Client, limiter *utils.RateLimiter) (*HTTPFetcher, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("parse site url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site url %q must be absolute", siteURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: base, client: client, limiter: limiter}, nil
}

// Resolve turns a page reference into an absolute URL.
func (f *HTTPFetcher) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse page reference %q: %w", ref, err)
	}
	return f.base.ResolveReference(u).String(), nil
}

// Fetch issues a GET for ref and decodes the page.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (*models.Page, error) {
	target, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var page models.Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", target, err)
	}
	return &page, nil
}
