// Package fetch retrieves remote metadata documents and memoizes them for the
// lifetime of a single build.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Getter retrieves the body of a remote document.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// StatusError is returned when a remote document answers with a non-2xx
// status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from a remote document.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// HTTPGetter fetches documents with a plain HTTP GET. There is deliberately no
// retry or timeout: a hung request blocks the build.
type HTTPGetter struct {
	client *http.Client

	// CacheBust appends a throwaway timestamp parameter so that CDN caches in
	// front of the metadata services never hand back stale documents.
	CacheBust bool

	now func() time.Time
}

// NewHTTPGetter creates a getter using client, or http.DefaultClient when nil.
func NewHTTPGetter(client *http.Client, cacheBust bool) *HTTPGetter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGetter{
		client:    client,
		CacheBust: cacheBust,
		now:       time.Now,
	}
}

// Get implements Getter.
func (g *HTTPGetter) Get(ctx context.Context, rawURL string) ([]byte, error) {
	target := rawURL
	if g.CacheBust {
		busted, err := addCacheBuster(rawURL, g.now())
		if err != nil {
			return nil, err
		}
		target = busted
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", rawURL, err)
	}
	return body, nil
}

func addCacheBuster(rawURL string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set("t", now.UTC().Format("2006-01-02T15:04:05.000000"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
