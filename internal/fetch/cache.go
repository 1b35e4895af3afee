package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// cacheEntry holds either a body or the status error the server answered
// with. Transport errors are never stored.
type cacheEntry struct {
	body []byte
	err  error
}

// Cache memoizes documents by URL for one build. It is created per run and
// has no eviction; it dies with the process.
type Cache struct {
	getter  Getter
	entries map[string]cacheEntry
	group   singleflight.Group
	mu      sync.RWMutex

	hits   int
	misses int
}

// CacheStats contains cache statistics
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// NewCache creates an empty cache in front of getter.
func NewCache(getter Getter) *Cache {
	return &Cache{
		getter:  getter,
		entries: make(map[string]cacheEntry),
	}
}

// Bytes returns the body of the document at rawURL, fetching it on first use.
// The returned slice is shared with the cache and must not be modified.
func (c *Cache) Bytes(ctx context.Context, rawURL string) ([]byte, error) {
	c.mu.Lock()
	if entry, ok := c.entries[rawURL]; ok {
		c.hits++
		c.mu.Unlock()
		return entry.body, entry.err
	}
	c.misses++
	c.mu.Unlock()

	v, err, _ := c.group.Do(rawURL, func() (any, error) {
		body, err := c.getter.Get(ctx, rawURL)

		var statusErr *StatusError
		if err == nil || errors.As(err, &statusErr) {
			c.mu.Lock()
			c.entries[rawURL] = cacheEntry{body: body, err: err}
			c.mu.Unlock()
		}
		return body, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// JSON decodes the document at rawURL into v.
func (c *Cache) JSON(ctx context.Context, rawURL string, v any) error {
	body, err := c.Bytes(ctx, rawURL)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

// YAML decodes the document at rawURL into v.
func (c *Cache) YAML(ctx context.Context, rawURL string, v any) error {
	body, err := c.Bytes(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode YAML from %s: %w", rawURL, err)
	}
	return nil
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}
