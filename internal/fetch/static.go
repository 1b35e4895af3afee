package fetch

import (
	"context"
	"net/http"
	"sync"
)

// StaticGetter serves documents from memory. Unknown URLs answer 404.
type StaticGetter struct {
	mu        sync.Mutex
	documents map[string][]byte
	requests  map[string]int
}

// NewStaticGetter creates a getter serving documents keyed by URL.
func NewStaticGetter(documents map[string]string) *StaticGetter {
	g := &StaticGetter{
		documents: make(map[string][]byte, len(documents)),
		requests:  make(map[string]int),
	}
	for u, body := range documents {
		g.documents[u] = []byte(body)
	}
	return g
}

// Set adds or replaces a document.
func (g *StaticGetter) Set(rawURL, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.documents[rawURL] = []byte(body)
}

// Get implements Getter.
func (g *StaticGetter) Get(ctx context.Context, rawURL string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests[rawURL]++
	body, ok := g.documents[rawURL]
	if !ok {
		return nil, &StatusError{URL: rawURL, StatusCode: http.StatusNotFound}
	}
	return body, nil
}

// Requests returns how many times rawURL was requested.
func (g *StaticGetter) Requests(rawURL string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[rawURL]
}
