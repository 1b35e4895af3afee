package xref

import (
	"net/url"
	"strings"
)

// link is a URL whose query parameters keep the order they were added in.
type link struct {
	base   string
	params [][2]string
}

func parseLink(raw string) link {
	base, query, found := strings.Cut(raw, "?")
	l := link{base: base}
	if !found || query == "" {
		return l
	}
	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if uk, err := url.QueryUnescape(k); err == nil {
			k = uk
		}
		if uv, err := url.QueryUnescape(v); err == nil {
			v = uv
		}
		l.params = append(l.params, [2]string{k, v})
	}
	return l
}

// add returns a copy of l with one more parameter.
func (l link) add(key, value string) link {
	params := make([][2]string, len(l.params), len(l.params)+1)
	copy(params, l.params)
	l.params = append(params, [2]string{key, value})
	return l
}

func (l link) String() string {
	if len(l.params) == 0 {
		return l.base
	}
	parts := make([]string, len(l.params))
	for i, p := range l.params {
		parts[i] = url.QueryEscape(p[0]) + "=" + url.QueryEscape(p[1])
	}
	return l.base + "?" + strings.Join(parts, "&")
}
