package glean

import (
	"fmt"
	"time"
)

// MergeLatest deduplicates entries by id. An entry replaces the one already
// kept only when its most recent `dates.last` is strictly later, so ties
// keep the earlier entry. The result preserves first-insertion order.
func MergeLatest(entries []Entry) ([]Entry, error) {
	type kept struct {
		entry Entry
		last  time.Time
	}

	index := make(map[string]int, len(entries))
	merged := make([]kept, 0, len(entries))

	for _, e := range entries {
		last, err := latestLast(e.Definition)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", e.Definition.Origin, e.ID, err)
		}

		i, ok := index[e.ID]
		if !ok {
			index[e.ID] = len(merged)
			merged = append(merged, kept{entry: e, last: last})
			continue
		}
		if last.After(merged[i].last) {
			merged[i] = kept{entry: e, last: last}
		}
	}

	out := make([]Entry, len(merged))
	for i, k := range merged {
		out[i] = k.entry
	}
	return out, nil
}

// withOrigin stamps every entry with origin.
func withOrigin(entries []Entry, origin string) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.Definition.Origin = origin
		out[i] = e
	}
	return out
}
