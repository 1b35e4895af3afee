package glean

import (
	"fmt"
	"sort"
	"time"
)

// History is a resolved definition history.
type History struct {
	// Revisions are ordered most recent `dates.last` first.
	Revisions []Revision

	// DateFirstSeen is the `dates.first` of the revision with the earliest
	// `dates.first`, as written in the source.
	DateFirstSeen string

	FirstAdded time.Time
	// LastChange is the latest `dates.first` across the history, not the
	// latest `dates.last`. Downstream consumers depend on this.
	LastChange time.Time
}

// Canonical returns the most recently effective revision.
func (h History) Canonical() Revision {
	return h.Revisions[0]
}

// ResolveHistory orders revisions and derives the provenance dates. The input
// slice is not modified.
func ResolveHistory(revisions []Revision) (History, error) {
	if len(revisions) == 0 {
		return History{}, fmt.Errorf("%w: empty history", ErrMalformedDefinition)
	}

	type keyed struct {
		rev   Revision
		first time.Time
		last  time.Time
	}

	items := make([]keyed, len(revisions))
	for i, rev := range revisions {
		first, err := rev.Dates.FirstTime()
		if err != nil {
			return History{}, fmt.Errorf("revision %d: %w", i, err)
		}
		last, err := rev.Dates.LastTime()
		if err != nil {
			return History{}, fmt.Errorf("revision %d: %w", i, err)
		}
		items[i] = keyed{rev: rev, first: first, last: last}
	}

	h := History{
		DateFirstSeen: items[0].rev.Dates.First,
		FirstAdded:    items[0].first,
		LastChange:    items[0].first,
	}
	for _, it := range items[1:] {
		if it.first.Before(h.FirstAdded) {
			h.FirstAdded = it.first
			h.DateFirstSeen = it.rev.Dates.First
		}
		if it.first.After(h.LastChange) {
			h.LastChange = it.first
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].last.After(items[j].last)
	})

	h.Revisions = make([]Revision, len(items))
	for i, it := range items {
		h.Revisions[i] = it.rev
	}
	return h, nil
}

// latestLast returns the greatest parsed `dates.last` of a definition.
func latestLast(def Definition) (time.Time, error) {
	if len(def.History) == 0 {
		return time.Time{}, fmt.Errorf("%w: empty history", ErrMalformedDefinition)
	}
	var latest time.Time
	for i, rev := range def.History {
		last, err := rev.Dates.LastTime()
		if err != nil {
			return time.Time{}, err
		}
		if i == 0 || last.After(latest) {
			latest = last
		}
	}
	return latest, nil
}
