package glean

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Destination pings that stand for every ping of the application.
const (
	PingAllPings          = "all-pings"
	PingAllPingsUnderline = "all_pings"
	PingClientInfo        = "glean_client_info"
	PingInternalInfo      = "glean_internal_info"
)

var allPingsKeywords = []string{PingAllPings, PingAllPingsUnderline, PingClientInfo, PingInternalInfo}

// Distribution metric types.
var DistributionTypes = map[string]bool{
	"timing_distribution": true,
	"memory_distribution": true,
	"custom_distribution": true,
}

// Metric is a resolved metric definition.
type Metric struct {
	ID           string
	Origin       string
	InSource     bool
	SamplingInfo json.RawMessage
	History      History

	// Definition is the canonical revision with its destination pings
	// expanded.
	Definition Revision

	// BQPrefix is "client_info" or "ping_info" for metrics stored in the
	// reserved info sections of every ping, empty otherwise.
	BQPrefix string
}

// NewMetric resolves def into a Metric. When pingNames is non-nil, a
// wildcard destination is replaced by exactly that set.
func NewMetric(id string, def Definition, pingNames []string) (*Metric, error) {
	history, err := ResolveHistory(def.History)
	if err != nil {
		return nil, fmt.Errorf("metric %q: %w", id, err)
	}

	canonical := history.Canonical()
	m := &Metric{
		ID:           id,
		Origin:       def.Origin,
		InSource:     def.InSource,
		SamplingInfo: def.SamplingInfo,
		History:      history,
		Definition:   canonical,
	}

	switch {
	case contains(canonical.SendInPings, PingClientInfo):
		m.BQPrefix = "client_info"
	case contains(canonical.SendInPings, PingInternalInfo):
		m.BQPrefix = "ping_info"
	}

	if pingNames != nil {
		m.Definition = canonical.withSendInPings(ExpandAllPings(canonical.SendInPings, pingNames))
	}
	return m, nil
}

// ExpandAllPings returns the full sorted ping set when sendInPings contains a
// wildcard and sendInPings unchanged otherwise.
func ExpandAllPings(sendInPings, pingNames []string) []string {
	for _, kw := range allPingsKeywords {
		if contains(sendInPings, kw) {
			expanded := uniqueSorted(pingNames)
			return expanded
		}
	}
	return sendInPings
}

// Type returns the metric type.
func (m *Metric) Type() string {
	return m.Definition.Type
}

// Description returns the canonical description.
func (m *Metric) Description() string {
	return m.Definition.Description
}

// Tags returns the tags embedded in the canonical revision.
func (m *Metric) Tags() []string {
	return m.Definition.Tags()
}

// SendInPings returns the expanded destination pings.
func (m *Metric) SendInPings() []string {
	return m.Definition.SendInPings
}

// DateFirstSeen returns the earliest `dates.first` of the history.
func (m *Metric) DateFirstSeen() string {
	return m.History.DateFirstSeen
}

// IsEvent reports whether the metric is an event.
func (m *Metric) IsEvent() bool {
	return m.Definition.Type == "event"
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
