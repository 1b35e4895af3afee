package glean

import "fmt"

// Ping is a resolved ping definition.
type Ping struct {
	ID         string
	Origin     string
	InSource   bool
	History    History
	Definition Revision

	includeClientID     *bool
	includeInfoSections *bool
}

// NewPing resolves def into a Ping.
func NewPing(id string, def Definition) (*Ping, error) {
	history, err := ResolveHistory(def.History)
	if err != nil {
		return nil, fmt.Errorf("ping %q: %w", id, err)
	}

	canonical := history.Canonical()
	p := &Ping{
		ID:                  id,
		Origin:              def.Origin,
		InSource:            def.InSource,
		History:             history,
		Definition:          canonical,
		includeClientID:     def.IncludeClientID,
		includeInfoSections: def.IncludeInfoSections,
	}
	if canonical.IncludeClientID != nil {
		p.includeClientID = canonical.IncludeClientID
	}
	if canonical.IncludeInfoSections != nil {
		p.includeInfoSections = canonical.IncludeInfoSections
	}
	return p, nil
}

// Description returns the canonical description.
func (p *Ping) Description() string {
	return p.Definition.Description
}

// Tags returns the tags embedded in the canonical revision.
func (p *Ping) Tags() []string {
	return p.Definition.Tags()
}

// DateFirstSeen returns the earliest `dates.first` of the history.
func (p *Ping) DateFirstSeen() string {
	return p.History.DateFirstSeen
}

// IncludeClientID reports whether the ping carries client_id. Defaults to
// false.
func (p *Ping) IncludeClientID() bool {
	return p.includeClientID != nil && *p.includeClientID
}

// IncludeInfoSections reports whether the ping carries the client and ping
// info sections. Defaults to true.
func (p *Ping) IncludeInfoSections() bool {
	return p.includeInfoSections == nil || *p.includeInfoSections
}

// Carries reports whether metric m is listed in this ping's roster.
func (p *Ping) Carries(m *Metric) bool {
	if !contains(m.SendInPings(), p.ID) {
		return false
	}
	if m.ID == "client_id" {
		return p.IncludeClientID()
	}
	if m.BQPrefix == "client_info" {
		return p.IncludeInfoSections()
	}
	return true
}
