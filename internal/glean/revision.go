package glean

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// timestampLayouts are the ISO-8601 shapes probe-scraper has emitted over
// the years, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

// Dates is the effective-date pair of one revision.
type Dates struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// FirstTime parses Dates.First.
func (d Dates) FirstTime() (time.Time, error) {
	return parseTimestamp(d.First)
}

// LastTime parses Dates.Last.
func (d Dates) LastTime() (time.Time, error) {
	return parseTimestamp(d.Last)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrMalformedDefinition)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable timestamp %q", ErrMalformedDefinition, s)
}

// Metadata is the free-form metadata block of a revision; only tags are
// interpreted.
type Metadata struct {
	Tags []string `json:"tags"`
}

// Expiry is a metric's `expires` value: a date, a product version (string or
// integer) or "never".
type Expiry struct {
	raw json.RawMessage
}

// NewExpiry wraps a raw JSON value.
func NewExpiry(raw json.RawMessage) Expiry {
	return Expiry{raw: raw}
}

// IsZero reports whether no expiry was given.
func (e Expiry) IsZero() bool {
	return len(e.raw) == 0 || string(e.raw) == "null"
}

// IsNever reports whether the metric never expires.
func (e Expiry) IsNever() bool {
	return e.String() == "never"
}

// Int returns the expiry as an integer version when it was given as a JSON
// number.
func (e Expiry) Int() (int, bool) {
	if e.IsZero() || e.raw[0] == '"' {
		return 0, false
	}
	n, err := strconv.Atoi(string(e.raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the expiry without JSON quoting.
func (e Expiry) String() string {
	if e.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.raw, &s); err == nil {
		return s
	}
	return string(e.raw)
}

// MarshalJSON implements json.Marshaler.
func (e Expiry) MarshalJSON() ([]byte, error) {
	if e.IsZero() {
		return []byte("null"), nil
	}
	return e.raw, nil
}

// Revision is one entry of a metric, ping or tag history. The fields the
// catalog interprets are typed; every key of the source record is retained so
// that full definitions can be republished verbatim.
type Revision struct {
	Dates               Dates
	Type                string
	Description         string
	SendInPings         []string
	Metadata            Metadata
	Expires             Expiry
	Disabled            bool
	ExtraKeys           json.RawMessage
	IncludeClientID     *bool
	IncludeInfoSections *bool

	fields map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. A revision without a `dates`
// block is malformed.
func (r *Revision) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	rawDates, ok := fields["dates"]
	if !ok || bytes.Equal(rawDates, []byte("null")) {
		return fmt.Errorf("%w: revision without dates", ErrMalformedDefinition)
	}

	var typed struct {
		Dates               Dates           `json:"dates"`
		Type                string          `json:"type"`
		Description         string          `json:"description"`
		SendInPings         []string        `json:"send_in_pings"`
		Metadata            Metadata        `json:"metadata"`
		Expires             json.RawMessage `json:"expires"`
		Disabled            bool            `json:"disabled"`
		ExtraKeys           json.RawMessage `json:"extra_keys"`
		IncludeClientID     *bool           `json:"include_client_id"`
		IncludeInfoSections *bool           `json:"include_info_sections"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDefinition, err)
	}
	if typed.Dates.First == "" || typed.Dates.Last == "" {
		return fmt.Errorf("%w: revision dates must have first and last", ErrMalformedDefinition)
	}

	*r = Revision{
		Dates:               typed.Dates,
		Type:                typed.Type,
		Description:         typed.Description,
		SendInPings:         typed.SendInPings,
		Metadata:            typed.Metadata,
		Expires:             NewExpiry(typed.Expires),
		Disabled:            typed.Disabled,
		ExtraKeys:           typed.ExtraKeys,
		IncludeClientID:     typed.IncludeClientID,
		IncludeInfoSections: typed.IncludeInfoSections,
		fields:              fields,
	}
	return nil
}

// MarshalJSON implements json.Marshaler, republishing every source key with
// send_in_pings reflecting any expansion.
func (r Revision) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.fields)+2)
	for k, v := range r.fields {
		out[k] = v
	}

	dates, err := json.Marshal(r.Dates)
	if err != nil {
		return nil, err
	}
	out["dates"] = dates

	if r.SendInPings != nil {
		pings, err := json.Marshal(r.SendInPings)
		if err != nil {
			return nil, err
		}
		out["send_in_pings"] = pings
	}
	return json.Marshal(out)
}

// Tags returns the tags of the revision's metadata block.
func (r Revision) Tags() []string {
	if r.Metadata.Tags == nil {
		return []string{}
	}
	return r.Metadata.Tags
}

// HasField reports whether the source record carried key.
func (r Revision) HasField(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// withSendInPings returns a copy of r with a new destination set.
func (r Revision) withSendInPings(pings []string) Revision {
	r.SendInPings = pings
	return r
}
