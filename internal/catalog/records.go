package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/mozilla/glean-dictionary/internal/annotations"
	"github.com/mozilla/glean-dictionary/internal/autoevents"
	"github.com/mozilla/glean-dictionary/internal/glean"
	"github.com/mozilla/glean-dictionary/internal/output"
	"github.com/mozilla/glean-dictionary/internal/sampling"
	"github.com/mozilla/glean-dictionary/internal/xref"
)

// AppIDSummary describes one app id inside its application group.
type AppIDSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
	Deprecated  bool   `json:"deprecated"`
	Prototype   bool   `json:"prototype"`
}

// AppSummary is an application group as listed in apps.json.
type AppSummary struct {
	AppName            string         `json:"app_name"`
	AppDescription     string         `json:"app_description"`
	CanonicalAppName   string         `json:"canonical_app_name"`
	Deprecated         bool           `json:"deprecated"`
	URL                string         `json:"url"`
	NotificationEmails []string       `json:"notification_emails"`
	AppIDs             []AppIDSummary `json:"app_ids"`
	Prototype          bool           `json:"prototype,omitempty"`

	annotations.AppOverlay
}

// AppIndex is the detail document of an application group.
type AppIndex struct {
	AppSummary

	Pings   []object     `json:"pings"`
	Metrics []any        `json:"metrics"`
	Tags    []TagSummary `json:"tags"`
}

// TagSummary is a tag of the application vocabulary with its usage.
type TagSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MetricCount int    `json:"metric_count"`
}

// PingVariant is the per app id part of a ping document.
type PingVariant struct {
	ID            string        `json:"id"`
	Description   string        `json:"description"`
	Table         string        `json:"table"`
	Channel       string        `json:"channel"`
	LookerExplore *xref.Explore `json:"looker_explore,omitempty"`
}

// TableDoc describes the storage of one ping for one app id.
type TableDoc struct {
	BQDefinition     string          `json:"bq_definition"`
	BQSchema         json.RawMessage `json:"bq_schema"`
	LiveTable        string          `json:"live_table"`
	Name             string          `json:"name"`
	StableTable      string          `json:"stable_table"`
	AppID            string          `json:"app_id"`
	CanonicalAppName string          `json:"canonical_app_name"`
	AppTags          []string        `json:"app_tags"`
}

// MetricSummary is a metric as listed in the app index and in ping
// documents.
type MetricSummary struct {
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	InSource               bool            `json:"in_source"`
	LatestFxReleaseVersion string          `json:"latest_fx_release_version"`
	ExtraKeys              json.RawMessage `json:"extra_keys"`
	Type                   string          `json:"type"`
	Expires                json.RawMessage `json:"expires"`
	ExpiryText             *string         `json:"expiry_text"`
	Sampled                bool            `json:"sampled"`
	SampledText            string          `json:"sampled_text"`
	IsPartOfInfoSection    bool            `json:"is_part_of_info_section"`
	Origin                 string          `json:"origin,omitempty"`

	annotations.Overlay
}

func (s MetricSummary) listingName() string { return s.Name }

// pingMember is a metric summary with its destination pings.
type pingMember struct {
	MetricSummary
	Pings []string `json:"pings"`
}

// autoEventSummary lists an automatic event in the app index.
type autoEventSummary struct {
	autoevents.Event
}

func (s autoEventSummary) listingName() string { return s.Name }

type listing interface {
	listingName() string
}

// EventInfo names the parts of an event id.
type EventInfo struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	IsAuto      bool   `json:"is_auto,omitempty"`
	AutoEventID string `json:"auto_event_id,omitempty"`
}

// PingETL holds the storage and dashboard references of a metric as sent in
// one ping.
type PingETL struct {
	BigQueryTable string             `json:"bigquery_table"`
	Looker        *xref.LookerMetric `json:"looker,omitempty"`

	xref.GLAMLink
}

// ETL holds the storage and dashboard references of a metric for one app id.
type ETL struct {
	PingData           map[string]PingETL `json:"ping_data"`
	BigQueryColumnName string             `json:"bigquery_column_name"`
}

// MetricVariant is the per app id part of a metric document.
type MetricVariant struct {
	ID          string `json:"id"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
	ETL         ETL    `json:"etl"`
}

// metricFields are the keys a full metric document adds to the canonical
// definition.
type metricFields struct {
	Name                   string                   `json:"name"`
	Description            string                   `json:"description"`
	Tags                   []annotations.Tag        `json:"tags"`
	SendInPings            []string                 `json:"send_in_pings"`
	RepoURL                string                   `json:"repo_url"`
	Variants               []MetricVariant          `json:"variants"`
	Expires                json.RawMessage          `json:"expires"`
	LatestFxReleaseVersion string                   `json:"latest_fx_release_version"`
	ExpiryText             *string                  `json:"expiry_text"`
	CanonicalAppName       string                   `json:"canonical_app_name"`
	AppTags                []string                 `json:"app_tags"`
	SamplingInfo           map[string]sampling.Info `json:"sampling_info"`
	HasAnnotation          bool                     `json:"has_annotation"`
	Commentary             string                   `json:"commentary,omitempty"`
	Warning                string                   `json:"warning,omitempty"`
	EventInfo              *EventInfo               `json:"event_info,omitempty"`
}

// metricDoc is the full document of one metric.
type metricDoc struct {
	definition object
	typ        string
	fields     metricFields
}

// MarshalJSON implements json.Marshaler.
func (d *metricDoc) MarshalJSON() ([]byte, error) {
	merged, err := flatten(d.definition, d.fields)
	if err != nil {
		return nil, fmt.Errorf("metric %s: %w", d.fields.Name, err)
	}
	return output.MarshalJSON(merged)
}

// clone copies d so that the copy's variants and event info can be changed
// independently.
func (d *metricDoc) clone() *metricDoc {
	c := *d
	c.fields.Variants = append([]MetricVariant(nil), d.fields.Variants...)
	if d.fields.EventInfo != nil {
		info := *d.fields.EventInfo
		c.fields.EventInfo = &info
	}
	return &c
}

// pingFields are the keys a ping document adds to the ping summary.
type pingFields struct {
	Metrics          []pingMember      `json:"metrics"`
	TagDescriptions  map[string]string `json:"tag_descriptions"`
	CanonicalAppName string            `json:"canonical_app_name"`
	AppTags          []string          `json:"app_tags"`
	HasAnnotation    bool              `json:"has_annotation"`
	Commentary       string            `json:"commentary,omitempty"`
	Warning          string            `json:"warning,omitempty"`
	Tags             []annotations.Tag `json:"tags"`
}

// pingSummaryFields are the keys a ping summary adds to the canonical
// definition.
type pingSummaryFields struct {
	Tags            []string      `json:"tags"`
	Variants        []PingVariant `json:"variants"`
	HasAnnotation   bool          `json:"has_annotation"`
	IncludeClientID bool          `json:"include_client_id"`
}

// definitionObject is the canonical revision of a definition with its
// identity and provenance keys.
func definitionObject(rev glean.Revision, identity any) (object, error) {
	return flatten(rev, identity)
}

type metricIdentity struct {
	Name          string          `json:"name"`
	Origin        string          `json:"origin"`
	InSource      bool            `json:"in_source"`
	SamplingInfo  json.RawMessage `json:"sampling_info"`
	DateFirstSeen string          `json:"date_first_seen"`
}

type pingIdentity struct {
	Name          string `json:"name"`
	Origin        string `json:"origin"`
	InSource      bool   `json:"in_source"`
	DateFirstSeen string `json:"date_first_seen"`
}

func metricDefinition(m *glean.Metric) (object, error) {
	return definitionObject(m.Definition, metricIdentity{
		Name:          m.ID,
		Origin:        m.Origin,
		InSource:      m.InSource,
		SamplingInfo:  m.SamplingInfo,
		DateFirstSeen: m.DateFirstSeen(),
	})
}

func pingDefinition(p *glean.Ping) (object, error) {
	return definitionObject(p.Definition, pingIdentity{
		Name:          p.ID,
		Origin:        p.Origin,
		InSource:      p.InSource,
		DateFirstSeen: p.DateFirstSeen(),
	})
}
