// Package annotations overlays curator-supplied metadata onto applications,
// metrics and pings.
package annotations

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
)

// DefaultIndexURL is the published annotation index.
const DefaultIndexURL = "https://mozilla.github.io/glean-annotations/api.json"

// UnknownTagDescription is shown for tags missing from an app's vocabulary.
const UnknownTagDescription = "Unknown tag"

// Annotation is one curator record for an application, metric or ping.
type Annotation struct {
	Tags       []string `json:"tags,omitempty"`
	Commentary string   `json:"commentary,omitempty"`
	Warning    string   `json:"warning,omitempty"`
	Logo       string   `json:"logo,omitempty"`
	Featured   bool     `json:"featured,omitempty"`

	keys int
}

type annotationAlias Annotation

// UnmarshalJSON implements json.Unmarshaler, remembering how many keys the
// record carried.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var alias annotationAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*a = Annotation(alias)
	a.keys = len(raw)
	return nil
}

// IsEmpty reports whether the record carries nothing at all.
func (a Annotation) IsEmpty() bool {
	return a.keys == 0 && len(a.Tags) == 0 && a.Commentary == "" &&
		a.Warning == "" && a.Logo == "" && !a.Featured
}

// Origin is the set of annotations for one application or library.
type Origin struct {
	App     Annotation            `json:"app"`
	Tags    map[string]string     `json:"tags"`
	Metrics map[string]Annotation `json:"metrics"`
	Pings   map[string]Annotation `json:"pings"`
}

// Index maps an origin (app name or library name) to its annotations.
type Index map[string]Origin

// ParseIndex decodes the annotation index document.
func ParseIndex(data []byte) (Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode annotations: %w", err)
	}
	return idx, nil
}

// App returns the application-level annotation of origin.
func (idx Index) App(origin string) Annotation {
	return idx[origin].App
}

// Metric returns the annotation of a metric defined by origin.
func (idx Index) Metric(origin, id string) Annotation {
	return idx[origin].Metrics[id]
}

// Ping returns the annotation of a ping defined by origin.
func (idx Index) Ping(origin, id string) Annotation {
	return idx[origin].Pings[id]
}

// Vocabulary returns a copy of the tag descriptions curated for origin.
func (idx Index) Vocabulary(origin string) map[string]string {
	tags := idx[origin].Tags
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

// Overlay is the annotated view of a metric or ping.
type Overlay struct {
	HasAnnotation bool     `json:"has_annotation"`
	Tags          []string `json:"tags"`
	Commentary    string   `json:"commentary,omitempty"`
	Warning       string   `json:"warning,omitempty"`
}

// Incorporate applies ann to an item carrying tags. Annotation tags, when
// present, replace the item's tags outright. Commentary and warnings only
// appear in full views.
func Incorporate(tags []string, ann Annotation, full bool) Overlay {
	o := Overlay{
		HasAnnotation: !ann.IsEmpty(),
		Tags:          tags,
	}
	if len(ann.Tags) > 0 {
		o.Tags = ann.Tags
	}
	if o.Tags == nil {
		o.Tags = []string{}
	}
	if full {
		o.Commentary = ann.Commentary
		o.Warning = ann.Warning
	}
	return o
}

// AppOverlay is the annotated view of an application group.
type AppOverlay struct {
	HasAnnotation bool     `json:"has_annotation"`
	Logo          string   `json:"logo,omitempty"`
	Featured      bool     `json:"featured,omitempty"`
	AppTags       []string `json:"app_tags,omitempty"`
	Commentary    string   `json:"commentary,omitempty"`
	Warning       string   `json:"warning,omitempty"`
}

// IncorporateApp applies an application annotation. Annotation tags go to
// AppTags: they describe the app itself, not the vocabulary available to its
// metrics.
func IncorporateApp(appName string, ann Annotation, full bool) AppOverlay {
	o := AppOverlay{
		HasAnnotation: !ann.IsEmpty(),
		Featured:      ann.Featured,
	}
	if ann.Logo != "" {
		o.Logo = LogoPath(appName, ann.Logo)
	}
	if len(ann.Tags) > 0 {
		o.AppTags = ann.Tags
	}
	if full {
		o.Commentary = ann.Commentary
		o.Warning = ann.Warning
	}
	return o
}

// Tag is an expanded tag reference.
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ExpandTags resolves tag names against vocabulary. Unknown names get a
// placeholder description.
func ExpandTags(tags []string, vocabulary map[string]string) []Tag {
	out := make([]Tag, len(tags))
	for i, name := range tags {
		desc, ok := vocabulary[name]
		if !ok {
			desc = UnknownTagDescription
		}
		out[i] = Tag{Name: name, Description: desc}
	}
	return out
}

// LogoFilename is the local file name a logo URL is stored under.
func LogoFilename(logoURL string) string {
	p := logoURL
	if u, err := url.Parse(logoURL); err == nil {
		p = u.Path
	}
	return "logo" + path.Ext(p)
}

// LogoPath is the site path of an application's cached logo.
func LogoPath(appName, logoURL string) string {
	return fmt.Sprintf("/data/%s/%s", appName, LogoFilename(logoURL))
}
