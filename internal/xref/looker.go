package xref

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mozilla/glean-dictionary/internal/glean"
	gdstrings "github.com/mozilla/glean-dictionary/internal/util/strings"
)

// LookerBaseURL is the root of the metrics exploration dashboard.
const LookerBaseURL = "https://mozilla.cloud.looker.com"

// DefaultNamespacesURL is the published dashboard namespace map.
const DefaultNamespacesURL = "https://raw.githubusercontent.com/mozilla/looker-hub/main/namespaces.yaml"

// ErrUnexpectedExplore is returned when an event link is requested against an
// explore that cannot filter events. It indicates a bug, not bad input.
var ErrUnexpectedExplore = errors.New("unexpected base looker explore")

// Explore names with special handling.
const (
	ExploreEvents         = "events"
	ExploreEventCounts    = "event_counts"
	ExploreFunnelAnalysis = "funnel_analysis"
)

var lookerMetricTypes = map[string]bool{
	"boolean":         true,
	"counter":         true,
	"datetime":        true,
	"jwe":             true,
	"labeled_counter": true,
	"quantity":        true,
	"string":          true,
	"rate":            true,
	"timespan":        true,
	"uuid":            true,
}

func init() {
	for t := range glean.DistributionTypes {
		lookerMetricTypes[t] = true
	}
}

// Namespace lists the dashboard explores available for one application.
type Namespace struct {
	GleanApp bool           `yaml:"glean_app"`
	Explores map[string]any `yaml:"explores"`
}

// Namespaces is the dashboard namespace map, keyed by application name.
type Namespaces map[string]Namespace

// ParseNamespaces decodes the YAML namespace map.
func ParseNamespaces(data []byte) (Namespaces, error) {
	var ns Namespaces
	if err := yaml.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("failed to decode looker namespaces: %w", err)
	}
	return ns, nil
}

// ExploreExists reports whether app has a Glean explore called explore.
func (n Namespaces) ExploreExists(app, explore string) bool {
	ns, ok := n[app]
	if !ok || !ns.GleanApp {
		return false
	}
	return ns.Explores[explore] != nil
}

// Explore is a link to a dashboard explore.
type Explore struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MetricLink is a link to one metric within an explore.
type MetricLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LookerMetric pairs a metric link with the explore it is based on.
type LookerMetric struct {
	Base   Explore    `json:"base"`
	Metric MetricLink `json:"metric"`
}

// Variant is an app id within its application group. Channel filters are only
// added when the group has several app ids.
type Variant struct {
	App       glean.App
	GroupSize int
}

func (v Variant) needsChannel() bool {
	return v.GroupSize > 1 && v.App.AppChannel != ""
}

func exploreURL(app, explore string) string {
	return fmt.Sprintf("%s/explore/%s/%s", LookerBaseURL, app, explore)
}

// PingExplore returns the explore for a ping table, or nil when the
// dashboard has none.
func (n Namespaces) PingExplore(v Variant, ping string) *Explore {
	name := gdstrings.SnakeCase(ping)
	if !n.ExploreExists(v.App.AppName, name) {
		return nil
	}

	l := parseLink(exploreURL(v.App.AppName, name))
	if v.needsChannel() {
		table := StableTableName(v.App.BQDatasetFamily, ping)
		l = l.add(fmt.Sprintf("f[%s.channel]", name), "mozdata."+strings.ReplaceAll(table, "_", "^_"))
	}
	return &Explore{Name: name, URL: l.String()}
}

// EventExplore returns the explore used for event metrics, preferring event
// counts over funnel analysis.
func (n Namespaces) EventExplore(v Variant) *Explore {
	app := v.App.AppName
	switch {
	case n.ExploreExists(app, ExploreEvents):
		l := parseLink(exploreURL(app, ExploreEventCounts)).
			add("fields", "events.event_count,events.client_count")
		if v.needsChannel() {
			l = l.add("f[events.normalized_channel]", v.App.AppChannel)
		}
		return &Explore{Name: ExploreEventCounts, URL: l.String()}
	case n.ExploreExists(app, ExploreFunnelAnalysis):
		l := parseLink(exploreURL(app, ExploreFunnelAnalysis)).
			add("fields", "funnel_analysis.count_completed_step_1")
		if v.needsChannel() {
			l = l.add("f[funnel_analysis.app_channel]", v.App.AppChannel)
		}
		return &Explore{Name: ExploreFunnelAnalysis, URL: l.String()}
	}
	return nil
}

// ExploreForPing returns the explore listed on a ping page. The events ping
// links to the event explore.
func (n Namespaces) ExploreForPing(v Variant, ping string) *Explore {
	if ping == ExploreEvents {
		return n.EventExplore(v)
	}
	return n.PingExplore(v, ping)
}

// EventNameAndCategory splits an event id at its last dot.
func EventNameAndCategory(id string) (category, name string) {
	i := strings.LastIndex(id, ".")
	if i < 0 {
		return "", id
	}
	return id[:i], id[i+1:]
}

// MetricLink builds the dashboard link for metric m as sent in ping. It
// returns nil when no explore exists, the app is deprecated, or the metric
// type has no dashboard rendering.
func (n Namespaces) MetricLink(v Variant, m *glean.Metric, ping string, pingHasClientID bool) (*LookerMetric, error) {
	if v.App.Deprecated {
		return nil, nil
	}

	var base *Explore
	if m.IsEvent() {
		base = n.EventExplore(v)
	} else {
		base = n.PingExplore(v, ping)
	}
	if base == nil {
		return nil, nil
	}

	l := parseLink(base.URL)
	metricName := gdstrings.SnakeCase(m.ID)
	pingName := gdstrings.SnakeCase(ping)
	submissionDate := pingName + ".submission_date"
	metricType := m.Type()

	var target *link
	switch {
	case m.IsEvent():
		t, err := eventFilters(l, base.Name, m.ID)
		if err != nil {
			return nil, err
		}
		target = &t

	case metricType == "counter":
		t := l.add("fields", join(submissionDate, pingName+"."+metricName))
		target = &t

	case metricType == "labeled_counter":
		counter := pingName + "__metrics__labeled_counter__" + metricName
		t := l.add("fields", join(submissionDate, counter+".label", counter+".count")).
			add("pivots", counter+".label")
		target = &t

	case metricType == "timespan":
		dimension := fmt.Sprintf("%s.%s__value", pingName, strings.ReplaceAll(ColumnName(m), ".", "__"))
		measure := "median_of_" + metricName
		t := l.add("fields", join(submissionDate, measure)).
			add("dynamic_fields", renderDynamicFields([]dynamicField{{
				Measure: measure,
				Label:   "Median of " + m.ID,
				BasedOn: dimension,
				Type:    "median",
			}}))
		target = &t

	case lookerMetricTypes[metricType]:
		dimension := pingName + "." + strings.ReplaceAll(ColumnName(m), ".", "__")
		if glean.DistributionTypes[metricType] {
			measure := "sum_of_" + metricName
			t := l.add("fields", join(submissionDate, measure)).
				add("dynamic_fields", renderDynamicFields([]dynamicField{{
					Measure: measure,
					Label:   "Sum of " + m.ID,
					BasedOn: dimension + "__sum",
					Type:    "sum",
				}}))
			target = &t
		} else {
			count := pingName + ".ping_count"
			if pingHasClientID {
				count = pingName + ".clients"
			}
			t := l.add("fields", join(submissionDate, dimension, count)).
				add("pivots", dimension)
			target = &t
		}
	}

	if target == nil {
		return nil, nil
	}
	return &LookerMetric{
		Base: *base,
		Metric: MetricLink{
			Name: m.ID,
			URL:  target.add("toggle", "vis").String(),
		},
	}, nil
}

// eventFilters narrows the explore link l to the event metricID. Only the
// event count and funnel explores know how to filter events.
func eventFilters(l link, explore, metricID string) (link, error) {
	category, name := EventNameAndCategory(metricID)
	switch explore {
	case ExploreEventCounts:
		return l.add("f[events.event_name]", quoted(name)).
			add("f[events.event_category]", quoted(category)), nil
	case ExploreFunnelAnalysis:
		return l.add("f[step_1.event]", quoted(name)).
			add("f[step_1.category]", quoted(category)), nil
	}
	return link{}, fmt.Errorf("%w %s", ErrUnexpectedExplore, explore)
}

func quoted(s string) string {
	return `"` + s + `"`
}

func join(fields ...string) string {
	return strings.Join(fields, ",")
}
