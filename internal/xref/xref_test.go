package xref

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla/glean-dictionary/internal/glean"
)

func newMetric(t *testing.T, id, metricType string, pings ...string) *glean.Metric {
	t.Helper()
	sendInPings, err := json.Marshal(pings)
	require.NoError(t, err)

	var def glean.Definition
	require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(`{
		"name": %q,
		"origin": "fenix",
		"in-source": true,
		"history": [{
			"metadata": {},
			"send_in_pings": %s,
			"type": %q,
			"dates": {"first": "2020-01-01", "last": "2021-01-01"}
		}]
	}`, id, sendInPings, metricType)), &def))

	m, err := glean.NewMetric(id, def, []string{"baseline", "events", "metrics"})
	require.NoError(t, err)
	return m
}

func fakeNamespaces(t *testing.T) Namespaces {
	t.Helper()
	ns, err := ParseNamespaces([]byte(`
fenix:
  glean_app: true
  explores:
    metrics:
      type: glean_ping_explore
    baseline:
      type: glean_ping_explore
    events:
      type: events_explore
focus:
  glean_app: true
  explores:
    funnel_analysis:
      type: funnel_analysis_explore
legacy:
  glean_app: false
  explores:
    metrics:
      type: glean_ping_explore
`))
	require.NoError(t, err)
	return ns
}

func fakeVariant() Variant {
	return Variant{
		App: glean.App{
			AppName:         "fenix",
			AppID:           "org.mozilla.firefox",
			BQDatasetFamily: "firefox",
		},
		GroupSize: 1,
	}
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "metrics.counter.foo_bar_baz", ColumnName(newMetric(t, "foo.bar_baz", "counter", "metrics")))
	assert.Equal(t, "client_info.client_id", ColumnName(newMetric(t, "client_id", "uuid", "glean_client_info")))
	assert.Equal(t, "ping_info.seq", ColumnName(newMetric(t, "seq", "counter", "glean_internal_info")))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "org_mozilla_fenix.deletion_request", StableTableName("org_mozilla_fenix", "deletion-request"))
	assert.Equal(t, "org_mozilla_fenix_live.deletion_request_v1", LiveTableName("org_mozilla_fenix", "deletion-request"))
	assert.Equal(t, "org-mozilla-fenix/baseline/baseline.1.bq", SchemaPath("org-mozilla-fenix", "baseline"))
	assert.Equal(t, "https://example.com/schemas/a/b.bq", SchemaURL("https://example.com/schemas/", "a/b.bq"))
}

func TestPingExplore(t *testing.T) {
	ns := fakeNamespaces(t)

	explore := ns.ExploreForPing(fakeVariant(), "metrics")
	require.NotNil(t, explore)
	assert.Equal(t, Explore{Name: "metrics", URL: "https://mozilla.cloud.looker.com/explore/fenix/metrics"}, *explore)

	assert.Nil(t, ns.ExploreForPing(fakeVariant(), "deletion-request"))

	legacy := fakeVariant()
	legacy.App.AppName = "legacy"
	assert.Nil(t, ns.ExploreForPing(legacy, "metrics"))
}

func TestPingExplore_ChannelFilter(t *testing.T) {
	ns := fakeNamespaces(t)
	v := fakeVariant()
	v.GroupSize = 3
	v.App.AppChannel = "beta"
	v.App.BQDatasetFamily = "org_mozilla_firefox_beta"

	explore := ns.PingExplore(v, "metrics")
	require.NotNil(t, explore)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/fenix/metrics?f%5Bmetrics.channel%5D=mozdata.org%5E_mozilla%5E_firefox%5E_beta.metrics",
		explore.URL)
}

func TestEventExplore(t *testing.T) {
	ns := fakeNamespaces(t)

	explore := ns.ExploreForPing(fakeVariant(), "events")
	require.NotNil(t, explore)
	assert.Equal(t, "event_counts", explore.Name)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/fenix/event_counts?fields=events.event_count%2Cevents.client_count",
		explore.URL)

	focus := fakeVariant()
	focus.App.AppName = "focus"
	focus.App.AppChannel = "nightly"
	focus.GroupSize = 2
	explore = ns.EventExplore(focus)
	require.NotNil(t, explore)
	assert.Equal(t, "funnel_analysis", explore.Name)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/focus/funnel_analysis?fields=funnel_analysis.count_completed_step_1&f%5Bfunnel_analysis.app_channel%5D=nightly",
		explore.URL)
}

func TestMetricLink_Timespan(t *testing.T) {
	ns := fakeNamespaces(t)
	m := newMetric(t, "mytimespan", "timespan", "metrics")

	got, err := ns.MetricLink(fakeVariant(), m, "metrics", false)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, Explore{Name: "metrics", URL: "https://mozilla.cloud.looker.com/explore/fenix/metrics"}, got.Base)
	assert.Equal(t, "mytimespan", got.Metric.Name)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/fenix/metrics?fields=metrics.submission_date%2Cmedian_of_mytimespan&dynamic_fields=%5B%7B%22measure%22%3A+%22median_of_mytimespan%22%2C+%22label%22%3A+%22Median+of+mytimespan%22%2C+%22based_on%22%3A+%22metrics.metrics__timespan__mytimespan__value%22%2C+%22expression%22%3A+%22%22%2C+%22type%22%3A+%22median%22%7D%5D&toggle=vis",
		got.Metric.URL)
}

func TestMetricLink_Types(t *testing.T) {
	ns := fakeNamespaces(t)
	base := "https://mozilla.cloud.looker.com/explore/fenix/metrics?"

	tests := []struct {
		name       string
		metricType string
		clientID   bool
		want       string
	}{
		{
			name:       "counter",
			metricType: "counter",
			want:       base + "fields=metrics.submission_date%2Cmetrics.a_b&toggle=vis",
		},
		{
			name:       "labeled counter",
			metricType: "labeled_counter",
			want: base + "fields=metrics.submission_date%2Cmetrics__metrics__labeled_counter__a_b.label%2Cmetrics__metrics__labeled_counter__a_b.count" +
				"&pivots=metrics__metrics__labeled_counter__a_b.label&toggle=vis",
		},
		{
			name:       "boolean with client id",
			metricType: "boolean",
			clientID:   true,
			want: base + "fields=metrics.submission_date%2Cmetrics.metrics__boolean__a_b%2Cmetrics.clients" +
				"&pivots=metrics.metrics__boolean__a_b&toggle=vis",
		},
		{
			name:       "string without client id",
			metricType: "string",
			want: base + "fields=metrics.submission_date%2Cmetrics.metrics__string__a_b%2Cmetrics.ping_count" +
				"&pivots=metrics.metrics__string__a_b&toggle=vis",
		},
		{
			name:       "distribution",
			metricType: "timing_distribution",
			want: base + "fields=metrics.submission_date%2Csum_of_a_b" +
				"&dynamic_fields=%5B%7B%22measure%22%3A+%22sum_of_a_b%22%2C+%22label%22%3A+%22Sum+of+a.b%22%2C+%22based_on%22%3A+%22metrics.metrics__timing_distribution__a_b__sum%22%2C+%22expression%22%3A+%22%22%2C+%22type%22%3A+%22sum%22%7D%5D" +
				"&toggle=vis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ns.MetricLink(fakeVariant(), newMetric(t, "a.b", tt.metricType, "metrics"), "metrics", tt.clientID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Metric.URL)
		})
	}
}

func TestMetricLink_Unsupported(t *testing.T) {
	ns := fakeNamespaces(t)

	got, err := ns.MetricLink(fakeVariant(), newMetric(t, "a.b", "object", "metrics"), "metrics", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	deprecated := fakeVariant()
	deprecated.App.Deprecated = true
	got, err = ns.MetricLink(deprecated, newMetric(t, "a.b", "counter", "metrics"), "metrics", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ns.MetricLink(fakeVariant(), newMetric(t, "a.b", "counter", "custom"), "custom", false)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMetricLink_EventSplitsAtLastDot(t *testing.T) {
	ns := fakeNamespaces(t)
	m := newMetric(t, "browser.ui.tab_opened", "event", "events")

	got, err := ns.MetricLink(fakeVariant(), m, "events", false)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "event_counts", got.Base.Name)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/fenix/event_counts?fields=events.event_count%2Cevents.client_count"+
			"&f%5Bevents.event_name%5D=%22tab_opened%22&f%5Bevents.event_category%5D=%22browser.ui%22&toggle=vis",
		got.Metric.URL)

	focus := fakeVariant()
	focus.App.AppName = "focus"
	got, err = ns.MetricLink(focus, m, "events", false)
	require.NoError(t, err)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/focus/funnel_analysis?fields=funnel_analysis.count_completed_step_1"+
			"&f%5Bstep_1.event%5D=%22tab_opened%22&f%5Bstep_1.category%5D=%22browser.ui%22&toggle=vis",
		got.Metric.URL)
}

func TestEventFilters(t *testing.T) {
	base := parseLink("https://mozilla.cloud.looker.com/explore/fenix/event_counts")

	got, err := eventFilters(base, ExploreEventCounts, "browser.ui.tab_opened")
	require.NoError(t, err)
	assert.Equal(t,
		"https://mozilla.cloud.looker.com/explore/fenix/event_counts"+
			"?f%5Bevents.event_name%5D=%22tab_opened%22&f%5Bevents.event_category%5D=%22browser.ui%22",
		got.String())

	_, err = eventFilters(base, ExploreEvents, "browser.ui.tab_opened")
	assert.ErrorIs(t, err, ErrUnexpectedExplore)
	assert.Contains(t, err.Error(), "events")

	_, err = eventFilters(base, "metrics", "browser.ui.tab_opened")
	assert.ErrorIs(t, err, ErrUnexpectedExplore)
}

func TestEventNameAndCategory(t *testing.T) {
	category, name := EventNameAndCategory("glean.element_click")
	assert.Equal(t, "glean", category)
	assert.Equal(t, "element_click", name)

	category, name = EventNameAndCategory("a.b.c")
	assert.Equal(t, "a.b", category)
	assert.Equal(t, "c", name)

	category, name = EventNameAndCategory("nodot")
	assert.Equal(t, "", category)
	assert.Equal(t, "nodot", name)
}

func TestGLAM(t *testing.T) {
	tests := []struct {
		name   string
		appID  string
		metric *glean.Metric
		ping   string
		want   GLAMLink
	}{
		{
			name:   "supported",
			appID:  "org.mozilla.fenix",
			metric: newMetric(t, "a11y.HTTPRequest", "counter", "metrics"),
			ping:   "metrics",
			want:   GLAMLink{URL: "https://glam.telemetry.mozilla.org/fenix/probe/a11y_http_request/explore?app_id="},
		},
		{
			name:   "release channel",
			appID:  "org.mozilla.firefox",
			metric: newMetric(t, "a.b", "timing_distribution", "metrics"),
			ping:   "metrics",
			want:   GLAMLink{URL: "https://glam.telemetry.mozilla.org/fenix/probe/a_b/explore?app_id=release"},
		},
		{
			name:   "unknown app",
			appID:  "org.mozilla.focus",
			metric: newMetric(t, "a.b", "counter", "metrics"),
			ping:   "metrics",
			want:   GLAMLink{UnsupportedReason: "This application is not supported by GLAM."},
		},
		{
			name:   "internal metric",
			appID:  "firefox.desktop",
			metric: newMetric(t, "client_id", "uuid", "glean_client_info"),
			ping:   "metrics",
			want:   GLAMLink{UnsupportedReason: "Internal Glean metrics are not supported by GLAM."},
		},
		{
			name:   "unsupported type",
			appID:  "firefox.desktop",
			metric: newMetric(t, "a.b", "string", "metrics"),
			ping:   "metrics",
			want:   GLAMLink{UnsupportedReason: "Currently GLAM does not support `string` metrics."},
		},
		{
			name:   "other ping",
			appID:  "firefox.desktop",
			metric: newMetric(t, "a.b", "counter", "baseline"),
			ping:   "baseline",
			want: GLAMLink{UnsupportedReason: "Metrics sent in the `baseline` ping are not supported by GLAM " +
				"([mozilla/glam#1652](https://github.com/mozilla/glam/issues/1652))."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GLAM(tt.appID, tt.metric, tt.ping))
		})
	}
}

func TestSupportedGLAMTypes(t *testing.T) {
	assert.Equal(t, []string{
		"boolean",
		"counter",
		"custom_distribution",
		"labeled_counter",
		"memory_distribution",
		"quantity",
		"timespan",
		"timing_distribution",
	}, SupportedGLAMTypes())
}

func TestAsciiJSONString(t *testing.T) {
	assert.Equal(t, `"caf\u00e9 \"x\""`, asciiJSONString(`café "x"`))
}
