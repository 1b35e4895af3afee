package glean

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDefinition(t *testing.T, raw string) Definition {
	t.Helper()
	var def Definition
	require.NoError(t, json.Unmarshal([]byte(raw), &def))
	return def
}

func metricDefinition(t *testing.T, sendInPings string) Definition {
	t.Helper()
	return parseDefinition(t, `{
		"name": "foo.bar_baz",
		"in-source": true,
		"history": [{
			"dates": {"first": "2020-01-01", "last": "2020-02-01"},
			"type": "counter",
			"description": "A counter",
			"metadata": {"tags": ["Performance"]},
			"send_in_pings": `+sendInPings+`
		}]
	}`)
}

func TestNewMetric_AllPingsReplacesDestinations(t *testing.T) {
	def := metricDefinition(t, `["all-pings", "custom"]`)

	m, err := NewMetric("foo.bar_baz", def, []string{"baseline", "metrics", "events"})
	require.NoError(t, err)

	assert.Equal(t, []string{"baseline", "events", "metrics"}, m.SendInPings())
	assert.Empty(t, m.BQPrefix)
}

func TestNewMetric_NoWildcardUnchanged(t *testing.T) {
	def := metricDefinition(t, `["metrics", "custom"]`)

	m, err := NewMetric("foo.bar_baz", def, []string{"baseline", "metrics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"metrics", "custom"}, m.SendInPings())
	assert.Equal(t, "counter", m.Type())
	assert.Equal(t, []string{"Performance"}, m.Tags())
	assert.True(t, m.InSource)
}

func TestNewMetric_InfoSectionPrefix(t *testing.T) {
	tests := []struct {
		pings  string
		prefix string
	}{
		{`["glean_client_info"]`, "client_info"},
		{`["glean_internal_info"]`, "ping_info"},
		{`["metrics"]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.pings, func(t *testing.T) {
			m, err := NewMetric("client_id", metricDefinition(t, tt.pings), []string{"baseline", "metrics"})
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, m.BQPrefix)
		})
	}

	m, err := NewMetric("client_id", metricDefinition(t, `["glean_client_info"]`), []string{"metrics", "baseline"})
	require.NoError(t, err)
	assert.Equal(t, []string{"baseline", "metrics"}, m.SendInPings())
}

func TestNewMetric_NilPingNamesSkipsExpansion(t *testing.T) {
	m, err := NewMetric("foo.bar_baz", metricDefinition(t, `["all-pings"]`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"all-pings"}, m.SendInPings())
}

func TestNewTag_UsesCanonicalDescription(t *testing.T) {
	def := parseDefinition(t, `{
		"name": "Performance",
		"history": [
			{"dates": {"first": "2020-01-01", "last": "2020-01-02"}, "description": "old"},
			{"dates": {"first": "2020-01-03", "last": "2021-01-01"}, "description": "new"}
		]
	}`)

	tag, err := NewTag("Performance", def)
	require.NoError(t, err)
	assert.Equal(t, "new", tag.Description)
}

func TestPing_Carries(t *testing.T) {
	yes, no := true, false

	clientID, err := NewMetric("client_id", metricDefinition(t, `["glean_client_info"]`), []string{"baseline", "deletion-request"})
	require.NoError(t, err)
	osName, err := NewMetric("os", metricDefinition(t, `["glean_client_info"]`), []string{"baseline", "deletion-request"})
	require.NoError(t, err)
	counter, err := NewMetric("foo.bar_baz", metricDefinition(t, `["baseline"]`), []string{"baseline", "deletion-request"})
	require.NoError(t, err)

	baseline := &Ping{ID: "baseline", includeClientID: &yes}
	deletion := &Ping{ID: "deletion-request", includeClientID: &no, includeInfoSections: &no}

	assert.True(t, baseline.Carries(clientID))
	assert.True(t, baseline.Carries(osName))
	assert.True(t, baseline.Carries(counter))

	assert.False(t, deletion.Carries(clientID))
	assert.False(t, deletion.Carries(osName))
	assert.False(t, deletion.Carries(counter))
}
