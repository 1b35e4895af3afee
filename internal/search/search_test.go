package search

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEntries = []Entry{
	{Name: "fun-metric1", Type: "string", Description: "Fun Metric 1", Expires: json.RawMessage(`"2021-01-01"`)},
	{Name: "fun-metric2", Type: "boolean", Description: "Fun Metric 2", Expires: json.RawMessage(`"never"`)},
	{Name: "fun-metric3", Type: "counter", Description: "<b>html</b>", Expires: json.RawMessage(`null`)},
}

func extractData(t *testing.T, js, prefix, suffix string) map[string]map[string]any {
	t.Helper()
	start := strings.Index(js, prefix)
	require.GreaterOrEqual(t, start, 0)
	rest := js[start+len(prefix):]
	end := strings.Index(rest, suffix)
	require.GreaterOrEqual(t, end, 0)

	var data map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(rest[:end]), &data))
	return data
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testEntries))
	js := buf.String()

	assert.Contains(t, js, "exports.handler")
	assert.Contains(t, js, "const legacy = false;")
	assert.Contains(t, js, "<b>html</b>")

	data := extractData(t, js, "const metricData = ", ";\n")
	assert.Equal(t, map[string]any{"type": "string", "description": "Fun Metric 1", "expires": "2021-01-01"}, data["fun-metric1"])
	assert.Equal(t, map[string]any{"type": "boolean", "description": "Fun Metric 2"}, data["fun-metric2"])
	assert.Equal(t, map[string]any{"type": "counter", "description": "<b>html</b>"}, data["fun-metric3"])
}

func TestRenderFOG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFOG(&buf, testEntries[:1]))

	data := extractData(t, buf.String(), "metricData: ", ",\n")
	assert.Equal(t, true, data["fun-metric1"]["glean"])
	assert.NotContains(t, buf.String(), "exports.handler")
}

func TestRenderIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Render(&a, testEntries))
	require.NoError(t, Render(&b, []Entry{testEntries[2], testEntries[0], testEntries[1]}))
	assert.Equal(t, a.String(), b.String())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "metrics_search_fenix.js", FileName("fenix"))
}
