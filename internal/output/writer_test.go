package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriter_CommitPublishesStagedEntries(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public", "data")

	w, err := NewWriter(root)
	require.NoError(t, err)
	require.NoError(t, w.WriteJSON("apps.json", []map[string]string{{"app_name": "fenix"}}))
	require.NoError(t, w.WriteJSON("fenix/index.json", map[string]any{"app_name": "fenix", "url": "a&b<c>"}))

	_, err = os.Stat(filepath.Join(root, "apps.json"))
	assert.True(t, os.IsNotExist(err), "nothing is visible before commit")

	require.NoError(t, w.Commit())

	assert.Equal(t, `[{"app_name":"fenix"}]`, readFile(t, filepath.Join(root, "apps.json")))
	assert.Equal(t, `{"app_name":"fenix","url":"a&b<c>"}`, readFile(t, filepath.Join(root, "fenix", "index.json")))

	_, err = os.Stat(w.StagingDir())
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_CommitReplacesOnlyProducedEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fenix", "metrics"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fenix", "metrics", "stale.json"), []byte("{}"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "focus"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "focus", "index.json"), []byte(`{"keep":true}`), 0644))

	w, err := NewWriter(root)
	require.NoError(t, err)
	require.NoError(t, w.WriteJSON("fenix/index.json", map[string]string{"app_name": "fenix"}))
	require.NoError(t, w.Commit())

	_, err = os.Stat(filepath.Join(root, "fenix", "metrics", "stale.json"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, `{"keep":true}`, readFile(t, filepath.Join(root, "focus", "index.json")))
}

func TestWriter_AbortLeavesPreviousOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "apps.json"), []byte("old"), 0644))

	w, err := NewWriter(root)
	require.NoError(t, err)
	require.NoError(t, w.WriteFile("apps.json", []byte("new")))
	require.NoError(t, w.Abort())

	assert.Equal(t, "old", readFile(t, filepath.Join(root, "apps.json")))
	_, err = os.Stat(w.StagingDir())
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, w.WriteFile("x.json", nil))
	assert.NoError(t, w.Abort())
}

func TestCommitAll_FailureRestoresEveryTarget(t *testing.T) {
	base := t.TempDir()
	dataRoot := filepath.Join(base, "public", "data")
	functionsRoot := filepath.Join(base, ".netlify")

	require.NoError(t, os.MkdirAll(filepath.Join(dataRoot, "fenix"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataRoot, "apps.json"), []byte("old apps"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataRoot, "fenix", "index.json"), []byte("old index"), 0644))

	data, err := NewWriter(dataRoot)
	require.NoError(t, err)
	require.NoError(t, data.WriteFile("apps.json", []byte("new apps")))
	require.NoError(t, data.WriteFile("fenix/index.json", []byte("new index")))
	require.NoError(t, data.WriteFile("focus/index.json", []byte("new focus")))

	functions, err := NewWriter(functionsRoot)
	require.NoError(t, err)
	require.NoError(t, functions.WriteFile("metrics_search_fenix.js", []byte("search")))

	// A regular file where the functions directory belongs makes its publish fail.
	require.NoError(t, os.WriteFile(functionsRoot, []byte("in the way"), 0644))

	err = CommitAll(data, functions)
	require.Error(t, err)

	assert.Equal(t, "old apps", readFile(t, filepath.Join(dataRoot, "apps.json")))
	assert.Equal(t, "old index", readFile(t, filepath.Join(dataRoot, "fenix", "index.json")))
	_, err = os.Stat(filepath.Join(dataRoot, "focus"))
	assert.True(t, os.IsNotExist(err), "entries new to this run are removed again")

	require.NoError(t, data.Abort())
	require.NoError(t, functions.Abort())
	assert.Equal(t, "old apps", readFile(t, filepath.Join(dataRoot, "apps.json")))
	_, err = os.Stat(data.StagingDir())
	assert.True(t, os.IsNotExist(err))
}

func TestCommitAll_PublishesEveryWriter(t *testing.T) {
	base := t.TempDir()
	dataRoot := filepath.Join(base, "data")
	functionsRoot := filepath.Join(base, "functions")
	require.NoError(t, os.MkdirAll(dataRoot, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataRoot, "apps.json"), []byte("old"), 0644))

	data, err := NewWriter(dataRoot)
	require.NoError(t, err)
	require.NoError(t, data.WriteFile("apps.json", []byte("new")))
	functions, err := NewWriter(functionsRoot)
	require.NoError(t, err)
	require.NoError(t, functions.WriteFile("supported_glam_metric_types.json", []byte("[]")))

	require.NoError(t, CommitAll(data, functions))

	assert.Equal(t, "new", readFile(t, filepath.Join(dataRoot, "apps.json")))
	assert.Equal(t, "[]", readFile(t, filepath.Join(functionsRoot, "supported_glam_metric_types.json")))
	for _, w := range []*Writer{data, functions} {
		_, err = os.Stat(w.StagingDir())
		assert.True(t, os.IsNotExist(err))
		assert.NoError(t, w.Abort())
	}
	assert.Error(t, data.Commit())
}

func TestWriter_AbortAfterPrepareRestoresPreviousOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "apps.json"), []byte("old"), 0644))

	w, err := NewWriter(root)
	require.NoError(t, err)
	require.NoError(t, w.WriteFile("apps.json", []byte("new")))
	require.NoError(t, w.prepare())
	assert.Equal(t, "new", readFile(t, filepath.Join(root, "apps.json")))

	require.NoError(t, w.Abort())
	assert.Equal(t, "old", readFile(t, filepath.Join(root, "apps.json")))
}

func TestWriter_RejectsTraversal(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)
	defer w.Abort()

	assert.ErrorIs(t, w.WriteFile("../escape.json", nil), ErrPathTraversal)
	assert.ErrorIs(t, w.WriteFile("/abs.json", nil), ErrPathTraversal)

	_, err = NewWriter("public/../../data")
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "data_browser_engagement_active_ticks.json", MetricFileName("browser.engagement.active_ticks"))
	assert.Equal(t, "data_metrics_foo.json", MetricFileName("metrics.foo"))
	assert.Equal(t, "data_browser_advert_impression_count.json", MetricFileName("browser.ad_impression.count"))
	assert.Equal(t, "deletion-request.json", PingFileName("deletion-request"))
	assert.Equal(t, "org_mozilla_fenix.json", AppIDFileName("org.mozilla.fenix"))
}

func TestContainsPathTraversal(t *testing.T) {
	assert.True(t, ContainsPathTraversal("../x"))
	assert.True(t, ContainsPathTraversal(`a\..\b`))
	assert.False(t, ContainsPathTraversal("a/..b/c"))
	assert.False(t, ContainsPathTraversal("public/data"))
}
