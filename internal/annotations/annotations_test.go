package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndex = `{
	"fenix": {
		"app": {
			"logo": "https://example.com/assets/fenix.png",
			"featured": true,
			"tags": ["Mobile"],
			"commentary": "Firefox on Android"
		},
		"tags": {"Performance": "Speed things", "Mobile": "On phones"},
		"metrics": {
			"browser.engagement.active_ticks": {"tags": ["Performance"], "commentary": "Tricky", "warning": "Careful"},
			"only.unknown": {"bugs": ["1"]}
		},
		"pings": {"metrics": {"commentary": "The big one"}}
	}
}`

func parseTestIndex(t *testing.T) Index {
	t.Helper()
	idx, err := ParseIndex([]byte(testIndex))
	require.NoError(t, err)
	return idx
}

func TestIncorporate_AnnotationTagsReplaceSourceTags(t *testing.T) {
	o := Incorporate([]string{"a"}, Annotation{Tags: []string{"b"}}, false)
	assert.Equal(t, []string{"b"}, o.Tags)
	assert.True(t, o.HasAnnotation)
}

func TestIncorporate_KeepsSourceTagsWithoutAnnotationTags(t *testing.T) {
	idx := parseTestIndex(t)

	o := Incorporate([]string{"a"}, idx.Ping("fenix", "metrics"), false)
	assert.Equal(t, []string{"a"}, o.Tags)
	assert.True(t, o.HasAnnotation)
	assert.Empty(t, o.Commentary)

	full := Incorporate([]string{"a"}, idx.Ping("fenix", "metrics"), true)
	assert.Equal(t, "The big one", full.Commentary)
}

func TestIncorporate_FullAddsCommentaryAndWarning(t *testing.T) {
	ann := parseTestIndex(t).Metric("fenix", "browser.engagement.active_ticks")

	summary := Incorporate(nil, ann, false)
	assert.Equal(t, []string{"Performance"}, summary.Tags)
	assert.Empty(t, summary.Commentary)
	assert.Empty(t, summary.Warning)

	full := Incorporate(nil, ann, true)
	assert.Equal(t, "Tricky", full.Commentary)
	assert.Equal(t, "Careful", full.Warning)
}

func TestIncorporate_EmptinessCountsUnknownKeys(t *testing.T) {
	idx := parseTestIndex(t)

	assert.True(t, Incorporate(nil, idx.Metric("fenix", "only.unknown"), false).HasAnnotation)
	assert.False(t, Incorporate(nil, idx.Metric("fenix", "missing"), false).HasAnnotation)
	assert.False(t, Incorporate(nil, idx.Metric("nobody", "missing"), false).HasAnnotation)
	assert.Equal(t, []string{}, Incorporate(nil, Annotation{}, false).Tags)
}

func TestIncorporateApp(t *testing.T) {
	ann := parseTestIndex(t).App("fenix")

	o := IncorporateApp("fenix", ann, false)
	assert.True(t, o.HasAnnotation)
	assert.True(t, o.Featured)
	assert.Equal(t, "/data/fenix/logo.png", o.Logo)
	assert.Equal(t, []string{"Mobile"}, o.AppTags)
	assert.Empty(t, o.Commentary)

	assert.Equal(t, "Firefox on Android", IncorporateApp("fenix", ann, true).Commentary)
	assert.False(t, IncorporateApp("focus", Annotation{}, true).HasAnnotation)
}

func TestExpandTags(t *testing.T) {
	vocab := parseTestIndex(t).Vocabulary("fenix")

	tags := ExpandTags([]string{"Performance", "Nope"}, vocab)
	assert.Equal(t, []Tag{
		{Name: "Performance", Description: "Speed things"},
		{Name: "Nope", Description: "Unknown tag"},
	}, tags)
	assert.Empty(t, ExpandTags(nil, vocab))
}

func TestVocabularyIsACopy(t *testing.T) {
	idx := parseTestIndex(t)

	vocab := idx.Vocabulary("fenix")
	vocab["New"] = "added"
	assert.NotContains(t, idx.Vocabulary("fenix"), "New")
	assert.Empty(t, idx.Vocabulary("unknown"))
}

func TestLogoFilename(t *testing.T) {
	assert.Equal(t, "logo.svg", LogoFilename("https://example.com/a/b/logo-final.svg?raw=true"))
	assert.Equal(t, "logo", LogoFilename("https://example.com/noext"))
}
