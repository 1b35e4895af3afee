package expiry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla/glean-dictionary/internal/glean"
)

func testReleases(t *testing.T) *Releases {
	t.Helper()
	r, err := ParseReleases([]byte(`{"1.0": "2004-11-09", "120.0": "2023-11-21", "121.0": "2023-12-19"}`))
	require.NoError(t, err)
	return r
}

func exp(raw string) glean.Expiry {
	return glean.NewExpiry(json.RawMessage(raw))
}

func TestReleases(t *testing.T) {
	r := testReleases(t)
	assert.Equal(t, "121.0", r.Latest())

	d, ok := r.Date("1.0")
	assert.True(t, ok)
	assert.Equal(t, "2004-11-09", d)

	var empty *Releases
	assert.Equal(t, "", empty.Latest())
}

func TestParseReleases_KeepsDocumentOrder(t *testing.T) {
	r, err := ParseReleases([]byte(`{"99.0": "2022-04-05", "2.0": "2006-10-24"}`))
	require.NoError(t, err)
	assert.Equal(t, "2.0", r.Latest())

	_, err = ParseReleases([]byte(`[]`))
	assert.Error(t, err)
}

func TestMapped(t *testing.T) {
	r := testReleases(t)

	tests := []struct {
		name    string
		expires string
		app     string
		want    string
	}{
		{"desktop version", `1`, "firefox_desktop", `"2004-11-09"`},
		{"desktop version string", `"120"`, "firefox_desktop", `"2023-11-21"`},
		{"desktop unknown version", `0`, "firefox_desktop", `0`},
		{"never", `"never"`, "fenix", `null`},
		{"date", `"2024-01-01"`, "fenix", `"2024-01-01"`},
		{"mobile version", `120`, "fenix", `120`},
		{"missing", ``, "fenix", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(Mapped(exp(tt.expires), tt.app, r)))
		})
	}
}

func TestText(t *testing.T) {
	r := testReleases(t)

	text := Text(exp(`120`), "fenix", r)
	require.NotNil(t, text)
	assert.Equal(t, "120. Latest release is [121.0](https://whattrainisitnow.com/).", *text)

	text = Text(exp(`120`), "focus_android", r)
	require.NotNil(t, text)
	assert.Equal(t, "120", *text)

	text = Text(exp(`"never"`), "fenix", r)
	require.NotNil(t, text)
	assert.Equal(t, "never", *text)

	text = Text(exp(`"2024-01-01"`), "firefox_desktop", r)
	require.NotNil(t, text)
	assert.Equal(t, "2024-01-01", *text)

	assert.Nil(t, Text(exp(``), "fenix", r))
}
