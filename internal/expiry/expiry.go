// Package expiry maps metric expiry values to dates and display text.
package expiry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mozilla/glean-dictionary/internal/glean"
)

// DefaultReleasesURL lists Firefox major releases and their dates.
const DefaultReleasesURL = "https://product-details.mozilla.org/1.0/firefox_history_major_releases.json"

// versionedApps have version-based expiry.
var versionedApps = map[string]bool{
	"firefox_desktop": true,
	"fenix":           true,
	"firefox_ios":     true,
}

// Releases is the ordered Firefox release history.
type Releases struct {
	versions []string
	dates    map[string]string
}

// ParseReleases decodes a version to date object, keeping document order.
func ParseReleases(data []byte) (*Releases, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("release history is not a JSON object")
	}

	r := &Releases{dates: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read release history: %w", err)
		}
		version, _ := tok.(string)

		var date string
		if err := dec.Decode(&date); err != nil {
			return nil, fmt.Errorf("failed to read release %s: %w", version, err)
		}
		if _, seen := r.dates[version]; !seen {
			r.versions = append(r.versions, version)
		}
		r.dates[version] = date
	}
	return r, nil
}

// Latest returns the last listed version.
func (r *Releases) Latest() string {
	if r == nil || len(r.versions) == 0 {
		return ""
	}
	return r.versions[len(r.versions)-1]
}

// Date returns the release date of version.
func (r *Releases) Date(version string) (string, bool) {
	if r == nil {
		return "", false
	}
	d, ok := r.dates[version]
	return d, ok
}

// Mapped returns the expiry shown for a metric: a release date for desktop
// versions, null for metrics that never expire, the raw value otherwise.
func Mapped(expires glean.Expiry, appName string, releases *Releases) json.RawMessage {
	if appName == "firefox_desktop" && !expires.IsZero() {
		if date, ok := releases.Date(expires.String() + ".0"); ok {
			raw, _ := json.Marshal(date)
			return raw
		}
	}
	if expires.IsNever() || expires.IsZero() {
		return json.RawMessage("null")
	}
	raw, _ := json.Marshal(expires)
	return raw
}

// Text returns the human readable expiry, or nil when there is none.
func Text(expires glean.Expiry, appName string, releases *Releases) *string {
	if expires.IsZero() {
		return nil
	}
	text := expires.String()
	if v, ok := expires.Int(); ok && versionedApps[appName] {
		text = fmt.Sprintf("%d. Latest release is [%s](https://whattrainisitnow.com/).", v, releases.Latest())
	}
	return &text
}
