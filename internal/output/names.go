package output

import (
	"strings"

	gdstrings "github.com/mozilla/glean-dictionary/internal/util/strings"
)

// Substrings that content blockers match on, with their replacements.
var blockedSubstrings = [][2]string{
	{"ad_impression", "advert_impression"},
}

// MetricFileName is the file a metric's document is written to. The
// "data_" prefix keeps blockers from matching names that start with
// "metrics".
func MetricFileName(id string) string {
	name := gdstrings.ResourcePath(id)
	for _, pair := range blockedSubstrings {
		name = strings.ReplaceAll(name, pair[0], pair[1])
	}
	return "data_" + name + ".json"
}

// PingFileName is the file a ping's document is written to.
func PingFileName(id string) string {
	return id + ".json"
}

// AppIDFileName is the file an app id's registry record is written to.
func AppIDFileName(appID string) string {
	return gdstrings.ResourcePath(appID) + ".json"
}
