package xref

import (
	"fmt"
	"sort"

	"github.com/mozilla/glean-dictionary/internal/glean"
	gdstrings "github.com/mozilla/glean-dictionary/internal/util/strings"
)

// GLAMBaseURL is the root of the aggregation dashboard.
const GLAMBaseURL = "https://glam.telemetry.mozilla.org"

type glamProduct struct {
	product string
	appID   string
}

var glamProducts = map[string]glamProduct{
	"org.mozilla.fenix":        {product: "fenix", appID: ""},
	"org.mozilla.firefox_beta": {product: "fenix", appID: "beta"},
	"org.mozilla.firefox":      {product: "fenix", appID: "release"},
	"firefox.desktop":          {product: "fog", appID: ""},
}

var glamMetricTypes = map[string]bool{
	"boolean":         true,
	"counter":         true,
	"labeled_counter": true,
	"quantity":        true,
	"timespan":        true,
}

func init() {
	for t := range glean.DistributionTypes {
		glamMetricTypes[t] = true
	}
}

// GLAMLink is either a dashboard URL or the reason there is none.
type GLAMLink struct {
	URL               string `json:"glam_url,omitempty"`
	UnsupportedReason string `json:"glam_unsupported_reason,omitempty"`
}

// GLAM returns the aggregation dashboard link of metric m as sent in ping by
// app id appID.
func GLAM(appID string, m *glean.Metric, ping string) GLAMLink {
	product, ok := glamProducts[appID]
	switch {
	case !ok:
		return GLAMLink{UnsupportedReason: "This application is not supported by GLAM."}
	case m.BQPrefix == "client_info" || m.BQPrefix == "ping_info":
		return GLAMLink{UnsupportedReason: "Internal Glean metrics are not supported by GLAM."}
	case !glamMetricTypes[m.Type()]:
		return GLAMLink{UnsupportedReason: fmt.Sprintf("Currently GLAM does not support `%s` metrics.", m.Type())}
	case ping != "metrics":
		return GLAMLink{UnsupportedReason: fmt.Sprintf(
			"Metrics sent in the `%s` ping are not supported by GLAM "+
				"([mozilla/glam#1652](https://github.com/mozilla/glam/issues/1652)).", ping)}
	}

	return GLAMLink{URL: fmt.Sprintf("%s/%s/probe/%s/explore?app_id=%s",
		GLAMBaseURL, product.product, gdstrings.ETLSnakeCase(m.ID), product.appID)}
}

// SupportedGLAMTypes lists the metric types the aggregation dashboard can
// show, sorted.
func SupportedGLAMTypes() []string {
	types := make([]string, 0, len(glamMetricTypes))
	for t := range glamMetricTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
