// Package xref derives storage names and dashboard links for metrics and
// pings.
package xref

import (
	"fmt"
	"strings"

	"github.com/mozilla/glean-dictionary/internal/glean"
	gdstrings "github.com/mozilla/glean-dictionary/internal/util/strings"
)

// Default locations of the generated pipeline schemas.
const (
	DefaultSchemasURL       = "https://raw.githubusercontent.com/mozilla-services/mozilla-pipeline-schemas/generated-schemas/schemas/"
	DefaultSchemasBrowseURL = "https://github.com/mozilla-services/mozilla-pipeline-schemas/blob/generated-schemas/schemas/"
)

// ColumnName returns the BigQuery column a metric is stored in.
func ColumnName(m *glean.Metric) string {
	name := gdstrings.SnakeCase(m.ID)
	if m.BQPrefix != "" {
		return m.BQPrefix + "." + name
	}
	return fmt.Sprintf("metrics.%s.%s", m.Type(), name)
}

// StableTableName returns the user-facing table of a ping.
func StableTableName(datasetFamily, ping string) string {
	return datasetFamily + "." + gdstrings.SnakeCase(ping)
}

// LiveTableName returns the streaming table of a ping.
func LiveTableName(datasetFamily, ping string) string {
	return fmt.Sprintf("%s_live.%s_v1", datasetFamily, gdstrings.SnakeCase(ping))
}

// SchemaPath returns the path of a ping's BigQuery schema below the schemas
// root.
func SchemaPath(documentNamespace, ping string) string {
	return fmt.Sprintf("%s/%s/%s.1.bq", documentNamespace, ping, ping)
}

// SchemaURL joins a schemas root and a schema path.
func SchemaURL(root, schemaPath string) string {
	return strings.TrimRight(root, "/") + "/" + schemaPath
}
