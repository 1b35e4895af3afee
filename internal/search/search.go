// Package search renders the metric search functions served next to the
// generated catalog.
package search

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"text/template"
)

//go:embed templates/*.js.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.js.tmpl"))

// FOGAppName is the application whose metrics are also exported as data for
// the combined Glean and legacy search.
const FOGAppName = "firefox_desktop"

// Entry is one searchable metric.
type Entry struct {
	Name        string
	Type        string
	Description string
	// Expires is the mapped expiry as JSON; null and "never" are omitted.
	Expires json.RawMessage
}

type record struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Expires     json.RawMessage `json:"expires,omitempty"`
	Glean       bool            `json:"glean,omitempty"`
}

type templateData struct {
	MetricData string
	Legacy     string
}

// FileName is the function file of an application.
func FileName(appName string) string {
	return fmt.Sprintf("metrics_search_%s.js", appName)
}

// FOGFileName is the data file of the combined search.
const FOGFileName = "metrics_search_fog.js"

// Render writes the search function for entries.
func Render(w io.Writer, entries []Entry) error {
	return render(w, "metrics_search.js.tmpl", entries, false)
}

// RenderFOG writes the search data file for the desktop Glean metrics.
func RenderFOG(w io.Writer, entries []Entry) error {
	return render(w, "fog.js.tmpl", entries, true)
}

func render(w io.Writer, name string, entries []Entry, glean bool) error {
	data, err := metricData(entries, glean)
	if err != nil {
		return err
	}
	if err := templates.ExecuteTemplate(w, name, templateData{MetricData: data, Legacy: "false"}); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}

func metricData(entries []Entry, glean bool) (string, error) {
	records := make(map[string]record, len(entries))
	for _, e := range entries {
		r := record{Type: e.Type, Description: e.Description, Glean: glean}
		if !omitExpires(e.Expires) {
			r.Expires = e.Expires
		}
		records[e.Name] = r
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("failed to encode search data: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func omitExpires(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "" || s == "null" || s == `"never"`
}
