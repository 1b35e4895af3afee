package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"NAME", "APP IDS"}, true)
	table.AddRow("fenix", "5")
	table.AddRow("firefox_desktop", "1", "ignored")
	table.Render()

	want := strings.Join([]string{
		"NAME             APP IDS",
		"───────────────  ───────",
		"fenix            5",
		"firefox_desktop  1",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected table:\n%s\nwant:\n%s", buf.String(), want)
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
}

func TestTableNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, nil, true)
	table.AddRow("x")
	table.Render()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
