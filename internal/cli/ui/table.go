package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a bold header, columns padded to their widest
// cell.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, noColor bool) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		noColor: noColor,
	}
}

// AddRow adds a row. Cells beyond the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	if len(cells) > len(t.headers) {
		cells = cells[:len(t.headers)]
	}
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows added.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		bold.DisableColor()
		gray.DisableColor()
	}

	cells := make([]string, len(t.headers))
	for i, header := range t.headers {
		cells[i] = bold.Sprint(padRight(header, widths[i]))
	}
	t.line(cells)

	for i, width := range widths {
		cells[i] = gray.Sprint(strings.Repeat("─", width))
	}
	t.line(cells)

	for _, row := range t.rows {
		cells = cells[:0]
		for i, cell := range row {
			cells = append(cells, padRight(cell, widths[i]))
		}
		t.line(cells)
	}
}

func (t *Table) line(cells []string) {
	fmt.Fprintln(t.writer, strings.TrimRight(strings.Join(cells, "  "), " "))
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
