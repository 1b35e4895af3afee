package xref

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// dynamicField is a custom measure passed to the dashboard in a link.
type dynamicField struct {
	Measure    string
	Label      string
	BasedOn    string
	Expression string
	Type       string
}

// renderDynamicFields encodes fields the way the dashboard's existing links
// do: a JSON array with ", " and ": " separators and ASCII-only strings.
func renderDynamicFields(fields []dynamicField) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, `{"measure": %s, "label": %s, "based_on": %s, "expression": %s, "type": %s}`,
			asciiJSONString(f.Measure),
			asciiJSONString(f.Label),
			asciiJSONString(f.BasedOn),
			asciiJSONString(f.Expression),
			asciiJSONString(f.Type))
	}
	b.WriteByte(']')
	return b.String()
}

func asciiJSONString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r >= 0x7f && r <= 0xffff):
				fmt.Fprintf(&b, `\u%04x`, r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04x\u%04x`, hi, lo)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
