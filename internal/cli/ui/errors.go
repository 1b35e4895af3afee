package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/mozilla/glean-dictionary/internal/fetch"
	"github.com/mozilla/glean-dictionary/internal/glean"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// ColorDisabled reports whether output should be plain, either because the
// caller asked for it or because NO_COLOR is set.
func ColorDisabled(noColorFlag bool) bool {
	if noColorFlag {
		return true
	}
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ BUILD FAILED: failed to fetch annotations: 503
//	   failed to fetch annotations: 503
//
//	   The previous output was left untouched.
//
//	   → Get help: glean-dictionary --help
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelError:
		headerColor = color.New(color.FgRed, color.Bold)
		bodyColor = color.New(color.FgRed)
		symbol = "❌"
	case ErrorLevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	case ErrorLevelInfo:
		headerColor = color.New(color.FgCyan, color.Bold)
		bodyColor = color.New(color.FgCyan)
		symbol = "ℹ️"
	}

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Problem != "" && opts.Context != "" {
		bodyColor.Fprintf(&b, "   %s\n", opts.Problem)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		for _, s := range opts.Suggestions {
			yellow.Fprintf(&b, "   • %s\n", s)
		}
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// BuildError creates a standardized build failure message. Suggestions are
// derived from the kind of failure found in err's chain.
func BuildError(err error, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "BUILD FAILED",
		Problem:     err.Error(),
		Consequence: "The previous output was left untouched.",
		Suggestions: buildSuggestions(err),
		HelpCommands: []string{
			"Get help: glean-dictionary --help",
		},
		NoColor: noColor,
	}
	return FormatError(opts)
}

func buildSuggestions(err error) []string {
	var status *fetch.StatusError
	switch {
	case errors.As(err, &status):
		return []string{
			fmt.Sprintf("%s answered %d; check the sources.* settings", status.URL, status.StatusCode),
		}
	case errors.Is(err, glean.ErrMalformedDefinition):
		return []string{"The probe-info service returned an unexpected document; retry later"}
	}
	return nil
}

// ConfigError creates a standardized configuration error
func ConfigError(err error, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: err.Error(),
		Suggestions: []string{
			"Check glean-dictionary.yml and GLEAN_DICTIONARY_* environment variables",
		},
		HelpCommands: []string{
			"Get help: glean-dictionary --help",
		},
		NoColor: noColor,
	}
	return FormatError(opts)
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	}
	return FormatError(opts)
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	}
	return FormatError(opts)
}
