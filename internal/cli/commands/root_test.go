package commands

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla/glean-dictionary/internal/glean"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "glean-dictionary", cmd.Name())
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, expected := range []string{"version", "serve", "apps"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		assert.True(t, found, "expected command %s to be registered", expected)
	}
}

func TestNewVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	var buf bytes.Buffer
	cmd := NewVersionCommand()
	cmd.SetOut(&buf)
	cmd.Run(cmd, nil)

	out := buf.String()
	assert.Contains(t, out, "1.0.0-test")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "2025-01-01")
	assert.Contains(t, out, "go1.23")
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	port := cmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "5000", port.DefValue)
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"config", &configError{errors.New("log.level: bad")}, "CONFIGURATION ERROR"},
		{"build", fmt.Errorf("wrapped: %w", &buildFailure{errors.New("fetch failed")}), "BUILD FAILED"},
		{"other", errors.New(`unknown flag: --nope`), "❌ unknown flag: --nope\n\n   → Get help: glean-dictionary --help"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err, true)
			assert.Contains(t, buf.String(), tt.contains)
			assert.NotContains(t, buf.String(), "\x1b[")
		})
	}
}

func TestListedApps(t *testing.T) {
	apps := []glean.App{
		{AppName: "fenix", AppID: "org.mozilla.firefox"},
		{AppName: "focus", AppID: "org.mozilla.focus"},
		{AppName: "hidden", AppID: "hidden", SkipDocumentation: true},
		{AppName: "fenix", AppID: "org.mozilla.fenix"},
	}

	ids := func(apps []glean.App) string {
		var out []string
		for _, app := range apps {
			out = append(out, app.AppID)
		}
		return strings.Join(out, ",")
	}

	assert.Equal(t, "org.mozilla.firefox,org.mozilla.fenix,org.mozilla.focus", ids(listedApps(apps, false)))
	assert.Equal(t, "org.mozilla.firefox,org.mozilla.fenix,org.mozilla.focus,hidden", ids(listedApps(apps, true)))
}

func TestAppsCommand(t *testing.T) {
	srv := fixtureServer(t, fixtureDocuments())
	setupBuild(t, srv)

	out, err := execute(t, "apps")
	require.NoError(t, err)
	assert.Contains(t, out, "APP NAME")
	assert.Contains(t, out, "burnham")
	assert.Contains(t, out, "release")
}
