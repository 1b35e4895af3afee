package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", FormatJSON, &buf)
	require.NoError(t, err)

	logger, runID := WithRun(logger)
	logger.Debug("hidden")
	logger.Info("Processing app")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "Processing app", entry["msg"])
	assert.Equal(t, runID, entry["run_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("debug", FormatConsole, &buf)
	require.NoError(t, err)

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", FormatJSON, nil)
	assert.Error(t, err)

	_, err = New("info", "xml", nil)
	assert.Error(t, err)
}
