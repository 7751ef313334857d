package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "indexwatch.log")

	log, err := NewFileLogger(path, "info")
	require.NoError(t, err)

	log.Info("daemon restarted")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"daemon restarted"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewFileLogger_RespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexwatch.log")

	log, err := NewFileLogger(path, "error")
	require.NoError(t, err)

	log.Info("suppressed")
	log.Error("kept")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "kept")
}

func TestNewFileLogger_UnknownLevel(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "x.log"), "loud")
	require.Error(t, err)
}
