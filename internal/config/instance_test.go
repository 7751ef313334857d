package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const template = `endpoint: PLACEHOLDER
embedding:
  model: nomic-embed-text
chunking:
  max_tokens: 512
ignore:
  - vendor/
  - node_modules/
`

func testSettings(t *testing.T) *Settings {
	t.Helper()
	return &Settings{Home: t.TempDir(), IndexerBinary: "cindex"}
}

func TestSetEndpoint_ReplacesExistingLine(t *testing.T) {
	out := SetEndpoint([]byte(template), "10.0.0.7:11434")
	assert.Contains(t, string(out), "endpoint: 10.0.0.7:11434\n")
	assert.NotContains(t, string(out), "PLACEHOLDER")
}

func TestSetEndpoint_AppendsWhenAbsent(t *testing.T) {
	out := SetEndpoint([]byte("embedding:\n  model: m"), "127.0.0.1:11434")
	assert.Contains(t, string(out), "\nendpoint: 127.0.0.1:11434\n")
}

func TestStripEndpoint_RemovesOnlyTheEndpointLine(t *testing.T) {
	out := StripEndpoint(SetEndpoint([]byte(template), "10.0.0.7:11434"))
	assert.NotContains(t, string(out), "endpoint:")
	assert.Contains(t, string(out), "model: nomic-embed-text")
	assert.Contains(t, string(out), "max_tokens: 512")
}

func TestSyncInstance_OverwritesPreviousConfig(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, os.WriteFile(s.TemplatePath(), []byte(template), 0o644))
	// A drifted previous config must not survive a sync.
	require.NoError(t, os.WriteFile(s.ConfigPath(), []byte("endpoint: old\nstale: true\n"), 0o644))

	require.NoError(t, SyncInstance(s, "192.168.1.5:11434"))

	data, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "endpoint: 192.168.1.5:11434")
	assert.NotContains(t, string(data), "stale: true")
}

func TestSyncInstance_OnlyEndpointVariesBetweenSyncs(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, os.WriteFile(s.TemplatePath(), []byte(template), 0o644))

	require.NoError(t, SyncInstance(s, "127.0.0.1:11434"))
	first, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)

	require.NoError(t, SyncInstance(s, "10.0.0.7:11434"))
	second, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)

	assert.Equal(t, string(StripEndpoint(first)), string(StripEndpoint(second)))
}

func TestSyncInstance_MissingTemplateAndGeneratorFails(t *testing.T) {
	s := testSettings(t)
	s.IndexerBinary = "definitely-not-installed-anywhere"
	err := SyncInstance(s, "127.0.0.1:11434")
	require.Error(t, err)
}

func TestLoadInstance_NestedModel(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, os.WriteFile(s.ConfigPath(), []byte(template), 0o644))

	inst, err := LoadInstance(s.ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", inst.Embedding.Model)
	assert.Equal(t, "PLACEHOLDER", inst.Endpoint)
}

func TestLoadInstance_InvalidYAML(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, os.WriteFile(s.ConfigPath(), []byte(":\n  - ]["), 0o644))
	_, err := LoadInstance(s.ConfigPath())
	require.Error(t, err)
}
