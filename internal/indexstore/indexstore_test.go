package indexstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/proc"
)

var daemonSig = proc.Signature{Binary: "cindex", Subcommand: "watch"}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	return &config.Settings{Home: t.TempDir(), StopTimeout: time.Second}
}

func noDaemon(proc.Signature) (int, bool) { return 0, false }

func writeArtifacts(t *testing.T, s *config.Settings) {
	t.Helper()
	require.NoError(t, os.MkdirAll(s.IndexDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.IndexDir(), "code.idx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.IndexDir(), "symbols.db"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(s.IndexLockPath(), []byte("1234"), 0o644))
}

func TestArtifactsExist(t *testing.T) {
	s := testSettings(t)
	assert.False(t, ArtifactsExist(s), "no index dir")

	require.NoError(t, os.MkdirAll(s.IndexDir(), 0o755))
	assert.False(t, ArtifactsExist(s), "empty index dir")

	writeArtifacts(t, s)
	assert.True(t, ArtifactsExist(s))
}

func TestInvalidate_RemovesArtifactsAndLock(t *testing.T) {
	s := testSettings(t)
	writeArtifacts(t, s)

	require.NoError(t, Invalidate(s, noDaemon, daemonSig))
	assert.False(t, ArtifactsExist(s))
	assert.NoFileExists(t, s.IndexLockPath())
}

func TestInvalidate_IdempotentWhenNothingExists(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, Invalidate(s, noDaemon, daemonSig))
	require.NoError(t, Invalidate(s, noDaemon, daemonSig))
}

func TestClearStaleLock_OnlyWhenNoOwningProcess(t *testing.T) {
	s := testSettings(t)
	require.NoError(t, os.MkdirAll(s.IndexDir(), 0o755))
	require.NoError(t, os.WriteFile(s.IndexLockPath(), []byte("1234"), 0o644))

	owned := func(proc.Signature) (int, bool) { return 1234, true }
	cleared, err := ClearStaleLock(s, owned, daemonSig)
	require.NoError(t, err)
	assert.False(t, cleared, "a lock with a live owner must never be touched")
	assert.FileExists(t, s.IndexLockPath())

	cleared, err = ClearStaleLock(s, noDaemon, daemonSig)
	require.NoError(t, err)
	assert.True(t, cleared)
	assert.NoFileExists(t, s.IndexLockPath())
}

func TestClearStaleLock_NoLockFile(t *testing.T) {
	s := testSettings(t)
	cleared, err := ClearStaleLock(s, noDaemon, daemonSig)
	require.NoError(t, err)
	assert.False(t, cleared)
}
