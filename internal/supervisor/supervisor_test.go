package supervisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/proc"
)

func tagsServer(t *testing.T, body string) (addr string, close func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(body))
	}))
	return strings.TrimPrefix(srv.URL, "http://"), srv.Close
}

func TestEnsureModel_Available(t *testing.T) {
	addr, done := tagsServer(t, `{"models":[{"name":"nomic-embed-text:latest"}]}`)
	defer done()

	err := EnsureModel(context.Background(), addr, "nomic-embed-text", time.Second)
	require.NoError(t, err)
}

func TestEnsureModel_MissingModelIsBlockingNotFatal(t *testing.T) {
	addr, done := tagsServer(t, `{"models":[{"name":"llama3:8b"}]}`)
	defer done()

	err := EnsureModel(context.Background(), addr, "nomic-embed-text", time.Second)
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestEnsureModel_BackendError(t *testing.T) {
	err := EnsureModel(context.Background(), "127.0.0.1:1", "m", 200*time.Millisecond)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrModelUnavailable, "transport failure is not a model decision")
}

func TestDaemonSignature(t *testing.T) {
	s := &config.Settings{IndexerBinary: "cindex"}
	assert.Equal(t, proc.Signature{Binary: "cindex", Subcommand: WatchSubcommand}, DaemonSignature(s))
}

func TestStart_AlreadyRunningReturnsDiscoveredPID(t *testing.T) {
	s := &config.Settings{Home: t.TempDir(), IndexerBinary: "cindex", StartTimeout: time.Second}
	require.NoError(t, s.EnsureDirs())

	lookup := func(proc.Signature) (int, bool) { return 4242, true }
	pid, err := Start(context.Background(), s, lookup)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestStart_MissingBinary(t *testing.T) {
	s := &config.Settings{
		Home:          t.TempDir(),
		IndexerBinary: "definitely-not-installed-anywhere",
		StartTimeout:  time.Second,
		StopTimeout:   time.Second,
	}
	require.NoError(t, s.EnsureDirs())

	lookup := func(proc.Signature) (int, bool) { return 0, false }
	_, err := Start(context.Background(), s, lookup)
	require.Error(t, err)
}

func TestStart_ConfirmationTimeout(t *testing.T) {
	s := &config.Settings{
		Home:          t.TempDir(),
		IndexerBinary: "true", // exits immediately, never shows up in the table
		StartTimeout:  500 * time.Millisecond,
		StopTimeout:   time.Second,
	}
	require.NoError(t, s.EnsureDirs())

	lookup := func(proc.Signature) (int, bool) { return 0, false }
	_, err := Start(context.Background(), s, lookup)
	require.ErrorIs(t, err, ErrNotStarted)
}
