// Package supervisor starts the indexer daemon and confirms it is running.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/endpoint"
	"github.com/kodflow/indexwatch/internal/indexstore"
	"github.com/kodflow/indexwatch/internal/proc"
)

// WatchSubcommand is the daemon's continuous watch/index mode.
const WatchSubcommand = "watch"

// ErrModelUnavailable reports that the backend does not (yet) serve the
// configured embedding model. A blocking precondition: initialization is
// deferred, not aborted.
var ErrModelUnavailable = errors.New("embedding model not available on backend")

// ErrNotStarted reports that the daemon did not appear in the process table
// within the confirmation window.
var ErrNotStarted = errors.New("indexer daemon did not start")

// DaemonSignature is how the daemon is found in the process table.
func DaemonSignature(s *config.Settings) proc.Signature {
	return proc.Signature{Binary: s.IndexerBinary, Subcommand: WatchSubcommand}
}

// EnsureModel verifies the model is served by the backend at addr.
func EnsureModel(ctx context.Context, addr, model string, timeout time.Duration) error {
	models, err := endpoint.Models(ctx, addr, timeout)
	if err != nil {
		return err
	}
	if !endpoint.HasModel(models, model) {
		return fmt.Errorf("%w: %s on %s", ErrModelUnavailable, model, addr)
	}
	return nil
}

// Start launches the daemon if it is not already in the process table and
// polls for confirmation. Any stale advisory lock is cleared first; the
// returned pid always comes from a fresh table lookup, never from a
// remembered handle.
func Start(ctx context.Context, s *config.Settings, lookup proc.Lookup) (int, error) {
	sig := DaemonSignature(s)
	if pid, ok := lookup(sig); ok {
		return pid, nil
	}

	if _, err := indexstore.ClearStaleLock(s, lookup, sig); err != nil {
		return 0, err
	}

	logf, err := os.OpenFile(s.DaemonLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("cannot open daemon log %s: %w", s.DaemonLogPath(), err)
	}
	defer logf.Close()

	cmd := exec.Command(s.IndexerBinary, WatchSubcommand)
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("cannot start %s %s: %w", s.IndexerBinary, WatchSubcommand, err)
	}
	go func() { _ = cmd.Wait() }()

	deadline := time.Now().Add(s.StartTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if pid, ok := lookup(sig); ok {
			return pid, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return 0, fmt.Errorf("%w (see %s)", ErrNotStarted, s.DaemonLogPath())
}
