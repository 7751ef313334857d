// Package indexstore owns invalidation of the on-disk index artifacts. It
// is the only writer of the index directory besides the supervised indexer
// itself.
package indexstore

import (
	"fmt"
	"os"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/proc"
)

// ArtifactsExist reports whether any index artifacts are on disk.
func ArtifactsExist(s *config.Settings) bool {
	entries, err := os.ReadDir(s.IndexDir())
	if err != nil {
		return false
	}
	return len(entries) > 0
}

// Invalidate stops the supervised indexer if it is running, then deletes the
// index artifacts and the advisory lock. Safe to call when neither exists.
func Invalidate(s *config.Settings, lookup proc.Lookup, sig proc.Signature) error {
	if pid, ok := lookup(sig); ok {
		proc.Terminate(pid, s.StopTimeout)
	}
	if err := os.RemoveAll(s.IndexDir()); err != nil {
		return fmt.Errorf("cannot remove index artifacts %s: %w", s.IndexDir(), err)
	}
	return nil
}

// ClearStaleLock removes the indexer's advisory lock, but only when the
// process table shows no owning process. A lock with a live owner is never
// touched. Returns whether a lock file was removed.
func ClearStaleLock(s *config.Settings, lookup proc.Lookup, sig proc.Signature) (bool, error) {
	if _, ok := lookup(sig); ok {
		return false, nil
	}
	err := os.Remove(s.IndexLockPath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cannot remove stale lock %s: %w", s.IndexLockPath(), err)
	}
	return true, nil
}
