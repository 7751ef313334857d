// Package proc discovers and signals the supervised indexer process.
//
// There is no retained process handle: every check re-discovers the daemon
// by matching its invocation in the process table, so readers can never act
// on a stale identity.
package proc

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// Signature identifies the daemon invocation: a binary name plus its fixed
// subcommand (continuous watch mode).
type Signature struct {
	Binary     string
	Subcommand string
}

func (s Signature) matches(argv []string) bool {
	if len(argv) < 2 {
		return false
	}
	return filepath.Base(argv[0]) == filepath.Base(s.Binary) && argv[1] == s.Subcommand
}

// Lookup finds a live process matching the signature. Implementations other
// than TableLookup exist only in tests.
type Lookup func(sig Signature) (pid int, ok bool)

// TableLookup scans the /proc process table for a command line matching sig,
// skipping the calling process itself.
func TableLookup(sig Signature) (int, bool) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, false
	}
	self := os.Getpid()
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == self {
			continue
		}
		raw, err := os.ReadFile(filepath.Join("/proc", e.Name(), "cmdline"))
		if err != nil || len(raw) == 0 {
			continue
		}
		argv := splitCmdline(raw)
		if sig.matches(argv) {
			return pid, true
		}
	}
	return 0, false
}

func splitCmdline(raw []byte) []string {
	parts := bytes.Split(bytes.TrimRight(raw, "\x00"), []byte{0})
	argv := make([]string, 0, len(parts))
	for _, p := range parts {
		argv = append(argv, string(p))
	}
	return argv
}

// Alive reports whether pid refers to a live process.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// Terminate stops pid: SIGTERM first, then SIGKILL if it is still alive
// after the grace period.
func Terminate(pid int, grace time.Duration) {
	if !Alive(pid) {
		return
	}
	_ = unix.Kill(pid, unix.SIGTERM)

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !Alive(pid) {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	_ = unix.Kill(pid, unix.SIGKILL)
}
