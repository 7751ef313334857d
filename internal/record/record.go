// Package record persists the last known-good index state: the fingerprint
// the current artifacts were built under, plus the supervised process id and
// a last-healthy timestamp.
package record

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoRecord reports that no trustworthy health record exists. A file that
// is missing, empty, or has any required field garbled is treated
// identically: absence of proof is distrust.
var ErrNoRecord = errors.New("no usable health record")

// Health is the persisted record, one KEY=value line per field.
type Health struct {
	Model          string
	IndexerVersion string
	ConfigHash     string
	DaemonPID      int
	LastHealthy    time.Time
}

// Load reads the record at path. Every parse failure maps to ErrNoRecord;
// callers never see a partially-populated record.
func Load(path string) (*Health, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrNoRecord
	}
	defer f.Close()

	fields := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if scanner.Err() != nil {
		return nil, ErrNoRecord
	}

	h := &Health{
		Model:          fields["MODEL"],
		IndexerVersion: fields["INDEXER_VERSION"],
		ConfigHash:     fields["CONFIG_HASH"],
	}
	if h.Model == "" || h.IndexerVersion == "" || h.ConfigHash == "" {
		return nil, ErrNoRecord
	}
	pid, err := strconv.Atoi(fields["DAEMON_PID"])
	if err != nil {
		return nil, ErrNoRecord
	}
	h.DaemonPID = pid
	unix, err := strconv.ParseInt(fields["LAST_HEALTHY"], 10, 64)
	if err != nil {
		return nil, ErrNoRecord
	}
	h.LastHealthy = time.Unix(unix, 0)
	return h, nil
}

// Save writes the record with owner-only permissions. Readers treat torn
// or partial content as absence, so no rename dance is needed.
func Save(path string, h *Health) error {
	var b strings.Builder
	fmt.Fprintf(&b, "MODEL=%s\n", h.Model)
	fmt.Fprintf(&b, "INDEXER_VERSION=%s\n", h.IndexerVersion)
	fmt.Fprintf(&b, "CONFIG_HASH=%s\n", h.ConfigHash)
	fmt.Fprintf(&b, "DAEMON_PID=%d\n", h.DaemonPID)
	fmt.Fprintf(&b, "LAST_HEALTHY=%d\n", h.LastHealthy.Unix())
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("cannot write health record %s: %w", path, err)
	}
	return nil
}

// Remove deletes the record. Missing is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove health record %s: %w", path, err)
	}
	return nil
}

// MigrateLegacy consumes the pre-record single-line model stamp. It returns
// the stored model name and removes the file, so the legacy record is
// consulted exactly once.
func MigrateLegacy(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	_ = os.Remove(path)
	model := strings.TrimSpace(string(data))
	if model == "" {
		return "", false
	}
	return model, true
}
