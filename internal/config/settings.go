package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix for all indexwatch environment variables,
// e.g. INDEXWATCH_ENDPOINT, INDEXWATCH_WATCH_INTERVAL.
const envPrefix = "indexwatch"

// Settings is the environment-driven configuration of indexwatch itself.
// It is distinct from the instance configuration (config.yaml), which
// belongs to the supervised indexer.
type Settings struct {
	// Home is the state directory. Defaults to ~/.cindex.
	Home string `envconfig:"HOME_DIR"`

	// Endpoint is an optional host:port override for the inference
	// backend. It is probed first but is not a hard requirement.
	Endpoint string `envconfig:"ENDPOINT"`

	// DefaultEndpoint is the fallback backend address.
	DefaultEndpoint string `envconfig:"DEFAULT_ENDPOINT" default:"127.0.0.1:11434"`

	// IndexerBinary is the supervised indexer command name.
	IndexerBinary string `envconfig:"INDEXER_BINARY" default:"cindex"`

	ProbeTimeout  time.Duration `envconfig:"PROBE_TIMEOUT" default:"2s"`
	StartTimeout  time.Duration `envconfig:"START_TIMEOUT" default:"5s"`
	StopTimeout   time.Duration `envconfig:"STOP_TIMEOUT" default:"5s"`
	WatchInterval time.Duration `envconfig:"WATCH_INTERVAL" default:"30s"`
	GraceDelay    time.Duration `envconfig:"GRACE_DELAY" default:"10s"`
	LockTimeout   time.Duration `envconfig:"LOCK_TIMEOUT" default:"10s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadSettings resolves Settings from the environment, reading an optional
// dotenv file (~/.cindex/.env) first. Real environment variables win over
// the dotenv file.
func LoadSettings() (*Settings, error) {
	if home, err := defaultHome(); err == nil {
		// Ignore a missing dotenv file; it is optional.
		_ = godotenv.Load(filepath.Join(home, ".env"))
	}

	var s Settings
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("cannot process environment: %w", err)
	}
	if s.Home == "" {
		home, err := defaultHome()
		if err != nil {
			return nil, err
		}
		s.Home = home
	}
	return &s, nil
}

func defaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cindex"), nil
}

// ── State paths ───────────────────────────────────────────────────────────────
// All durable state lives under Home. Nothing below is cached in memory:
// every caller re-reads from these paths on every use.

// TemplatePath is the instance configuration template.
func (s *Settings) TemplatePath() string { return filepath.Join(s.Home, "config.template.yaml") }

// ConfigPath is the materialized instance configuration.
func (s *Settings) ConfigPath() string { return filepath.Join(s.Home, "config.yaml") }

// RecordPath is the health record file.
func (s *Settings) RecordPath() string { return filepath.Join(s.Home, "health.state") }

// LegacyRecordPath is the pre-record single-line model stamp.
func (s *Settings) LegacyRecordPath() string { return filepath.Join(s.Home, ".model") }

// IndexDir holds the index artifacts written by the supervised indexer.
func (s *Settings) IndexDir() string { return filepath.Join(s.Home, "index") }

// IndexLockPath is the indexer's advisory lock inside the index directory.
func (s *Settings) IndexLockPath() string { return filepath.Join(s.IndexDir(), ".lock") }

// DaemonLogPath receives the supervised indexer's stdout/stderr.
func (s *Settings) DaemonLogPath() string { return filepath.Join(s.Home, "logs", "cindex.log") }

// WatchdogLogPath receives watchdog diagnostics.
func (s *Settings) WatchdogLogPath() string { return filepath.Join(s.Home, "logs", "indexwatch.log") }

// UpLockPath guards against concurrent `indexwatch up` invocations.
func (s *Settings) UpLockPath() string { return filepath.Join(s.Home, "up.lock") }

// EnsureDirs creates the Home and logs directories if missing.
func (s *Settings) EnsureDirs() error {
	for _, dir := range []string{s.Home, filepath.Join(s.Home, "logs")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}
	return nil
}
