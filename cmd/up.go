package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/lifecycle"
	"github.com/kodflow/indexwatch/internal/logging"
	"github.com/kodflow/indexwatch/internal/proc"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run one-shot foreground initialization",
	Long: `Resolve the inference backend, sync the instance configuration,
compare the current fingerprint (model, indexer version, config hash)
against the health record, rebuild the index if it can no longer be
trusted, and start the indexer daemon.

Every recognized degraded outcome (backend unreachable, model not pulled
yet, missing binary) is reported and left for the watchdog to retry; none
of them fail the surrounding container startup.`,
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(_ *cobra.Command, _ []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}
	if err := s.EnsureDirs(); err != nil {
		return err
	}

	_, release, err := acquireUpLock(s)
	if err != nil {
		return err
	}
	defer release()

	log, err := logging.NewFileLogger(s.WatchdogLogPath(), s.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	runner := &lifecycle.Runner{Settings: s, Lookup: proc.TableLookup, Log: log}
	res := runner.Initialize(cmdContext())

	printSection("Initialization")
	printResult(s, res)
	return nil
}

// acquireUpLock serializes concurrent `indexwatch up` invocations.
func acquireUpLock(s *config.Settings) (*flock.Flock, func(), error) {
	l := flock.New(s.UpLockPath())
	deadline := time.Now().Add(s.LockTimeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, func() {}, fmt.Errorf("cannot acquire init lock: %w", err)
		}
		if locked {
			return l, func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return nil, func() {}, fmt.Errorf("another initialization is in progress (lock: %s)", s.UpLockPath())
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// printResult renders an initialization result with the icon helpers.
func printResult(s *config.Settings, res lifecycle.Result) {
	if res.Invalidated {
		reasons := make([]string, len(res.Reasons))
		for i, r := range res.Reasons {
			reasons[i] = string(r)
		}
		printInfo(fmt.Sprintf("index invalidated (%s)", strings.Join(reasons, ", ")))
	}

	switch res.Outcome {
	case lifecycle.Started:
		printOK(fmt.Sprintf("backend %s", res.Endpoint))
		printOK(fmt.Sprintf("daemon running (pid %d, model %s)", res.PID, res.Fingerprint.Model))
	case lifecycle.DeferredBackend:
		printSkip("backend unreachable — initialization deferred to the watchdog")
	case lifecycle.DeferredModel:
		printSkip(fmt.Sprintf("model not available on %s yet — initialization deferred", res.Endpoint))
	case lifecycle.Degraded:
		printWarn(fmt.Sprintf("environment fault, daemon start skipped: %v", res.Err))
	case lifecycle.StartFailed:
		printWarn(fmt.Sprintf("daemon did not start: %v", res.Err))
		printInfo(fmt.Sprintf("daemon log: %s", s.DaemonLogPath()))
	}
}
