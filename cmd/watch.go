package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/logging"
	"github.com/kodflow/indexwatch/internal/proc"
	"github.com/kodflow/indexwatch/internal/watchdog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the watchdog loop until the container shuts down",
	Long: `Every cycle the watchdog re-derives truth from disk and the process
table. With no health record it retries full initialization (the backend may
have come up late); with a record it restarts the daemon if it died, but only
while the backend is still reachable.

Diagnostics go to the watchdog log, not stdout.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, _ []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}
	if err := s.EnsureDirs(); err != nil {
		return err
	}

	log, err := logging.NewFileLogger(s.WatchdogLogPath(), s.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	fmt.Printf("watchdog running (interval %s, log %s)\n", s.WatchInterval, s.WatchdogLogPath())
	loop := &watchdog.Loop{Settings: s, Lookup: proc.TableLookup, Log: log}
	loop.Run(cmdContext())
	return nil
}
