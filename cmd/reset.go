package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/indexstore"
	"github.com/kodflow/indexwatch/internal/proc"
	"github.com/kodflow/indexwatch/internal/record"
	"github.com/kodflow/indexwatch/internal/supervisor"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Stop the daemon and discard the index and health record",
	Long: `Manual invalidation: stop the indexer daemon (SIGTERM, then SIGKILL
after the grace period), delete the index artifacts and advisory lock, and
remove the health record. The next 'up' or watchdog cycle rebuilds from
scratch. Safe to run when nothing exists.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(_ *cobra.Command, _ []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}

	printSection("Reset")

	sig := supervisor.DaemonSignature(s)
	if pid, ok := proc.TableLookup(sig); ok {
		printInfo(fmt.Sprintf("stopping daemon (pid %d)", pid))
	} else {
		printMiss("daemon not running")
	}
	if err := indexstore.Invalidate(s, proc.TableLookup, sig); err != nil {
		return err
	}
	printOK("index artifacts removed")

	if err := record.Remove(s.RecordPath()); err != nil {
		return err
	}
	if err := os.Remove(s.LegacyRecordPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove legacy stamp %s: %w", s.LegacyRecordPath(), err)
	}
	printOK("health record removed")
	return nil
}
