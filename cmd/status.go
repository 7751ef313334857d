package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/endpoint"
	"github.com/kodflow/indexwatch/internal/fingerprint"
	"github.com/kodflow/indexwatch/internal/indexstore"
	"github.com/kodflow/indexwatch/internal/proc"
	"github.com/kodflow/indexwatch/internal/record"
	"github.com/kodflow/indexwatch/internal/supervisor"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report backend, fingerprint, daemon and index state",
	Long:  `Read-only report. Never writes any state, never restarts anything.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}
	ctx := cmdContext()

	printSection("Backend")
	resolver := &endpoint.Resolver{Override: s.Endpoint, Default: s.DefaultEndpoint, Timeout: s.ProbeTimeout}
	addr, err := resolver.Resolve(ctx)
	if err != nil {
		printSkip("no reachable inference backend")
	} else {
		printOK(fmt.Sprintf("reachable at %s", addr))
	}

	printSection("Fingerprint")
	current, fpErr := fingerprint.Compute(s)
	if fpErr != nil {
		printWarn(fmt.Sprintf("cannot compute fingerprint: %v", fpErr))
	} else {
		printInfo(fmt.Sprintf("model:           %s", current.Model))
		printInfo(fmt.Sprintf("indexer version: %s", current.IndexerVersion))
		printInfo(fmt.Sprintf("config hash:     %.12s…", current.ConfigHash))
	}

	printSection("Health Record")
	stored, recErr := record.Load(s.RecordPath())
	switch {
	case recErr != nil:
		printMiss(fmt.Sprintf("no usable record at %s", s.RecordPath()))
	case fpErr == nil:
		d := fingerprint.Decide(stored, current, indexstore.ArtifactsExist(s))
		if d.Invalidate {
			reasons := make([]string, len(d.Reasons))
			for i, r := range d.Reasons {
				reasons[i] = string(r)
			}
			printWarn(fmt.Sprintf("stale — next up/watch cycle rebuilds (%v)", reasons))
		} else {
			printOK("matches current fingerprint")
		}
		printInfo(fmt.Sprintf("last healthy: %s", stored.LastHealthy.Format(time.RFC3339)))
	default:
		printInfo(fmt.Sprintf("recorded model %s (pid %d)", stored.Model, stored.DaemonPID))
	}

	printSection("Daemon")
	if pid, ok := proc.TableLookup(supervisor.DaemonSignature(s)); ok {
		printOK(fmt.Sprintf("running (pid %d)", pid))
	} else {
		printMiss(fmt.Sprintf("not running (%s %s)", s.IndexerBinary, supervisor.WatchSubcommand))
	}

	printSection("Index")
	if indexstore.ArtifactsExist(s) {
		printOK(fmt.Sprintf("artifacts present in %s", s.IndexDir()))
	} else {
		printMiss("no artifacts")
	}
	return nil
}
