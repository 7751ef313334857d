package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "indexwatch",
	Short:        "indexwatch — lifecycle manager for the semantic code-index daemon",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `indexwatch keeps the background code-indexing daemon alive inside a
development container, invalidates its on-disk index when the embedding
model, the indexer binary, or its configuration changes, and recovers
automatically when the inference backend comes up after container start.

Typical container startup:

  indexwatch up            # one-shot foreground initialization
  indexwatch watch &       # watchdog loop for the container's lifetime`,
}

// cmdContext returns a context cancelled on SIGINT/SIGTERM. Termination at
// container shutdown is the only cancellation path; every operation is safe
// to interrupt and re-run from scratch on the next start.
func cmdContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
