package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/kodflow/indexwatch/internal/config"
	"github.com/kodflow/indexwatch/internal/endpoint"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that the indexer binary, configuration template, state
directory and inference backend are in working order. Run this when
something seems wrong, or before filing a bug report.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}
	ctx := cmdContext()
	issues := 0

	printSection("Doctor")

	if path, err := exec.LookPath(s.IndexerBinary); err != nil {
		printErr(fmt.Sprintf("indexer binary %q not found on PATH", s.IndexerBinary))
		issues++
	} else {
		printOK(fmt.Sprintf("indexer binary: %s", path))
	}

	if _, err := os.Stat(s.TemplatePath()); err != nil {
		printWarn(fmt.Sprintf("template missing at %s (generator fallback will be used)", s.TemplatePath()))
	} else {
		printOK(fmt.Sprintf("template: %s", s.TemplatePath()))
	}

	if err := s.EnsureDirs(); err != nil {
		printErr(fmt.Sprintf("state directory not writable: %v", err))
		issues++
	} else {
		printOK(fmt.Sprintf("state directory: %s", s.Home))
	}

	resolver := &endpoint.Resolver{Override: s.Endpoint, Default: s.DefaultEndpoint, Timeout: s.ProbeTimeout}
	if addr, err := resolver.Resolve(ctx); err != nil {
		printWarn("no reachable inference backend (initialization will be deferred)")
	} else {
		printOK(fmt.Sprintf("backend reachable at %s", addr))
		if inst, err := config.LoadInstance(s.ConfigPath()); err == nil && inst.Embedding.Model != "" {
			models, err := endpoint.Models(ctx, addr, s.ProbeTimeout)
			switch {
			case err != nil:
				printWarn(fmt.Sprintf("cannot list models: %v", err))
			case endpoint.HasModel(models, inst.Embedding.Model):
				printOK(fmt.Sprintf("model %s available", inst.Embedding.Model))
			default:
				printWarn(fmt.Sprintf("model %s not pulled yet", inst.Embedding.Model))
			}
		}
	}

	if issues == 0 {
		fmt.Println("\n  no blocking issues found")
	} else {
		fmt.Printf("\n  %d blocking issue(s) found\n", issues)
	}
	return nil
}
