package cmd

import (
	"fmt"
	"os"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions to ensure consistent icon usage and
// indentation throughout indexwatch's CLI output.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / deferred
//   -  not found / missing
//   ~  neutral info / state change

// printSection prints a top-level section header, e.g. "=== Backend ===".
func printSection(title string) {
	fmt.Printf("\n=== %s ===\n", title)
}

// printOK prints a success line.
func printOK(msg string) {
	fmt.Printf("  ✓  %s\n", msg)
}

// printErr prints an error line to stderr.
func printErr(msg string) {
	fmt.Fprintf(os.Stderr, "  ✗  %s\n", msg)
}

// printWarn prints a warning line.
func printWarn(msg string) {
	fmt.Printf("  ⚠  %s\n", msg)
}

// printSkip prints a skipped / deferred line.
func printSkip(msg string) {
	fmt.Printf("  ○  %s\n", msg)
}

// printMiss prints a not-found / missing line.
func printMiss(msg string) {
	fmt.Printf("  -  %s\n", msg)
}

// printInfo prints a neutral informational / state-change line.
func printInfo(msg string) {
	fmt.Printf("  ~  %s\n", msg)
}
