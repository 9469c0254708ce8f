// Command selfheal is a thin demonstration harness around the self-healing
// core: it wires a real tool executor, with no LLM client, for local
// dry-runs, and prints the resulting diagnostics, fix attempts, and agent
// status summaries. It has no bearing on the core's semantics.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	repoRoot string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "selfheal",
	Short: "Self-healing coding agent core demo harness",
	Long: `selfheal drives the diagnostic-parsing, error-categorization,
tool-execution, and fix-agent subsystems against a project directory,
for local experimentation and as a worked example of wiring the core.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoRoot, "repo-root", "", "Project directory (defaults to the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveRepoRoot() (string, error) {
	if repoRoot != "" {
		return repoRoot, nil
	}
	return os.Getwd()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
