package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/bazelment/selfheal/internal/config"
	"github.com/bazelment/selfheal/internal/diagnostics"
	"github.com/bazelment/selfheal/internal/fixagent"
	"github.com/bazelment/selfheal/internal/toolerr"
	"github.com/bazelment/selfheal/internal/toolexec"
)

var (
	fixInputPath string
	fixBuildCmd  string
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Parse compiler output and run a fix agent against the first error, if it is auto-fixable",
	Long: `fix parses the given compiler output, categorizes the first error,
and drives a fix agent's attempt loop. The agent's apply step is a no-op
placeholder since this harness has no LLM wired in; verification re-runs
--build-cmd (if given) through a real ToolExecutor, so it demonstrates the
actual retry/backoff/categorization path end to end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRepoRoot()
		if err != nil {
			return err
		}

		cfg, err := config.Load(root)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		output, err := readScanInput()
		if err != nil {
			return err
		}

		report := diagnostics.Parse(output)
		errs := report.Errors()
		if len(errs) == 0 {
			fmt.Println("No errors found.")
			return nil
		}

		toolErr := buildToolError(&errs[0])
		result := toolexec.Result{ToolName: "build", Err: toolErr}

		agent, ok := fixagent.Spawn(result, cfg.FixAgentConfig())
		if !ok {
			fmt.Printf("Error is not auto-fixable: %s\n", errs[0].Message)
			return nil
		}

		agent.OnStatusChange(func(s fixagent.Status) {
			if verbose {
				fmt.Printf("[agent %d] %s\n", agent.ID(), s)
			}
		})

		executor := toolexec.New(cfg.ToolExecutorConfig())
		executor.RegisterTool("verify", shellVerifyTool())

		apply := func(fixType diagnostics.FixType, category toolerr.Category) ([]string, error) {
			fixTypeLabel, description, _ := agent.Diagnose()
			fmt.Printf("would apply %s fix (%s): %s\n", fixType, fixTypeLabel, description)
			return nil, nil
		}
		verify := func() error {
			if fixBuildCmd == "" {
				return nil
			}
			res := executor.Execute(cmd.Context(), "verify-1", "verify", fixBuildCmd)
			if res.Err == nil {
				return nil
			}
			return res.Err
		}

		fixResult := agent.AttemptFix(apply, verify)
		printFixResult(fixResult)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixCmd.Flags().StringVar(&fixInputPath, "input", "", "File containing raw compiler output (default: stdin)")
	fixCmd.Flags().StringVar(&fixBuildCmd, "build-cmd", "", "Shell command re-run after each apply to verify the fix (default: always succeeds)")
}

func buildToolError(d *diagnostics.Diagnostic) *toolerr.Error {
	return toolerr.New(d.Message)
}

func shellVerifyTool() toolexec.Func {
	return func(input any) (string, error) {
		command, _ := input.(string)
		if command == "" {
			return "", nil
		}
		out, err := exec.CommandContext(context.Background(), "sh", "-c", command).CombinedOutput()
		if err != nil {
			return string(out), fmt.Errorf("%s: %w", string(out), err)
		}
		return string(out), nil
	}
}

func printFixResult(r *fixagent.Result) {
	fmt.Printf("\n=== Fix Agent Result ===\n")
	fmt.Printf("Status:     %s\n", r.Status)
	fmt.Printf("Attempts:   %d\n", r.AttemptCount())
	fmt.Printf("Duration:   %s\n", r.TotalDuration)

	for _, a := range r.Attempts {
		outcome := "FAIL"
		if a.Success {
			outcome = "OK"
		}
		fmt.Printf("  [%s] attempt %d: %s\n", outcome, a.AttemptNumber, a.Description)
		if a.ErrorMessage != "" {
			fmt.Printf("         %s\n", a.ErrorMessage)
		}
	}

	if r.GeneratedTest != nil {
		fmt.Printf("\nGenerated regression test: %s\n", r.GeneratedTest.SuggestedPath)
	}
}
