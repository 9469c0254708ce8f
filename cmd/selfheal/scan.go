package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazelment/selfheal/internal/diagnostics"
)

var scanInputPath string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Parse compiler output into structured diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := readScanInput()
		if err != nil {
			return err
		}

		report := diagnostics.Parse(output)
		printScanReport(report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanInputPath, "input", "", "File containing raw compiler output (default: stdin)")
}

func readScanInput() (string, error) {
	if scanInputPath == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(scanInputPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", scanInputPath, err)
	}
	return string(data), nil
}

func printScanReport(r *diagnostics.Report) {
	fmt.Printf("\n=== Scan Results ===\n")
	fmt.Printf("Compiler:   %s\n", r.Compiler)
	fmt.Printf("Errors:     %d\n", r.ErrorCount)
	fmt.Printf("Warnings:   %d\n", r.WarningCount)

	byFile := r.ByFile()
	if len(byFile) > 0 {
		fmt.Printf("\nBy file:\n")
		for file, diags := range byFile {
			fmt.Printf("  %s (%d)\n", file, len(diags))
		}
	}

	errs := r.Errors()
	for i := range errs {
		d := &errs[i]
		fmt.Printf("\n[%s] %s\n", d.Severity, d.Message)
		if d.HasLocation() {
			fmt.Printf("  at %s\n", d.Location.FormatShort())
		}

		if info, ok := diagnostics.ExtractFixInfo(d); ok {
			fmt.Printf("  suggested fix: %s (target: %s %s)\n", info.FixType, info.TargetFile, info.TargetItem)
		}
	}
}
