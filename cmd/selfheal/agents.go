package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bazelment/selfheal/internal/agentmanager"
)

var agentsCount int

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Demonstrate the agent manager by running a batch of simulated fix agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := agentmanager.New()

		var ids []agentmanager.AgentID
		for i := 0; i < agentsCount; i++ {
			i := i
			id := mgr.SpawnWithProgress(
				fmt.Sprintf("fix-agent-%d", i),
				"simulated fix attempt",
				func(ctx context.Context, reporter agentmanager.ProgressReporter) (string, error) {
					for pct := uint8(25); pct <= 100; pct += 25 {
						select {
						case <-ctx.Done():
							return "", ctx.Err()
						case <-time.After(50 * time.Millisecond):
						}
						reporter.Report(pct)
					}
					return fmt.Sprintf("agent %d completed", i), nil
				},
			)
			ids = append(ids, id)
		}

		for mgr.ActiveCount() > 0 {
			mgr.ProcessProgressUpdates()
			for _, status := range mgr.GetAllStatuses() {
				if verbose {
					fmt.Printf("[%d] %-16s %3d%%  %s\n", status.ID, status.Name, status.Progress, status.State)
				}
			}
			time.Sleep(20 * time.Millisecond)
		}

		results, err := mgr.WaitAllParallel(cmd.Context(), ids)
		if err != nil {
			return err
		}

		fmt.Printf("\n=== Agent Results ===\n")
		for i, r := range results {
			fmt.Printf("  [%d] %s\n", ids[i], r)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().IntVar(&agentsCount, "count", 3, "Number of simulated agents to run")
}
