package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show knowledge base and operation status",
		Long: `Display context counts and the state of background operations:
  - Total, persistent, and volatile context counts
  - Per-operation progress, ETA, and waiting/cancelled state`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	return withClient(cmd, func(c *client.Client, _ *config.Config) error {
		status := c.Status()

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Contexts: %d total (%d persistent, %d volatile)\n",
			status.TotalContexts, status.PersistentContexts, status.VolatileContexts)
		fmt.Fprintf(out, "Operations: %d active, %d waiting (limit %d)\n",
			status.ActiveCount, status.WaitingCount, status.MaxConcurrent)

		for _, op := range status.Operations {
			state := "running"
			switch {
			case op.IsCancelled:
				state = "cancelled"
			case op.IsFailed:
				state = "failed"
			case op.IsWaiting:
				state = "waiting"
			}
			fmt.Fprintf(out, "  %s  %-14s %-9s %d/%d  %s\n",
				op.ShortID, op.OperationType, state, op.Current, op.Total, op.Message)
		}
		return nil
	})
}
