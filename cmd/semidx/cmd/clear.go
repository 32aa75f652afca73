package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
)

func newClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all knowledge contexts",
		Long: `Cancel running operations and delete every context, including
persisted data on disk. This cannot be undone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return fmt.Errorf("clear deletes all indexed data; re-run with --force to confirm")
			}

			return withClient(cmd, func(c *client.Client, _ *config.Config) error {
				count, err := c.Clear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d contexts\n", count)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deletion of all contexts")

	return cmd
}
