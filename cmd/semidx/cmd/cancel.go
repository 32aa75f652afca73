package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
)

func newCancelCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "cancel [operation-id]",
		Short: "Cancel background operations",
		Long: `Cancel a background operation by its full or short id.

Without an id the most recently started operation is cancelled.
With --all every tracked operation is cancelled.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *client.Client, _ *config.Config) error {
				var msg string
				var err error
				switch {
				case all:
					msg = c.CancelAll()
				case len(args) == 1:
					msg, err = c.Cancel(args[0])
				default:
					msg, err = c.CancelMostRecent()
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Cancel all active operations")

	return cmd
}
