package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
)

func newRemoveCmd() *cobra.Command {
	var byID, byName, byPath string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a knowledge context",
		Long: `Remove a context and its on-disk data.

Exactly one selector is required:
  semidx remove --name backend
  semidx remove --id 0b5c9e12
  semidx remove --path ./docs`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			selectors := 0
			for _, s := range []string{byID, byName, byPath} {
				if s != "" {
					selectors++
				}
			}
			if selectors != 1 {
				return fmt.Errorf("exactly one of --id, --name, or --path is required")
			}

			return withClient(cmd, func(c *client.Client, _ *config.Config) error {
				var err error
				switch {
				case byID != "":
					err = c.RemoveByID(byID)
				case byName != "":
					err = c.RemoveByName(byName)
				default:
					err = c.RemoveByPath(byPath)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Context removed")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&byID, "id", "", "Remove by context id")
	cmd.Flags().StringVar(&byName, "name", "", "Remove by context name")
	cmd.Flags().StringVar(&byPath, "path", "", "Remove by indexed source path")

	return cmd
}
