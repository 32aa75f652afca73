package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
)

func newListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge contexts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, jsonOutput bool) error {
	return withClient(cmd, func(c *client.Client, _ *config.Config) error {
		descs := c.Contexts()

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(descs)
		}

		if len(descs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts. Run 'semidx add <directory>' to create one.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tITEMS\tPERSISTENT\tSOURCE")
		for _, d := range descs {
			id := d.ID
			if len(id) > 8 {
				id = id[:8]
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%s\n",
				id, d.Name, d.EmbeddingType, d.ItemCount, d.Persistent, d.SourcePath)
		}
		return w.Flush()
	})
}
