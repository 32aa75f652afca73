package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
	"github.com/semidx/semidx/internal/knowledge"
	"github.com/semidx/semidx/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit     int
	contextID string
	format    string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed contexts",
		Long: `Search across all knowledge contexts, or one context with --context.

Results are grouped per context, with the best-matching context first.

Examples:
  semidx search "authentication middleware"
  semidx search "error handling" --limit 5
  semidx search "setup" --context backend --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum results per context (default from config)")
	cmd.Flags().StringVarP(&opts.contextID, "context", "c", "", "Search a single context by id or name")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	return withClient(cmd, func(c *client.Client, _ *config.Config) error {
		ctx := cmd.Context()

		var all []knowledge.ContextResults
		if opts.contextID != "" {
			id := resolveContextID(c, opts.contextID)
			results, err := c.SearchContext(ctx, id, query, opts.limit)
			if err != nil {
				return err
			}
			if len(results) > 0 {
				all = []knowledge.ContextResults{{ContextID: id, Results: results}}
			}
		} else {
			var err error
			all, err = c.SearchAll(ctx, query, opts.limit)
			if err != nil {
				return err
			}
		}

		if opts.format == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(all)
		}
		return printSearchResults(cmd, c, query, all)
	})
}

// resolveContextID maps a name to its context id, passing ids through.
func resolveContextID(c *client.Client, idOrName string) string {
	for _, d := range c.Contexts() {
		if d.Name == idOrName {
			return d.ID
		}
	}
	return idOrName
}

func printSearchResults(cmd *cobra.Command, c *client.Client, query string, all []knowledge.ContextResults) error {
	out := output.New(cmd.OutOrStdout())

	if len(all) == 0 {
		out.Statusf("🔍", "No results for %q", query)
		return nil
	}

	names := make(map[string]string)
	for _, d := range c.Contexts() {
		names[d.ID] = d.Name
	}

	for _, cr := range all {
		name := names[cr.ContextID]
		if name == "" {
			name = cr.ContextID
		}
		out.Statusf("📂", "%s (%d results)", name, len(cr.Results))

		for _, r := range cr.Results {
			path, _ := r.Point.Payload["path"].(string)
			fmt.Fprintf(cmd.OutOrStdout(), "  %.3f  %s\n", r.Score, path)
			if text, ok := r.Point.Payload["text"].(string); ok {
				out.Code(snippet(text, 200))
			}
		}
		out.Newline()
	}
	return nil
}

// snippet trims text to a single line of at most max runes.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
