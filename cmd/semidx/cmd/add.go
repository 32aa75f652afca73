package cmd

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
	"github.com/semidx/semidx/internal/embed"
	"github.com/semidx/semidx/internal/output"
)

// errAddFailed signals a failed indexing run after the failure message
// has already been printed.
var errAddFailed = errors.New("indexing failed")

// addOptions holds CLI flags for add.
type addOptions struct {
	name        string
	description string
	fast        bool
	persist     bool
	include     []string
	exclude     []string
}

func newAddCmd() *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add <directory>",
		Short: "Index a directory into a new knowledge context",
		Long: `Index a directory into a new searchable context.

By default files are chunked and embedded for semantic search. With
--fast only a BM25 keyword index is built, which needs no embedding
model and finishes much sooner.

Examples:
  semidx add ./docs
  semidx add ./src --fast --name backend
  semidx add ~/notes --persist --include "**/*.md"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Context name (default: directory name)")
	cmd.Flags().StringVar(&opts.description, "description", "", "Context description")
	cmd.Flags().BoolVar(&opts.fast, "fast", false, "Build a BM25 keyword index only (no embeddings)")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Keep the context across restarts")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "Include glob pattern (repeatable, e.g. \"**/*.go\")")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "Exclude glob pattern (repeatable)")

	return cmd
}

func runAdd(cmd *cobra.Command, dir string, opts addOptions) error {
	out := output.New(cmd.OutOrStdout())

	embeddingType := embed.EmbeddingTypeBest
	if opts.fast {
		embeddingType = embed.EmbeddingTypeFast
	}

	return withClient(cmd, func(c *client.Client, _ *config.Config) error {
		handle, err := c.AddDirectory(dir, client.AddOptions{
			Name:          opts.name,
			Description:   opts.description,
			EmbeddingType: embeddingType,
			Include:       opts.include,
			Exclude:       opts.exclude,
			Persistent:    opts.persist,
		})
		if err != nil {
			return err
		}

		out.Statusf("📇", "Indexing %s (operation %s)", dir, handle.ShortID())

		done := make(chan struct{})
		go func() {
			c.WaitForOperations()
			close(done)
		}()

		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				out.ProgressDone()
				info := handle.Progress.Snapshot()
				msg := strings.ToLower(info.Message)
				switch {
				case strings.Contains(msg, "failed"):
					out.Error(info.Message)
					return errAddFailed
				case strings.Contains(msg, "cancelled"):
					out.Warning(info.Message)
					return nil
				default:
					out.Success(info.Message)
					return nil
				}
			case <-ticker.C:
				if info, ok := handle.Progress.TrySnapshot(); ok && info.Total > 0 {
					out.Progress(int(info.Current), int(info.Total), info.Message)
				}
			}
		}
	})
}
