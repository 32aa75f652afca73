// Package cmd provides the CLI commands for semidx.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/semidx/semidx/internal/client"
	"github.com/semidx/semidx/internal/config"
	"github.com/semidx/semidx/internal/logging"
	"github.com/semidx/semidx/pkg/version"
)

var (
	debugMode      bool
	baseDirFlag    string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the semidx CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semidx",
		Short: "Local semantic and keyword search over directories",
		Long: `Semidx indexes directories into searchable knowledge contexts.

Each context holds either a BM25 keyword index (--fast) or a semantic
vector index built from local embeddings. Indexing runs in the
background with progress reporting and cancellation.

Everything stays on your machine; no data leaves it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("semidx version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.semidx/logs/")
	cmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", "", "Override the knowledge base directory")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRun = stopLogging

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newCancelCmd())
	cmd.AddCommand(newRemoveCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging sets up file logging, at debug level when requested.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		// Logging failure must not block the command itself.
		return nil
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// loadConfig loads configuration for the current directory, applying
// the --base-dir override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if baseDirFlag != "" {
		cfg.Index.BaseDir = baseDirFlag
	}
	return cfg, nil
}

// withClient builds a client for the command's lifetime and ensures it
// is closed afterward.
func withClient(cmd *cobra.Command, fn func(c *client.Client, cfg *config.Config) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	c, err := client.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			slog.Warn("client close failed", slog.String("error", closeErr.Error()))
		}
	}()

	return fn(c, cfg)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
