// Package cli implements the corpusdex command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/app"
	"github.com/kailas-cloud/corpusdex/internal/config"
	logpkg "github.com/kailas-cloud/corpusdex/internal/logger"
)

var (
	cfgFile  string
	envName  string
	logLevel string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "corpusdex",
	Short: "Embedding-backed document corpus with similarity search",
	Long: `corpusdex stores text documents with 1536-dimension embeddings in a
document store and answers natural-language similarity queries.

Example usage:
  corpusdex ingest "The quick brown fox"     # Store a document
  corpusdex search "fox" --limit 3            # Similarity search
  corpusdex verify                            # Check embedding dimensions
  corpusdex serve                             # Run the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if envName == "" {
			envName = config.GetEnv()
		}
		if cfgFile != "" {
			cfg, err = config.LoadFile(cfgFile)
		} else {
			cfg, err = config.Load(envName)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logpkg.NewLogger(envName, level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment name (default is $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// openApp wires the services from the loaded configuration.
func openApp(cmd *cobra.Command) (*app.App, error) {
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	return a, nil
}

// errItemsFailed makes the command exit 1 after printing a partial report.
type errItemsFailed struct{ failed, total int }

func (e errItemsFailed) Error() string {
	return fmt.Sprintf("%d of %d items failed", e.failed, e.total)
}
