// Package cmd defines the CLI commands for the notepress executable.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipfeed/notepress/internal/config"
	"github.com/clipfeed/notepress/internal/logging"
)

var (
	cfgFile string

	cfg    config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notepress",
		Short: "Batch article-to-note processor",
		Long: `notepress turns batches of article links into reviewed-note drafts.
For each unseen URL it extracts the article text through a tiered fetch
chain, asks an AI model for a bullet summary and tag suggestions, and
writes a front-matter note into the configured vault.`,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./notepress.yaml via environment)")

	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

// ExecuteContext runs the root command under the given context.
func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
