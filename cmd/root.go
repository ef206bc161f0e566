// Package cmd implements the comment-analyzer command-line interface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/bootstrap"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	debug      bool
}

var rootCmd = &cobra.Command{
	Use:   "comment-analyzer",
	Short: "Sentiment and bot-suspicion analysis for YouTube comments",
	Long: "comment-analyzer labels comments with weak-supervision rules, trains a calibrated\n" +
		"sentiment classifier on the silver labels, and scores comments for bot-like behaviour.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "config file (default $CONFIG_PATH or ./config.yml)")
	pf.BoolVar(&rootFlags.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(labelCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(botsCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(functionsCmd)
	rootCmd.Version = version
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newApp builds the application for a command. withDB connects to the
// configured database unless it is disabled.
func newApp(cmd *cobra.Command, withDB bool) (*bootstrap.App, error) {
	return bootstrap.New(cmd.Context(), bootstrap.Options{
		ConfigPath: rootFlags.configPath,
		Database:   withDB,
		Debug:      rootFlags.debug,
	})
}
