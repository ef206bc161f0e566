package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: "Serve the comment-analyzer API with /health, /ready and /metrics until SIGINT or\n" +
		"SIGTERM. The database is used when configured and not disabled.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Serve(cmd.Context())
	},
}
