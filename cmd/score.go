package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
)

var scoreFlags struct {
	ids []string
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored comments and write predictions to comment_sentiment",
	Long: "Page through stored comments, score them on the worker pool and upsert the\n" +
		"predictions into comment_sentiment under the configured write rate limit.",
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringSliceVar(&scoreFlags.ids, "ids", nil, "score only these comment ids (comma separated)")
}

func runScore(cmd *cobra.Command, _ []string) error {
	app, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer app.Close()

	job, err := app.SentimentScoringJob()
	if err != nil {
		return err
	}

	selected, err := app.Service.SelectSentiment()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Scoring with %s (%s)\n", selected.Name(), selected.ModelVersion())

	var summary processor.ScoringSummary
	if len(scoreFlags.ids) > 0 {
		summary, err = job.RunIDs(cmd.Context(), scoreFlags.ids)
	} else {
		summary, err = job.Run(cmd.Context())
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scored:  %d\n", summary.Scored)
	fmt.Fprintf(out, "Failed:  %d\n", summary.Failed)
	fmt.Fprintf(out, "Written: %d\n", summary.Written)
	return err
}
