package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

var trainFlags struct {
	input  string
	fromDB bool
	limit  int
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and save the sentiment model",
	Long: "Build a silver-labeled corpus with the labeling functions, train the calibrated\n" +
		"classifier and save it to sentiment.model_path. With --from-db the corpus comes from\n" +
		"stored comments and the run is recorded in ml_models.",
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVarP(&trainFlags.input, "input", "i", "", "file with one comment per line (- for stdin)")
	f.BoolVar(&trainFlags.fromDB, "from-db", false, "train on comment texts from the database")
	f.IntVar(&trainFlags.limit, "limit", 0, "maximum comments to load with --from-db (0 uses sentiment.training_limit)")
	trainCmd.MarkFlagsMutuallyExclusive("input", "from-db")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	if trainFlags.input == "" && !trainFlags.fromDB {
		return errors.New("one of --input or --from-db is required")
	}

	var texts []string
	if trainFlags.input != "" {
		lines, err := readLines(trainFlags.input)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("input %s has no texts", trainFlags.input)
		}
		texts = lines
	}

	app, err := newApp(cmd, trainFlags.fromDB)
	if err != nil {
		return err
	}
	defer app.Close()

	if trainFlags.limit > 0 {
		app.Config.Sentiment.TrainingLimit = trainFlags.limit
	}

	report, err := app.TrainingJob().Run(cmd.Context(), texts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:           %s\n", report.RunID)
	fmt.Fprintf(out, "Training size: %d\n", report.TrainingSize)
	fmt.Fprintf(out, "Macro F1:      %.4f\n", report.MacroF1)
	fmt.Fprintf(out, "Calibrated:    %t\n", report.Calibrated)
	fmt.Fprintf(out, "Labels:\n")
	for _, l := range domain.Labels {
		fmt.Fprintf(out, "  %-9s %d\n", l, report.LabelDistribution[l])
	}
	fmt.Fprintf(out, "Model saved to %s\n", app.Config.Sentiment.ModelPath)
	return nil
}
