package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

var evaluateFlags struct {
	input  string
	output string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate the saved model against a labeled set",
	Long: "Score the saved sentiment model against the built-in evaluation set, or against a\n" +
		`JSON file of [{"text": "...", "expected": "positive"}] examples given with --input.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVarP(&evaluateFlags.input, "input", "i", "", "JSON file of labeled examples")
	f.StringVarP(&evaluateFlags.output, "output", "o", outputTable, "output format: table or json")
}

func loadExamples(path string) ([]domain.EvaluationExample, error) {
	if path == "" {
		return sentiment.DefaultEvaluationSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read examples: %w", err)
	}
	var examples []domain.EvaluationExample
	if unmarshalErr := json.Unmarshal(data, &examples); unmarshalErr != nil {
		return nil, fmt.Errorf("parse examples: %w", unmarshalErr)
	}
	return examples, nil
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(evaluateFlags.output); err != nil {
		return err
	}
	examples, err := loadExamples(evaluateFlags.input)
	if err != nil {
		return err
	}

	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Service.Sentiment().Evaluate(examples)
	if err != nil {
		return fmt.Errorf("evaluate %s: %w", app.Config.Sentiment.ModelPath, err)
	}

	out := cmd.OutOrStdout()
	if evaluateFlags.output == outputJSON {
		return printJSON(out, result)
	}

	fmt.Fprintf(out, "Accuracy: %.3f (%d/%d)\n", result.Accuracy, result.Correct, result.Total)
	fmt.Fprintf(out, "Macro F1: %.3f\n", result.MacroF1)
	for _, l := range domain.Labels {
		fmt.Fprintf(out, "  F1 %-9s %.3f\n", l, result.PerClass[l.String()])
	}
	if len(result.Misses) == 0 {
		return nil
	}

	t := newTable(out, table.Row{"Text", "Expected", "Predicted", "Confidence"})
	for _, m := range result.Misses {
		t.AppendRow(table.Row{truncate(m.Text, 50), labelName(m.Expected), labelName(m.Predicted), fmt.Sprintf("%.3f", m.Confidence)})
	}
	t.Render()
	return nil
}
