package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var predictFlags struct {
	input  string
	output string
}

var predictCmd = &cobra.Command{
	Use:   "predict [text...]",
	Short: "Print sentiment predictions for texts",
	Long: "Score texts with the best available sentiment analyzer. The trained model is used\n" +
		"when the configured model file exists; otherwise predictions come from the rules.",
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVarP(&predictFlags.input, "input", "i", "", "file with one text per line (- for stdin)")
	f.StringVarP(&predictFlags.output, "output", "o", outputTable, "output format: table or json")
}

func runPredict(cmd *cobra.Command, args []string) error {
	if err := validateOutput(predictFlags.output); err != nil {
		return err
	}
	texts, err := collectTexts(args, predictFlags.input)
	if err != nil {
		return err
	}

	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	scored, err := app.Service.PredictBatch(cmd.Context(), texts)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	out := cmd.OutOrStdout()
	if predictFlags.output == outputJSON {
		return printJSON(out, scored)
	}

	t := newTable(out, table.Row{"Text", "Label", "Confidence", "P(+)", "P(0)", "P(-)", "Analyzer"})
	for i, s := range scored {
		p := s.Probabilities
		t.AppendRow(table.Row{
			truncate(texts[i], 50),
			labelName(s.Label()),
			fmt.Sprintf("%.3f", s.Confidence),
			fmt.Sprintf("%.3f", p.Positive),
			fmt.Sprintf("%.3f", p.Neutral),
			fmt.Sprintf("%.3f", p.Negative),
			s.Analyzer,
		})
	}
	t.Render()
	return nil
}
