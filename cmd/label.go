package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
)

var labelFlags struct {
	input  string
	output string
}

var labelCmd = &cobra.Command{
	Use:   "label [text...]",
	Short: "Print weak labels for texts",
	Long: "Apply every labeling function to each text and print the resolved weak label.\n" +
		"Texts come from arguments or, with --input, one per line from a file (- for stdin).",
	RunE: runLabel,
}

func init() {
	f := labelCmd.Flags()
	f.StringVarP(&labelFlags.input, "input", "i", "", "file with one text per line (- for stdin)")
	f.StringVarP(&labelFlags.output, "output", "o", outputTable, "output format: table or json")
}

func collectTexts(args []string, input string) ([]string, error) {
	texts := append([]string(nil), args...)
	if input != "" {
		lines, err := readLines(input)
		if err != nil {
			return nil, err
		}
		texts = append(texts, lines...)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts given: pass them as arguments or with --input")
	}
	return texts, nil
}

func runLabel(cmd *cobra.Command, args []string) error {
	if err := validateOutput(labelFlags.output); err != nil {
		return err
	}
	texts, err := collectTexts(args, labelFlags.input)
	if err != nil {
		return err
	}

	app, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer app.Close()

	labels := app.Service.Label(texts)
	out := cmd.OutOrStdout()
	if labelFlags.output == outputJSON {
		return printJSON(out, labels)
	}

	t := newTable(out, table.Row{"Text", "Label", "Confidence", "Functions"})
	for _, wl := range labels {
		label := "-"
		if wl.FinalLabel != nil {
			label = labelName(*wl.FinalLabel)
		}
		names := make([]string, len(wl.Labels))
		for i, v := range wl.Labels {
			names[i] = v.FunctionName
		}
		t.AppendRow(table.Row{truncate(wl.Text, 60), label, fmt.Sprintf("%.2f", wl.Confidence), strings.Join(names, ", ")})
	}
	t.Render()
	return nil
}

func labelName(l domain.SentimentLabel) string {
	return strings.ToUpper(l.String())
}
