package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/sentiment"
)

var functionsFlags struct {
	output string
}

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the labeling functions",
	RunE:  runFunctions,
}

func init() {
	functionsCmd.Flags().StringVarP(&functionsFlags.output, "output", "o", outputTable, "output format: table or json")
}

func runFunctions(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(functionsFlags.output); err != nil {
		return err
	}

	fns := sentiment.NewDefaultRegistry().Functions()
	out := cmd.OutOrStdout()
	if functionsFlags.output == outputJSON {
		return printJSON(out, fns)
	}

	t := newTable(out, table.Row{"Name", "Label", "Confidence", "Pattern"})
	for _, fn := range fns {
		t.AppendRow(table.Row{fn.Name, labelName(fn.Label), fmt.Sprintf("%.2f", fn.Confidence), truncate(fn.Pattern, 60)})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(fns)})
	t.Render()
	return nil
}
