package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/botdetect"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/domain"
	"github.com/jonesrussell/north-cloud/comment-analyzer/internal/processor"
)

const defaultBotsTop = 20

var botsFlags struct {
	input  string
	days   int
	store  bool
	top    int
	output string
}

var botsCmd = &cobra.Command{
	Use:   "bots",
	Short: "Score comments for bot-like behaviour",
	Long: "Score comments from a CSV file (--input) or from the database (--days) and print the\n" +
		"risk summary. With --store the results replace the contents of comment_bot_analysis.",
	RunE: runBots,
}

func init() {
	f := botsCmd.Flags()
	f.StringVarP(&botsFlags.input, "input", "i", "", "CSV file with comment_id, video_id, comment_text, author_name, like_count, published_at")
	f.IntVar(&botsFlags.days, "days", 0, "score comments published in the last N days (0 uses processing.lookback_days)")
	f.BoolVar(&botsFlags.store, "store", false, "write results to comment_bot_analysis")
	f.IntVar(&botsFlags.top, "top", defaultBotsTop, "number of highest-scoring comments to print")
	f.StringVarP(&botsFlags.output, "output", "o", outputTable, "output format: table or json")
	botsCmd.MarkFlagsMutuallyExclusive("input", "days")
}

func readCommentsCSV(path string) ([]domain.Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return botdetect.ReadCSV(f)
}

func runBots(cmd *cobra.Command, _ []string) error {
	if err := validateOutput(botsFlags.output); err != nil {
		return err
	}

	var comments []domain.Comment
	if botsFlags.input != "" {
		loaded, err := readCommentsCSV(botsFlags.input)
		if err != nil {
			return err
		}
		comments = loaded
	}

	withDB := botsFlags.input == "" || botsFlags.store
	app, err := newApp(cmd, withDB)
	if err != nil {
		return err
	}
	defer app.Close()

	job := app.BotAnalysisJob()
	var result processor.BotAnalysisResult
	if comments != nil {
		result, err = job.Run(cmd.Context(), comments, botsFlags.store)
	} else {
		days := botsFlags.days
		if days <= 0 {
			days = app.Config.Processing.LookbackDays
		}
		result, err = job.RunRecent(cmd.Context(), days, botsFlags.store)
	}
	if err != nil {
		if errors.Is(err, processor.ErrNoStore) && botsFlags.input == "" {
			return fmt.Errorf("%w: --days reads from the database; use --input for a CSV file", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if botsFlags.output == outputJSON {
		return printJSON(out, result)
	}
	printBotSummary(cmd, result)
	return nil
}

func printBotSummary(cmd *cobra.Command, result processor.BotAnalysisResult) {
	out := cmd.OutOrStdout()
	levels := map[domain.RiskLevel]int{}
	for _, r := range result.Records {
		levels[r.BotRiskLevel]++
	}

	fmt.Fprintf(out, "Run:      %s\n", result.RunID)
	fmt.Fprintf(out, "Comments: %d\n", len(result.Records))
	for _, l := range []domain.RiskLevel{domain.RiskHigh, domain.RiskMedium, domain.RiskLow} {
		fmt.Fprintf(out, "  %-7s %d\n", l, levels[l])
	}
	if result.Stored {
		fmt.Fprintln(out, "Stored in comment_bot_analysis")
	}

	ranked := append([]domain.BotSuspicionRecord(nil), result.Records...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].BotScore > ranked[j].BotScore })
	if botsFlags.top < len(ranked) {
		ranked = ranked[:max(botsFlags.top, 0)]
	}
	if len(ranked) == 0 {
		return
	}

	t := newTable(out, table.Row{"Comment", "Author", "Score", "Risk", "Dupes L/G", "Burst", "Author rep", "Text"})
	for _, r := range ranked {
		t.AppendRow(table.Row{
			r.CommentID,
			truncate(r.AuthorName, 20),
			fmt.Sprintf("%.1f", r.BotScore),
			r.BotRiskLevel,
			fmt.Sprintf("%d/%d", r.DuplicateCountLocal, r.DuplicateCountGlobal),
			fmt.Sprintf("%.2f", r.BurstScore),
			fmt.Sprintf("%.2f", r.AuthorRepetitionScore),
			truncate(r.CommentText, 40),
		})
	}
	t.Render()
}
