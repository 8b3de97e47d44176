package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/evidra/internal/pipeline"
)

var (
	outJSON      string
	outMD        string
	exportFormat string
	queryTimeout time.Duration
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer one question with evidence",
	Long: `Query classifies a natural-language question, gathers evidence from the
matching provider and prints a summary.

Example:
  evidra query "which PRs were merged without approval in acme/api"
  evidra query "show PR 42" --json pr.json --md pr.md
  evidra query "open tickets in project OPS" --export xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	queryCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	queryCmd.Flags().StringVar(&exportFormat, "export", "", "export evidence records (csv or xlsx)")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", 2*time.Minute, "overall query timeout")
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	p := pipeline.NewPipeline(a.engine, pipeline.NewRenderer(cmd.OutOrStdout()), a.exporter(), a.logger)

	if verbose {
		fmt.Fprintf(os.Stderr, "Query: %s\n\n", question)
	}

	result, err := p.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return p.Deliver(ctx, result, pipeline.Output{
		JSONPath:     outJSON,
		MarkdownPath: outMD,
		ExportFormat: exportFormat,
		Verbose:      verbose,
	})
}
