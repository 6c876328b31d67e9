package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/optimusx/nl2sql/internal/models"
	"github.com/optimusx/nl2sql/internal/nl2sql"
	"github.com/optimusx/nl2sql/internal/server"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type askOptions struct {
	format string
	dryRun bool
}

func newAskCommand() *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one question and print the result",
		Example: `  nl2sql ask List all store names
  nl2sql ask --format table "Which sort facility has the highest daily_max_capacity?"
  nl2sql ask --dry-run How many distribution centers are there`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "table" {
				return fmt.Errorf("unknown format %q (want json or table)", opts.format)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			question := strings.Join(args, " ")
			pipeline := server.NewPipeline(cfg, server.NewCompleter(cfg), server.NewExecutor(cfg))
			out := cmd.OutOrStdout()

			if opts.dryRun {
				raw, sql := pipeline.Translate(cmd.Context(), question)
				return writeJSON(out, models.TranslationResponse{Status: "translated", SQL: sql, RawCompletion: raw})
			}

			res := pipeline.Answer(cmd.Context(), question)
			if opts.format == "table" {
				return renderTable(out, res)
			}
			return writeJSON(out, res)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format: json or table")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print the generated SQL without running it")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable prints rows in result-set column order
func renderTable(w io.Writer, res nl2sql.ExecutionResult) error {
	pterm.Fprintln(w, pterm.Gray(res.SQL))
	if !res.OK() {
		pterm.Fprintln(w, pterm.Red("error: "+res.ErrorMessage))
		return nil
	}
	if len(res.Results) == 0 {
		pterm.Fprintln(w, "(no rows)")
		return nil
	}

	data := pterm.TableData{res.Columns}
	for _, row := range res.Results {
		line := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			if v := row[col]; v != nil {
				line[i] = fmt.Sprint(v)
			} else {
				line[i] = "NULL"
			}
		}
		data = append(data, line)
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithWriter(w).WithData(data).Render()
}
