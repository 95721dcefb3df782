package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
	"github.com/rustyeddy/tradelock/journal"
	"github.com/rustyeddy/tradelock/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the journal as CSV, Markdown or HTML",
	Long: `Write the journal to a file, or to stdout when no output is given.

Formats:
  csv  - every trade, one row each
  md   - the full report (rendered in the terminal when writing to stdout)
  html - the full report as a standalone page

Examples:
  tradelock export -o journal.csv
  tradelock export --format html -o report.html --regret`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var (
	exportFormat string
	exportOutput string
	exportRegret bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv, md or html")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (stdout when empty)")
	exportCmd.Flags().BoolVar(&exportRegret, "regret", false, "include the wall of regret in reports")
}

func runExport(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		if exportFormat == "csv" {
			if exportOutput == "" {
				return a.desk.ExportCSV(os.Stdout)
			}
			if err := journal.ExportCSV(exportOutput, a.desk.Ledger()); err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, "Exported "+exportOutput)
			return nil
		}

		v, err := a.desk.Today()
		if err != nil {
			return err
		}
		data := report.Data{
			Generated: time.Now(),
			Today:     v,
			History:   a.desk.History(),
			Stats:     a.desk.Stats(),
			Notes:     a.desk.Notes(),
		}
		if exportRegret {
			wall := a.desk.Regret(cmd.Context(), nil)
			data.Wall = &wall
		}
		md := report.Markdown(data)

		var out []byte
		switch exportFormat {
		case "md":
			if exportOutput == "" {
				return cli.Render(os.Stdout, md, cli.IsTerminal(os.Stdout))
			}
			out = []byte(md)
		case "html":
			if out, err = report.HTML(md); err != nil {
				return err
			}
			if exportOutput == "" {
				_, err = os.Stdout.Write(out)
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want csv, md or html)", exportFormat)
		}

		if err := os.WriteFile(exportOutput, out, 0644); err != nil {
			return fmt.Errorf("write %s: %w", exportOutput, err)
		}
		cli.PrintSuccess(os.Stdout, "Exported "+exportOutput)
		return nil
	})
}
