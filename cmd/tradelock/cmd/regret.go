package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
	"github.com/rustyeddy/tradelock/regret"
)

var regretCmd = &cobra.Command{
	Use:   "regret",
	Short: "Group every loss reason into the wall of regret",
	Long: `Classify every recorded loss reason and rank the recurring mistakes.

With an AI key each reason is categorised by the model; without one,
similar reasons are grouped by spelling.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			progress := regret.Progress(func(done, total int) {
				fmt.Fprintf(os.Stderr, "\ranalysing %d/%d", done, total)
				if done == total {
					fmt.Fprintln(os.Stderr)
				}
			})
			wall := a.desk.Regret(cmd.Context(), progress)
			cli.PrintWall(os.Stdout, wall)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(regretCmd)
}
