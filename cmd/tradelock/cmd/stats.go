package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show overall profit, loss and win rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			cli.PrintStats(os.Stdout, a.desk.Stats())
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the weekly history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			cli.PrintHistory(os.Stdout, a.desk.History())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, historyCmd)
}
