package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/clock"
	"github.com/rustyeddy/tradelock/internal/cli"
	"github.com/rustyeddy/tradelock/journal"
)

var lossCmd = &cobra.Command{
	Use:   "loss <row>",
	Short: "Record one of today's trades as a loss, with its reason",
	Long: `Mark a trade as a loss. Every loss needs a reason, and the second loss of
a day also needs a confession. Reaching the daily loss limit locks the day.

Without --reason the reason is asked for interactively.

Examples:
  tradelock loss 0
  tradelock loss 1 --reason "moved my stop" --confess`,
	Args: cobra.ExactArgs(1),
	RunE: runLoss,
}

var (
	lossReason  string
	lossConfess bool
)

func init() {
	rootCmd.AddCommand(lossCmd)

	lossCmd.Flags().StringVarP(&lossReason, "reason", "r", "", "why the trade lost")
	lossCmd.Flags().BoolVar(&lossConfess, "confess", false, "confess to breaking your rules (second loss)")
}

func runLoss(cmd *cobra.Command, args []string) error {
	row, err := parseRow(args[0])
	if err != nil {
		return err
	}
	return withApp(func(a *app) error {
		draft, err := a.desk.RequestLoss(clock.Current(clock.System{}), row)
		if err != nil {
			return err
		}

		reason, confessed := lossReason, lossConfess
		if reason == "" && cli.IsTerminal(os.Stdin) {
			if reason, confessed, err = cli.PromptLossReason(draft); err != nil {
				a.desk.CancelLoss()
				return err
			}
		}

		res, err := a.desk.ConfirmLoss(reason, confessed)
		if err != nil {
			a.desk.CancelLoss()
			return err
		}

		cli.PrintSuccess(os.Stdout, fmt.Sprintf("Loss recorded (%d/%d today)", res.Losses, a.desk.Policy().MaxLossesPerDay))
		if !res.Locked && res.Entry.HasAmount() {
			cli.PrintAI(os.Stdout, a.advisor.Reaction(context.Background(), journal.Loss, res.Entry.Value(), res.Entry.Reason))
		}
		return nil
	})
}
