package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
	"github.com/rustyeddy/tradelock/risk"
)

var pledgeCmd = &cobra.Command{
	Use:   "pledge [text]",
	Short: "Retype the pledge after a locked day",
	Long: `After a day was locked, editing stays blocked the next day until the
pledge is typed exactly.

Example:
  tradelock pledge "I promise not to repeat the same mistake"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			due, err := a.desk.PledgeRequired()
			if err != nil {
				return err
			}
			if !due {
				return risk.ErrPledgeNotRequired
			}

			text := strings.Join(args, " ")
			if text == "" && cli.IsTerminal(os.Stdin) {
				if text, err = cli.PromptPledge(a.desk.Policy().Pledge); err != nil {
					return err
				}
			}
			if err := a.desk.SubmitPledge(text); err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, "Promise accepted. Trade with discipline today.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(pledgeCmd)
}
