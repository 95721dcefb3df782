package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Get a short commentary on today's trading",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			v, err := a.desk.Today()
			if err != nil {
				return err
			}
			cli.PrintAI(os.Stdout, a.advisor.DailySummary(cmd.Context(), v.Trades, v.Total))
			return nil
		})
	},
}

var popupQuote bool

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Show a nudge based on today's trades",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			if popupQuote {
				cli.PrintAI(os.Stdout, a.advisor.Quote())
				return nil
			}
			v, err := a.desk.Today()
			if err != nil {
				return err
			}
			cli.PrintAI(os.Stdout, a.advisor.PopUp(v.Trades, v.Total, v.Losses))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd, popupCmd)

	popupCmd.Flags().BoolVarP(&popupQuote, "quote", "q", false, "show a trading quote instead")
}
