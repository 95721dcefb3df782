package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all trades, locks and notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			if !cli.IsTerminal(os.Stdin) {
				cli.PrintSuccess(os.Stdout, "Nothing done; pass --yes to reset without a prompt")
				return nil
			}
			ok, err := cli.ConfirmReset()
			if err != nil || !ok {
				return err
			}
		}
		return withApp(func(a *app) error {
			if err := a.desk.Reset(); err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, "All data has been reset")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation prompt")
}
