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

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's trades and lock status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			v, err := a.desk.Today()
			if err != nil {
				return err
			}
			cli.PrintToday(os.Stdout, v)
			return nil
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add [amount]",
	Short: "Add a trade to today",
	Long: `Append an empty trade row to today, optionally with its amount.

Examples:
  tradelock add
  tradelock add 125.50`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			b := clock.Current(clock.System{})
			if _, err := a.desk.AddTrade(b); err != nil {
				return err
			}
			row := len(a.desk.Ledger().Trades(b)) - 1
			if len(args) == 1 {
				if err := a.desk.SetField(b, row, "amount", args[0]); err != nil {
					return err
				}
			}
			cli.PrintSuccess(os.Stdout, fmt.Sprintf("Added trade %d", row))
			return nil
		})
	},
}

var amountCmd = &cobra.Command{
	Use:   "amount <row> <value>",
	Short: "Set the amount of one of today's trades",
	Long: `Set the amount of a trade. Amounts are non-negative; the type decides
the sign. An empty value clears the amount.

Example:
  tradelock amount 0 80`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := parseRow(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			if err := a.desk.SetField(clock.Current(clock.System{}), row, "amount", args[1]); err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, fmt.Sprintf("Trade %d amount set", row))
			return nil
		})
	},
}

var profitCmd = &cobra.Command{
	Use:   "profit <row>",
	Short: "Mark one of today's trades as a profit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := parseRow(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			b := clock.Current(clock.System{})
			if err := a.desk.SetField(b, row, "type", string(journal.Profit)); err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, fmt.Sprintf("Trade %d marked as profit", row))

			e, _ := a.desk.Ledger().Entry(b, row)
			if e.HasAmount() {
				cli.PrintAI(os.Stdout, a.advisor.Reaction(context.Background(), journal.Profit, e.Value(), ""))
			}
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <row>",
	Short: "Delete one of today's trades",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := parseRow(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			if err := a.desk.DeleteTrade(clock.Current(clock.System{}), row); err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, fmt.Sprintf("Trade %d deleted", row))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(todayCmd, addCmd, amountCmd, profitCmd, deleteCmd)
}
