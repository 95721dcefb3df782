package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
)

var apikeyClear bool

var apikeyCmd = &cobra.Command{
	Use:   "apikey [key]",
	Short: "Store the AI API key",
	Long: `Store the key used for AI categorisation and commentary. A stored key
takes precedence over the one in the environment. Use --clear to remove it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			var key string
			switch {
			case apikeyClear:
			case len(args) == 1:
				key = args[0]
			case cli.IsTerminal(os.Stdin):
				var err error
				if key, err = cli.PromptAPIKey(); err != nil {
					return err
				}
			}

			if err := a.desk.SetAPIKey(key); err != nil {
				return err
			}
			if key == "" {
				cli.PrintSuccess(os.Stdout, "API key removed; AI features use local messages")
				return nil
			}
			if !a.advisor.IsConfigured() {
				cli.PrintSuccess(os.Stdout, "API key saved, but AI is inactive: check ai.provider and the key length")
				return nil
			}
			cli.PrintSuccess(os.Stdout, "API key saved")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(apikeyCmd)

	apikeyCmd.Flags().BoolVar(&apikeyClear, "clear", false, "remove the stored key")
}
