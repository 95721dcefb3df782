package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the tradelock CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tradelock version %s\n", version)
		fmt.Println("A trading journal that locks you out after too many losses")
		fmt.Println("https://github.com/rustyeddy/tradelock")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
