package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/internal/cli"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Keep short notes next to the journal",
	Long: `Manage notes.

Subcommands:
  add  - Add a note
  list - List notes, newest first
  rm   - Remove a note by id`,
}

var notesAddCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Add a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			n, err := a.desk.AddNote(strings.Join(args, " "))
			if err != nil {
				return err
			}
			cli.PrintSuccess(os.Stdout, "Note added: "+n.ID)
			return nil
		})
	},
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			cli.PrintNotes(os.Stdout, a.desk.Notes())
			return nil
		})
	},
}

var notesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ok, err := a.desk.DeleteNote(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no note with id %s", args[0])
			}
			cli.PrintSuccess(os.Stdout, "Note removed")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesAddCmd, notesListCmd, notesRmCmd)
}
