package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradelock/config"
	"github.com/rustyeddy/tradelock/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "tradelock",
	Short: "A trading journal that locks you out after too many losses",
	Long: `Tradelock is a disciplined trading journal.

It provides tools for:
  - Recording today's trades in a four-week grid
  - Writing down why every losing trade lost
  - Locking the day after two losses, until midnight
  - Retyping a pledge the day after a lock
  - Grouping loss reasons into a wall of regret, with optional AI help

Run "tradelock serve" for the local HTTP API.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	logLevel   string

	cfg *config.Config
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		cli.PrintError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

// setup loads the configuration and configures logging for every command.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lvl := cfg.Log.Level
	if logLevel != "" {
		lvl = logLevel
	}
	level, err := zerolog.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

// parseRow reads a 0-based row index.
func parseRow(s string) (int, error) {
	row, err := strconv.Atoi(s)
	if err != nil || row < 0 {
		return 0, fmt.Errorf("row must be a non-negative number, got %q", s)
	}
	return row, nil
}
