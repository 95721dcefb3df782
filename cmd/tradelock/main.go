package main

import (
	"os"

	"github.com/rustyeddy/tradelock/cmd/tradelock/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
