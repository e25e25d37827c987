package main

import (
	"os"

	"github.com/aristath/pattern-trader/cmd/scanner/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
