package main

import (
	"os"

	"github.com/mozilla/glean-dictionary/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
