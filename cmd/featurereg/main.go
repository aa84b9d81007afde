package main

import (
	"os"

	"github.com/integreat-cms/featurereg/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
