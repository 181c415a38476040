package main

import (
	"os"

	"github.com/rumor-ml/budgetmail/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
