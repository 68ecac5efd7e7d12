package main

import (
	"os"

	"github.com/FACorreiaa/budget-dashboard/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
