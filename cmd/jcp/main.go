package main

import (
	"os"

	"github.com/journey-copilot/journey-copilot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
