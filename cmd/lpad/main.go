// Package main is the entry point for the LaunchPad CLI.
package main

import (
	"os"

	"github.com/aardel/launchpad/cmd/lpad/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
