// Package main is the entry point for the spxctl command line
package main

import (
	"os"

	"github.com/nsvirk/spxanalytics/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
