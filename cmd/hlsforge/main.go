// Package main is the entry point for the hlsforge CLI.
package main

import (
	"os"

	"github.com/jmylchreest/hlsforge/cmd/hlsforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
