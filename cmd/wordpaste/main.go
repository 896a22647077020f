// Package main is the entry point for the wordpaste CLI.
package main

import (
	"os"

	"github.com/jmylchreest/wordpaste/cmd/wordpaste/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
