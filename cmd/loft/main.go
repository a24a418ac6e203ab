// Package main is the entry point for the loft CLI.
package main

import (
	"os"

	"github.com/loft-chat/loft/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
