// Package main provides the swmmkit command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/swmmkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
