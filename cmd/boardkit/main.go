// Package main provides the boardkit command.
package main

import (
	"os"

	"github.com/leapstack-labs/boardkit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
