// Package main is the entry point for the agrolens CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spektr-org/agrolens/cmd/agrolens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
