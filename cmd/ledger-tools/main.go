// Package main is the entry point for the ledger-tools CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/ledger-tools/cmd/ledger-tools/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
