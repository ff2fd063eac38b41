package main

import (
	"os"

	"github.com/tradeharness/tradeharness/cmd/tradeharness/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
