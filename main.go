package main

import (
	"os"

	"github.com/devguard-labs/devguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
