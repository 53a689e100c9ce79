package main

import (
	"os"

	"taxfile/cmd/filingctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
