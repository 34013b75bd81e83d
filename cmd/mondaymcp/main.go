package main

import (
	"os"

	"github.com/tkingovr/monday-mcp/cmd/mondaymcp/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
