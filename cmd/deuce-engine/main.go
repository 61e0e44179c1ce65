// Command deuce-engine operates the metadata store behind a
// content-addressed block storage system.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/deuce/cmd/deuce-engine/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
