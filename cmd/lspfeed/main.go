package main

import (
	"os"

	"github.com/conduit-lang/lspfeed/internal/cli/commands"
)

var (
	// Version information - will be set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

func main() {
	commands.Version = Version
	commands.GitCommit = GitCommit
	commands.BuildDate = BuildDate
	commands.GoVersion = GoVersion

	// Execute has already reported the error on stderr.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
