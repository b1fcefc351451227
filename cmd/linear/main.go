// Package main is the entry point for the linear CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
	"github.com/ink-splatters/linear-cli-sub001/internal/cli"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := cli.NewRootCmd(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(apperr.ExitCode(err))
	}
}
