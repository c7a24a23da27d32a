package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	Version    = "0.0.1"
	CommitHash = ""
)

func versionString() string {
	if CommitHash != "" {
		return fmt.Sprintf("%s (%s)", Version, CommitHash)
	}
	return Version
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trg-remote version: %s\n", versionString())
		},
	}
}
