package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "trg-remote",
		Short:        "Remote peer table for a Transmission daemon",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newVersionCmd())
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
