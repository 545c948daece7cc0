package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/esquery/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show esqctl version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "esqctl %s\n", version.String())
		},
	}
}
