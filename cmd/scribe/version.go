package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/scribe/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "scribe %s", v.Version)
			if v.GitCommit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", v.GitCommit)
			}
			fmt.Fprintf(cmd.OutOrStdout(), " %s\n", v.GoVersion)
		},
	}
}
