// File: cmd/cfi/version.go
// Brief: CLI command wiring for 'version'.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Opius-AI/cognito-flask-infrastructure/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "cfi %s (commit %s, tree %s, built %s, %s, %s)\n",
				info.Version, info.GitCommit, info.GitTreeState, info.BuildDate, info.GoVersion, info.Platform)
			return nil
		},
	}
}
