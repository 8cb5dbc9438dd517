package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func buildVersion() string {
	return version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show exdap build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "exdap %s (commit %s, built %s)\n", version, commit, date)
		return nil
	},
}
