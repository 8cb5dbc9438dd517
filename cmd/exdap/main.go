// Package main is the entry point for the exdap test runner CLI.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/exdap/internal/debug"
)

var rootCmd = &cobra.Command{
	Use:   "exdap",
	Short: "Mock-aware ExUnit runner over the Debug Adapter Protocol",
	Long: `exdap runs and debugs ExUnit test files through an Elixir debug adapter.
On debug runs it scans the test file for mocked modules and keeps them
out of the interpreter so mocking libraries see the compiled originals.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = buildVersion()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)

	os.Exit(execute())
}

// execute runs the root command and maps test failures onto the debuggee
// exit code so scripts can distinguish failing tests from tool errors.
func execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *debug.ExitError
	if errors.As(err, &exitErr) {
		// Output and summary were already rendered by the command.
		return exitErr.Code
	}

	errColor.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
