package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/exdap/internal/analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Show the mock analysis for test files",
	Long: `Scan test files for aliases and mocked modules and print the
resolutions a debug run would exclude from interpretation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

// analyzeConcurrency caps parallel file scans.
const analyzeConcurrency = 8

// fileReport is the analysis of one file, held for ordered rendering.
type fileReport struct {
	path string
	scan analyze.FileScan
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	reports := make([]fileReport, len(args))

	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(analyzeConcurrency)
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			reports[i] = fileReport{path: path, scan: analyze.ScanFile(path)}
			return nil
		})
	}
	// Scans never fail; the group only bounds concurrency.
	_ = g.Wait()

	out := cmd.OutOrStdout()
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		renderReport(out, report)
	}
	return nil
}

func renderReport(out io.Writer, report fileReport) {
	passColor.Fprintf(out, "%s\n", report.path)

	if len(report.scan.Aliases) > 0 {
		fmt.Fprintln(out, "  aliases:")
		shorts := make([]string, 0, len(report.scan.Aliases))
		for short := range report.scan.Aliases {
			shorts = append(shorts, short)
		}
		sort.Strings(shorts)
		for _, short := range shorts {
			fmt.Fprintf(out, "    %s -> %s\n", short, report.scan.Aliases[short])
		}
	}

	if len(report.scan.Mocks) == 0 {
		dimColor.Fprintln(out, "  no mocked modules")
		return
	}

	fmt.Fprintln(out, "  mocks:")
	for _, res := range analyze.ResolveAll(report.scan.Mocks, report.scan.Aliases) {
		if res.WasAliased {
			fmt.Fprintf(out, "    %s", res.Name)
			dimColor.Fprintln(out, " (via alias)")
		} else {
			fmt.Fprintf(out, "    %s\n", res.Name)
		}
	}
}
