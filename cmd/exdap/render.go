package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dshills/exdap/internal/exunit"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
	errColor  = color.New(color.FgRed, color.Bold)
)

// renderResults prints per-test outcomes and a one-line summary.
// Idle items never ran in this session and are omitted.
func renderResults(out io.Writer, results []exunit.Result) {
	var passed, failed, skipped, excluded int

	for _, res := range results {
		switch res.State {
		case exunit.StatePassed:
			passed++
			passColor.Fprint(out, "  ✓ ")
			fmt.Fprintf(out, "%s", res.Ref.Name)
			dimColor.Fprintf(out, " (%.1fms)\n", res.Seconds*1000)
		case exunit.StateFailed, exunit.StateErrored:
			failed++
			failColor.Fprint(out, "  ✗ ")
			fmt.Fprintf(out, "%s\n", res.Ref.Name)
			if res.Message != "" {
				dimColor.Fprintf(out, "    %s\n", res.Message)
			}
		case exunit.StateSkipped:
			skipped++
			skipColor.Fprintf(out, "  - %s (skipped)\n", res.Ref.Name)
		case exunit.StateExcluded:
			excluded++
		}
	}

	if passed+failed+skipped+excluded == 0 {
		return
	}

	fmt.Fprintln(out)
	if failed > 0 {
		failColor.Fprintf(out, "%d failed", failed)
		fmt.Fprint(out, ", ")
	}
	passColor.Fprintf(out, "%d passed", passed)
	if skipped > 0 {
		fmt.Fprint(out, ", ")
		skipColor.Fprintf(out, "%d skipped", skipped)
	}
	if excluded > 0 {
		fmt.Fprint(out, ", ")
		dimColor.Fprintf(out, "%d excluded", excluded)
	}
	fmt.Fprintln(out)
}

// renderMocks prints the resolved modules that were kept out of the
// interpreter for a debug run.
func renderMocks(out io.Writer, mocks []string) {
	if len(mocks) == 0 {
		return
	}
	dimColor.Fprintf(out, "excluding %d mocked module(s) from interpretation:\n", len(mocks))
	for _, name := range mocks {
		dimColor.Fprintf(out, "  %s\n", name)
	}
}
