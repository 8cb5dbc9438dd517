package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dshills/exdap/internal/debug"
	"github.com/dshills/exdap/internal/exunit"
	"github.com/dshills/exdap/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run [file[:line]]",
	Short: "Run ExUnit tests through the debug adapter",
	Long: `Run a test file, a single test at a line, or the whole suite.
A plain run never interprets code and never excludes modules.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTests(cmd, args, false)
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug [file[:line]]",
	Short: "Debug ExUnit tests with mock-aware interpretation",
	Long: `Debug a test file under the adapter's interpreter. The file is scanned
for mocked modules first; every resolved mock is excluded from
interpretation so the mocking library replaces the compiled original.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTests(cmd, args, true)
	},
}

var (
	flagCwd         string
	flagModule      string
	flagDoctestLine int
	flagTemplate    string
	flagWatch       bool
)

func init() {
	for _, cmd := range []*cobra.Command{runCmd, debugCmd} {
		cmd.Flags().StringVar(&flagCwd, "cwd", ".", "mix project directory")
		cmd.Flags().StringVar(&flagModule, "module", "", "run only the named test module")
		cmd.Flags().IntVar(&flagDoctestLine, "doctest-line", 0, "run only the doctest at this line")
		cmd.Flags().StringVar(&flagTemplate, "template", "", "launch template name from launch.yml")
	}
	runCmd.Flags().BoolVar(&flagWatch, "watch", false, "rerun when the test file changes")
}

func runTests(cmd *cobra.Command, args []string, debugMode bool) error {
	env, err := loadEnvironment(flagCwd)
	if err != nil {
		return err
	}

	req := runner.Request{
		Cwd:          env.cwd,
		ModuleFilter: flagModule,
		DoctestLine:  flagDoctestLine,
		Template:     flagTemplate,
		Debug:        debugMode,
	}
	if len(args) == 1 {
		req.FilePath, req.Line = splitTarget(args[0])
	}

	if flagWatch && !debugMode {
		if req.FilePath == "" {
			return errors.New("--watch requires a test file argument")
		}
		return watchAndRun(cmd, env, req)
	}

	return executeOnce(cmd, env, req)
}

// executeOnce performs a single run and renders its outcome.
// A nonzero test exit comes back as the *debug.ExitError itself so the
// process exit code can mirror the debuggee's.
func executeOnce(cmd *cobra.Command, env *environment, req runner.Request) error {
	out := cmd.OutOrStdout()

	// The adapter discovers tests as it runs them; an auto-registering
	// lookup collects every reported item for rendering.
	registry := exunit.NewRegistry()
	req.Lookup = registry.Add

	result, err := env.runner.Run(cmd.Context(), req)

	if req.Debug {
		renderMocks(out, result.Mocks)
	}
	if result.Output != "" {
		fmt.Fprint(out, result.Output)
		if !strings.HasSuffix(result.Output, "\n") {
			fmt.Fprintln(out)
		}
	}
	renderResults(out, registry.Results())

	var exitErr *debug.ExitError
	if errors.As(err, &exitErr) {
		failColor.Fprintf(out, "tests failed (exit %d)\n", exitErr.Code)
		return exitErr
	}
	return err
}

// watchDebounce coalesces editor save bursts into one rerun.
const watchDebounce = 250 * time.Millisecond

// watchAndRun reruns the request whenever its test file changes.
// Blocks until interrupted.
func watchAndRun(cmd *cobra.Command, env *environment, req runner.Request) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, which drops the watch on the file
	// itself; watching the directory survives that.
	if err := watcher.Add(watchDir(req.FilePath)); err != nil {
		return fmt.Errorf("watching %s: %w", req.FilePath, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	runOnce := func() {
		if err := executeOnce(cmd, env, req); err != nil {
			var exitErr *debug.ExitError
			if !errors.As(err, &exitErr) {
				errColor.Fprintf(out, "error: %v\n", err)
			}
		}
		dimColor.Fprintf(out, "watching %s for changes...\n", req.FilePath)
	}

	runOnce()

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchRelevant(ev, req.FilePath) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			runOnce()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			errColor.Fprintf(out, "watch error: %v\n", werr)
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		}
	}
}
