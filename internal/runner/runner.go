// Package runner orchestrates one test or debug run end to end: scan the
// test file for mocked modules, synthesize the launch configuration and
// drive the debug session to completion.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/exdap/internal/analyze"
	"github.com/dshills/exdap/internal/config"
	"github.com/dshills/exdap/internal/debug"
	"github.com/dshills/exdap/internal/exunit"
	"github.com/dshills/exdap/internal/launch"
)

// Request selects the scope and mode of one run.
type Request struct {
	// Cwd is the mix project directory. Required.
	Cwd string

	// FilePath selects one test file; empty runs the whole suite.
	FilePath string

	// Line scopes the run to the test at that line (0 means the whole file).
	Line int

	// DoctestLine scopes the run to one embedded documentation example.
	DoctestLine int

	// ModuleFilter scopes the run to one test module.
	ModuleFilter string

	// Debug selects a debug launch; plain runs skip mock analysis entirely.
	Debug bool

	// Template names a configuration from launch.yml; empty uses defaults.
	Template string

	// Lookup resolves test references to logical items. Optional; nil means
	// per-test notifications are dropped after logging.
	Lookup exunit.Lookup
}

// Result is the outcome of a completed run.
type Result struct {
	// Passed is true when the debuggee exited with code zero.
	Passed bool

	// Output is the debuggee output in arrival order.
	Output string

	// Mocks are the resolved mocked-module names found by analysis.
	// Empty on plain runs.
	Mocks []string
}

// Runner wires analysis, synthesis and session correlation together.
type Runner struct {
	starter   Starter
	settings  config.Settings
	templates *config.Templates
}

// Starter launches a synthesized configuration. *debug.Host is the
// production implementation.
type Starter = debug.Starter

// New creates a runner over the given session starter and configuration.
func New(starter Starter, settings config.Settings, templates *config.Templates) *Runner {
	return &Runner{
		starter:   starter,
		settings:  settings,
		templates: templates,
	}
}

// Run executes one request and blocks until the session terminates.
// A test failure surfaces as a *debug.ExitError wrapped in the returned
// error; Result.Output is populated on that path so callers can render it.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if req.Cwd == "" {
		return Result{}, errors.New("run request requires a project directory")
	}

	var mocks []string
	if req.Debug && req.FilePath != "" {
		mocks = analyze.ScanFile(req.FilePath).ResolvedModules()
	}

	var template *launch.Config
	if req.Template != "" {
		template = r.templates.Find(req.Template)
		if template == nil {
			return Result{}, fmt.Errorf("unknown launch template %q", req.Template)
		}
	}

	cfg := launch.Synthesize(launch.Request{
		Cwd:          req.Cwd,
		FilePath:     req.FilePath,
		Line:         req.Line,
		DoctestLine:  req.DoctestLine,
		ModuleFilter: req.ModuleFilter,
		Debug:        req.Debug,
		MockModules:  mocks,
		TestArgs:     r.settings.Test.Args,
		DebugArgs:    r.settings.Test.DebugArgs,
		Env:          r.settings.Test.Env,
		Template:     template,
	})

	session := debug.NewSession(r.starter, req.Lookup)
	output, err := session.Run(ctx, cfg)

	result := Result{
		Passed: err == nil,
		Output: output,
		Mocks:  mocks,
	}
	return result, err
}
