package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dshills/exdap/internal/config"
	"github.com/dshills/exdap/internal/debug"
	"github.com/dshills/exdap/internal/event"
	"github.com/dshills/exdap/internal/runner"
)

// environment is everything a run command needs, resolved from the project
// directory: settings, launch templates and a ready runner.
type environment struct {
	cwd       string
	settings  config.Settings
	templates *config.Templates
	runner    *runner.Runner
}

// loadEnvironment resolves the project directory and loads its configuration.
func loadEnvironment(cwdFlag string) (*environment, error) {
	cwd, err := filepath.Abs(cwdFlag)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}

	settings, err := config.Load(filepath.Join(cwd, config.DefaultFileName))
	if err != nil {
		return nil, err
	}

	templates, err := config.LoadTemplates(filepath.Join(cwd, config.TemplatesFileName))
	if err != nil {
		return nil, err
	}

	host := debug.NewHost(debug.Adapter{
		Command: settings.Adapter.Command,
		Args:    settings.Adapter.Args,
		Address: settings.Adapter.Address,
		Env:     settings.Adapter.Env,
	}, event.NewBus())

	return &environment{
		cwd:       cwd,
		settings:  settings,
		templates: templates,
		runner:    runner.New(host, settings, templates),
	}, nil
}

// splitTarget parses a file[:line] argument. A missing or non-numeric
// suffix leaves the whole argument as the file path.
func splitTarget(arg string) (file string, line int) {
	idx := strings.LastIndex(arg, ":")
	if idx <= 0 {
		return arg, 0
	}
	n, err := strconv.Atoi(arg[idx+1:])
	if err != nil || n <= 0 {
		return arg, 0
	}
	return arg[:idx], n
}
