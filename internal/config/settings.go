// Package config loads exdap settings and named launch templates.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is the per-project settings file.
const DefaultFileName = ".exdap.toml"

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "EXDAP_"

// Settings holds user-level configuration for test and debug runs.
type Settings struct {
	Adapter AdapterSettings `toml:"adapter"`
	Test    TestSettings    `toml:"test"`
}

// AdapterSettings describes how to reach the debug adapter.
type AdapterSettings struct {
	// Command and Args spawn the adapter over stdio.
	Command string   `toml:"command"`
	Args    []string `toml:"args"`

	// Address connects to an already-running adapter over TCP instead.
	Address string `toml:"address"`

	// Env entries are added to the adapter process environment (KEY=VALUE).
	Env []string `toml:"env"`
}

// TestSettings supplies default mix test arguments and environment.
type TestSettings struct {
	// Args are prepended on plain runs.
	Args []string `toml:"args"`

	// DebugArgs are prepended on debug runs.
	DebugArgs []string `toml:"debug_args"`

	// Env is merged into the launch configuration environment.
	Env map[string]string `toml:"env"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Adapter: AdapterSettings{
			Command: "elixir-ls-debug-adapter",
		},
	}
}

// Load reads settings from path and applies environment overrides.
// A missing file is not an error; defaults apply. A present but malformed
// file is an error, since silently ignoring it would mask typos.
func Load(path string) (Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus env overrides.
	case err != nil:
		return settings, fmt.Errorf("reading settings %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("parsing settings %s: %w", path, err)
		}
	}

	applyEnv(&settings)
	return settings, nil
}

// applyEnv overlays EXDAP_ environment variables onto the settings.
// List values are whitespace-separated.
func applyEnv(s *Settings) {
	if v, ok := os.LookupEnv(EnvPrefix + "ADAPTER_COMMAND"); ok {
		s.Adapter.Command = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ADAPTER_ARGS"); ok {
		s.Adapter.Args = strings.Fields(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ADAPTER_ADDRESS"); ok {
		s.Adapter.Address = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "TEST_ARGS"); ok {
		s.Test.Args = strings.Fields(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG_ARGS"); ok {
		s.Test.DebugArgs = strings.Fields(v)
	}
}
