// Package launch synthesizes debug-adapter launch configurations for mix
// test runs.
package launch

import "maps"

// Default task and formatter constants for mix test launches.
const (
	// DefaultTask is the mix task invoked for test runs.
	DefaultTask = "test"

	// DefaultName is the configuration name used when no template applies.
	DefaultName = "mix test"

	// FormatterModule is the ExUnit formatter that emits the structured test
	// events the session correlator consumes. Runs without it produce no
	// per-test notifications.
	FormatterModule = "ElixirLS.DAPFormatter"

)

// Config is the launch request value consumed by the external debug runtime.
// Field names mirror the adapter's wire format.
type Config struct {
	Name           string            `json:"name" yaml:"name"`
	Request        string            `json:"request" yaml:"request"`
	Task           string            `json:"task" yaml:"task"`
	TaskArgs       []string          `json:"taskArgs,omitempty" yaml:"taskArgs,omitempty"`
	ProjectDir     string            `json:"projectDir" yaml:"projectDir"`
	Env            map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	RequireFiles   []string          `json:"requireFiles,omitempty" yaml:"requireFiles,omitempty"`
	ExcludeModules []string          `json:"excludeModules,omitempty" yaml:"excludeModules,omitempty"`
	StartApps      bool              `json:"startApps" yaml:"startApps"`
	NoDebug        bool              `json:"noDebug,omitempty" yaml:"noDebug,omitempty"`
}

// Clone returns a deep copy. Templates are treated as immutable; synthesis
// always works on a copy so repeated runs never see each other's edits.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.TaskArgs = append([]string(nil), c.TaskArgs...)
	out.RequireFiles = append([]string(nil), c.RequireFiles...)
	out.ExcludeModules = append([]string(nil), c.ExcludeModules...)
	if c.Env != nil {
		out.Env = maps.Clone(c.Env)
	}
	return &out
}
