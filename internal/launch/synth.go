package launch

import (
	"fmt"
	"runtime"
	"strings"
)

// Request carries everything the synthesizer needs for one run.
// All fields besides Cwd are optional; synthesis is a total function and
// never fails.
type Request struct {
	// Cwd is the project directory mix runs in.
	Cwd string

	// FilePath selects a single test file; empty runs the whole suite.
	FilePath string

	// Line scopes the run to the test at that line (0 means the whole file).
	Line int

	// DoctestLine scopes the run to one embedded documentation example.
	DoctestLine int

	// ModuleFilter scopes the run to one test module.
	ModuleFilter string

	// Debug selects a debug launch; a plain run never excludes modules.
	Debug bool

	// MockModules are the resolved mocked-module names detected in the file.
	MockModules []string

	// TestArgs and DebugArgs are the caller's default mix test arguments for
	// plain and debug runs respectively.
	TestArgs  []string
	DebugArgs []string

	// Env is merged over any template environment.
	Env map[string]string

	// Template is an optional pre-existing named configuration. It is never
	// mutated; computed values overwrite a copy field by field.
	Template *Config

	// HostOS overrides the host identifier for path normalization.
	// Empty means runtime.GOOS.
	HostOS string
}

// Synthesize produces the launch configuration for one run request.
func Synthesize(req Request) *Config {
	cfg := req.Template.Clone()
	if cfg == nil {
		cfg = &Config{
			Name:      DefaultName,
			StartApps: true,
		}
	}

	cfg.Request = "launch"
	cfg.Task = DefaultTask
	cfg.ProjectDir = req.Cwd
	cfg.TaskArgs = buildTaskArgs(req)
	cfg.Env = mergeEnv(cfg.Env, req.Env)
	cfg.NoDebug = !req.Debug

	if req.FilePath != "" {
		cfg.RequireFiles = []string{normalizePath(req.FilePath, hostOS(req))}
	} else {
		cfg.RequireFiles = nil
	}

	// Interpretation locking is a debug-only concern; a plain run keeps the
	// exclusion list empty no matter what the scan found.
	if req.Debug {
		cfg.ExcludeModules = dedup(append(cfg.ExcludeModules, req.MockModules...))
	} else {
		cfg.ExcludeModules = nil
	}

	return cfg
}

// buildTaskArgs computes the mix test argument list for the request.
func buildTaskArgs(req Request) []string {
	var args []string

	if req.Debug {
		// Interpreted code runs far slower than compiled code; --trace
		// disables ExUnit's per-test timeouts.
		args = append(args, "--trace")
		args = append(args, req.DebugArgs...)
	} else {
		args = append(args, req.TestArgs...)
	}

	if req.ModuleFilter != "" {
		args = append(args, "--only", "module:"+req.ModuleFilter)
	}
	if req.DoctestLine > 0 {
		args = append(args, "--only", fmt.Sprintf("doctest_line:%d", req.DoctestLine))
	}

	// The correlator depends on the structured event formatter; every run
	// gets it regardless of scope.
	args = append(args, "--formatter", FormatterModule)

	if req.FilePath != "" {
		target := normalizePath(req.FilePath, hostOS(req))
		if req.Line > 0 {
			target = fmt.Sprintf("%s:%d", target, req.Line)
		}
		args = append(args, target)
	}

	return args
}

func hostOS(req Request) string {
	if req.HostOS != "" {
		return req.HostOS
	}
	return runtime.GOOS
}

// normalizePath rewrites Windows path separators to forward slashes.
// Older mix versions mis-handle backslash-separated test filters, so this is
// required for correctness, not cosmetics.
func normalizePath(path, hostOS string) string {
	if hostOS == "windows" {
		return strings.ReplaceAll(path, `\`, "/")
	}
	return path
}

// mergeEnv overlays src onto dst without mutating either.
func mergeEnv(dst, src map[string]string) map[string]string {
	if len(dst) == 0 && len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

// dedup removes duplicates preserving first occurrence order.
func dedup(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
