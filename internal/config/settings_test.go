package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load() error = %v for missing file, want nil", err)
	}
	if settings.Adapter.Command != Default().Adapter.Command {
		t.Errorf("Adapter.Command = %q, want default", settings.Adapter.Command)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	content := `
[adapter]
command = "/opt/elixir-ls/debug_adapter.sh"
args = ["--stdio"]

[test]
args = ["--color"]
debug_args = ["--seed", "0"]

[test.env]
MIX_ENV = "test"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Adapter.Command != "/opt/elixir-ls/debug_adapter.sh" {
		t.Errorf("Adapter.Command = %q", settings.Adapter.Command)
	}
	if !reflect.DeepEqual(settings.Adapter.Args, []string{"--stdio"}) {
		t.Errorf("Adapter.Args = %v", settings.Adapter.Args)
	}
	if !reflect.DeepEqual(settings.Test.Args, []string{"--color"}) {
		t.Errorf("Test.Args = %v", settings.Test.Args)
	}
	if !reflect.DeepEqual(settings.Test.DebugArgs, []string{"--seed", "0"}) {
		t.Errorf("Test.DebugArgs = %v", settings.Test.DebugArgs)
	}
	if settings.Test.Env["MIX_ENV"] != "test" {
		t.Errorf("Test.Env = %v", settings.Test.Env)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed file succeeded, want error")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"ADAPTER_COMMAND", "/custom/adapter")
	t.Setenv(EnvPrefix+"TEST_ARGS", "--color --max-failures 1")

	settings, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if settings.Adapter.Command != "/custom/adapter" {
		t.Errorf("Adapter.Command = %q, want env override", settings.Adapter.Command)
	}
	want := []string{"--color", "--max-failures", "1"}
	if !reflect.DeepEqual(settings.Test.Args, want) {
		t.Errorf("Test.Args = %v, want %v", settings.Test.Args, want)
	}
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TemplatesFileName)
	content := `
configurations:
  - name: "mix test (integration)"
    request: launch
    task: test
    taskArgs: ["--only", "integration"]
    projectDir: "/proj"
    excludeModules: ["MyApp.Stub"]
    startApps: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}

	cfg := templates.Find("mix test (integration)")
	if cfg == nil {
		t.Fatal("Find() = nil for defined template")
	}
	if cfg.Task != "test" || len(cfg.ExcludeModules) != 1 {
		t.Errorf("template = %+v", cfg)
	}
}

func TestLoadTemplatesMissingFile(t *testing.T) {
	templates, err := LoadTemplates(filepath.Join(t.TempDir(), TemplatesFileName))
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v for missing file, want nil", err)
	}
	if got := templates.Find("anything"); got != nil {
		t.Errorf("Find() = %v on empty set, want nil", got)
	}
}

func TestTemplatesFindReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, TemplatesFileName)
	content := `
configurations:
  - name: tmpl
    taskArgs: ["--stale"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	templates, err := LoadTemplates(path)
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}

	a := templates.Find("tmpl")
	a.TaskArgs[0] = "mutated"

	b := templates.Find("tmpl")
	if b.TaskArgs[0] != "--stale" {
		t.Error("Find() returned a shared template; mutation leaked across lookups")
	}
}
