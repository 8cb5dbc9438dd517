package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/exdap/internal/launch"
)

// TemplatesFileName is the per-project launch template file.
const TemplatesFileName = "launch.yml"

// templatesFile is the on-disk shape of launch.yml.
type templatesFile struct {
	Configurations []launch.Config `yaml:"configurations"`
}

// Templates holds named launch configurations. Lookups return copies so the
// stored templates stay immutable across runs.
type Templates struct {
	byName map[string]*launch.Config
}

// LoadTemplates reads named launch configurations from path.
// A missing file yields an empty set, not an error.
func LoadTemplates(path string) (*Templates, error) {
	t := &Templates{byName: make(map[string]*launch.Config)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading templates %s: %w", path, err)
	}

	var file templatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing templates %s: %w", path, err)
	}

	for i := range file.Configurations {
		cfg := file.Configurations[i]
		if cfg.Name != "" {
			t.byName[cfg.Name] = &cfg
		}
	}
	return t, nil
}

// Find returns a copy of the named template, or nil when absent.
func (t *Templates) Find(name string) *launch.Config {
	if t == nil || name == "" {
		return nil
	}
	return t.byName[name].Clone()
}

// Names returns the defined template names.
func (t *Templates) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	return names
}
