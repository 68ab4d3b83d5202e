package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/validation"
)

// Profile is a named set of configuration overrides. Includes are applied
// first, in order, then the profile's own overrides.
//
//	name: low
//	includes: [base]
//	overrides:
//	  Forward.Draw.maxDrawn: 200
//	  Forward.Stencil:
//	    enabled: false
type Profile struct {
	Name      string         `yaml:"name"`
	Includes  []string       `yaml:"includes,omitempty"`
	Overrides map[string]any `yaml:"overrides"`
}

// ProfileLoader loads profiles by name.
type ProfileLoader interface {
	Load(name string) (*Profile, error)
}

// FileProfileLoader loads {name}.yaml or {name}.yml from a list of
// directories, first match wins.
type FileProfileLoader struct {
	dirs []string
}

// NewFileProfileLoader creates a loader searching dirs in order.
func NewFileProfileLoader(dirs ...string) *FileProfileLoader {
	return &FileProfileLoader{dirs: dirs}
}

// Load finds and parses the named profile.
func (l *FileProfileLoader) Load(name string) (*Profile, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			p, err := LoadProfile(path)
			if err != nil {
				return nil, err
			}
			if p.Name == "" {
				p.Name = name
			}
			return p, nil
		}
	}
	return nil, errors.ProfileNotFound(name).WithDetail("dirs", l.dirs)
}

// LoadProfile parses one profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ProfileNotFound(path).WithCause(err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.InvalidConfig(path, "parsing profile").WithCause(err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &p, nil
}

// ResolveProfile flattens p and its includes into one override map. A
// profile included twice through different branches is applied once; an
// include cycle is an error.
func ResolveProfile(p *Profile, loader ProfileLoader) (map[string]any, error) {
	out := make(map[string]any)
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	if err := resolveProfile(p, loader, stack, resolved, out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveProfile(p *Profile, loader ProfileLoader, stack, resolved map[string]bool, out map[string]any) error {
	if stack[p.Name] {
		return errors.InvalidConfig("profile "+p.Name, "circular include")
	}
	stack[p.Name] = true
	defer delete(stack, p.Name)

	for _, name := range p.Includes {
		if resolved[name] {
			continue
		}
		if stack[name] {
			return errors.InvalidConfig("profile "+p.Name, fmt.Sprintf("circular include of %q", name))
		}
		sub, err := loader.Load(name)
		if err != nil {
			return err
		}
		if err := resolveProfile(sub, loader, stack, resolved, out); err != nil {
			return err
		}
	}

	for key, value := range p.Overrides {
		if fields, ok := asFields(value); ok {
			for field, v := range fields {
				out[key+"."+field] = v
			}
			continue
		}
		out[key] = value
	}
	resolved[p.Name] = true
	return nil
}

// ApplyProfile resolves the named profile and applies it.
func (t *ConfigTree) ApplyProfile(name string, loader ProfileLoader) error {
	p, err := loader.Load(name)
	if err != nil {
		return err
	}
	overrides, err := ResolveProfile(p, loader)
	if err != nil {
		return err
	}
	return t.applyOverrides(overrides, "profile")
}

// ParseOverride splits "path=value". The value is parsed as a YAML scalar,
// so "10" is an int and "false" a bool.
func ParseOverride(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, errors.InvalidConfig(s, "expected path=value")
	}
	if !validation.IsConfigPath(key) {
		return "", nil, errors.InvalidConfig(key, "malformed override path")
	}
	raw = strings.TrimSpace(raw)
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		return key, raw, nil
	}
	return key, value, nil
}

// ParseOverrides parses a list of "path=value" entries. Later entries win.
func ParseOverrides(list []string) (map[string]any, error) {
	out := make(map[string]any, len(list))
	for _, s := range list {
		k, v, err := ParseOverride(s)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
