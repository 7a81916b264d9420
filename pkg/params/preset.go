package params

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PresetStore persists named parameter sets as YAML files in a directory,
// one file per preset. Presets are what batch mode runs from: a previously
// saved set replayed without any interactive collection.
type PresetStore struct {
	dir string
}

// NewPresetStore returns a store rooted at dir. The directory is created on
// the first Save.
func NewPresetStore(dir string) *PresetStore {
	return &PresetStore{dir: dir}
}

// Dir returns the store's root directory.
func (s *PresetStore) Dir() string { return s.dir }

// Save persists set under name, overwriting any existing preset of that name.
func (s *PresetStore) Save(name string, set *Set) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := Export(set)
	if err != nil {
		return fmt.Errorf("exporting preset %q: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating preset directory: %w", err)
	}
	return os.WriteFile(s.path(name), data, 0o644)
}

// Load reads the named preset and overlays it on schema's defaults.
func (s *PresetStore) Load(name string, schema *Schema) (*Set, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preset %q not found in %s", name, s.dir)
		}
		return nil, fmt.Errorf("reading preset %q: %w", name, err)
	}
	return Import(schema, data)
}

// List returns the preset names in the store, sorted.
func (s *PresetStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named preset. Deleting a missing preset is not an error.
func (s *PresetStore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *PresetStore) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// validName rejects names that would escape the preset directory.
func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name != filepath.Base(name) {
		return fmt.Errorf("invalid preset name %q", name)
	}
	return nil
}
