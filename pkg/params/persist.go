package params

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// entry is one (name, type, value) triple of the persisted form.
type entry struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// Export writes every recognized key with its current type and value, in
// schema order. Export then Import reproduces the same Set.
func Export(set *Set) ([]byte, error) {
	entries := make([]entry, 0, len(set.schema.defs))
	for _, d := range set.schema.defs {
		entries = append(entries, entry{
			Name:  d.Name,
			Type:  string(d.Kind),
			Value: set.values[d.Name],
		})
	}
	return yaml.Marshal(entries)
}

// Import builds a Set from the persisted form: recognized keys overwrite the
// schema default, keys absent from the data keep the default, and unknown
// keys are skipped without error. A value that cannot be coerced to the
// declared kind is also skipped, keeping the default: tolerance of drifted
// presets is the contract here, not a defect. Importing the same data twice
// yields the same Set as importing it once.
func Import(schema *Schema, data []byte) (*Set, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing parameter set: %w", err)
	}

	set := schema.NewSet()
	for _, e := range entries {
		def, ok := schema.Lookup(e.Name)
		if !ok {
			continue
		}
		v, err := coerce(def.Kind, e.Value)
		if err != nil {
			continue
		}
		set.values[def.Name] = v
	}
	return set, nil
}
