// Package params models the named, typed parameter sets handed to external
// correction tools, together with their persisted form and preset storage.
//
// A Schema declares what a tool understands: parameter names, kinds,
// defaults, numeric bounds, and allowed string choices. A Set holds concrete
// values for one run. Import is deliberately tolerant: unknown keys are
// ignored and missing keys keep their defaults, so presets written by older
// or newer builds keep loading.
package params

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/astrokit/crpipe/pkg/cerr"
)

// Kind is the value type of one parameter.
type Kind string

const (
	KindBool    Kind = "bool"
	KindInteger Kind = "integer"
	KindReal    Kind = "real"
	KindString  Kind = "string"
)

// Def declares a single parameter: its kind, default, and value domain.
type Def struct {
	Name    string
	Kind    Kind
	Default any      // bool, int64, float64, or string matching Kind
	Min     *float64 // numeric lower bound, inclusive
	Max     *float64 // numeric upper bound, inclusive
	Choices []string // allowed values for KindString; empty = unrestricted
}

// Schema is an ordered list of parameter definitions.
type Schema struct {
	defs  []Def
	index map[string]int
}

// NewSchema builds a schema from defs. Duplicate names panic: schemas are
// static tables, so a duplicate is a programming error, not runtime input.
func NewSchema(defs ...Def) *Schema {
	s := &Schema{index: make(map[string]int, len(defs))}
	for _, d := range defs {
		if _, dup := s.index[d.Name]; dup {
			panic(fmt.Sprintf("params: duplicate definition %q", d.Name))
		}
		s.index[d.Name] = len(s.defs)
		s.defs = append(s.defs, d)
	}
	return s
}

// Defs returns the definitions in declaration order.
func (s *Schema) Defs() []Def {
	out := make([]Def, len(s.defs))
	copy(out, s.defs)
	return out
}

// Lookup returns the definition for name.
func (s *Schema) Lookup(name string) (Def, bool) {
	i, ok := s.index[name]
	if !ok {
		return Def{}, false
	}
	return s.defs[i], true
}

// NewSet returns a Set populated with every default.
func (s *Schema) NewSet() *Set {
	set := &Set{schema: s, values: make(map[string]any, len(s.defs))}
	for _, d := range s.defs {
		set.values[d.Name] = d.Default
	}
	return set
}

// Set is a concrete assignment of values to a schema's parameters. Keys are
// unique by construction and every recognized key always has a value.
type Set struct {
	schema *Schema
	values map[string]any
}

// Schema returns the schema this set was built from.
func (p *Set) Schema() *Schema { return p.schema }

// Set assigns a value, coercing compatible representations (e.g. an int for
// a real parameter). Unknown names and incompatible kinds are errors.
func (p *Set) Set(name string, value any) error {
	def, ok := p.schema.Lookup(name)
	if !ok {
		return cerr.Newf(cerr.CodeValidation, "unknown parameter %q", name)
	}
	v, err := coerce(def.Kind, value)
	if err != nil {
		return cerr.Newf(cerr.CodeValidation, "parameter %q: %v", name, err)
	}
	p.values[name] = v
	return nil
}

// SetFromString parses raw according to the parameter's declared kind and
// assigns it. This is the CLI entry point for --set name=value flags.
func (p *Set) SetFromString(name, raw string) error {
	def, ok := p.schema.Lookup(name)
	if !ok {
		return cerr.Newf(cerr.CodeValidation, "unknown parameter %q", name)
	}
	switch def.Kind {
	case KindBool:
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return cerr.Newf(cerr.CodeValidation, "parameter %q: %q is not a bool", name, raw)
		}
		return p.Set(name, b)
	case KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cerr.Newf(cerr.CodeValidation, "parameter %q: %q is not an integer", name, raw)
		}
		return p.Set(name, n)
	case KindReal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cerr.Newf(cerr.CodeValidation, "parameter %q: %q is not a number", name, raw)
		}
		return p.Set(name, f)
	default:
		return p.Set(name, raw)
	}
}

// Get returns the current value for name.
func (p *Set) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

func (p *Set) Bool(name string) bool {
	v, _ := p.values[name].(bool)
	return v
}

func (p *Set) Int(name string) int64 {
	v, _ := p.values[name].(int64)
	return v
}

func (p *Set) Real(name string) float64 {
	switch v := p.values[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

func (p *Set) String(name string) string {
	v, _ := p.values[name].(string)
	return v
}

// Clone returns an independent copy.
func (p *Set) Clone() *Set {
	c := &Set{schema: p.schema, values: make(map[string]any, len(p.values))}
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}

// Equal reports whether two sets built from the same schema hold the same
// value for every parameter.
func (p *Set) Equal(other *Set) bool {
	if other == nil || len(p.values) != len(other.values) {
		return false
	}
	for k, v := range p.values {
		if other.values[k] != v {
			return false
		}
	}
	return true
}

// Validate checks every value against its definition's domain. A violation
// is a validation error; validation always happens before a process is
// spawned, never during.
func (p *Set) Validate() error {
	for _, d := range p.schema.defs {
		v := p.values[d.Name]
		switch d.Kind {
		case KindInteger, KindReal:
			n := numeric(v)
			if d.Min != nil && n < *d.Min {
				return cerr.Newf(cerr.CodeValidation,
					"parameter %q = %s below minimum %s", d.Name, FormatValue(v), trimFloat(*d.Min))
			}
			if d.Max != nil && n > *d.Max {
				return cerr.Newf(cerr.CodeValidation,
					"parameter %q = %s above maximum %s", d.Name, FormatValue(v), trimFloat(*d.Max))
			}
		case KindString:
			if len(d.Choices) > 0 {
				s, _ := v.(string)
				allowed := false
				for _, c := range d.Choices {
					if s == c {
						allowed = true
						break
					}
				}
				if !allowed {
					return cerr.Newf(cerr.CodeValidation,
						"parameter %q = %q not one of %v", d.Name, s, d.Choices)
				}
			}
		}
	}
	return nil
}

// FormatValue renders a value the way the external tools expect it on the
// command line: booleans as literal True/False, numerics as decimal text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return trimFloat(x)
	case string:
		return x
	}
	return fmt.Sprintf("%v", v)
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func numeric(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return math.NaN()
}

func coerce(kind Kind, value any) (any, error) {
	switch kind {
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindInteger:
		switch x := value.(type) {
		case int:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) {
				return int64(x), nil
			}
		}
	case KindReal:
		switch x := value.(type) {
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case float64:
			return x, nil
		}
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("value %v is not a %s", value, kind)
}

// Ptr is a convenience for building bounds in schema tables.
func Ptr(f float64) *float64 { return &f }
