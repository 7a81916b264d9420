// Package tool describes the external correction tools the pipeline can
// drive and turns a validated parameter set into the argv each tool expects.
//
// The per-tool suffix and bounds tables are data, not code: the three
// shipped tools disagree on output naming and parameter domains, so each
// Tool carries its own table and a config file may override script paths
// and suffixes without a rebuild.
package tool

import (
	"fmt"
	"sort"

	"github.com/astrokit/crpipe/pkg/params"
)

// ArgStyle selects how a tool's CLI receives its inputs.
type ArgStyle string

const (
	// ArgStyleFlags: `script input --outdir DIR --suffix SFX [flags...]`.
	ArgStyleFlags ArgStyle = "flags"
	// ArgStylePositional: `script input outdir value... [flags...]`.
	ArgStylePositional ArgStyle = "positional"
)

// FlagSpec maps one parameter onto a CLI flag.
type FlagSpec struct {
	Param    string // parameter name in the schema
	Flag     string // literal flag, e.g. "--sigclip"
	Presence bool   // bool parameter emitted as a bare flag when true
}

// Tool is the external description of one correction tool.
type Tool struct {
	Name         string
	Script       string   // path or filename of the tool's CLI script
	Style        ArgStyle
	Positional   []string // parameter names passed positionally (after input, outdir)
	Flags        []FlagSpec
	OutputSuffix string // appended to the input stem, may contain {param} placeholders
	MaskSuffix   string // suffix of the optional detection mask
	MaskParam    string // bool parameter that asks the tool to write the mask
	ExportFormat string // container format for the exported input: "tif" or "png"
	Timeout      int64  // default execution budget in milliseconds, 0 = registry default
	Schema       *params.Schema

	// Normalize, when set, reconciles dependent parameters the way the tool
	// itself would (e.g. a preset that replaces a numeric value), so the
	// argv and the documented output paths agree with what the tool actually
	// writes. Must be idempotent; it runs before validation and again before
	// output-path computation.
	Normalize func(set *params.Set)
}

// WantsMask reports whether set asks the tool to produce the secondary mask.
func (t *Tool) WantsMask(set *params.Set) bool {
	if t.MaskParam == "" {
		return false
	}
	return set.Bool(t.MaskParam)
}

// Registry holds the known tools by name.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry returns a registry pre-populated with the built-in tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	for _, t := range []*Tool{LACosmic(), DeepCR(), Cosmetic()} {
		r.tools[t.Name] = t
	}
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (*Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q: must be one of %v", name, r.Names())
	}
	return t, nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
