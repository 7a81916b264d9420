package tool

import (
	"path/filepath"
	"strings"

	"github.com/astrokit/crpipe/pkg/cerr"
	"github.com/astrokit/crpipe/pkg/params"
)

// BuildArgv maps a validated parameter set plus an input path onto the
// tool's fixed CLI contract. It is pure: same inputs, same argv. Validation
// happens here, before any process is spawned; a set that violates its
// schema never produces an argv. The interpreter is not part of the result;
// the supervisor prepends it at launch time.
func BuildArgv(t *Tool, inputPath, outputDir string, set *params.Set) ([]string, error) {
	if t.Normalize != nil {
		t.Normalize(set)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	argv := []string{t.Script, inputPath}

	switch t.Style {
	case ArgStyleFlags:
		argv = append(argv, "--outdir", outputDir, "--suffix", expand(t.OutputSuffix, set))
	case ArgStylePositional:
		argv = append(argv, outputDir)
		for _, name := range t.Positional {
			v, ok := set.Get(name)
			if !ok {
				return nil, cerr.Newf(cerr.CodeValidation, "tool %s: missing positional parameter %q", t.Name, name)
			}
			argv = append(argv, params.FormatValue(v))
		}
	default:
		return nil, cerr.Newf(cerr.CodeValidation, "tool %s: unknown argument style %q", t.Name, t.Style)
	}

	for _, f := range t.Flags {
		v, ok := set.Get(f.Param)
		if !ok {
			continue
		}
		if f.Presence {
			if b, isBool := v.(bool); isBool && b {
				argv = append(argv, f.Flag)
			}
			continue
		}
		// An empty string means the optional flag is unset, not "".
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		argv = append(argv, f.Flag, params.FormatValue(v))
	}

	return argv, nil
}

// OutputPath returns the documented location of the tool's primary result
// for the given input, with {param} placeholders in the suffix expanded.
func OutputPath(t *Tool, inputPath, outputDir string, set *params.Set) string {
	return artifactPath(t, inputPath, outputDir, t.OutputSuffix, set)
}

// MaskPath returns the documented location of the optional detection mask.
func MaskPath(t *Tool, inputPath, outputDir string, set *params.Set) string {
	return artifactPath(t, inputPath, outputDir, t.MaskSuffix, set)
}

// ExpandedOutputSuffix returns the output suffix with {param} placeholders
// expanded, for callers that name things after the tool's artifacts.
func ExpandedOutputSuffix(t *Tool, set *params.Set) string {
	return expand(t.OutputSuffix, set)
}

// ExpandedMaskSuffix is ExpandedOutputSuffix for the mask suffix.
func ExpandedMaskSuffix(t *Tool, set *params.Set) string {
	return expand(t.MaskSuffix, set)
}

func artifactPath(t *Tool, inputPath, outputDir, suffix string, set *params.Set) string {
	if t.Normalize != nil {
		t.Normalize(set)
	}
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(outputDir, stem+expand(suffix, set)+ext)
}

// expand replaces {name} tokens in a suffix template with the parameter's
// command-line rendering, matching how the tools name their own outputs.
func expand(template string, set *params.Set) string {
	out := template
	for _, d := range set.Schema().Defs() {
		token := "{" + d.Name + "}"
		if !strings.Contains(out, token) {
			continue
		}
		v, _ := set.Get(d.Name)
		out = strings.ReplaceAll(out, token, params.FormatValue(v))
	}
	return out
}
