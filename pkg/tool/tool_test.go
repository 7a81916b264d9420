package tool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrokit/crpipe/pkg/cerr"
)

func TestRegistry_Builtins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"cosmetic", "deepcr", "lacosmic"}, r.Names())

	_, err := r.Lookup("nope")
	assert.Error(t, err)
}

func TestBuildArgv_FlagsStyle(t *testing.T) {
	lac := LACosmic()
	set := lac.Schema.NewSet()
	require.NoError(t, set.Set("sigclip", 2.0))
	require.NoError(t, set.Set("save_mask", true))

	argv, err := BuildArgv(lac, "/tmp/in.tif", "/tmp/out", set)
	require.NoError(t, err)

	assert.Equal(t, "lacosmic_cli.py", argv[0])
	assert.Equal(t, "/tmp/in.tif", argv[1])
	assert.Contains(t, argv, "--outdir")
	assert.Contains(t, argv, "--suffix")
	assert.Contains(t, argv, "_crr")

	// Value flags carry decimal text; booleans render as True/False.
	i := indexOf(argv, "--sigclip")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "2", argv[i+1])
	i = indexOf(argv, "--sepmed")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "True", argv[i+1])

	// Presence flag has no value after it beyond the next flag.
	assert.Contains(t, argv, "--save-mask")
}

func TestBuildArgv_PresenceFlagOmittedWhenFalse(t *testing.T) {
	lac := LACosmic()
	set := lac.Schema.NewSet()

	argv, err := BuildArgv(lac, "in.tif", "out", set)
	require.NoError(t, err)
	assert.NotContains(t, argv, "--save-mask")
}

func TestBuildArgv_PositionalStyle(t *testing.T) {
	dc := DeepCR()
	set := dc.Schema.NewSet()
	require.NoError(t, set.Set("threshold", 0.2))

	argv, err := BuildArgv(dc, "/tmp/m31.tif", "/tmp/out", set)
	require.NoError(t, err)

	// No preset set: the user threshold is passed through and the optional
	// flag is absent.
	assert.Equal(t, []string{"deepcr_cli.py", "/tmp/m31.tif", "/tmp/out", "0.2"}, argv)
}

func TestBuildArgv_PresetReplacesThreshold(t *testing.T) {
	dc := DeepCR()
	set := dc.Schema.NewSet()
	require.NoError(t, set.Set("threshold", 0.2))
	require.NoError(t, set.Set("preset", "aggressive"))

	argv, err := BuildArgv(dc, "/tmp/m31.tif", "/tmp/out", set)
	require.NoError(t, err)

	// The tool derives its threshold from the preset, so the positional
	// argument and the output naming must follow the preset's value, not
	// the user's.
	assert.Equal(t, []string{"deepcr_cli.py", "/tmp/m31.tif", "/tmp/out", "0.05", "--preset", "aggressive"}, argv)

	out := OutputPath(dc, "/tmp/m31.tif", "/tmp/out", set)
	assert.Equal(t, filepath.Join("/tmp/out", "m31_deepcr_th0.05_cleaned.tif"), out)
}

func TestOutputPath_PresetAgreesWithArgv(t *testing.T) {
	// Output path asked for before BuildArgv must give the same answer.
	dc := DeepCR()
	set := dc.Schema.NewSet()
	require.NoError(t, set.Set("preset", "conservative"))

	out := OutputPath(dc, "/tmp/m31.tif", "/tmp/out", set)
	assert.Equal(t, filepath.Join("/tmp/out", "m31_deepcr_th0.2_cleaned.tif"), out)

	argv, err := BuildArgv(dc, "/tmp/m31.tif", "/tmp/out", set)
	require.NoError(t, err)
	assert.Contains(t, argv, "0.2")
}

func TestBuildArgv_RejectsInvalidBeforeLaunch(t *testing.T) {
	dc := DeepCR()
	set := dc.Schema.NewSet()
	require.NoError(t, set.Set("threshold", 0.9)) // outside 0.05..0.5

	argv, err := BuildArgv(dc, "in.tif", "out", set)
	assert.Nil(t, argv)
	assert.True(t, cerr.IsCode(err, cerr.CodeValidation))
}

func TestBuildArgv_Deterministic(t *testing.T) {
	lac := LACosmic()
	set := lac.Schema.NewSet()
	a, err := BuildArgv(lac, "in.tif", "out", set)
	require.NoError(t, err)
	b, err := BuildArgv(lac, "in.tif", "out", set)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOutputPath_SuffixExpansion(t *testing.T) {
	dc := DeepCR()
	set := dc.Schema.NewSet()
	require.NoError(t, set.Set("threshold", 0.1))

	out := OutputPath(dc, "/tmp/work/m31.tif", "/tmp/out", set)
	assert.Equal(t, filepath.Join("/tmp/out", "m31_deepcr_th0.1_cleaned.tif"), out)

	mask := MaskPath(dc, "/tmp/work/m31.tif", "/tmp/out", set)
	assert.Equal(t, filepath.Join("/tmp/out", "m31_deepcr_th0.1_mask.tif"), mask)
}

func TestOutputPath_PlainSuffix(t *testing.T) {
	lac := LACosmic()
	set := lac.Schema.NewSet()
	out := OutputPath(lac, "/data/ngc7000.tif", "/tmp/out", set)
	assert.Equal(t, filepath.Join("/tmp/out", "ngc7000_crr.tif"), out)
}

func TestResolveInterpreter_EnvOverride(t *testing.T) {
	script := filepath.Join(t.TempDir(), "python3")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))

	got, err := ResolveInterpreter(func(k string) string {
		if k == EnvInterpreter {
			return script
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, script, got)
}

func TestResolveInterpreter_BadOverrideIsLaunchError(t *testing.T) {
	_, err := ResolveInterpreter(func(k string) string {
		if k == EnvInterpreter {
			return "/does/not/exist/python3"
		}
		return ""
	})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.CodeLaunch))
}

func indexOf(argv []string, want string) int {
	for i, a := range argv {
		if a == want {
			return i
		}
	}
	return -1
}
