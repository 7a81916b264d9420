package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrokit/crpipe/pkg/cerr"
)

func testSchema() *Schema {
	return NewSchema(
		Def{Name: "sigclip", Kind: KindReal, Default: 1.5, Min: Ptr(0), Max: Ptr(10)},
		Def{Name: "niter", Kind: KindInteger, Default: int64(6), Min: Ptr(1), Max: Ptr(20)},
		Def{Name: "sepmed", Kind: KindBool, Default: true},
		Def{Name: "cleantype", Kind: KindString, Default: "meanmask",
			Choices: []string{"median", "medmask", "meanmask", "idw"}},
		Def{Name: "save_mask", Kind: KindBool, Default: false},
	)
}

func TestNewSet_Defaults(t *testing.T) {
	set := testSchema().NewSet()
	assert.Equal(t, 1.5, set.Real("sigclip"))
	assert.Equal(t, int64(6), set.Int("niter"))
	assert.True(t, set.Bool("sepmed"))
	assert.Equal(t, "meanmask", set.String("cleantype"))
}

func TestSet_Coercion(t *testing.T) {
	set := testSchema().NewSet()
	require.NoError(t, set.Set("sigclip", 2))
	assert.Equal(t, 2.0, set.Real("sigclip"))

	require.NoError(t, set.Set("niter", 4.0))
	assert.Equal(t, int64(4), set.Int("niter"))

	err := set.Set("niter", 4.5)
	assert.True(t, cerr.IsCode(err, cerr.CodeValidation))

	err = set.Set("unknown", 1)
	assert.True(t, cerr.IsCode(err, cerr.CodeValidation))
}

func TestValidate_Bounds(t *testing.T) {
	set := testSchema().NewSet()
	require.NoError(t, set.Validate())

	require.NoError(t, set.Set("sigclip", 42.0))
	err := set.Validate()
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.CodeValidation))
	assert.Contains(t, err.Error(), "sigclip")
}

func TestValidate_Choices(t *testing.T) {
	set := testSchema().NewSet()
	require.NoError(t, set.Set("cleantype", "bogus"))
	err := set.Validate()
	assert.True(t, cerr.IsCode(err, cerr.CodeValidation))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "True", FormatValue(true))
	assert.Equal(t, "False", FormatValue(false))
	assert.Equal(t, "1.5", FormatValue(1.5))
	assert.Equal(t, "65535", FormatValue(65535.0))
	assert.Equal(t, "6", FormatValue(int64(6)))
	assert.Equal(t, "meanmask", FormatValue("meanmask"))
}

func TestExportImport_RoundTrip(t *testing.T) {
	schema := testSchema()
	set := schema.NewSet()
	require.NoError(t, set.Set("sigclip", 2.25))
	require.NoError(t, set.Set("niter", 8))
	require.NoError(t, set.Set("sepmed", false))
	require.NoError(t, set.Set("cleantype", "idw"))

	data, err := Export(set)
	require.NoError(t, err)

	back, err := Import(schema, data)
	require.NoError(t, err)
	assert.True(t, set.Equal(back))
}

func TestImport_Idempotent(t *testing.T) {
	schema := testSchema()
	set := schema.NewSet()
	require.NoError(t, set.Set("niter", 3))
	data, err := Export(set)
	require.NoError(t, err)

	once, err := Import(schema, data)
	require.NoError(t, err)
	twice, err := Import(schema, data)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
}

func TestImport_UnknownKeysIgnored(t *testing.T) {
	data := []byte(`
- name: sigclip
  type: real
  value: 3.5
- name: from_the_future
  type: real
  value: 99
`)
	set, err := Import(testSchema(), data)
	require.NoError(t, err)
	assert.Equal(t, 3.5, set.Real("sigclip"))
	_, ok := set.Get("from_the_future")
	assert.False(t, ok)
}

func TestImport_MissingKeysKeepDefaults(t *testing.T) {
	data := []byte(`
- name: niter
  type: integer
  value: 2
`)
	set, err := Import(testSchema(), data)
	require.NoError(t, err)
	assert.Equal(t, int64(2), set.Int("niter"))
	assert.Equal(t, 1.5, set.Real("sigclip"))
	assert.Equal(t, "meanmask", set.String("cleantype"))
}

func TestImport_BadValueKeepsDefault(t *testing.T) {
	data := []byte(`
- name: niter
  type: integer
  value: not-a-number
`)
	set, err := Import(testSchema(), data)
	require.NoError(t, err)
	assert.Equal(t, int64(6), set.Int("niter"))
}

func TestPresetStore_SaveLoadListDelete(t *testing.T) {
	schema := testSchema()
	store := NewPresetStore(t.TempDir())

	set := schema.NewSet()
	require.NoError(t, set.Set("sigclip", 2.0))
	require.NoError(t, store.Save("aggressive", set))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"aggressive"}, names)

	loaded, err := store.Load("aggressive", schema)
	require.NoError(t, err)
	assert.True(t, set.Equal(loaded))

	require.NoError(t, store.Delete("aggressive"))
	names, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = store.Load("aggressive", schema)
	assert.Error(t, err)
}

func TestPresetStore_RejectsPathEscapes(t *testing.T) {
	store := NewPresetStore(t.TempDir())
	set := testSchema().NewSet()
	assert.Error(t, store.Save("../evil", set))
	_, err := store.Load("a/b", testSchema())
	assert.Error(t, err)
}
