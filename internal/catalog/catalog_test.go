package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
	"github.com/conduit-lang/metaregistry/runtime/metadata/coretypes"
)

func discoverWithCatalogs(t *testing.T, paths ...string) *metadata.Registry {
	t.Helper()
	logger := zaptest.NewLogger(t)
	r := metadata.NewRegistry(metadata.WithLogger(logger))
	strategy := metadata.NewChainStrategy(coretypes.Strategy(), NewStrategy(paths, FormatAuto, logger))
	_, err := r.Discover(context.Background(), strategy)
	require.NoError(t, err)
	return r
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "AUTO": FormatAuto, "yaml": FormatYAML, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("toml")
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	c, err := Load("testdata/catalogs/database.yaml", FormatAuto)
	require.NoError(t, err)

	assert.Equal(t, "database-extensions", c.Provider.Name)
	assert.Equal(t, 100, c.Provider.Priority)
	assert.Equal(t, []string{"field-types", "object-types"}, c.Provider.Dependencies)
	require.Len(t, c.Extensions, 2)
	assert.Equal(t, "object.MetaObject", c.Extensions[0].Implementation)
	assert.Equal(t, "field.base", c.Extensions[1].Target)
	require.Len(t, c.GlobalRequirements, 1)
	assert.Equal(t, "columns", c.GlobalRequirements[0].Name)
	assert.Equal(t, "key.*", c.GlobalRequirements[0].Parent)
	assert.Equal(t, "testdata/catalogs/database.yaml", c.Path)
}

func TestLoad_JSON(t *testing.T) {
	c, err := Load("testdata/catalogs/nested/money.json", FormatAuto)
	require.NoError(t, err)

	require.Len(t, c.Types, 1)
	assert.Equal(t, "field.double", c.Types[0].InheritsFrom)
	assert.True(t, c.Types[0].Requirements[0].Required)
	assert.Equal(t, "money.range", c.Constraints[0].ID)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		format  Format
		invalid bool
	}{
		{"missing provider name", "provider: {priority: 1}", FormatYAML, true},
		{"type without subtype", "provider: {name: p}\ntypes: [{type: field}]", FormatYAML, true},
		{"bad parent", "provider: {name: p}\ntypes: [{type: field, sub_type: x, inherits_from: base}]", FormatYAML, true},
		{"extension target ambiguous", "provider: {name: p}\nextensions: [{implementation: a, type: field.base}]", FormatYAML, true},
		{"global requirement parent", "provider: {name: p}\nglobal_requirements: [{parent: object, name: x, type: attr, sub_type: string}]", FormatYAML, true},
		{"constraint without id", "provider: {name: p}\nconstraints: [{parent: '*', child: '*'}]", FormatYAML, true},
		{"unknown yaml field", "provider: {name: p}\ntypez: []", FormatYAML, false},
		{"unknown json field", `{"provider": {"name": "p"}, "extra": 1}`, FormatAuto, false},
		{"malformed", "provider: [", FormatYAML, false},
		{"unknown format", "provider: {name: p}", Format("toml"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.format)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalidCatalog), err.Error())
		})
	}
}

func TestStrategy_Files(t *testing.T) {
	s := NewStrategy([]string{"testdata/catalogs"}, FormatAuto, nil)
	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "catalogs", "database.yaml"),
		filepath.Join("testdata", "catalogs", "nested", "money.json"),
	}, files, "hidden directories are skipped")
	assert.Equal(t, "catalogs(testdata/catalogs)", s.Description())

	_, err = NewStrategy([]string{"testdata/missing"}, FormatAuto, nil).Files()
	assert.Error(t, err)
}

func TestStrategy_DiscoverRegistersCatalogs(t *testing.T) {
	r := discoverWithCatalogs(t, "testdata/catalogs")

	def, ok := r.TypeDefinition("field", "currency")
	require.True(t, ok)
	assert.True(t, def.IsResolved())
	assert.Equal(t, "field.CurrencyField", def.Implementation().Name)

	// own rule, rule from field.double, attr.* from field.base
	assert.True(t, r.AcceptsChild("field", "currency", "attr", "string", "currencyCode"))
	assert.True(t, r.AcceptsChild("field", "currency", "attr", "int", "precision"))
	assert.True(t, r.AcceptsChild("field", "currency", "attr", "boolean", "dbNullable"))

	assert.True(t, r.AcceptsChild("object", "base", "attr", "string", "dbTable"))
	assert.False(t, r.AcceptsChild("object", "map", "attr", "string", "dbTable"), "object.map resolved before the extension")
	assert.True(t, r.AcceptsChild("key", "primary", "field", "string", "columns"), "global requirement on key.*")
	assert.False(t, r.AcceptsChild("key", "primary", "field", "string", "other"))

	assert.Equal(t, []string{"currencyCode"}, r.MissingRequiredChildren("field", "currency", nil))
	assert.Equal(t, "EXCELLENT", r.ValidateConsistency().Status())
}

func TestStrategy_DiscoverFailsOnBadCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("provider: {}"), 0o644))

	r := metadata.NewRegistry()
	_, err := r.Discover(context.Background(), NewStrategy([]string{dir}, FormatAuto, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))

	var provErr *metadata.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, metadata.PhaseDiscovery, provErr.Phase)
}

func TestCatalog_RegisterFailureIsAtomic(t *testing.T) {
	dir := t.TempDir()
	doc := `provider: {name: clash, dependencies: [field-types]}
types:
  - {type: field, sub_type: extra, implementation: field.Extra, inherits_from: field.base}
  - {type: field, sub_type: string, implementation: field.OtherString}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clash.yaml"), []byte(doc), 0o644))

	r := metadata.NewRegistry()
	_, err := r.Discover(context.Background(),
		metadata.NewChainStrategy(coretypes.Strategy(), NewStrategy([]string{dir}, FormatAuto, nil)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrRegistrationConflict))
	assert.Contains(t, err.Error(), "type field.string")
	assert.Equal(t, 0, r.Len(), "nothing from the failed run is published")
}

func TestCatalog_DefaultImplementationName(t *testing.T) {
	c, err := Parse([]byte("provider: {name: p}\ntypes: [{type: widget, sub_type: base}]"), FormatYAML)
	require.NoError(t, err)

	r := metadata.NewRegistry()
	require.NoError(t, c.Register(r))
	def, ok := r.TypeDefinition("widget", "base")
	require.True(t, ok)
	assert.Equal(t, "catalog.widget.base", def.Implementation().Name)

	n, err := r.CreateInstance("widget", "base", "w1")
	require.NoError(t, err)
	assert.Equal(t, &Node{TypeName: "widget", SubTypeName: "base", NodeName: "w1"}, n)
}

func TestCatalog_BadConstraintPattern(t *testing.T) {
	c, err := Parse([]byte("provider: {name: p}\nconstraints: [{id: c, parent: 'field', child: '*'}]"), FormatYAML)
	require.NoError(t, err)
	assert.ErrorContains(t, c.Register(metadata.NewRegistry()), "constraint c")
}
