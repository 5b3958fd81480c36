package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

func TestLoadTree(t *testing.T) {
	root, err := LoadTree("testdata/trees/orders.yaml")
	require.NoError(t, err)
	assert.Equal(t, "loader.simple[shop]", root.String())
	require.Len(t, root.Children, 1)
	assert.Len(t, root.Children[0].Children, 5)

	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"object","sub_type":"map","name":"m"}`), 0o644))
	root, err = LoadTree(path)
	require.NoError(t, err)
	assert.Equal(t, "m", root.Name)
}

func TestValidateTree(t *testing.T) {
	r := discoverWithCatalogs(t, "testdata/catalogs")
	root, err := LoadTree("testdata/trees/orders.yaml")
	require.NoError(t, err)

	report := ValidateTree(r, *root)
	assert.False(t, report.OK())
	assert.Equal(t, 8, report.Checked)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Issues, 3)

	order := "loader.simple[shop] > object.pojo[Order]"

	assert.Equal(t, order+" > field.currency[discount]", report.Issues[0].Path)
	assert.Contains(t, report.Issues[0].Err.Error(), "missing required children: currencyCode")

	assert.Equal(t, order+" > field.string[note] > object.map[Misplaced]", report.Issues[1].Path)
	assert.True(t, errors.Is(report.Issues[1].Err, metadata.ErrPlacementViolation))

	assert.Equal(t, order+" > field.unknown[broken]", report.Issues[2].Path)
	assert.True(t, errors.Is(report.Issues[2].Err, metadata.ErrUnknownType))
	assert.Contains(t, report.Issues[2].String(), "field.unknown[broken]: ")
}

func TestValidateTree_UnknownRoot(t *testing.T) {
	report := ValidateTree(metadata.NewRegistry(), TreeNode{
		Type: "loader", SubType: "simple", Name: "x",
		Children: []TreeNode{{Type: "object", SubType: "map", Name: "a", Children: []TreeNode{{}}}},
	})
	require.Len(t, report.Issues, 1)
	assert.Equal(t, 0, report.Checked)
	assert.Equal(t, 2, report.Skipped)
}

func TestParseNode(t *testing.T) {
	n, err := ParseNode(" field.string[maxLength] ")
	require.NoError(t, err)
	assert.Equal(t, TreeNode{Type: "field", SubType: "string", Name: "maxLength"}, n)

	n, err = ParseNode("Object.Pojo")
	require.NoError(t, err)
	assert.Equal(t, TreeNode{Type: "object", SubType: "pojo"}, n)

	for _, bad := range []string{"field", "field.string[x", ".string[x]", ""} {
		_, err := ParseNode(bad)
		assert.Error(t, err, bad)
	}
}

func TestCheckPlacement(t *testing.T) {
	r := discoverWithCatalogs(t, "testdata/catalogs")
	node := func(ref string) TreeNode {
		n, err := ParseNode(ref)
		require.NoError(t, err)
		return n
	}

	assert.NoError(t, CheckPlacement(r, node("field.string"), node("attr.int[maxLength]")))
	assert.NoError(t, CheckPlacement(r, node("attr.string[currencyCode]"), node("validator.length")), "allowed by money.range")

	err := CheckPlacement(r, node("field.string"), node("object.map"))
	assert.True(t, errors.Is(err, metadata.ErrPlacementViolation))

	err = CheckPlacement(r, node("field.strng"), node("attr.int[x]"))
	assert.True(t, errors.Is(err, metadata.ErrUnknownType))
}
