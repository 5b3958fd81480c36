package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTypeIdentifier_Normalizes(t *testing.T) {
	id := NewTypeIdentifier(" Field ", "STRING")
	assert.Equal(t, TypeIdentifier{Type: "field", SubType: "string"}, id)
	assert.Equal(t, "field.string", id.QualifiedName())
	assert.Equal(t, "field.string", id.String())
	assert.False(t, id.IsZero())
	assert.True(t, TypeIdentifier{}.IsZero())
}

func TestParseTypeIdentifier(t *testing.T) {
	id, err := ParseTypeIdentifier("Object.Pojo")
	require.NoError(t, err)
	assert.Equal(t, NewTypeIdentifier("object", "pojo"), id)

	for _, bad := range []string{"", "field", ".string", "field.", " . "} {
		_, err := ParseTypeIdentifier(bad)
		assert.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestAcceptsChildren_Matches(t *testing.T) {
	anyAttr := NewAcceptsChildren("attr", Wildcard, "")
	intAttr := NewAcceptsChildren("attr", "int", "")
	maxLength := NewAcceptsChildren("attr", "int", "maxLength")

	tests := []struct {
		name      string
		decl      AcceptsChildren
		typ       string
		subType   string
		childName string
		want      bool
	}{
		{"wildcard subtype accepts string", anyAttr, "attr", "string", "anything", true},
		{"wildcard subtype accepts int", anyAttr, "attr", "int", "x", true},
		{"primary type is never wildcarded", anyAttr, "field", "string", "x", false},
		{"exact subtype", intAttr, "attr", "int", "x", true},
		{"subtype mismatch", intAttr, "attr", "string", "x", false},
		{"named match", maxLength, "attr", "int", "maxLength", true},
		{"named mismatch", maxLength, "attr", "int", "minLength", false},
		{"names are case-sensitive", maxLength, "attr", "int", "MaxLength", false},
		{"types are case-insensitive", NewAcceptsChildren("ATTR", "Int", ""), "attr", "INT", "x", true},
		{"star name is unconstrained", NewAcceptsChildren("attr", "int", AnyName), "attr", "int", "whatever", true},
		{"empty subtype is a wildcard", NewAcceptsChildren("attr", "", ""), "attr", "boolean", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.decl.Matches(tt.typ, tt.subType, tt.childName))
		})
	}
}

func TestAcceptsParents_Matches(t *testing.T) {
	decl := NewAcceptsParents("field", "string", "maxLength")

	assert.True(t, decl.Matches("field", "string", "maxLength"))
	assert.False(t, decl.Matches("field", "string", "other"))
	assert.False(t, decl.Matches("field", "int", "maxLength"))
	assert.True(t, NewAcceptsParents("object", "*", "").Matches("object", "pojo", "anything"))
}

func TestDeclarations_ShapeAndString(t *testing.T) {
	child := NewAcceptsChildren("attr", "*", "name")
	assert.Equal(t, TypeIdentifier{Type: "attr", SubType: "*"}, child.Shape())
	assert.Equal(t, "attr.*[name]", child.String())
	assert.Equal(t, "attr.int", NewAcceptsChildren("attr", "int", "").String())

	parent := NewAcceptsParents("Object", "Pojo", "")
	assert.Equal(t, NewTypeIdentifier("object", "pojo"), parent.Shape())
	assert.Equal(t, "object.pojo", parent.String())
}

func TestChildRequirement_Matches(t *testing.T) {
	req := RequiredChildRequirement("id", "field", "long")
	assert.True(t, req.Matches("field", "long", "id"))
	assert.False(t, req.Matches("field", "long", "name"))
	assert.False(t, req.IsWildcard())
	assert.Equal(t, "required field.long[id]", req.Describe())

	wildcard := OptionalChildRequirement("*", "attr", "*")
	assert.True(t, wildcard.IsWildcard())
	assert.True(t, wildcard.Matches("attr", "string", "anything"))
	assert.Equal(t, NewAcceptsChildren("attr", "*", ""), wildcard.AsAcceptsChildren())
}
