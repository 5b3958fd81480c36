package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerWith(t *testing.T, r *Registry, impl Implementation, typ, subType string) {
	t.Helper()
	require.NoError(t, r.RegisterType(impl, func(b *TypeDefinitionBuilder) {
		b.Type(typ).SubType(subType)
	}))
}

func TestCreateInstance_TypedFactory(t *testing.T) {
	r := newTestRegistry(t)
	registerWith(t, r, testImpl("field.StringField"), "field", "string")

	n, err := r.CreateInstance("field", "string", "x")
	require.NoError(t, err)
	assert.Equal(t, "field", n.Type())
	assert.Equal(t, "string", n.SubType())
	assert.Equal(t, "x", n.Name())

	n, err = r.CreateInstance("FIELD", "String", "Email")
	require.NoError(t, err)
	assert.Equal(t, "field.string[Email]", NodeIdentity(n))
}

func TestCreateInstance_FactoryPreference(t *testing.T) {
	var called []string
	impl := Implementation{
		Name: "field.IntField",
		NewTyped: func(typ, subType, name string) (Node, error) {
			called = append(called, "typed")
			return node(typ, subType, name), nil
		},
		NewSubTyped: func(subType, name string) (Node, error) {
			called = append(called, "subtyped")
			return node("field", subType, name), nil
		},
		NewNamed: func(name string) (Node, error) {
			called = append(called, "named")
			return node("field", "int", name), nil
		},
	}

	r := newTestRegistry(t)
	registerWith(t, r, impl, "field", "int")
	_, err := r.CreateInstance("field", "int", "count")
	require.NoError(t, err)
	assert.Equal(t, []string{"typed"}, called)

	called = nil
	impl.NewTyped = nil
	r = newTestRegistry(t)
	registerWith(t, r, impl, "field", "int")
	_, err = r.CreateInstance("field", "int", "count")
	require.NoError(t, err)
	assert.Equal(t, []string{"subtyped"}, called)

	called = nil
	impl.NewSubTyped = nil
	r = newTestRegistry(t)
	registerWith(t, r, impl, "field", "int")
	_, err = r.CreateInstance("field", "int", "count")
	require.NoError(t, err)
	assert.Equal(t, []string{"named"}, called)
}

func TestCreateInstance_Failures(t *testing.T) {
	factoryErr := errors.New("boom")

	tests := []struct {
		name string
		impl Implementation
	}{
		{"no factory", Implementation{Name: "field.Bare"}},
		{"factory error", Implementation{Name: "field.Failing", NewNamed: func(string) (Node, error) {
			return nil, factoryErr
		}}},
		{"nil node", Implementation{Name: "field.Nil", NewNamed: func(string) (Node, error) {
			return nil, nil
		}}},
		{"wrong subtype", Implementation{Name: "field.Liar", NewNamed: func(name string) (Node, error) {
			return node("field", "int", name), nil
		}}},
		{"wrong name", Implementation{Name: "field.Renamer", NewTyped: func(typ, subType, name string) (Node, error) {
			return node(typ, subType, name+"2"), nil
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t)
			registerWith(t, r, tt.impl, "field", "string")

			n, err := r.CreateInstance("field", "string", "x")
			require.Error(t, err)
			assert.Nil(t, n)
			assert.True(t, errors.Is(err, ErrInstanceConstruction))

			var regErr *RegistryError
			require.True(t, errors.As(err, &regErr))
			assert.Equal(t, CodeInstanceConstruction, regErr.Code)
			assert.Equal(t, SeverityRecoverable, regErr.Severity)
		})
	}
}

func TestCreateInstance_WrapsFactoryError(t *testing.T) {
	factoryErr := errors.New("boom")
	r := newTestRegistry(t)
	registerWith(t, r, Implementation{Name: "field.Failing", NewNamed: func(string) (Node, error) {
		return nil, factoryErr
	}}, "field", "string")

	_, err := r.CreateInstance("field", "string", "x")
	assert.True(t, errors.Is(err, factoryErr))
	assert.Contains(t, err.Error(), "field.Failing")
}

func TestCreateInstance_IdentityMismatchReportsBoth(t *testing.T) {
	r := newTestRegistry(t)
	registerWith(t, r, Implementation{Name: "field.Liar", NewNamed: func(name string) (Node, error) {
		return node("field", "int", name), nil
	}}, "field", "string")

	_, err := r.CreateInstance("field", "string", "x")
	var regErr *RegistryError
	require.True(t, errors.As(err, &regErr))
	assert.Equal(t, "field.string[x]", regErr.Expected)
	assert.Equal(t, "field.int[x]", regErr.Actual)
}

func TestCreateInstance_UnknownType(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.CreateInstance("field", "string", "x")
	assert.True(t, errors.Is(err, ErrUnknownType))
}
