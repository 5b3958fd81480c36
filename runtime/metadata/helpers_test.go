package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testNode struct {
	typ, subType, name string
}

func (n *testNode) Type() string    { return n.typ }
func (n *testNode) SubType() string { return n.subType }
func (n *testNode) Name() string    { return n.name }

func node(typ, subType, name string) Node {
	return &testNode{typ: typ, subType: subType, name: name}
}

func newTestNode(typ, subType, name string) (Node, error) {
	return node(typ, subType, name), nil
}

func testImpl(name string) Implementation {
	return NewImplementation(name, newTestNode)
}

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	return NewRegistry(append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
}

func mustRegister(t *testing.T, r *Registry, impl string, configure func(*TypeDefinitionBuilder)) {
	t.Helper()
	require.NoError(t, r.RegisterType(testImpl(impl), configure))
}

// registerCoreBases registers the default core base types.
func registerCoreBases(t *testing.T, r *Registry) {
	t.Helper()
	for _, id := range DefaultCoreTypes() {
		mustRegister(t, r, id.Type+".Base", func(b *TypeDefinitionBuilder) {
			b.Type(id.Type).SubType(id.SubType)
		})
	}
}
