package metadata

import (
	"fmt"

	"go.uber.org/zap"
)

// CreateInstance constructs a node of the registered type. Factories are
// tried in order: the three-argument TypedFactory, then SubTypedFactory,
// then NamedFactory. The node must report exactly the requested identity.
func (r *Registry) CreateInstance(typ, subType, name string) (Node, error) {
	def, err := r.FindType(typ, subType)
	if err != nil {
		return nil, err
	}
	id := def.id
	impl := def.implementation

	var (
		node    Node
		factory string
	)
	switch {
	case impl.NewTyped != nil:
		factory = "typed"
		node, err = impl.NewTyped(id.Type, id.SubType, name)
	case impl.NewSubTyped != nil:
		factory = "subtyped"
		node, err = impl.NewSubTyped(id.SubType, name)
	case impl.NewNamed != nil:
		factory = "named"
		node, err = impl.NewNamed(name)
	default:
		return nil, newInstanceError(id, "no factory for implementation "+impl.Name).
			WithSuggestion("set NewTyped, NewSubTyped or NewNamed on the implementation")
	}
	if err != nil {
		return nil, newInstanceError(id,
			fmt.Sprintf("%s factory of %s failed for name %q", factory, impl.Name, name)).
			WithCause(err)
	}
	if node == nil {
		return nil, newInstanceError(id, fmt.Sprintf("%s factory of %s returned nil", factory, impl.Name))
	}

	if node.Type() != id.Type || node.SubType() != id.SubType || node.Name() != name {
		return nil, newInstanceError(id, "instance reports the wrong identity").
			WithExpected(describeDeclaration(id.Type, id.SubType, name)).
			WithActual(describeDeclaration(node.Type(), node.SubType(), node.Name()))
	}

	r.logger.Debug("created instance",
		zap.String("type", id.QualifiedName()),
		zap.String("name", name),
		zap.String("factory", factory))
	return node, nil
}
