package metadata

// Node is a live metadata instance (a field, object, attribute, validator...).
// Implementations report their own identity; the registry checks it against
// what was requested when constructing instances.
type Node interface {
	Type() string
	SubType() string
	Name() string
}

// Factory functions, tried by CreateInstance in the order listed.
type (
	// TypedFactory receives the full identity.
	TypedFactory func(typ, subType, name string) (Node, error)
	// SubTypedFactory receives the subtype and name; the type is implied.
	SubTypedFactory func(subType, name string) (Node, error)
	// NamedFactory receives only the name; type and subtype are implied.
	NamedFactory func(name string) (Node, error)
)

// Implementation identifies the concrete implementation behind a type and
// carries the factories used to build instances of it. Two implementations
// are the same when their names are equal.
type Implementation struct {
	// Name is the implementation identity, e.g. "field.StringField".
	Name string

	NewTyped    TypedFactory
	NewSubTyped SubTypedFactory
	NewNamed    NamedFactory
}

// NewImplementation returns an implementation with a three-argument factory.
func NewImplementation(name string, factory TypedFactory) Implementation {
	return Implementation{Name: name, NewTyped: factory}
}

// SameAs reports whether both values name the same implementation.
func (i Implementation) SameAs(other Implementation) bool {
	return i.Name == other.Name
}

// HasFactory reports whether at least one factory is set.
func (i Implementation) HasFactory() bool {
	return i.NewTyped != nil || i.NewSubTyped != nil || i.NewNamed != nil
}

func (i Implementation) String() string {
	return i.Name
}

// NodeIdentity returns the qualified name and name of a node, for messages.
func NodeIdentity(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return describeDeclaration(normalize(n.Type()), normalize(n.SubType()), n.Name())
}
