package metadata

import (
	"fmt"
	"slices"
)

// TypeDefinition describes one registered metadata kind: its identity, its
// implementation, the placement rules it declares directly and the rules it
// inherits from its parent type.
//
// A definition is immutable once registered. Inheritance resolution and
// extension produce new definitions that replace the stored one, so readers
// holding a definition never observe it changing.
type TypeDefinition struct {
	id             TypeIdentifier
	implementation Implementation
	description    string
	parent         TypeIdentifier
	hasParent      bool

	children     []AcceptsChildren
	parents      []AcceptsParents
	requirements []ChildRequirement

	inheritedChildren []AcceptsChildren
	inheritedParents  []AcceptsParents
	resolved          bool

	// flattened direct ∪ inherited views, computed on resolution
	allChildren []AcceptsChildren
	allParents  []AcceptsParents
}

func newTypeDefinition(id TypeIdentifier, impl Implementation, description string,
	children []AcceptsChildren, parents []AcceptsParents, requirements []ChildRequirement,
	parent TypeIdentifier, hasParent bool) *TypeDefinition {
	d := &TypeDefinition{
		id:             id,
		implementation: impl,
		description:    description,
		parent:         parent,
		hasParent:      hasParent,
		children:       dedupe(children),
		parents:        dedupe(parents),
		requirements:   slices.Clone(requirements),
		resolved:       !hasParent,
	}
	d.flatten()
	return d
}

// ID returns the type identifier.
func (d *TypeDefinition) ID() TypeIdentifier { return d.id }

// Type returns the primary type.
func (d *TypeDefinition) Type() string { return d.id.Type }

// SubType returns the subtype.
func (d *TypeDefinition) SubType() string { return d.id.SubType }

// QualifiedName returns "type.subtype".
func (d *TypeDefinition) QualifiedName() string { return d.id.QualifiedName() }

// Implementation returns the implementation reference.
func (d *TypeDefinition) Implementation() Implementation { return d.implementation }

// Description returns the human description.
func (d *TypeDefinition) Description() string { return d.description }

// HasParent reports whether the type inherits from another type.
func (d *TypeDefinition) HasParent() bool { return d.hasParent }

// Parent returns the parent identifier; ok is false when there is none.
func (d *TypeDefinition) Parent() (TypeIdentifier, bool) { return d.parent, d.hasParent }

// ParentQualifiedName returns the parent's "type.subtype" or "" without a parent.
func (d *TypeDefinition) ParentQualifiedName() string {
	if !d.hasParent {
		return ""
	}
	return d.parent.QualifiedName()
}

// IsResolved reports whether inherited rules are in place. Types without a
// parent are always resolved.
func (d *TypeDefinition) IsResolved() bool { return d.resolved }

// DirectAcceptsChildren returns the rules declared by this type itself.
func (d *TypeDefinition) DirectAcceptsChildren() []AcceptsChildren { return slices.Clone(d.children) }

// InheritedAcceptsChildren returns the rules inherited from the parent chain.
func (d *TypeDefinition) InheritedAcceptsChildren() []AcceptsChildren {
	return slices.Clone(d.inheritedChildren)
}

// AllAcceptsChildren returns direct and inherited rules.
func (d *TypeDefinition) AllAcceptsChildren() []AcceptsChildren { return slices.Clone(d.allChildren) }

// DirectAcceptsParents returns the child-side rules declared by this type.
func (d *TypeDefinition) DirectAcceptsParents() []AcceptsParents { return slices.Clone(d.parents) }

// InheritedAcceptsParents returns the child-side rules inherited from the parent chain.
func (d *TypeDefinition) InheritedAcceptsParents() []AcceptsParents {
	return slices.Clone(d.inheritedParents)
}

// AllAcceptsParents returns direct and inherited child-side rules.
func (d *TypeDefinition) AllAcceptsParents() []AcceptsParents { return slices.Clone(d.allParents) }

// ChildRequirements returns the named requirements declared through the
// legacy builder methods.
func (d *TypeDefinition) ChildRequirements() []ChildRequirement { return slices.Clone(d.requirements) }

// AcceptsChild reports whether any direct or inherited rule accepts the child.
func (d *TypeDefinition) AcceptsChild(childType, childSubType, childName string) bool {
	for _, rule := range d.allChildren {
		if rule.Matches(childType, childSubType, childName) {
			return true
		}
	}
	return false
}

// AcceptsParent reports whether this type may be placed under the given
// parent with the proposed name.
func (d *TypeDefinition) AcceptsParent(parentType, parentSubType, proposedName string) bool {
	for _, rule := range d.allParents {
		if rule.Matches(parentType, parentSubType, proposedName) {
			return true
		}
	}
	return false
}

func (d *TypeDefinition) String() string {
	return fmt.Sprintf("TypeDefinition[%s -> %s, children=%d, parents=%d]",
		d.QualifiedName(), d.implementation.Name, len(d.allChildren), len(d.allParents))
}

// inheritFrom returns a resolved copy of d carrying the parent's flattened
// rules. A parent rule is dropped when d directly declares a rule with the
// same (type, subtype) shape, whatever the name constraints of either rule.
func (d *TypeDefinition) inheritFrom(parent *TypeDefinition) *TypeDefinition {
	out := d.clone()
	out.inheritedChildren = shadow(parent.allChildren, d.children)
	out.inheritedParents = shadow(parent.allParents, d.parents)
	out.resolved = true
	out.flatten()
	return out
}

// extend returns a copy of d whose direct rules are d's plus ext's. Identity,
// parent and inherited rules are kept as they are.
func (d *TypeDefinition) extend(ext *TypeDefinition) *TypeDefinition {
	out := d.clone()
	out.children = dedupe(append(slices.Clone(d.children), ext.children...))
	out.parents = dedupe(append(slices.Clone(d.parents), ext.parents...))
	out.requirements = dedupe(append(slices.Clone(d.requirements), ext.requirements...))
	if ext.description != "" {
		out.description = ext.description
	}
	out.flatten()
	return out
}

// unresolved returns a copy with inherited rules cleared, used when the same
// implementation is registered again and must be resolved afresh.
func (d *TypeDefinition) unresolved() *TypeDefinition {
	out := d.clone()
	out.inheritedChildren = nil
	out.inheritedParents = nil
	out.resolved = !d.hasParent
	out.flatten()
	return out
}

func (d *TypeDefinition) clone() *TypeDefinition {
	out := *d
	out.children = slices.Clone(d.children)
	out.parents = slices.Clone(d.parents)
	out.requirements = slices.Clone(d.requirements)
	out.inheritedChildren = slices.Clone(d.inheritedChildren)
	out.inheritedParents = slices.Clone(d.inheritedParents)
	return &out
}

func (d *TypeDefinition) flatten() {
	d.allChildren = append(slices.Clone(d.children), d.inheritedChildren...)
	d.allParents = append(slices.Clone(d.parents), d.inheritedParents...)
}

type shaped interface {
	comparable
	Shape() TypeIdentifier
}

// shadow returns the inherited rules whose shape is not declared directly.
func shadow[T shaped](inherited, direct []T) []T {
	declared := make(map[TypeIdentifier]bool, len(direct))
	for _, rule := range direct {
		declared[rule.Shape()] = true
	}
	var out []T
	for _, rule := range inherited {
		if declared[rule.Shape()] {
			continue
		}
		out = append(out, rule)
	}
	return dedupe(out)
}

func dedupe[T comparable](rules []T) []T {
	if len(rules) == 0 {
		return nil
	}
	seen := make(map[T]bool, len(rules))
	out := make([]T, 0, len(rules))
	for _, rule := range rules {
		if seen[rule] {
			continue
		}
		seen[rule] = true
		out = append(out, rule)
	}
	return out
}
