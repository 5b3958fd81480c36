package metadata

import (
	"fmt"
	"slices"
	"strings"
)

// TypeDefinitionBuilder accumulates the declarations of one type. It is
// handed to the configurator passed to Registry.RegisterType and
// Registry.ExtendType.
//
//	reg.RegisterType(stringField, func(b *metadata.TypeDefinitionBuilder) {
//		b.Type("field").SubType("string").
//			Description("String field with length and pattern validation").
//			InheritsFromBaseField().
//			AcceptsNamedAttributes("int", "maxLength")
//	})
type TypeDefinitionBuilder struct {
	implementation Implementation
	typ            string
	subType        string
	description    string
	parentType     string
	parentSubType  string
	children       []AcceptsChildren
	parents        []AcceptsParents
	requirements   []ChildRequirement
	errs           []string
}

// NewTypeDefinitionBuilder starts a definition for the given implementation.
func NewTypeDefinitionBuilder(impl Implementation) *TypeDefinitionBuilder {
	return &TypeDefinitionBuilder{implementation: impl}
}

// BuilderFrom starts a builder holding a copy of an existing definition's
// identity, parent and direct declarations. Inherited rules are not copied.
func BuilderFrom(def *TypeDefinition) *TypeDefinitionBuilder {
	b := &TypeDefinitionBuilder{
		implementation: def.implementation,
		typ:            def.id.Type,
		subType:        def.id.SubType,
		description:    def.description,
		children:       slices.Clone(def.children),
		parents:        slices.Clone(def.parents),
		requirements:   slices.Clone(def.requirements),
	}
	if def.hasParent {
		b.parentType = def.parent.Type
		b.parentSubType = def.parent.SubType
	}
	return b
}

// Type sets the primary type.
func (b *TypeDefinitionBuilder) Type(typ string) *TypeDefinitionBuilder {
	b.typ = typ
	return b
}

// SubType sets the subtype.
func (b *TypeDefinitionBuilder) SubType(subType string) *TypeDefinitionBuilder {
	b.subType = subType
	return b
}

// Description sets the human description.
func (b *TypeDefinitionBuilder) Description(description string) *TypeDefinitionBuilder {
	b.description = description
	return b
}

// InheritsFrom declares the single parent type.
func (b *TypeDefinitionBuilder) InheritsFrom(parentType, parentSubType string) *TypeDefinitionBuilder {
	if strings.TrimSpace(parentType) == "" || strings.TrimSpace(parentSubType) == "" {
		b.errs = append(b.errs, "parent type and subtype must both be set")
		return b
	}
	b.parentType = parentType
	b.parentSubType = parentSubType
	return b
}

// InheritsFromBaseField is InheritsFrom("field", "base").
func (b *TypeDefinitionBuilder) InheritsFromBaseField() *TypeDefinitionBuilder {
	return b.InheritsFrom("field", BaseSubType)
}

// InheritsFromBaseObject is InheritsFrom("object", "base").
func (b *TypeDefinitionBuilder) InheritsFromBaseObject() *TypeDefinitionBuilder {
	return b.InheritsFrom("object", BaseSubType)
}

// AcceptsChildren accepts children of the type and subtype with any name.
func (b *TypeDefinitionBuilder) AcceptsChildren(childType, childSubType string) *TypeDefinitionBuilder {
	return b.AcceptsNamedChildren(childType, childSubType, "")
}

// AcceptsNamedChildren accepts children of the type and subtype with the given name.
func (b *TypeDefinitionBuilder) AcceptsNamedChildren(childType, childSubType, childName string) *TypeDefinitionBuilder {
	if strings.TrimSpace(childType) == "" {
		b.errs = append(b.errs, "accepted child type must be set")
		return b
	}
	b.children = append(b.children, NewAcceptsChildren(childType, childSubType, childName))
	return b
}

// AcceptsParents allows this type to be placed under the parent type and subtype.
func (b *TypeDefinitionBuilder) AcceptsParents(parentType, parentSubType string) *TypeDefinitionBuilder {
	return b.AcceptsNamedParents(parentType, parentSubType, "")
}

// AcceptsNamedParents allows placement under the parent only with the given child name.
func (b *TypeDefinitionBuilder) AcceptsNamedParents(parentType, parentSubType, expectedChildName string) *TypeDefinitionBuilder {
	if strings.TrimSpace(parentType) == "" {
		b.errs = append(b.errs, "accepted parent type must be set")
		return b
	}
	b.parents = append(b.parents, NewAcceptsParents(parentType, parentSubType, expectedChildName))
	return b
}

// AcceptsAttributes accepts attr children of the subtype with any name.
func (b *TypeDefinitionBuilder) AcceptsAttributes(attrSubType string) *TypeDefinitionBuilder {
	return b.AcceptsChildren("attr", attrSubType)
}

// AcceptsNamedAttributes accepts the named attr child of the subtype.
func (b *TypeDefinitionBuilder) AcceptsNamedAttributes(attrSubType, attrName string) *TypeDefinitionBuilder {
	return b.AcceptsNamedChildren("attr", attrSubType, attrName)
}

// OptionalChild is the requirement-style spelling of AcceptsNamedChildren.
// A name of "*" accepts any name.
//
// Deprecated: use AcceptsChildren or AcceptsNamedChildren.
func (b *TypeDefinitionBuilder) OptionalChild(childType, childSubType, childName string) *TypeDefinitionBuilder {
	return b.ChildRequirement(OptionalChildRequirement(childName, childType, childSubType))
}

// RequiredChild accepts the named child and records it as required, which
// Registry.MissingRequiredChildren reports when absent.
//
// Deprecated: use AcceptsNamedChildren; required-ness belongs to validators.
func (b *TypeDefinitionBuilder) RequiredChild(childType, childSubType, childName string) *TypeDefinitionBuilder {
	return b.ChildRequirement(RequiredChildRequirement(childName, childType, childSubType))
}

// ChildRequirement converts a legacy requirement into an accepts declaration.
//
// Deprecated: use AcceptsChildren or AcceptsNamedChildren.
func (b *TypeDefinitionBuilder) ChildRequirement(req ChildRequirement) *TypeDefinitionBuilder {
	if req.Required && !req.IsWildcard() {
		b.requirements = append(b.requirements, req)
	}
	return b.AcceptsNamedChildren(req.ExpectedType, req.ExpectedSubType, req.Name)
}

// Identifier returns the identifier the builder will produce.
func (b *TypeDefinitionBuilder) Identifier() TypeIdentifier {
	return NewTypeIdentifier(b.typ, b.subType)
}

// AcceptsChildrenCount returns the number of direct child declarations so far.
func (b *TypeDefinitionBuilder) AcceptsChildrenCount() int { return len(b.children) }

// AcceptsParentsCount returns the number of direct parent declarations so far.
func (b *TypeDefinitionBuilder) AcceptsParentsCount() int { return len(b.parents) }

// Build validates the accumulated state and returns the definition.
func (b *TypeDefinitionBuilder) Build() (*TypeDefinition, error) {
	id := b.Identifier()
	if len(b.errs) > 0 {
		return nil, newInvalidDefinition(id, strings.Join(b.errs, "; "))
	}
	if id.Type == "" {
		return nil, newInvalidDefinition(id, "type must be set")
	}
	if id.SubType == "" {
		return nil, newInvalidDefinition(id, "subtype must be set")
	}
	if id.SubType == Wildcard {
		return nil, newInvalidDefinition(id, "subtype cannot be a wildcard")
	}
	if b.implementation.Name == "" {
		return nil, newInvalidDefinition(id, "implementation name must be set")
	}

	var parent TypeIdentifier
	hasParent := b.parentType != ""
	if hasParent {
		parent = NewTypeIdentifier(b.parentType, b.parentSubType)
		if parent == id {
			return nil, newInvalidDefinition(id, "type cannot inherit from itself")
		}
	}

	return newTypeDefinition(id, b.implementation, b.description,
		b.children, b.parents, b.requirements, parent, hasParent), nil
}

func (b *TypeDefinitionBuilder) String() string {
	name := "undefined"
	if b.typ != "" && b.subType != "" {
		name = b.Identifier().QualifiedName()
	}
	return fmt.Sprintf("TypeDefinitionBuilder[%s -> %s, acceptsChildren=%d, acceptsParents=%d]",
		name, b.implementation.Name, len(b.children), len(b.parents))
}
