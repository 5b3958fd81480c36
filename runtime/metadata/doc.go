// Package metadata provides the type registry behind the metadata model:
// every modeled entity (field, object, attribute, validator, key, view,
// loader) is described by a declarative TypeDefinition instead of a fixed
// class hierarchy.
//
// # Overview
//
// A type is identified by a (type, subtype) pair such as field.string. Its
// definition declares, in both directions, where it may appear:
//
//   - AcceptsChildren: which children the type accepts (parent side)
//   - AcceptsParents: which parents the type may be placed under (child side)
//
// Definitions may inherit from one parent type. Inherited rules are merged
// when the parent is registered; a child registered before its parent is
// deferred and resolved as soon as the parent (and its own ancestry) is in
// place, so registration order never changes the final answers.
//
// # Registering Types
//
// Types are registered with a configurator operating on a builder:
//
//	reg := metadata.NewRegistry(metadata.WithLogger(logger))
//
//	err := reg.RegisterType(metadata.NewImplementation("field.StringField", newStringField),
//		func(b *metadata.TypeDefinitionBuilder) {
//			b.Type("field").SubType("string").
//				Description("String field with length and pattern validation").
//				InheritsFromBaseField().
//				AcceptsNamedAttributes("int", "maxLength").
//				AcceptsNamedAttributes("string", "pattern")
//		})
//
// Extensions add rules to a type they do not own:
//
//	err := reg.ExtendType("field.StringField", func(b *metadata.TypeDefinitionBuilder) {
//		b.AcceptsNamedAttributes("string", "dbColumn")
//	})
//
// # Providers
//
// Providers group registrations. Discover orders them by dependency, then by
// descending priority, and applies them against a staging copy published
// only when all succeed:
//
//	func init() {
//		metadata.RegisterProvider(metadata.NewProvider("database-extensions", 50,
//			[]string{"core-types"}, registerDatabaseAttributes))
//	}
//
//	reg, err := metadata.Default()
//
// # Queries
//
// Reads are lock-free and always see a complete type system:
//
//	reg.AcceptsChild("field", "string", "attr", "int", "maxLength")
//	reg.AcceptsParent("attr", "int", "field", "string", "maxLength")
//	node, err := reg.CreateInstance("field", "string", "email")
//	err = reg.ValidatePlacement(parentNode, childNode)
//
// ValidateConsistency reports unresolved inheritance, families missing a
// base subtype and other structural problems.
package metadata
