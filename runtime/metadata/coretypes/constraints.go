package coretypes

import (
	"slices"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// NumericRangeConstraintID identifies the constraint returned by NumericRangeConstraint.
const NumericRangeConstraintID = "core.numeric-range"

var numericAttributeSubTypes = []string{"int", "long", "double"}

// NumericRangeConstraint allows a numeric validator under a numeric
// attribute, so that values such as maxLength can carry their own range.
// No static rule covers this: attributes accept no children.
func NumericRangeConstraint() metadata.PlacementConstraint {
	return metadata.NewPlacementFunc(NumericRangeConstraintID,
		"numeric validators may be placed under numeric attributes",
		func(parent, child metadata.Node) bool {
			c := metadata.NewTypeIdentifier(child.Type(), child.SubType())
			if c.Type != TypeValidator || c.SubType != "numeric" {
				return false
			}
			p := metadata.NewTypeIdentifier(parent.Type(), parent.SubType())
			return p.Type == TypeAttr && slices.Contains(numericAttributeSubTypes, p.SubType)
		})
}
