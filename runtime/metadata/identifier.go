package metadata

import (
	"fmt"
	"strings"
)

const (
	// Wildcard matches any subtype in a declaration or requirement.
	Wildcard = "*"
	// AnyName leaves the child name unconstrained. The empty string means the same.
	AnyName = "*"
	// BaseSubType is the conventional root subtype of a type family.
	BaseSubType = "base"
)

// TypeIdentifier is the (primary type, subtype) key of a metadata kind.
// Both parts are lower-cased on construction so lookups are case-insensitive.
type TypeIdentifier struct {
	Type    string `json:"type"`
	SubType string `json:"sub_type"`
}

// NewTypeIdentifier builds a normalized identifier.
func NewTypeIdentifier(typ, subType string) TypeIdentifier {
	return TypeIdentifier{
		Type:    normalize(typ),
		SubType: normalize(subType),
	}
}

// ParseTypeIdentifier parses a qualified "type.subtype" name.
func ParseTypeIdentifier(qualified string) (TypeIdentifier, error) {
	typ, subType, ok := strings.Cut(qualified, ".")
	if !ok || strings.TrimSpace(typ) == "" || strings.TrimSpace(subType) == "" {
		return TypeIdentifier{}, fmt.Errorf("invalid type identifier %q: expected type.subtype", qualified)
	}
	return NewTypeIdentifier(typ, subType), nil
}

// QualifiedName returns "type.subtype".
func (id TypeIdentifier) QualifiedName() string {
	return id.Type + "." + id.SubType
}

func (id TypeIdentifier) String() string {
	return id.QualifiedName()
}

// IsZero reports whether the identifier is unset.
func (id TypeIdentifier) IsZero() bool {
	return id.Type == "" && id.SubType == ""
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isAnyName(name string) bool {
	return name == "" || name == AnyName
}
