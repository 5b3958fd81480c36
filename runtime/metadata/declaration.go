package metadata

// AcceptsChildren is a parent-side placement rule: the owning type accepts
// children of ChildType, with ChildSubType (or any subtype when Wildcard),
// named ChildName (or any name when empty).
type AcceptsChildren struct {
	ChildType    string `json:"child_type" yaml:"type"`
	ChildSubType string `json:"child_sub_type" yaml:"sub_type"`
	ChildName    string `json:"child_name,omitempty" yaml:"name,omitempty"`
}

// NewAcceptsChildren returns a normalized parent-side declaration.
func NewAcceptsChildren(childType, childSubType, childName string) AcceptsChildren {
	return AcceptsChildren{
		ChildType:    normalize(childType),
		ChildSubType: normalizeSubType(childSubType),
		ChildName:    normalizeName(childName),
	}
}

// Matches reports whether a candidate child satisfies this declaration.
func (a AcceptsChildren) Matches(childType, childSubType, childName string) bool {
	return matchDeclaration(a.ChildType, a.ChildSubType, a.ChildName, childType, childSubType, childName)
}

// Shape returns the (type, subtype) pair used when merging inherited rules.
func (a AcceptsChildren) Shape() TypeIdentifier {
	return TypeIdentifier{Type: a.ChildType, SubType: a.ChildSubType}
}

func (a AcceptsChildren) String() string {
	return describeDeclaration(a.ChildType, a.ChildSubType, a.ChildName)
}

// AcceptsParents is a child-side placement rule: the owning type may be
// placed under ParentType/ParentSubType, optionally only when the child is
// named ExpectedChildName.
type AcceptsParents struct {
	ParentType        string `json:"parent_type" yaml:"type"`
	ParentSubType     string `json:"parent_sub_type" yaml:"sub_type"`
	ExpectedChildName string `json:"expected_child_name,omitempty" yaml:"name,omitempty"`
}

// NewAcceptsParents returns a normalized child-side declaration.
func NewAcceptsParents(parentType, parentSubType, expectedChildName string) AcceptsParents {
	return AcceptsParents{
		ParentType:        normalize(parentType),
		ParentSubType:     normalizeSubType(parentSubType),
		ExpectedChildName: normalizeName(expectedChildName),
	}
}

// Matches reports whether a candidate parent (and the proposed child name)
// satisfies this declaration.
func (a AcceptsParents) Matches(parentType, parentSubType, proposedName string) bool {
	return matchDeclaration(a.ParentType, a.ParentSubType, a.ExpectedChildName, parentType, parentSubType, proposedName)
}

// Shape returns the (type, subtype) pair used when merging inherited rules.
func (a AcceptsParents) Shape() TypeIdentifier {
	return TypeIdentifier{Type: a.ParentType, SubType: a.ParentSubType}
}

func (a AcceptsParents) String() string {
	return describeDeclaration(a.ParentType, a.ParentSubType, a.ExpectedChildName)
}

// matchDeclaration implements the shared matching rule: exact primary type,
// exact-or-wildcard subtype, exact-or-unconstrained name.
func matchDeclaration(declType, declSubType, declName, typ, subType, name string) bool {
	if declType != normalize(typ) {
		return false
	}
	if declSubType != Wildcard && declSubType != normalize(subType) {
		return false
	}
	if declName != "" && declName != name {
		return false
	}
	return true
}

func describeDeclaration(typ, subType, name string) string {
	if name == "" {
		return typ + "." + subType
	}
	return typ + "." + subType + "[" + name + "]"
}

func normalizeSubType(subType string) string {
	s := normalize(subType)
	if s == "" {
		return Wildcard
	}
	return s
}

// normalizeName folds the "any" spellings into the empty string.
func normalizeName(name string) string {
	if isAnyName(name) {
		return ""
	}
	return name
}
