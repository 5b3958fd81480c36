package metadata

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ChildRequirement is the older, name-keyed way of describing which children
// a parent accepts. It is still used for global requirements that extensions
// attach to a type family without owning a type definition.
type ChildRequirement struct {
	Name            string `json:"name" yaml:"name"`
	ExpectedType    string `json:"expected_type" yaml:"type"`
	ExpectedSubType string `json:"expected_sub_type" yaml:"sub_type"`
	Required        bool   `json:"required" yaml:"required"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
}

// OptionalChildRequirement returns a requirement for an optional child.
func OptionalChildRequirement(name, expectedType, expectedSubType string) ChildRequirement {
	return newChildRequirement(name, expectedType, expectedSubType, false)
}

// RequiredChildRequirement returns a requirement for a mandatory child.
func RequiredChildRequirement(name, expectedType, expectedSubType string) ChildRequirement {
	return newChildRequirement(name, expectedType, expectedSubType, true)
}

func newChildRequirement(name, expectedType, expectedSubType string, required bool) ChildRequirement {
	if isAnyName(name) {
		name = AnyName
	}
	return ChildRequirement{
		Name:            name,
		ExpectedType:    normalize(expectedType),
		ExpectedSubType: normalizeSubType(expectedSubType),
		Required:        required,
	}
}

// IsWildcard reports whether the requirement matches any child name.
func (r ChildRequirement) IsWildcard() bool {
	return isAnyName(r.Name)
}

// Matches reports whether a child satisfies the requirement.
func (r ChildRequirement) Matches(childType, childSubType, childName string) bool {
	name := r.Name
	if r.IsWildcard() {
		name = ""
	}
	return matchDeclaration(normalize(r.ExpectedType), normalizeSubType(r.ExpectedSubType), name,
		childType, childSubType, childName)
}

// Describe returns a one-line description, preferring the explicit one.
func (r ChildRequirement) Describe() string {
	if r.Description != "" {
		return r.Description
	}
	kind := "optional"
	if r.Required {
		kind = "required"
	}
	return fmt.Sprintf("%s %s.%s[%s]", kind, r.ExpectedType, r.ExpectedSubType, r.Name)
}

// AsAcceptsChildren converts the requirement to the declaration form.
func (r ChildRequirement) AsAcceptsChildren() AcceptsChildren {
	return NewAcceptsChildren(r.ExpectedType, r.ExpectedSubType, r.Name)
}

// globalKey returns the legacy table key for a parent family.
func globalKey(parentType, parentSubType string) string {
	subType := normalize(parentSubType)
	if subType == "" {
		subType = Wildcard
	}
	return normalize(parentType) + "." + subType
}

// AddGlobalChildRequirement attaches a requirement to every parent of the
// given type and subtype. A Wildcard subtype applies to the whole family.
func (r *Registry) AddGlobalChildRequirement(parentType, parentSubType string, req ChildRequirement) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.load().clone()
	key := globalKey(parentType, parentSubType)
	next.global[key] = append(next.global[key], req)
	r.publish(next)

	r.logger.Debug("added global child requirement",
		zap.String("parent", key), zap.String("requirement", req.Describe()))
}

// globalAccepts consults the "type.subtype" and "type.*" tables.
func (s *snapshot) globalAccepts(parentType, parentSubType, childType, childSubType, childName string) bool {
	for _, key := range []string{globalKey(parentType, parentSubType), globalKey(parentType, Wildcard)} {
		for _, req := range s.global[key] {
			if req.Matches(childType, childSubType, childName) {
				return true
			}
		}
	}
	return false
}

// ChildRequirements returns the type-specific requirements of a parent plus
// the global requirements for its exact subtype and for its whole family.
// Type-specific declarations are reported as optional requirements.
func (r *Registry) ChildRequirements(parentType, parentSubType string) []ChildRequirement {
	s := r.load()
	var out []ChildRequirement

	if def, ok := s.types[NewTypeIdentifier(parentType, parentSubType)]; ok {
		declared := make(map[ChildRequirement]bool)
		for _, req := range def.requirements {
			declared[OptionalChildRequirement(req.Name, req.ExpectedType, req.ExpectedSubType)] = true
			out = append(out, req)
		}
		for _, rule := range def.allChildren {
			req := OptionalChildRequirement(rule.ChildName, rule.ChildType, rule.ChildSubType)
			if declared[req] {
				continue
			}
			out = append(out, req)
		}
	}

	out = append(out, s.global[globalKey(parentType, parentSubType)]...)
	if normalize(parentSubType) != Wildcard {
		out = append(out, s.global[globalKey(parentType, Wildcard)]...)
	}
	return out
}

// ChildRequirement returns the first requirement of the parent that names
// childName exactly.
func (r *Registry) ChildRequirement(parentType, parentSubType, childName string) (ChildRequirement, bool) {
	for _, req := range r.ChildRequirements(parentType, parentSubType) {
		if req.Name == childName {
			return req, true
		}
	}
	return ChildRequirement{}, false
}

// SupportedChildrenDescription returns the type description followed by a
// summary of every child it supports.
func (r *Registry) SupportedChildrenDescription(parentType, parentSubType string) string {
	var b strings.Builder
	if def, ok := r.TypeDefinition(parentType, parentSubType); ok && def.Description() != "" {
		b.WriteString(def.Description())
	}

	reqs := r.ChildRequirements(parentType, parentSubType)
	if len(reqs) == 0 {
		if b.Len() == 0 {
			return "No children supported"
		}
		return b.String()
	}

	descriptions := make([]string, 0, len(reqs))
	for _, req := range reqs {
		descriptions = append(descriptions, req.Describe())
	}
	if b.Len() > 0 {
		b.WriteString(". ")
	}
	b.WriteString("Supports: ")
	b.WriteString(strings.Join(descriptions, ", "))
	return b.String()
}

// MissingRequiredChildren returns the names of required children absent from
// existing. Wildcard requirements never count as missing.
func (r *Registry) MissingRequiredChildren(parentType, parentSubType string, existing []string) []string {
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, req := range r.ChildRequirements(parentType, parentSubType) {
		if !req.Required || req.IsWildcard() || present[req.Name] || seen[req.Name] {
			continue
		}
		seen[req.Name] = true
		missing = append(missing, req.Name)
	}
	sort.Strings(missing)
	return missing
}
