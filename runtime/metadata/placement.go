package metadata

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// PlacementConstraint is a dynamic, instance-level placement rule consulted
// when the static accepts rules reject a placement.
type PlacementConstraint interface {
	ID() string
	Description() string
	// Allows reports whether child may be placed under parent.
	Allows(parent, child Node) bool
}

type placementFunc struct {
	id          string
	description string
	fn          func(parent, child Node) bool
}

// NewPlacementFunc wraps a predicate as a PlacementConstraint.
func NewPlacementFunc(id, description string, fn func(parent, child Node) bool) PlacementConstraint {
	return &placementFunc{id: id, description: description, fn: fn}
}

func (p *placementFunc) ID() string          { return p.id }
func (p *placementFunc) Description() string { return p.description }

func (p *placementFunc) Allows(parent, child Node) bool {
	return p.fn != nil && p.fn(parent, child)
}

// PatternConstraint allows a placement when the parent and the child both
// match their patterns. Patterns have the form "type.subtype" or
// "type.subtype[name]"; any part may be "*", and "*" alone matches anything.
type PatternConstraint struct {
	id            string
	description   string
	parentPattern nodePattern
	childPattern  nodePattern
}

// NewPatternConstraint parses both patterns.
func NewPatternConstraint(id, description, parentPattern, childPattern string) (*PatternConstraint, error) {
	parent, err := parseNodePattern(parentPattern)
	if err != nil {
		return nil, fmt.Errorf("constraint %s: parent pattern: %w", id, err)
	}
	child, err := parseNodePattern(childPattern)
	if err != nil {
		return nil, fmt.Errorf("constraint %s: child pattern: %w", id, err)
	}
	return &PatternConstraint{id: id, description: description, parentPattern: parent, childPattern: child}, nil
}

func (c *PatternConstraint) ID() string          { return c.id }
func (c *PatternConstraint) Description() string { return c.description }

func (c *PatternConstraint) Allows(parent, child Node) bool {
	return c.parentPattern.matches(parent) && c.childPattern.matches(child)
}

func (c *PatternConstraint) String() string {
	return fmt.Sprintf("PatternConstraint[%s: %s -> %s]", c.id, c.parentPattern, c.childPattern)
}

type nodePattern struct {
	typ, subType, name string
	any                bool
}

func parseNodePattern(pattern string) (nodePattern, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == Wildcard {
		return nodePattern{any: true}, nil
	}

	p := nodePattern{name: Wildcard}
	if open := strings.Index(pattern, "["); open >= 0 {
		if !strings.HasSuffix(pattern, "]") {
			return p, fmt.Errorf("invalid pattern %q: unterminated name", pattern)
		}
		p.name = pattern[open+1 : len(pattern)-1]
		pattern = pattern[:open]
	}
	typ, subType, ok := strings.Cut(pattern, ".")
	if !ok || typ == "" || subType == "" || strings.Contains(subType, ".") {
		return p, fmt.Errorf("invalid pattern %q: expected type.subtype[name]", pattern)
	}
	p.typ = normalize(typ)
	p.subType = normalize(subType)
	return p, nil
}

func (p nodePattern) matches(n Node) bool {
	if p.any {
		return true
	}
	if n == nil {
		return false
	}
	if p.typ != Wildcard && p.typ != normalize(n.Type()) {
		return false
	}
	if p.subType != Wildcard && p.subType != normalize(n.SubType()) {
		return false
	}
	return isAnyName(p.name) || p.name == n.Name()
}

func (p nodePattern) String() string {
	if p.any {
		return Wildcard
	}
	return describeDeclaration(p.typ, p.subType, p.name)
}

// AddPlacementConstraint appends a dynamic placement constraint.
func (r *Registry) AddPlacementConstraint(c PlacementConstraint) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.load().clone()
	next.constraints = append(next.constraints, c)
	r.publish(next)

	r.logger.Debug("added placement constraint", zap.String("constraint", c.ID()))
}

// PlacementConstraints returns the dynamic constraints in insertion order.
func (r *Registry) PlacementConstraints() []PlacementConstraint {
	return slices.Clone(r.load().constraints)
}

// ValidatePlacement checks whether child may be placed under parent. The
// static rules of either side are consulted first (the parent's accepts
// children, global requirements, the child's accepts parents); when they all
// reject, any dynamic constraint may still allow the placement. It returns a
// *PlacementViolation when nothing allows it.
func (r *Registry) ValidatePlacement(parent, child Node) error {
	if parent == nil || child == nil {
		return &PlacementViolation{
			Parent: NodeIdentity(parent),
			Child:  NodeIdentity(child),
			Reason: "parent and child must both be set",
		}
	}

	if r.AcceptsChild(parent.Type(), parent.SubType(), child.Type(), child.SubType(), child.Name()) ||
		r.AcceptsParent(child.Type(), child.SubType(), parent.Type(), parent.SubType(), child.Name()) {
		return nil
	}

	for _, c := range r.load().constraints {
		if c.Allows(parent, child) {
			r.logger.Debug("placement allowed by constraint",
				zap.String("constraint", c.ID()),
				zap.String("parent", NodeIdentity(parent)),
				zap.String("child", NodeIdentity(child)))
			return nil
		}
	}

	reason := "no static rule or placement constraint allows it"
	if _, ok := r.TypeDefinition(parent.Type(), parent.SubType()); !ok {
		reason = "parent type " + NewTypeIdentifier(parent.Type(), parent.SubType()).QualifiedName() + " is not registered"
	} else if supported := r.SupportedChildrenDescription(parent.Type(), parent.SubType()); supported != "" {
		reason += ". " + supported
	}
	return &PlacementViolation{
		Parent: NodeIdentity(parent),
		Child:  NodeIdentity(child),
		Reason: reason,
	}
}
