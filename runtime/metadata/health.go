package metadata

import (
	"fmt"
	"sort"
	"strings"
)

// HealthReport is the result of ValidateConsistency. Errors make the
// registry structurally unsound; warnings and recommendations only flag
// departures from conventions.
type HealthReport struct {
	Errors          []string    `json:"errors"`
	Warnings        []string    `json:"warnings"`
	Recommendations []string    `json:"recommendations"`
	Stats           HealthStats `json:"stats"`
}

// HealthStats holds the figures gathered while checking consistency.
type HealthStats struct {
	TotalTypes              int                 `json:"total_types"`
	PrimaryTypes            int                 `json:"primary_types"`
	SubTypesByType          map[string][]string `json:"sub_types_by_type"`
	TypesWithBase           []string            `json:"types_with_base"`
	TypesWithoutBase        []string            `json:"types_without_base"`
	TypesWithInheritance    int                 `json:"types_with_inheritance"`
	TypesInheritingFromBase int                 `json:"types_inheriting_from_base"`
	InheritanceChains       []string            `json:"inheritance_chains"`
	Deferred                []string            `json:"deferred,omitempty"`
	MissingCoreTypes        []string            `json:"missing_core_types,omitempty"`
}

// IsStructurallySound reports whether there are no errors.
func (h *HealthReport) IsStructurallySound() bool { return len(h.Errors) == 0 }

// FollowsBestPractices reports whether there are no warnings or recommendations.
func (h *HealthReport) FollowsBestPractices() bool {
	return len(h.Warnings) == 0 && len(h.Recommendations) == 0
}

// MissingBases returns the type families without a base subtype.
func (h *HealthReport) MissingBases() []string { return h.Stats.TypesWithoutBase }

// Status returns EXCELLENT, GOOD or POOR.
func (h *HealthReport) Status() string {
	switch {
	case h.IsStructurallySound() && h.FollowsBestPractices():
		return "EXCELLENT"
	case h.IsStructurallySound():
		return "GOOD"
	default:
		return "POOR"
	}
}

// Summary renders the report as plain text.
func (h *HealthReport) Summary() string {
	var b strings.Builder
	b.WriteString("=== REGISTRY HEALTH REPORT ===\n")
	switch h.Status() {
	case "EXCELLENT":
		b.WriteString("EXCELLENT: registry is structurally sound and follows all conventions\n")
	case "GOOD":
		b.WriteString("GOOD: registry is structurally sound but has recommendations\n")
	default:
		b.WriteString("POOR: registry has structural issues that need attention\n")
	}
	fmt.Fprintf(&b, "\nStatistics: %d errors, %d warnings, %d recommendations\n",
		len(h.Errors), len(h.Warnings), len(h.Recommendations))
	fmt.Fprintf(&b, "Types: %d in %d families, %d with inheritance\n",
		h.Stats.TotalTypes, h.Stats.PrimaryTypes, h.Stats.TypesWithInheritance)

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, line := range lines {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}
	section("ERRORS", h.Errors)
	section("WARNINGS", h.Warnings)
	section("RECOMMENDATIONS", h.Recommendations)
	return b.String()
}

func (h *HealthReport) String() string { return h.Summary() }

// ValidateConsistency checks the registry against its structural rules and
// conventions: unresolved inheritance and missing core types are errors;
// families without a base subtype, unused inheritance and implementations
// shared by several types are warnings.
func (r *Registry) ValidateConsistency() *HealthReport {
	s := r.load()
	report := &HealthReport{
		Stats: HealthStats{SubTypesByType: make(map[string][]string)},
	}

	for _, id := range s.order {
		report.Stats.SubTypesByType[id.Type] = append(report.Stats.SubTypesByType[id.Type], id.SubType)
	}
	report.Stats.TotalTypes = len(s.order)
	report.Stats.PrimaryTypes = len(report.Stats.SubTypesByType)

	families := make([]string, 0, len(report.Stats.SubTypesByType))
	for family, subTypes := range report.Stats.SubTypesByType {
		sort.Strings(subTypes)
		families = append(families, family)
	}
	sort.Strings(families)

	// base subtypes
	for _, family := range families {
		if _, ok := s.types[NewTypeIdentifier(family, BaseSubType)]; ok {
			report.Stats.TypesWithBase = append(report.Stats.TypesWithBase, family)
			continue
		}
		report.Stats.TypesWithoutBase = append(report.Stats.TypesWithoutBase, family)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("type family %q is missing the recommended base subtype", family))
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("consider adding %s.%s for inheritance support", family, BaseSubType))
	}

	// inheritance
	for _, id := range s.order {
		def := s.types[id]
		if !def.hasParent {
			continue
		}
		report.Stats.TypesWithInheritance++
		report.Stats.InheritanceChains = append(report.Stats.InheritanceChains,
			def.QualifiedName()+" -> "+def.ParentQualifiedName())
		if def.parent.SubType == BaseSubType {
			report.Stats.TypesInheritingFromBase++
		}
	}
	sort.Strings(report.Stats.InheritanceChains)
	if report.Stats.TotalTypes > 0 {
		if report.Stats.TypesWithInheritance == 0 {
			report.Warnings = append(report.Warnings,
				"no types use inheritance; consider base types for shared rules")
		} else if report.Stats.TypesInheritingFromBase == 0 {
			report.Warnings = append(report.Warnings,
				"types use inheritance but none inherit from a base type")
		}
	}

	// deferred inheritance
	deferred := s.deferred()
	if len(deferred) > 0 {
		report.Errors = append(report.Errors,
			fmt.Sprintf("unresolved inheritance: %d types have missing parent types", len(deferred)))
	}
	for _, id := range deferred {
		def := s.types[id]
		report.Stats.Deferred = append(report.Stats.Deferred, id.QualifiedName())
		if _, ok := s.types[def.parent]; ok {
			report.Errors = append(report.Errors, fmt.Sprintf("type %s waits on unresolved parent %s",
				id.QualifiedName(), def.ParentQualifiedName()))
			continue
		}
		report.Errors = append(report.Errors, fmt.Sprintf("type %s cannot find parent %s",
			id.QualifiedName(), def.ParentQualifiedName()))
	}

	// shared implementations
	byImpl := make(map[string][]string)
	var impls []string
	for _, id := range s.order {
		name := s.types[id].implementation.Name
		if _, seen := byImpl[name]; !seen {
			impls = append(impls, name)
		}
		byImpl[name] = append(byImpl[name], id.QualifiedName())
	}
	for _, name := range impls {
		if types := byImpl[name]; len(types) > 1 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("implementation %s implements multiple types: %s",
				name, strings.Join(types, ", ")))
		}
	}

	// core types
	for _, id := range r.coreTypes {
		if _, ok := s.types[id]; !ok {
			report.Stats.MissingCoreTypes = append(report.Stats.MissingCoreTypes, id.QualifiedName())
		}
	}
	if len(report.Stats.MissingCoreTypes) > 0 {
		report.Errors = append(report.Errors,
			"missing core base types: "+strings.Join(report.Stats.MissingCoreTypes, ", "))
		report.Recommendations = append(report.Recommendations,
			"ensure every core base type is registered by a provider")
	}

	return report
}

// RegistryStats is a point-in-time summary of the registry's contents.
type RegistryStats struct {
	TotalTypes           int            `json:"total_types"`
	TypesByPrimary       map[string]int `json:"types_by_primary"`
	GlobalRequirements   int            `json:"global_requirements"`
	PlacementConstraints int            `json:"placement_constraints"`
	Deferred             int            `json:"deferred"`
	StrategyDescription  string         `json:"strategy"`
}

// Stats returns counts of the registry's contents.
func (r *Registry) Stats() RegistryStats {
	s := r.load()
	stats := RegistryStats{
		TotalTypes:           len(s.order),
		TypesByPrimary:       make(map[string]int),
		PlacementConstraints: len(s.constraints),
		StrategyDescription:  "none",
	}
	for _, id := range s.order {
		stats.TypesByPrimary[id.Type]++
		if !s.types[id].resolved {
			stats.Deferred++
		}
	}
	for _, reqs := range s.global {
		stats.GlobalRequirements += len(reqs)
	}
	if r.strategy != nil {
		stats.StrategyDescription = r.strategy.Description()
	}
	return stats
}

func (s RegistryStats) String() string {
	return fmt.Sprintf("RegistryStats{types=%d, families=%d, globalRequirements=%d, constraints=%d, deferred=%d, strategy=%s}",
		s.TotalTypes, len(s.TypesByPrimary), s.GlobalRequirements, s.PlacementConstraints, s.Deferred, s.StrategyDescription)
}
