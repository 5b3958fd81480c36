package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

func statusColor(status string, noColor bool) *color.Color {
	switch status {
	case "EXCELLENT":
		return paint(noColor, color.FgGreen, color.Bold)
	case "GOOD":
		return paint(noColor, color.FgYellow, color.Bold)
	default:
		return paint(noColor, color.FgRed, color.Bold)
	}
}

// RenderHealth writes a consistency report.
func RenderHealth(w io.Writer, report *metadata.HealthReport, noColor bool) {
	Header(w, "Registry health", noColor)
	statusColor(report.Status(), noColor).Fprintln(w, report.Status())
	fmt.Fprintln(w)

	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("Types", strconv.Itoa(report.Stats.TotalTypes))
	kv.AddRow("Families", strconv.Itoa(report.Stats.PrimaryTypes))
	kv.AddRow("With inheritance", strconv.Itoa(report.Stats.TypesWithInheritance))
	kv.AddRow("Inheriting from base", strconv.Itoa(report.Stats.TypesInheritingFromBase))
	if len(report.Stats.Deferred) > 0 {
		kv.AddRow("Deferred", strings.Join(report.Stats.Deferred, ", "))
	}
	kv.Render()
	fmt.Fprintln(w)

	Section(w, paint(noColor, color.FgRed).Sprint("Errors"), report.Errors, noColor)
	Section(w, paint(noColor, color.FgYellow).Sprint("Warnings"), report.Warnings, noColor)
	Section(w, "Recommendations", report.Recommendations, noColor)
}

// RenderDiscovery writes the providers a discovery run invoked, in order.
func RenderDiscovery(w io.Writer, result *metadata.DiscoveryResult, noColor bool) {
	t := NewTable(w, []string{"#", "PROVIDER", "PRIORITY", "DEPENDS ON", "TYPES"}, &TableOptions{NoColor: noColor})
	for i, p := range result.Providers {
		deps := strings.Join(p.Dependencies, ", ")
		if deps == "" {
			deps = "-"
		}
		t.AddRow(strconv.Itoa(i+1), p.Name, strconv.Itoa(p.Priority), deps, strconv.Itoa(p.TypesAdded))
	}
	t.Render()
	fmt.Fprintf(w, "\n%d types from %d providers in %s (run %s)\n",
		result.TypesAfter, len(result.Providers), result.Duration.Round(time.Microsecond), result.RunID)
}

// RenderTypes writes one row per definition.
func RenderTypes(w io.Writer, defs []*metadata.TypeDefinition, noColor bool) {
	t := NewTable(w, []string{"TYPE", "INHERITS", "IMPLEMENTATION", "CHILD RULES", "STATUS"}, &TableOptions{NoColor: noColor})
	for _, def := range defs {
		parent := "-"
		if def.HasParent() {
			parent = def.ParentQualifiedName()
		}
		status := "resolved"
		if !def.IsResolved() {
			status = "deferred"
		}
		t.AddRow(def.QualifiedName(), parent, def.Implementation().Name,
			strconv.Itoa(len(def.AllAcceptsChildren())), status)
	}
	t.Render()
}

// RenderType writes the full rule set of one definition.
func RenderType(w io.Writer, r *metadata.Registry, def *metadata.TypeDefinition, noColor bool) {
	Header(w, def.QualifiedName(), noColor)
	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("Implementation", def.Implementation().Name)
	if def.Description() != "" {
		kv.AddRow("Description", def.Description())
	}
	if def.HasParent() {
		kv.AddRow("Inherits from", def.ParentQualifiedName())
	}
	kv.AddRow("Resolved", strconv.FormatBool(def.IsResolved()))
	kv.Render()
	fmt.Fprintln(w)

	Section(w, "Accepts children", ruleLines(def.DirectAcceptsChildren(), def.InheritedAcceptsChildren()), noColor)
	Section(w, "Accepts parents", ruleLines(def.DirectAcceptsParents(), def.InheritedAcceptsParents()), noColor)

	var reqs []string
	for _, req := range r.ChildRequirements(def.Type(), def.SubType()) {
		reqs = append(reqs, req.Describe())
	}
	Section(w, "Requirements", reqs, noColor)
}

func ruleLines[T fmt.Stringer](direct, inherited []T) []string {
	lines := make([]string, 0, len(direct)+len(inherited))
	for _, rule := range direct {
		lines = append(lines, rule.String())
	}
	for _, rule := range inherited {
		lines = append(lines, rule.String()+" (inherited)")
	}
	return lines
}

// RenderTreeReport writes the outcome of a tree validation.
func RenderTreeReport(w io.Writer, report *catalog.TreeReport, noColor bool) {
	if report.OK() {
		WriteSuccess(w, fmt.Sprintf("%d nodes valid", report.Checked), noColor)
		return
	}
	red := paint(noColor, color.FgRed)
	for _, issue := range report.Issues {
		red.Fprint(w, "✗ ")
		fmt.Fprintln(w, issue.Path)
		fmt.Fprintf(w, "    %v\n", issue.Err)
	}
	fmt.Fprintf(w, "\n%d nodes checked, %d skipped, %d issues\n", report.Checked, report.Skipped, len(report.Issues))
}
