// Package catalog loads type catalogs: YAML or JSON documents that declare a
// provider and the types, extensions, global requirements and placement
// constraints it contributes. Each catalog becomes a metadata.Provider and
// only ever calls the registry's public operations.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// Format selects the catalog encoding.
type Format string

const (
	FormatAuto Format = "auto"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. The empty string means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown catalog format %q (expected auto, yaml or json)", s)
	}
}

// ErrInvalidCatalog is returned for catalogs that parse but are incomplete.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is one catalog document.
type Catalog struct {
	Provider           ProviderSpec            `yaml:"provider" json:"provider"`
	Types              []TypeSpec              `yaml:"types,omitempty" json:"types,omitempty"`
	Extensions         []ExtensionSpec         `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	GlobalRequirements []GlobalRequirementSpec `yaml:"global_requirements,omitempty" json:"global_requirements,omitempty"`
	Constraints        []ConstraintSpec        `yaml:"constraints,omitempty" json:"constraints,omitempty"`

	// Path is the file the catalog was loaded from, if any.
	Path string `yaml:"-" json:"-"`
}

// ProviderSpec names the provider a catalog becomes.
type ProviderSpec struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Priority     int      `yaml:"priority,omitempty" json:"priority,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// TypeSpec declares one type.
type TypeSpec struct {
	Type           string            `yaml:"type" json:"type"`
	SubType        string            `yaml:"sub_type" json:"sub_type"`
	Implementation string            `yaml:"implementation" json:"implementation"`
	Description    string            `yaml:"description,omitempty" json:"description,omitempty"`
	InheritsFrom   string            `yaml:"inherits_from,omitempty" json:"inherits_from,omitempty"`
	Children       []RuleSpec        `yaml:"children,omitempty" json:"children,omitempty"`
	Parents        []RuleSpec        `yaml:"parents,omitempty" json:"parents,omitempty"`
	Requirements   []RequirementSpec `yaml:"requirements,omitempty" json:"requirements,omitempty"`
}

// ExtensionSpec adds rules to a type registered elsewhere, addressed by
// implementation name or by qualified type name.
type ExtensionSpec struct {
	Implementation string     `yaml:"implementation,omitempty" json:"implementation,omitempty"`
	Target         string     `yaml:"type,omitempty" json:"type,omitempty"`
	Description    string     `yaml:"description,omitempty" json:"description,omitempty"`
	Children       []RuleSpec `yaml:"children,omitempty" json:"children,omitempty"`
	Parents        []RuleSpec `yaml:"parents,omitempty" json:"parents,omitempty"`
}

// RuleSpec is one accepts rule: the type and subtype on the other side and
// an optional name constraint.
type RuleSpec struct {
	Type    string `yaml:"type" json:"type"`
	SubType string `yaml:"sub_type" json:"sub_type"`
	Name    string `yaml:"name,omitempty" json:"name,omitempty"`
}

// RequirementSpec is a legacy child requirement.
type RequirementSpec struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	SubType  string `yaml:"sub_type" json:"sub_type"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// GlobalRequirementSpec attaches a requirement to every type matching
// Parent ("type.subtype" or "type.*").
type GlobalRequirementSpec struct {
	Parent          string `yaml:"parent" json:"parent"`
	RequirementSpec `yaml:",inline"`
	Description     string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ConstraintSpec declares a pattern placement constraint.
type ConstraintSpec struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Parent      string `yaml:"parent" json:"parent"`
	Child       string `yaml:"child" json:"child"`
}

// Load reads and validates the catalog at path.
func Load(path string, format Format) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if format == "" || format == FormatAuto {
		format = formatOf(path)
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Path = path
	return c, nil
}

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes and validates a catalog document. FormatAuto sniffs JSON
// from a leading brace.
func Parse(data []byte, format Format) (*Catalog, error) {
	if format == "" || format == FormatAuto {
		format = FormatYAML
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			format = FormatJSON
		}
	}

	var c Catalog
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("parse json catalog: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("parse yaml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown catalog format %q", format)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the fields a provider cannot do without. Rules on the
// types themselves are checked by the registry's builder.
func (c *Catalog) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Provider.Name) == "" {
		problems = append(problems, "provider.name is required")
	}
	for i, t := range c.Types {
		if t.Type == "" || t.SubType == "" {
			problems = append(problems, fmt.Sprintf("types[%d]: type and sub_type are required", i))
		}
		if t.InheritsFrom != "" {
			if _, err := metadata.ParseTypeIdentifier(t.InheritsFrom); err != nil {
				problems = append(problems, fmt.Sprintf("types[%d]: inherits_from: %v", i, err))
			}
		}
	}
	for i, e := range c.Extensions {
		if (e.Implementation == "") == (e.Target == "") {
			problems = append(problems, fmt.Sprintf("extensions[%d]: set exactly one of implementation or type", i))
		}
	}
	for i, g := range c.GlobalRequirements {
		if _, err := metadata.ParseTypeIdentifier(g.Parent); err != nil {
			problems = append(problems, fmt.Sprintf("global_requirements[%d]: parent: %v", i, err))
		}
	}
	for i, cs := range c.Constraints {
		if cs.ID == "" {
			problems = append(problems, fmt.Sprintf("constraints[%d]: id is required", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}

// AsProvider returns the provider that registers the catalog's contents.
func (c *Catalog) AsProvider() metadata.Provider {
	description := c.Provider.Description
	if description == "" && c.Path != "" {
		description = "catalog " + c.Path
	}
	return metadata.NewDescribedProvider(c.Provider.Name, description, c.Provider.Priority,
		c.Provider.Dependencies, c.Register)
}

// Register applies the catalog to r: types first, then extensions, global
// requirements and constraints.
func (c *Catalog) Register(r *metadata.Registry) error {
	for _, t := range c.Types {
		if err := r.RegisterType(implementationFor(t), t.configure); err != nil {
			return fmt.Errorf("type %s.%s: %w", t.Type, t.SubType, err)
		}
	}

	for _, e := range c.Extensions {
		if err := e.apply(r); err != nil {
			return err
		}
	}

	for _, g := range c.GlobalRequirements {
		parent, _ := metadata.ParseTypeIdentifier(g.Parent)
		req := g.requirement()
		req.Description = g.Description
		r.AddGlobalChildRequirement(parent.Type, parent.SubType, req)
	}

	for _, cs := range c.Constraints {
		constraint, err := metadata.NewPatternConstraint(cs.ID, cs.Description, cs.Parent, cs.Child)
		if err != nil {
			return fmt.Errorf("constraint %s: %w", cs.ID, err)
		}
		r.AddPlacementConstraint(constraint)
	}
	return nil
}

func implementationFor(t TypeSpec) metadata.Implementation {
	name := t.Implementation
	if name == "" {
		name = "catalog." + t.Type + "." + t.SubType
	}
	return metadata.NewImplementation(name, NewNode)
}

func (t TypeSpec) configure(b *metadata.TypeDefinitionBuilder) {
	b.Type(t.Type).SubType(t.SubType).Description(t.Description)
	if t.InheritsFrom != "" {
		parent, _ := metadata.ParseTypeIdentifier(t.InheritsFrom)
		b.InheritsFrom(parent.Type, parent.SubType)
	}
	applyRules(b, t.Children, t.Parents)
	for _, req := range t.Requirements {
		b.ChildRequirement(req.requirement())
	}
}

func (e ExtensionSpec) apply(r *metadata.Registry) error {
	extend := func(b *metadata.TypeDefinitionBuilder) {
		if e.Description != "" {
			b.Description(e.Description)
		}
		applyRules(b, e.Children, e.Parents)
	}
	if e.Implementation != "" {
		if err := r.ExtendType(e.Implementation, extend); err != nil {
			return fmt.Errorf("extend %s: %w", e.Implementation, err)
		}
		return nil
	}
	id, err := metadata.ParseTypeIdentifier(e.Target)
	if err != nil {
		return err
	}
	if err := r.ExtendTypeByID(id, extend); err != nil {
		return fmt.Errorf("extend %s: %w", e.Target, err)
	}
	return nil
}

func applyRules(b *metadata.TypeDefinitionBuilder, children, parents []RuleSpec) {
	for _, c := range children {
		b.AcceptsNamedChildren(c.Type, c.SubType, c.Name)
	}
	for _, p := range parents {
		b.AcceptsNamedParents(p.Type, p.SubType, p.Name)
	}
}

func (r RequirementSpec) requirement() metadata.ChildRequirement {
	if r.Required {
		return metadata.RequiredChildRequirement(r.Name, r.Type, r.SubType)
	}
	return metadata.OptionalChildRequirement(r.Name, r.Type, r.SubType)
}
