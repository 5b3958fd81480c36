package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// TreeNode is one node of a metadata tree document.
type TreeNode struct {
	Type     string     `yaml:"type" json:"type"`
	SubType  string     `yaml:"sub_type" json:"sub_type"`
	Name     string     `yaml:"name" json:"name"`
	Children []TreeNode `yaml:"children,omitempty" json:"children,omitempty"`
}

func (n TreeNode) String() string {
	if n.Name == "" {
		return n.Type + "." + n.SubType
	}
	return fmt.Sprintf("%s.%s[%s]", n.Type, n.SubType, n.Name)
}

// ParseNode parses a node reference of the form "type.subtype[name]". The
// name part is optional.
func ParseNode(ref string) (TreeNode, error) {
	ref = strings.TrimSpace(ref)
	var n TreeNode
	if i := strings.IndexByte(ref, '['); i >= 0 {
		if !strings.HasSuffix(ref, "]") {
			return n, fmt.Errorf("node %q: unterminated name", ref)
		}
		n.Name = ref[i+1 : len(ref)-1]
		ref = ref[:i]
	}
	id, err := metadata.ParseTypeIdentifier(ref)
	if err != nil {
		return n, err
	}
	n.Type, n.SubType = id.Type, id.SubType
	return n, nil
}

// DefaultNodeName stands in for a node reference given without a name.
const DefaultNodeName = "unnamed"

// CheckPlacement builds both nodes through the registry and validates the
// placement of child under parent.
func CheckPlacement(r *metadata.Registry, parent, child TreeNode) error {
	p, err := r.CreateInstance(parent.Type, parent.SubType, nameOrDefault(parent.Name))
	if err != nil {
		return err
	}
	c, err := r.CreateInstance(child.Type, child.SubType, nameOrDefault(child.Name))
	if err != nil {
		return err
	}
	return r.ValidatePlacement(p, c)
}

func nameOrDefault(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultNodeName
	}
	return name
}

// LoadTree reads a tree document (YAML, or JSON by extension or content).
func LoadTree(path string) (*TreeNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	var root TreeNode
	if formatOf(path) == FormatJSON || bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		err = json.Unmarshal(data, &root)
	} else {
		err = yaml.Unmarshal(data, &root)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: parse tree: %w", path, err)
	}
	return &root, nil
}

// TreeIssue is one problem found while validating a tree. Path is the chain
// of nodes from the root, joined with " > ".
type TreeIssue struct {
	Path string
	Err  error
}

func (i TreeIssue) String() string {
	return i.Path + ": " + i.Err.Error()
}

// TreeReport collects the result of ValidateTree.
type TreeReport struct {
	Checked int
	Skipped int
	Issues  []TreeIssue
}

// OK reports whether no issues were found.
func (r *TreeReport) OK() bool { return len(r.Issues) == 0 }

// ValidateTree builds every node of the tree through the registry and checks
// each placement. An issue is recorded for a node that cannot be built or
// placed and its subtree is skipped; validation continues with its siblings.
// Required children missing from a node are reported too.
func ValidateTree(r *metadata.Registry, root TreeNode) *TreeReport {
	report := &TreeReport{}
	node, err := r.CreateInstance(root.Type, root.SubType, root.Name)
	if err != nil {
		report.Issues = append(report.Issues, TreeIssue{Path: root.String(), Err: err})
		report.Skipped += countNodes(root.Children)
		return report
	}
	report.Checked++
	validateChildren(r, node, root, root.String(), report)
	return report
}

func validateChildren(r *metadata.Registry, parent metadata.Node, tree TreeNode, path string, report *TreeReport) {
	names := make([]string, 0, len(tree.Children))
	for _, c := range tree.Children {
		names = append(names, c.Name)
		childPath := path + " > " + c.String()

		child, err := r.CreateInstance(c.Type, c.SubType, c.Name)
		if err == nil {
			err = r.ValidatePlacement(parent, child)
		}
		if err != nil {
			report.Issues = append(report.Issues, TreeIssue{Path: childPath, Err: err})
			report.Skipped += countNodes(c.Children)
			continue
		}
		report.Checked++
		validateChildren(r, child, c, childPath, report)
	}

	if missing := r.MissingRequiredChildren(tree.Type, tree.SubType, names); len(missing) > 0 {
		report.Issues = append(report.Issues, TreeIssue{
			Path: path,
			Err:  fmt.Errorf("missing required children: %s", strings.Join(missing, ", ")),
		})
	}
}

func countNodes(nodes []TreeNode) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}
