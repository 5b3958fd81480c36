package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metaregistry/internal/cli/ui"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

type typeJSON struct {
	Name           string                      `json:"name"`
	Parent         string                      `json:"parent,omitempty"`
	Implementation string                      `json:"implementation"`
	Description    string                      `json:"description,omitempty"`
	Resolved       bool                        `json:"resolved"`
	Children       []metadata.AcceptsChildren  `json:"children"`
	Parents        []metadata.AcceptsParents   `json:"parents"`
	Requirements   []metadata.ChildRequirement `json:"requirements,omitempty"`
}

func toJSON(r *metadata.Registry, def *metadata.TypeDefinition) typeJSON {
	return typeJSON{
		Name:           def.QualifiedName(),
		Parent:         def.ParentQualifiedName(),
		Implementation: def.Implementation().Name,
		Description:    def.Description(),
		Resolved:       def.IsResolved(),
		Children:       def.AllAcceptsChildren(),
		Parents:        def.AllAcceptsParents(),
		Requirements:   r.ChildRequirements(def.Type(), def.SubType()),
	}
}

func newTypesCommand(a *app) *cobra.Command {
	var (
		family string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered types",
		Long: `List every registered type with its parent, implementation and status.

Examples:
  metareg types
  metareg types --family field
  metareg types --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := a.buildRegistry(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.DiscoveryError(err, a.colorless()))
				return errReported
			}

			var defs []*metadata.TypeDefinition
			if family != "" {
				if !reg.HasType(family) {
					fmt.Fprint(cmd.ErrOrStderr(), ui.UnknownTypeError(family, familyNames(reg), a.colorless()))
					return errReported
				}
				defs = reg.TypesOf(family)
			} else {
				defs = reg.Definitions()
				sort.Slice(defs, func(i, j int) bool { return defs[i].QualifiedName() < defs[j].QualifiedName() })
			}

			w := cmd.OutOrStdout()
			if asJSON {
				out := make([]typeJSON, 0, len(defs))
				for _, def := range defs {
					out = append(out, toJSON(reg, def))
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			ui.RenderTypes(w, defs, a.colorless())
			return nil
		},
	}

	cmd.Flags().StringVarP(&family, "family", "f", "", "Only list subtypes of this primary type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print types as JSON")
	return cmd
}

// familyNames returns the distinct primary types, sorted.
func familyNames(r *metadata.Registry) []string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range r.RegisteredTypes() {
		if !seen[id.Type] {
			seen[id.Type] = true
			names = append(names, id.Type)
		}
	}
	sort.Strings(names)
	return names
}

func newInspectCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect TYPE",
		Short: "Show the effective rules of one type",
		Long: `Show a type's implementation, parent, accepted children and parents and
child requirements. Inherited rules are marked.

TYPE is a qualified name such as field.string.

Examples:
  metareg inspect field.string
  metareg inspect object.map --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := a.buildRegistry(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.DiscoveryError(err, a.colorless()))
				return errReported
			}

			id, err := metadata.ParseTypeIdentifier(args[0])
			if err != nil {
				return err
			}
			def, err := reg.FindType(id.Type, id.SubType)
			if errors.Is(err, metadata.ErrUnknownType) {
				fmt.Fprint(cmd.ErrOrStderr(), ui.UnknownTypeError(id.QualifiedName(), reg.RegisteredTypeNames(), a.colorless()))
				return errReported
			} else if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(toJSON(reg, def))
			}
			ui.RenderType(w, reg, def, a.colorless())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the type as JSON")
	return cmd
}
