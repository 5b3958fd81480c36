package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/internal/cli/ui"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check PARENT CHILD",
		Short: "Check whether a child node may be placed under a parent",
		Long: `Check a single placement. Nodes are written type.subtype[name]; the name
is optional but named rules only match when it is given.

Examples:
  metareg check object.map field.string
  metareg check field.string attr.int[maxLength]`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := catalog.ParseNode(args[0])
			if err != nil {
				return err
			}
			child, err := catalog.ParseNode(args[1])
			if err != nil {
				return err
			}

			reg, _, err := a.buildRegistry(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.DiscoveryError(err, a.colorless()))
				return errReported
			}

			err = catalog.CheckPlacement(reg, parent, child)
			var violation *metadata.PlacementViolation
			switch {
			case err == nil:
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s may be placed under %s", child, parent), a.colorless())
				return nil
			case errors.As(err, &violation):
				ui.WriteError(cmd.OutOrStdout(), ui.ErrorOptions{
					Context: "PLACEMENT VIOLATION",
					Problem: fmt.Sprintf("%s cannot be placed under %s", violation.Child, violation.Parent),
					Detail:  violation.Reason,
					HelpCommands: []string{
						"Show parent rules: metareg inspect " + parent.Type + "." + parent.SubType,
					},
					NoColor: a.colorless(),
				})
				return errReported
			case errors.Is(err, metadata.ErrUnknownType):
				var regErr *metadata.RegistryError
				name := err.Error()
				if errors.As(err, &regErr) && regErr.Type != "" {
					name = regErr.Type
				}
				fmt.Fprint(cmd.ErrOrStderr(), ui.UnknownTypeError(name, reg.RegisteredTypeNames(), a.colorless()))
				return errReported
			default:
				return err
			}
		},
	}
}
