package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/internal/cli/ui"
)

func newTreeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Validate every placement in a metadata tree document",
		Long: `Build each node of a YAML or JSON tree document through the registry and
check its placement under its parent. Nodes that cannot be built or placed are
reported and their subtrees skipped. Required children missing from a node are
reported too.

Examples:
  metareg tree testdata/orders.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := catalog.LoadTree(args[0])
			if err != nil {
				return err
			}

			reg, _, err := a.buildRegistry(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.DiscoveryError(err, a.colorless()))
				return errReported
			}

			report := catalog.ValidateTree(reg, *root)
			ui.RenderTreeReport(cmd.OutOrStdout(), report, a.colorless())
			if !report.OK() {
				return errReported
			}
			return nil
		},
	}
}
