package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metaregistry/internal/cli/ui"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

type validateOutput struct {
	Status    string                    `json:"status"`
	Discovery *metadata.DiscoveryResult `json:"discovery"`
	Health    *metadata.HealthReport    `json:"health"`
}

func newValidateCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Discover all providers and report registry health",
		Long: `Run discovery over the built-in types and configured catalogs, then check
the resulting registry for structural problems.

The command exits non-zero when discovery fails or the registry has errors.
Warnings and recommendations are reported but do not fail the run.

Examples:
  metareg validate
  metareg validate --catalog ./catalogs --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			reg, result, err := a.buildRegistry(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.DiscoveryError(err, a.colorless()))
				return errReported
			}
			report := reg.ValidateConsistency()

			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(validateOutput{report.Status(), result, report}); err != nil {
					return err
				}
			} else {
				ui.RenderDiscovery(w, result, a.colorless())
				fmt.Fprintln(w)
				ui.RenderHealth(w, report, a.colorless())
			}

			if !report.IsStructurallySound() {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the discovery result and health report as JSON")
	return cmd
}
