package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metaregistry/internal/cli/ui"
)

func newProvidersCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List discovered providers without registering them",
		Long: `List the providers the configured strategy finds, highest priority first, with
their declared dependencies. Nothing is registered, so this works even when
discovery would fail on a missing or circular dependency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy := a.strategy()
			providers, err := strategy.Discover(cmd.Context())
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.DiscoveryError(err, a.colorless()))
				return errReported
			}
			sort.SliceStable(providers, func(i, j int) bool {
				if providers[i].Priority() != providers[j].Priority() {
					return providers[i].Priority() > providers[j].Priority()
				}
				return providers[i].Name() < providers[j].Name()
			})

			w := cmd.OutOrStdout()
			t := ui.NewTable(w, []string{"PROVIDER", "PRIORITY", "DEPENDS ON", "DESCRIPTION"}, &ui.TableOptions{NoColor: a.colorless()})
			for _, p := range providers {
				deps := "-"
				if len(p.Dependencies()) > 0 {
					deps = strings.Join(p.Dependencies(), ", ")
				}
				t.AddRow(p.Name(), strconv.Itoa(p.Priority()), deps, p.Description())
			}
			t.Render()
			fmt.Fprintf(w, "\n%d providers from %s\n", len(providers), strategy.Description())
			return nil
		},
	}
}
