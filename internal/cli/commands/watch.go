package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metaregistry/internal/cli/ui"
	"github.com/conduit-lang/metaregistry/internal/watch"
)

var ignorePatterns = []string{"*.swp", "*.swo", "*~", ".DS_Store"}

func newWatchCommand(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the registry whenever a catalog changes",
		Long: `Watch the configured catalog paths and rerun discovery when a catalog file
is written, created, renamed or removed. A failed rebuild is reported and the
previous registry stays in effect.

Examples:
  metareg watch
  metareg watch --catalog ./catalogs --debounce 250ms`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reloader := watch.NewReloader(a.buildRegistry, a.logger)
			reloader.Subscribe(eventPrinter(cmd.OutOrStdout(), a.colorless()))

			watcher, err := a.startWatcher(ctx, reloader, debounce)
			if err != nil {
				return err
			}
			defer watcher.Stop()

			w := cmd.OutOrStdout()
			fmt.Fprint(w, ui.Info(fmt.Sprintf("Watching %v. Press Ctrl+C to stop.", a.watchPaths()), a.colorless()))
			<-ctx.Done()
			fmt.Fprintln(w, "\nShutting down...")
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "How long to wait for changes to settle")
	return cmd
}

// startWatcher runs the first build and starts watching the catalog paths.
// A failed first build is reported by the reloader's listeners and does not
// stop the watch.
func (a *app) startWatcher(ctx context.Context, reloader *watch.Reloader, debounce time.Duration) (*watch.FileWatcher, error) {
	_, _ = reloader.Reload(ctx, nil)

	paths := a.watchPaths()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog paths to watch; set catalog.paths or pass --catalog")
	}
	watcher, err := watch.NewFileWatcher(paths, ignorePatterns, a.logger, reloader.OnChange(ctx))
	if err != nil {
		return nil, err
	}
	watcher.SetDebounce(debounce)
	if err := watcher.Start(); err != nil {
		watcher.Stop()
		return nil, err
	}
	return watcher, nil
}

// eventPrinter writes one line per reload event.
func eventPrinter(w io.Writer, noColor bool) watch.Listener {
	return watch.ListenerFunc(func(e watch.Event) {
		switch e.Type {
		case watch.EventReloaded:
			ui.WriteSuccess(w, fmt.Sprintf("%d types, %s (%.1fms, run %s)", e.Types, e.Status, e.Duration, e.RunID), noColor)
		case watch.EventError:
			msg := e.Error.Message
			if e.Error.Provider != "" {
				msg = fmt.Sprintf("provider %s: %s", e.Error.Provider, msg)
			}
			fmt.Fprint(w, ui.Warning("reload failed, keeping previous registry: "+msg, noColor))
		}
	})
}
