package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metaregistry/internal/cli/ui"
	"github.com/conduit-lang/metaregistry/internal/watch"
	"github.com/conduit-lang/metaregistry/internal/web/api"
	"github.com/conduit-lang/metaregistry/internal/web/events"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var (
		addr     string
		live     bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP API over the registry",
		Long: `Serve the registry over HTTP:

  GET /api/types[?family=f]          list types
  GET /api/types/{type}/{subType}    effective rules of one type
  GET /api/placement?parent=&child=  check one placement
  GET /api/health                    consistency report
  GET /api/stats                     registry statistics
  GET /api/events                    websocket stream of reload events

With --watch the registry is rebuilt when a catalog changes and every reload
is pushed to /api/events.

Examples:
  metareg serve --addr :8080
  metareg serve --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := events.NewHub(a.logger)
			defer hub.Close()

			reloader := watch.NewReloader(a.buildRegistry, a.logger)
			reloader.Subscribe(hub)
			reloader.Subscribe(eventPrinter(cmd.OutOrStdout(), a.colorless()))

			if live {
				watcher, err := a.startWatcher(ctx, reloader, debounce)
				if err != nil {
					return err
				}
				defer watcher.Stop()
			} else {
				_, _ = reloader.Reload(ctx, nil)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(reloader, hub, a.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprint(cmd.OutOrStdout(), ui.Info(fmt.Sprintf("Serving on %s. Press Ctrl+C to stop.", addr), a.colorless()))

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server", zap.String("addr", addr))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().BoolVar(&live, "watch", false, "Rebuild the registry when catalogs change")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "How long to wait for changes to settle")
	return cmd
}
