package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metaregistry/internal/cli/config"
	"github.com/conduit-lang/metaregistry/internal/cli/ui"
	"github.com/conduit-lang/metaregistry/internal/tracing"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// errReported is returned by commands that already printed their failure.
var errReported = errors.New("command failed")

// app holds the state shared by every command: flags, the loaded config,
// the logger and the tracer provider.
type app struct {
	configFile string
	verbose    bool
	noColor    bool
	catalogs   []string

	cfg     *config.Config
	logger  *zap.Logger
	tracing *tracing.Provider
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "metareg",
		Short: "Metadata type registry and placement validator",
		Long: color.CyanString(`metareg - metadata type registry

metareg discovers type providers and catalogs, resolves type inheritance
and validates where metadata nodes may be placed.

Features:
  • Built-in field, object, attribute, validator, key and view families
  • YAML and JSON catalogs with inheritance and extensions
  • Placement checks for single nodes and whole trees
  • Live reload with an HTTP introspection API`),
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error { return a.teardown(cmd.Context()) },
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Config file (default: ./metareg.yml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.StringSliceVar(&a.catalogs, "catalog", nil, "Catalog file or directory (repeatable, overrides catalog.paths)")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newInitCommand(a))
	rootCmd.AddCommand(newValidateCommand(a))
	rootCmd.AddCommand(newTypesCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newCheckCommand(a))
	rootCmd.AddCommand(newTreeCommand(a))
	rootCmd.AddCommand(newProvidersCommand(a))
	rootCmd.AddCommand(newWatchCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

// setup loads the config and builds the logger and tracer.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(a.configFile)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), a.noColor))
		return errReported
	}
	if len(a.catalogs) > 0 {
		cfg.Catalog.Paths = a.catalogs
	}
	if a.noColor {
		cfg.Output.NoColor = true
	}
	a.cfg = cfg

	a.logger = newLogger(cfg, a.verbose)
	if cfg.File != "" {
		a.logger.Debug("loaded config", zap.String("file", cfg.File))
	}

	a.tracing, err = tracing.NewProvider(cmd.Context(), cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.tracing == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return a.tracing.Shutdown(ctx)
}

// newLogger returns a development logger when verbose, otherwise a
// production logger at the configured level.
func newLogger(cfg *config.Config, verbose bool) *zap.Logger {
	if verbose {
		if logger, err := zap.NewDevelopment(); err == nil {
			return logger
		}
		return zap.NewNop()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
	zc.Encoding = "console"
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (a *app) colorless() bool {
	return a.noColor || (a.cfg != nil && a.cfg.Output.NoColor)
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the metareg version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			w := cmd.OutOrStdout()
			kv := ui.NewKeyValueTable(w, color.NoColor)
			kv.AddRow("metareg version", Version)
			kv.AddRow("Git commit", GitCommit)
			kv.AddRow("Build date", BuildDate)
			kv.AddRow("Go version", goVer)
			kv.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
