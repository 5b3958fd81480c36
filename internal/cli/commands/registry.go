package commands

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/conduit-lang/metaregistry/internal/catalog"
	"github.com/conduit-lang/metaregistry/runtime/metadata"
	"github.com/conduit-lang/metaregistry/runtime/metadata/coretypes"
)

// strategy chains the built-in providers, when enabled, with the catalogs
// under the configured paths. Missing paths are skipped with a warning.
func (a *app) strategy() metadata.DiscoveryStrategy {
	var strategies []metadata.DiscoveryStrategy
	if a.cfg.Registry.IncludeCore {
		strategies = append(strategies, coretypes.Strategy())
	}

	var paths []string
	for _, p := range a.cfg.Catalog.Paths {
		if _, err := os.Stat(p); err != nil {
			a.logger.Warn("skipping catalog path", zap.String("path", p), zap.Error(err))
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) > 0 {
		strategies = append(strategies, catalog.NewStrategy(paths, a.cfg.CatalogFormat(), a.logger))
	}
	return metadata.NewChainStrategy(strategies...)
}

// coreTypes maps the configured family names to their base types.
func (a *app) coreTypes() []string {
	names := make([]string, 0, len(a.cfg.Registry.CoreTypes))
	for _, family := range a.cfg.Registry.CoreTypes {
		names = append(names, metadata.NewTypeIdentifier(family, metadata.BaseSubType).QualifiedName())
	}
	return names
}

// buildRegistry creates a registry and runs discovery over the configured
// strategy.
func (a *app) buildRegistry(ctx context.Context) (*metadata.Registry, *metadata.DiscoveryResult, error) {
	r := metadata.NewRegistry(
		metadata.WithLogger(a.logger),
		metadata.WithTracer(a.tracing.Tracer()),
		metadata.WithCoreTypes(a.coreTypes()),
	)
	result, err := r.Discover(ctx, a.strategy())
	if err != nil {
		return nil, nil, err
	}
	return r, result, nil
}

// watchPaths returns the configured catalog paths that exist.
func (a *app) watchPaths() []string {
	var paths []string
	for _, p := range a.cfg.Catalog.Paths {
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}
