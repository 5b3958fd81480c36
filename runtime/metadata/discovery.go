package metadata

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProviderRun records one provider's invocation during discovery.
type ProviderRun struct {
	Name         string        `json:"name"`
	Priority     int           `json:"priority"`
	Dependencies []string      `json:"dependencies,omitempty"`
	TypesAdded   int           `json:"types_added"`
	Duration     time.Duration `json:"duration"`
}

// DiscoveryResult summarizes a successful discovery run.
type DiscoveryResult struct {
	RunID       string           `json:"run_id"`
	Strategy    string           `json:"strategy"`
	Providers   []ProviderRun    `json:"providers"`
	TypesBefore int              `json:"types_before"`
	TypesAfter  int              `json:"types_after"`
	Deferred    []TypeIdentifier `json:"deferred,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

// ProviderNames returns the providers in invocation order.
func (d *DiscoveryResult) ProviderNames() []string {
	names := make([]string, 0, len(d.Providers))
	for _, p := range d.Providers {
		names = append(names, p.Name)
	}
	return names
}

// Discover finds providers with the strategy (the registry's configured
// strategy when nil, self-registered providers when neither is set), orders
// them and invokes each against a staging copy of the registry. The staging
// copy is published only when every provider succeeds: a failed run leaves
// the registry exactly as it was.
//
// Registry writers are blocked for the whole run; readers keep seeing the
// previous type system until the new one is published.
func (r *Registry) Discover(ctx context.Context, strategy DiscoveryStrategy) (*DiscoveryResult, error) {
	if strategy == nil {
		strategy = r.strategy
	}
	if strategy == nil {
		strategy = SelfRegisteredStrategy{}
	}

	started := time.Now()
	result := &DiscoveryResult{
		RunID:    uuid.NewString(),
		Strategy: strategy.Description(),
	}
	logger := r.logger.With(zap.String("run_id", result.RunID))

	ctx, span := r.tracer.Start(ctx, "metadata.discover", trace.WithAttributes(
		attribute.String("discovery.run_id", result.RunID),
		attribute.String("discovery.strategy", result.Strategy),
	))
	defer span.End()

	fail := func(err error) (*DiscoveryResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("provider discovery failed", zap.Error(err))
		return nil, err
	}

	providers, err := strategy.Discover(ctx)
	if err != nil {
		return fail(&ProviderError{Phase: PhaseDiscovery, Err: err})
	}
	ordered, err := resolveProviderOrder(providers, logger)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("discovery.providers", len(ordered)))

	r.mu.Lock()
	defer r.mu.Unlock()

	stage := &Registry{
		logger:    r.logger,
		tracer:    r.tracer,
		strategy:  r.strategy,
		coreTypes: r.coreTypes,
	}
	stage.state.Store(r.load().clone())
	result.TypesBefore = stage.Len()

	for _, p := range ordered {
		if err := ctx.Err(); err != nil {
			return fail(&ProviderError{
				Provider:     p.Name(),
				Dependencies: p.Dependencies(),
				Phase:        PhaseTypeRegistration,
				Err:          err,
			})
		}
		run, err := r.invokeProvider(ctx, stage, p)
		if err != nil {
			return fail(err)
		}
		result.Providers = append(result.Providers, run)
		logger.Info("loaded provider",
			zap.String("provider", run.Name),
			zap.Int("priority", run.Priority),
			zap.Int("types_added", run.TypesAdded),
			zap.Duration("duration", run.Duration))
	}

	r.publish(stage.load())

	result.TypesAfter = stage.Len()
	result.Deferred = stage.DeferredTypes()
	result.Duration = time.Since(started)
	span.SetAttributes(attribute.Int("discovery.types", result.TypesAfter))

	logger.Info("provider discovery complete",
		zap.Int("providers", len(result.Providers)),
		zap.Int("types", result.TypesAfter),
		zap.Duration("duration", result.Duration))
	if len(result.Deferred) > 0 {
		names := make([]string, 0, len(result.Deferred))
		for _, id := range result.Deferred {
			names = append(names, id.QualifiedName())
		}
		logger.Warn("types with unresolved inheritance after discovery", zap.Strings("types", names))
	}
	return result, nil
}

func (r *Registry) invokeProvider(ctx context.Context, stage *Registry, p Provider) (run ProviderRun, err error) {
	run = ProviderRun{
		Name:         p.Name(),
		Priority:     p.Priority(),
		Dependencies: p.Dependencies(),
	}
	_, span := r.tracer.Start(ctx, "metadata.provider.register", trace.WithAttributes(
		attribute.String("provider.name", run.Name),
		attribute.Int("provider.priority", run.Priority),
	))
	defer span.End()

	before := stage.Len()
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
		run.Duration = time.Since(started)
		run.TypesAdded = stage.Len() - before
		span.SetAttributes(attribute.Int("provider.types", run.TypesAdded))
		if err != nil {
			err = &ProviderError{
				Provider:     run.Name,
				Dependencies: run.Dependencies,
				Phase:        PhaseTypeRegistration,
				Err:          err,
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	err = p.RegisterTypes(stage)
	return run, err
}

// ResolveProviderOrder validates provider dependencies and returns the
// providers in invocation order: every provider after its dependencies,
// and among providers free to run, higher priority first with ties kept in
// discovery order. A repeated name keeps the first provider.
func ResolveProviderOrder(providers []Provider) ([]Provider, error) {
	return resolveProviderOrder(providers, zap.NewNop())
}

func resolveProviderOrder(providers []Provider, logger *zap.Logger) ([]Provider, error) {
	byName := make(map[string]int, len(providers))
	var unique []Provider
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, exists := byName[p.Name()]; exists {
			logger.Warn("duplicate provider name, keeping the first", zap.String("provider", p.Name()))
			continue
		}
		byName[p.Name()] = len(unique)
		unique = append(unique, p)
	}

	deps := make([][]int, len(unique))
	for i, p := range unique {
		var missing []string
		seen := make(map[int]bool)
		for _, dep := range p.Dependencies() {
			j, ok := byName[dep]
			if !ok {
				missing = append(missing, dep)
				continue
			}
			if !seen[j] {
				seen[j] = true
				deps[i] = append(deps[i], j)
			}
		}
		if len(missing) > 0 {
			return nil, &ProviderError{
				Provider:     p.Name(),
				Dependencies: p.Dependencies(),
				Missing:      missing,
				Phase:        PhaseDependencyResolution,
			}
		}
	}

	if cycle := findProviderCycle(unique, deps); cycle != nil {
		return nil, &ProviderError{
			Provider: cycle[0],
			Cycle:    cycle,
			Phase:    PhaseDependencyResolution,
		}
	}

	// Kahn's algorithm, taking the best ready provider each step.
	pending := make([]int, len(unique))
	dependents := make([][]int, len(unique))
	for i, ds := range deps {
		pending[i] = len(ds)
		for _, j := range ds {
			dependents[j] = append(dependents[j], i)
		}
	}
	done := make([]bool, len(unique))
	ordered := make([]Provider, 0, len(unique))
	for len(ordered) < len(unique) {
		best := -1
		for i := range unique {
			if done[i] || pending[i] > 0 {
				continue
			}
			if best < 0 || unique[i].Priority() > unique[best].Priority() {
				best = i
			}
		}
		if best < 0 {
			// unreachable after cycle detection
			return nil, &ProviderError{Phase: PhaseDependencyResolution, Err: fmt.Errorf("no provider ready")}
		}
		done[best] = true
		ordered = append(ordered, unique[best])
		for _, i := range dependents[best] {
			pending[i]--
		}
	}
	return ordered, nil
}

// findProviderCycle runs a depth-first search and returns the first cycle
// found as a closed path of provider names, or nil.
func findProviderCycle(providers []Provider, deps [][]int) []string {
	visited := make([]bool, len(providers))
	onStack := make([]bool, len(providers))
	var path []int
	var cycle []string

	var visit func(i int) bool
	visit = func(i int) bool {
		visited[i] = true
		onStack[i] = true
		path = append(path, i)
		for _, j := range deps[i] {
			if onStack[j] {
				start := 0
				for k, n := range path {
					if n == j {
						start = k
						break
					}
				}
				for _, n := range path[start:] {
					cycle = append(cycle, providers[n].Name())
				}
				cycle = append(cycle, providers[j].Name())
				return true
			}
			if !visited[j] && visit(j) {
				return true
			}
		}
		onStack[i] = false
		path = path[:len(path)-1]
		return false
	}

	for i := range providers {
		if !visited[i] && visit(i) {
			return cycle
		}
	}
	return nil
}
