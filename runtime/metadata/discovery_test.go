package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	RegisterProvider(NewProvider("metadata-test-defaults", 0, nil, func(r *Registry) error {
		return r.RegisterType(testImpl("test.Default"), func(b *TypeDefinitionBuilder) {
			b.Type("test").SubType("default")
		})
	}))
}

func typeProvider(name string, priority int, deps []string, typ, subType string) Provider {
	return NewProvider(name, priority, deps, func(r *Registry) error {
		return r.RegisterType(testImpl(name+"."+subType), func(b *TypeDefinitionBuilder) {
			b.Type(typ).SubType(subType)
		})
	})
}

func providerNames(providers []Provider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	return names
}

func TestResolveProviderOrder_DependenciesThenPriority(t *testing.T) {
	p1 := NewProvider("p1", 0, nil, nil)
	p2 := NewProvider("p2", 5, []string{"p1"}, nil)
	p3 := NewProvider("p3", 10, []string{"p1"}, nil)

	ordered, err := ResolveProviderOrder([]Provider{p2, p3, p1})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3", "p2"}, providerNames(ordered))
}

func TestResolveProviderOrder_StableOnEqualPriority(t *testing.T) {
	ordered, err := ResolveProviderOrder([]Provider{
		NewProvider("a", 1, nil, nil),
		NewProvider("b", 5, nil, nil),
		NewProvider("c", 5, nil, nil),
		NewProvider("d", 100, []string{"a"}, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a", "d"}, providerNames(ordered))
}

func TestResolveProviderOrder_DuplicateNameKeepsFirst(t *testing.T) {
	first := NewDescribedProvider("dup", "first", 0, nil, nil)
	second := NewDescribedProvider("dup", "second", 50, nil, nil)

	ordered, err := ResolveProviderOrder([]Provider{first, second})
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "first", ordered[0].Description())
}

func TestResolveProviderOrder_MissingDependency(t *testing.T) {
	_, err := ResolveProviderOrder([]Provider{
		NewProvider("p1", 0, nil, nil),
		NewProvider("p2", 0, []string{"p1", "ghost"}, nil),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDependency))
	assert.False(t, errors.Is(err, ErrCircularDependency))

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "p2", provErr.Provider)
	assert.Equal(t, []string{"ghost"}, provErr.Missing)
	assert.Equal(t, PhaseDependencyResolution, provErr.Phase)
	assert.Equal(t, CodeMissingDependency, provErr.Code())
	assert.Contains(t, provErr.Diagnostic(), "Missing dependencies: ghost")
}

func TestResolveProviderOrder_Cycle(t *testing.T) {
	_, err := ResolveProviderOrder([]Provider{
		NewProvider("p1", 0, []string{"p2"}, nil),
		NewProvider("p2", 0, []string{"p1"}, nil),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircularDependency))

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, []string{"p1", "p2", "p1"}, provErr.Cycle)
	assert.Equal(t, CodeCircularDependency, provErr.Code())
	assert.Contains(t, err.Error(), "p1 -> p2 -> p1")
}

func TestResolveProviderOrder_SelfDependency(t *testing.T) {
	_, err := ResolveProviderOrder([]Provider{NewProvider("loop", 0, []string{"loop"}, nil)})
	assert.True(t, errors.Is(err, ErrCircularDependency))
}

func TestDiscover_RegistersInOrder(t *testing.T) {
	r := newTestRegistry(t)
	var order []string
	record := func(name string) func(*Registry) error {
		return func(*Registry) error {
			order = append(order, name)
			return nil
		}
	}

	result, err := r.Discover(context.Background(), NewStaticStrategy(
		NewProvider("p2", 5, []string{"p1"}, record("p2")),
		NewProvider("p3", 10, []string{"p1"}, record("p3")),
		NewProvider("p1", 0, nil, record("p1")),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p3", "p2"}, order)
	assert.Equal(t, []string{"p1", "p3", "p2"}, result.ProviderNames())

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)
	assert.Contains(t, result.Strategy, "static")
}

func TestDiscover_PublishesTypes(t *testing.T) {
	r := newTestRegistry(t)
	result, err := r.Discover(context.Background(), NewStaticStrategy(
		typeProvider("core", 100, nil, "object", "base"),
		NewProvider("pojo", 0, []string{"core"}, func(r *Registry) error {
			return r.RegisterType(testImpl("object.Pojo"), func(b *TypeDefinitionBuilder) {
				b.Type("object").SubType("pojo").InheritsFromBaseObject()
			})
		}),
		NewProvider("orphan", 0, nil, func(r *Registry) error {
			return r.RegisterType(testImpl("view.Text"), func(b *TypeDefinitionBuilder) {
				b.Type("view").SubType("text").InheritsFrom("view", "base")
			})
		}),
	))
	require.NoError(t, err)

	assert.Equal(t, 0, result.TypesBefore)
	assert.Equal(t, 3, result.TypesAfter)
	assert.Equal(t, []TypeIdentifier{NewTypeIdentifier("view", "text")}, result.Deferred)
	assert.True(t, r.IsRegistered("object", "pojo"))
	require.Len(t, result.Providers, 3)
	assert.Equal(t, 1, result.Providers[0].TypesAdded)
}

func TestDiscover_CycleRegistersNothing(t *testing.T) {
	r := newTestRegistry(t)
	called := false
	register := func(*Registry) error {
		called = true
		return nil
	}

	_, err := r.Discover(context.Background(), NewStaticStrategy(
		NewProvider("p1", 0, []string{"p2"}, register),
		NewProvider("p2", 0, []string{"p1"}, register),
	))
	assert.True(t, errors.Is(err, ErrCircularDependency))
	assert.False(t, called)
	assert.Equal(t, 0, r.Len())
}

func TestDiscover_FailureIsAtomic(t *testing.T) {
	r := newTestRegistry(t)
	mustRegister(t, r, "existing.Type", func(b *TypeDefinitionBuilder) {
		b.Type("existing").SubType("type")
	})

	providerErr := errors.New("database extension unavailable")
	_, err := r.Discover(context.Background(), NewStaticStrategy(
		typeProvider("core", 10, nil, "field", "base"),
		NewProvider("db", 0, []string{"core"}, func(*Registry) error { return providerErr }),
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, providerErr))
	assert.True(t, errors.Is(err, ErrProviderFailed))

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "db", provErr.Provider)
	assert.Equal(t, []string{"core"}, provErr.Dependencies)
	assert.Equal(t, PhaseTypeRegistration, provErr.Phase)
	assert.Contains(t, provErr.Diagnostic(), "Root cause: database extension unavailable")

	assert.False(t, r.IsRegistered("field", "base"), "registrations of the failed run are discarded")
	assert.True(t, r.IsRegistered("existing", "type"), "earlier registrations survive")
}

func TestDiscover_ReadersSeePreviousStateDuringRun(t *testing.T) {
	r := newTestRegistry(t)
	var visibleDuringRun bool

	_, err := r.Discover(context.Background(), NewStaticStrategy(
		typeProvider("core", 10, nil, "field", "base"),
		NewProvider("probe", 0, []string{"core"}, func(stage *Registry) error {
			visibleDuringRun = r.IsRegistered("field", "base")
			return nil
		}),
	))
	require.NoError(t, err)
	assert.False(t, visibleDuringRun)
	assert.True(t, r.IsRegistered("field", "base"))
}

func TestDiscover_ProviderPanic(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Discover(context.Background(), NewStaticStrategy(
		NewProvider("bad", 0, nil, func(*Registry) error { panic("nil map") }),
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderFailed))
	assert.Contains(t, err.Error(), "nil map")
}

func TestDiscover_CancelledContext(t *testing.T) {
	r := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Discover(ctx, NewStaticStrategy(typeProvider("core", 0, nil, "field", "base")))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, r.Len())
}

func TestDiscover_StrategyError(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Discover(context.Background(), failingStrategy{})

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, PhaseDiscovery, provErr.Phase)
	assert.Equal(t, CodeDiscoveryFailed, provErr.Code())
}

type failingStrategy struct{}

func (failingStrategy) Discover(context.Context) ([]Provider, error) {
	return nil, errors.New("catalog directory missing")
}

func (failingStrategy) Description() string { return "failing" }

func TestDiscover_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := newTestRegistry(t, WithTracer(tp.Tracer("test")))
	_, err := r.Discover(context.Background(), NewStaticStrategy(
		typeProvider("core", 0, nil, "field", "base"),
		typeProvider("more", 0, []string{"core"}, "field", "string"),
	))
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.ElementsMatch(t, []string{"metadata.provider.register", "metadata.provider.register", "metadata.discover"}, names)
}

func TestChainStrategy(t *testing.T) {
	chain := NewChainStrategy(
		NewStaticStrategy(NewProvider("a", 0, nil, nil)),
		NewStaticStrategy(NewProvider("b", 0, nil, nil), NewProvider("c", 0, nil, nil)),
	)

	providers, err := chain.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, providerNames(providers))
	assert.Equal(t, "chain(static (1 providers), static (2 providers))", chain.Description())

	_, err = NewChainStrategy(failingStrategy{}).Discover(context.Background())
	assert.ErrorContains(t, err, "failing")
}

func TestRegisterProvider_PanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterProvider(NewProvider("metadata-test-defaults", 0, nil, nil))
	})
	assert.Contains(t, providerNames(RegisteredProviders()), "metadata-test-defaults")
}

func TestDefault(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	r1, err := Default()
	require.NoError(t, err)
	assert.True(t, r1.IsRegistered("test", "default"))
	assert.Same(t, r1, MustDefault())

	ResetDefault()
	r2 := MustDefault()
	assert.NotSame(t, r1, r2)
}
