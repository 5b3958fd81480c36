package metadata

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Provider is a named unit that populates a registry. Providers are ordered
// by their dependencies, then by descending priority, and each one is
// invoked exactly once per discovery run.
type Provider interface {
	Name() string
	Dependencies() []string
	Priority() int
	Description() string
	RegisterTypes(r *Registry) error
}

type funcProvider struct {
	name         string
	priority     int
	dependencies []string
	description  string
	register     func(*Registry) error
}

// NewProvider returns a Provider backed by a registration function.
func NewProvider(name string, priority int, dependencies []string, register func(*Registry) error) Provider {
	return &funcProvider{
		name:         name,
		priority:     priority,
		dependencies: slices.Clone(dependencies),
		description:  "Provider " + name,
		register:     register,
	}
}

// NewDescribedProvider is NewProvider with an explicit description.
func NewDescribedProvider(name, description string, priority int, dependencies []string, register func(*Registry) error) Provider {
	p := NewProvider(name, priority, dependencies, register).(*funcProvider)
	if description != "" {
		p.description = description
	}
	return p
}

func (p *funcProvider) Name() string           { return p.name }
func (p *funcProvider) Priority() int          { return p.priority }
func (p *funcProvider) Dependencies() []string { return slices.Clone(p.dependencies) }
func (p *funcProvider) Description() string    { return p.description }

func (p *funcProvider) RegisterTypes(r *Registry) error {
	if p.register == nil {
		return nil
	}
	return p.register(r)
}

// DiscoveryStrategy supplies the providers of one environment.
type DiscoveryStrategy interface {
	Discover(ctx context.Context) ([]Provider, error)
	Description() string
}

// StaticStrategy returns a fixed list of providers.
type StaticStrategy struct {
	providers []Provider
}

// NewStaticStrategy returns a strategy over the given providers.
func NewStaticStrategy(providers ...Provider) *StaticStrategy {
	return &StaticStrategy{providers: slices.Clone(providers)}
}

func (s *StaticStrategy) Discover(ctx context.Context) ([]Provider, error) {
	return slices.Clone(s.providers), nil
}

func (s *StaticStrategy) Description() string {
	return fmt.Sprintf("static (%d providers)", len(s.providers))
}

// ChainStrategy concatenates the providers of several strategies in order.
type ChainStrategy struct {
	strategies []DiscoveryStrategy
}

// NewChainStrategy returns a strategy over the given strategies.
func NewChainStrategy(strategies ...DiscoveryStrategy) *ChainStrategy {
	return &ChainStrategy{strategies: slices.Clone(strategies)}
}

func (c *ChainStrategy) Discover(ctx context.Context) ([]Provider, error) {
	var out []Provider
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		providers, err := s.Discover(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Description(), err)
		}
		out = append(out, providers...)
	}
	return out, nil
}

func (c *ChainStrategy) Description() string {
	parts := make([]string, 0, len(c.strategies))
	for _, s := range c.strategies {
		parts = append(parts, s.Description())
	}
	return "chain(" + strings.Join(parts, ", ") + ")"
}

// Providers registered from init functions. Registration order is kept so
// discovery is deterministic across runs.
var (
	selfMu     sync.RWMutex
	selfByName = make(map[string]Provider)
	selfOrder  []string
)

// RegisterProvider adds a provider to the self-registered set. It is meant
// to be called from init and panics on a duplicate name, like sql.Register.
func RegisterProvider(p Provider) {
	selfMu.Lock()
	defer selfMu.Unlock()

	name := p.Name()
	if _, exists := selfByName[name]; exists {
		panic("metadata: provider already registered: " + name)
	}
	selfByName[name] = p
	selfOrder = append(selfOrder, name)
}

// RegisteredProviders returns the self-registered providers in registration order.
func RegisteredProviders() []Provider {
	selfMu.RLock()
	defer selfMu.RUnlock()

	out := make([]Provider, 0, len(selfOrder))
	for _, name := range selfOrder {
		out = append(out, selfByName[name])
	}
	return out
}

// SelfRegisteredStrategy discovers the providers added with RegisterProvider.
type SelfRegisteredStrategy struct{}

func (SelfRegisteredStrategy) Discover(ctx context.Context) ([]Provider, error) {
	return RegisteredProviders(), nil
}

func (SelfRegisteredStrategy) Description() string { return "self-registered providers" }
