package metadata

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTracer sets the tracer used for discovery spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithStrategy sets the strategy Discover falls back to when called without one.
func WithStrategy(strategy DiscoveryStrategy) Option {
	return func(r *Registry) {
		r.strategy = strategy
	}
}

// WithCoreTypes replaces the qualified names ValidateConsistency expects to
// be registered. Names that do not parse as "type.subtype" are ignored.
func WithCoreTypes(names []string) Option {
	return func(r *Registry) {
		r.coreTypes = r.coreTypes[:0:0]
		for _, name := range names {
			if id, err := ParseTypeIdentifier(name); err == nil {
				r.coreTypes = append(r.coreTypes, id)
			}
		}
	}
}

// DefaultCoreTypes returns the base types a complete registry is expected to hold.
func DefaultCoreTypes() []TypeIdentifier {
	return []TypeIdentifier{
		NewTypeIdentifier("field", BaseSubType),
		NewTypeIdentifier("object", BaseSubType),
		NewTypeIdentifier("attr", BaseSubType),
		NewTypeIdentifier("validator", BaseSubType),
		NewTypeIdentifier("key", BaseSubType),
	}
}
