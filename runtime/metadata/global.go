package metadata

import (
	"context"
	"sync"
	"sync/atomic"
)

// Process-wide registry, populated on first use from the self-registered
// providers.
var (
	defaultRegistry    atomic.Pointer[Registry]
	defaultInitialized atomic.Bool
	defaultMu          sync.Mutex
	defaultOptions     []Option
)

// SetDefaultOptions sets the options used when the process-wide registry is
// first created. It has no effect once Default has succeeded.
func SetDefaultOptions(opts ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOptions = opts
}

// Default returns the process-wide registry, running discovery over the
// self-registered providers on first use. A failed discovery is returned to
// the caller and retried by the next call.
func Default() (*Registry, error) {
	// Fast path: already initialized, no locks
	if defaultInitialized.Load() {
		return defaultRegistry.Load(), nil
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInitialized.Load() {
		return defaultRegistry.Load(), nil
	}

	r := NewRegistry(defaultOptions...)
	if _, err := r.Discover(context.Background(), SelfRegisteredStrategy{}); err != nil {
		return nil, err
	}
	defaultRegistry.Store(r)
	defaultInitialized.Store(true)
	return r, nil
}

// MustDefault is Default that panics on error, for use in init and main.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// ResetDefault discards the process-wide registry (used for testing).
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry.Store(nil)
	defaultInitialized.Store(false)
}
