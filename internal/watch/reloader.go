package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// BuildFunc builds a fresh registry, normally by running discovery.
type BuildFunc func(ctx context.Context) (*metadata.Registry, *metadata.DiscoveryResult, error)

// Event types.
const (
	EventReloaded = "reloaded"
	EventError    = "error"
)

// Event describes the outcome of one reload.
type Event struct {
	Type      string     `json:"type"`
	RunID     string     `json:"run_id,omitempty"`
	Timestamp int64      `json:"timestamp"`
	Files     []string   `json:"files,omitempty"`
	Types     int        `json:"types"`
	Deferred  []string   `json:"deferred,omitempty"`
	Status    string     `json:"status,omitempty"`
	Duration  float64    `json:"duration_ms"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo holds what is known about a failed reload.
type ErrorInfo struct {
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// NewErrorInfo extracts the code, phase and provider from a registry error.
func NewErrorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{Message: err.Error()}
	var provErr *metadata.ProviderError
	if errors.As(err, &provErr) {
		info.Code = string(provErr.Code())
		info.Phase = string(provErr.Phase)
		info.Provider = provErr.Provider
		return info
	}
	var regErr *metadata.RegistryError
	if errors.As(err, &regErr) {
		info.Code = string(regErr.Code)
	}
	return info
}

// Listener receives reload events. Calls are serialized.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) Notify(e Event) { f(e) }

// Reloader owns the current registry and replaces it when a rebuild
// succeeds. A failed rebuild keeps the previous registry.
type Reloader struct {
	build     BuildFunc
	logger    *zap.Logger
	current   atomic.Pointer[metadata.Registry]
	mu        sync.Mutex
	listeners []Listener
}

// NewReloader returns a reloader with no registry until the first Reload.
func NewReloader(build BuildFunc, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{build: build, logger: logger}
}

// Subscribe adds a listener for later reloads.
func (r *Reloader) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Registry returns the most recently built registry, or nil before the
// first successful reload.
func (r *Reloader) Registry() *metadata.Registry {
	return r.current.Load()
}

// Reload rebuilds the registry. files names the changes that triggered it.
func (r *Reloader) Reload(ctx context.Context, files []string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	reg, result, err := r.build(ctx)
	event := Event{
		Timestamp: time.Now().Unix(),
		Files:     files,
		Duration:  float64(time.Since(start).Microseconds()) / 1000,
	}

	if err != nil {
		event.Type = EventError
		event.Error = NewErrorInfo(err)
		if prev := r.current.Load(); prev != nil {
			event.Types = prev.Len()
		}
		r.logger.Warn("reload failed, keeping previous registry", zap.Strings("files", files), zap.Error(err))
	} else {
		r.current.Store(reg)
		event.Type = EventReloaded
		event.Types = reg.Len()
		event.Status = reg.ValidateConsistency().Status()
		if result != nil {
			event.RunID = result.RunID
			for _, id := range result.Deferred {
				event.Deferred = append(event.Deferred, id.QualifiedName())
			}
		}
		r.logger.Info("registry reloaded",
			zap.Strings("files", files),
			zap.Int("types", event.Types),
			zap.String("status", event.Status))
	}

	for _, l := range r.listeners {
		l.Notify(event)
	}
	return event, err
}

// OnChange adapts Reload to a FileWatcher callback.
func (r *Reloader) OnChange(ctx context.Context) func([]string) error {
	return func(files []string) error {
		_, err := r.Reload(ctx, files)
		return err
	}
}
