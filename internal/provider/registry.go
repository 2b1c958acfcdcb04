package provider

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Type names the provider backends spuff knows about by name, freshly
// authored here since original_source/src/provider/config.rs (referenced
// by registry.rs as `super::config::ProviderType`) is not present in the
// retrieval pack — every variant below is reconstructed from its usage in
// registry.rs and mod.rs (the create_provider dispatch strings and the
// registry's supported_names/is_implemented assertions).
type Type int

const (
	TypeDigitalOcean Type = iota
	TypeHetzner
	TypeAWS
	TypeContainer
)

func (t Type) String() string {
	switch t {
	case TypeDigitalOcean:
		return "digitalocean"
	case TypeHetzner:
		return "hetzner"
	case TypeAWS:
		return "aws"
	case TypeContainer:
		return "container"
	default:
		return "unknown"
	}
}

func ParseType(s string) (Type, bool) {
	switch s {
	case "digitalocean":
		return TypeDigitalOcean, true
	case "hetzner":
		return TypeHetzner, true
	case "aws":
		return TypeAWS, true
	case "container":
		return TypeContainer, true
	default:
		return 0, false
	}
}

// Timeouts bounds the polling loops a Factory's driver runs while waiting
// on the underlying API (instance-ready polling, snapshot-action polling).
// Reconstructed from registry.rs's `ProviderTimeouts` reference; defaults
// mirror the poll counts/intervals observed in digitalocean.rs
// (wait_ready: 60 * 5s, wait_for_action: 120 * 5s).
type Timeouts struct {
	ReadyPollInterval    time.Duration
	ReadyMaxAttempts     int
	ActionPollInterval   time.Duration
	ActionMaxAttempts    int
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		ReadyPollInterval:  5 * time.Second,
		ReadyMaxAttempts:   60,
		ActionPollInterval: 5 * time.Second,
		ActionMaxAttempts:  120,
	}
}

// Factory builds a Provider for a given API token and timeout budget.
// Grounded on original_source/src/provider/registry.rs's ProviderFactory trait.
type Factory interface {
	ProviderType() Type
	Create(token string, timeouts Timeouts) (Provider, error)
	// IsImplemented reports whether Create can return a working driver;
	// registered-but-unimplemented backends (hetzner, aws) return false so
	// the registry can raise NotImplementedError instead of dispatching.
	IsImplemented() bool
}

// Registry resolves a provider name to a Factory and, from there, to a
// concrete Provider. Grounded on original_source/src/provider/registry.rs's
// ProviderRegistry.
type Registry struct {
	mu        sync.RWMutex
	factories map[Type]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[Type]Factory)}
}

// WithDefaults returns a Registry pre-populated via RegisterDefaults with
// the given implemented factories (digitalocean, container — passed in by
// the caller, normally internal/cli's wiring code, to avoid this package
// importing its own driver subpackages and creating an import cycle) plus
// the built-in stub entries for registered-but-unimplemented backends.
func WithDefaults(implemented ...Factory) *Registry {
	r := NewRegistry()
	r.RegisterDefaults(implemented...)
	return r
}

// RegisterDefaults registers the given implemented factories plus the
// known-but-unimplemented stubs (hetzner, aws), so ImplementedProviders/
// RegisteredProviders reflect the full set spuff knows the name of.
func (r *Registry) RegisterDefaults(implemented ...Factory) {
	for _, f := range implemented {
		r.Register(f)
	}
	r.Register(stubFactory{kind: TypeHetzner})
	r.Register(stubFactory{kind: TypeAWS})
}

func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.ProviderType()] = f
}

// Create builds a Provider for the given provider type.
func (r *Registry) Create(ctx context.Context, t Type, token string, timeouts Timeouts) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[t]
	r.mu.RUnlock()
	if !ok {
		return nil, UnknownProviderError(t.String(), r.RegisteredProviders())
	}
	if !f.IsImplemented() {
		return nil, NotImplementedError(t.String())
	}
	return f.Create(token, timeouts)
}

// CreateByName parses name and dispatches via Create.
func (r *Registry) CreateByName(ctx context.Context, name, token string, timeouts Timeouts) (Provider, error) {
	t, ok := ParseType(name)
	if !ok {
		return nil, UnknownProviderError(name, r.RegisteredProviders())
	}
	return r.Create(ctx, t, token, timeouts)
}

// RegisteredProviders lists every registered provider's name, sorted.
func (r *Registry) RegisteredProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for t := range r.factories {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}

func (r *Registry) IsRegistered(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[t]
	return ok
}

// ImplementedProviders lists only the providers whose Factory.IsImplemented
// returns true, sorted.
func (r *Registry) ImplementedProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for t, f := range r.factories {
		if f.IsImplemented() {
			names = append(names, t.String())
		}
	}
	sort.Strings(names)
	return names
}

// stubFactory registers a known-but-unimplemented provider name (hetzner,
// aws) so ProviderError.UnknownProvider vs NotImplementedError can be
// told apart, matching create_provider's explicit "not yet implemented"
// branch in mod.rs.
type stubFactory struct{ kind Type }

func (s stubFactory) ProviderType() Type { return s.kind }
func (s stubFactory) IsImplemented() bool { return false }
func (s stubFactory) Create(token string, timeouts Timeouts) (Provider, error) {
	return nil, NotImplementedError(s.kind.String())
}
