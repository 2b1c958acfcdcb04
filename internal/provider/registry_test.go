package provider

import (
	"context"
	"testing"
)

type fakeFactory struct {
	kind        Type
	implemented bool
}

func (f fakeFactory) ProviderType() Type  { return f.kind }
func (f fakeFactory) IsImplemented() bool { return f.implemented }
func (f fakeFactory) Create(token string, timeouts Timeouts) (Provider, error) {
	if token == "" {
		return nil, AuthenticationError("token required")
	}
	return nil, nil
}

func TestRegistryWithDefaults(t *testing.T) {
	r := WithDefaults(fakeFactory{kind: TypeDigitalOcean, implemented: true})
	if !r.IsRegistered(TypeDigitalOcean) {
		t.Error("expected digitalocean to be registered")
	}
	if !r.IsRegistered(TypeHetzner) {
		t.Error("expected hetzner stub to be registered")
	}
	if !r.IsRegistered(TypeAWS) {
		t.Error("expected aws stub to be registered")
	}
}

func TestCreateByNameUnknown(t *testing.T) {
	r := WithDefaults()
	_, err := r.CreateByName(context.Background(), "nonexistent", "token", DefaultTimeouts())
	if !IsKind(err, ErrUnknownProvider) {
		t.Errorf("expected UnknownProvider error, got %v", err)
	}
}

func TestCreateDigitalocean(t *testing.T) {
	r := WithDefaults(fakeFactory{kind: TypeDigitalOcean, implemented: true})
	_, err := r.CreateByName(context.Background(), "digitalocean", "test-token", DefaultTimeouts())
	if err != nil {
		t.Fatalf("CreateByName: %v", err)
	}
}

func TestCreateDigitaloceanEmptyToken(t *testing.T) {
	r := WithDefaults(fakeFactory{kind: TypeDigitalOcean, implemented: true})
	_, err := r.CreateByName(context.Background(), "digitalocean", "", DefaultTimeouts())
	if !IsKind(err, ErrAuthentication) {
		t.Errorf("expected Authentication error, got %v", err)
	}
}

func TestNotImplementedProvider(t *testing.T) {
	r := WithDefaults()
	_, err := r.CreateByName(context.Background(), "hetzner", "token", DefaultTimeouts())
	if !IsKind(err, ErrNotImplemented) {
		t.Errorf("expected NotImplemented error, got %v", err)
	}
}

func TestImplementedProviders(t *testing.T) {
	r := WithDefaults(
		fakeFactory{kind: TypeDigitalOcean, implemented: true},
		fakeFactory{kind: TypeContainer, implemented: true},
	)
	implemented := r.ImplementedProviders()
	want := map[string]bool{"digitalocean": true, "container": true}
	if len(implemented) != len(want) {
		t.Fatalf("ImplementedProviders() = %v, want exactly %v", implemented, want)
	}
	for _, name := range implemented {
		if !want[name] {
			t.Errorf("unexpected implemented provider %q", name)
		}
	}
}
