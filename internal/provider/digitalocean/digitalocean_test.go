package digitalocean

import (
	"testing"

	"github.com/digitalocean/godo"

	"spuff/internal/provider"
)

func TestProviderRequiresToken(t *testing.T) {
	_, err := New("", provider.DefaultTimeouts())
	if err == nil {
		t.Fatal("expected error for empty token")
	}
	if !provider.IsKind(err, provider.ErrAuthentication) {
		t.Errorf("expected an authentication error, got %v", err)
	}
}

func TestProviderCreatesWithValidToken(t *testing.T) {
	p, err := New("test-token", provider.DefaultTimeouts())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p == nil {
		t.Fatal("expected a non-nil provider")
	}
}

func TestDropletStatusMapping(t *testing.T) {
	cases := []struct {
		raw  string
		want provider.InstanceStatus
	}{
		{"new", provider.NewStatus()},
		{"active", provider.ActiveStatus()},
		{"off", provider.OffStatus()},
		{"archive", provider.ArchiveStatus()},
		{"unknown_status", provider.UnknownStatus("unknown_status")},
	}
	for _, c := range cases {
		got := dropletStatus(c.raw)
		if !got.Equal(c.want) {
			t.Errorf("dropletStatus(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestDropletToInstancePublicIP(t *testing.T) {
	droplet := &godo.Droplet{
		ID:      123,
		Status:  "active",
		Created: "2024-01-01T00:00:00Z",
		Networks: &godo.Networks{
			V4: []godo.NetworkV4{
				{IPAddress: "10.0.0.5", Type: "private"},
				{IPAddress: "203.0.113.9", Type: "public"},
			},
		},
	}
	instance := dropletToInstance(droplet)
	if instance.IP.String() != "203.0.113.9" {
		t.Errorf("IP = %v, want the public network address", instance.IP)
	}
	if instance.ID != "123" {
		t.Errorf("ID = %q, want 123", instance.ID)
	}
}

func TestDropletToInstanceNoPublicNetwork(t *testing.T) {
	droplet := &godo.Droplet{
		ID:       456,
		Status:   "new",
		Created:  "2024-01-01T00:00:00Z",
		Networks: &godo.Networks{},
	}
	instance := dropletToInstance(droplet)
	if instance.IP.String() != "0.0.0.0" {
		t.Errorf("IP = %v, want 0.0.0.0 placeholder", instance.IP)
	}
}

func TestHasSpuffPrefix(t *testing.T) {
	if !hasSpuffPrefix("spuff-snap-1") {
		t.Error("expected spuff-prefixed name to match")
	}
	if hasSpuffPrefix("other-snap") {
		t.Error("expected non-spuff name to not match")
	}
}

func TestFactoryType(t *testing.T) {
	f := Factory{}
	if f.ProviderType() != provider.TypeDigitalOcean {
		t.Errorf("ProviderType() = %v, want TypeDigitalOcean", f.ProviderType())
	}
	if !f.IsImplemented() {
		t.Error("digitalocean factory should report implemented")
	}
}
