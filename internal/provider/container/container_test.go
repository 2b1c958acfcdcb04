package container

import (
	"testing"

	"spuff/internal/provider"
)

func TestResolveImageUbuntu(t *testing.T) {
	got := resolveImage(provider.ImageSpec{Kind: provider.ImageUbuntu, Value: "24.04"})
	if got != "ubuntu:24.04" {
		t.Errorf("resolveImage(ubuntu 24.04) = %q, want ubuntu:24.04", got)
	}
}

func TestResolveImageDebian(t *testing.T) {
	got := resolveImage(provider.ImageSpec{Kind: provider.ImageDebian, Value: "12"})
	if got != "debian:12" {
		t.Errorf("resolveImage(debian 12) = %q, want debian:12", got)
	}
}

func TestResolveImageCustom(t *testing.T) {
	got := resolveImage(provider.ImageSpec{Kind: provider.ImageCustom, Value: "nginx:alpine"})
	if got != "nginx:alpine" {
		t.Errorf("resolveImage(custom) = %q, want nginx:alpine", got)
	}
}

func TestContainerToInstanceActive(t *testing.T) {
	instance := containerToInstance("abc123", "running", 1704067200)
	if instance.ID != "abc123" {
		t.Errorf("ID = %q, want abc123", instance.ID)
	}
	if !instance.Status.Equal(provider.ActiveStatus()) {
		t.Errorf("Status = %v, want active", instance.Status)
	}
	if instance.IP.String() != "127.0.0.1" {
		t.Errorf("IP = %v, want 127.0.0.1", instance.IP)
	}
}

func TestContainerToInstanceOff(t *testing.T) {
	instance := containerToInstance("def456", "exited", 0)
	if !instance.Status.Equal(provider.OffStatus()) {
		t.Errorf("Status = %v, want off", instance.Status)
	}
}

func TestContainerToInstanceNew(t *testing.T) {
	instance := containerToInstance("ghi789", "created", 0)
	if !instance.Status.Equal(provider.NewStatus()) {
		t.Errorf("Status = %v, want new", instance.Status)
	}
}

func TestDockerBinds(t *testing.T) {
	binds := dockerBinds([]provider.VolumeMount{
		{Source: "/home/dev/project", Target: "/workspace"},
		{Source: "/home/dev/secrets", Target: "/etc/secrets", ReadOnly: true},
		{Target: "/no-source-skipped"},
		{Source: "/no-target-skipped"},
	})
	want := []string{
		"/home/dev/project:/workspace",
		"/home/dev/secrets:/etc/secrets:ro",
	}
	if len(binds) != len(want) {
		t.Fatalf("dockerBinds() = %v, want %v", binds, want)
	}
	for i, b := range binds {
		if b != want[i] {
			t.Errorf("dockerBinds()[%d] = %q, want %q", i, b, want[i])
		}
	}
}

func TestFactoryType(t *testing.T) {
	f := Factory{}
	if f.ProviderType() != provider.TypeContainer {
		t.Errorf("ProviderType() = %v, want TypeContainer", f.ProviderType())
	}
	if !f.IsImplemented() {
		t.Error("container factory should report implemented")
	}
}
