package volume

import (
	"strings"
	"testing"
)

func TestTypeDefaultsToSSHFS(t *testing.T) {
	var zero Type
	if zero.String() != "sshfs" {
		t.Errorf("expected zero-value Type to stringify to sshfs, got %q", zero.String())
	}
}

func TestParseTypeDefaultsEmptyToSSHFS(t *testing.T) {
	typ, err := ParseType("")
	if err != nil {
		t.Fatalf("ParseType(\"\"): %v", err)
	}
	if typ != TypeSSHFS {
		t.Errorf("expected TypeSSHFS, got %v", typ)
	}
}

func TestParseTypeRejectsUnknown(t *testing.T) {
	if _, err := ParseType("nfs"); err == nil {
		t.Fatal("expected an error for an unknown volume type")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("./src", "/workspace/src")
	if cfg.DriverType != TypeSSHFS {
		t.Errorf("expected default driver type sshfs, got %v", cfg.DriverType)
	}
	if !cfg.Options.Reconnect || !cfg.Options.Cache {
		t.Error("expected reconnect and cache to default true")
	}
	if cfg.Options.ServerAliveInterval != 15 || cfg.Options.ServerAliveCountMax != 3 {
		t.Error("expected default keepalive tuning")
	}
}

func TestParseSpecTwoParts(t *testing.T) {
	cfg, err := ParseSpec("/workspace:./local-mount")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if cfg.Target != "/workspace" || cfg.MountPoint != "./local-mount" {
		t.Errorf("unexpected parse result: %+v", cfg)
	}
	if cfg.ReadOnly {
		t.Error("expected read_only false without :ro suffix")
	}
}

func TestParseSpecThreePartsReadOnly(t *testing.T) {
	cfg, err := ParseSpec("/workspace:./local-mount:ro")
	if err != nil {
		t.Fatalf("ParseSpec: %v", err)
	}
	if !cfg.ReadOnly {
		t.Error("expected read_only true with :ro suffix")
	}
}

func TestParseSpecRejectsBadSuffix(t *testing.T) {
	if _, err := ParseSpec("/workspace:./local-mount:rw"); err == nil {
		t.Fatal("expected an error for a non-'ro' third segment")
	}
}

func TestParseSpecRejectsWrongPartCount(t *testing.T) {
	if _, err := ParseSpec("/workspace"); err == nil {
		t.Fatal("expected an error for a spec with no ':' separator")
	}
}

func TestResolveMountPointExplicit(t *testing.T) {
	cfg := Config{Target: "/workspace", MountPoint: "/home/dev/project/mnt"}
	got := cfg.ResolveMountPoint("my-instance", "")
	if got != "/home/dev/project/mnt" {
		t.Errorf("expected explicit mount point to win, got %q", got)
	}
}

func TestResolveMountPointRelativeWithBaseDir(t *testing.T) {
	cfg := Config{Target: "/workspace", MountPoint: "mnt"}
	got := cfg.ResolveMountPoint("my-instance", "/projects/myapp")
	if got != "/projects/myapp/mnt" {
		t.Errorf("expected /projects/myapp/mnt, got %q", got)
	}
}

func TestResolveMountPointFallsBackToSource(t *testing.T) {
	cfg := Config{Source: "/projects/myapp/src", Target: "/workspace/src"}
	got := cfg.ResolveMountPoint("my-instance", "")
	if got != "/projects/myapp/src" {
		t.Errorf("expected source to double as mount point, got %q", got)
	}
}

func TestResolveMountPointAutoGenerated(t *testing.T) {
	cfg := Config{Target: "/workspace/src"}
	got := cfg.ResolveMountPoint("my-instance", "")
	if !strings.Contains(got, "spuff") || !strings.Contains(got, "mounts") {
		t.Errorf("expected auto-generated path under spuff mounts dir, got %q", got)
	}
	if !strings.Contains(got, "my-instance") || !strings.HasSuffix(got, "src") {
		t.Errorf("expected instance name and target basename in auto-generated path, got %q", got)
	}
}

func TestResolveSourceRelative(t *testing.T) {
	cfg := Config{Source: "src", Target: "/workspace/src"}
	got := cfg.ResolveSource("/projects/myapp")
	if got != "/projects/myapp/src" {
		t.Errorf("expected /projects/myapp/src, got %q", got)
	}
}

func TestResolveSourceEmptyWhenUnset(t *testing.T) {
	cfg := Config{Target: "/workspace/src"}
	if got := cfg.ResolveSource("/projects/myapp"); got != "" {
		t.Errorf("expected empty source to resolve to empty, got %q", got)
	}
}
