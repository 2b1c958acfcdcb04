package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"spuff/internal/config"
	"spuff/internal/provider"
	"spuff/internal/state"
	"spuff/internal/volume"
)

func writeTestSSHKey(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "test_key")
	if err := os.WriteFile(keyPath, []byte("fake-private-key"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath+".pub", []byte("ssh-ed25519 AAAAC3Nza... test@example.com"), 0o644); err != nil {
		t.Fatal(err)
	}
	return keyPath
}

func newTestStateStore(t *testing.T) *state.Store {
	t.Helper()
	s, err := state.OpenAt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGenerateInstanceNameHasPrefix(t *testing.T) {
	name := generateInstanceName()
	if len(name) != len("spuff-")+8 {
		t.Errorf("expected an 8-hex-char suffix, got %q", name)
	}
	if name[:6] != "spuff-" {
		t.Errorf("expected a spuff- prefix, got %q", name)
	}
}

func TestGenerateInstanceNameIsRandom(t *testing.T) {
	if generateInstanceName() == generateInstanceName() {
		t.Error("expected two calls to produce different names (this can flake astronomically rarely)")
	}
}

func TestImageSpecForSnapshotOverridesProvider(t *testing.T) {
	spec := imageSpecFor("digitalocean", "snap-123")
	if spec.Kind != provider.ImageSnapshot || spec.Value != "snap-123" {
		t.Errorf("expected a snapshot image spec, got %+v", spec)
	}
}

func TestImageSpecForDefaultsToUbuntu(t *testing.T) {
	spec := imageSpecFor("digitalocean", "")
	if spec.Kind != provider.ImageUbuntu || spec.Value != "24.04" {
		t.Errorf("expected Ubuntu 24.04 default, got %+v", spec)
	}
}

func TestImageSpecForAWSUsesCustomAMI(t *testing.T) {
	spec := imageSpecFor("aws", "")
	if spec.Kind != provider.ImageCustom {
		t.Errorf("expected a custom image kind for aws, got %+v", spec)
	}
}

func TestProvisionStopsWhenInstanceAlreadyActive(t *testing.T) {
	store := newTestStateStore(t)
	ctx := context.Background()

	existing := state.Instance{ID: "abc", Name: "spuff-abc", IP: "10.0.0.5", Provider: "digitalocean", Region: "nyc1", Size: "s-2vcpu-4gb", CreatedAt: time.Now()}
	if err := store.SaveInstance(ctx, existing); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}

	deps := ProvisionDeps{
		AppConfig: config.DefaultAppConfig(),
		Registry:  provider.WithDefaults(),
		Store:     store,
	}

	var lastEvent Event
	for ev := range Provision(ctx, deps, ProvisionOptions{}) {
		lastEvent = ev
	}

	if lastEvent.Kind != EventCancelled {
		t.Fatalf("expected a Cancelled event when an instance is already active, got %+v", lastEvent)
	}
}

func TestProvisionFailsForUnknownProvider(t *testing.T) {
	store := newTestStateStore(t)
	ctx := context.Background()

	cfg := config.DefaultAppConfig()
	cfg.Provider = "not-a-real-provider"
	cfg.SSHKeyPath = writeTestSSHKey(t)

	deps := ProvisionDeps{
		AppConfig: cfg,
		Registry:  provider.WithDefaults(),
		Store:     store,
	}

	var sawFailed bool
	for ev := range Provision(ctx, deps, ProvisionOptions{}) {
		if ev.Kind == EventFailed {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("expected a Failed event for an unregistered provider")
	}
}

func TestMergeVolumesByTargetProjectWins(t *testing.T) {
	global := []volume.Config{
		{Target: "/srv/app", MountPoint: "/home/dev/global-app"},
		{Target: "/srv/data", MountPoint: "/home/dev/data"},
	}
	project := []volume.Config{
		{Target: "/srv/app", MountPoint: "/home/dev/project-app"},
	}

	merged := mergeVolumesByTarget(global, project)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged volumes, got %d: %+v", len(merged), merged)
	}

	byTarget := map[string]volume.Config{}
	for _, v := range merged {
		byTarget[v.Target] = v
	}
	if byTarget["/srv/app"].MountPoint != "/home/dev/project-app" {
		t.Errorf("expected the project entry to win the /srv/app collision, got %+v", byTarget["/srv/app"])
	}
	if byTarget["/srv/data"].MountPoint != "/home/dev/data" {
		t.Errorf("expected the global-only entry to survive, got %+v", byTarget["/srv/data"])
	}
}

func TestIsContainerProvider(t *testing.T) {
	if !isContainerProvider("container") {
		t.Error("expected container to be a container provider")
	}
	if isContainerProvider("digitalocean") {
		t.Error("expected digitalocean not to be a container provider")
	}
}

func TestContainerVolumeMountsSkipsEntriesWithNoLocalSource(t *testing.T) {
	deps := ProvisionDeps{
		AppConfig: config.AppConfig{
			Volumes: []volume.Config{
				{Target: "/workspace", Source: t.TempDir()},
				{Target: "/no-seed"},
			},
		},
	}

	mounts := containerVolumeMounts(deps)
	if len(mounts) != 1 {
		t.Fatalf("expected exactly one bind with a resolvable source, got %+v", mounts)
	}
	if mounts[0].Target != "/workspace" {
		t.Errorf("expected the seeded volume to survive, got %+v", mounts[0])
	}
}

func TestResolveAITools(t *testing.T) {
	if got := resolveAITools(""); len(got) != len(aiToolCatalog) {
		t.Errorf("expected empty mode to default to the full catalog, got %v", got)
	}
	if got := resolveAITools("none"); got != nil {
		t.Errorf("expected none to resolve to no tools, got %v", got)
	}
	if got := resolveAITools("claude-code, opencode"); len(got) != 2 || got[0] != "claude-code" || got[1] != "opencode" {
		t.Errorf("expected an explicit tool list to pass through trimmed, got %v", got)
	}
}
