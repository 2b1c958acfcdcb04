package pipeline

import (
	"context"
	"testing"

	"spuff/internal/config"
	"spuff/internal/provider"
	"spuff/internal/volume"
)

func TestTeardownFailsWhenNoActiveInstance(t *testing.T) {
	store := newTestStateStore(t)
	ctx := context.Background()

	deps := TeardownDeps{
		AppConfig: config.DefaultAppConfig(),
		Registry:  provider.WithDefaults(),
		Store:     store,
	}

	var lastEvent Event
	for ev := range Teardown(ctx, deps, TeardownOptions{}) {
		lastEvent = ev
	}

	if lastEvent.Kind != EventFailed || lastEvent.Err != ErrNoActiveInstance {
		t.Fatalf("expected a Failed event carrying ErrNoActiveInstance, got %+v", lastEvent)
	}
}

func TestDedupMountPointsMergesDeclaredAndTracked(t *testing.T) {
	proj := &config.ProjectConfig{
		Volumes: []volume.Config{
			{Target: "/srv/app", MountPoint: "/home/dev/app"},
			{Target: "/srv/shared", MountPoint: "/home/dev/shared"},
		},
	}
	mounted := []volume.MountHandle{
		{MountPoint: "/home/dev/shared"}, // already declared above
		{MountPoint: "/home/dev/extra"},  // only known from tracked state
	}

	got := dedupMountPoints(proj, mounted, "spuff-test")

	want := map[string]bool{
		"/home/dev/app":    true,
		"/home/dev/shared": true,
		"/home/dev/extra":  true,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d deduplicated mount points, got %d: %v", len(want), len(got), got)
	}
	for _, mp := range got {
		if !want[mp] {
			t.Errorf("unexpected mount point %q", mp)
		}
	}
}

func TestDedupMountPointsHandlesNilProjectConfig(t *testing.T) {
	mounted := []volume.MountHandle{{MountPoint: "/home/dev/app"}}
	got := dedupMountPoints(nil, mounted, "spuff-test")
	if len(got) != 1 || got[0] != "/home/dev/app" {
		t.Errorf("expected the single tracked mount point, got %v", got)
	}
}

func TestDedupMountPointsEmpty(t *testing.T) {
	got := dedupMountPoints(nil, nil, "spuff-test")
	if len(got) != 0 {
		t.Errorf("expected no mount points, got %v", got)
	}
}
