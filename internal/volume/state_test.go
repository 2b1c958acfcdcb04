package volume

import (
	"testing"
	"time"
)

func TestNewMountHandleAssignsIDAndTimestamp(t *testing.T) {
	h := NewMountHandle("sshfs", "/workspace", "/home/dev/mnt")
	if h.ID == "" {
		t.Error("expected a non-empty generated ID")
	}
	if h.MountedAt.IsZero() {
		t.Error("expected MountedAt to be set")
	}
	if h.Driver != "sshfs" || h.Target != "/workspace" || h.MountPoint != "/home/dev/mnt" {
		t.Errorf("unexpected handle fields: %+v", h)
	}
}

func TestHealthyStatus(t *testing.T) {
	s := HealthyStatus(42 * time.Millisecond)
	if !s.Mounted || !s.Healthy || s.LatencyMillis != 42 {
		t.Errorf("unexpected healthy status: %+v", s)
	}
}

func TestUnhealthyStatus(t *testing.T) {
	s := UnhealthyStatus("timed out")
	if !s.Mounted || s.Healthy || s.Error != "timed out" {
		t.Errorf("unexpected unhealthy status: %+v", s)
	}
}

func TestNotMountedStatus(t *testing.T) {
	s := NotMountedStatus()
	if s.Mounted || s.Healthy {
		t.Errorf("expected a not-mounted status to report no mount, got %+v", s)
	}
}

func TestStateAddFindRemoveMount(t *testing.T) {
	var s State
	h := NewMountHandle("sshfs", "/workspace", "/home/dev/mnt")
	s.AddMount(h)

	found, ok := s.FindMount("/workspace")
	if !ok || found.ID != h.ID {
		t.Fatalf("expected to find mount by target, got ok=%v found=%+v", ok, found)
	}

	foundByMountPoint, ok := s.FindByMountPoint("/home/dev/mnt")
	if !ok || foundByMountPoint.ID != h.ID {
		t.Fatalf("expected to find mount by mount point, got ok=%v", ok)
	}

	removed, ok := s.RemoveMount("/workspace")
	if !ok || removed.ID != h.ID {
		t.Fatalf("expected to remove the mount just added")
	}
	if len(s.Mounts) != 0 {
		t.Errorf("expected Mounts to be empty after removal, got %d entries", len(s.Mounts))
	}
}

func TestStateFindMountMissing(t *testing.T) {
	var s State
	if _, ok := s.FindMount("/nowhere"); ok {
		t.Error("expected no match in an empty state")
	}
}

func TestStateClear(t *testing.T) {
	var s State
	s.AddMount(NewMountHandle("sshfs", "/workspace", "/home/dev/mnt"))
	s.Clear()
	if len(s.Mounts) != 0 {
		t.Error("expected Clear to empty Mounts")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var s State
	s.AddMount(NewMountHandle("sshfs", "/workspace", "/home/dev/mnt"))
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Mounts) != 1 || loaded.Mounts[0].Target != "/workspace" {
		t.Errorf("unexpected loaded state: %+v", loaded)
	}
}

func TestLoadMissingFileReturnsEmptyState(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Mounts) != 0 {
		t.Errorf("expected empty state when no file exists, got %+v", s)
	}
}

func TestLoadOrDefaultNeverErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_ = LoadOrDefault()
}
