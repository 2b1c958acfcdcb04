package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenAt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testInstance(id, name string) Instance {
	return Instance{
		ID:        id,
		Name:      name,
		IP:        "10.0.0.1",
		Provider:  "digitalocean",
		Region:    "nyc1",
		Size:      "s-2vcpu-4gb",
		CreatedAt: time.Now(),
	}
}

func TestSaveAndGetActiveInstance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveInstance(ctx, testInstance("123", "spuff-test")); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}

	got, ok, err := s.GetActiveInstance(ctx)
	if err != nil {
		t.Fatalf("GetActiveInstance: %v", err)
	}
	if !ok {
		t.Fatal("expected an active instance")
	}
	if got.ID != "123" || got.Name != "spuff-test" || got.IP != "10.0.0.1" {
		t.Errorf("unexpected instance: %+v", got)
	}
}

func TestOnlyOneActiveInstance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveInstance(ctx, testInstance("111", "spuff-first")); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}
	if err := s.SaveInstance(ctx, testInstance("222", "spuff-second")); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}

	active, ok, err := s.GetActiveInstance(ctx)
	if err != nil || !ok {
		t.Fatalf("GetActiveInstance: ok=%v err=%v", ok, err)
	}
	if active.ID != "222" {
		t.Errorf("expected the second save to be active, got %q", active.ID)
	}

	all, err := s.ListInstances(ctx)
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected both instances to remain in history, got %d", len(all))
	}
}

func TestRemoveInstance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveInstance(ctx, testInstance("456", "spuff-remove")); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}
	if err := s.RemoveInstance(ctx, "456"); err != nil {
		t.Fatalf("RemoveInstance: %v", err)
	}

	_, ok, err := s.GetActiveInstance(ctx)
	if err != nil {
		t.Fatalf("GetActiveInstance: %v", err)
	}
	if ok {
		t.Error("expected no active instance after removal")
	}
}

func TestGetActiveInstanceNone(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetActiveInstance(context.Background())
	if err != nil {
		t.Fatalf("GetActiveInstance: %v", err)
	}
	if ok {
		t.Error("expected no active instance in a fresh store")
	}
}

func TestListInstances(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"aaa", "bbb", "ccc"} {
		if err := s.SaveInstance(ctx, testInstance(id, "spuff-"+id)); err != nil {
			t.Fatalf("SaveInstance: %v", err)
		}
	}

	all, err := s.ListInstances(ctx)
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 instances, got %d", len(all))
	}
}

func TestUpdateInstanceIP(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveInstance(ctx, testInstance("789", "spuff-ip-test")); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}
	if err := s.UpdateInstanceIP(ctx, "789", "192.168.1.100"); err != nil {
		t.Fatalf("UpdateInstanceIP: %v", err)
	}

	got, ok, err := s.GetActiveInstance(ctx)
	if err != nil || !ok {
		t.Fatalf("GetActiveInstance: ok=%v err=%v", ok, err)
	}
	if got.IP != "192.168.1.100" {
		t.Errorf("expected updated IP, got %q", got.IP)
	}
}

func TestInstanceReplaceOnSameID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := Instance{ID: "same-id", Name: "first-name", IP: "1.1.1.1", Provider: "digitalocean", Region: "nyc1", Size: "small", CreatedAt: time.Now()}
	second := Instance{ID: "same-id", Name: "second-name", IP: "2.2.2.2", Provider: "hetzner", Region: "fsn1", Size: "large", CreatedAt: time.Now()}

	if err := s.SaveInstance(ctx, first); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}
	if err := s.SaveInstance(ctx, second); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}

	all, err := s.ListInstances(ctx)
	if err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected INSERT OR REPLACE to keep a single row, got %d", len(all))
	}
	if all[0].Name != "second-name" || all[0].IP != "2.2.2.2" {
		t.Errorf("expected the second save's fields to win, got %+v", all[0])
	}
}
