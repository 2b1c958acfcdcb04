package volume

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestIsFileTargetTrailingSlashIsAlwaysDirectory(t *testing.T) {
	cfg := Config{Target: "/srv/app/"}
	if isFileTarget(context.Background(), cfg, "dev", "", "") {
		t.Error("expected a trailing-slash target to never be treated as a file")
	}
}

func TestIsFileTargetUsesLocalSourceWhenPresent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{Source: file, Target: "/home/dev/config.json"}
	if !isFileTarget(context.Background(), cfg, "dev", "", "") {
		t.Error("expected a local file source to be detected as a file target")
	}

	cfg.Source = dir
	cfg.Target = "/home/dev/project"
	if isFileTarget(context.Background(), cfg, "dev", "", "") {
		t.Error("expected a local directory source to be detected as a directory target")
	}
}

func TestIsFileTargetDefaultsToDirectoryWhenUnreachable(t *testing.T) {
	cfg := Config{Target: "/home/dev/unknown"}
	if isFileTarget(context.Background(), cfg, "dev", "", "") {
		t.Error("expected an ambiguous target with no VM reachable to default to directory")
	}
}

func TestSyncToVMSkipsWhenSourceUnset(t *testing.T) {
	cfg := Config{Target: "/home/dev/project"}
	if err := syncToVM(context.Background(), cfg, "dev", "10.0.0.5", "/nonexistent/key", false); err != nil {
		t.Errorf("expected no-op success for an empty source, got %v", err)
	}
}

func TestSyncToVMSkipsWhenSourceMissingLocally(t *testing.T) {
	cfg := Config{Source: "/definitely/does/not/exist", Target: "/home/dev/project"}
	if err := syncToVM(context.Background(), cfg, "dev", "10.0.0.5", "/nonexistent/key", false); err != nil {
		t.Errorf("expected no-op success for a source that doesn't exist locally, got %v", err)
	}
}
