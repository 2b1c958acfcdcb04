package volume

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateShellSafePathRejectsSemicolon(t *testing.T) {
	if err := validateShellSafePath("/workspace; rm -rf /"); err == nil {
		t.Error("expected semicolon to be rejected")
	}
}

func TestValidateShellSafePathRejectsBacktick(t *testing.T) {
	if err := validateShellSafePath("/workspace/`whoami`"); err == nil {
		t.Error("expected backtick to be rejected")
	}
}

func TestValidateShellSafePathRejectsDollarParen(t *testing.T) {
	if err := validateShellSafePath("/workspace/$(whoami)"); err == nil {
		t.Error("expected $() substitution to be rejected")
	}
}

func TestValidateShellSafePathRejectsPipe(t *testing.T) {
	if err := validateShellSafePath("/workspace | cat"); err == nil {
		t.Error("expected pipe to be rejected")
	}
}

func TestValidateShellSafePathRejectsEmpty(t *testing.T) {
	if err := validateShellSafePath(""); err == nil {
		t.Error("expected empty path to be rejected")
	}
}

func TestValidateShellSafePathAcceptsOrdinaryPath(t *testing.T) {
	if err := validateShellSafePath("/home/dev/my-project_2"); err != nil {
		t.Errorf("expected ordinary path to be accepted, got %v", err)
	}
}

func TestValidateIPAddressRejectsGarbage(t *testing.T) {
	if err := validateIPAddress("not-an-ip; rm -rf /"); err == nil {
		t.Error("expected invalid IP to be rejected")
	}
}

func TestValidateIPAddressAcceptsIPv4(t *testing.T) {
	if err := validateIPAddress("203.0.113.10"); err != nil {
		t.Errorf("expected a valid IPv4 address to be accepted, got %v", err)
	}
}

func TestValidateUsernameRejectsShellMetachars(t *testing.T) {
	if err := validateUsername("dev; rm -rf /"); err == nil {
		t.Error("expected unsafe username to be rejected")
	}
}

func TestValidateUsernameAcceptsOrdinary(t *testing.T) {
	if err := validateUsername("dev-user_1"); err != nil {
		t.Errorf("expected ordinary username to be accepted, got %v", err)
	}
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("expected a single successful call, got calls=%d err=%v", calls, err)
	}
}

func TestWithRetryStopsAfterAttempts(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected the last error to be returned, got %v", err)
	}
}

func TestWithRetryRecoversAfterFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("expected eventual success, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly 2 attempts before success, got %d", calls)
	}
}

func TestUnmountCommandsFirstCommandHasArguments(t *testing.T) {
	d := SSHFSDriver{}
	cmds := d.unmountCommands("/home/dev/mnt")
	if len(cmds) == 0 {
		t.Fatal("expected at least one unmount fallback command")
	}
	first := cmds[0]
	if len(first) < 2 {
		t.Fatalf("expected unmount command to include the mount point, got %v", first)
	}
}

func TestUnmountOfNonMountIsSuccess(t *testing.T) {
	d := SSHFSDriver{}
	handle := MountHandle{MountPoint: t.TempDir() + "/never-mounted"}
	if err := d.Unmount(context.Background(), handle); err != nil {
		t.Errorf("expected unmounting a non-mount to succeed, got %v", err)
	}
}

func TestSSHWrapperDirIsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := sshWrapperDir()
	if err != nil {
		t.Fatalf("sshWrapperDir: %v", err)
	}
	want := filepath.Join(home, ".spuff", "ssh-wrappers")
	if dir != want {
		t.Errorf("sshWrapperDir() = %q, want %q", dir, want)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("expected sshWrapperDir to create %q", dir)
	}
}

func TestCreateSSHWrapperIsStableAcrossCalls(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path1, _, err := createSSHWrapper("/home/dev/.ssh/id_ed25519", 15, 3)
	if err != nil {
		t.Fatalf("createSSHWrapper: %v", err)
	}
	path2, _, err := createSSHWrapper("/home/dev/.ssh/id_ed25519", 15, 3)
	if err != nil {
		t.Fatalf("createSSHWrapper: %v", err)
	}
	if path1 != path2 {
		t.Errorf("expected the same key path to reuse the same wrapper script, got %q and %q", path1, path2)
	}
	if !strings.HasPrefix(path1, filepath.Join(home, ".spuff", "ssh-wrappers")+string(os.PathSeparator)) {
		t.Errorf("expected wrapper path under the home directory rather than a platform temp dir, got %q", path1)
	}
}

func TestSSHFSDriverName(t *testing.T) {
	d := SSHFSDriver{}
	if d.Name() != "sshfs" {
		t.Errorf("expected driver name sshfs, got %q", d.Name())
	}
}

func TestSSHFSDriverRequiredPackages(t *testing.T) {
	d := SSHFSDriver{}
	if len(d.RequiredPackages()) == 0 {
		t.Error("expected at least one required remote package")
	}
	if len(d.RequiredLocalPackages()) == 0 {
		t.Error("expected at least one required local package")
	}
}
