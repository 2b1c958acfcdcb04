package volume

import (
	"context"
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// shellUnsafeChars lists characters that must never appear in a value
// destined for a shell command line we build ourselves, mirroring the
// blocklist in validate_shell_safe_path / validate_ip_address /
// validate_username in drivers/sshfs.rs.
const shellUnsafeChars = "\"`$\n\r\x00';|&><"

func validateShellSafePath(path string) error {
	if path == "" {
		return fmt.Errorf("path must not be empty")
	}
	if strings.ContainsAny(path, shellUnsafeChars) {
		return fmt.Errorf("path %q contains characters unsafe for shell use", path)
	}
	if strings.Contains(path, "$(") || strings.Contains(path, "${") {
		return fmt.Errorf("path %q contains a shell substitution sequence", path)
	}
	return nil
}

func validateIPAddress(ip string) error {
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("invalid IP address: %q", ip)
	}
	return nil
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_-]*$`)

func validateUsername(user string) error {
	if !usernamePattern.MatchString(user) {
		return fmt.Errorf("invalid SSH username: %q", user)
	}
	return nil
}

// withRetry runs fn up to attempts times with exponential backoff starting
// at baseDelay, mirroring the with_retry helper in drivers/sshfs.rs.
func withRetry(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	var lastErr error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if i+1 == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

// SSHFSDriver mounts a remote directory locally over SSHFS. Grounded on
// SshfsDriver in drivers/sshfs.rs.
type SSHFSDriver struct{}

func (SSHFSDriver) Name() string        { return "sshfs" }
func (SSHFSDriver) Description() string { return "Mount a remote directory over SSH using SSHFS/FUSE" }

func (SSHFSDriver) RequiredPackages() []string { return []string{"openssh-server"} }

func (d SSHFSDriver) RequiredLocalPackages() []string {
	if runtime.GOOS == "darwin" {
		return []string{"macfuse", "sshfs"}
	}
	return []string{"sshfs", "fuse"}
}

func (d SSHFSDriver) IsAvailable() bool {
	_, err := exec.LookPath("sshfs")
	return err == nil
}

func (d SSHFSDriver) GetInstallInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install macFUSE and sshfs: brew install --cask macfuse && brew install gromgit/fuse/sshfs-mac"
	default:
		return "Install sshfs: sudo apt-get install sshfs   (or your distro's equivalent)"
	}
}

// sshWrapperDir returns ~/.spuff/ssh-wrappers, creating it (mode 0700) if
// needed. SSHFS cannot handle a space in the path its ssh_command option
// points at, and a platform temp dir (e.g. macOS's "Library/Application
// Support") can contain one; a home-directory-rooted path never does.
func sshWrapperDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory for SSH wrapper: %w", err)
	}
	dir := filepath.Join(home, ".spuff", "ssh-wrappers")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create SSH wrapper directory: %w", err)
	}
	return dir, nil
}

// createSSHWrapper writes a small shell script that invokes ssh with the
// right -i/-o flags, working around SSHFS mangling an IdentityFile path
// that contains spaces when passed inline via -o. One wrapper script is
// kept per SSH key, named after a hash of its path.
func createSSHWrapper(sshKeyPath string, serverAliveInterval, serverAliveCountMax int) (string, func(), error) {
	dir, err := sshWrapperDir()
	if err != nil {
		return "", nil, err
	}

	hash := fnv.New64a()
	_, _ = hash.Write([]byte(sshKeyPath))
	path := filepath.Join(dir, fmt.Sprintf("ssh-wrapper-%x.sh", hash.Sum64()))

	script := fmt.Sprintf(`#!/bin/sh
exec ssh -i %q \
  -o StrictHostKeyChecking=accept-new \
  -o ServerAliveInterval=%d \
  -o ServerAliveCountMax=%d \
  -o BatchMode=yes \
  "$@"
`, sshKeyPath, serverAliveInterval, serverAliveCountMax)

	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		return "", nil, fmt.Errorf("failed to write SSH wrapper script: %w", err)
	}
	if err := os.Chmod(path, 0o700); err != nil {
		return "", nil, fmt.Errorf("failed to make SSH wrapper script executable: %w", err)
	}
	// The wrapper is reused across mounts of the same key, so there's
	// nothing for the caller to clean up on success.
	return path, func() {}, nil
}

func ensureRemoteDir(ctx context.Context, wrapper, user, ip, path string) error {
	target := fmt.Sprintf("%s@%s", user, ip)
	return withRetry(ctx, 3, 500*time.Millisecond, func() error {
		cmd := exec.CommandContext(ctx, wrapper, target, "mkdir", "-p", path)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("failed to create remote directory %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
		}
		return nil
	})
}

func (d SSHFSDriver) sshfsArgs(cfg Config, handle MountHandle, wrapper string) []string {
	remote := fmt.Sprintf("%s@%s:%s", handle.SSHUser, handle.VMIP, handle.Target)
	args := []string{remote, handle.MountPoint, "-o", fmt.Sprintf("ssh_command=%s", wrapper)}

	opts := []string{"follow_symlinks"}
	if cfg.Options.Reconnect {
		opts = append(opts, "reconnect")
	}
	if cfg.Options.Compression {
		opts = append(opts, "compression=yes")
	}
	if cfg.Options.Cache {
		opts = append(opts, "cache=yes", "kernel_cache")
	} else {
		opts = append(opts, "cache=no")
	}
	if cfg.ReadOnly {
		opts = append(opts, "ro")
	}
	if runtime.GOOS == "darwin" {
		opts = append(opts, "noapplexattr", fmt.Sprintf("volname=%s", filepath.Base(handle.Target)))
	}

	args = append(args, "-o", strings.Join(opts, ","))
	return args
}

func (d SSHFSDriver) Mount(ctx context.Context, cfg Config, handle MountHandle, sshKeyPath string) error {
	if err := validateShellSafePath(handle.Target); err != nil {
		return err
	}
	if err := validateShellSafePath(handle.MountPoint); err != nil {
		return err
	}
	if err := validateIPAddress(handle.VMIP); err != nil {
		return err
	}
	if err := validateUsername(handle.SSHUser); err != nil {
		return err
	}

	if err := os.MkdirAll(handle.MountPoint, 0o755); err != nil {
		return fmt.Errorf("failed to create local mount point %s: %w", handle.MountPoint, err)
	}

	wrapper, cleanup, err := createSSHWrapper(sshKeyPath, cfg.Options.ServerAliveInterval, cfg.Options.ServerAliveCountMax)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := ensureRemoteDir(ctx, wrapper, handle.SSHUser, handle.VMIP, handle.Target); err != nil {
		return err
	}

	args := d.sshfsArgs(cfg, handle, wrapper)
	return withRetry(ctx, 3, time.Second, func() error {
		cmd := exec.CommandContext(ctx, "sshfs", args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("sshfs mount failed: %w (%s)", err, strings.TrimSpace(string(out)))
		}
		return nil
	})
}

// unmountCommands lists the platform-specific fallback chain tried in
// order until one succeeds, mirroring unmount()'s per-OS branches.
func (d SSHFSDriver) unmountCommands(mountPoint string) [][]string {
	if runtime.GOOS == "darwin" {
		return [][]string{
			{"umount", mountPoint},
			{"umount", "-f", mountPoint},
			{"diskutil", "unmount", "force", mountPoint},
		}
	}
	return [][]string{
		{"fusermount", "-u", mountPoint},
		{"fusermount", "-uz", mountPoint},
		{"umount", "-l", mountPoint},
	}
}

func (d SSHFSDriver) Unmount(ctx context.Context, handle MountHandle) error {
	if !d.IsMounted(handle.MountPoint) {
		return nil
	}

	var lastErr error
	for _, args := range d.unmountCommands(handle.MountPoint) {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return fmt.Errorf("failed to unmount %s after trying all fallbacks: %w", handle.MountPoint, lastErr)
}

func (d SSHFSDriver) IsMounted(mountPoint string) bool {
	if runtime.GOOS == "darwin" {
		out, err := exec.Command("mount").Output()
		if err != nil {
			return false
		}
		return strings.Contains(string(out), " on "+mountPoint+" ")
	}
	cmd := exec.Command("mountpoint", "-q", mountPoint)
	return cmd.Run() == nil
}

func (d SSHFSDriver) Status(ctx context.Context, handle MountHandle) MountStatus {
	if !d.IsMounted(handle.MountPoint) {
		return NotMountedStatus()
	}

	start := time.Now()
	entries, err := os.ReadDir(handle.MountPoint)
	latency := time.Since(start)
	if err != nil {
		return UnhealthyStatus(fmt.Sprintf("directory read failed: %v", err))
	}
	_ = entries
	return HealthyStatus(latency)
}
