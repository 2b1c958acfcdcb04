package volume

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// isFileTarget decides whether cfg.Target names a single remote file
// rather than a directory, mirroring is_file_volume_async in
// volumes.rs: a trailing slash always means directory, a local Source
// is checked first when it exists, and otherwise the VM itself is
// asked via `test -f`. Ambiguous or unreachable cases default
// to directory, the same bias the original takes.
func isFileTarget(ctx context.Context, cfg Config, sshUser, vmIP, sshKeyPath string) bool {
	if strings.HasSuffix(cfg.Target, "/") {
		return false
	}

	if source := cfg.ResolveSource(""); source != "" {
		if info, err := os.Stat(source); err == nil {
			return !info.IsDir()
		}
	}

	if vmIP == "" || sshKeyPath == "" {
		return false
	}
	wrapper, _, err := createSSHWrapper(sshKeyPath, cfg.Options.ServerAliveInterval, cfg.Options.ServerAliveCountMax)
	if err != nil {
		return false
	}
	remote := fmt.Sprintf("%s@%s", sshUser, vmIP)
	probe := exec.CommandContext(ctx, wrapper, remote, "test", "-f", cfg.Target)
	return probe.Run() == nil
}

// syncToVM rsyncs a locally-resolvable cfg.Source onto the instance at
// cfg.Target before the mount proceeds (or in place of one, for a single
// file), mirroring sync_to_vm in volumes.rs. A volume with no local
// Source — the common case, an empty directory the VM will populate —
// has nothing to seed and this is a no-op.
func syncToVM(ctx context.Context, cfg Config, sshUser, vmIP, sshKeyPath string, isFile bool) error {
	source := cfg.ResolveSource("")
	if source == "" {
		return nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil
	}

	wrapper, _, err := createSSHWrapper(sshKeyPath, cfg.Options.ServerAliveInterval, cfg.Options.ServerAliveCountMax)
	if err != nil {
		return err
	}

	remoteTarget := cfg.Target
	remoteDir := filepath.Dir(remoteTarget)
	if !isFile {
		remoteDir = remoteTarget
	}
	if err := ensureRemoteDir(ctx, wrapper, sshUser, vmIP, remoteDir); err != nil {
		return err
	}

	args := []string{"-avz"}
	src := source
	if info.IsDir() {
		args = append(args, "--delete")
		src = strings.TrimSuffix(src, "/") + "/"
		remoteTarget = strings.TrimSuffix(remoteTarget, "/") + "/"
	}
	sshCommand := fmt.Sprintf("ssh -i %q -o IdentitiesOnly=yes -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null", sshKeyPath)
	args = append(args, "-e", sshCommand, src, fmt.Sprintf("%s@%s:%s", sshUser, vmIP, remoteTarget))

	cmd := exec.CommandContext(ctx, "rsync", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to sync %s to VM: %w (%s)", source, err, strings.TrimSpace(string(out)))
	}
	return nil
}
