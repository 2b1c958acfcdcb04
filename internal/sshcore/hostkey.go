package sshcore

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// hostKeyCallbackFor builds the ssh.HostKeyCallback matching cfg's policy.
func hostKeyCallbackFor(cfg Config) (ssh.HostKeyCallback, error) {
	switch cfg.HostKeyPolicy {
	case HostKeyAcceptNew:
		path := cfg.KnownHostsPath
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("cannot determine known_hosts path: %w", err)
			}
			path = filepath.Join(home, ".spuff", "known_hosts")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, nil, 0o600); err != nil {
				return nil, err
			}
		}
		cb, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		return acceptNewCallback(path, cb), nil
	default:
		// #nosec G106 -- spuff instances are ephemeral and reprovisioned
		// with fresh host keys constantly; pinning would just produce
		// permanent false-positive warnings. Matches OpenSSH's
		// StrictHostKeyChecking=no, the Rust original's AcceptAny default.
		return ssh.InsecureIgnoreHostKey(), nil
	}
}

// acceptNewCallback wraps a knownhosts callback so that an unknown host is
// appended to the known_hosts file instead of rejected, matching
// StrictHostKeyChecking=accept-new. A changed key for an already-known host
// is still rejected.
func acceptNewCallback(path string, cb ssh.HostKeyCallback) ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := cb(hostname, remote, key)
		if err == nil {
			return nil
		}
		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) || len(keyErr.Want) != 0 {
			// Either a non-knownhosts error, or the host is known with a
			// *different* key — a real mismatch, reject it.
			return err
		}

		f, openErr := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		if openErr != nil {
			return openErr
		}
		defer f.Close()
		line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
		_, writeErr := fmt.Fprintln(f, line)
		return writeErr
	}
}
