package sshcore

import (
	"fmt"
	"net"
	"time"
)

// WaitForPort polls host:port with plain TCP dials (no SSH handshake) until
// one succeeds or timeout elapses. Grounded on
// original_source/src/ssh/mod.rs's wait_for_ssh.
func WaitForPort(host string, port int, timeout time.Duration) error {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 3*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("timeout waiting for SSH port on %s", addr)
}

// WaitForLogin polls until a full SSH connection and a trivial command
// ("echo ok") both succeed, confirming the remote user/key are actually
// configured rather than just the port being open. Grounded on
// original_source/src/ssh/mod.rs's wait_for_ssh_login.
func WaitForLogin(host string, cfg Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := Connect(host, 22, cfg)
		if err == nil {
			out, execErr := client.Exec("echo ok")
			client.Close()
			if execErr == nil && out.Success {
				return nil
			}
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("timeout waiting for SSH login as %s@%s. Make sure your SSH key is loaded in the agent", cfg.User, host)
}
