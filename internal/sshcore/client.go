package sshcore

import (
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
)

// Client wraps an authenticated *ssh.Client, exposing the operations spuff's
// commands need: exec, interactive shell, and local port forwarding.
// Grounded on original_source/src/ssh/client.rs.
type Client struct {
	conn *ssh.Client
	host string
}

// Connect dials host:port and authenticates using spuff's chain: the
// managed key first, then any identities loaded in the SSH agent, then
// (only if the key is unencrypted) the user's configured key file.
func Connect(host string, port int, cfg Config) (*Client, error) {
	hostKeyCallback, err := hostKeyCallbackFor(cfg)
	if err != nil {
		return nil, err
	}

	authMethods, authErr := buildAuthMethods(cfg)
	if len(authMethods) == 0 {
		return nil, authErr
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         15 * time.Second,
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	return &Client{conn: conn, host: host}, nil
}

// buildAuthMethods assembles the ordered authentication chain. Unlike the
// Rust original (which must try each method against a live session one at
// a time because russh authenticates incrementally), golang.org/x/crypto/ssh
// accepts an ordered list of ssh.AuthMethod and walks it internally, so the
// three steps below collapse into a single ssh.Dial call.
func buildAuthMethods(cfg Config) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if signer, err := LoadManagedSigner(); err == nil {
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if IsSSHAgentRunning() {
		if ag, err := dialAgent(); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(ag.Signers))
		}
	}

	hasPassphrase, _ := KeyHasPassphrase(cfg.KeyPath)
	if !hasPassphrase {
		if data, err := os.ReadFile(cfg.KeyPath); err == nil {
			if signer, err := ssh.ParsePrivateKey(data); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	if len(methods) == 0 {
		if hasPassphrase {
			return nil, fmt.Errorf(
				"SSH key requires passphrase but is not loaded in the agent.\n"+
					"Add your key to the agent first:\n\n  ssh-add %s", cfg.KeyPath)
		}
		return nil, fmt.Errorf("no usable SSH authentication method found")
	}
	return methods, nil
}

// Close closes the underlying SSH connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Host returns the address this client is connected to.
func (c *Client) Host() string {
	return c.host
}
