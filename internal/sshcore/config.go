// Package sshcore implements spuff's SSH transport: a managed ed25519 key,
// an authentication chain (managed key, then agent identities, then an
// unencrypted user key file), command execution, interactive PTY sessions,
// and local port forwarding. It is the one place in the module that talks
// directly to golang.org/x/crypto/ssh.
package sshcore

// HostKeyPolicy controls how an unrecognized or changed host key is handled.
type HostKeyPolicy int

const (
	// HostKeyAcceptAny accepts any host key, matching OpenSSH's
	// StrictHostKeyChecking=no. This is the default: spuff instances are
	// ephemeral and reuse IPs across provider accounts, so a persisted
	// known_hosts file would produce constant false-positive warnings.
	HostKeyAcceptAny HostKeyPolicy = iota
	// HostKeyAcceptNew accepts host keys not yet seen but rejects ones
	// that changed since a prior connection, matching
	// StrictHostKeyChecking=accept-new.
	HostKeyAcceptNew
)

// Config describes how to connect and authenticate to a spuff instance.
type Config struct {
	User           string
	KeyPath        string
	HostKeyPolicy  HostKeyPolicy
	KnownHostsPath string // only consulted under HostKeyAcceptNew
}

// NewConfig builds a Config with the AcceptAny policy, the default used for
// every instance spuff itself provisions.
func NewConfig(user, keyPath string) Config {
	return Config{User: user, KeyPath: keyPath, HostKeyPolicy: HostKeyAcceptAny}
}
