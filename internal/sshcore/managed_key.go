package sshcore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ManagedKeyPath returns the path to spuff's own ed25519 key,
// ~/.config/spuff/ssh_key. This key is generated once and used to
// authenticate with every instance spuff provisions, sidestepping agent and
// user-key quirks entirely. Grounded on
// original_source/src/ssh/managed_key.rs.
func ManagedKeyPath() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil || home == "" {
			return "", fmt.Errorf("cannot determine config directory")
		}
	}
	return filepath.Join(home, ".config", "spuff", "ssh_key"), nil
}

// ManagedKeyExists reports whether the managed key has already been generated.
func ManagedKeyExists() (bool, error) {
	path, err := ManagedKeyPath()
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// GenerateManagedKey creates a new unencrypted ed25519 key pair at
// ManagedKeyPath, writing the private key with mode 0600 and the public key
// alongside it with a .pub suffix.
func GenerateManagedKey() (string, error) {
	path, err := ManagedKeyPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate SSH key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		return "", fmt.Errorf("failed to encode private key: %w", err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return "", fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return "", fmt.Errorf("failed to set key permissions: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to derive public key: %w", err)
	}
	pubLine := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + "\n"
	if err := os.WriteFile(path+".pub", []byte(pubLine), 0o644); err != nil {
		return "", fmt.Errorf("failed to write public key: %w", err)
	}

	return path, nil
}

// EnsureManagedKey returns the managed key's path, generating it first if
// it doesn't already exist.
func EnsureManagedKey() (string, error) {
	exists, err := ManagedKeyExists()
	if err != nil {
		return "", err
	}
	if exists {
		return ManagedKeyPath()
	}
	return GenerateManagedKey()
}

// LoadManagedSigner loads the managed key as an ssh.Signer for authentication.
func LoadManagedSigner() (ssh.Signer, error) {
	path, err := EnsureManagedKey()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read managed key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load managed key: %w", err)
	}
	return signer, nil
}

// ManagedPublicKey returns the managed key's public half in OpenSSH
// authorized_keys format, as embedded in cloud-init user-data so freshly
// provisioned instances trust it immediately.
func ManagedPublicKey() (string, error) {
	path, err := EnsureManagedKey()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path + ".pub")
	if err != nil {
		return "", fmt.Errorf("failed to read managed public key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
