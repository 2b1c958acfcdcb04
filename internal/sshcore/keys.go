package sshcore

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyHasPassphrase reports whether the private key at path is encrypted.
// Grounded on original_source/src/ssh/keys.rs's key_has_passphrase.
func KeyHasPassphrase(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	_, err = ssh.ParsePrivateKey(data)
	if err == nil {
		return false, nil
	}
	var passErr *ssh.PassphraseMissingError
	if errors.As(err, &passErr) {
		return true, nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypted") || strings.Contains(msg, "passphrase") ||
		strings.Contains(msg, "decrypt") || strings.Contains(msg, "password") {
		return true, nil
	}
	// Unknown parse failure: assume passphrase-protected, matching the
	// Rust original's conservative default.
	return true, nil
}

// KeyFingerprint returns the SHA256 fingerprint of a private or public key
// file, formatted as "SHA256:<base64>". Grounded on
// original_source/src/ssh/keys.rs's key_fingerprint.
func KeyFingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file %s: %w", path, err)
	}

	if signer, parseErr := ssh.ParsePrivateKey(data); parseErr == nil {
		return fingerprintOf(signer.PublicKey()), nil
	}
	if pub, _, _, _, parseErr := ssh.ParseAuthorizedKey(data); parseErr == nil {
		return fingerprintOf(pub), nil
	}
	return "", fmt.Errorf("failed to parse SSH key from %s", path)
}

func fingerprintOf(pub ssh.PublicKey) string {
	sum := sha256.Sum256(pub.Marshal())
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:])
}
