package sshcore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test_key")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path
}

func TestKeyHasNoPassphrase(t *testing.T) {
	path := writeTestKey(t)
	has, err := KeyHasPassphrase(path)
	if err != nil {
		t.Fatalf("KeyHasPassphrase: %v", err)
	}
	if has {
		t.Error("freshly generated unencrypted key reported as having a passphrase")
	}
}

func TestKeyFingerprint(t *testing.T) {
	path := writeTestKey(t)
	fp, err := KeyFingerprint(path)
	if err != nil {
		t.Fatalf("KeyFingerprint: %v", err)
	}
	if !strings.HasPrefix(fp, "SHA256:") {
		t.Errorf("fingerprint %q does not start with SHA256:", fp)
	}
}

func TestFingerprintOfPublicKeyFile(t *testing.T) {
	path := writeTestKey(t)
	// GenerateManagedKey writes a .pub alongside the private key; emulate
	// that here to exercise the public-key parse branch of KeyFingerprint.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		t.Fatal(err)
	}
	pubPath := path + ".pub"
	if err := os.WriteFile(pubPath, ssh.MarshalAuthorizedKey(signer.PublicKey()), 0o644); err != nil {
		t.Fatal(err)
	}
	fp, err := KeyFingerprint(pubPath)
	if err != nil {
		t.Fatalf("KeyFingerprint(pub): %v", err)
	}
	if !strings.HasPrefix(fp, "SHA256:") {
		t.Errorf("fingerprint %q does not start with SHA256:", fp)
	}
}
