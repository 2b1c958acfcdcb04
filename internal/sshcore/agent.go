package sshcore

import (
	"crypto/sha256"
	"encoding/base64"
	"net"
	"os"

	"golang.org/x/crypto/ssh/agent"
)

// IsSSHAgentRunning reports whether SSH_AUTH_SOCK is set and its socket
// exists. Grounded on original_source/src/ssh/mod.rs's is_ssh_agent_running.
func IsSSHAgentRunning() bool {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return false
	}
	_, err := os.Stat(sock)
	return err == nil
}

// dialAgent connects to the running ssh-agent over its unix socket.
func dialAgent() (agent.Agent, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, err
	}
	return agent.NewClient(conn), nil
}

// IsKeyInAgent reports whether the key at keyPath is currently loaded in the
// SSH agent, by comparing SHA256 fingerprints. Grounded on
// original_source/src/ssh/agent.rs's is_key_in_agent; this spuff port is
// read-only exactly like the original — it never starts the agent or adds
// keys to it.
func IsKeyInAgent(keyPath string) bool {
	fileFingerprint, err := KeyFingerprint(keyPath)
	if err != nil {
		return false
	}
	ag, err := dialAgent()
	if err != nil {
		return false
	}
	identities, err := ag.List()
	if err != nil {
		return false
	}
	for _, id := range identities {
		sum := sha256.Sum256(id.Marshal())
		fp := "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:])
		if fp == fileFingerprint {
			return true
		}
	}
	return false
}
