package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDurationHours(t *testing.T) {
	cases := map[string]time.Duration{
		"2h":  2 * time.Hour,
		"1h":  time.Hour,
		"24H": 24 * time.Hour,
	}
	for in, want := range cases {
		got, ok := parseDuration(in)
		if !ok || got != want {
			t.Errorf("parseDuration(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
}

func TestParseDurationMinutes(t *testing.T) {
	cases := map[string]time.Duration{
		"30m": 30 * time.Minute,
		"1m":  time.Minute,
		"90M": 90 * time.Minute,
	}
	for in, want := range cases {
		got, ok := parseDuration(in)
		if !ok || got != want {
			t.Errorf("parseDuration(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
}

func TestParseDurationSeconds(t *testing.T) {
	cases := map[string]time.Duration{
		"60s":   60 * time.Second,
		"3600S": 3600 * time.Second,
	}
	for in, want := range cases {
		got, ok := parseDuration(in)
		if !ok || got != want {
			t.Errorf("parseDuration(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
}

func TestParseDurationRawSeconds(t *testing.T) {
	got, ok := parseDuration("7200")
	if !ok || got != 7200*time.Second {
		t.Errorf("parseDuration(\"7200\") = (%v, %v), want (7200s, true)", got, ok)
	}
}

func TestParseDurationInvalid(t *testing.T) {
	for _, in := range []string{"invalid", "", "2x"} {
		if _, ok := parseDuration(in); ok {
			t.Errorf("parseDuration(%q) unexpectedly succeeded", in)
		}
	}
}

func TestParseDurationWhitespace(t *testing.T) {
	got, ok := parseDuration("  2h  ")
	if !ok || got != 2*time.Hour {
		t.Errorf("parseDuration(\"  2h  \") = (%v, %v), want (2h, true)", got, ok)
	}
}

func TestDefaultAppConfig(t *testing.T) {
	cfg := DefaultAppConfig()
	if cfg.Provider != "digitalocean" {
		t.Errorf("Provider = %q, want digitalocean", cfg.Provider)
	}
	if cfg.Region != "nyc1" {
		t.Errorf("Region = %q, want nyc1", cfg.Region)
	}
	if cfg.Size != "s-2vcpu-4gb" {
		t.Errorf("Size = %q, want s-2vcpu-4gb", cfg.Size)
	}
	if cfg.IdleTimeout != "2h" {
		t.Errorf("IdleTimeout = %q, want 2h", cfg.IdleTimeout)
	}
	if cfg.Environment != "devbox" {
		t.Errorf("Environment = %q, want devbox", cfg.Environment)
	}
	if cfg.SSHUser != "dev" {
		t.Errorf("SSHUser = %q, want dev", cfg.SSHUser)
	}
	if cfg.TailscaleEnabled {
		t.Error("TailscaleEnabled should default false")
	}
	if cfg.AgentToken != "" {
		t.Error("AgentToken should default empty")
	}
}

func TestAppConfigSerializationOmitsEmpty(t *testing.T) {
	cfg := AppConfig{
		Provider:    "digitalocean",
		Region:      "nyc1",
		Size:        "s-2vcpu-4gb",
		IdleTimeout: "2h",
		Environment: "devbox",
		Dotfiles:    "https://github.com/user/dotfiles",
		SSHKeyPath:  "/home/user/.ssh/id_ed25519",
		SSHUser:     "root",
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)
	for _, want := range []string{"provider: digitalocean", "region: nyc1", "dotfiles: https://github.com/user/dotfiles"} {
		if !strings.Contains(text, want) {
			t.Errorf("serialized config missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "api_token") {
		t.Error("api_token should be omitted when empty")
	}
	if strings.Contains(text, "agent_token") {
		t.Error("agent_token should be omitted when empty")
	}
}

func TestAppConfigDeserialization(t *testing.T) {
	yamlText := `
provider: hetzner
region: fsn1
size: cx21
idle_timeout: 4h
environment: nix
ssh_key_path: /home/user/.ssh/id_rsa
ssh_user: admin
tailscale_enabled: true
tailscale_authkey: tskey-xxx
`
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(yamlText), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Provider != "hetzner" || cfg.Region != "fsn1" || cfg.Size != "cx21" {
		t.Errorf("unexpected decoded fields: %+v", cfg)
	}
	if !cfg.TailscaleEnabled || cfg.TailscaleAuthkey != "tskey-xxx" {
		t.Errorf("tailscale fields not decoded: %+v", cfg)
	}
}

func TestParseIdleTimeout(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.IdleTimeout = "2h"
	if got := cfg.ParseIdleTimeout(); got != 2*time.Hour {
		t.Errorf("ParseIdleTimeout() = %v, want 2h", got)
	}
	cfg.IdleTimeout = "30m"
	if got := cfg.ParseIdleTimeout(); got != 30*time.Minute {
		t.Errorf("ParseIdleTimeout() = %v, want 30m", got)
	}
	cfg.IdleTimeout = "invalid"
	if got := cfg.ParseIdleTimeout(); got != 2*time.Hour {
		t.Errorf("ParseIdleTimeout() fallback = %v, want 2h", got)
	}
}

func TestValidateInvalidProvider(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Provider = "nonexistent"
	cfg.SSHKeyPath = "/dev/null"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject an unknown provider")
	}
}

func TestValidateInvalidIdleTimeout(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.IdleTimeout = "not-a-duration"
	cfg.SSHKeyPath = "/dev/null"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject an unparseable idle_timeout")
	}
}
