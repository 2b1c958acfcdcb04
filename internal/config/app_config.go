// Package config loads and validates spuff's two configuration layers: the
// user-level AppConfig (provider credentials, defaults) in
// ~/.config/spuff/config.yaml, and the per-project ProjectConfig discovered
// from a repository's spuff.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"spuff/internal/volume"
)

// AppConfig holds the user-level settings written by `spuff init` and read
// by every other command. Grounded on original_source/src/config.rs.
type AppConfig struct {
	Provider         string          `yaml:"provider"`
	APIToken         string          `yaml:"api_token,omitempty"`
	Region           string          `yaml:"region"`
	Size             string          `yaml:"size"`
	IdleTimeout      string          `yaml:"idle_timeout"`
	Environment      string          `yaml:"environment"`
	Dotfiles         string          `yaml:"dotfiles,omitempty"`
	SSHKeyPath       string          `yaml:"ssh_key_path"`
	SSHUser          string          `yaml:"ssh_user"`
	TailscaleEnabled bool            `yaml:"tailscale_enabled"`
	TailscaleAuthkey string          `yaml:"tailscale_authkey,omitempty"`
	AgentToken       string          `yaml:"agent_token,omitempty"`
	Volumes          []volume.Config `yaml:"volumes,omitempty"`
}

// DefaultAppConfig returns the same defaults as a freshly-run `spuff init`.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Provider:    "digitalocean",
		Region:      "nyc1",
		Size:        "s-2vcpu-4gb",
		IdleTimeout: "2h",
		Environment: "devbox",
		SSHKeyPath:  expandTilde("~/.ssh/id_ed25519"),
		SSHUser:     "dev",
	}
}

func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ConfigDir returns ~/.config/spuff.
func ConfigDir() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil || home == "" {
			return "", fmt.Errorf("HOME environment variable not set")
		}
	}
	return filepath.Join(home, ".config", "spuff"), nil
}

// ConfigPath returns ~/.config/spuff/config.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// providerTokenEnvVar maps a provider name to the environment variable that
// can supply its API token, mirroring config.rs's load().
func providerTokenEnvVar(provider string) string {
	switch provider {
	case "digitalocean":
		return "DIGITALOCEAN_TOKEN"
	case "hetzner":
		return "HETZNER_TOKEN"
	case "aws":
		return "AWS_ACCESS_KEY_ID"
	default:
		return "SPUFF_API_TOKEN"
	}
}

// LoadAppConfig reads config.yaml, filling in api_token/agent_token from the
// environment when the file omits them.
func LoadAppConfig() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return AppConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AppConfig{}, fmt.Errorf("config file not found: %s. Run 'spuff init' first", path)
		}
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.APIToken == "" {
		if token := os.Getenv("SPUFF_API_TOKEN"); token != "" {
			cfg.APIToken = token
		} else if token := os.Getenv(providerTokenEnvVar(cfg.Provider)); token != "" {
			cfg.APIToken = token
		}
	}
	if cfg.AgentToken == "" {
		if token := os.Getenv("SPUFF_AGENT_TOKEN"); token != "" {
			cfg.AgentToken = token
		}
	}

	return cfg, nil
}

// Save writes the config atomically-ish (direct write, mode 0600) to
// ~/.config/spuff/config.yaml, creating the parent directory if needed.
func (c AppConfig) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// ParseIdleTimeout parses IdleTimeout, defaulting to 2h on any failure.
func (c AppConfig) ParseIdleTimeout() time.Duration {
	if d, ok := parseDuration(c.IdleTimeout); ok {
		return d
	}
	return 2 * time.Hour
}

// parseDuration accepts a bare integer (seconds) or an integer suffixed
// with h/m/s (case-insensitive). Grounded on original_source/src/config.rs's
// parse_duration.
func parseDuration(s string) (time.Duration, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	var unit time.Duration
	numeric := s
	switch {
	case strings.HasSuffix(s, "h"):
		unit = time.Hour
		numeric = strings.TrimSuffix(s, "h")
	case strings.HasSuffix(s, "m"):
		unit = time.Minute
		numeric = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "s"):
		unit = time.Second
		numeric = strings.TrimSuffix(s, "s")
	default:
		unit = time.Second
	}
	n, err := strconv.ParseUint(numeric, 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(n) * unit, true
}

var supportedProviders = map[string]bool{
	"digitalocean": true,
	"hetzner":      false, // registered, not implemented
	"aws":          false,
	"container":    true,
}

// SupportedProviderNames lists every provider name the registry recognizes,
// implemented or not.
func SupportedProviderNames() []string {
	names := make([]string, 0, len(supportedProviders))
	for name := range supportedProviders {
		names = append(names, name)
	}
	return names
}

// IsProviderImplemented reports whether a known provider name has a working
// driver, as opposed to being merely recognized.
func IsProviderImplemented(provider string) bool {
	implemented, known := supportedProviders[provider]
	return known && implemented
}

func isKnownProvider(provider string) bool {
	_, known := supportedProviders[provider]
	return known
}

// Validate checks the provider is known, the idle timeout is parseable, and
// the configured SSH key exists on disk.
func (c AppConfig) Validate() error {
	if !isKnownProvider(c.Provider) {
		return fmt.Errorf("unknown provider %q. Supported providers: %v", c.Provider, SupportedProviderNames())
	}
	if _, ok := parseDuration(c.IdleTimeout); !ok {
		return fmt.Errorf("invalid idle_timeout %q. Use format like '2h', '30m', or '3600'", c.IdleTimeout)
	}
	keyPath := expandTilde(c.SSHKeyPath)
	if _, err := os.Stat(keyPath); err != nil {
		return fmt.Errorf("SSH key not found at %q. Generate one with: ssh-keygen -t ed25519", c.SSHKeyPath)
	}
	return nil
}
