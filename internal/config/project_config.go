package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"spuff/internal/volume"
)

// ProjectConfig is the per-repository environment declaration loaded from
// spuff.yaml (or spuff.yml). Grounded on
// original_source/src/project_config.rs.
type ProjectConfig struct {
	Version      string            `yaml:"version"`
	Name         string            `yaml:"name,omitempty"`
	Resources    ResourcesConfig   `yaml:"resources"`
	Bundles      []string          `yaml:"bundles"`
	Packages     []string          `yaml:"packages"`
	Services     ServicesConfig    `yaml:"services"`
	Repositories []Repository      `yaml:"repositories"`
	Env          map[string]string `yaml:"env"`
	Setup        []string          `yaml:"setup"`
	Ports        []int             `yaml:"ports"`
	Hooks        HooksConfig       `yaml:"hooks"`
	Volumes      []volume.Config   `yaml:"volumes"`
	AITools      string            `yaml:"ai_tools,omitempty"`
}

// ResourcesConfig overrides the VM size/region from AppConfig for one project.
type ResourcesConfig struct {
	Size   string `yaml:"size,omitempty"`
	Region string `yaml:"region,omitempty"`
}

// ServicesConfig describes the project's docker-compose stack.
type ServicesConfig struct {
	Enabled     bool     `yaml:"enabled"`
	ComposeFile string   `yaml:"compose_file"`
	Profiles    []string `yaml:"profiles"`
}

// HooksConfig names lifecycle scripts run by the provision/teardown pipelines.
type HooksConfig struct {
	PostUp  string `yaml:"post_up,omitempty"`
	PreDown string `yaml:"pre_down,omitempty"`
}

// Repository is either a bare "owner/repo" shorthand (assumed GitHub) or a
// full block with an explicit URL/path/branch. It round-trips through YAML
// as an untagged union, mirroring the Rust #[serde(untagged)] enum.
type Repository struct {
	Short string
	Full  *RepositoryConfig
}

// RepositoryConfig is the explicit form of a Repository entry.
type RepositoryConfig struct {
	URL    string `yaml:"url"`
	Path   string `yaml:"path,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

func (r *Repository) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Short = value.Value
		r.Full = nil
		return nil
	}
	var full RepositoryConfig
	if err := value.Decode(&full); err != nil {
		return fmt.Errorf("repositories entry must be a string or an object with a url: %w", err)
	}
	r.Full = &full
	r.Short = ""
	return nil
}

func (r Repository) MarshalYAML() (interface{}, error) {
	if r.Full != nil {
		return r.Full, nil
	}
	return r.Short, nil
}

// IsShort reports whether the entry is the bare "owner/repo" form.
func (r Repository) IsShort() bool {
	return r.Full == nil
}

// ResolvedURL returns the effective git URL, expanding a short "owner/repo"
// form to its GitHub SSH URL.
func (r Repository) ResolvedURL() string {
	if r.Full != nil {
		return r.Full.URL
	}
	return fmt.Sprintf("git@github.com:%s.git", r.Short)
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: "1",
		Services: ServicesConfig{
			Enabled:     true,
			ComposeFile: "docker-compose.yaml",
		},
		Env: map[string]string{},
	}
}

// Discover walks up from the current directory looking for spuff.yaml, then
// spuff.yml, returning the first match found.
func Discover() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		for _, name := range []string{"spuff.yaml", "spuff.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadProjectConfig reads a spuff.yaml file, merges a sibling
// spuff.secrets.yaml if present, and resolves ${VAR}-style references in env
// values.
func LoadProjectConfig(path string) (ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ProjectConfig{}, fmt.Errorf("invalid spuff.yaml: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Env == nil {
		cfg.Env = map[string]string{}
	}

	secretsPath := filepath.Join(filepath.Dir(path), "spuff.secrets.yaml")
	if _, err := os.Stat(secretsPath); err == nil {
		if err := cfg.mergeSecrets(secretsPath); err != nil {
			return ProjectConfig{}, err
		}
	}

	cfg.resolveEnvVars()
	return cfg, nil
}

// LoadFromCwd discovers and loads the nearest spuff.yaml, returning ok=false
// (with a nil error) when none is found.
func LoadFromCwd() (ProjectConfig, bool, error) {
	path, found := Discover()
	if !found {
		return ProjectConfig{}, false, nil
	}
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		return ProjectConfig{}, false, err
	}
	return cfg, true, nil
}

func (c *ProjectConfig) mergeSecrets(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	var secrets struct {
		Env map[string]string `yaml:"env"`
	}
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("invalid spuff.secrets.yaml: %w", err)
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	for k, v := range secrets.Env {
		c.Env[k] = v
	}
	return nil
}

var (
	envWithDefaultRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):-([^}]*)\}`)
	envBracesRe      = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	envSimpleRe      = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

func (c *ProjectConfig) resolveEnvVars() {
	for k, v := range c.Env {
		c.Env[k] = resolveEnvValue(v)
	}
}

// resolveEnvValue expands ${VAR:-default}, ${VAR}, and $VAR references
// against the process environment, in that order. Grounded on
// original_source/src/project_config.rs's resolve_env_value.
func resolveEnvValue(value string) string {
	result := envWithDefaultRe.ReplaceAllStringFunc(value, func(match string) string {
		groups := envWithDefaultRe.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(groups[1]); ok {
			return v
		}
		return groups[2]
	})
	result = envBracesRe.ReplaceAllStringFunc(result, func(match string) string {
		groups := envBracesRe.FindStringSubmatch(match)
		return os.Getenv(groups[1])
	})
	result = envSimpleRe.ReplaceAllStringFunc(result, func(match string) string {
		groups := envSimpleRe.FindStringSubmatch(match)
		return os.Getenv(groups[1])
	})
	return result
}

// SetupStatus describes the lifecycle of one setup item (a bundle, a
// package group, a script) during provisioning.
type SetupStatus struct {
	State  string `yaml:"state" json:"state"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

const (
	SetupPending    = "pending"
	SetupInProgress = "in_progress"
	SetupDone       = "done"
	SetupFailed     = "failed"
	SetupSkipped    = "skipped"
)

// PendingSetupStatus is the zero value every setup item starts in.
func PendingSetupStatus() SetupStatus {
	return SetupStatus{State: SetupPending}
}

// FailedSetupStatus records why a setup item failed.
func FailedSetupStatus(reason string) SetupStatus {
	return SetupStatus{State: SetupFailed, Reason: reason}
}

// ProjectSetupState is the persisted record of how far provisioning has
// progressed through a project's bundles/packages/services/repositories/setup
// scripts, surfaced by `spuff status`.
type ProjectSetupState struct {
	Started      bool              `yaml:"started" json:"started"`
	Completed    bool              `yaml:"completed" json:"completed"`
	Bundles      []BundleStatus    `yaml:"bundles" json:"bundles"`
	Packages     PackagesStatus    `yaml:"packages" json:"packages"`
	Services     ServicesStatus    `yaml:"services" json:"services"`
	Repositories []RepositoryState `yaml:"repositories" json:"repositories"`
	Scripts      []ScriptStatus    `yaml:"scripts" json:"scripts"`
}

type BundleStatus struct {
	Name    string      `yaml:"name" json:"name"`
	Status  SetupStatus `yaml:"status" json:"status"`
	Version string      `yaml:"version,omitempty" json:"version,omitempty"`
}

type PackagesStatus struct {
	Status SetupStatus `yaml:"status" json:"status"`
}

type ServicesStatus struct {
	Status      SetupStatus `yaml:"status" json:"status"`
	ComposeFile string      `yaml:"compose_file,omitempty" json:"compose_file,omitempty"`
}

type ContainerStatus struct {
	Name   string `yaml:"name" json:"name"`
	State  string `yaml:"state" json:"state"`
	Health string `yaml:"health,omitempty" json:"health,omitempty"`
}

type RepositoryState struct {
	URL    string      `yaml:"url" json:"url"`
	Path   string      `yaml:"path" json:"path"`
	Status SetupStatus `yaml:"status" json:"status"`
}

type ScriptStatus struct {
	Script string      `yaml:"script" json:"script"`
	Status SetupStatus `yaml:"status" json:"status"`
}

// EffectiveName returns cfg.Name, falling back to the base name of the
// directory a spuff.yaml was loaded from.
func (c ProjectConfig) EffectiveName(configPath string) string {
	if c.Name != "" {
		return c.Name
	}
	return filepath.Base(filepath.Dir(configPath))
}

// PortStrings renders Ports as strings, for CLI display.
func (c ProjectConfig) PortStrings() []string {
	out := make([]string, len(c.Ports))
	for i, p := range c.Ports {
		out[i] = fmt.Sprintf("%d", p)
	}
	return out
}
