package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeTempProjectConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spuff.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestParseSimpleProjectConfig(t *testing.T) {
	path := writeTempProjectConfig(t, `
name: myapp
bundles:
  - node
  - python
packages:
  - ripgrep
ports:
  - 3000
  - 5432
`)
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig: %v", err)
	}
	if cfg.Name != "myapp" {
		t.Errorf("Name = %q, want myapp", cfg.Name)
	}
	if len(cfg.Bundles) != 2 || cfg.Bundles[0] != "node" || cfg.Bundles[1] != "python" {
		t.Errorf("Bundles = %v", cfg.Bundles)
	}
	if len(cfg.Packages) != 1 || cfg.Packages[0] != "ripgrep" {
		t.Errorf("Packages = %v", cfg.Packages)
	}
	if len(cfg.Ports) != 2 || cfg.Ports[0] != 3000 || cfg.Ports[1] != 5432 {
		t.Errorf("Ports = %v", cfg.Ports)
	}
	if cfg.Version != "1" {
		t.Errorf("Version = %q, want default 1", cfg.Version)
	}
}

func TestParseResourcesOverride(t *testing.T) {
	path := writeTempProjectConfig(t, `
resources:
  size: s-4vcpu-8gb
  region: sfo3
`)
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig: %v", err)
	}
	if cfg.Resources.Size != "s-4vcpu-8gb" {
		t.Errorf("Resources.Size = %q", cfg.Resources.Size)
	}
	if cfg.Resources.Region != "sfo3" {
		t.Errorf("Resources.Region = %q", cfg.Resources.Region)
	}
}

func TestParseRepositoryShortFormat(t *testing.T) {
	path := writeTempProjectConfig(t, `
repositories:
  - owner/repo
  - url: git@github.com:other/thing.git
    path: /home/dev/thing
    branch: main
`)
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig: %v", err)
	}
	if len(cfg.Repositories) != 2 {
		t.Fatalf("Repositories len = %d, want 2", len(cfg.Repositories))
	}
	short := cfg.Repositories[0]
	if !short.IsShort() || short.Short != "owner/repo" {
		t.Errorf("first repository = %+v, want short owner/repo", short)
	}
	if got, want := short.ResolvedURL(), "git@github.com:owner/repo.git"; got != want {
		t.Errorf("ResolvedURL() = %q, want %q", got, want)
	}
	full := cfg.Repositories[1]
	if full.IsShort() || full.Full == nil {
		t.Fatalf("second repository = %+v, want full form", full)
	}
	if full.Full.URL != "git@github.com:other/thing.git" || full.Full.Path != "/home/dev/thing" || full.Full.Branch != "main" {
		t.Errorf("full repository fields = %+v", full.Full)
	}
}

func TestServicesDefaults(t *testing.T) {
	path := writeTempProjectConfig(t, `name: bare`)
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig: %v", err)
	}
	if !cfg.Services.Enabled {
		t.Error("Services.Enabled should default true")
	}
	if cfg.Services.ComposeFile != "docker-compose.yaml" {
		t.Errorf("Services.ComposeFile = %q, want docker-compose.yaml", cfg.Services.ComposeFile)
	}
}

func TestMergeSecrets(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "spuff.yaml")
	if err := os.WriteFile(mainPath, []byte("env:\n  FOO: bar\n  SHARED: from-main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	secretsPath := filepath.Join(dir, "spuff.secrets.yaml")
	if err := os.WriteFile(secretsPath, []byte("env:\n  SHARED: from-secrets\n  TOKEN: s3cr3t\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadProjectConfig(mainPath)
	if err != nil {
		t.Fatalf("LoadProjectConfig: %v", err)
	}
	if cfg.Env["FOO"] != "bar" {
		t.Errorf("Env[FOO] = %q, want bar", cfg.Env["FOO"])
	}
	if cfg.Env["SHARED"] != "from-secrets" {
		t.Errorf("Env[SHARED] = %q, want secrets to override main config", cfg.Env["SHARED"])
	}
	if cfg.Env["TOKEN"] != "s3cr3t" {
		t.Errorf("Env[TOKEN] = %q, want s3cr3t", cfg.Env["TOKEN"])
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("SPUFF_TEST_HOST", "db.internal")
	path := writeTempProjectConfig(t, `
env:
  WITH_DEFAULT: "${MISSING_VAR:-fallback}"
  BRACED: "${SPUFF_TEST_HOST}"
  BARE: "$SPUFF_TEST_HOST"
`)
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("LoadProjectConfig: %v", err)
	}
	if cfg.Env["WITH_DEFAULT"] != "fallback" {
		t.Errorf("WITH_DEFAULT = %q, want fallback", cfg.Env["WITH_DEFAULT"])
	}
	if cfg.Env["BRACED"] != "db.internal" {
		t.Errorf("BRACED = %q, want db.internal", cfg.Env["BRACED"])
	}
	if cfg.Env["BARE"] != "db.internal" {
		t.Errorf("BARE = %q, want db.internal", cfg.Env["BARE"])
	}
}

func TestDiscoverWalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "spuff.yaml"), []byte("name: rootproj\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	if err := os.Chdir(nested); err != nil {
		t.Fatal(err)
	}
	path, found := Discover()
	if !found {
		t.Fatal("Discover() did not find spuff.yaml in an ancestor directory")
	}
	if filepath.Clean(path) != filepath.Join(root, "spuff.yaml") {
		t.Errorf("Discover() = %q, want %q", path, filepath.Join(root, "spuff.yaml"))
	}
}

func TestRepositoryYAMLRoundTrip(t *testing.T) {
	in := []Repository{
		{Short: "owner/repo"},
		{Full: &RepositoryConfig{URL: "git@github.com:x/y.git", Branch: "dev"}},
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []Repository
	if err := yaml.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || !out[0].IsShort() || out[0].Short != "owner/repo" {
		t.Errorf("round-tripped short repository = %+v", out)
	}
	if out[1].IsShort() || out[1].Full.URL != "git@github.com:x/y.git" || out[1].Full.Branch != "dev" {
		t.Errorf("round-tripped full repository = %+v", out[1])
	}
}
