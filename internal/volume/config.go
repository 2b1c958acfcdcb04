// Package volume mounts a directory on a running instance onto the local
// machine, so a developer's editor can work with files that physically
// live on the box. Grounded on original_source/src/volume/**.
package volume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Type names a volume driver. SSHFS is the only implemented one today;
// the zero value is Sshfs so a config with no "type:" key still resolves
// to something mountable.
type Type string

const (
	TypeSSHFS Type = "sshfs"
)

func (t Type) String() string {
	if t == "" {
		return string(TypeSSHFS)
	}
	return string(t)
}

// ParseType parses a "type:" value from spuff.yaml, defaulting to sshfs.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "", "sshfs":
		return TypeSSHFS, nil
	default:
		return "", fmt.Errorf("unknown volume type: %s", s)
	}
}

// Options carries SSHFS-specific mount tuning, with the same defaults as
// a freshly-declared spuff.yaml volume entry.
type Options struct {
	Reconnect           bool `yaml:"reconnect"`
	Compression         bool `yaml:"compression"`
	Cache               bool `yaml:"cache"`
	ServerAliveInterval int  `yaml:"server_alive_interval"`
	ServerAliveCountMax int  `yaml:"server_alive_count_max"`
}

// DefaultOptions mirrors VolumeOptions::default() in config.rs.
func DefaultOptions() Options {
	return Options{
		Reconnect:           true,
		Cache:               true,
		ServerAliveInterval: 15,
		ServerAliveCountMax: 3,
	}
}

// Config is one `volumes:` entry from spuff.yaml.
type Config struct {
	DriverType Type    `yaml:"type,omitempty"`
	Source     string  `yaml:"source,omitempty"`
	Target     string  `yaml:"target"`
	MountPoint string  `yaml:"mount_point,omitempty"`
	ReadOnly   bool    `yaml:"read_only,omitempty"`
	Options    Options `yaml:"options,omitempty"`
}

// NewConfig builds a Config with default options, mirroring VolumeConfig::new.
func NewConfig(source, target string) Config {
	return Config{
		DriverType: TypeSSHFS,
		Source:     source,
		Target:     target,
		Options:    DefaultOptions(),
	}
}

// ParseSpec parses a CLI-supplied "remote_path:local_mount" or
// "remote_path:local_mount:ro" shorthand, mirroring VolumeConfig::from_spec.
func ParseSpec(spec string) (Config, error) {
	parts := strings.Split(spec, ":")
	switch len(parts) {
	case 2:
		cfg := NewConfig("", parts[0])
		cfg.MountPoint = parts[1]
		return cfg, nil
	case 3:
		if parts[2] != "ro" {
			break
		}
		cfg := NewConfig("", parts[0])
		cfg.MountPoint = parts[1]
		cfg.ReadOnly = true
		return cfg, nil
	}
	return Config{}, fmt.Errorf(
		"invalid volume spec %q. Expected format: 'remote_path:local_mount' or 'remote_path:local_mount:ro'", spec,
	)
}

// expandTilde expands a leading ~ to the user's home directory.
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

// resolveRelative joins a relative path onto baseDir (or the current
// working directory, absent one); filepath.Join collapses "." and ".."
// components along the way, so no separate normalization pass is needed.
func resolveRelative(path, baseDir string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	base := baseDir
	if base == "" {
		if cwd, err := os.Getwd(); err == nil {
			base = cwd
		} else {
			base = "."
		}
	}
	return filepath.Join(base, path)
}

// ResolveSource expands ~ and relative components in Source against
// projectBaseDir (the directory spuff.yaml lives in).
func (c Config) ResolveSource(projectBaseDir string) string {
	if c.Source == "" {
		return ""
	}
	return resolveRelative(expandTilde(c.Source), projectBaseDir)
}

// ResolveMountPoint picks the local directory a volume mounts onto:
// an explicit MountPoint, then Source (so edits land back in the
// project checkout), then an auto-generated path under
// ~/.local/share/spuff/mounts/<instance>/<target-basename>.
func (c Config) ResolveMountPoint(instanceName, projectBaseDir string) string {
	if c.MountPoint != "" {
		return resolveRelative(expandTilde(c.MountPoint), projectBaseDir)
	}
	if c.Source != "" {
		return c.ResolveSource(projectBaseDir)
	}

	targetName := filepath.Base(c.Target)
	if targetName == "" || targetName == "." || targetName == "/" {
		targetName = "volume"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	base := filepath.Join(home, ".local", "share", "spuff", "mounts")
	if instanceName != "" {
		return filepath.Join(base, instanceName, targetName)
	}
	return filepath.Join(base, targetName)
}
