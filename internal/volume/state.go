package volume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MountHandle is a live or previously-live mount: enough to find it again,
// unmount it, or check on its health. Grounded on
// original_source/src/volume/state.rs's MountHandle.
type MountHandle struct {
	ID         string    `json:"id"`
	Driver     string    `json:"driver"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	MountPoint string    `json:"mount_point"`
	VMIP       string    `json:"vm_ip,omitempty"`
	SSHUser    string    `json:"ssh_user,omitempty"`
	TunnelPort int       `json:"tunnel_port,omitempty"`
	MountedAt  time.Time `json:"mounted_at"`
	ReadOnly   bool      `json:"read_only"`
}

// NewMountHandle creates a handle with a fresh ID and MountedAt set to now.
func NewMountHandle(driver, target, mountPoint string) MountHandle {
	return MountHandle{
		ID:         uuid.NewString(),
		Driver:     driver,
		Target:     target,
		MountPoint: mountPoint,
		MountedAt:  time.Now().UTC(),
	}
}

// MountStatus reports whether a mount is currently active and healthy.
type MountStatus struct {
	Mounted       bool   `json:"mounted"`
	Healthy       bool   `json:"healthy"`
	LatencyMillis int64  `json:"latency_ms,omitempty"`
	Error         string `json:"error,omitempty"`
}

// HealthyStatus reports a mounted, reachable volume.
func HealthyStatus(latency time.Duration) MountStatus {
	return MountStatus{Mounted: true, Healthy: true, LatencyMillis: latency.Milliseconds()}
}

// UnhealthyStatus reports a mounted but unreachable volume.
func UnhealthyStatus(reason string) MountStatus {
	return MountStatus{Mounted: true, Healthy: false, Error: reason}
}

// NotMountedStatus reports no active mount at all.
func NotMountedStatus() MountStatus {
	return MountStatus{}
}

// State is the persisted record of every mount spuff currently knows
// about, stored as JSON under ~/.local/share/spuff/volumes.json.
// Grounded on VolumeState in state.rs.
type State struct {
	Mounts []MountHandle `json:"mounts"`
}

func stateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "spuff"), nil
}

func stateFilePath() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "volumes.json"), nil
}

func lockFilePath() (string, error) {
	dir, err := stateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "volumes.lock"), nil
}

// acquireLock takes an exclusive lock on the state file, removing a stale
// lock (older than 60s) left behind by a crashed process, and retrying up
// to 10 times with a 100ms delay otherwise.
func acquireLock() (func(), error) {
	dir, err := stateDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	path, err := lockFilePath()
	if err != nil {
		return nil, err
	}

	const maxAttempts = 10
	const retryDelay = 100 * time.Millisecond
	const staleAge = 60 * time.Second

	for attempt := 0; attempt < maxAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to acquire state lock: %w", err)
		}

		if info, statErr := os.Stat(path); statErr == nil {
			if time.Since(info.ModTime()) > staleAge {
				os.Remove(path)
				continue
			}
		}
		if attempt+1 < maxAttempts {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to acquire state lock after %d attempts", maxAttempts)
}

// Load reads volumes.json, returning an empty State if it doesn't exist.
func Load() (State, error) {
	path, err := stateFilePath()
	if err != nil {
		return State{}, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return State{}, nil
	}

	unlock, err := acquireLock()
	if err != nil {
		return State{}, err
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return State{}, nil
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("state file corrupted (%w). Consider removing %s", err, path)
	}
	return s, nil
}

// LoadOrDefault is Load, but swallows any error and returns an empty State.
func LoadOrDefault() State {
	s, err := Load()
	if err != nil {
		return State{}
	}
	return s
}

// Save writes the state atomically: write to a process-unique temp file,
// then rename over the real path, under the same lock Load takes.
func (s State) Save() error {
	dir, err := stateDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	path, err := stateFilePath()
	if err != nil {
		return err
	}

	unlock, err := acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf("volumes.%d.tmp", os.Getpid()))
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save state file: %w", err)
	}
	return nil
}

// AddMount appends a handle to the in-memory state (call Save to persist).
func (s *State) AddMount(h MountHandle) {
	s.Mounts = append(s.Mounts, h)
}

// RemoveMount deletes the first mount whose target or mount point matches
// path, returning it (or ok=false if none matched).
func (s *State) RemoveMount(path string) (MountHandle, bool) {
	for i, m := range s.Mounts {
		if m.Target == path || m.MountPoint == path {
			removed := m
			s.Mounts = append(s.Mounts[:i], s.Mounts[i+1:]...)
			return removed, true
		}
	}
	return MountHandle{}, false
}

// FindMount looks up a mount by target or mount point.
func (s State) FindMount(path string) (MountHandle, bool) {
	for _, m := range s.Mounts {
		if m.Target == path || m.MountPoint == path {
			return m, true
		}
	}
	return MountHandle{}, false
}

// FindByMountPoint looks up a mount strictly by its local mount point.
func (s State) FindByMountPoint(mountPoint string) (MountHandle, bool) {
	for _, m := range s.Mounts {
		if m.MountPoint == mountPoint {
			return m, true
		}
	}
	return MountHandle{}, false
}

// Clear drops every tracked mount.
func (s *State) Clear() {
	s.Mounts = nil
}
