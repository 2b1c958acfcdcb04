package volume

import (
	"context"
	"fmt"
)

// Manager owns a registry of drivers plus the persisted mount State,
// and is the entry point the cli package calls into. Grounded on
// VolumeManager in original_source/src/volume/mod.rs.
type Manager struct {
	drivers map[Type]Driver
	state   State
}

// New builds a Manager with every known driver registered and loads
// persisted state, ignoring a corrupt or missing state file.
func New() *Manager {
	return &Manager{
		drivers: map[Type]Driver{TypeSSHFS: SSHFSDriver{}},
		state:   LoadOrDefault(),
	}
}

// NewStrict is New, but surfaces a state file load error instead of
// silently discarding it.
func NewStrict() (*Manager, error) {
	s, err := Load()
	if err != nil {
		return nil, err
	}
	return &Manager{
		drivers: map[Type]Driver{TypeSSHFS: SSHFSDriver{}},
		state:   s,
	}, nil
}

func (m *Manager) GetDriver(t Type) (Driver, error) {
	d, ok := m.drivers[t]
	if !ok {
		return nil, fmt.Errorf("no volume driver registered for type %q", t)
	}
	return d, nil
}

func (m *Manager) GetDriverInfo(t Type) (DriverInfo, error) {
	d, err := m.GetDriver(t)
	if err != nil {
		return DriverInfo{}, err
	}
	return NewDriverInfo(t, d), nil
}

// GetRequiredPackages merges the remote packages every registered driver
// needs, de-duplicated.
func (m *Manager) GetRequiredPackages() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range m.drivers {
		for _, pkg := range d.RequiredPackages() {
			if !seen[pkg] {
				seen[pkg] = true
				out = append(out, pkg)
			}
		}
	}
	return out
}

func (m *Manager) GetMounts() []MountHandle {
	return append([]MountHandle(nil), m.state.Mounts...)
}

// Mount mounts cfg against a running instance at vmIP, persisting the new
// MountHandle to state on success.
func (m *Manager) Mount(ctx context.Context, cfg Config, instanceName, vmIP, sshUser, sshKeyPath string, tunnelPort int) (MountHandle, error) {
	driverType := cfg.DriverType
	if driverType == "" {
		driverType = TypeSSHFS
	}
	d, err := m.GetDriver(driverType)
	if err != nil {
		return MountHandle{}, err
	}

	isFile := isFileTarget(ctx, cfg, sshUser, vmIP, sshKeyPath)
	if err := syncToVM(ctx, cfg, sshUser, vmIP, sshKeyPath, isFile); err != nil {
		return MountHandle{}, fmt.Errorf("failed to seed %s: %w", cfg.Target, err)
	}

	mountPoint := cfg.ResolveMountPoint(instanceName, "")
	handle := NewMountHandle(d.Name(), cfg.Target, mountPoint)
	handle.Source = cfg.Source
	handle.VMIP = vmIP
	handle.SSHUser = sshUser
	handle.TunnelPort = tunnelPort
	handle.ReadOnly = cfg.ReadOnly

	if isFile {
		// A single file is seeded directly onto the instance by the sync
		// above; there's no directory for SSHFS to mount, so the handle
		// just points at the remote path and nothing gets tracked in
		// mount state.
		handle.MountPoint = cfg.Target
		return handle, nil
	}

	if err := d.Mount(ctx, cfg, handle, sshKeyPath); err != nil {
		return MountHandle{}, fmt.Errorf("failed to mount %s: %w", cfg.Target, err)
	}

	m.state.AddMount(handle)
	if err := m.state.Save(); err != nil {
		return handle, fmt.Errorf("mounted %s but failed to persist state: %w", cfg.Target, err)
	}
	return handle, nil
}

// MountAll mounts every entry in cfgs, continuing past individual
// failures and returning them alongside whichever handles succeeded.
func (m *Manager) MountAll(ctx context.Context, cfgs []Config, instanceName, vmIP, sshUser, sshKeyPath string, tunnelPort int) ([]MountHandle, []error) {
	var handles []MountHandle
	var errs []error
	for _, cfg := range cfgs {
		h, err := m.Mount(ctx, cfg, instanceName, vmIP, sshUser, sshKeyPath, tunnelPort)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		handles = append(handles, h)
	}
	return handles, errs
}

// Unmount unmounts the tracked mount matching path (its target or local
// mount point) and removes it from state.
func (m *Manager) Unmount(ctx context.Context, path string) error {
	handle, ok := m.state.FindMount(path)
	if !ok {
		return fmt.Errorf("no tracked volume mount for %q", path)
	}

	driverType, err := ParseType(handle.Driver)
	if err != nil {
		driverType = TypeSSHFS
	}
	d, err := m.GetDriver(driverType)
	if err != nil {
		return err
	}

	if err := d.Unmount(ctx, handle); err != nil {
		return err
	}

	m.state.RemoveMount(path)
	return m.state.Save()
}

// UnmountAll unmounts every tracked mount, collecting errors rather than
// stopping at the first one.
func (m *Manager) UnmountAll(ctx context.Context) []error {
	var errs []error
	for _, h := range m.GetMounts() {
		if err := m.Unmount(ctx, h.MountPoint); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// StatusAll probes every tracked mount and reports its current health.
func (m *Manager) StatusAll(ctx context.Context) map[string]MountStatus {
	out := make(map[string]MountStatus, len(m.state.Mounts))
	for _, h := range m.state.Mounts {
		driverType, err := ParseType(h.Driver)
		if err != nil {
			driverType = TypeSSHFS
		}
		d, err := m.GetDriver(driverType)
		if err != nil {
			out[h.MountPoint] = UnhealthyStatus(err.Error())
			continue
		}
		out[h.MountPoint] = d.Status(ctx, h)
	}
	return out
}

// ClearState drops every tracked mount record without attempting to
// unmount anything first — for recovering from a state file that no
// longer reflects reality.
func (m *Manager) ClearState() error {
	m.state.Clear()
	return m.state.Save()
}

// ClearStateSilent is ClearState but swallows the save error, for
// best-effort cleanup paths that already have a more important error to
// report.
func (m *Manager) ClearStateSilent() {
	m.state.Clear()
	_ = m.state.Save()
}
