package volume

import "context"

// Driver mounts and unmounts volumes of one Type. Grounded on the
// VolumeDriver trait in original_source/src/volume/driver.rs.
type Driver interface {
	Name() string
	Description() string

	// IsAvailable reports whether the local tooling this driver needs
	// (e.g. the sshfs binary) is installed.
	IsAvailable() bool

	Mount(ctx context.Context, cfg Config, handle MountHandle, sshKeyPath string) error
	Unmount(ctx context.Context, handle MountHandle) error
	Status(ctx context.Context, handle MountHandle) MountStatus

	// RequiredPackages names packages the remote instance needs for this
	// driver to work (installed via cloud-init or on demand).
	RequiredPackages() []string

	// RequiredLocalPackages names packages the machine running spuff
	// itself needs (e.g. "sshfs" on Linux, "macfuse" on macOS).
	RequiredLocalPackages() []string

	// IsMounted reports whether handle.MountPoint currently has something
	// mounted on it, independent of whether spuff itself put it there.
	IsMounted(mountPoint string) bool
}

// Remount is the default VolumeDriver::remount behavior: unmount, then
// mount again. Drivers that can do better should shadow it.
func Remount(ctx context.Context, d Driver, cfg Config, handle MountHandle, sshKeyPath string) error {
	_ = d.Unmount(ctx, handle)
	return d.Mount(ctx, cfg, handle, sshKeyPath)
}

// DriverInfo is what `spuff volume` listings show about a driver without
// needing to instantiate or probe it.
type DriverInfo struct {
	Type                  Type
	Name                  string
	Description           string
	Available             bool
	RequiredPackages      []string
	RequiredLocalPackages []string
}

func NewDriverInfo(t Type, d Driver) DriverInfo {
	return DriverInfo{
		Type:                  t,
		Name:                  d.Name(),
		Description:           d.Description(),
		Available:             d.IsAvailable(),
		RequiredPackages:      d.RequiredPackages(),
		RequiredLocalPackages: d.RequiredLocalPackages(),
	}
}
