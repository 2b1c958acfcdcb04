// Package provider defines spuff's cloud/container abstraction: a single
// Provider interface implemented by each backend (DigitalOcean droplets,
// local Docker containers), plus the registry that resolves a configured
// provider name to a concrete implementation. Grounded on
// original_source/src/provider/{mod,registry}.rs.
package provider

import (
	"context"
	"fmt"
	"net"
	"time"
)

// InstanceConfig describes the instance to create.
type InstanceConfig struct {
	Name     string
	Region   string
	Size     string
	Image    ImageSpec
	SSHKeys  []string
	UserData string
	Tags     []string
	// Volumes are bind mounts a container-backed provider attaches at
	// creation time. Cloud providers that mount volumes over SSHFS after
	// boot instead simply ignore this field.
	Volumes []VolumeMount
}

// VolumeMount is a single host-path-to-instance-path bind, the
// provider-agnostic shape of a container's bind mount.
type VolumeMount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// ImageSpec names the base image/snapshot an instance should boot from.
type ImageSpec struct {
	Kind  ImageKind
	Value string // distro version ("22.04"), or a custom/snapshot image id
}

type ImageKind int

const (
	ImageUbuntu ImageKind = iota
	ImageDebian
	ImageCustom
	ImageSnapshot
)

// Instance is a running (or provisioning) compute resource.
type Instance struct {
	ID        string
	IP        net.IP
	Status    InstanceStatus
	CreatedAt time.Time
}

// InstanceStatus mirrors the provider-agnostic lifecycle states spuff cares
// about; Unknown carries the raw provider string through untranslated.
type InstanceStatus struct {
	kind    instanceStatusKind
	unknown string
}

type instanceStatusKind int

const (
	StatusNew instanceStatusKind = iota
	StatusActive
	StatusOff
	StatusArchive
	StatusUnknown
)

func NewStatus() InstanceStatus     { return InstanceStatus{kind: StatusNew} }
func ActiveStatus() InstanceStatus  { return InstanceStatus{kind: StatusActive} }
func OffStatus() InstanceStatus     { return InstanceStatus{kind: StatusOff} }
func ArchiveStatus() InstanceStatus { return InstanceStatus{kind: StatusArchive} }
func UnknownStatus(s string) InstanceStatus {
	return InstanceStatus{kind: StatusUnknown, unknown: s}
}

func (s InstanceStatus) String() string {
	switch s.kind {
	case StatusNew:
		return "new"
	case StatusActive:
		return "active"
	case StatusOff:
		return "off"
	case StatusArchive:
		return "archive"
	default:
		return s.unknown
	}
}

// IsActive reports whether the status is Active. It does not look at the
// instance's IP; the digitalocean driver's WaitReady checks that separately.
func (s InstanceStatus) IsActive() bool { return s.kind == StatusActive }

func (s InstanceStatus) Equal(other InstanceStatus) bool {
	return s.kind == other.kind && s.unknown == other.unknown
}

// Snapshot is a saved image of an instance, usable as a future ImageSpec.
type Snapshot struct {
	ID        string
	Name      string
	CreatedAt *time.Time
	SizeGB    *float64
}

// Provider is the operation set every backend (cloud VM or local container)
// implements. Grounded on original_source/src/provider/mod.rs's Provider trait.
type Provider interface {
	CreateInstance(ctx context.Context, cfg InstanceConfig) (Instance, error)
	DestroyInstance(ctx context.Context, id string) error
	GetInstance(ctx context.Context, id string) (Instance, bool, error)
	ListInstances(ctx context.Context) ([]Instance, error)
	WaitReady(ctx context.Context, id string) (Instance, error)
	CreateSnapshot(ctx context.Context, instanceID, name string) (Snapshot, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// ErrInstanceNotReady is returned by WaitReady when an instance never
// reaches Active with a routable IP within its retry budget.
type ErrInstanceNotReady struct {
	Message string
}

func (e ErrInstanceNotReady) Error() string { return e.Message }

// errNotReady constructs ErrInstanceNotReady with a formatted message.
func errNotReady(format string, args ...interface{}) error {
	return ErrInstanceNotReady{Message: fmt.Sprintf(format, args...)}
}
