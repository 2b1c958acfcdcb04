// Package container implements spuff's provider.Provider against a local
// Docker daemon, for fast disposable environments that don't need a cloud
// VM. Grounded on original_source/src/provider/docker.rs, using Docker's
// own Go client SDK (github.com/docker/docker/client) in place of the
// Rust original's bollard crate — the direct equivalent already carried
// by the teacher's dependency set.
package container

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"

	"spuff/internal/provider"
)

const agentPort nat.Port = "7575/tcp"

// agentExposedPorts and agentPortBindings bind the on-box agent's HTTP
// port to loopback-only on the host, matching docker.rs's hard-coded
// 127.0.0.1:7575 -> 7575/tcp binding.
func agentExposedPorts() nat.PortSet {
	return nat.PortSet{agentPort: struct{}{}}
}

func agentPortBindings() nat.PortMap {
	return nat.PortMap{
		agentPort: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "7575"}},
	}
}

// dockerBinds renders cfg.Volumes as Docker's "host:container[:ro]" bind
// spec, attached at container-creation time rather than mounted over
// SSHFS after boot the way a cloud instance's volumes are.
func dockerBinds(volumes []provider.VolumeMount) []string {
	binds := make([]string, 0, len(volumes))
	for _, v := range volumes {
		if v.Source == "" || v.Target == "" {
			continue
		}
		spec := v.Source + ":" + v.Target
		if v.ReadOnly {
			spec += ":ro"
		}
		binds = append(binds, spec)
	}
	return binds
}

// Provider talks to the local Docker daemon (its Unix socket by default).
type Provider struct {
	client   *client.Client
	timeouts provider.Timeouts
}

// New connects to Docker using the standard DOCKER_HOST/DOCKER_* environment
// settings, which fall back to the daemon's default Unix socket when unset,
// and negotiates the API version with the daemon.
func New(timeouts provider.Timeouts) (*Provider, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, provider.OtherError("failed to connect to Docker socket: %v", err)
	}
	return &Provider{client: cli, timeouts: timeouts}, nil
}

func resolveImage(spec provider.ImageSpec) string {
	switch spec.Kind {
	case provider.ImageUbuntu:
		return fmt.Sprintf("ubuntu:%s", spec.Value)
	case provider.ImageDebian:
		return fmt.Sprintf("debian:%s", spec.Value)
	default: // Custom, Snapshot
		return spec.Value
	}
}

// ensureImage pulls img if it isn't present locally, matching docker.rs's
// ensure_image (list-then-pull, never re-pulling an already-present image).
func (p *Provider) ensureImage(ctx context.Context, img string) error {
	f := filters.NewArgs(filters.Arg("reference", img))
	images, err := p.client.ImageList(ctx, image.ListOptions{Filters: f})
	if err != nil {
		return provider.OtherError("failed to list images: %v", err)
	}
	if len(images) > 0 {
		return nil
	}

	reader, err := p.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return provider.OtherError("failed to pull image %s: %v", img, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return provider.OtherError("failed to pull image %s: %v", img, err)
	}
	return nil
}

// containerToInstance maps a Docker container state string to spuff's
// InstanceStatus, matching docker.rs's container_to_instance.
func containerToInstance(id string, state string, created int64) provider.Instance {
	var status provider.InstanceStatus
	switch state {
	case "running":
		status = provider.ActiveStatus()
	case "created":
		status = provider.NewStatus()
	case "exited", "dead":
		status = provider.OffStatus()
	case "":
		status = provider.UnknownStatus("unknown")
	default:
		status = provider.UnknownStatus(state)
	}

	createdAt := time.Now()
	if created > 0 {
		createdAt = time.Unix(created, 0)
	}

	return provider.Instance{
		ID:        id,
		IP:        net.ParseIP("127.0.0.1"),
		Status:    status,
		CreatedAt: createdAt,
	}
}

func (p *Provider) CreateInstance(ctx context.Context, cfg provider.InstanceConfig) (provider.Instance, error) {
	name := fmt.Sprintf("spuff-%s", uuid.NewString()[:8])
	img := resolveImage(cfg.Image)

	if err := p.ensureImage(ctx, img); err != nil {
		return provider.Instance{}, err
	}

	labels := map[string]string{
		"spuff":      "true",
		"managed-by": "spuff-cli",
	}
	for _, tag := range cfg.Tags {
		labels[tag] = "true"
	}

	containerCfg := &container.Config{
		Image:        img,
		Labels:       labels,
		ExposedPorts: agentExposedPorts(),
		Cmd:          []string{"sleep", "infinity"},
		Tty:          true,
	}
	hostCfg := &container.HostConfig{
		PortBindings: agentPortBindings(),
		Binds:        dockerBinds(cfg.Volumes),
	}

	created, err := p.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, name)
	if err != nil {
		return provider.Instance{}, provider.OtherError("failed to create container: %v", err)
	}

	if err := p.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return provider.Instance{}, provider.OtherError("failed to start container: %v", err)
	}

	return provider.Instance{
		ID:        created.ID,
		IP:        net.ParseIP("127.0.0.1"),
		Status:    provider.ActiveStatus(),
		CreatedAt: time.Now(),
	}, nil
}

func (p *Provider) DestroyInstance(ctx context.Context, id string) error {
	timeout := 5
	_ = p.client.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})

	err := p.client.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
	if err != nil && !isNotFound(err) {
		return provider.OtherError("failed to remove container: %v", err)
	}
	return nil
}

func (p *Provider) GetInstance(ctx context.Context, id string) (provider.Instance, bool, error) {
	info, err := p.client.ContainerInspect(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return provider.Instance{}, false, nil
		}
		return provider.Instance{}, false, provider.OtherError("failed to inspect container: %v", err)
	}

	var created int64
	if t, err := time.Parse(time.RFC3339Nano, info.Created); err == nil {
		created = t.Unix()
	}
	state := ""
	if info.State != nil {
		state = info.State.Status
	}
	return containerToInstance(info.ID, state, created), true, nil
}

func (p *Provider) ListInstances(ctx context.Context) ([]provider.Instance, error) {
	f := filters.NewArgs(filters.Arg("label", "spuff=true"))
	containers, err := p.client.ContainerList(ctx, container.ListOptions{All: true, Filters: f})
	if err != nil {
		return nil, provider.OtherError("failed to list containers: %v", err)
	}
	instances := make([]provider.Instance, 0, len(containers))
	for _, c := range containers {
		instances = append(instances, containerToInstance(c.ID, c.State, c.Created))
	}
	return instances, nil
}

// WaitReady mirrors docker.rs's comment that containers become ready
// almost instantly: it checks once rather than polling in a loop.
func (p *Provider) WaitReady(ctx context.Context, id string) (provider.Instance, error) {
	instance, ok, err := p.GetInstance(ctx, id)
	if err != nil {
		return provider.Instance{}, err
	}
	if !ok {
		return provider.Instance{}, provider.NotFoundError(fmt.Sprintf("container %s", id))
	}
	if !instance.Status.IsActive() {
		return provider.Instance{}, provider.OtherError("container not running, status: %s", instance.Status)
	}
	return instance, nil
}

// CreateSnapshot uses `docker commit` to capture the container's
// filesystem as an image tagged spuff:<name>, matching docker.rs's
// create_snapshot.
func (p *Provider) CreateSnapshot(ctx context.Context, instanceID, name string) (provider.Snapshot, error) {
	resp, err := p.client.ContainerCommit(ctx, instanceID, container.CommitOptions{
		Reference: fmt.Sprintf("spuff:%s", name),
	})
	if err != nil {
		return provider.Snapshot{}, provider.OtherError("failed to create snapshot: %v", err)
	}

	now := time.Now()
	id := resp.ID
	if id == "" {
		id = fmt.Sprintf("spuff:%s", name)
	}
	return provider.Snapshot{ID: id, Name: name, CreatedAt: &now}, nil
}

func (p *Provider) ListSnapshots(ctx context.Context) ([]provider.Snapshot, error) {
	f := filters.NewArgs(filters.Arg("reference", "spuff:*"))
	images, err := p.client.ImageList(ctx, image.ListOptions{Filters: f})
	if err != nil {
		return nil, provider.OtherError("failed to list images: %v", err)
	}

	snapshots := make([]provider.Snapshot, 0, len(images))
	for _, img := range images {
		name := "unknown"
		if len(img.RepoTags) > 0 {
			name = img.RepoTags[0]
		}
		var createdAt *time.Time
		if img.Created > 0 {
			t := time.Unix(img.Created, 0)
			createdAt = &t
		}
		snapshots = append(snapshots, provider.Snapshot{ID: img.ID, Name: name, CreatedAt: createdAt})
	}
	return snapshots, nil
}

func (p *Provider) DeleteSnapshot(ctx context.Context, id string) error {
	_, err := p.client.ImageRemove(ctx, id, image.RemoveOptions{})
	if err != nil {
		if isNotFound(err) {
			return provider.NotFoundError(fmt.Sprintf("image %s", id))
		}
		return provider.OtherError("failed to delete snapshot: %v", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return client.IsErrNotFound(err)
}
