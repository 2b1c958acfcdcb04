// Package digitalocean implements spuff's provider.Provider against the
// DigitalOcean API, using DigitalOcean's own Go SDK
// (github.com/digitalocean/godo) in place of the hand-rolled reqwest/serde
// HTTP client in original_source/src/provider/digitalocean.rs.
package digitalocean

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/digitalocean/godo"
	"golang.org/x/oauth2"

	"spuff/internal/provider"
)

const dropletTag = "spuff"

// Provider talks to the DigitalOcean API on behalf of a single account token.
type Provider struct {
	client   *godo.Client
	timeouts provider.Timeouts
}

type tokenSource struct{ token string }

func (t *tokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: t.token}, nil
}

// New builds a Provider, rejecting an empty token exactly as
// DigitalOceanProvider::new does in digitalocean.rs.
func New(token string, timeouts provider.Timeouts) (*Provider, error) {
	if token == "" {
		return nil, provider.AuthenticationError(
			"DigitalOcean API token is required. Set DIGITALOCEAN_TOKEN or configure via 'spuff init'")
	}
	oauthClient := oauth2.NewClient(context.Background(), &tokenSource{token: token})
	return &Provider{client: godo.NewClient(oauthClient), timeouts: timeouts}, nil
}

func publicIP(networks *godo.Networks) net.IP {
	if networks == nil {
		return nil
	}
	for _, n := range networks.V4 {
		if n.Type == "public" {
			return net.ParseIP(n.IPAddress)
		}
	}
	return nil
}

func dropletStatus(s string) provider.InstanceStatus {
	switch s {
	case "new":
		return provider.NewStatus()
	case "active":
		return provider.ActiveStatus()
	case "off":
		return provider.OffStatus()
	case "archive":
		return provider.ArchiveStatus()
	default:
		return provider.UnknownStatus(s)
	}
}

func dropletToInstance(d *godo.Droplet) provider.Instance {
	ip := publicIP(d.Networks)
	if ip == nil {
		ip = net.ParseIP("0.0.0.0")
	}

	createdAt, err := time.Parse(time.RFC3339, d.Created)
	if err != nil {
		createdAt = time.Now()
	}

	return provider.Instance{
		ID:        fmt.Sprintf("%d", d.ID),
		IP:        ip,
		Status:    dropletStatus(d.Status),
		CreatedAt: createdAt,
	}
}

// getSSHKeyIDs fetches the account's registered SSH key IDs, returning an
// empty list (never an error) on failure so instance creation isn't
// blocked — matching digitalocean.rs's get_ssh_key_ids contract.
func (p *Provider) getSSHKeyIDs(ctx context.Context) []godo.DropletCreateSSHKey {
	keys, _, err := p.client.Keys.List(ctx, &godo.ListOptions{})
	if err != nil {
		return nil
	}
	ids := make([]godo.DropletCreateSSHKey, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, godo.DropletCreateSSHKey{ID: k.ID})
	}
	return ids
}

func (p *Provider) CreateInstance(ctx context.Context, cfg provider.InstanceConfig) (provider.Instance, error) {
	createReq := &godo.DropletCreateRequest{
		Name:       cfg.Name,
		Region:     cfg.Region,
		Size:       cfg.Size,
		Image:      godo.DropletCreateImage{Slug: resolveImage(cfg.Image)},
		SSHKeys:    p.getSSHKeyIDs(ctx),
		UserData:   cfg.UserData,
		Tags:       append([]string{dropletTag}, cfg.Tags...),
		Monitoring: true,
	}

	droplet, _, err := p.client.Droplets.Create(ctx, createReq)
	if err != nil {
		return provider.Instance{}, provider.OtherError("failed to create droplet: %v", err)
	}

	return provider.Instance{
		ID:        fmt.Sprintf("%d", droplet.ID),
		IP:        net.ParseIP("0.0.0.0"),
		Status:    provider.NewStatus(),
		CreatedAt: time.Now(),
	}, nil
}

func resolveImage(spec provider.ImageSpec) string {
	switch spec.Kind {
	case provider.ImageUbuntu:
		return fmt.Sprintf("ubuntu-%s-x64", spec.Value)
	case provider.ImageDebian:
		return fmt.Sprintf("debian-%s-x64", spec.Value)
	default: // Custom, Snapshot — already a slug/image id
		return spec.Value
	}
}

func (p *Provider) DestroyInstance(ctx context.Context, id string) error {
	dropletID, err := dropletID(id)
	if err != nil {
		return err
	}
	resp, err := p.client.Droplets.Delete(ctx, dropletID)
	if err != nil && (resp == nil || resp.StatusCode != 404) {
		return provider.OtherError("failed to destroy droplet: %v", err)
	}
	return nil
}

func (p *Provider) GetInstance(ctx context.Context, id string) (provider.Instance, bool, error) {
	dropletID, err := dropletID(id)
	if err != nil {
		return provider.Instance{}, false, err
	}
	droplet, resp, err := p.client.Droplets.Get(ctx, dropletID)
	if resp != nil && resp.StatusCode == 404 {
		return provider.Instance{}, false, nil
	}
	if err != nil {
		return provider.Instance{}, false, provider.OtherError("failed to get droplet: %v", err)
	}
	return dropletToInstance(droplet), true, nil
}

func (p *Provider) ListInstances(ctx context.Context) ([]provider.Instance, error) {
	droplets, _, err := p.client.Droplets.ListByTag(ctx, dropletTag, &godo.ListOptions{})
	if err != nil {
		return nil, provider.OtherError("failed to list droplets: %v", err)
	}
	instances := make([]provider.Instance, 0, len(droplets))
	for i := range droplets {
		instances = append(instances, dropletToInstance(&droplets[i]))
	}
	return instances, nil
}

// WaitReady polls for the droplet to become Active with a routable IP,
// same 60-attempts-at-5-second-intervals budget as digitalocean.rs's
// wait_ready.
func (p *Provider) WaitReady(ctx context.Context, id string) (provider.Instance, error) {
	attempts := p.timeouts.ReadyMaxAttempts
	if attempts == 0 {
		attempts = provider.DefaultTimeouts().ReadyMaxAttempts
	}
	interval := p.timeouts.ReadyPollInterval
	if interval == 0 {
		interval = provider.DefaultTimeouts().ReadyPollInterval
	}

	for i := 0; i < attempts; i++ {
		instance, ok, err := p.GetInstance(ctx, id)
		if err != nil {
			return provider.Instance{}, err
		}
		if ok && instance.Status.IsActive() && instance.IP.String() != "0.0.0.0" {
			return instance, nil
		}
		select {
		case <-ctx.Done():
			return provider.Instance{}, ctx.Err()
		case <-time.After(interval):
		}
	}
	return provider.Instance{}, provider.ErrInstanceNotReady{Message: "timeout waiting for instance"}
}

func (p *Provider) CreateSnapshot(ctx context.Context, instanceID, name string) (provider.Snapshot, error) {
	dropletID, err := dropletID(instanceID)
	if err != nil {
		return provider.Snapshot{}, err
	}

	action, _, err := p.client.DropletActions.Snapshot(ctx, dropletID, name)
	if err != nil {
		return provider.Snapshot{}, provider.OtherError("failed to create snapshot: %v", err)
	}

	if err := p.waitForAction(ctx, action.ID); err != nil {
		return provider.Snapshot{}, err
	}

	snapshots, err := p.ListSnapshots(ctx)
	if err != nil {
		return provider.Snapshot{}, err
	}
	for _, s := range snapshots {
		if s.Name == name {
			return s, nil
		}
	}
	return provider.Snapshot{}, provider.OtherError("snapshot not found after creation")
}

func (p *Provider) ListSnapshots(ctx context.Context) ([]provider.Snapshot, error) {
	snapshots, _, err := p.client.Snapshots.ListDroplet(ctx, &godo.ListOptions{})
	if err != nil {
		return nil, provider.OtherError("failed to list snapshots: %v", err)
	}

	result := make([]provider.Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if !hasSpuffPrefix(s.Name) {
			continue
		}
		createdAt, err := time.Parse(time.RFC3339, s.Created)
		var createdAtPtr *time.Time
		if err == nil {
			createdAtPtr = &createdAt
		}
		sizeGB := s.SizeGigaBytes
		result = append(result, provider.Snapshot{
			ID:        s.ID,
			Name:      s.Name,
			CreatedAt: createdAtPtr,
			SizeGB:    &sizeGB,
		})
	}
	return result, nil
}

func hasSpuffPrefix(name string) bool {
	return len(name) >= len(dropletTag) && name[:len(dropletTag)] == dropletTag
}

func (p *Provider) DeleteSnapshot(ctx context.Context, id string) error {
	resp, err := p.client.Snapshots.Delete(ctx, id)
	if err != nil && (resp == nil || resp.StatusCode != 404) {
		return provider.OtherError("failed to delete snapshot: %v", err)
	}
	return nil
}

func (p *Provider) waitForAction(ctx context.Context, actionID int) error {
	attempts := p.timeouts.ActionMaxAttempts
	if attempts == 0 {
		attempts = provider.DefaultTimeouts().ActionMaxAttempts
	}
	interval := p.timeouts.ActionPollInterval
	if interval == 0 {
		interval = provider.DefaultTimeouts().ActionPollInterval
	}

	for i := 0; i < attempts; i++ {
		action, _, err := p.client.Actions.Get(ctx, actionID)
		if err == nil {
			switch action.Status {
			case "completed":
				return nil
			case "errored":
				return provider.OtherError("action failed")
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return provider.OtherError("timeout waiting for action")
}

func dropletID(id string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(id, "%d", &n); err != nil {
		return 0, provider.OtherError("invalid droplet id %q: %v", id, err)
	}
	return n, nil
}
