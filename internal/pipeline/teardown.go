package pipeline

import (
	"context"
	"fmt"

	"spuff/internal/agentclient"
	"spuff/internal/config"
	"spuff/internal/provider"
	"spuff/internal/sshcore"
	"spuff/internal/state"
	"spuff/internal/volume"
)

// ErrNoActiveInstance is returned by Teardown when the state store has
// nothing to tear down.
var ErrNoActiveInstance = fmt.Errorf("no active instance")

// TeardownOptions mirrors down.rs's execute() parameters.
type TeardownOptions struct {
	CreateSnapshot bool
}

// TeardownDeps are the collaborators Teardown needs.
type TeardownDeps struct {
	AppConfig     config.AppConfig
	ProjectConfig *config.ProjectConfig
	Registry      *provider.Registry
	Store         *state.Store
	Volumes       *volume.Manager
	ActionTimeout provider.Timeouts
}

// ShutdownResponse is the agent's /shutdown response, grounded on down.rs's
// ShutdownResponse/ShutdownStep.
type ShutdownResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Steps      []ShutdownStep `json:"steps"`
	DurationMs uint64         `json:"duration_ms"`
}

type ShutdownStep struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Teardown runs the full `down` flow: graceful in-VM shutdown, unmounting
// tracked volumes, an optional snapshot, then destroying the instance.
// Grounded on down.rs's execute.
func Teardown(ctx context.Context, deps TeardownDeps, opts TeardownOptions) <-chan Event {
	events := make(chan Event, 32)

	go func() {
		defer close(events)

		instance, ok, err := deps.Store.GetActiveInstance(ctx)
		if err != nil {
			emit(events, failed(err))
			return
		}
		if !ok {
			emit(events, failed(ErrNoActiveInstance))
			return
		}

		if err := teardown(ctx, deps, opts, instance, events); err != nil {
			emit(events, failed(err))
		}
	}()

	return events
}

func teardown(ctx context.Context, deps TeardownDeps, opts TeardownOptions, instance state.Instance, events chan<- Event) error {
	isContainer := instance.Provider == "container" || instance.Provider == "local"

	if isContainer {
		emit(events, setStep(StepGracefulShutdown, StepDone))
		emit(events, setDetail("Graceful shutdown skipped (container provider)"))
	} else {
		emit(events, setStep(StepGracefulShutdown, StepInProgress))
		emit(events, setDetail("Running graceful shutdown on VM..."))

		resp, err := gracefulShutdown(instance.IP, deps.AppConfig)
		if err != nil {
			emit(events, setDetail(fmt.Sprintf("Graceful shutdown skipped: %v", err)))
		} else if resp.Success {
			emit(events, setDetail(fmt.Sprintf("Graceful shutdown completed in %dms", resp.DurationMs)))
		} else {
			emit(events, setDetail("Graceful shutdown completed with warnings"))
		}
		emit(events, setStep(StepGracefulShutdown, StepDone))
	}

	if !isContainer {
		emit(events, setStep(StepUnmountVolumes, StepInProgress))
		unmountTrackedVolumes(ctx, deps, instance, events)
		emit(events, setStep(StepUnmountVolumes, StepDone))
	}

	prov, err := deps.Registry.CreateByName(ctx, instance.Provider, deps.AppConfig.APIToken, deps.ActionTimeout)
	if err != nil {
		return err
	}

	if opts.CreateSnapshot {
		emit(events, setStep(StepSnapshot, StepInProgress))
		emit(events, setDetail("Creating snapshot..."))
		snapshotName := instance.Name + "-snapshot"
		if snap, err := prov.CreateSnapshot(ctx, instance.ID, snapshotName); err != nil {
			emit(events, setDetail(fmt.Sprintf("Snapshot failed: %v", err)))
		} else {
			emit(events, setDetail(fmt.Sprintf("Snapshot: %s", snap.ID)))
		}
		emit(events, setStep(StepSnapshot, StepDone))
	}

	emit(events, setStep(StepDestroy, StepInProgress))
	emit(events, setDetail("Destroying instance..."))
	if err := prov.DestroyInstance(ctx, instance.ID); err != nil {
		emit(events, setStep(StepDestroy, StepFailed))
		return err
	}

	if err := deps.Store.RemoveInstance(ctx, instance.ID); err != nil {
		return fmt.Errorf("instance destroyed but failed to clear local state: %w", err)
	}
	emit(events, setStep(StepDestroy, StepDone))

	emit(events, complete(instance.Name, instance.IP))
	return nil
}

// unmountTrackedVolumes unmounts every volume spuff.yaml declares plus
// every mount the volume state tracks, de-duplicated by mount point,
// continuing past individual failures (matching down.rs's best-effort
// loop) so one stuck mount never blocks instance destruction.
func unmountTrackedVolumes(ctx context.Context, deps TeardownDeps, instance state.Instance, events chan<- Event) {
	if deps.Volumes == nil {
		return
	}

	mountPoints := dedupMountPoints(deps.ProjectConfig, deps.Volumes.GetMounts(), instance.Name)
	if len(mountPoints) == 0 {
		return
	}

	emit(events, setDetail("Unmounting local volumes..."))
	for _, mp := range mountPoints {
		if err := deps.Volumes.Unmount(ctx, mp); err != nil {
			emit(events, setDetail(fmt.Sprintf("Failed to unmount %s: %v", mp, err)))
			continue
		}
		emit(events, setDetail(fmt.Sprintf("Unmounted %s", mp)))
	}
	deps.Volumes.ClearStateSilent()
}

// dedupMountPoints combines the mount points spuff.yaml declares with the
// ones the volume state already tracks, de-duplicated so a volume that is
// both declared and mounted isn't unmounted twice.
func dedupMountPoints(proj *config.ProjectConfig, mounted []volume.MountHandle, instanceName string) []string {
	seen := map[string]bool{}
	var mountPoints []string

	if proj != nil {
		for _, vol := range proj.Volumes {
			mp := vol.ResolveMountPoint(instanceName, "")
			if !seen[mp] {
				seen[mp] = true
				mountPoints = append(mountPoints, mp)
			}
		}
	}
	for _, m := range mounted {
		if !seen[m.MountPoint] {
			seen[m.MountPoint] = true
			mountPoints = append(mountPoints, m.MountPoint)
		}
	}
	return mountPoints
}

func gracefulShutdown(ip string, cfg config.AppConfig) (ShutdownResponse, error) {
	client, err := sshcore.Connect(ip, 22, sshcore.NewConfig(cfg.SSHUser, cfg.SSHKeyPath))
	if err != nil {
		return ShutdownResponse{}, err
	}
	defer client.Close()

	var resp ShutdownResponse
	if err := agentclient.RequestPost(client, "/shutdown", cfg.AgentToken, struct{}{}, &resp); err != nil {
		return ShutdownResponse{}, err
	}
	return resp, nil
}
