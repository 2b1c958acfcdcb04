package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"spuff/internal/agentclient"
	"spuff/internal/bootstrap"
	"spuff/internal/config"
	"spuff/internal/provider"
	"spuff/internal/sshcore"
	"spuff/internal/state"
	"spuff/internal/volume"
)

// ErrActiveInstanceExists is returned by Provision when the state store
// already tracks a running instance; `spuff down` must run first.
type ErrActiveInstanceExists struct {
	Instance state.Instance
}

func (e ErrActiveInstanceExists) Error() string {
	return fmt.Sprintf("active instance already exists: %s (%s). Run 'spuff down' first or 'spuff ssh' to connect", e.Instance.Name, e.Instance.IP)
}

// ProvisionOptions overrides AppConfig's defaults for a single `up` run.
type ProvisionOptions struct {
	Size      string
	Snapshot  string
	Region    string
	NoConnect bool
	AITools   string
}

// ProvisionDeps are the collaborators Provision needs, gathered by the cli
// layer so this package stays free of any direct wiring responsibility.
type ProvisionDeps struct {
	AppConfig     config.AppConfig
	ProjectConfig *config.ProjectConfig
	Registry      *provider.Registry
	Store         *state.Store
	Volumes       *volume.Manager
	ReadyTimeouts provider.Timeouts
}

// Provision runs the full `up` flow in the background, streaming progress
// on the returned channel (closed when the flow finishes, one way or
// another — success, failure, or an early exit because an instance is
// already active). Grounded on up.rs's execute/provision_instance split,
// minus the dev-mode agent cross-compile-and-upload path (no Go agent
// binary exists in this repository for it to build).
func Provision(ctx context.Context, deps ProvisionDeps, opts ProvisionOptions) <-chan Event {
	events := make(chan Event, 32)

	go func() {
		defer close(events)

		active, ok, err := deps.Store.GetActiveInstance(ctx)
		if err != nil {
			emit(events, failed(err))
			return
		}
		if ok {
			emit(events, cancelled(ErrActiveInstanceExists{Instance: active}.Error()))
			return
		}

		if err := provision(ctx, deps, opts, events); err != nil {
			emit(events, failed(err))
		}
	}()

	return events
}

// isContainerProvider reports whether cfg.Provider is the local Docker
// backend, which has no sshd, no cloud-init, and no on-box agent reachable
// the way a cloud VM's is. Mirrors the is_docker split in provision.rs.
func isContainerProvider(providerName string) bool {
	return providerName == "container" || providerName == "local"
}

func provision(ctx context.Context, deps ProvisionDeps, opts ProvisionOptions, events chan<- Event) error {
	cfg := deps.AppConfig
	isDocker := isContainerProvider(cfg.Provider)

	emit(events, setStep(StepCloudInit, StepInProgress))

	var userData string
	if isDocker {
		emit(events, setDetail("Skipping cloud-init (container provider)"))
	} else {
		emit(events, setDetail("Preparing environment configuration..."))
		var err error
		userData, err = bootstrap.Generate(cfg, deps.ProjectConfig)
		if err != nil {
			emit(events, setStep(StepCloudInit, StepFailed))
			return fmt.Errorf("failed to generate cloud-init: %w", err)
		}
	}
	emit(events, setStep(StepCloudInit, StepDone))

	emit(events, setStep(StepCreate, StepInProgress))
	emit(events, setDetail("Requesting VM from provider..."))

	instanceName := generateInstanceName()
	region := opts.Region
	if region == "" {
		region = cfg.Region
	}
	size := opts.Size
	if size == "" {
		size = cfg.Size
	}
	image := imageSpecFor(cfg.Provider, opts.Snapshot)

	prov, err := deps.Registry.CreateByName(ctx, cfg.Provider, cfg.APIToken, deps.ReadyTimeouts)
	if err != nil {
		emit(events, setStep(StepCreate, StepFailed))
		return err
	}

	spuffPublicKey, _ := sshcore.ManagedPublicKey()
	var sshKeys []string
	if spuffPublicKey != "" {
		sshKeys = append(sshKeys, spuffPublicKey)
	}

	request := provider.InstanceConfig{
		Name:     instanceName,
		Region:   region,
		Size:     size,
		Image:    image,
		SSHKeys:  sshKeys,
		UserData: userData,
		Tags:     []string{"spuff:true", "managed-by:spuff-cli"},
	}
	if isDocker {
		request.Volumes = containerVolumeMounts(deps)
	}

	instance, err := prov.CreateInstance(ctx, request)
	if err != nil {
		emit(events, setStep(StepCreate, StepFailed))
		emit(events, failed(err))
		return err
	}
	emit(events, setStep(StepCreate, StepDone))

	emit(events, setStep(StepWaitReady, StepInProgress))
	emit(events, setDetail("Waiting for VM to be assigned an IP..."))

	instance, err = prov.WaitReady(ctx, instance.ID)
	if err != nil {
		emit(events, setStep(StepWaitReady, StepFailed))
		emit(events, failed(err))
		return err
	}

	localInstance := state.Instance{
		ID:        instance.ID,
		Name:      instanceName,
		IP:        instance.IP.String(),
		Provider:  cfg.Provider,
		Region:    region,
		Size:      size,
		CreatedAt: instance.CreatedAt,
	}
	if err := deps.Store.SaveInstance(ctx, localInstance); err != nil {
		emit(events, setStep(StepWaitReady, StepFailed))
		return fmt.Errorf("failed to persist instance record: %w", err)
	}
	emit(events, setStep(StepWaitReady, StepDone))

	ip := instance.IP.String()
	var sshCfg sshcore.Config

	emit(events, setStep(StepWaitSSH, StepInProgress))
	if isDocker {
		// WaitReady above already confirmed the container is running;
		// there's no sshd to wait on.
		emit(events, setDetail("Container is running, no SSH wait needed"))
	} else {
		emit(events, setDetail(fmt.Sprintf("Waiting for SSH port on %s...", ip)))

		if err := sshcore.WaitForPort(ip, 22, 300*time.Second); err != nil {
			emit(events, setStep(StepWaitSSH, StepFailed))
			emit(events, failed(err))
			return err
		}

		emit(events, setDetail(fmt.Sprintf("Waiting for user %s...", cfg.SSHUser)))
		sshCfg = sshcore.NewConfig(cfg.SSHUser, cfg.SSHKeyPath)
		if err := sshcore.WaitForLogin(ip, sshCfg, 120*time.Second); err != nil {
			emit(events, setStep(StepWaitSSH, StepFailed))
			emit(events, failed(err))
			return err
		}
	}
	emit(events, setStep(StepWaitSSH, StepDone))

	emit(events, setStep(StepBootstrap, StepInProgress))
	if isDocker {
		emit(events, setDetail("Container ready, no bootstrap needed"))
	} else {
		emit(events, setSubSteps(StepBootstrap, []string{"Updating packages", "Installing spuff-agent"}))
		if err := waitForBootstrap(ctx, ip, sshCfg, events); err != nil {
			// Bootstrap running long or unreachable isn't fatal: the agent may
			// still come up, and `spuff status` can report on it later.
			emit(events, setDetail(fmt.Sprintf("Bootstrap wait: %v", err)))
		}
	}
	emit(events, setStep(StepBootstrap, StepDone))

	emit(events, setStep(StepMountVolumes, StepInProgress))
	if isDocker {
		// Bind mounts were already attached in the create-container
		// request above; there's no SSHFS mount to perform.
		emit(events, setDetail("Volumes attached as container bind mounts"))
	} else {
		mountProjectVolumes(ctx, deps, instanceName, ip, events)
	}
	emit(events, setStep(StepMountVolumes, StepDone))

	emit(events, setStep(StepTriggerDevtools, StepInProgress))
	if isDocker {
		// Containers have no on-box agent reachable over SSH to ask.
		emit(events, setDetail("Skipping AI tool install (no agent on container provider)"))
	} else {
		triggerDevtools(ip, sshCfg, cfg.AgentToken, opts.AITools, deps.ProjectConfig, events)
	}
	emit(events, setStep(StepTriggerDevtools, StepDone))

	emit(events, complete(instanceName, ip))
	return nil
}

// containerVolumeMounts merges AppConfig's and the project's volume
// declarations by Target (project wins a collision, same tie-break as
// mergeVolumesByTarget) and resolves each to a host-path bind for the
// container provider to attach at creation time, matching
// build_docker_volume_mounts in volumes.rs. Entries with no local Source
// (the SSHFS-only case) have nothing to bind and are skipped.
func containerVolumeMounts(deps ProvisionDeps) []provider.VolumeMount {
	merged := mergeVolumesByTarget(deps.AppConfig.Volumes, projectVolumes(deps.ProjectConfig))
	mounts := make([]provider.VolumeMount, 0, len(merged))
	for _, v := range merged {
		source := v.ResolveSource("")
		if source == "" {
			continue
		}
		mounts = append(mounts, provider.VolumeMount{Source: source, Target: v.Target, ReadOnly: v.ReadOnly})
	}
	return mounts
}

// mountProjectVolumes merges AppConfig's default volumes with the
// project's, the project entry winning a same-Target collision (up.rs's
// "last writer wins by target key" tie-break), then mounts each. Mount
// failures are reported but never fail provisioning.
func mountProjectVolumes(ctx context.Context, deps ProvisionDeps, instanceName, ip string, events chan<- Event) {
	if deps.Volumes == nil {
		return
	}

	merged := mergeVolumesByTarget(deps.AppConfig.Volumes, projectVolumes(deps.ProjectConfig))
	if len(merged) == 0 {
		return
	}

	emit(events, setDetail("Mounting volumes..."))
	_, errs := deps.Volumes.MountAll(ctx, merged, instanceName, ip, deps.AppConfig.SSHUser, deps.AppConfig.SSHKeyPath, 0)
	for _, err := range errs {
		if err != nil {
			emit(events, setDetail(fmt.Sprintf("Volume mount failed: %v", err)))
		}
	}
}

func projectVolumes(proj *config.ProjectConfig) []volume.Config {
	if proj == nil {
		return nil
	}
	return proj.Volumes
}

// mergeVolumesByTarget dedupes global and project volume lists by Target,
// with project entries replacing global ones of the same Target.
func mergeVolumesByTarget(global, project []volume.Config) []volume.Config {
	byTarget := map[string]volume.Config{}
	var order []string
	for _, v := range global {
		if _, ok := byTarget[v.Target]; !ok {
			order = append(order, v.Target)
		}
		byTarget[v.Target] = v
	}
	for _, v := range project {
		if _, ok := byTarget[v.Target]; !ok {
			order = append(order, v.Target)
		}
		byTarget[v.Target] = v
	}
	merged := make([]volume.Config, 0, len(order))
	for _, target := range order {
		merged = append(merged, byTarget[target])
	}
	return merged
}

// triggerDevtools asks the agent to begin installing the resolved set of
// AI coding tools in the background. This is advisory: a failure here is
// reported as a detail line, never fatal to provisioning, matching up.rs's
// treatment of its own dev-mode advisory steps.
func triggerDevtools(ip string, sshCfg sshcore.Config, agentToken, aiToolsFlag string, proj *config.ProjectConfig, events chan<- Event) {
	mode := aiToolsFlag
	if mode == "" && proj != nil {
		mode = proj.AITools
	}
	tools := resolveAITools(mode)
	if len(tools) == 0 {
		emit(events, setDetail("Skipping AI tool install (none requested)"))
		return
	}

	client, err := sshcore.Connect(ip, 22, sshCfg)
	if err != nil {
		emit(events, setDetail(fmt.Sprintf("Devtools trigger skipped: %v", err)))
		return
	}
	defer client.Close()

	var resp DevtoolsInstallResponse
	req := DevtoolsInstallRequest{Tools: tools}
	if err := agentclient.RequestPost(client, "/devtools/install", agentToken, req, &resp); err != nil {
		emit(events, setDetail(fmt.Sprintf("Devtools trigger skipped: %v", err)))
		return
	}
	emit(events, setDetail(fmt.Sprintf("Installing AI tools in background: %s", strings.Join(tools, ", "))))
}

func generateInstanceName() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return "spuff-" + hex.EncodeToString(buf[:])
}

func imageSpecFor(providerName, snapshot string) provider.ImageSpec {
	if snapshot != "" {
		return provider.ImageSpec{Kind: provider.ImageSnapshot, Value: snapshot}
	}
	if providerName == "aws" {
		return provider.ImageSpec{Kind: provider.ImageCustom, Value: "ami-0c55b159cbfafe1f0"}
	}
	return provider.ImageSpec{Kind: provider.ImageUbuntu, Value: "24.04"}
}

// waitForBootstrap polls /opt/spuff/bootstrap.status over SSH, reporting
// packages/agent sub-step completion as the status value advances through
// "starting" -> "installing:agent" -> "ready". This is OPEN QUESTION
// DECISION #2: the status file is the only signal read; no log file is
// grepped. The status file has no separate state for package updates, so
// the "packages" sub-step is marked done when the status first reads
// "starting" or "installing:*".
func waitForBootstrap(ctx context.Context, ip string, sshCfg sshcore.Config, events chan<- Event) error {
	const maxAttempts = 60
	const delay = 5 * time.Second

	packagesDone := false
	agentDone := false

	emit(events, setSubStep(StepBootstrap, SubPackages, StepInProgress))
	emit(events, setDetail("Updating system packages..."))

	for i := 0; i < maxAttempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		status, err := readBootstrapStatus(ip, sshCfg)
		if err == nil {
			if !packagesDone && (status == "starting" || strings.HasPrefix(status, "installing")) {
				packagesDone = true
				emit(events, setSubStep(StepBootstrap, SubPackages, StepDone))
				emit(events, setSubStep(StepBootstrap, SubAgent, StepInProgress))
				emit(events, setDetail("Installing spuff-agent..."))
			}
			if !agentDone && status == "ready" {
				agentDone = true
				emit(events, setSubStep(StepBootstrap, SubAgent, StepDone))
				emit(events, setDetail("Finalizing..."))
				return nil
			}
		}

		time.Sleep(delay)
	}

	return fmt.Errorf("timeout waiting for bootstrap to finish")
}

func readBootstrapStatus(ip string, sshCfg sshcore.Config) (string, error) {
	client, err := sshcore.Connect(ip, 22, sshCfg)
	if err != nil {
		return "", err
	}
	defer client.Close()

	out, err := client.Exec("cat /opt/spuff/bootstrap.status 2>/dev/null || echo pending")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Stdout), nil
}
