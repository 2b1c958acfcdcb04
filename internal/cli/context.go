// Package cli wires spuff's internal packages into the command-line
// surface: flag parsing, dispatch, and human/JSON rendering. Grounded on
// the teacher's si/main.go + si/root_commands.go dispatch idiom and
// si/util.go's output helpers.
package cli

import (
	"context"
	"fmt"

	"spuff/internal/config"
	"spuff/internal/provider"
	"spuff/internal/provider/container"
	"spuff/internal/provider/digitalocean"
	"spuff/internal/sshcore"
	"spuff/internal/state"
	"spuff/internal/volume"
)

// appContext bundles the collaborators every command needs, loaded once
// per invocation.
type appContext struct {
	AppConfig config.AppConfig
	Registry  *provider.Registry
	Store     *state.Store
	Volumes   *volume.Manager
}

// loadContext loads AppConfig, opens the state store, and wires the
// provider registry with the implemented drivers. The registry must learn
// about digitalocean/container here rather than in internal/provider
// itself, to avoid that package importing its own driver subpackages.
func loadContext() (*appContext, error) {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		return nil, err
	}
	store, err := state.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	volumes, err := volume.NewStrict()
	if err != nil {
		volumes = volume.New()
	}
	return &appContext{
		AppConfig: cfg,
		Registry:  provider.WithDefaults(digitalocean.Factory{}, container.Factory{}),
		Store:     store,
		Volumes:   volumes,
	}, nil
}

// sshConfigFor builds the sshcore.Config spuff uses to reach every
// instance it manages: the managed key or AppConfig's configured one,
// never prompting for a host key since instances are ephemeral.
func sshConfigFor(cfg config.AppConfig) sshcore.Config {
	return sshcore.NewConfig(cfg.SSHUser, cfg.SSHKeyPath)
}

// currentProjectConfig discovers and loads spuff.yaml from the working
// directory, returning a nil pointer (not an error) when none is found.
func currentProjectConfig() (*config.ProjectConfig, error) {
	proj, found, err := config.LoadFromCwd()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &proj, nil
}

// requireActiveInstance loads the single active instance or returns
// errNoActiveInstance, this package's own error telling the user to run
// `spuff up`.
func requireActiveInstance(ctx *appContext) (state.Instance, error) {
	instance, ok, err := ctx.Store.GetActiveInstance(context.Background())
	if err != nil {
		return state.Instance{}, err
	}
	if !ok {
		return state.Instance{}, errNoActiveInstance
	}
	return instance, nil
}

var errNoActiveInstance = fmt.Errorf("no active environment. Run 'spuff up' to create one")
