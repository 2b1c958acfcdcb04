package container

import "spuff/internal/provider"

// Factory builds container Providers. Docker needs no API token — it talks
// to the local socket — matching docker.rs's DockerFactory, which ignores
// the token argument entirely.
type Factory struct{}

func (Factory) ProviderType() provider.Type { return provider.TypeContainer }

func (Factory) Create(_ string, timeouts provider.Timeouts) (provider.Provider, error) {
	return New(timeouts)
}

func (Factory) IsImplemented() bool { return true }
