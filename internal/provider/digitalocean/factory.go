package digitalocean

import "spuff/internal/provider"

// Factory builds DigitalOcean Providers from an account API token.
type Factory struct{}

func (Factory) ProviderType() provider.Type { return provider.TypeDigitalOcean }

func (Factory) Create(token string, timeouts provider.Timeouts) (provider.Provider, error) {
	return New(token, timeouts)
}

func (Factory) IsImplemented() bool { return true }
