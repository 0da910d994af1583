package providers

import (
	"log/slog"

	"ipsign.app/errors"
	"ipsign.app/models"
)

// GeoChain tries an ordered list of configured geolocation providers until
// one succeeds. An empty chain is a configuration error; exhausting the
// chain propagates the last provider error.
type GeoChain struct {
	providers []GeoProvider
}

func NewGeoChain(providers ...GeoProvider) *GeoChain {
	return &GeoChain{providers: providers}
}

// Lookup resolves ip through the chain in priority order.
func (c *GeoChain) Lookup(ip string) (*models.Location, error) {
	if len(c.providers) == 0 {
		return nil, errors.NewConfigurationError("no geolocation providers configured", nil)
	}

	var lastErr error
	for _, provider := range c.providers {
		location, err := provider.Lookup(ip)
		if err == nil {
			slog.Debug("geolocation resolved", "provider", provider.Name(), "ip", ip)
			return location, nil
		}

		slog.Info("geolocation provider failed", "provider", provider.Name(), "ip", ip, "error", err)
		lastErr = err
	}

	return nil, errors.NewGeoLookupError("all geolocation providers failed", lastErr)
}

// Providers returns the providers in priority order.
func (c *GeoChain) Providers() []GeoProvider {
	return c.providers
}
