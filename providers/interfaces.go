package providers

import "ipsign.app/models"

// GeoProvider defines the interface for IP geolocation upstreams.
// A provider fails only on transport or non-2xx errors; missing response
// fields are defaulted, never treated as failures.
type GeoProvider interface {
	Lookup(ip string) (*models.Location, error)
	Name() string
}

// GeoResolver is the lookup surface exposed by the provider chain.
type GeoResolver interface {
	Lookup(ip string) (*models.Location, error)
}

// WeatherProvider defines the interface for weather-by-coordinates upstreams
type WeatherProvider interface {
	CurrentConditions(lat, lon string) (*models.WeatherConditions, error)
}

// QuoteProvider defines the interface for quote upstreams
type QuoteProvider interface {
	FetchQuote() (string, error)
}

// PublicIPProvider resolves the host's own public address, used when a
// local client address should be replaced before geolocation.
type PublicIPProvider interface {
	PublicIP() (string, error)
}
