package service

import (
	"log/slog"
	"strings"

	"ipsign.app/cache"
	"ipsign.app/models"
	"ipsign.app/providers"
)

// GeoService resolves a client address to a best-effort location. The only
// errors it returns are the fatal no-provider configuration case and the
// fallback-exhausted case where every configured provider failed.
type GeoService struct {
	store           *cache.Store
	chain           providers.GeoResolver
	publicIP        providers.PublicIPProvider
	resolvePublicIP bool
}

func NewGeoService(store *cache.Store, chain providers.GeoResolver) *GeoService {
	return &GeoService{
		store: store,
		chain: chain,
	}
}

// WithPublicIPResolution enables replacing local/private client addresses
// with the host's public address before lookup.
func (s *GeoService) WithPublicIPResolution(provider providers.PublicIPProvider) *GeoService {
	s.publicIP = provider
	s.resolvePublicIP = provider != nil
	return s
}

// Resolve returns the location for ip, consulting the cache first.
func (s *GeoService) Resolve(ip string) (*models.Location, error) {
	var cached models.Location
	if s.store.Get(cache.DomainLocation, ip, &cached) {
		slog.Debug("location cache hit", "ip", ip)
		return &cached, nil
	}

	if s.resolvePublicIP && IsLocalIP(ip) {
		if publicIP, err := s.publicIP.PublicIP(); err == nil {
			slog.Info("replaced local address with public address", "local", ip, "public", publicIP)
			return s.Resolve(publicIP)
		} else {
			slog.Warn("public IP lookup failed, keeping local address", "error", err)
		}
	}

	if IsLoopback(ip) {
		location := localhostLocation()
		s.store.Set(cache.DomainLocation, ip, location)
		return location, nil
	}

	location, err := s.chain.Lookup(ip)
	if err != nil {
		return nil, err
	}

	s.store.Set(cache.DomainLocation, ip, location)
	return location, nil
}

// localhostLocation is the synthetic record returned for loopback clients.
func localhostLocation() *models.Location {
	return &models.Location{
		IP:       "127.0.0.1",
		City:     "Localhost",
		Region:   "Development",
		Country:  "Local",
		Loc:      "0,0",
		Timezone: "UTC",
	}
}

// IsLoopback reports whether ip is a loopback literal.
func IsLoopback(ip string) bool {
	switch ip {
	case "127.0.0.1", "::1", "::ffff:127.0.0.1", "localhost":
		return true
	}
	return false
}

// IsLocalIP reports whether ip is loopback or in a private range.
func IsLocalIP(ip string) bool {
	if IsLoopback(ip) {
		return true
	}
	return strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "10.") ||
		strings.HasPrefix(ip, "172.16.")
}
