// Package cache implements the shared resolution cache: three key-value
// domains with independent expiration policies behind one store.
package cache

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"ipsign.app/metrics"
)

// Domain identifies one of the independent cache stores.
type Domain string

const (
	DomainLocation Domain = "location"
	DomainWeather  Domain = "weather"
	DomainQuote    Domain = "quote"
)

// QuoteKey is the single well-known key of the quote domain.
const QuoteKey = "current"

// DefaultTTLs returns the per-domain expiration policy. A zero duration
// means entries never expire and the domain is never swept.
func DefaultTTLs() map[Domain]time.Duration {
	return map[Domain]time.Duration{
		DomainLocation: 0,
		DomainWeather:  30 * time.Minute,
		DomainQuote:    5 * time.Minute,
	}
}

// Entry wraps a cached value with its storage timestamp.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt time.Time       `json:"storedAt"`
}

// Persistence is the durable backend for the location domain.
type Persistence interface {
	Load() (map[string]Entry, error)
	Save(entries map[string]Entry) error
}

// Store holds the three cache domains. Entry replacement is atomic per key;
// a sweep may run concurrently with reads and writes.
type Store struct {
	mu      sync.RWMutex
	domains map[Domain]map[string]Entry
	ttls    map[Domain]time.Duration
	persist Persistence
	// persistMu serializes location snapshot writes so they reach the
	// backend in the same order the entries were stored.
	persistMu sync.Mutex
	// degraded flips once on the first persistence failure and is never
	// reset within the process lifetime.
	degraded atomic.Bool
	metrics  map[Domain]*metrics.CacheMetrics
	now      func() time.Time
}

// NewStore creates a store with the default TTL policy. If persist is
// non-nil, the location domain is loaded from it and written back on
// every location set.
func NewStore(persist Persistence) *Store {
	return NewStoreWithTTLs(persist, DefaultTTLs())
}

// NewStoreWithTTLs creates a store with an explicit TTL policy.
func NewStoreWithTTLs(persist Persistence, ttls map[Domain]time.Duration) *Store {
	s := &Store{
		domains: make(map[Domain]map[string]Entry, len(ttls)),
		ttls:    ttls,
		persist: persist,
		metrics: make(map[Domain]*metrics.CacheMetrics, len(ttls)),
		now:     time.Now,
	}
	for domain := range ttls {
		s.domains[domain] = make(map[string]Entry)
		s.metrics[domain] = metrics.NewCacheMetrics(string(domain))
	}

	if persist != nil {
		entries, err := persist.Load()
		if err != nil {
			slog.Warn("load persisted location cache", "error", err)
		} else if len(entries) > 0 {
			s.domains[DomainLocation] = entries
			slog.Info("loaded persisted location cache", "entries", len(entries))
		}
	}

	return s
}

// Get looks up key in the given domain and unmarshals the cached value into
// dest. Expiry is checked lazily: an expired entry is reported as a miss but
// left in place for SweepExpired to remove.
func (s *Store) Get(domain Domain, key string, dest any) bool {
	start := time.Now()
	defer s.observeLatency(domain, "get", start)

	s.mu.RLock()
	entry, exists := s.domains[domain][key]
	ttl := s.ttls[domain]
	s.mu.RUnlock()

	if !exists || (ttl > 0 && s.now().Sub(entry.StoredAt) >= ttl) {
		s.recordMiss(domain)
		return false
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		slog.Error("unmarshal cache entry", "domain", domain, "key", key, "error", err)
		s.recordMiss(domain)
		return false
	}

	s.recordHit(domain)
	return true
}

// Set stores value under key in the given domain. A set on the location
// domain also persists the full domain contents; a persistence failure is
// logged and downgrades the store to memory-only for the rest of the
// process lifetime.
func (s *Store) Set(domain Domain, key string, value any) {
	start := time.Now()
	defer s.observeLatency(domain, "set", start)

	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("marshal cache entry", "domain", domain, "key", key, "error", err)
		return
	}

	entry := Entry{Data: data, StoredAt: s.now()}
	if domain == DomainLocation && s.persist != nil && !s.degraded.Load() {
		s.setAndPersist(key, entry)
		return
	}

	s.mu.Lock()
	s.domains[domain][key] = entry
	s.mu.Unlock()
}

// setAndPersist stores a location entry and writes the domain snapshot to the
// persistence backend. persistMu is held across both steps so a later entry
// can never be overwritten on disk by an earlier snapshot.
func (s *Store) setAndPersist(key string, entry Entry) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.domains[DomainLocation][key] = entry
	snapshot := make(map[string]Entry, len(s.domains[DomainLocation]))
	for k, v := range s.domains[DomainLocation] {
		snapshot[k] = v
	}
	s.mu.Unlock()

	if err := s.persist.Save(snapshot); err != nil {
		slog.Error("persist location cache failed, continuing memory-only", "error", err)
		s.degraded.Store(true)
	}
}

// SweepExpired removes every expired entry from the expiring domains and
// returns how many were removed. The non-expiring location domain is never swept.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for domain, ttl := range s.ttls {
		if ttl <= 0 {
			continue
		}
		for key, entry := range s.domains[domain] {
			if now.Sub(entry.StoredAt) >= ttl {
				delete(s.domains[domain], key)
				removed++
			}
		}
	}

	if removed > 0 {
		slog.Debug("swept expired cache entries", "removed", removed)
	}
	return removed
}

// Degraded reports whether the store has fallen back to memory-only mode.
func (s *Store) Degraded() bool {
	return s.degraded.Load()
}

// Len returns the number of entries in a domain, expired ones included.
func (s *Store) Len(domain Domain) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.domains[domain])
}

func (s *Store) recordHit(domain Domain) {
	if m, ok := s.metrics[domain]; ok {
		m.RecordHit()
	}
}

func (s *Store) recordMiss(domain Domain) {
	if m, ok := s.metrics[domain]; ok {
		m.RecordMiss()
	}
}

func (s *Store) observeLatency(domain Domain, operation string, start time.Time) {
	if m, ok := s.metrics[domain]; ok {
		m.ObserveLatency(operation, time.Since(start))
	}
}
