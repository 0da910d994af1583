package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipsign.app/models"
)

func TestRedisPersistence(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		mr := miniredis.RunT(t)

		persist, err := NewRedisPersistence(&RedisConfig{Addr: mr.Addr()})
		require.NoError(t, err)
		defer func() { require.NoError(t, persist.Close()) }()

		store := NewStore(persist)
		store.Set(DomainLocation, "8.8.8.8", models.Location{IP: "8.8.8.8", City: "Mountain View"})
		require.False(t, store.Degraded())

		restored := NewStore(persist)
		var cached models.Location
		require.True(t, restored.Get(DomainLocation, "8.8.8.8", &cached))
		assert.Equal(t, "Mountain View", cached.City)
	})

	t.Run("EmptyKeyLoadsEmpty", func(t *testing.T) {
		mr := miniredis.RunT(t)

		persist, err := NewRedisPersistence(&RedisConfig{Addr: mr.Addr()})
		require.NoError(t, err)
		defer func() { require.NoError(t, persist.Close()) }()

		entries, err := persist.Load()
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("UnreachableServer", func(t *testing.T) {
		persist, err := NewRedisPersistence(&RedisConfig{Addr: "localhost:1"})
		assert.Error(t, err)
		assert.Nil(t, persist)
	})

	t.Run("ServerFailureDegradesStore", func(t *testing.T) {
		mr := miniredis.RunT(t)

		persist, err := NewRedisPersistence(&RedisConfig{Addr: mr.Addr()})
		require.NoError(t, err)
		defer func() { _ = persist.Close() }()

		store := NewStore(persist)
		mr.Close()

		store.Set(DomainLocation, "8.8.8.8", models.Location{IP: "8.8.8.8"})
		assert.True(t, store.Degraded())

		// the entry is still served from memory
		var cached models.Location
		assert.True(t, store.Get(DomainLocation, "8.8.8.8", &cached))
	})
}
