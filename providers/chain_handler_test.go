package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ipsign.app/errors"
	"ipsign.app/models"
)

type stubGeoProvider struct {
	name     string
	location *models.Location
	err      error
	calls    int
}

func (s *stubGeoProvider) Name() string { return s.name }

func (s *stubGeoProvider) Lookup(_ string) (*models.Location, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.location, nil
}

func TestGeoChain_Lookup(t *testing.T) {
	t.Run("FirstProviderWins", func(t *testing.T) {
		primary := &stubGeoProvider{name: "primary", location: &models.Location{IP: "8.8.8.8", City: "Mountain View"}}
		secondary := &stubGeoProvider{name: "secondary", location: &models.Location{IP: "8.8.8.8", City: "Somewhere"}}
		chain := NewGeoChain(primary, secondary)

		location, err := chain.Lookup("8.8.8.8")

		require.NoError(t, err)
		assert.Equal(t, "Mountain View", location.City)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 0, secondary.calls, "secondary must not be queried when primary succeeds")
	})

	t.Run("FallsBackInOrder", func(t *testing.T) {
		primary := &stubGeoProvider{name: "primary", err: errors.New("quota exhausted")}
		secondary := &stubGeoProvider{name: "secondary", location: &models.Location{IP: "8.8.8.8", City: "Shanghai"}}
		chain := NewGeoChain(primary, secondary)

		location, err := chain.Lookup("8.8.8.8")

		require.NoError(t, err)
		assert.Equal(t, "Shanghai", location.City)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("ExhaustedChainReturnsGeoLookupError", func(t *testing.T) {
		primary := &stubGeoProvider{name: "primary", err: errors.New("quota exhausted")}
		secondary := &stubGeoProvider{name: "secondary", err: errors.New("upstream down")}
		chain := NewGeoChain(primary, secondary)

		location, err := chain.Lookup("8.8.8.8")

		require.Error(t, err)
		assert.Nil(t, location)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.GeoLookupError, appErr.Type)
		assert.ErrorContains(t, err, "upstream down", "last provider error must be preserved")
	})

	t.Run("EmptyChainIsConfigurationError", func(t *testing.T) {
		chain := NewGeoChain()

		location, err := chain.Lookup("8.8.8.8")

		require.Error(t, err)
		assert.Nil(t, location)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.ConfigurationError, appErr.Type)
	})
}
