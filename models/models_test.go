package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocation_Coordinates(t *testing.T) {
	t.Run("WellFormed", func(t *testing.T) {
		location := Location{Loc: "37.4056,-122.0775"}
		lat, lon := location.Coordinates()
		assert.Equal(t, "37.4056", lat)
		assert.Equal(t, "-122.0775", lon)
	})

	t.Run("WithSpaces", func(t *testing.T) {
		location := Location{Loc: "30.25, 120.17"}
		lat, lon := location.Coordinates()
		assert.Equal(t, "30.25", lat)
		assert.Equal(t, "120.17", lon)
	})

	t.Run("Sentinel", func(t *testing.T) {
		location := Location{Loc: "0,0"}
		lat, lon := location.Coordinates()
		assert.Equal(t, "0", lat)
		assert.Equal(t, "0", lon)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, loc := range []string{"", "37.4", "37.4,", ",122.1", "garbage"} {
			location := Location{Loc: loc}
			lat, lon := location.Coordinates()
			assert.Equal(t, "0", lat, loc)
			assert.Equal(t, "0", lon, loc)
		}
	})
}
