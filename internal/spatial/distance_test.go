package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKmKnownRoute(t *testing.T) {
	// Sao Paulo to Rio de Janeiro, roughly 360 km.
	d := HaversineKm(-23.5505, -46.6333, -22.9068, -43.1729)
	assert.InDelta(t, 360.0, d, 5.0)
}

func TestHaversineKmSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{-23.55, -46.63, -22.90, -43.17},
		{0, 0, 51.5, -0.12},
		{89.9, 10, -89.9, -170},
	}
	for _, p := range pairs {
		ab := HaversineKm(p[0], p[1], p[2], p[3])
		ba := HaversineKm(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestHaversineKmIdenticalPoints(t *testing.T) {
	assert.InDelta(t, 0.0, HaversineKm(0, 0, 0, 0), 1e-9)
	assert.InDelta(t, 0.0, HaversineKm(-23.1, -46.1, -23.1, -46.1), 1e-9)
}

func TestHaversineKmPropagatesNaN(t *testing.T) {
	assert.True(t, math.IsNaN(HaversineKm(math.NaN(), -46, -22, -43)))
	assert.True(t, math.IsNaN(HaversineKm(-23, -46, -22, math.NaN())))
}

func TestHaversineKmAgreesWithS2(t *testing.T) {
	// The pure formula and the s2 geometry path must agree on a sphere of
	// the same radius.
	km := HaversineKm(-23.5505, -46.6333, -22.9068, -43.1729)
	s2Km := HaversineDistance(-23.5505, -46.6333, -22.9068, -43.1729) / 1000
	assert.InDelta(t, km, s2Km, 0.5)
}

func TestValidLatLng(t *testing.T) {
	assert.True(t, ValidLatLng(0, 0))
	assert.True(t, ValidLatLng(-90, 180))
	assert.False(t, ValidLatLng(95, 0))
	assert.False(t, ValidLatLng(0, 181))
	assert.False(t, ValidLatLng(math.NaN(), 0))
}
