package cpr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encode mirrors the standard CPR encoder (the inverse of the decode math
// this package implements) so tests can round-trip known positions instead
// of hand-computing 17-bit CPR frames.
func encode(lat, lon, span float64, odd bool) (int, int) {
	dlat := span / (4*nz - boolFloat(odd))
	yz := math.Floor(131072*cprMod(lat, dlat)/dlat + 0.5)
	yz = cprMod(yz, 131072)
	rlat := dlat * (yz/131072 + math.Floor(lat/dlat))

	nl := cprNL(rlat)
	ni := nl - boolFloat(odd)
	if ni < 1 {
		ni = 1
	}
	dlon := span / ni
	xz := math.Floor(131072*cprMod(lon, dlon)/dlon + 0.5)
	xz = cprMod(xz, 131072)

	return int(yz), int(xz)
}

func TestDecodeAirborneGlobalRoundTrip(t *testing.T) {
	const lat, lon = 52.2572, 3.91937

	evenLat, evenLon := encode(lat, lon, 360, false)
	oddLat, oddLon := encode(lat, lon, 360, true)

	pos, err := DecodeAirborneGlobal(evenLat, evenLon, oddLat, oddLon, true)
	require.NoError(t, err)
	assert.InDelta(t, lat, pos.Lat, 0.01)
	assert.InDelta(t, lon, pos.Lon, 0.01)

	pos, err = DecodeAirborneGlobal(evenLat, evenLon, oddLat, oddLon, false)
	require.NoError(t, err)
	assert.InDelta(t, lat, pos.Lat, 0.01)
	assert.InDelta(t, lon, pos.Lon, 0.01)
}

func TestDecodeAirborneGlobalKnownVector(t *testing.T) {
	// The textbook even/odd pair widely quoted in ADS-B CPR write-ups.
	pos, err := DecodeAirborneGlobal(93000, 51372, 74158, 50194, false)
	require.NoError(t, err)
	assert.InDelta(t, 52.25720, pos.Lat, 0.001)
	assert.InDelta(t, 3.91937, pos.Lon, 0.001)
}

func TestDecodeSurfaceGlobalRoundTrip(t *testing.T) {
	const lat, lon = 51.990, 4.375
	ref := Position{Lat: lat, Lon: lon}

	evenLat, evenLon := encode(lat, lon, 90, false)
	oddLat, oddLon := encode(lat, lon, 90, true)

	pos, err := DecodeSurfaceGlobal(ref, evenLat, evenLon, oddLat, oddLon, true)
	require.NoError(t, err)
	assert.InDelta(t, lat, pos.Lat, 0.01)
	assert.InDelta(t, lon, pos.Lon, 0.01)
}

func TestDecodeSurfaceGlobalRequiresReference(t *testing.T) {
	_, err := DecodeSurfaceGlobal(Position{}, 0, 0, 0, 0, false)
	assert.True(t, errors.Is(err, ErrNoReference))
}

func TestDecodeRelativeRoundTrip(t *testing.T) {
	const lat, lon = 52.2572, 3.91937
	ref := Position{Lat: 52.25, Lon: 3.90}

	cprLat, cprLon := encode(lat, lon, 360, false)
	pos, err := DecodeRelative(ref, cprLat, cprLon, false, false)
	require.NoError(t, err)
	assert.InDelta(t, lat, pos.Lat, 0.01)
	assert.InDelta(t, lon, pos.Lon, 0.01)
}

func TestDecodeRelativeSurfaceSpan(t *testing.T) {
	const lat, lon = 51.990, 4.375
	ref := Position{Lat: 51.98, Lon: 4.37}

	cprLat, cprLon := encode(lat, lon, 90, true)
	pos, err := DecodeRelative(ref, cprLat, cprLon, true, true)
	require.NoError(t, err)
	assert.InDelta(t, lat, pos.Lat, 0.01)
	assert.InDelta(t, lon, pos.Lon, 0.01)
}

func TestDecodeRelativeRequiresReference(t *testing.T) {
	_, err := DecodeRelative(Position{}, 0, 0, false, false)
	assert.True(t, errors.Is(err, ErrNoReference))
}

func TestCPRNLTableMonotonic(t *testing.T) {
	prev := cprNL(0)
	for lat := 1.0; lat < 87; lat++ {
		nl := cprNL(lat)
		assert.LessOrEqual(t, nl, prev)
		prev = nl
	}
	assert.Equal(t, float64(2), cprNL(87))
	assert.Equal(t, float64(2), cprNL(-87))
	assert.Equal(t, float64(59), cprNL(0))
}
