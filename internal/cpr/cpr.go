// Package cpr decodes Compact Position Reports: the 17-bit even/odd
// latitude/longitude encoding ADS-B and TIS-B use to transmit aircraft
// position without sending full-precision coordinates on every message.
//
// Three decode modes are provided: global airborne (a paired even/odd
// message decode with no reference position needed), global surface (the
// paired decode plus a reference position to disambiguate among four
// possible quadrants), and relative/local (a single message decoded
// against a nearby reference position).
package cpr

import (
	"errors"
	"math"
)

// Decode errors. Callers branch on these with errors.Is.
var (
	ErrNoReference   = errors.New("cpr: no reference position available")
	ErrZoneCrossing  = errors.New("cpr: even/odd latitude zone mismatch")
	ErrImplausible   = errors.New("cpr: decoded position implausible")
)

const (
	airborneZones = 15
	surfaceZones  = 15
	nz            = 15.0
)

// Position is a decoded geographic point.
type Position struct {
	Lat float64
	Lon float64
}

func cprMod(a, b float64) float64 {
	res := math.Mod(a, b)
	if res < 0 {
		res += b
	}
	return res
}

// nlTable is the number-of-longitude-zones lookup, indexed by latitude.
// This is the standard CPR NL table of 58 latitude bounds; a latitude below
// entry i (and not below entry i-1) has NL 59-i.
var nlTable = []float64{
	10.47047130, 14.82817437, 18.18626357, 21.02939493,
	23.54504487, 25.82924707, 27.93898710, 29.91135686,
	31.77209708, 33.53993436, 35.22899598, 36.85025108,
	38.41241892, 39.92256684, 41.38651832, 42.80914012,
	44.19454951, 45.54626723, 46.86733252, 48.16039128,
	49.42776439, 50.67150166, 51.89342469, 53.09516153,
	54.27817472, 55.44378444, 56.59318756, 57.72747354,
	58.84763776, 59.95459277, 61.04917774, 62.13216659,
	63.20427479, 64.26616523, 65.31845310, 66.36171008,
	67.39646774, 68.42322022, 69.44242631, 70.45451075,
	71.45986473, 72.45884545, 73.45177442, 74.43893416,
	75.42056257, 76.39684391, 77.36789461, 78.33374083,
	79.29428225, 80.24923213, 81.19801349, 82.13956981,
	83.07199445, 83.99173563, 84.89166191, 85.75541621,
	86.53536998, 87.00000000,
}

func cprNL(lat float64) float64 {
	lat = math.Abs(lat)
	if lat < 1e-9 {
		return 59
	}
	if lat >= 87 {
		return 2
	}
	if lat <= -87 {
		return 2
	}
	for i, b := range nlTable {
		if lat < b {
			return float64(59 - i)
		}
	}
	return 1
}

func cprN(lat float64, odd bool) float64 {
	nl := cprNL(lat)
	if odd {
		nl--
	}
	if nl < 1 {
		nl = 1
	}
	return nl
}

func cprDlon(lat float64, odd bool) float64 {
	return 360.0 / cprN(lat, odd)
}

// DecodeAirborneGlobal decodes a paired even/odd airborne CPR message using
// the frame of the message with parity useOdd (the most recent one). The
// even/odd inputs are the raw 17-bit encodings as received.
func DecodeAirborneGlobal(evenLat, evenLon, oddLat, oddLon int, useOdd bool) (Position, error) {
	dLatEven := 360.0 / (4*nz - 0)
	dLatOdd := 360.0 / (4*nz - 1)

	latCprEven := float64(evenLat) / 131072.0
	lonCprEven := float64(evenLon) / 131072.0
	latCprOdd := float64(oddLat) / 131072.0
	lonCprOdd := float64(oddLon) / 131072.0

	j := math.Floor(59*latCprEven - 60*latCprOdd + 0.5)

	rlatEven := dLatEven * (cprMod(j, 60) + latCprEven)
	rlatOdd := dLatOdd * (cprMod(j, 59) + latCprOdd)

	if rlatEven >= 270 {
		rlatEven -= 360
	}
	if rlatOdd >= 270 {
		rlatOdd -= 360
	}

	nlEven := cprNL(rlatEven)
	nlOdd := cprNL(rlatOdd)
	if nlEven != nlOdd {
		return Position{}, ErrZoneCrossing
	}

	var lat float64
	var ni float64
	var m float64
	var lonCpr float64
	if useOdd {
		lat = rlatOdd
		ni = cprN(rlatOdd, true)
		m = math.Floor(lonCprEven*(nlOdd-1) - lonCprOdd*nlOdd + 0.5)
		lonCpr = lonCprOdd
	} else {
		lat = rlatEven
		ni = cprN(rlatEven, false)
		m = math.Floor(lonCprEven*(nlOdd-1) - lonCprOdd*nlOdd + 0.5)
		lonCpr = lonCprEven
	}

	dLon := 360.0 / ni
	lon := dLon * (cprMod(m, ni) + lonCpr)
	if lon > 180 {
		lon -= 360
	}

	if lat > 90 || lat < -90 {
		return Position{}, ErrImplausible
	}

	return Position{Lat: lat, Lon: lon}, nil
}

// DecodeSurfaceGlobal decodes a paired even/odd surface CPR message. Surface
// CPR resolves to one of four quadrants; ref picks the quadrant nearest it.
func DecodeSurfaceGlobal(ref Position, evenLat, evenLon, oddLat, oddLon int, useOdd bool) (Position, error) {
	if ref == (Position{}) {
		return Position{}, ErrNoReference
	}

	dLatEven := 90.0 / (4*nz - 0)
	dLatOdd := 90.0 / (4*nz - 1)

	latCprEven := float64(evenLat) / 131072.0
	lonCprEven := float64(evenLon) / 131072.0
	latCprOdd := float64(oddLat) / 131072.0
	lonCprOdd := float64(oddLon) / 131072.0

	j := math.Floor(59*latCprEven - 60*latCprOdd + 0.5)

	rlatEven := dLatEven * (cprMod(j, 60) + latCprEven)
	rlatOdd := dLatOdd * (cprMod(j, 59) + latCprOdd)

	// Surface CPR only spans 90 degrees of latitude; pick the quadrant
	// closest to the reference.
	rlatEven = nearestQuadrantLat(rlatEven, ref.Lat)
	rlatOdd = nearestQuadrantLat(rlatOdd, ref.Lat)

	nlEven := cprNL(rlatEven)
	nlOdd := cprNL(rlatOdd)
	if nlEven != nlOdd {
		return Position{}, ErrZoneCrossing
	}

	var lat float64
	var ni float64
	var lonCpr float64
	if useOdd {
		lat = rlatOdd
		ni = cprN(rlatOdd, true)
		lonCpr = lonCprOdd
	} else {
		lat = rlatEven
		ni = cprN(rlatEven, false)
		lonCpr = lonCprEven
	}

	dLon := 90.0 / ni
	m := math.Floor(lonCprEven*(nlOdd-1)-lonCprOdd*nlOdd+0.5) / 1.0
	lon := dLon * (cprMod(m, ni) + lonCpr)
	lon = nearestQuadrantLon(lon, ref.Lon)

	if lat > 90 || lat < -90 {
		return Position{}, ErrImplausible
	}

	return Position{Lat: lat, Lon: lon}, nil
}

func nearestQuadrantLat(lat, refLat float64) float64 {
	best := lat
	bestDiff := math.Abs(lat - refLat)
	for _, cand := range []float64{lat - 90} {
		if d := math.Abs(cand - refLat); d < bestDiff {
			best, bestDiff = cand, d
		}
	}
	return best
}

func nearestQuadrantLon(lon, refLon float64) float64 {
	best := lon
	bestDiff := math.Abs(lon - refLon)
	for _, cand := range []float64{lon + 90, lon + 180, lon + 270} {
		if cand > 180 {
			cand -= 360
		}
		if d := math.Abs(cand - refLon); d < bestDiff {
			best, bestDiff = cand, d
		}
	}
	return best
}

// DecodeRelative decodes a single CPR-encoded message against a nearby
// reference position. surface selects the 90-degree-span surface table
// instead of the 360-degree airborne one.
func DecodeRelative(ref Position, cprLat, cprLon int, odd bool, surface bool) (Position, error) {
	if ref == (Position{}) {
		return Position{}, ErrNoReference
	}

	span := 360.0
	if surface {
		span = 90.0
	}

	dLat := span / (4*nz - boolFloat(odd))
	latCpr := float64(cprLat) / 131072.0
	lonCpr := float64(cprLon) / 131072.0

	j := math.Floor(ref.Lat/dLat) + math.Floor(0.5+cprMod(ref.Lat, dLat)/dLat-latCpr)
	lat := dLat * (j + latCpr)

	nl := cprNL(lat)
	ni := nl - boolFloat(odd)
	if ni < 1 {
		ni = 1
	}
	dLon := span / ni

	m := math.Floor(ref.Lon/dLon) + math.Floor(0.5+cprMod(ref.Lon, dLon)/dLon-lonCpr)
	lon := dLon * (m + lonCpr)

	if lat > 90 || lat < -90 {
		return Position{}, ErrImplausible
	}
	if lon > 180 {
		lon -= 360
	}
	if lon < -180 {
		lon += 360
	}

	return Position{Lat: lat, Lon: lon}, nil
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
