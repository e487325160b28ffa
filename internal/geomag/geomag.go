// Package geomag provides the tracker's magnetic-declination lookup: the
// angle between true north and magnetic north at a given position and
// altitude, needed to resolve a magnetic-heading message field into a
// true-heading aircraft attribute.
//
// This is a first-order centered-dipole approximation of Earth's magnetic
// field, not a full World Magnetic Model implementation — no such model is
// available as a dependency anywhere in the retrieval pack (see
// DESIGN.md), and the tracker only needs declination, not field strength
// or dip, for heading resolution.
package geomag

import "math"

// Geomagnetic north pole location used by the dipole approximation
// (approximately the WMM2020 epoch north geomagnetic pole).
const (
	poleLatDeg = 80.65
	poleLonDeg = -72.68
)

// Declination returns the magnetic declination in degrees (positive east
// of true north) at the given latitude/longitude. altitudeKm is accepted
// for interface compatibility with the original call site but has a
// negligible effect on declination at aircraft cruise altitudes, so the
// dipole approximation ignores it.
func Declination(altitudeKm, lat, lon float64) float64 {
	_ = altitudeKm

	latR := lat * math.Pi / 180
	lonR := lon * math.Pi / 180
	poleLatR := poleLatDeg * math.Pi / 180
	poleLonR := poleLonDeg * math.Pi / 180

	dLon := poleLonR - lonR

	y := math.Sin(dLon) * math.Cos(poleLatR)
	x := math.Cos(latR)*math.Sin(poleLatR) - math.Sin(latR)*math.Cos(poleLatR)*math.Cos(dLon)
	bearingToPole := math.Atan2(y, x) * 180 / math.Pi

	// Declination is the signed difference between true north and the
	// bearing toward the magnetic pole.
	decl := bearingToPole
	for decl > 180 {
		decl -= 360
	}
	for decl < -180 {
		decl += 360
	}
	return decl
}
