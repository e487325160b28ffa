package track

import "math"

// PolarRangeBuckets is the number of bearing buckets the polar-range
// statistic tracks; resolution is 360/PolarRangeBuckets degrees per bucket.
const PolarRangeBuckets = 720

const PolarRangeResolution = 360.0 / PolarRangeBuckets

// Stats accumulates increment-only counters describing the tracker's
// ingest activity, for diagnostics and display.
type Stats struct {
	UniqueAircraft       int64
	SingleMessageAircraft int64

	CPRSurface  int64
	CPRAirborne int64

	CPRGlobalOK          int64
	CPRGlobalBad         int64
	CPRGlobalSkipped     int64
	CPRGlobalRangeChecks int64
	CPRGlobalSpeedChecks int64

	CPRLocalOK                 int64
	CPRLocalSkipped            int64
	CPRLocalRangeChecks        int64
	CPRLocalSpeedChecks        int64
	CPRLocalAircraftRelative   int64
	CPRLocalReceiverRelative   int64

	LongestDistanceMeters float64
	PolarRange             [PolarRangeBuckets]float64
	// PolarRangeOverflow counts bearing-bucket computations that landed
	// outside [0, PolarRangeBuckets) instead of being silently folded into
	// bucket 0, per the applied REDESIGN FLAGS decision (see DESIGN.md).
	PolarRangeOverflow int64
}

// updatePolarRange records a new distance/bearing observation, subject to
// maxRangeMeters (0 = unlimited).
func (s *Stats) updatePolarRange(distanceMeters, bearingDeg, maxRangeMeters float64) {
	if maxRangeMeters > 0 && distanceMeters > maxRangeMeters {
		return
	}
	if distanceMeters > s.LongestDistanceMeters {
		s.LongestDistanceMeters = distanceMeters
	}
	bucket := int(math.Round(bearingDeg / PolarRangeResolution))
	if bucket < 0 || bucket >= PolarRangeBuckets {
		s.PolarRangeOverflow++
		return
	}
	if distanceMeters > s.PolarRange[bucket] {
		s.PolarRange[bucket] = distanceMeters
	}
}
