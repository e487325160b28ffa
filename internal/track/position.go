package track

import (
	"errors"
	"math"

	"go1090track/internal/cpr"
	"go1090track/internal/geo"
	"go1090track/internal/geomag"
	"go1090track/internal/message"
	"go1090track/internal/validity"
)

const (
	nmMeters            = 1852.0
	aircraftRelativeRangeLimitM = 100 * nmMeters
	maxReceiverRangeLimitM      = 180 * nmMeters

	localRecentPositionMs = 10 * 60 * 1000
)

// updatePosition is triggered whenever a message updates one of an
// aircraft's staged CPR halves. It tries a global (paired) decode first,
// falling back to a local (single-message, reference-relative) decode.
func (t *Tracker) updatePosition(a *Aircraft, msg *message.Message, now int64, result *Result) *DecodedPosition {
	surface := msg.CPRType == message.CPRSurface

	maxElapsed := int64(10000)
	if surface {
		if a.V.GS.IsValid(now) && a.GS <= 25 {
			maxElapsed = 50000
		} else {
			maxElapsed = 25000
		}
	}

	if decoded := t.tryGlobalCPR(a, msg, now, surface, maxElapsed, result); decoded != nil {
		return decoded
	}

	return t.tryLocalCPR(a, msg, now, surface, result)
}

func (t *Tracker) tryGlobalCPR(a *Aircraft, msg *message.Message, now int64, surface bool, maxElapsed int64, result *Result) *DecodedPosition {
	even, odd := &a.CPREven, &a.CPROdd
	if even.V.Source == validity.Invalid || odd.V.Source == validity.Invalid {
		return nil
	}
	if even.Type != odd.Type {
		return nil
	}
	if even.V.Source != odd.V.Source {
		return nil
	}
	elapsed := even.V.UpdatedMs - odd.V.UpdatedMs
	if elapsed < 0 {
		elapsed = -elapsed
	}
	if elapsed > maxElapsed {
		return nil
	}

	nic := even.NIC
	if odd.NIC < nic {
		nic = odd.NIC
	}
	rc := even.Rc
	if odd.Rc > rc {
		rc = odd.Rc
	}

	var pos cpr.Position
	var err error
	if surface {
		ref := cpr.Position{Lat: a.Lat, Lon: a.Lon}
		if !a.V.Position.IsValid(now) {
			ref = cpr.Position{Lat: t.cfg.Latitude, Lon: t.cfg.Longitude}
		}
		pos, err = cpr.DecodeSurfaceGlobal(ref, even.Lat, even.Lon, odd.Lat, odd.Lon, msg.CPROdd)
	} else {
		pos, err = cpr.DecodeAirborneGlobal(even.Lat, even.Lon, odd.Lat, odd.Lon, msg.CPROdd)
	}

	if err != nil {
		if errors.Is(err, cpr.ErrImplausible) {
			t.rejectGlobalCPR(a, even, odd)
			return nil
		}
		// NoReference / ZoneCrossing: skipped, fall through to local CPR.
		t.Stats.CPRGlobalSkipped++
		return nil
	}

	if t.cfg.LatLonValid && t.cfg.MaxRangeMeters > 0 {
		if geo.GreatCircleDistance(t.cfg.Latitude, t.cfg.Longitude, pos.Lat, pos.Lon) > t.cfg.MaxRangeMeters {
			t.rejectGlobalCPR(a, even, odd)
			return nil
		}
	}

	t.Stats.CPRGlobalRangeChecks++
	if !t.speedCheck(a, msg, now, pos) {
		t.Stats.CPRGlobalSpeedChecks++
		t.rejectGlobalCPR(a, even, odd)
		return nil
	}

	if ok, req := a.V.Position.Accept(validity.Source(msg.Source), now, msg.SBSIn, false); ok {
		t.Stats.CPRGlobalOK++
		if a.PosReliableEven <= 0 || a.PosReliableOdd <= 0 {
			a.PosReliableEven = 1
			a.PosReliableOdd = 1
		} else if msg.CPROdd {
			a.PosReliableOdd = min(a.PosReliableOdd+1, t.cfg.filterPersistence())
		} else {
			a.PosReliableEven = min(a.PosReliableEven+1, t.cfg.filterPersistence())
		}
		a.GSLastPos = a.GS
		_ = req
		return t.commitPosition(a, msg, now, pos, nic, rc)
	}
	return nil
}

// rejectGlobalCPR applies the bad-CPR penalty shared by an implausible
// decode, a decode that lands outside the configured receiver range, and a
// decode that fails the speed check:
// bump the stat, decrement both reliability counters, and invalidate both
// CPR halves (and position itself, once either counter bottoms out).
func (t *Tracker) rejectGlobalCPR(a *Aircraft, even, odd *cprSlot) {
	t.Stats.CPRGlobalBad++
	a.PosReliableEven--
	a.PosReliableOdd--
	even.V.Source = validity.Invalid
	odd.V.Source = validity.Invalid
	if a.PosReliableEven <= 0 || a.PosReliableOdd <= 0 {
		a.V.Position.Source = validity.Invalid
		a.PosReliableEven = 0
		a.PosReliableOdd = 0
	}
}

func (t *Tracker) tryLocalCPR(a *Aircraft, msg *message.Message, now int64, surface bool, result *Result) *DecodedPosition {
	slot := &a.CPREven
	if msg.CPROdd {
		slot = &a.CPROdd
	}
	if slot.V.Source == validity.Invalid {
		return nil
	}

	var ref cpr.Position
	relativeTo := 0
	rangeLimit := 0.0

	if a.V.Position.IsValid(now) && now-a.V.Position.UpdatedMs <= localRecentPositionMs {
		ref = cpr.Position{Lat: a.Lat, Lon: a.Lon}
		relativeTo = 1
		rangeLimit = aircraftRelativeRangeLimitM
	} else if !surface {
		if t.cfg.MaxRangeMeters == 0 || t.cfg.MaxRangeMeters > maxReceiverRangeLimitM {
			t.Stats.CPRLocalSkipped++
			return nil
		}
		ref = cpr.Position{Lat: t.cfg.Latitude, Lon: t.cfg.Longitude}
		relativeTo = 2
		if t.cfg.MaxRangeMeters <= maxReceiverRangeLimitM {
			rangeLimit = t.cfg.MaxRangeMeters
		} else {
			rangeLimit = 360*nmMeters - t.cfg.MaxRangeMeters
		}
	} else {
		t.Stats.CPRLocalSkipped++
		return nil
	}

	pos, err := cpr.DecodeRelative(ref, slot.Lat, slot.Lon, msg.CPROdd, surface)
	if err != nil {
		t.Stats.CPRLocalSkipped++
		return nil
	}

	t.Stats.CPRLocalRangeChecks++
	dist := geo.GreatCircleDistance(ref.Lat, ref.Lon, pos.Lat, pos.Lon)
	if rangeLimit > 0 && dist > rangeLimit {
		return nil
	}

	if !t.speedCheck(a, msg, now, pos) {
		t.Stats.CPRLocalSpeedChecks++
		return nil
	}

	if ok, _ := a.V.Position.Accept(validity.Source(msg.Source), now, msg.SBSIn, false); ok {
		t.Stats.CPRLocalOK++
		if relativeTo == 1 {
			t.Stats.CPRLocalAircraftRelative++
		} else {
			t.Stats.CPRLocalReceiverRelative++
		}
		result.CPRRelative = true
		a.GSLastPos = a.GS
		nic, rc := slot.NIC, slot.Rc
		if relativeTo == 1 {
			if a.NIC < nic {
				nic = a.NIC
			}
			if a.Rc > rc {
				rc = a.Rc
			}
		}
		return t.commitPosition(a, msg, now, pos, nic, rc)
	}
	return nil
}

// speedCheck rejects a decoded position that implies an implausible
// groundspeed given elapsed time since the aircraft's last fix.
func (t *Tracker) speedCheck(a *Aircraft, msg *message.Message, now int64, pos cpr.Position) bool {
	if msg.Source == message.SourceMLAT {
		return true
	}
	if !a.V.Position.IsValid(now) {
		return true
	}

	ageS := float64(a.V.Position.Age(now)) / 1000.0

	var speed float64
	switch {
	case a.V.GS.IsValid(now):
		speed = math.Max(a.GS, a.GSLastPos) + 2*float64(a.V.GS.Age(now))/1000.0
	case a.V.TAS.IsValid(now):
		speed = a.TAS * 4.0 / 3.0
	case a.V.IAS.IsValid(now):
		speed = a.IAS * 2.0
	case a.AirGround == message.AirGroundGround:
		speed = 100
	default:
		speed = 700
	}
	speed *= 4.0 / 3.0

	surface := msg.CPRType == message.CPRSurface
	if surface {
		speed = math.Max(20, math.Min(150, speed))
	} else {
		speed = math.Max(200, speed)
	}

	allowance := 500.0
	if surface {
		allowance = 100.0
	}
	allowance += speed * 0.514444 * (ageS + 1)

	dist := geo.GreatCircleDistance(a.Lat, a.Lon, pos.Lat, pos.Lon)
	return dist <= allowance
}

func (t *Tracker) commitPosition(a *Aircraft, msg *message.Message, now int64, pos cpr.Position, nic int, rc float64) *DecodedPosition {
	a.Lat = pos.Lat
	a.Lon = pos.Lon
	a.NIC = nic
	a.Rc = rc

	if a.V.AltitudeGeom.IsValid(now) {
		a.Declination = declinationFor(a)
	}

	if a.PosReliableEven >= 1 && a.PosReliableOdd >= 1 && msg.Source == message.SourceADSB {
		dist := geo.GreatCircleDistance(t.cfg.Latitude, t.cfg.Longitude, a.Lat, a.Lon)
		bearing := geo.Bearing(t.cfg.Latitude, t.cfg.Longitude, a.Lat, a.Lon)
		a.Distance = dist
		if t.cfg.LatLonValid {
			t.Stats.updatePolarRange(dist, bearing, t.cfg.MaxRangeMeters)
		}
	}

	return &DecodedPosition{Lat: pos.Lat, Lon: pos.Lon, NIC: nic, Rc: rc}
}

// declinationFor computes magnetic declination at the aircraft's current
// position and geometric altitude (converted from feet to km).
func declinationFor(a *Aircraft) float64 {
	altKm := a.AltGeom * 0.0003048
	return geomag.Declination(altKm, a.Lat, a.Lon)
}
