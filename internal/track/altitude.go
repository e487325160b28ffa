package track

import (
	"math"

	"go1090track/internal/message"
	"go1090track/internal/validity"
)

// applyAltitudeBaro runs the kinematic-plausibility filter over a
// candidate barometric altitude before admitting it, per SPEC_FULL.md
// §1.4.6. It also maintains ModeCHit: crossing a 100 ft bucket boundary
// invalidates any previous Mode-C correlation.
func (t *Tracker) applyAltitudeBaro(a *Aircraft, msg *message.Message, now int64) {
	if !msg.AltitudeBaro.Valid {
		return
	}
	if validity.Source(msg.Source) < a.V.AltitudeBaro.Source && a.V.AltitudeBaro.Age(now) <= 15000 {
		return
	}
	candidate := msg.AltitudeBaro.Value
	if msg.AltitudeBaroUnitM {
		candidate = altitudeToFeet(candidate, true)
	}

	hadPrior := a.V.AltitudeBaro.Source != validity.Invalid
	current := a.AltBaro

	// Decay reliability based on staleness before evaluating this sample.
	age := a.V.AltitudeBaro.Age(now)
	if age >= 30000 {
		a.AltitudeBaroReliable = 0
	} else if age > 0 {
		decay := int(float64(a.AltitudeBaroReliable) * float64(age) / 30000.0)
		if decay > 0 {
			a.AltitudeBaroReliable -= decay
			if a.AltitudeBaroReliable < 0 {
				a.AltitudeBaroReliable = 0
			}
		}
	}

	goodCRCBonus := 0
	if msg.CRC == 0 && msg.Source != message.SourceMLAT {
		goodCRCBonus = AltitudeBaroReliableMax/2 - 1
	}

	accept := true
	if hadPrior {
		delta := candidate - current
		ageDeciseconds := float64(age) / 100.0
		fpm := delta * 60 * 10 / (ageDeciseconds + 10)

		lowEnv, highEnv := -12500.0, 12500.0
		if a.V.GeomRate.IsValid(now) && validity.Compare(a.V.GeomRate, a.V.BaroRate, now) >= 0 {
			span := 1500 + math.Min(11000, float64(a.V.GeomRate.Age(now))/2)
			lowEnv, highEnv = a.GeomRate-span, a.GeomRate+span
		} else if a.V.BaroRate.IsValid(now) {
			span := 1500 + math.Min(11000, float64(a.V.BaroRate.Age(now))/2)
			lowEnv, highEnv = a.BaroRate-span, a.BaroRate+span
		}

		withinEnvelope := fpm >= lowEnv && fpm <= highEnv
		smallDelta := math.Abs(delta) < 300

		accept = a.AltitudeBaroReliable <= 0 ||
			smallDelta ||
			withinEnvelope ||
			(goodCRCBonus > 0 && a.AltitudeBaroReliable < AltitudeBaroReliableMax/2+2)
	}

	if accept {
		if ok, _ := a.V.AltitudeBaro.Accept(validity.Source(msg.Source), now, msg.SBSIn, false); ok {
			if hadPrior && int(candidate/100) != int(current/100) {
				a.ModeCHit = false
			}
			a.AltBaro = candidate
			a.AltitudeBaroReliable += goodCRCBonus + 1
			if a.AltitudeBaroReliable > AltitudeBaroReliableMax {
				a.AltitudeBaroReliable = AltitudeBaroReliableMax
			}
		}
	} else {
		a.AltitudeBaroReliable -= goodCRCBonus + 1
		if a.AltitudeBaroReliable <= 0 {
			a.AltitudeBaroReliable = 0
			a.V.AltitudeBaro.Source = validity.Invalid
		}
	}
}

// altitudeToFeet converts meters to feet when fromMeters is true; otherwise
// it is a passthrough, matching track.c's altitude_to_feet.
func altitudeToFeet(value float64, fromMeters bool) float64 {
	if !fromMeters {
		return value
	}
	return value / 0.3048
}
