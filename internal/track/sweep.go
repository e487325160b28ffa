package track

import "go1090track/internal/modeac"

// PeriodicUpdate runs the once-per-second sweep: reap aircraft past their
// TTL, expire stale per-field validity records, and (if configured)
// cross-correlate Mode A/C contacts against Mode S aircraft. wallNowMs is
// the current wall-clock time; the sweep is a no-op if less than a second
// has elapsed since the last call.
func (t *Tracker) PeriodicUpdate(wallNowMs int64) {
	if !t.clock.ShouldSweep(wallNowMs) {
		return
	}

	removed, singleMessage := t.registry.removeStale(func(a *Aircraft) bool {
		idle := wallNowMs - a.SeenMs
		if idle > TTLMs {
			return true
		}
		if a.Messages == 1 && idle > OneHitTTLMs {
			return true
		}
		return false
	})
	_ = removed
	t.Stats.SingleMessageAircraft += int64(singleMessage)

	t.registry.forEach(func(a *Aircraft) {
		a.expireFields(wallNowMs)
	})

	if t.cfg.ModeAC {
		t.runModeACCorrelation(wallNowMs)
	}
}

func (t *Tracker) runModeACCorrelation(wallNowMs int64) {
	contacts := make([]modeac.AircraftContact, 0, t.registry.Count())
	t.registry.forEach(func(a *Aircraft) {
		contacts = append(contacts, modeac.AircraftContact{
			Address:      a.Address,
			SeenMs:       a.SeenMs,
			Squawk:       a.Squawk,
			SquawkValid:  a.V.Squawk.IsValid(wallNowMs),
			AltitudeBaro: a.AltBaro,
			AltBaroValid: a.V.AltitudeBaro.IsValid(wallNowMs),
		})
	})

	results := t.modeac.Correlate(contacts, wallNowMs)
	byAddr := make(map[uint32]modeac.MatchResult, len(results))
	for _, r := range results {
		byAddr[r.Address] = r
	}
	t.registry.forEach(func(a *Aircraft) {
		if r, ok := byAddr[a.Address]; ok {
			if r.ModeAHit {
				a.ModeAHit = true
			}
			if r.ModeCHit {
				a.ModeCHit = true
			}
		}
	})
}
