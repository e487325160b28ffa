// Package modeac implements the Mode A/C-to-Mode-S correlation pass: a
// parallel side table that lets the tracker notice when an unidentified
// Mode A/C contact is actually one of the Mode S aircraft already being
// tracked, by matching squawk and (rounded) altitude. Gillham/Gray-code
// decoding itself happens upstream in internal/frame; this package only
// indexes the already-decoded values.
package modeac

const (
	// Slots is the number of Mode A/C squawk code indices (4096 octal
	// codes, 0000-7777).
	Slots = 4096

	// MinMatches is the minimum number of Mode A/C hits within a
	// correlation pass required before a match is accepted.
	MinMatches = 4

	// unmatchedSlot marks "no aircraft claims this slot yet"; collisionSlot
	// marks "more than one aircraft claims this slot".
	unmatchedSlot = 0
	collisionSlot = 0xFFFFFFFF

	silentClearPasses = 15
	recentSeenMs      = 5000
)

// ModeAToIndex converts a Mode A squawk, already Gillham-decoded into a
// 4-digit octal number (0000-7777) by internal/frame, into a dense index
// in [0, Slots) for the correlation table.
func ModeAToIndex(squawkOctal int) int {
	return squawkOctal & 0xFFF
}

// ModeCToModeA converts a Mode C (pressure altitude in 100-ft increments,
// already Gray-code decoded upstream) into a dense index in the same slot
// space CountSquawk uses, for the +-1 neighbor comparison the correlation
// pass needs. This is a re-basing, not a reconstruction of the Gillham
// altitude code space, so it rejects only out-of-range inputs.
func ModeCToModeA(modeC int) (int, bool) {
	if modeC < -12 || modeC > 1270 {
		return 0, false
	}
	idx := (modeC + 12) & 0xFFF
	return idx, true
}

// Table holds the four parallel arrays the correlation pass needs.
type Table struct {
	count     [Slots]int
	lastCount [Slots]int
	match     [Slots]uint32
	age       [Slots]int
}

// NewTable returns an empty correlation table.
func NewTable() *Table {
	return &Table{}
}

// CountSquawk increments the live hit counter for a Mode A/C message
// carrying the given (already Gillham-decoded) octal squawk.
func (t *Table) CountSquawk(squawkOctal int) {
	t.count[ModeAToIndex(squawkOctal)]++
}

// AircraftContact is the minimal view of a Mode S aircraft the correlation
// pass needs.
type AircraftContact struct {
	Address       uint32
	SeenMs        int64
	Squawk        int
	SquawkValid   bool
	AltitudeBaro  float64
	AltBaroValid  bool
}

// MatchResult reports, per aircraft, whether it matched on squawk and/or
// altitude this pass.
type MatchResult struct {
	Address  uint32
	ModeAHit bool
	ModeCHit bool
}

// Correlate runs one correlation pass: it clears the match table, tallies
// this pass's counts against the last pass's, and for each aircraft seen
// recently checks for a Mode A match (by squawk) and a Mode C match (by
// rounded altitude, checking the altitude bucket and its two neighbors).
// nowMs is wall-clock time in milliseconds.
func (t *Table) Correlate(aircraft []AircraftContact, nowMs int64) []MatchResult {
	for i := range t.match {
		t.match[i] = unmatchedSlot
	}

	results := make([]MatchResult, 0, len(aircraft))
	for _, ac := range aircraft {
		res := MatchResult{Address: ac.Address}
		if nowMs-ac.SeenMs <= recentSeenMs {
			if ac.SquawkValid {
				idx := ModeAToIndex(ac.Squawk)
				if t.count[idx]-t.lastCount[idx] >= MinMatches {
					res.ModeAHit = true
					t.claim(idx, ac.Address)
				}
			}
			if ac.AltBaroValid {
				modeC := int((ac.AltitudeBaro + 49) / 100)
				for _, cand := range []int{modeC, modeC - 1, modeC + 1} {
					idx, ok := ModeCToModeA(cand)
					if !ok {
						continue
					}
					if t.count[idx]-t.lastCount[idx] >= MinMatches {
						res.ModeCHit = true
						t.claim(idx, ac.Address)
					}
				}
			}
		}
		results = append(results, res)
	}

	for i := range t.count {
		delta := t.count[i] - t.lastCount[i]
		if delta < MinMatches {
			t.age[i]++
			if t.age[i] >= silentClearPasses {
				t.age[i] = 0
				t.count[i] = 0
				t.lastCount[i] = 0
				continue
			}
		} else if t.match[i] != unmatchedSlot {
			t.age[i] = 10
		} else {
			t.age[i] = 0
		}
		t.lastCount[i] = t.count[i]
	}

	return results
}

func (t *Table) claim(idx int, addr uint32) {
	switch t.match[idx] {
	case unmatchedSlot:
		t.match[idx] = addr
	case addr:
		// already claimed by this aircraft
	default:
		t.match[idx] = collisionSlot
	}
}
