// Package accuracy implements the NIC (Navigation Integrity Category) and
// Rc (containment radius) lookup tables, keyed by extended-squitter message
// type, ADS-B version, and the supplementary NIC_A/B/C bits, plus the
// ADS-B version-0 fallback tables for NACp and SIL (ED-102A tables N-7,
// N-8).
package accuracy

import "math"

// RCUnknown marks an Rc value that could not be determined.
const RCUnknown = math.MaxFloat64

// Result bundles a NIC/Rc pair.
type Result struct {
	NIC int
	Rc  float64
}

// Compute returns the NIC/Rc pair for a position message of the given
// metype/version, given the supplementary NIC_A/B/C bits (nicB comes
// straight off the current message; nicA/nicC are latched aircraft state
// per the caller's contract).
func Compute(metype, version int, nicA, nicB, nicC bool) Result {
	return Result{NIC: computeNIC(metype, version, nicA, nicB, nicC), Rc: computeRc(metype, version, nicA, nicB, nicC)}
}

func computeNIC(metype, version int, nicA, nicB, nicC bool) int {
	switch metype {
	case 5:
		return 11
	case 6:
		return 10
	case 7:
		if version == 2 {
			if nicA && !nicC {
				return 9
			}
			return 8
		}
		if nicA {
			return 9
		}
		return 8
	case 8:
		if version == 2 && nicA {
			return 7
		}
		return 0
	case 9:
		return 11
	case 10:
		return 10
	case 11:
		if version == 2 {
			if nicA && nicC {
				return 9
			}
			if nicA && !nicC {
				return 8
			}
			return 7
		}
		return 8
	case 12:
		return 7
	case 13:
		if version == 2 {
			switch {
			case !nicA && nicB && !nicC:
				return 6
			case nicA && nicB && !nicC:
				return 6
			case !nicA && !nicB && nicC:
				return 6
			default:
				return 5
			}
		}
		return 6
	case 14:
		return 5
	case 15:
		return 4
	case 16:
		if version == 2 {
			if nicA && nicC {
				return 3
			}
			return 2
		}
		if nicA {
			return 3
		}
		return 2
	case 17:
		return 1
	case 20:
		return 11
	case 21:
		return 10
	default:
		return 0
	}
}

func computeRc(metype, version int, nicA, nicB, nicC bool) float64 {
	switch metype {
	case 5:
		return 7.5
	case 6:
		return 25
	case 7:
		if version == 2 {
			if nicA && !nicC {
				return 75
			}
			return 186.5
		}
		if nicA {
			return 75
		}
		return 186.5
	case 8:
		if version == 2 && nicA {
			return 370.4
		}
		return RCUnknown
	case 9:
		return 7.5
	case 10:
		return 25
	case 11:
		if version == 2 {
			if nicA && nicC {
				return 75
			}
			if nicA && !nicC {
				return 185.2
			}
			return 370.4
		}
		return 185.2
	case 12:
		return 370.4
	case 13:
		if version == 2 {
			switch {
			case !nicA && nicB && !nicC:
				return 1111.2
			case nicA && nicB && !nicC:
				return 555.6
			case !nicA && !nicB && nicC:
				return 1111.2
			default:
				return 926
			}
		}
		return 926
	case 14:
		return 1852
	case 15:
		return 3704
	case 16:
		if version == 2 {
			if nicA && nicC {
				return 7408
			}
			return 14816
		}
		if nicA {
			return 7408
		}
		return 14816
	case 17:
		return 37040
	case 20:
		return 7.5
	case 21:
		return 25
	default:
		return RCUnknown
	}
}

// V0NACp returns the ADS-B version-0 fallback NACp for the given metype, or
// (0, false) if none applies (ED-102A Table N-7).
func V0NACp(metype int) (int, bool) {
	switch metype {
	case 9, 20:
		return 11, true
	case 10, 21:
		return 10, true
	case 11:
		return 8, true
	case 12:
		return 7, true
	case 13:
		return 6, true
	case 14:
		return 5, true
	case 15:
		return 4, true
	case 16:
		return 1, true
	case 17:
		return 1, true
	default:
		return 0, false
	}
}

// V0SIL returns the ADS-B version-0 fallback SIL for the given metype, or
// (0, false) if none applies (ED-102A Table N-8).
func V0SIL(metype int) (int, bool) {
	switch metype {
	case 9, 10, 11, 12, 13, 14, 15, 16, 17, 20, 21:
		return 2, true
	default:
		return 0, false
	}
}
