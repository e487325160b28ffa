package track

import (
	"go1090track/internal/message"
	"go1090track/internal/validity"
)

// AircraftsBuckets is the fixed bucket count of the registry's hash table.
// It must stay a power of two; lookups mask on Address instead of using a
// true modulo.
const AircraftsBuckets = 1024

// AltitudeBaroReliableMax clamps the altitude-baro reliability counter.
const AltitudeBaroReliableMax = 20

// cprSlot is one parity's staged CPR observation (even or odd).
type cprSlot struct {
	Lat, Lon int
	Type     message.CPRType
	NIC      int
	Rc       float64
	V        validity.Validity
}

// fieldValidity bundles every per-field validity record an Aircraft
// carries. Kept as its own struct so create/expire logic can walk a slice
// of pointers into it generically instead of repeating field names four
// times across the package.
type fieldValidity struct {
	Callsign, AltitudeBaro, AltitudeGeom, GeomDelta     validity.Validity
	GS, IAS, TAS, Mach                                  validity.Validity
	Track, TrackRate, Roll, MagHeading, TrueHeading      validity.Validity
	BaroRate, GeomRate                                   validity.Validity
	Squawk, AirGround                                    validity.Validity
	NavQNH, NavAltitudeMCP, NavAltitudeFMS, NavAltSource validity.Validity
	NavHeading, NavModes                                 validity.Validity
	Position                                             validity.Validity
	NICA, NICC, NICBaro, NACP, NACV, SIL, GVA, SDA        validity.Validity
	Emergency, Alert, SPI                                 validity.Validity
}

// Aircraft is the tracker's record of one distinct 24-bit address.
type Aircraft struct {
	Address  uint32
	AddrType int
	Category int
	Flight   string

	Lat, Lon float64

	AltBaro, AltGeom, GeomDelta float64
	GS, IAS, TAS, Mach          float64
	Track, TrackRate, Roll      float64
	MagHeading, TrueHeading     float64
	BaroRate, GeomRate          float64

	NIC, NICBaro, NACP, NACV, GVA, SDA int
	Rc                                 float64
	NICA, NICB, NICC                   bool
	SIL                                int
	SilType                            message.SilType

	AdsbVersion, AdsrVersion, TisbVersion int
	HRD                                   message.HeadingRef
	TAH                                   message.TrackOrHeadingPref

	NavQNH                        float64
	NavAltitudeMCP, NavAltitudeFMS float64
	NavAltitudeSource              int
	NavHeading                    float64
	NavModes                      message.NavModes

	Squawk    int
	Emergency int
	Alert     bool
	SPI       bool
	AirGround message.AirGround

	CPREven, CPROdd cprSlot

	AltitudeBaroReliable         int
	PosReliableOdd, PosReliableEven int
	GSLastPos                    float64

	SignalLevels   [8]float64
	signalLevelIdx int
	SeenMs         int64
	Messages       int64

	ModeAHit, ModeCHit bool

	NextReduceForwardDF11 int64

	firstMessageSeen bool
	firstMessageMs   int64

	Declination float64
	Distance    float64

	V fieldValidity

	Next *Aircraft
}

// newAircraft creates and zero-initializes an Aircraft for the given
// message, per track_create_aircraft: eight signal-level slots primed low,
// ADS-B/ADS-R/TIS-B versions marked unknown (-1), default heading
// reference (magnetic) and track/heading preference (track), and the
// tightened stale intervals for altitude_baro/squawk/airground.
func newAircraft(msg *message.Message) *Aircraft {
	a := &Aircraft{
		Address:           msg.Addr,
		AddrType:          msg.AddrType,
		AdsbVersion:       -1,
		AdsrVersion:       -1,
		TisbVersion:       -1,
		HRD:               message.HeadingRefMagnetic,
		TAH:               message.TAHTrack,
		SilType:           message.SilUnknown,
		firstMessageMs:    msg.SysTimestampMs,
	}
	for i := range a.SignalLevels {
		a.SignalLevels[i] = 1e-5
	}

	a.V.Callsign = validity.New(0, 0)
	a.V.AltitudeBaro = validity.New(15000, 70000)
	a.V.AltitudeGeom = validity.New(0, 0)
	a.V.GeomDelta = validity.New(0, 0)
	a.V.GS = validity.New(0, 0)
	a.V.IAS = validity.New(0, 0)
	a.V.TAS = validity.New(0, 0)
	a.V.Mach = validity.New(0, 0)
	a.V.Track = validity.New(0, 0)
	a.V.TrackRate = validity.New(0, 0)
	a.V.Roll = validity.New(0, 0)
	a.V.MagHeading = validity.New(0, 0)
	a.V.TrueHeading = validity.New(0, 0)
	a.V.BaroRate = validity.New(0, 0)
	a.V.GeomRate = validity.New(0, 0)
	a.V.Squawk = validity.New(15000, 70000)
	a.V.AirGround = validity.New(15000, 70000)
	a.V.NavQNH = validity.New(0, 0)
	a.V.NavAltitudeMCP = validity.New(0, 0)
	a.V.NavAltitudeFMS = validity.New(0, 0)
	a.V.NavAltSource = validity.New(0, 0)
	a.V.NavHeading = validity.New(0, 0)
	a.V.NavModes = validity.New(0, 0)
	a.CPREven.V = validity.New(0, 0)
	a.CPROdd.V = validity.New(0, 0)
	a.V.Position = validity.New(0, 0)
	a.V.NICA = validity.New(0, 0)
	a.V.NICC = validity.New(0, 0)
	a.V.NICBaro = validity.New(0, 0)
	a.V.NACP = validity.New(0, 0)
	a.V.NACV = validity.New(0, 0)
	a.V.SIL = validity.New(0, 0)
	a.V.GVA = validity.New(0, 0)
	a.V.SDA = validity.New(0, 0)
	a.V.Emergency = validity.New(0, 0)
	a.V.Alert = validity.New(0, 0)
	a.V.SPI = validity.New(0, 0)

	return a
}

// pushSignalLevel records a new RSSI-style sample into the ring buffer.
func (a *Aircraft) pushSignalLevel(level float64) {
	if level <= 0 {
		return
	}
	a.SignalLevels[a.signalLevelIdx%len(a.SignalLevels)] = level
	a.signalLevelIdx++
}

// expireFields is the field list the periodic sweeper walks. nac_v is
// intentionally excluded: see DESIGN.md Open Question decisions, item 2 —
// this replicates the original tracker's own asymmetry rather than
// "fixing" it.
func (a *Aircraft) expireFields(now int64) {
	fields := []*validity.Validity{
		&a.V.Callsign, &a.V.AltitudeBaro, &a.V.AltitudeGeom, &a.V.GeomDelta,
		&a.V.GS, &a.V.IAS, &a.V.TAS, &a.V.Mach,
		&a.V.Track, &a.V.TrackRate, &a.V.Roll, &a.V.MagHeading, &a.V.TrueHeading,
		&a.V.BaroRate, &a.V.GeomRate,
		&a.V.Squawk, &a.V.AirGround,
		&a.V.NavQNH, &a.V.NavAltitudeMCP, &a.V.NavAltitudeFMS, &a.V.NavAltSource,
		&a.V.NavHeading, &a.V.NavModes,
		&a.CPREven.V, &a.CPROdd.V,
		&a.V.Position,
		&a.V.NICA, &a.V.NICC, &a.V.NICBaro, &a.V.NACP, &a.V.SIL, &a.V.GVA, &a.V.SDA,
	}
	for _, f := range fields {
		f.Expire(now)
	}
	if !a.V.Position.IsValid(now) {
		a.PosReliableOdd = 0
		a.PosReliableEven = 0
	}
	if !a.V.AltitudeBaro.IsValid(now) {
		a.AltitudeBaroReliable = 0
	}
}
