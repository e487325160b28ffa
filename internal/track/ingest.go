package track

import (
	"go1090track/internal/accuracy"
	"go1090track/internal/message"
	"go1090track/internal/validity"
)

// DecodedPosition is the position the updater resolved this message, if
// any, echoed back to the caller instead of being back-patched onto the
// inbound message (see SPEC_FULL.md §1.9, applied REDESIGN FLAGS).
type DecodedPosition struct {
	Lat, Lon float64
	NIC      int
	Rc       float64
}

// Result is what Update returns for one ingested message.
type Result struct {
	Aircraft      *Aircraft
	Decoded       *DecodedPosition
	ReduceForward bool
	CPRRelative   bool
}

// Update ingests one decoded message and returns the result of doing so,
// or nil for messages that don't correspond to (or don't yet identify) a
// tracked aircraft.
func (t *Tracker) Update(msg *message.Message) *Result {
	if msg.MsgType == 32 {
		if msg.Squawk.Valid {
			t.modeac.CountSquawk(msg.Squawk.Value)
		}
		return nil
	}
	if msg.Addr == 0 {
		return nil
	}

	t.clock.SetMessageTime(msg.SysTimestampMs)
	now := t.clock.Now()

	a, created := t.registry.getOrCreate(msg)
	if created {
		t.Stats.UniqueAircraft++
	}

	a.pushSignalLevel(msg.SignalLevel)
	a.SeenMs = now
	a.Messages++

	if !created && msg.AddrType < a.AddrType {
		a.AddrType = msg.AddrType
	}

	reduceForward := false
	note := func(ok bool, req validity.ReduceForwardRequest) bool {
		if ok && req.Requested {
			reduceForward = true
		}
		return ok
	}

	versionSlot := t.versionSlotFor(a, msg.Source)
	if *versionSlot == -1 {
		*versionSlot = 0
	}
	messageVersion := *versionSlot

	if msg.CategoryValid {
		a.Category = msg.Category
	}

	if msg.OpStatus.Valid {
		*versionSlot = msg.OpStatus.Version
		messageVersion = msg.OpStatus.Version
		if msg.OpStatus.HRD != message.HeadingRefInvalid {
			a.HRD = msg.OpStatus.HRD
		}
		if msg.OpStatus.TAH != message.TAHInvalid {
			a.TAH = msg.OpStatus.TAH
		}
	}

	if messageVersion == 0 {
		if !msg.Accuracy.NACP.Valid {
			if v, ok := accuracy.V0NACp(msg.METype); ok {
				msg.Accuracy.NACP = message.ValidInt{Value: v, Valid: true}
			}
		}
		if !msg.Accuracy.SIL.Valid {
			if v, ok := accuracy.V0SIL(msg.METype); ok {
				msg.Accuracy.SIL = message.ValidInt{Value: v, Valid: true}
				msg.Accuracy.SILType = message.SilUnknown
			}
		}
	}

	t.applyAltitudeBaro(a, msg, now)

	if msg.Squawk.Valid {
		prev := a.Squawk
		if note(a.V.Squawk.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.Squawk = msg.Squawk.Value
			if a.Squawk != prev {
				a.ModeAHit = false
			}
		}
	}

	t.resolveHeading(a, msg, now, note)

	acceptFloat := func(v *validity.Validity, dst *float64, val message.ValidFloat) {
		if !val.Valid {
			return
		}
		if note(v.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			*dst = val.Value
		}
	}

	if msg.Emergency.Valid {
		if note(a.V.Emergency.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.Emergency = msg.Emergency.Value
		}
	}

	acceptFloat(&a.V.AltitudeGeom, &a.AltGeom, msg.AltitudeGeom)
	acceptFloat(&a.V.GeomDelta, &a.GeomDelta, msg.GeomDelta)
	acceptFloat(&a.V.TrackRate, &a.TrackRate, msg.TrackRate)
	acceptFloat(&a.V.Roll, &a.Roll, msg.Roll)

	if msg.GS.Valid {
		if messageVersion == 2 {
			msg.GS.Selected = msg.GS.V2
		} else {
			msg.GS.Selected = msg.GS.V0
		}
		if note(a.V.GS.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.GS = msg.GS.Selected
		}
	}

	acceptFloat(&a.V.IAS, &a.IAS, msg.IAS)
	acceptFloat(&a.V.TAS, &a.TAS, msg.TAS)
	acceptFloat(&a.V.Mach, &a.Mach, msg.Mach)
	acceptFloat(&a.V.BaroRate, &a.BaroRate, msg.BaroRate)
	acceptFloat(&a.V.GeomRate, &a.GeomRate, msg.GeomRate)

	if msg.CallsignValid {
		if note(a.V.Callsign.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.Flight = msg.CallsignStr
		}
	}

	t.acceptNav(a, msg, now, note)

	if msg.Alert.Valid {
		if note(a.V.Alert.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.Alert = msg.Alert.Value
		}
	}
	if msg.SPI.Valid {
		if note(a.V.SPI.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.SPI = msg.SPI.Value
		}
	}

	if msg.AirGround != message.AirGroundInvalid {
		if msg.AirGround != message.AirGroundUncertain || a.V.AirGround.IsStale(now) {
			if note(a.V.AirGround.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
				a.AirGround = msg.AirGround
			}
		}
	}

	cprNew := false
	if msg.CPRValid {
		slot := &a.CPREven
		if msg.CPROdd {
			slot = &a.CPROdd
		}
		if note(slot.V.Accept(validity.Source(msg.Source), now, msg.SBSIn, true)) {
			slot.Lat = msg.CPRLat
			slot.Lon = msg.CPRLon
			slot.Type = msg.CPRType
			nicA := a.V.NICA.IsValid(now) && a.NICA
			nicB := msg.Accuracy.NICB.Valid && msg.Accuracy.NICB.Value
			nicC := a.V.NICC.IsValid(now) && a.NICC
			res := accuracy.Compute(msg.METype, a.AdsbVersion, nicA, nicB, nicC)
			slot.NIC = res.NIC
			slot.Rc = res.Rc
			cprNew = true
			if msg.CPRType == message.CPRSurface {
				t.Stats.CPRSurface++
			} else {
				t.Stats.CPRAirborne++
			}
		}
	}

	if msg.Accuracy.SDA.Valid {
		if note(a.V.SDA.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.SDA = msg.Accuracy.SDA.Value
		}
	}
	if msg.Accuracy.NICA.Valid {
		if note(a.V.NICA.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.NICA = msg.Accuracy.NICA.Value
		}
	}
	if msg.Accuracy.NICC.Valid {
		if note(a.V.NICC.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.NICC = msg.Accuracy.NICC.Value
		}
	}
	if msg.Accuracy.NICBaro.Valid {
		if note(a.V.NICBaro.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.NICBaro = msg.Accuracy.NICBaro.Value
		}
	}
	if msg.Accuracy.NACP.Valid {
		if note(a.V.NACP.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.NACP = msg.Accuracy.NACP.Value
		}
	}
	if msg.Accuracy.NACV.Valid {
		if note(a.V.NACV.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.NACV = msg.Accuracy.NACV.Value
		}
	}
	if msg.Accuracy.SIL.Valid {
		if note(a.V.SIL.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.SIL = msg.Accuracy.SIL.Value
			if a.SilType == message.SilInvalid || msg.Accuracy.SILType != message.SilUnknown {
				a.SilType = msg.Accuracy.SILType
			}
		}
	}
	if msg.Accuracy.GVA.Valid {
		if note(a.V.GVA.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.GVA = msg.Accuracy.GVA.Value
		}
	}

	if a.AltitudeBaroReliable >= 3 &&
		validity.Compare(a.V.AltitudeBaro, a.V.AltitudeGeom, now) > 0 &&
		validity.Compare(a.V.GeomDelta, a.V.AltitudeGeom, now) > 0 {
		a.AltGeom = a.AltBaro + a.GeomDelta
		a.V.AltitudeGeom = validity.Combine(a.V.AltitudeBaro, a.V.GeomDelta)
	}

	result := &Result{Aircraft: a}

	if cprNew {
		result.Decoded = t.updatePosition(a, msg, now, result)
	}

	if msg.DecodedLat.Valid && msg.DecodedLon.Valid && (msg.DecodedLat.Value != 0 || msg.DecodedLon.Value != 0) {
		if note(a.V.Position.Accept(validity.Source(msg.Source), now, msg.SBSIn, false)) {
			a.Lat = msg.DecodedLat.Value
			a.Lon = msg.DecodedLon.Value
			a.PosReliableOdd = 2
			a.PosReliableEven = 2
		}
	}

	if msg.MsgType == 11 && msg.IID == 0 && msg.CorrectedBits == 0 && now > a.NextReduceForwardDF11 {
		a.NextReduceForwardDF11 = now
		reduceForward = true
	}

	result.ReduceForward = reduceForward
	return result
}

func (t *Tracker) versionSlotFor(a *Aircraft, source message.Source) *int {
	switch source {
	case message.SourceADSB:
		return &a.AdsbVersion
	case message.SourceADSR:
		return &a.AdsrVersion
	case message.SourceTISB:
		return &a.TisbVersion
	default:
		throwaway := -1
		return &throwaway
	}
}

type noteFunc func(bool, validity.ReduceForwardRequest) bool

func (t *Tracker) resolveHeading(a *Aircraft, msg *message.Message, now int64, note noteFunc) {
	if !msg.Heading.Valid {
		return
	}
	src := validity.Source(msg.Source)
	switch msg.HeadingType {
	case message.HeadingTrack:
		if note(a.V.Track.Accept(src, now, msg.SBSIn, false)) {
			a.Track = msg.Heading.Value
		}
	case message.HeadingMagnetic:
		if note(a.V.MagHeading.Accept(src, now, msg.SBSIn, false)) {
			a.MagHeading = msg.Heading.Value
		}
	case message.HeadingTrue:
		if note(a.V.TrueHeading.Accept(src, now, msg.SBSIn, false)) {
			a.TrueHeading = msg.Heading.Value
		}
	case message.HeadingMagneticOrTrue:
		if a.HRD == message.HeadingRefTrue {
			if note(a.V.TrueHeading.Accept(src, now, msg.SBSIn, false)) {
				a.TrueHeading = msg.Heading.Value
			}
		} else {
			if note(a.V.MagHeading.Accept(src, now, msg.SBSIn, false)) {
				a.MagHeading = msg.Heading.Value
			}
		}
	case message.HeadingTrackOrHeading:
		if a.TAH == message.TAHHeading {
			if note(a.V.MagHeading.Accept(src, now, msg.SBSIn, false)) {
				a.MagHeading = msg.Heading.Value
			}
		} else {
			if note(a.V.Track.Accept(src, now, msg.SBSIn, false)) {
				a.Track = msg.Heading.Value
			}
		}
	}
}

func (t *Tracker) acceptNav(a *Aircraft, msg *message.Message, now int64, note noteFunc) {
	src := validity.Source(msg.Source)
	accept := func(v *validity.Validity, dst *float64, val message.ValidFloat) {
		if !val.Valid {
			return
		}
		if note(v.Accept(src, now, msg.SBSIn, false)) {
			*dst = val.Value
		}
	}
	accept(&a.V.NavQNH, &a.NavQNH, msg.Nav.QNH)
	accept(&a.V.NavAltitudeMCP, &a.NavAltitudeMCP, msg.Nav.AltitudeMCP)
	accept(&a.V.NavAltitudeFMS, &a.NavAltitudeFMS, msg.Nav.AltitudeFMS)
	accept(&a.V.NavHeading, &a.NavHeading, msg.Nav.Heading)

	if msg.Nav.AltitudeSource.Valid {
		if note(a.V.NavAltSource.Accept(src, now, msg.SBSIn, false)) {
			a.NavAltitudeSource = msg.Nav.AltitudeSource.Value
		}
	}
	if msg.Nav.Modes.Valid {
		if note(a.V.NavModes.Accept(src, now, msg.SBSIn, false)) {
			// Sticky OR: nav modes accumulate across messages rather than
			// being replaced wholesale, matching track.c's bitflag union.
			a.NavModes.Autopilot = a.NavModes.Autopilot || msg.Nav.Modes.Autopilot
			a.NavModes.VNAV = a.NavModes.VNAV || msg.Nav.Modes.VNAV
			a.NavModes.AltHold = a.NavModes.AltHold || msg.Nav.Modes.AltHold
			a.NavModes.Approach = a.NavModes.Approach || msg.Nav.Modes.Approach
			a.NavModes.LNAV = a.NavModes.LNAV || msg.Nav.Modes.LNAV
			a.NavModes.TCAS = a.NavModes.TCAS || msg.Nav.Modes.TCAS
			a.NavModes.Valid = true
		}
	}
}
