package track_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go1090track/internal/message"
	"go1090track/internal/track"
)

func newMsg(addr uint32, source message.Source, tMs int64) *message.Message {
	return &message.Message{
		MsgType:        17,
		Addr:           addr,
		Source:         source,
		SysTimestampMs: tMs,
		SignalLevel:    0.01,
		METype:         11,
		MessageVersion: 2,
	}
}

func TestUpdateIgnoresBroadcastAddress(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := newMsg(0, message.SourceADSB, 1000)
	res := tr.Update(msg)
	assert.Nil(t, res)
	assert.Equal(t, 0, tr.Count())
}

func TestUpdateCreatesAircraftAndTracksSquawk(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := newMsg(0xABCDEF, message.SourceADSB, 1000)
	msg.Squawk = message.ValidInt{Value: 1200, Valid: true}

	res := tr.Update(msg)
	require.NotNil(t, res)
	require.NotNil(t, res.Aircraft)
	assert.Equal(t, uint32(0xABCDEF), res.Aircraft.Address)
	assert.Equal(t, 1200, res.Aircraft.Squawk)
	assert.Equal(t, int64(1), res.Aircraft.Messages)
	assert.Equal(t, 1, tr.Count())
	assert.EqualValues(t, 1, tr.Stats.UniqueAircraft)

	// A second message for the same address does not create a new aircraft.
	msg2 := newMsg(0xABCDEF, message.SourceADSB, 2000)
	res2 := tr.Update(msg2)
	require.NotNil(t, res2)
	assert.Equal(t, 1, tr.Count())
	assert.Equal(t, int64(2), res2.Aircraft.Messages)
}

func TestUpdateModeACCountingDoesNotCreateAircraft(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := &message.Message{
		MsgType: 32,
		Squawk:  message.ValidInt{Value: 1200, Valid: true},
	}
	res := tr.Update(msg)
	assert.Nil(t, res)
	assert.Equal(t, 0, tr.Count())
}

func TestUpdateSBSInShortcutSetsPositionDirectly(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := newMsg(0x101010, message.SourceSBSIn, 1000)
	msg.SBSIn = true
	msg.DecodedLat = message.ValidFloat{Value: 51.5, Valid: true}
	msg.DecodedLon = message.ValidFloat{Value: -0.1, Valid: true}

	res := tr.Update(msg)
	require.NotNil(t, res)
	assert.InDelta(t, 51.5, res.Aircraft.Lat, 1e-9)
	assert.InDelta(t, -0.1, res.Aircraft.Lon, 1e-9)
}

// cprNLTable is the same 58-entry number-of-longitude-zones table
// internal/cpr uses; duplicated here so the test's encoder and the package
// under test's decoder agree on zone boundaries.
var cprNLTable = []float64{
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
	for i, b := range cprNLTable {
		if lat < b {
			return float64(59 - i)
		}
	}
	return 1
}

// cprEncode mirrors the standard CPR encoder (the inverse of
// internal/cpr's decode math) so the test can build a plausible even/odd
// airborne pair without needing a live decoder.
func cprEncode(lat, lon float64, odd bool) (int, int) {
	const nz = 15.0
	mod := func(a, b float64) float64 {
		r := math.Mod(a, b)
		if r < 0 {
			r += b
		}
		return r
	}

	o := 0.0
	if odd {
		o = 1
	}
	dlat := 360.0 / (4*nz - o)
	yz := math.Floor(131072*mod(lat, dlat)/dlat + 0.5)
	yz = mod(yz, 131072)
	rlat := dlat * (yz/131072 + math.Floor(lat/dlat))

	ni := cprNL(rlat) - o
	if ni < 1 {
		ni = 1
	}
	dlon := 360.0 / ni
	xz := math.Floor(131072*mod(lon, dlon)/dlon + 0.5)
	xz = mod(xz, 131072)

	return int(yz), int(xz)
}

func TestUpdateGlobalCPRPairResolvesPosition(t *testing.T) {
	tr := track.New(track.Config{Latitude: 52.25, Longitude: 3.9}, nil)

	const lat, lon = 52.2572, 3.91937
	evenLat, evenLon := cprEncode(lat, lon, false)
	oddLat, oddLon := cprEncode(lat, lon, true)

	even := newMsg(0x424242, message.SourceADSB, 1000)
	even.CPRValid = true
	even.CPRType = message.CPRAirborne
	even.CPRLat = evenLat
	even.CPRLon = evenLon

	odd := newMsg(0x424242, message.SourceADSB, 1200)
	odd.CPRValid = true
	odd.CPRType = message.CPRAirborne
	odd.CPROdd = true
	odd.CPRLat = oddLat
	odd.CPRLon = oddLon

	tr.Update(even)
	res := tr.Update(odd)

	require.NotNil(t, res)
	require.NotNil(t, res.Decoded, "expected a global CPR pair to resolve a position")
	assert.InDelta(t, lat, res.Decoded.Lat, 0.1)
	assert.InDelta(t, lon, res.Decoded.Lon, 0.1)
}

func TestPeriodicUpdateReapsSingleMessageAircraftFast(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := newMsg(0x777777, message.SourceADSB, 0)
	tr.Update(msg)
	require.Equal(t, 1, tr.Count())

	tr.PeriodicUpdate(track.OneHitTTLMs + 1000)
	assert.Equal(t, 0, tr.Count())
}

func TestPeriodicUpdateKeepsRecentlySeenAircraft(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := newMsg(0x888888, message.SourceADSB, 0)
	tr.Update(msg)

	tr.PeriodicUpdate(1000)
	assert.Equal(t, 1, tr.Count())
}

func TestAltitudeBaroRejectsImplausibleJump(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	addr := uint32(0x555555)

	// Build up reliability with a run of consistent altitude reports.
	for i := 0; i < 10; i++ {
		msg := newMsg(addr, message.SourceADSB, int64(i)*1000)
		msg.AltitudeBaro = message.ValidFloat{Value: 35000, Valid: true}
		tr.Update(msg)
	}

	reliable := tr.Snapshot()[0].AltitudeBaroReliable
	require.Greater(t, reliable, 3)

	// A single message claiming a 20000ft jump 1.5 seconds later should be
	// rejected by the kinematic envelope.
	jump := newMsg(addr, message.SourceADSB, 10500)
	jump.AltitudeBaro = message.ValidFloat{Value: 55000, Valid: true}
	res := tr.Update(jump)

	require.NotNil(t, res)
	assert.Equal(t, float64(35000), res.Aircraft.AltBaro)
}

func TestAltitudeBaroAcceptsSmallDelta(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	addr := uint32(0x565656)

	first := newMsg(addr, message.SourceADSB, 0)
	first.AltitudeBaro = message.ValidFloat{Value: 35000, Valid: true}
	tr.Update(first)

	second := newMsg(addr, message.SourceADSB, 1000)
	second.AltitudeBaro = message.ValidFloat{Value: 35025, Valid: true}
	res := tr.Update(second)

	require.NotNil(t, res)
	assert.Equal(t, float64(35025), res.Aircraft.AltBaro)
}

func TestSnapshotIsAPointInTimeCopy(t *testing.T) {
	tr := track.New(track.Config{}, nil)
	msg := newMsg(0x999999, message.SourceADSB, 0)
	tr.Update(msg)

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	snap[0].Flight = "MUTATED"

	snap2 := tr.Snapshot()
	assert.NotEqual(t, "MUTATED", snap2[0].Flight)
}
