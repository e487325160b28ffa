package validity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	v := New(0, 0)
	assert.Equal(t, int64(DefaultStaleMs), v.StaleIntervalMs)
	assert.Equal(t, int64(DefaultExpireMs), v.ExpireIntervalMs)
	assert.Equal(t, Invalid, v.Source)

	v2 := New(15000, 20000)
	assert.Equal(t, int64(15000), v2.StaleIntervalMs)
	assert.Equal(t, int64(20000), v2.ExpireIntervalMs)
}

func TestAcceptLowerSourceRejectedWhileFresh(t *testing.T) {
	v := New(1000, 5000)
	ok, req := v.Accept(ModeS, 100, false, false)
	require.True(t, ok)
	assert.True(t, req.Requested)
	assert.Equal(t, ModeS, v.Source)

	// A lower-quality source arriving while the field is still fresh is
	// rejected.
	ok, _ = v.Accept(MLAT, 200, false, false)
	assert.False(t, ok)
	assert.Equal(t, ModeS, v.Source)
}

func TestAcceptLowerSourceAllowedOnceStale(t *testing.T) {
	v := New(1000, 5000)
	_, _ = v.Accept(ADSB, 0, false, false)

	ok, _ := v.Accept(MLAT, 1500, false, false)
	require.True(t, ok)
	assert.Equal(t, MLAT, v.Source)
}

func TestAcceptRejectsOutOfOrderTimestamps(t *testing.T) {
	v := New(1000, 5000)
	_, _ = v.Accept(ADSB, 1000, false, false)

	ok, _ := v.Accept(ADSB, 500, false, false)
	assert.False(t, ok)
	assert.Equal(t, int64(1000), v.UpdatedMs)
}

func TestAcceptSBSInNeverRequestsReduceForward(t *testing.T) {
	v := New(1000, 5000)
	ok, req := v.Accept(ADSB, 0, true, false)
	require.True(t, ok)
	assert.False(t, req.Requested)
}

func TestAcceptCPRPushesReduceForwardWindowOut(t *testing.T) {
	v := New(1000, 5000)
	_, req := v.Accept(ADSB, 1000, false, true)
	assert.True(t, req.Requested)
	assert.Equal(t, int64(8000), v.NextReduceForwardMs)

	// Within the pushed-out window, no further reduce-forward is requested.
	_, req = v.Accept(ADSB, 2000, false, false)
	assert.False(t, req.Requested)
}

func TestCombineTakesLowerQualityAndEarliestExpiry(t *testing.T) {
	a := Validity{Source: ADSB, UpdatedMs: 100, StaleMs: 1000, ExpiresMs: 2000}
	b := Validity{Source: MLAT, UpdatedMs: 200, StaleMs: 500, ExpiresMs: 1500}

	out := Combine(a, b)
	assert.Equal(t, MLAT, out.Source)
	assert.Equal(t, int64(200), out.UpdatedMs)
	assert.Equal(t, int64(500), out.StaleMs)
	assert.Equal(t, int64(1500), out.ExpiresMs)
}

func TestCombineHandlesInvalidSide(t *testing.T) {
	valid := Validity{Source: ADSB, UpdatedMs: 100}
	invalid := Validity{Source: Invalid}

	assert.Equal(t, valid, Combine(invalid, valid))
	assert.Equal(t, valid, Combine(valid, invalid))
}

func TestCompareOrdersByFreshnessThenSourceThenRecency(t *testing.T) {
	now := int64(1000)
	fresherHigh := Validity{Source: ADSB, StaleMs: 2000, UpdatedMs: 900}
	staleLow := Validity{Source: ModeAC, StaleMs: 500, UpdatedMs: 950}
	assert.Equal(t, 1, Compare(fresherHigh, staleLow, now))
	assert.Equal(t, -1, Compare(staleLow, fresherHigh, now))

	a := Validity{Source: ADSB, StaleMs: 0, UpdatedMs: 500}
	b := Validity{Source: ADSB, StaleMs: 0, UpdatedMs: 900}
	assert.Equal(t, -1, Compare(a, b, now))
	assert.Equal(t, 1, Compare(b, a, now))
}

func TestIsValidAndIsStale(t *testing.T) {
	v := Validity{Source: ADSB, StaleMs: 1000, ExpiresMs: 2000}
	assert.True(t, v.IsValid(500))
	assert.False(t, v.IsStale(500))
	assert.True(t, v.IsStale(1500))
	assert.True(t, v.IsValid(1500))
	assert.False(t, v.IsValid(2500))
}

func TestExpireTransitionsOnce(t *testing.T) {
	v := Validity{Source: ADSB, ExpiresMs: 1000}
	assert.False(t, v.Expire(500))
	assert.Equal(t, ADSB, v.Source)

	assert.True(t, v.Expire(1000))
	assert.Equal(t, Invalid, v.Source)

	// Already invalid: no further transition.
	assert.False(t, v.Expire(2000))
}

func TestAgeComputesElapsed(t *testing.T) {
	v := Validity{UpdatedMs: 100}
	assert.Equal(t, int64(400), v.Age(500))
}
