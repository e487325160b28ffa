package modeac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeAToIndexMasksTo12Bits(t *testing.T) {
	assert.Equal(t, 0x1234&0xFFF, ModeAToIndex(0x1234))
	assert.Equal(t, 0, ModeAToIndex(0))
}

func TestModeCToModeARejectsOutOfRange(t *testing.T) {
	_, ok := ModeCToModeA(-13)
	assert.False(t, ok)

	_, ok = ModeCToModeA(1271)
	assert.False(t, ok)

	idx, ok := ModeCToModeA(0)
	require.True(t, ok)
	assert.Equal(t, 12, idx)
}

func TestCorrelateRequiresMinMatches(t *testing.T) {
	tbl := NewTable()
	squawk := 0x1200

	for i := 0; i < MinMatches-1; i++ {
		tbl.CountSquawk(squawk)
	}

	results := tbl.Correlate([]AircraftContact{{
		Address: 0xABCDEF, SeenMs: 1000, Squawk: squawk, SquawkValid: true,
	}}, 1000)

	require.Len(t, results, 1)
	assert.False(t, results[0].ModeAHit)
}

func TestCorrelateMatchesOnSquawk(t *testing.T) {
	tbl := NewTable()
	squawk := 0x1200

	for i := 0; i < MinMatches; i++ {
		tbl.CountSquawk(squawk)
	}

	results := tbl.Correlate([]AircraftContact{{
		Address: 0xABCDEF, SeenMs: 1000, Squawk: squawk, SquawkValid: true,
	}}, 1000)

	require.Len(t, results, 1)
	assert.True(t, results[0].ModeAHit)
}

func TestCorrelateIgnoresStaleAircraft(t *testing.T) {
	tbl := NewTable()
	squawk := 0x1200
	for i := 0; i < MinMatches; i++ {
		tbl.CountSquawk(squawk)
	}

	results := tbl.Correlate([]AircraftContact{{
		Address: 0xABCDEF, SeenMs: 0, Squawk: squawk, SquawkValid: true,
	}}, recentSeenMs+1000)

	require.Len(t, results, 1)
	assert.False(t, results[0].ModeAHit)
}

func TestCorrelateMatchesOnAltitude(t *testing.T) {
	tbl := NewTable()
	idx, ok := ModeCToModeA(10)
	require.True(t, ok)
	for i := 0; i < MinMatches; i++ {
		tbl.count[idx]++
	}

	results := tbl.Correlate([]AircraftContact{{
		Address: 0x1, SeenMs: 0, AltitudeBaro: 1049, AltBaroValid: true,
	}}, 0)

	require.Len(t, results, 1)
	assert.True(t, results[0].ModeCHit)
}

func TestCorrelateSilentClearsAfterPersistentAbsence(t *testing.T) {
	tbl := NewTable()
	squawk := 0x1200
	for i := 0; i < MinMatches; i++ {
		tbl.CountSquawk(squawk)
	}
	tbl.Correlate(nil, 0)

	for i := 0; i < silentClearPasses; i++ {
		tbl.Correlate(nil, 0)
	}

	idx := ModeAToIndex(squawk)
	assert.Equal(t, 0, tbl.count[idx])
	assert.Equal(t, 0, tbl.lastCount[idx])
}
