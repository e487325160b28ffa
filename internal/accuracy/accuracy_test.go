package accuracy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeKnownMetypes(t *testing.T) {
	cases := []struct {
		name               string
		metype, version    int
		nicA, nicB, nicC   bool
		wantNIC            int
		wantRc             float64
	}{
		{"metype9_v2", 9, 2, false, false, false, 11, 7.5},
		{"metype11_v2_all_bits", 11, 2, true, false, true, 9, 75},
		{"metype11_v2_nicA_only", 11, 2, true, false, false, 8, 185.2},
		{"metype11_v2_neither", 11, 2, false, false, false, 7, 370.4},
		{"metype11_v0", 11, 0, false, false, false, 8, 185.2},
		{"metype16_v2_both", 16, 2, true, false, true, 3, 7408},
		{"metype16_v2_nicA_only", 16, 2, true, false, false, 2, 14816},
		{"metype17", 17, 2, false, false, false, 1, 37040},
		{"metype8_v2_nicA", 8, 2, true, false, false, 7, 370.4},
		{"metype8_v2_no_nicA", 8, 2, false, false, false, 0, RCUnknown},
		{"metype8_v1_unknown", 8, 1, true, false, false, 0, RCUnknown},
		{"unknown_metype", 99, 2, false, false, false, 0, RCUnknown},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := Compute(c.metype, c.version, c.nicA, c.nicB, c.nicC)
			assert.Equal(t, c.wantNIC, res.NIC)
			assert.Equal(t, c.wantRc, res.Rc)
		})
	}
}

func TestV0NACpFallback(t *testing.T) {
	nacp, ok := V0NACp(9)
	assert.True(t, ok)
	assert.Equal(t, 11, nacp)

	nacp, ok = V0NACp(17)
	assert.True(t, ok)
	assert.Equal(t, 1, nacp)

	_, ok = V0NACp(4)
	assert.False(t, ok)
}

func TestV0SILFallback(t *testing.T) {
	sil, ok := V0SIL(13)
	assert.True(t, ok)
	assert.Equal(t, 2, sil)

	_, ok = V0SIL(4)
	assert.False(t, ok)
}
