package table_test

import (
	"testing"

	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/table"
	"github.com/stretchr/testify/require"
)

// Bump/Sub track a per-face counter, flooring subtraction at zero.
func TestInterestPrefixEntryBumpSub(t *testing.T) {
	pt := table.NewPrefixTable()
	ipe := pt.Upsert([]byte("/p"), 1)
	f1 := defn.FaceID(1)

	ipe.Bump(f1, table.UnitInterest)
	ipe.Bump(f1, table.UnitInterest)
	require.True(t, ipe.Has(f1))

	var counter int64
	ipe.Counters(func(face defn.FaceID, c int64) {
		if face == f1 {
			counter = c
		}
	})
	require.Equal(t, 2*table.UnitInterest, counter)

	ipe.Sub(f1, 3*table.UnitInterest) // oversubtract, must floor at 0
	ipe.Counters(func(face defn.FaceID, c int64) { counter = c })
	require.Equal(t, int64(0), counter)
}

// After an aging pass, no counter is ≥ twice its pre-pass value, and
// repeated passes decay an initially-large counter down toward the unit
// then to zero.
func TestAgingDecaysTowardZero(t *testing.T) {
	pt := table.NewPrefixTable()
	ipe := pt.Upsert([]byte("/p"), 1)
	f1 := defn.FaceID(1)
	for i := 0; i < 4; i++ {
		ipe.Bump(f1, table.UnitInterest)
	}

	var last int64 = 4 * table.UnitInterest
	for i := 0; i < 4; i++ {
		pt.Age()
		var cur int64
		found := false
		ipe.Counters(func(face defn.FaceID, c int64) {
			if face == f1 {
				cur, found = c, true
			}
		})
		if found {
			require.LessOrEqual(t, cur, 2*last)
		}
		last = cur
	}
	require.InDelta(t, float64(table.UnitInterest), float64(last), float64(table.UnitInterest))
}

// An InterestPrefixEntry with an empty face set is deleted after more
// than 8 idle aging ticks.
func TestAgingTombstonesIdleEntry(t *testing.T) {
	pt := table.NewPrefixTable()
	pt.Upsert([]byte("/p"), 1)

	for i := 0; i < 9; i++ {
		pt.Age()
	}
	require.Equal(t, 0, pt.Len())
}
