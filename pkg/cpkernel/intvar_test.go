package cpkernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntVarBoundOps(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 10, "v")

	require.NoError(t, s.Propagate(func() { v.SetMin(3) }))
	require.Equal(t, int64(3), v.Min())
	require.NoError(t, s.Propagate(func() { v.SetMax(7) }))
	require.Equal(t, int64(7), v.Max())
	require.NoError(t, s.Propagate(func() { v.SetRange(4, 9) }))
	require.Equal(t, int64(4), v.Min())
	require.Equal(t, int64(7), v.Max(), "SetRange intersects, it never widens")
	require.False(t, v.Bound())

	require.NoError(t, s.Propagate(func() { v.SetValue(5) }))
	require.True(t, v.Bound())
	require.Equal(t, int64(5), v.Value())

	// Narrowing past the other bound is a contradiction, not an error in
	// the Go sense at the variable level: it surfaces as ErrFailed from
	// the enclosing pass.
	err := s.Propagate(func() { v.SetMin(6) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestIntVarRemoveValue(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 5, "v")

	// Boundary removals move the bound.
	require.NoError(t, s.Propagate(func() { v.RemoveValue(0) }))
	require.Equal(t, int64(1), v.Min())
	require.NoError(t, s.Propagate(func() { v.RemoveValue(5) }))
	require.Equal(t, int64(4), v.Max())

	// Interior removal leaves a hole.
	require.NoError(t, s.Propagate(func() { v.RemoveValue(3) }))
	require.Equal(t, int64(1), v.Min())
	require.Equal(t, int64(4), v.Max())
	require.False(t, v.Has(3))
	require.True(t, v.Has(2))

	// Collapsing onto a hole fails.
	err := s.Propagate(func() { v.SetValue(3) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestIntVarEventClasses(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 10, "v")

	var rangeRuns, boundRuns, valueRuns, domainRuns int
	v.WhenRange(&Demon{Priority: PriorityNormal, Name: "r", Run: func() { rangeRuns++ }})
	v.WhenBound(&Demon{Priority: PriorityNormal, Name: "b", Run: func() { boundRuns++ }})
	v.WhenValue(&Demon{Priority: PriorityNormal, Name: "v", Run: func() { valueRuns++ }})
	v.WhenDomain(&Demon{Priority: PriorityNormal, Name: "d", Run: func() { domainRuns++ }})

	require.NoError(t, s.Propagate(func() { v.SetMin(2) }))
	require.Equal(t, 1, rangeRuns)
	require.Zero(t, boundRuns)
	require.Zero(t, valueRuns)
	require.Zero(t, domainRuns)

	// A write that changes nothing fires nothing.
	require.NoError(t, s.Propagate(func() { v.SetMin(2) }))
	require.Equal(t, 1, rangeRuns)

	// Interior hole: domain implies range.
	require.NoError(t, s.Propagate(func() { v.RemoveValue(5) }))
	require.Equal(t, 1, domainRuns)
	require.Equal(t, 2, rangeRuns)
	require.Zero(t, boundRuns)

	// Collapse to a singleton: range, bound, and the unbound-to-bound
	// transition all fire.
	require.NoError(t, s.Propagate(func() { v.SetValue(7) }))
	require.Equal(t, 3, rangeRuns)
	require.Equal(t, 1, boundRuns)
	require.Equal(t, 1, valueRuns)
}

func TestIntVarOldBounds(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 10, "v")

	var oldMin, oldMax, newMin int64
	v.WhenRange(&Demon{Priority: PriorityNormal, Name: "obs", Run: func() {
		oldMin, oldMax = v.OldMin(), v.OldMax()
		newMin = v.Min()
	}})

	require.NoError(t, s.Propagate(func() { v.SetMin(4) }))
	require.Equal(t, int64(0), oldMin, "OldMin must report the pass-start lower bound")
	require.Equal(t, int64(10), oldMax, "OldMax must report the pass-start upper bound, not OldMin")
	require.Equal(t, int64(4), newMin)

	// Next pass refreshes the snapshot.
	require.NoError(t, s.Propagate(func() { v.SetMax(8) }))
	require.Equal(t, int64(4), oldMin)
	require.Equal(t, int64(10), oldMax)
}

// TestIntVarInProcessPostponement checks that a write to a variable from
// inside its own demon batch is deferred into the shadow range and
// consolidated after the batch, instead of re-entering the demons
// mid-run.
func TestIntVarInProcessPostponement(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 10, "v")

	var seen []int64
	v.WhenRange(&Demon{Priority: PriorityNormal, Name: "writer", Run: func() {
		v.SetMin(5)
		seen = append(seen, v.Min())
	}})

	require.NoError(t, s.Propagate(func() { v.SetMin(3) }))
	require.Equal(t, int64(5), v.Min())
	require.NotEmpty(t, seen)
	require.Equal(t, int64(3), seen[0], "the in-process write must not be visible until the batch completes")
}

// TestIntVarMonotoneNarrowing asserts that within one pass every observed
// min is non-decreasing and every max non-increasing.
func TestIntVarMonotoneNarrowing(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 100, "v")
	w := s.NewIntVar(0, 100, "w")

	var mins []int64
	var maxes []int64
	observe := func() {
		mins = append(mins, v.Min())
		maxes = append(maxes, v.Max())
	}
	v.WhenRange(&Demon{Priority: PriorityNormal, Name: "obs", Run: observe})
	w.WhenRange(&Demon{Priority: PriorityNormal, Name: "link", Run: func() {
		v.SetRange(w.Min(), w.Max())
	}})

	require.NoError(t, s.Propagate(func() {
		v.SetMin(10)
		w.SetRange(20, 80)
		w.SetMax(60)
	}))
	for i := 1; i < len(mins); i++ {
		require.GreaterOrEqual(t, mins[i], mins[i-1])
		require.LessOrEqual(t, maxes[i], maxes[i-1])
	}
}

func TestIntVarRollbackAcrossStates(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 10, "v")

	s.PushState()
	require.NoError(t, s.Propagate(func() { v.SetRange(3, 6) }))
	s.PushState()
	require.NoError(t, s.Propagate(func() { v.SetValue(4) }))
	require.True(t, v.Bound())

	s.PopState()
	require.Equal(t, int64(3), v.Min())
	require.Equal(t, int64(6), v.Max())

	s.PopState()
	require.Equal(t, int64(0), v.Min())
	require.Equal(t, int64(10), v.Max())
}

func TestFailIsNotAGoError(t *testing.T) {
	s := NewSolver("test")
	v := s.NewIntVar(0, 1, "v")
	err := s.Propagate(func() { v.SetRange(5, 9) })
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrFailed))

	// A non-fail panic must pass through untouched.
	require.Panics(t, func() {
		_ = s.Propagate(func() { panic("programming error") })
	})
}
