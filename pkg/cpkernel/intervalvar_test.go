package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarDurationIntervalConsistency(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewIntervalVar(0, 10, 3, 5, 0, 20, true, "task")

	require.Equal(t, int64(3), iv.EndMin())
	require.Equal(t, int64(15), iv.EndMax())
	require.Equal(t, int64(0), iv.StartMin())
	require.Equal(t, int64(10), iv.StartMax())
	require.Equal(t, int64(3), iv.DurationMin())
	require.Equal(t, int64(5), iv.DurationMax())

	require.NoError(t, s.Propagate(func() { iv.SetEndMax(4) }))
	require.Equal(t, int64(0), iv.StartMin())
	require.Equal(t, int64(1), iv.StartMax())
	require.Equal(t, int64(3), iv.DurationMin())
	require.Equal(t, int64(4), iv.DurationMax())
}

// TestVarDurationIntervalInvariant checks the chain
// start.min + duration.min <= end.min <= end.max <= start.max + duration.max
// after arbitrary narrowing.
func TestVarDurationIntervalInvariant(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewIntervalVar(0, 50, 2, 9, 0, 100, false, "task")

	writes := []func(){
		func() { iv.SetStartMin(5) },
		func() { iv.SetEndMax(40) },
		func() { iv.SetDurationMin(4) },
		func() { iv.SetStartMax(30) },
	}
	for _, w := range writes {
		require.NoError(t, s.Propagate(w))
		require.LessOrEqual(t, iv.StartMin()+iv.DurationMin(), iv.EndMin())
		require.LessOrEqual(t, iv.EndMin(), iv.EndMax())
		require.LessOrEqual(t, iv.EndMax(), iv.StartMax()+iv.DurationMax())
	}
}

func TestOptionalIntervalDeactivatesOnEmptyRange(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewIntervalVar(0, 10, 3, 5, 0, 20, true, "opt")

	// Emptying the feasible window on an optional interval flips
	// performed to false instead of failing.
	require.NoError(t, s.Propagate(func() { iv.SetEndMax(2) }))
	require.False(t, iv.MayBePerformed())

	// Time-bound reads on an unperformed interval are programming errors.
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a precondition panic on reading an unperformed interval")
		}
	}()
	iv.StartMin()
}

func TestRequiredIntervalFailsOnEmptyRange(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewIntervalVar(0, 10, 3, 5, 0, 20, false, "req")
	err := s.Propagate(func() { iv.SetEndMax(2) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestFixedDurationInterval(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewFixedDurationPerformedIntervalVar(0, 10, 4, "task")

	require.Equal(t, int64(4), iv.EndMin())
	require.Equal(t, int64(14), iv.EndMax())
	require.NoError(t, s.Propagate(func() { iv.SetStartMin(3) }))
	require.Equal(t, int64(7), iv.EndMin())
	require.NoError(t, s.Propagate(func() { iv.SetEndMax(9) }))
	require.Equal(t, int64(5), iv.StartMax())

	require.True(t, iv.MustBePerformed())
	err := s.Propagate(func() { iv.SetStartMin(20) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestStartVarInterval(t *testing.T) {
	s := NewSolver("interval")
	start := s.NewIntVar(0, 10, "start")
	iv := s.NewStartVarIntervalVar(start, 3, "task")

	require.NoError(t, s.Propagate(func() { iv.SetEndMax(8) }))
	require.Equal(t, int64(5), start.Max())

	require.NoError(t, s.Propagate(func() { start.SetMin(2) }))
	require.Equal(t, int64(5), iv.EndMin())
	require.True(t, iv.MustBePerformed())
}

func TestFixedInterval(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewFixedInterval(5, 2, "fixed")

	require.Equal(t, int64(5), iv.StartMin())
	require.Equal(t, int64(7), iv.EndMax())

	// Writes that keep the constants are no-ops.
	require.NoError(t, s.Propagate(func() { iv.SetStartRange(0, 5) }))

	// Excluding the constant fails.
	err := s.Propagate(func() { iv.SetStartMin(6) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestSyncedInterval(t *testing.T) {
	s := NewSolver("interval")
	base := s.NewFixedDurationPerformedIntervalVar(0, 10, 4, "base")

	onStart := s.NewStartSyncedInterval(base, SyncOnStart, 2, 3, "after_start")
	require.Equal(t, int64(3), onStart.StartMin())
	require.Equal(t, int64(13), onStart.StartMax())
	require.Equal(t, int64(5), onStart.EndMin())

	onEnd := s.NewStartSyncedInterval(base, SyncOnEnd, 2, 1, "after_end")
	require.Equal(t, int64(5), onEnd.StartMin())
	require.Equal(t, int64(15), onEnd.StartMax())

	// Start writes on the wrapper translate to the chosen sync point of
	// the base.
	require.NoError(t, s.Propagate(func() { onStart.SetStartMin(6) }))
	require.Equal(t, int64(3), base.StartMin())
	require.NoError(t, s.Propagate(func() { onEnd.SetStartMax(9) }))
	require.Equal(t, int64(8), base.EndMax())
}

func TestMirrorInterval(t *testing.T) {
	s := NewSolver("interval")
	base := s.NewFixedDurationPerformedIntervalVar(2, 10, 3, "base")
	m := NewMirrorInterval(base)

	require.Equal(t, -base.EndMax(), m.StartMin())
	require.Equal(t, -base.EndMin(), m.StartMax())
	require.Equal(t, -base.StartMax(), m.EndMin())
	require.Equal(t, -base.StartMin(), m.EndMax())
	require.Equal(t, base.DurationMin(), m.DurationMin())

	// Narrowing the mirror narrows the base on the opposite side.
	require.NoError(t, s.Propagate(func() { m.SetEndMax(-4) }))
	require.Equal(t, int64(4), base.StartMin())
}

func TestRelaxedWrappers(t *testing.T) {
	s := NewSolver("interval")
	base := s.NewIntervalVar(0, 10, 3, 5, 0, 20, true, "opt")

	rmax := NewRelaxedMaxInterval(base)
	rmin := NewRelaxedMinInterval(base)

	// While performed is undecided, the relaxed side is unbounded.
	require.Equal(t, int64(MaxInt), rmax.StartMax())
	require.Equal(t, int64(MaxInt), rmax.EndMax())
	require.Equal(t, base.StartMin(), rmax.StartMin())
	require.Equal(t, int64(MinInt), rmin.StartMin())
	require.Equal(t, int64(MinInt), rmin.EndMin())
	require.Equal(t, base.EndMax(), rmin.EndMax())

	// Once the base must be performed, the views become transparent.
	require.NoError(t, s.Propagate(func() { base.SetPerformed(true) }))
	require.Equal(t, base.StartMax(), rmax.StartMax())
	require.Equal(t, base.EndMin(), rmin.EndMin())
}

func TestRelaxedWrapperRejectsRelaxedSideWrites(t *testing.T) {
	s := NewSolver("interval")
	base := s.NewIntervalVar(0, 10, 3, 5, 0, 20, true, "opt")
	rmax := NewRelaxedMaxInterval(base)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a precondition panic")
		}
		if _, ok := r.(*PreconditionError); !ok {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	rmax.SetStartMax(5)
}

func TestIntervalOldBounds(t *testing.T) {
	s := NewSolver("interval")
	iv := s.NewIntervalVar(0, 10, 3, 5, 0, 20, false, "task")

	var oldEndMin, oldEndMax int64
	iv.WhenAnything(&Demon{Priority: PriorityNormal, Name: "obs", Run: func() {
		oldEndMin, oldEndMax = iv.OldEndMin(), iv.OldEndMax()
	}})

	require.NoError(t, s.Propagate(func() { iv.SetEndMax(12) }))
	require.Equal(t, int64(3), oldEndMin, "previous-pass end min")
	require.Equal(t, int64(15), oldEndMax, "previous-pass end max must come from the max-side snapshot")
}
