package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newBools(s *Solver, n int) []*IntVar {
	vars := make([]*IntVar, n)
	for i := range vars {
		vars[i] = s.NewBoolVar("")
	}
	return vars
}

func TestSumBooleanAtMostOne(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 5)
	require.NoError(t, s.Post(NewSumBooleanLessOrEqualOne(s, b)))

	require.NoError(t, s.Propagate(func() { b[2].SetValue(1) }))
	for i, v := range b {
		if i == 2 {
			require.Equal(t, int64(1), v.Value())
			continue
		}
		require.Equal(t, int64(0), v.Value(), "b[%d] must be forced to 0", i)
	}
}

func TestSumBooleanAtMostOneBacktracks(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 3)
	require.NoError(t, s.Post(NewSumBooleanLessOrEqualOne(s, b)))

	s.PushState()
	require.NoError(t, s.Propagate(func() { b[0].SetValue(1) }))
	require.Equal(t, int64(0), b[1].Value())
	s.PopState()

	require.False(t, b[0].Bound())
	require.False(t, b[1].Bound())

	// The absorbed switch must have reverted too: a different choice
	// propagates afresh.
	require.NoError(t, s.Propagate(func() { b[1].SetValue(1) }))
	require.Equal(t, int64(0), b[0].Value())
	require.Equal(t, int64(0), b[2].Value())
}

func TestSumBooleanAtLeastOne(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 4)
	require.NoError(t, s.Post(NewSumBooleanGreaterOrEqualOne(s, b)))

	require.NoError(t, s.Propagate(func() { b[0].SetValue(0) }))
	require.NoError(t, s.Propagate(func() { b[1].SetValue(0) }))
	require.NoError(t, s.Propagate(func() { b[3].SetValue(0) }))
	// Only b[2] can still be 1; it is forced.
	require.Equal(t, int64(1), b[2].Value())
}

func TestSumBooleanAtLeastOneFails(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 2)
	require.NoError(t, s.Post(NewSumBooleanGreaterOrEqualOne(s, b)))

	require.NoError(t, s.Propagate(func() { b[0].SetValue(0) }))
	err := s.Propagate(func() { b[1].SetValue(0) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestSumBooleanEqualOne(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 3)
	require.NoError(t, s.Post(NewSumBooleanEqualOne(s, b)))

	require.NoError(t, s.Propagate(func() { b[1].SetValue(1) }))
	require.Equal(t, int64(0), b[0].Value())
	require.Equal(t, int64(0), b[2].Value())
}

func TestSumBooleanEqualVar(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 4)
	total := s.NewIntVar(0, 4, "total")
	require.NoError(t, s.Post(NewSumBooleanEqualVar(s, b, total)))

	require.NoError(t, s.Propagate(func() { b[0].SetValue(1) }))
	require.NoError(t, s.Propagate(func() { b[1].SetValue(1) }))
	require.Equal(t, int64(2), total.Min())
	require.Equal(t, int64(4), total.Max())

	// Pinning the total to its current minimum zeroes the undecided rest.
	require.NoError(t, s.Propagate(func() { total.SetMax(2) }))
	require.Equal(t, int64(0), b[2].Value())
	require.Equal(t, int64(0), b[3].Value())
	require.Equal(t, int64(2), total.Value())
}

func TestSumBooleanEqualVarForcesUp(t *testing.T) {
	s := NewSolver("bool")
	b := newBools(s, 3)
	total := s.NewIntVar(0, 3, "total")
	require.NoError(t, s.Post(NewSumBooleanEqualVar(s, b, total)))

	require.NoError(t, s.Propagate(func() { total.SetMin(3) }))
	for i, v := range b {
		require.Equal(t, int64(1), v.Value(), "b[%d] must be forced to 1", i)
	}
}
