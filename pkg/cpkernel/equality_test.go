package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarEquality(t *testing.T) {
	s := NewSolver("eq")
	x := s.NewIntVar(0, 10, "x")
	y := s.NewIntVar(5, 20, "y")
	require.NoError(t, s.Post(NewVarEquality(s, x, y)))
	require.Equal(t, int64(5), x.Min())
	require.Equal(t, int64(10), y.Max())

	require.NoError(t, s.Propagate(func() { x.SetMax(7) }))
	require.Equal(t, int64(7), y.Max())
	require.NoError(t, s.Propagate(func() { y.SetValue(6) }))
	require.Equal(t, int64(6), x.Value())
}

func TestScalProdEqualsMixedSigns(t *testing.T) {
	s := NewSolver("eq")
	x := s.NewIntVar(0, 10, "x")
	y := s.NewIntVar(0, 10, "y")
	target := s.NewIntVar(-100, 100, "t")

	// 2x - 3y == t
	require.NoError(t, s.Post(NewScalProdEquals(s, []*IntVar{x, y}, []int64{2, -3}, target)))
	require.Equal(t, int64(-30), target.Min())
	require.Equal(t, int64(20), target.Max())

	require.NoError(t, s.Propagate(func() { target.SetRange(14, 20) }))
	// 2x - 3y >= 14 with y >= 0 gives x >= 7; with 2x <= 20 it gives
	// 3y <= 20 - 14 = 6, so y <= 2.
	require.Equal(t, int64(7), x.Min())
	require.Equal(t, int64(2), y.Max())
}

func TestScalProdEqualsDivisionRounding(t *testing.T) {
	s := NewSolver("eq")
	x := s.NewIntVar(0, 10, "x")
	target := s.NewIntVar(0, 100, "t")

	// 3x == t, t in [7,8]: no integer x fits 7 or 8... x must satisfy
	// ceil(7/3)=3 <= x <= floor(8/3)=2, which is empty.
	require.NoError(t, s.Post(NewScalProdEquals(s, []*IntVar{x}, []int64{3}, target)))
	err := s.Propagate(func() { target.SetRange(7, 8) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestElementFunction(t *testing.T) {
	s := NewSolver("eq")
	idx := s.NewIntVar(0, 4, "idx")
	target := s.NewIntVar(0, 100, "t")
	table := []int64{10, 3, 7, 3, 50}

	require.NoError(t, s.Post(NewElementFunction(s, func(i int64) int64 { return table[i] }, idx, target)))
	require.Equal(t, int64(3), target.Min())
	require.Equal(t, int64(50), target.Max())

	require.NoError(t, s.Propagate(func() { target.SetMax(8) }))
	// Indices mapping above 8 are pruned: 0 (10) and 4 (50) go.
	require.Equal(t, int64(1), idx.Min())
	require.Equal(t, int64(3), idx.Max())
	require.Equal(t, int64(3), target.Min())
	require.Equal(t, int64(7), target.Max())

	require.NoError(t, s.Propagate(func() { idx.SetValue(2) }))
	require.Equal(t, int64(7), target.Value())
}
