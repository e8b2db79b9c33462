package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositiveScalProdLessOrEqual(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 4)
	coeffs := []int64{1, 2, 4, 8}
	require.NoError(t, s.Post(NewPositiveBooleanScalProdLessOrEqual(s, b, coeffs, 7)))

	// The coefficient 8 can never fit a slack of 7: its operand is
	// forced to 0 immediately, so asserting it to 1 is a contradiction.
	require.Equal(t, int64(0), b[3].Value())
	err := s.Propagate(func() { b[3].SetValue(1) })
	require.ErrorIs(t, err, ErrFailed)

	// The remaining operands stay free: 1+2+4 = 7 fits exactly.
	for i := 0; i < 3; i++ {
		require.False(t, b[i].Bound(), "b[%d] must remain free", i)
	}
}

func TestPositiveScalProdSlackTightens(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 4)
	coeffs := []int64{1, 2, 4, 8}
	require.NoError(t, s.Post(NewPositiveBooleanScalProdLessOrEqual(s, b, coeffs, 9)))
	for _, v := range b {
		require.False(t, v.Bound())
	}

	// Taking the 8 leaves slack 1: coefficients 2 and 4 must drop.
	require.NoError(t, s.Propagate(func() { b[3].SetValue(1) }))
	require.Equal(t, int64(0), b[1].Value())
	require.Equal(t, int64(0), b[2].Value())
	require.False(t, b[0].Bound())
}

func TestPositiveScalProdAbsorbsBoundVars(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 3)
	require.NoError(t, s.Propagate(func() { b[0].SetValue(1) }))

	// b[0] is pre-collapsed into the constant 5, leaving a slack of 2:
	// the post succeeds and the coefficient-4 operand is forced to 0.
	err := s.Post(NewPositiveBooleanScalProdLessOrEqual(s, b, []int64{5, 1, 4}, 7))
	require.NoError(t, err)
	require.Equal(t, int64(0), b[2].Value(), "coefficient 4 exceeds the remaining slack 2")
	require.False(t, b[1].Bound())
}

func TestPositiveScalProdEqVar(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 3)
	coeffs := []int64{2, 3, 5}
	target := s.NewIntVar(0, 100, "target")
	require.NoError(t, s.Post(NewPositiveBooleanScalProdEqVar(s, b, coeffs, target)))
	require.Equal(t, int64(0), target.Min())
	require.Equal(t, int64(10), target.Max())

	// Requiring at least 9 forces every operand: dropping any coefficient
	// leaves less than 9.
	require.NoError(t, s.Propagate(func() { target.SetMin(9) }))
	require.Equal(t, int64(1), b[0].Value())
	require.Equal(t, int64(1), b[1].Value())
	require.Equal(t, int64(1), b[2].Value())
	require.Equal(t, int64(10), target.Value())
}

func TestPositiveScalProdEqVarUpperSide(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 3)
	coeffs := []int64{2, 3, 5}
	target := s.NewIntVar(0, 4, "target")
	require.NoError(t, s.Post(NewPositiveBooleanScalProdEqVar(s, b, coeffs, target)))
	// 5 exceeds the target's maximum outright.
	require.Equal(t, int64(0), b[2].Value())
	require.False(t, b[0].Bound())
	require.False(t, b[1].Bound())
}

func TestMakeScalProdEqualsSignedSplit(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 3)
	target := s.NewIntVar(-10, 10, "target")
	require.NoError(t, s.MakeScalProdEquals(b, []int64{2, -3, 4}, target))
	require.Equal(t, int64(-3), target.Min())
	require.Equal(t, int64(6), target.Max())

	require.NoError(t, s.Propagate(func() {
		b[0].SetValue(1)
		b[1].SetValue(1)
		b[2].SetValue(0)
	}))
	require.Equal(t, int64(-1), target.Value())
}

func TestNormalizationRejectsNegativeCoefficient(t *testing.T) {
	s := NewSolver("scalprod")
	b := newBools(s, 2)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a precondition panic")
		}
		if _, ok := r.(*PreconditionError); !ok {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	NewPositiveBooleanScalProdLessOrEqual(s, b, []int64{1, -2}, 5)
}
