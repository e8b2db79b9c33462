package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixedRect(s *Solver, xLo, xHi, yLo, yHi, dx, dy int64) Rectangle {
	return Rectangle{
		X:  s.NewIntVar(xLo, xHi, ""),
		Y:  s.NewIntVar(yLo, yHi, ""),
		DX: s.FixedValueVar(dx, ""),
		DY: s.FixedValueVar(dy, ""),
	}
}

func TestDiffnMandatoryPartPush(t *testing.T) {
	s := NewSolver("diffn")
	// Box a is pinned; box b's mandatory x-part overlaps a's, so b must
	// exit a in y.
	a := fixedRect(s, 0, 0, 0, 0, 2, 2)
	b := fixedRect(s, 0, 1, 0, 5, 2, 2)
	require.NoError(t, s.Post(NewDiffn(s, []Rectangle{a, b})))

	// b's x core is [1,2), overlapping a's [0,2); below in y is
	// impossible (b.y >= 0), so b is pushed above a.
	require.Equal(t, int64(2), b.Y.Min())
}

func TestDiffnMandatoryOverlapFails(t *testing.T) {
	s := NewSolver("diffn")
	a := fixedRect(s, 0, 0, 0, 0, 2, 2)
	b := fixedRect(s, 1, 1, 1, 1, 2, 2)
	err := s.Post(NewDiffn(s, []Rectangle{a, b}))
	require.ErrorIs(t, err, ErrFailed)
}

func TestDiffnEnergyCheckFails(t *testing.T) {
	s := NewSolver("diffn")
	// Three 2x2 boxes in a 2x4 region: 12 units of area in 8.
	boxes := []Rectangle{
		fixedRect(s, 0, 0, 0, 2, 2, 2),
		fixedRect(s, 0, 0, 0, 2, 2, 2),
		fixedRect(s, 0, 0, 0, 2, 2, 2),
	}
	err := s.Post(NewDiffn(s, boxes))
	require.ErrorIs(t, err, ErrFailed)
}

// TestDiffnSearchSeparatesUnitSquares places two unit squares on a
// 3-cell strip: fixpoint alone cannot separate them, branching must.
func TestDiffnSearchSeparatesUnitSquares(t *testing.T) {
	s := NewSolver("diffn")
	a := fixedRect(s, 0, 2, 0, 0, 1, 1)
	b := fixedRect(s, 0, 2, 0, 0, 1, 1)
	require.NoError(t, s.Post(NewDiffn(s, []Rectangle{a, b})))

	// Fixpoint alone leaves both unbound.
	require.False(t, a.X.Bound())
	require.False(t, b.X.Bound())

	sch, found := s.Solve(NewAssignFirstUnbound([]*IntVar{a.X, b.X}))
	require.True(t, found)
	require.Equal(t, StatusSolved, sch.Status())
	require.True(t, a.X.Bound())
	require.True(t, b.X.Bound())
	// Non-overlap in the solution.
	require.True(t, a.X.Value()+1 <= b.X.Value() || b.X.Value()+1 <= a.X.Value())
}

// TestDiffnNoPairWithIntersectingCores asserts the pairwise property at
// fixpoint for a mixed instance.
func TestDiffnNoPairWithIntersectingCores(t *testing.T) {
	s := NewSolver("diffn")
	boxes := []Rectangle{
		fixedRect(s, 0, 4, 0, 4, 2, 1),
		fixedRect(s, 0, 4, 0, 4, 1, 2),
		fixedRect(s, 2, 3, 1, 1, 2, 2),
	}
	require.NoError(t, s.Post(NewDiffn(s, boxes)))

	for i := range boxes {
		for j := i + 1; j < len(boxes); j++ {
			ixLo, ixHi, ixOK := mandatoryCore(boxes[i].X, boxes[i].DX)
			iyLo, iyHi, iyOK := mandatoryCore(boxes[i].Y, boxes[i].DY)
			jxLo, jxHi, jxOK := mandatoryCore(boxes[j].X, boxes[j].DX)
			jyLo, jyHi, jyOK := mandatoryCore(boxes[j].Y, boxes[j].DY)
			xOverlap := ixOK && jxOK && ixLo < jxHi && jxLo < ixHi
			yOverlap := iyOK && jyOK && iyLo < jyHi && jyLo < iyHi
			require.False(t, xOverlap && yOverlap,
				"boxes %d and %d have intersecting mandatory cores", i, j)
		}
	}
}

func TestDiffnBacktracksCleanly(t *testing.T) {
	s := NewSolver("diffn")
	a := fixedRect(s, 0, 2, 0, 0, 1, 1)
	b := fixedRect(s, 0, 2, 0, 0, 1, 1)
	require.NoError(t, s.Post(NewDiffn(s, []Rectangle{a, b})))

	s.PushState()
	require.NoError(t, s.Propagate(func() { a.X.SetValue(0) }))
	require.Equal(t, int64(1), b.X.Min())
	s.PopState()
	require.Equal(t, int64(0), b.X.Min())
}
