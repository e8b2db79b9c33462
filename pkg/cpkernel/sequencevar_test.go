package cpkernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newSequence(t *testing.T, s *Solver, n int) (*SequenceVar, []IntervalVar) {
	t.Helper()
	intervals := make([]IntervalVar, n)
	for i := range intervals {
		intervals[i] = s.NewFixedDurationPerformedIntervalVar(0, 20, 2, "")
	}
	return s.NewSequenceVar(intervals, "seq"), intervals
}

func TestSequenceRankFirst(t *testing.T) {
	s := NewSolver("seq")
	sv, intervals := newSequence(t, s, 3)

	require.Equal(t, 0, sv.RankedCount())
	require.False(t, sv.Bound())

	require.NoError(t, s.Propagate(func() { sv.RankFirst(1) }))
	require.Equal(t, 1, sv.RankedCount())
	require.Equal(t, []int{1, 0, 2}, sv.FillSequence(nil))

	// Ranking pushes the still-unranked intervals after the ranked one.
	require.Equal(t, intervals[1].EndMin(), intervals[0].StartMin())
	require.Equal(t, intervals[1].EndMin(), intervals[2].StartMin())

	require.NoError(t, s.Propagate(func() { sv.RankFirst(2) }))
	require.NoError(t, s.Propagate(func() { sv.RankFirst(0) }))
	require.True(t, sv.Bound())
	require.Equal(t, []int{1, 2, 0}, sv.FillSequence(nil))
}

func TestSequenceRankFirstTwiceFails(t *testing.T) {
	s := NewSolver("seq")
	sv, _ := newSequence(t, s, 2)
	require.NoError(t, s.Propagate(func() { sv.RankFirst(0) }))
	err := s.Propagate(func() { sv.RankFirst(0) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestSequenceRemoveFromFront(t *testing.T) {
	s := NewSolver("seq")
	sv, _ := newSequence(t, s, 2)

	require.NoError(t, s.Propagate(func() { sv.RemoveFromFront(0) }))
	require.Equal(t, 1, sv.CandidateFront())

	// Refuting the last viable candidate for the front position fails.
	err := s.Propagate(func() { sv.RemoveFromFront(1) })
	require.ErrorIs(t, err, ErrFailed)
}

func TestSequenceRefutationsRevertOnBacktrack(t *testing.T) {
	s := NewSolver("seq")
	sv, _ := newSequence(t, s, 2)

	s.PushState()
	require.NoError(t, s.Propagate(func() { sv.RemoveFromFront(0) }))
	require.Equal(t, 1, sv.CandidateFront())
	s.PopState()
	require.Equal(t, 0, sv.CandidateFront())
}

func TestSequenceSearchWithRankDecisions(t *testing.T) {
	s := NewSolver("seq")
	sv, _ := newSequence(t, s, 2)

	db := &sequenceBuilder{seq: sv}
	sch := s.NewSearch(db)
	orders := [][]int{}
	for sch.Next() {
		orders = append(orders, sv.FillSequence(nil))
	}
	require.Equal(t, [][]int{{0, 1}, {1, 0}}, orders)
	require.Equal(t, StatusExhausted, sch.Status())
}

// sequenceBuilder ranks the first viable candidate at each node.
type sequenceBuilder struct {
	seq *SequenceVar
}

func (b *sequenceBuilder) Next(s *Solver) Decision {
	if b.seq.Bound() {
		return nil
	}
	idx := b.seq.CandidateFront()
	if idx < 0 {
		return nil
	}
	return NewRankFirstDecision(b.seq, idx)
}
