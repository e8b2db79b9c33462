package cpkernel

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAssignmentStoreRestore(t *testing.T) {
	s := NewSolver("asg")
	v := s.NewIntVar(0, 10, "v")
	iv := s.NewIntervalVar(0, 10, 3, 5, 0, 20, false, "task")
	seq, _ := newSequence(t, s, 2)

	asg := s.NewAssignment()
	asg.Add(v)
	asg.AddInterval(iv)
	asg.AddSequence(seq)

	s.PushState()
	require.NoError(t, s.Propagate(func() {
		v.SetRange(3, 6)
		iv.SetEndMax(12)
		seq.RankFirst(1)
	}))
	asg.Store()
	require.Equal(t, int64(3), asg.IntVarElements()[0].Min())
	require.Equal(t, int64(6), asg.IntVarElements()[0].Max())

	// Stored state survives backtracking past the node it was taken in.
	s.PopState()
	require.Equal(t, int64(0), v.Min())
	require.Equal(t, int64(3), asg.IntVarElements()[0].Min())

	// Restoring pushes the snapshot back into the variables with one
	// propagation pass.
	require.NoError(t, asg.Restore())
	require.Equal(t, int64(3), v.Min())
	require.Equal(t, int64(6), v.Max())
	require.Equal(t, int64(12), iv.EndMax())
	require.Equal(t, 1, seq.RankedCount())
}

func TestAssignmentRestoreConflictFails(t *testing.T) {
	s := NewSolver("asg")
	v := s.NewIntVar(0, 10, "v")
	asg := s.NewAssignment()
	asg.Add(v)

	s.PushState()
	require.NoError(t, s.Propagate(func() { v.SetRange(2, 4) }))
	asg.Store()
	s.PopState()

	require.NoError(t, s.Propagate(func() { v.SetRange(7, 9) }))
	err := asg.Restore()
	require.ErrorIs(t, err, ErrFailed)
}

func TestAssignmentDeactivatedElementSkipsRestore(t *testing.T) {
	s := NewSolver("asg")
	v := s.NewIntVar(0, 10, "v")
	asg := s.NewAssignment()
	e := asg.Add(v)

	s.PushState()
	require.NoError(t, s.Propagate(func() { v.SetValue(5) }))
	asg.Store()
	s.PopState()

	e.Deactivate()
	require.NoError(t, asg.Restore())
	require.False(t, v.Bound())
}

func TestAssignmentSaveLoadRoundTrip(t *testing.T) {
	s := NewSolver("asg")
	v := s.NewIntVar(-5, 12, "v")
	w := s.NewIntVar(0, 3, "w")
	iv := s.NewIntervalVar(0, 10, 3, 5, 0, 20, true, "task")
	seq, _ := newSequence(t, s, 2)
	obj := s.NewIntVar(0, 99, "cost")

	asg := s.NewAssignment()
	asg.Add(v)
	asg.Add(w)
	asg.AddInterval(iv)
	asg.AddSequence(seq)
	asg.AddObjective(obj)

	require.NoError(t, s.Propagate(func() {
		v.SetRange(-2, 7)
		w.SetValue(2)
		seq.RankFirst(0)
	}))
	asg.Store()

	var first bytes.Buffer
	require.NoError(t, asg.Save(&first))

	// Load into a sibling assignment over the same model, then save
	// again: the round trip must be bit-exact.
	other := s.NewAssignment()
	other.Add(v)
	other.Add(w)
	other.AddInterval(iv)
	other.AddSequence(seq)
	other.AddObjective(obj)
	require.NoError(t, other.Load(bytes.NewReader(first.Bytes())))

	var second bytes.Buffer
	require.NoError(t, other.Save(&second))
	if diff := cmp.Diff(first.Bytes(), second.Bytes()); diff != "" {
		t.Fatalf("round trip not bit-exact (-first +second):\n%s", diff)
	}

	require.Equal(t, int64(-2), other.IntVarElements()[0].Min())
	require.Equal(t, int64(7), other.IntVarElements()[0].Max())
	require.Equal(t, []int{0}, other.SequenceVarElements()[0].Ranked())
}

func TestAssignmentSaveSkipsUnnamedAndDuplicates(t *testing.T) {
	s := NewSolver("asg")
	named := s.NewIntVar(0, 5, "x")
	unnamed := s.NewIntVar(0, 5, "")
	dup := s.NewIntVar(0, 5, "x")

	asg := s.NewAssignment()
	asg.Add(named)
	asg.Add(unnamed)
	asg.Add(dup)
	asg.Store()

	var buf bytes.Buffer
	require.NoError(t, asg.Save(&buf))

	other := s.NewAssignment()
	other.Add(named)
	require.NoError(t, other.Load(bytes.NewReader(buf.Bytes())))

	var out bytes.Buffer
	require.NoError(t, other.Save(&out))
	// Only the first "x" made it to the wire.
	loaded := s.NewAssignment()
	loaded.Add(s.NewIntVar(0, 5, "x"))
	require.NoError(t, loaded.Load(bytes.NewReader(out.Bytes())))
	require.Equal(t, int64(0), loaded.IntVarElements()[0].Min())
	require.Equal(t, int64(5), loaded.IntVarElements()[0].Max())
}

func TestAssignmentDoubleObjectiveAborts(t *testing.T) {
	s := NewSolver("asg")
	asg := s.NewAssignment()
	asg.AddObjective(s.NewIntVar(0, 1, "a"))

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a precondition panic on the second objective")
		}
		if _, ok := r.(*PreconditionError); !ok {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	asg.AddObjective(s.NewIntVar(0, 1, "b"))
}
