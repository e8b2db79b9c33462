package cpkernel

import "fmt"

// Decision is a pair of alternative mutations evaluated against the
// current state. Apply takes the left branch; Refute takes the right
// branch after the left one failed. Decisions live only while on the
// search stack.
type Decision interface {
	Apply(s *Solver)
	Refute(s *Solver)
	String() string
}

// DecisionBuilder produces the next decision for the search driver, or
// nil when the current state is a solution (nothing left to decide).
type DecisionBuilder interface {
	Next(s *Solver) Decision
}

// assignDecision branches on v == value versus v != value.
type assignDecision struct {
	v     *IntVar
	value int64
}

// NewAssignDecision builds the classic enumeration decision: left branch
// fixes v to value, right branch removes value from v's domain.
func NewAssignDecision(v *IntVar, value int64) Decision {
	if v == nil {
		Abort("NewAssignDecision", "nil variable")
	}
	return &assignDecision{v: v, value: value}
}

func (d *assignDecision) Apply(s *Solver)  { d.v.SetValue(d.value) }
func (d *assignDecision) Refute(s *Solver) { d.v.RemoveValue(d.value) }
func (d *assignDecision) String() string {
	return fmt.Sprintf("%s == %d", d.v.Name(), d.value)
}

// splitDecision branches on v <= mid versus v > mid.
type splitDecision struct {
	v   *IntVar
	mid int64
}

// NewSplitDecision builds a domain-bisection decision around mid.
func NewSplitDecision(v *IntVar, mid int64) Decision {
	if v == nil {
		Abort("NewSplitDecision", "nil variable")
	}
	return &splitDecision{v: v, mid: mid}
}

func (d *splitDecision) Apply(s *Solver)  { d.v.SetMax(d.mid) }
func (d *splitDecision) Refute(s *Solver) { d.v.SetMin(CapAdd(d.mid, 1)) }
func (d *splitDecision) String() string {
	return fmt.Sprintf("%s <= %d", d.v.Name(), d.mid)
}

// rankFirstDecision branches on ranking interval index first in a
// sequence versus forbidding it from the front position.
type rankFirstDecision struct {
	seq   *SequenceVar
	index int
}

// NewRankFirstDecision builds a sequencing decision: left branch ranks
// interval index at the front of seq's remaining candidates, right branch
// removes it from the candidate set for that position.
func NewRankFirstDecision(seq *SequenceVar, index int) Decision {
	if seq == nil {
		Abort("NewRankFirstDecision", "nil sequence")
	}
	return &rankFirstDecision{seq: seq, index: index}
}

func (d *rankFirstDecision) Apply(s *Solver)  { d.seq.RankFirst(d.index) }
func (d *rankFirstDecision) Refute(s *Solver) { d.seq.RemoveFromFront(d.index) }
func (d *rankFirstDecision) String() string {
	return fmt.Sprintf("%s ranks %d first", d.seq.Name(), d.index)
}

// firstUnboundBuilder assigns the smallest value of the first unbound
// variable, in the order the variables were given.
type firstUnboundBuilder struct {
	vars []*IntVar
}

// NewAssignFirstUnbound returns the baseline decision builder: pick the
// first unbound variable in vars, assign its minimum. Hosts with real
// branching heuristics supply their own DecisionBuilder instead.
func NewAssignFirstUnbound(vars []*IntVar) DecisionBuilder {
	if len(vars) == 0 {
		Abort("NewAssignFirstUnbound", "empty variable list")
	}
	for i, v := range vars {
		if v == nil {
			Abort("NewAssignFirstUnbound", "nil variable at index %d", i)
		}
	}
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &firstUnboundBuilder{vars: copied}
}

func (b *firstUnboundBuilder) Next(s *Solver) Decision {
	for _, v := range b.vars {
		if !v.Bound() {
			return NewAssignDecision(v, v.Min())
		}
	}
	return nil
}
