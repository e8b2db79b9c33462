package cpkernel

import "fmt"

// SequenceVar ranks a fixed set of interval variables: its domain is a
// permutation of the interval indices, built front-to-back by RankFirst
// decisions. Ranking an interval first among the remaining candidates
// pushes every still-unranked performed interval after it in time.
type SequenceVar struct {
	solver    *Solver
	name      string
	intervals []IntervalVar

	ranked   *RevFIFO[int]
	unranked *RevBitset

	// frontForbidden records (position, index) pairs refuted by search:
	// index may not be ranked at that position. Packed as pos<<32 | index;
	// reversible, so refutations vanish on backtrack.
	frontForbidden *RevFIFO[int64]

	listeners *RevFIFO[demonHandle]
}

// NewSequenceVar creates a sequence over the given intervals.
func (s *Solver) NewSequenceVar(intervals []IntervalVar, name string) *SequenceVar {
	if len(intervals) == 0 {
		Abort("NewSequenceVar", "%s: empty interval list", name)
	}
	for i, iv := range intervals {
		if iv == nil {
			Abort("NewSequenceVar", "%s: nil interval at index %d", name, i)
		}
	}
	copied := make([]IntervalVar, len(intervals))
	copy(copied, intervals)
	sv := &SequenceVar{
		solver:         s,
		name:           name,
		intervals:      copied,
		ranked:         NewRevFIFO[int](s.trail),
		unranked:       NewRevBitsetAllSet(s.trail, len(intervals)),
		frontForbidden: NewRevFIFO[int64](s.trail),
		listeners:      NewRevFIFO[demonHandle](s.trail),
	}
	s.seqVars = append(s.seqVars, sv)
	return sv
}

// Name returns the sequence's display name.
func (sv *SequenceVar) Name() string { return sv.name }

// Size returns the number of intervals in the sequence.
func (sv *SequenceVar) Size() int { return len(sv.intervals) }

// Interval returns the i'th interval of the underlying set.
func (sv *SequenceVar) Interval(i int) IntervalVar { return sv.intervals[i] }

// RankedCount returns how many intervals have been ranked so far.
func (sv *SequenceVar) RankedCount() int { return sv.ranked.Len() }

// Bound reports whether the ranking is complete.
func (sv *SequenceVar) Bound() bool { return sv.ranked.Len() == len(sv.intervals) }

// FillSequence writes the current ranking into out: the ranked prefix in
// rank order, then the unranked indices in ascending order. out is
// truncated and reused when it has capacity.
func (sv *SequenceVar) FillSequence(out []int) []int {
	out = out[:0]
	sv.ranked.Each(func(i int) { out = append(out, i) })
	sv.unranked.Each(func(i int) { out = append(out, i) })
	return out
}

// RankFirst ranks interval index first among the remaining candidates.
// Every other still-unranked performed interval is pushed to start no
// earlier than the ranked interval's earliest end.
func (sv *SequenceVar) RankFirst(index int) {
	if index < 0 || index >= len(sv.intervals) {
		Abort("SequenceVar.RankFirst", "%s: index %d out of range [0,%d)", sv.name, index, len(sv.intervals))
	}
	if !sv.unranked.Has(index) {
		Fail("%s: interval %d is already ranked", sv.name, index)
	}
	if sv.forbiddenAtFront(index) {
		Fail("%s: interval %d is refuted at position %d", sv.name, index, sv.ranked.Len())
	}
	sv.ranked.Push(index)
	sv.unranked.Clear(index)

	first := sv.intervals[index]
	if first.MayBePerformed() {
		endMin := first.EndMin()
		sv.unranked.Each(func(j int) {
			other := sv.intervals[j]
			if other.MayBePerformed() {
				other.SetStartMin(endMin)
			}
		})
	}
	sv.scheduleListeners()
}

// RemoveFromFront refutes ranking index at the current front position.
// Fails when every remaining candidate has been refuted there.
func (sv *SequenceVar) RemoveFromFront(index int) {
	if index < 0 || index >= len(sv.intervals) {
		Abort("SequenceVar.RemoveFromFront", "%s: index %d out of range [0,%d)", sv.name, index, len(sv.intervals))
	}
	if !sv.unranked.Has(index) {
		return
	}
	sv.frontForbidden.Push(packFront(sv.ranked.Len(), index))

	viable := 0
	sv.unranked.Each(func(j int) {
		if !sv.forbiddenAtFront(j) {
			viable++
		}
	})
	if viable == 0 {
		Fail("%s: no candidate left for position %d", sv.name, sv.ranked.Len())
	}
	sv.scheduleListeners()
}

// CandidateFront returns the lowest-indexed unranked interval not refuted
// at the current front position, or -1 when none remains. Decision
// builders use it to enumerate sequencing choices.
func (sv *SequenceVar) CandidateFront() int {
	found := -1
	sv.unranked.Each(func(j int) {
		if found == -1 && !sv.forbiddenAtFront(j) {
			found = j
		}
	})
	return found
}

func (sv *SequenceVar) forbiddenAtFront(index int) bool {
	key := packFront(sv.ranked.Len(), index)
	forbidden := false
	sv.frontForbidden.Each(func(v int64) {
		if v == key {
			forbidden = true
		}
	})
	return forbidden
}

func packFront(pos, index int) int64 {
	return int64(pos)<<32 | int64(index)
}

// WhenAnything fires d on every ranking change.
func (sv *SequenceVar) WhenAnything(d *Demon) {
	sv.listeners.Push(sv.solver.registerDemon(d))
}

func (sv *SequenceVar) scheduleListeners() {
	sv.listeners.Each(func(h demonHandle) {
		sv.solver.queue.Schedule(h)
	})
	if !sv.solver.queueFrozen {
		sv.solver.drainAll()
	}
}

func (sv *SequenceVar) String() string {
	return fmt.Sprintf("%s(ranked %d/%d)", sv.name, sv.ranked.Len(), len(sv.intervals))
}
