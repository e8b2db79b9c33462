package cpkernel

import (
	"fmt"
	"io"

	"github.com/gitrdm/cpkernel/internal/wire"
)

// IntVarElement is an Assignment's snapshot of one integer variable: a
// stored range plus an activation flag. Deactivated elements are carried
// through save/load but skipped on restore.
type IntVarElement struct {
	v        *IntVar
	min, max int64
	active   bool
}

// Var returns the element's variable.
func (e *IntVarElement) Var() *IntVar { return e.v }

// Min returns the stored lower bound.
func (e *IntVarElement) Min() int64 { return e.min }

// Max returns the stored upper bound.
func (e *IntVarElement) Max() int64 { return e.max }

// Value returns the stored value of a bound snapshot.
func (e *IntVarElement) Value() int64 {
	if e.min != e.max {
		Abort("IntVarElement.Value", "%s stored range [%d,%d] is not a value", e.v.Name(), e.min, e.max)
	}
	return e.min
}

// Activated reports whether restore applies this element.
func (e *IntVarElement) Activated() bool { return e.active }

// Activate re-enables the element; Deactivate excludes it from restore.
func (e *IntVarElement) Activate()   { e.active = true }
func (e *IntVarElement) Deactivate() { e.active = false }

// SetRange overwrites the stored bounds, e.g. to edit an assignment
// before restoring it.
func (e *IntVarElement) SetRange(l, u int64) {
	if l > u {
		Abort("IntVarElement.SetRange", "%s: malformed range [%d,%d]", e.v.Name(), l, u)
	}
	e.min, e.max = l, u
}

// IntervalVarElement snapshots one interval variable.
type IntervalVarElement struct {
	v      IntervalVar
	sn     intervalSnapshot
	active bool
}

// Var returns the element's interval.
func (e *IntervalVarElement) Var() IntervalVar { return e.v }

// Activated reports whether restore applies this element.
func (e *IntervalVarElement) Activated() bool { return e.active }

// Activate re-enables the element; Deactivate excludes it from restore.
func (e *IntervalVarElement) Activate()   { e.active = true }
func (e *IntervalVarElement) Deactivate() { e.active = false }

// StartMin returns the stored earliest start.
func (e *IntervalVarElement) StartMin() int64 { return e.sn.startMin }

// StartMax returns the stored latest start.
func (e *IntervalVarElement) StartMax() int64 { return e.sn.startMax }

// EndMin returns the stored earliest end.
func (e *IntervalVarElement) EndMin() int64 { return e.sn.endMin }

// EndMax returns the stored latest end.
func (e *IntervalVarElement) EndMax() int64 { return e.sn.endMax }

// Performed reports the stored performed flag as (mayBe, mustBe).
func (e *IntervalVarElement) Performed() (mayBe, mustBe bool) {
	return e.sn.perfMax == 1, e.sn.perfMin == 1
}

// SequenceVarElement snapshots one sequence variable's ranked prefix.
type SequenceVarElement struct {
	v      *SequenceVar
	ranked []int
	active bool
}

// Var returns the element's sequence.
func (e *SequenceVarElement) Var() *SequenceVar { return e.v }

// Activated reports whether restore applies this element.
func (e *SequenceVarElement) Activated() bool { return e.active }

// Activate re-enables the element; Deactivate excludes it from restore.
func (e *SequenceVarElement) Activate()   { e.active = true }
func (e *SequenceVarElement) Deactivate() { e.active = false }

// Ranked returns the stored ranked prefix.
func (e *SequenceVarElement) Ranked() []int { return e.ranked }

// Assignment is a user-visible container of variable snapshots. It
// outlives individual search nodes: a stored assignment survives
// backtracking and can be restored into any compatible solver state, or
// serialized and reloaded across processes.
type Assignment struct {
	solver    *Solver
	ints      []*IntVarElement
	intervals []*IntervalVarElement
	sequences []*SequenceVarElement
	objective *IntVarElement
}

// NewAssignment creates an empty assignment bound to s.
func (s *Solver) NewAssignment() *Assignment {
	return &Assignment{solver: s}
}

// Add creates an element for v and returns it.
func (a *Assignment) Add(v *IntVar) *IntVarElement {
	if v == nil {
		Abort("Assignment.Add", "nil variable")
	}
	e := &IntVarElement{v: v, min: v.Min(), max: v.Max(), active: true}
	a.ints = append(a.ints, e)
	return e
}

// AddInterval creates an element for iv and returns it.
func (a *Assignment) AddInterval(iv IntervalVar) *IntervalVarElement {
	if iv == nil {
		Abort("Assignment.AddInterval", "nil interval")
	}
	e := &IntervalVarElement{v: iv, sn: iv.snapshot(), active: true}
	a.intervals = append(a.intervals, e)
	return e
}

// AddSequence creates an element for sv and returns it.
func (a *Assignment) AddSequence(sv *SequenceVar) *SequenceVarElement {
	if sv == nil {
		Abort("Assignment.AddSequence", "nil sequence")
	}
	e := &SequenceVarElement{v: sv, active: true}
	a.sequences = append(a.sequences, e)
	return e
}

// AddObjective designates v as the assignment's objective. Adding a
// second objective is a programming error.
func (a *Assignment) AddObjective(v *IntVar) *IntVarElement {
	if v == nil {
		Abort("Assignment.AddObjective", "nil variable")
	}
	if a.objective != nil {
		Abort("Assignment.AddObjective", "objective already set to %s", a.objective.v.Name())
	}
	a.objective = &IntVarElement{v: v, min: v.Min(), max: v.Max(), active: true}
	return a.objective
}

// Objective returns the objective element, or nil.
func (a *Assignment) Objective() *IntVarElement { return a.objective }

// IntVarElements returns the integer elements in add order.
func (a *Assignment) IntVarElements() []*IntVarElement { return a.ints }

// IntervalVarElements returns the interval elements in add order.
func (a *Assignment) IntervalVarElements() []*IntervalVarElement { return a.intervals }

// SequenceVarElements returns the sequence elements in add order.
func (a *Assignment) SequenceVarElements() []*SequenceVarElement { return a.sequences }

// Store copies the current state of every element's variable into the
// element.
func (a *Assignment) Store() {
	for _, e := range a.ints {
		e.min, e.max = e.v.Min(), e.v.Max()
	}
	for _, e := range a.intervals {
		e.sn = e.v.snapshot()
	}
	for _, e := range a.sequences {
		order := e.v.FillSequence(nil)
		e.ranked = append(e.ranked[:0], order[:e.v.RankedCount()]...)
	}
	if a.objective != nil {
		a.objective.min, a.objective.max = a.objective.v.Min(), a.objective.v.Max()
	}
}

// Restore pushes every active element's stored state back into its
// variable. The event queue is frozen for the duration: all restored
// bounds land first, then a single propagation pass runs. A
// contradiction between the stored state and the current domains is
// returned as ErrFailed.
func (a *Assignment) Restore() error {
	s := a.solver
	s.freezeQueue()
	reason, failed := recoverFail(func() {
		for _, e := range a.ints {
			if e.active {
				e.v.SetRange(e.min, e.max)
			}
		}
		for _, e := range a.intervals {
			if e.active {
				e.v.restoreSnapshot(e.sn)
			}
		}
		for _, e := range a.sequences {
			if !e.active {
				continue
			}
			for _, idx := range e.ranked {
				if e.v.unranked.Has(idx) {
					e.v.RankFirst(idx)
				}
			}
		}
		if a.objective != nil && a.objective.active {
			a.objective.v.SetRange(a.objective.min, a.objective.max)
		}
	})
	if failed {
		s.queueFrozen = false
		s.queue.Clear()
		return fmt.Errorf("%w: %s", ErrFailed, reason)
	}
	return s.unfreezeQueue()
}

// Save serializes the assignment to w, keyed by variable name. Elements
// with empty names are silently dropped; duplicate names are skipped
// with a warning.
func (a *Assignment) Save(w io.Writer) error {
	rec := &wire.Assignment{}
	seen := map[string]bool{}
	usable := func(kind, name string) bool {
		if name == "" {
			return false
		}
		if seen[kind+"\x00"+name] {
			log.Warn().Str("variable", name).Msg("duplicate variable name; skipping element")
			return false
		}
		seen[kind+"\x00"+name] = true
		return true
	}
	for _, e := range a.ints {
		if !usable("int", e.v.Name()) {
			continue
		}
		rec.IntVars = append(rec.IntVars, wire.IntVarEntry{
			Name: e.v.Name(), Min: e.min, Max: e.max, Active: e.active,
		})
	}
	for _, e := range a.intervals {
		if !usable("interval", e.v.Name()) {
			continue
		}
		rec.IntervalVars = append(rec.IntervalVars, wire.IntervalVarEntry{
			Name:     e.v.Name(),
			StartMin: e.sn.startMin, StartMax: e.sn.startMax,
			DurMin: e.sn.durMin, DurMax: e.sn.durMax,
			EndMin: e.sn.endMin, EndMax: e.sn.endMax,
			PerfMin: e.sn.perfMin, PerfMax: e.sn.perfMax,
			Active: e.active,
		})
	}
	for _, e := range a.sequences {
		if !usable("sequence", e.v.Name()) {
			continue
		}
		entry := wire.SequenceVarEntry{Name: e.v.Name(), Active: e.active}
		for _, idx := range e.ranked {
			entry.Sequence = append(entry.Sequence, int64(idx))
		}
		rec.SequenceVars = append(rec.SequenceVars, entry)
	}
	if a.objective != nil && a.objective.v.Name() != "" {
		rec.Objective = &wire.IntVarEntry{
			Name: a.objective.v.Name(), Min: a.objective.min, Max: a.objective.max,
			Active: a.objective.active,
		}
	}
	return wire.Write(w, rec)
}

// Load reads one serialized record from r and copies matching entries
// into this assignment's elements, matched by variable name. Entries
// naming no element are skipped with a warning; elements the record does
// not mention keep their stored state.
func (a *Assignment) Load(r io.Reader) error {
	rec, err := wire.Read(r)
	if err != nil {
		return fmt.Errorf("loading assignment: %w", err)
	}
	intByName := map[string]*IntVarElement{}
	for _, e := range a.ints {
		if name := e.v.Name(); name != "" {
			intByName[name] = e
		}
	}
	for _, entry := range rec.IntVars {
		e, ok := intByName[entry.Name]
		if !ok {
			log.Warn().Str("variable", entry.Name).Msg("loaded entry matches no element; skipping")
			continue
		}
		e.min, e.max, e.active = entry.Min, entry.Max, entry.Active
	}
	itvByName := map[string]*IntervalVarElement{}
	for _, e := range a.intervals {
		if name := e.v.Name(); name != "" {
			itvByName[name] = e
		}
	}
	for _, entry := range rec.IntervalVars {
		e, ok := itvByName[entry.Name]
		if !ok {
			log.Warn().Str("variable", entry.Name).Msg("loaded entry matches no element; skipping")
			continue
		}
		e.sn = intervalSnapshot{
			startMin: entry.StartMin, startMax: entry.StartMax,
			durMin: entry.DurMin, durMax: entry.DurMax,
			endMin: entry.EndMin, endMax: entry.EndMax,
			perfMin: entry.PerfMin, perfMax: entry.PerfMax,
		}
		e.active = entry.Active
	}
	seqByName := map[string]*SequenceVarElement{}
	for _, e := range a.sequences {
		if name := e.v.Name(); name != "" {
			seqByName[name] = e
		}
	}
	for _, entry := range rec.SequenceVars {
		e, ok := seqByName[entry.Name]
		if !ok {
			log.Warn().Str("variable", entry.Name).Msg("loaded entry matches no element; skipping")
			continue
		}
		e.ranked = e.ranked[:0]
		for _, idx := range entry.Sequence {
			e.ranked = append(e.ranked, int(idx))
		}
		e.active = entry.Active
	}
	if rec.Objective != nil && a.objective != nil && a.objective.v.Name() == rec.Objective.Name {
		a.objective.min = rec.Objective.Min
		a.objective.max = rec.Objective.Max
		a.objective.active = rec.Objective.Active
	}
	return nil
}
