package cpkernel

import (
	"time"

	"github.com/google/uuid"
)

// SearchMonitor receives the search driver's lifecycle events. Host code
// (decision builders, local-search operators, solution collectors) plugs
// in here; the kernel itself ships only the Limit monitor.
type SearchMonitor interface {
	EnterSearch(sch *Search)
	ExitSearch(sch *Search)
	ApplyDecision(d Decision)
	RefuteDecision(d Decision)
	BeginFail()
}

// BaseMonitor is a no-op SearchMonitor for embedding, so monitors only
// override the hooks they care about.
type BaseMonitor struct{}

func (BaseMonitor) EnterSearch(*Search)     {}
func (BaseMonitor) ExitSearch(*Search)      {}
func (BaseMonitor) ApplyDecision(Decision)  {}
func (BaseMonitor) RefuteDecision(Decision) {}
func (BaseMonitor) BeginFail()              {}

// limiter is the optional interface a monitor implements to bound the
// search. Exceeded is polled at the start of each pass and at each
// branching point; returning true aborts the search with StatusTimedOut,
// leaving the model in its last consistent state.
type limiter interface {
	Exceeded(sch *Search) bool
}

// Limit bounds a search by wall-clock time, branches, failures, or
// solutions. Zero fields are unlimited. A Limit is a SearchMonitor; pass
// it to NewSearch alongside any host monitors.
type Limit struct {
	BaseMonitor
	Duration  time.Duration
	Branches  int64
	Failures  int64
	Solutions int64

	start         time.Time
	baseBranches  int64
	baseFailures  int64
	baseSolutions int64
	tripped       string
}

// TrippedOn reports which bound fired ("time", "branches", "failures",
// "solutions"), or "" if the limit has not fired.
func (l *Limit) TrippedOn() string { return l.tripped }

// EnterSearch snapshots the solver's counters so the limit measures this
// search only, not the solver's lifetime totals.
func (l *Limit) EnterSearch(sch *Search) {
	l.start = time.Now()
	l.baseBranches = sch.solver.branches
	l.baseFailures = sch.solver.failures
	l.baseSolutions = sch.solver.solutions
}

// Exceeded implements limiter.
func (l *Limit) Exceeded(sch *Search) bool {
	if l.tripped != "" {
		return true
	}
	s := sch.solver
	switch {
	case l.Duration > 0 && time.Since(l.start) >= l.Duration:
		l.tripped = "time"
	case l.Branches > 0 && s.branches-l.baseBranches >= l.Branches:
		l.tripped = "branches"
	case l.Failures > 0 && s.failures-l.baseFailures >= l.Failures:
		l.tripped = "failures"
	case l.Solutions > 0 && s.solutions-l.baseSolutions >= l.Solutions:
		l.tripped = "solutions"
	default:
		return false
	}
	log.Info().
		Str("search", sch.id).
		Str("solver", sch.solver.name).
		Str("limit", l.tripped).
		Msg("search limit reached")
	return true
}

// searchFrame is one entry of the decision stack.
type searchFrame struct {
	decision Decision
	refuted  bool
}

// Search is one depth-first exploration of the model's search tree under
// a DecisionBuilder. Next advances to the next solution; between calls
// the solver's variables hold the solution found. When Next returns
// false, Status distinguishes an exhausted tree from a limit hit.
type Search struct {
	id       string
	solver   *Solver
	db       DecisionBuilder
	monitors []SearchMonitor

	stack     []*searchFrame
	rootDepth int
	started   bool
	done      bool
	limitHit  bool
	status    SolveStatus
}

// NewSearch prepares a search session. The decision builder is consulted
// for every branching point; monitors observe the traversal.
func (s *Solver) NewSearch(db DecisionBuilder, monitors ...SearchMonitor) *Search {
	if db == nil {
		Abort("Solver.NewSearch", "nil decision builder")
	}
	return &Search{
		id:       uuid.NewString(),
		solver:   s,
		db:       db,
		monitors: monitors,
		status:   StatusExhausted,
	}
}

// Solve runs a search to its first solution. The returned Search can be
// continued with Next for further solutions.
func (s *Solver) Solve(db DecisionBuilder, monitors ...SearchMonitor) (*Search, bool) {
	sch := s.NewSearch(db, monitors...)
	return sch, sch.Next()
}

// ID returns the session's unique identifier, usable to correlate
// diagnostics across monitors.
func (sch *Search) ID() string { return sch.id }

// Status reports how the search ended; meaningful once Next has returned
// false, or while iterating (StatusSolved after any solution).
func (sch *Search) Status() SolveStatus { return sch.status }

// Next advances to the next solution. Returns true with the solver's
// variables narrowed to the solution, or false when the tree is exhausted
// or a limit fired.
func (sch *Search) Next() bool {
	if sch.done {
		return false
	}
	if !sch.started {
		sch.started = true
		for _, m := range sch.monitors {
			m.EnterSearch(sch)
		}
		sch.rootDepth = sch.solver.Depth()
		sch.solver.PushState()
		if err := sch.solver.Propagate(nil); err != nil {
			sch.onFail()
			sch.solver.PopState()
			sch.finish(StatusExhausted)
			return false
		}
	} else {
		// Move past the current solution by treating the leaf as failed.
		if !sch.backtrack() {
			sch.finish(sch.backtrackStatus())
			return false
		}
	}

	for {
		if sch.exceeded() {
			sch.finish(StatusTimedOut)
			return false
		}
		d := sch.db.Next(sch.solver)
		if d == nil {
			sch.solver.solutions++
			sch.status = StatusSolved
			return true
		}
		if !sch.apply(d) {
			if !sch.backtrack() {
				sch.finish(sch.backtrackStatus())
				return false
			}
		}
	}
}

// apply takes d's left branch under a fresh checkpoint. Returns false on
// contradiction, leaving the failed writes on the trail for backtrack to
// unwind.
func (sch *Search) apply(d Decision) bool {
	sch.solver.branches++
	sch.solver.PushState()
	sch.stack = append(sch.stack, &searchFrame{decision: d})
	for _, m := range sch.monitors {
		m.ApplyDecision(d)
	}
	if err := sch.solver.Propagate(func() { d.Apply(sch.solver) }); err != nil {
		sch.onFail()
		return false
	}
	return true
}

// backtrack unwinds the decision stack until some decision's right branch
// survives propagation. Returns false when the stack empties, meaning the
// subtree under the root is exhausted.
func (sch *Search) backtrack() bool {
	for len(sch.stack) > 0 {
		top := sch.stack[len(sch.stack)-1]
		sch.solver.PopState()
		if !top.refuted {
			top.refuted = true
			if sch.exceeded() {
				// Leave the model as-is; the caller finishes with the
				// limit status.
				sch.limitHit = true
				return false
			}
			sch.solver.branches++
			sch.solver.PushState()
			for _, m := range sch.monitors {
				m.RefuteDecision(top.decision)
			}
			if err := sch.solver.Propagate(func() { top.decision.Refute(sch.solver) }); err == nil {
				return true
			}
			sch.onFail()
			sch.solver.PopState()
		}
		sch.stack = sch.stack[:len(sch.stack)-1]
	}
	return false
}

// backtrackStatus tells a failed backtrack apart by cause: a limit trip
// is not tree exhaustion.
func (sch *Search) backtrackStatus() SolveStatus {
	if sch.limitHit {
		return StatusTimedOut
	}
	return StatusExhausted
}

func (sch *Search) exceeded() bool {
	for _, m := range sch.monitors {
		if l, ok := m.(limiter); ok && l.Exceeded(sch) {
			return true
		}
	}
	return false
}

func (sch *Search) onFail() {
	sch.solver.failures++
	for _, m := range sch.monitors {
		m.BeginFail()
	}
}

// finish seals the session. An exhausted search rewinds the trail to the
// pre-search state; a limited one leaves the model in its last consistent
// state so the host can inspect or store it.
func (sch *Search) finish(status SolveStatus) {
	sch.done = true
	sch.status = status
	if status != StatusTimedOut {
		sch.solver.trail.PopTo(sch.rootDepth)
		sch.stack = nil
	}
	for _, m := range sch.monitors {
		m.ExitSearch(sch)
	}
}
