package cpkernel

import (
	"errors"
	"fmt"
)

// ErrFailed wraps every logical contradiction surfaced at a propagation
// boundary. Hosts test for it with errors.Is; the wrapped message carries
// the failing propagator's reason string.
var ErrFailed = errors.New("propagation failed")

// SolverConfig carries the kernel's tuning knobs. The zero value is not
// usable; construct via DefaultSolverConfig and override fields.
type SolverConfig struct {
	// TreeFanout is the fan-out B of the balanced aggregate trees. The
	// algorithms are correct for any B >= 2; 64 keeps tree depth at 2-3
	// for the array sizes routing and scheduling models produce.
	TreeFanout int
}

// DefaultSolverConfig returns the production defaults.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{TreeFanout: 64}
}

// Solver owns the trail, the variable and constraint registries, the
// demon arena, and the event queue; the decision stack lives in Search.
// It is the single
// mutation authority: every reversible cell in the model is bound to this
// solver's trail, and every demon runs on this solver's queue. A Solver
// is single-threaded; hosts wanting parallelism run independent Solver
// instances.
type Solver struct {
	name   string
	config SolverConfig

	trail *Trail
	arena *demonArena
	queue *eventQueue

	// queueFrozen suppresses demon draining while an Assignment restore
	// batches writes; the pending demons run in one pass on unfreeze.
	queueFrozen bool

	// passSeq identifies the current propagation pass; variables use it to
	// lazily refresh their previous-bounds snapshots.
	passSeq uint64

	intVars      []*IntVar
	intervalVars []IntervalVar
	seqVars      []*SequenceVar
	constraints  []Constraint

	// Step counters polled by search limits.
	branches  int64
	failures  int64
	solutions int64
}

// NewSolver creates a solver with default configuration.
func NewSolver(name string) *Solver {
	return NewSolverWithConfig(name, DefaultSolverConfig())
}

// NewSolverWithConfig creates a solver with explicit configuration.
func NewSolverWithConfig(name string, config SolverConfig) *Solver {
	if config.TreeFanout < 2 {
		Abort("NewSolverWithConfig", "tree fan-out must be >= 2, got %d", config.TreeFanout)
	}
	s := &Solver{
		name:   name,
		config: config,
		trail:  NewTrail(),
		arena:  &demonArena{},
	}
	s.queue = newEventQueue(s.arena)
	return s
}

// Name returns the solver's display name.
func (s *Solver) Name() string { return s.name }

// Config returns the solver's configuration.
func (s *Solver) Config() SolverConfig { return s.config }

// NewIntVar creates an integer variable with domain [lo,hi] and registers
// it with the solver. Variables with an empty name are usable but are
// silently dropped by Assignment save/load.
func (s *Solver) NewIntVar(lo, hi int64, name string) *IntVar {
	v := newIntVar(s, len(s.intVars), lo, hi, name)
	s.intVars = append(s.intVars, v)
	return v
}

// NewBoolVar creates a [0,1] variable.
func (s *Solver) NewBoolVar(name string) *IntVar {
	return s.NewIntVar(0, 1, name)
}

// IntVars returns the registered integer variables in creation order.
func (s *Solver) IntVars() []*IntVar { return s.intVars }

// IntervalVars returns the registered interval variables in creation order.
func (s *Solver) IntervalVars() []IntervalVar { return s.intervalVars }

// SequenceVars returns the registered sequence variables in creation order.
func (s *Solver) SequenceVars() []*SequenceVar { return s.seqVars }

// Constraints returns the posted constraints in post order.
func (s *Solver) Constraints() []Constraint { return s.constraints }

// registerDemon places d in the solver-owned arena and returns its handle.
func (s *Solver) registerDemon(d *Demon) demonHandle {
	return s.arena.register(d)
}

// Post registers c, subscribes its demons, runs its initial propagation,
// and drains the resulting events to a fixpoint. A contradiction during
// initial propagation is returned as ErrFailed: the model is infeasible
// at the root.
func (s *Solver) Post(c Constraint) error {
	if c == nil {
		Abort("Solver.Post", "nil constraint")
	}
	s.constraints = append(s.constraints, c)
	return s.Propagate(func() {
		c.Post()
		c.InitialPropagate()
	})
}

// Propagate starts a new propagation pass: it runs mutate (which may be
// nil), then drains the event queue to a fixpoint. A Fail raised anywhere
// inside is recovered here, the queue is cleared, and ErrFailed is
// returned; the caller owns the trail rollback.
func (s *Solver) Propagate(mutate func()) error {
	s.passSeq++
	reason, failed := recoverFail(func() {
		if mutate != nil {
			mutate()
		}
		s.drainAll()
	})
	if failed {
		s.queue.Clear()
		return fmt.Errorf("%w: %s", ErrFailed, reason)
	}
	return nil
}

// drainAll pops and runs demons in priority order until every queue is
// empty. Demons run here may enqueue further demons at any priority.
func (s *Solver) drainAll() {
	if s.queueFrozen {
		return
	}
	for {
		e, ok := s.queue.popNext()
		if !ok {
			return
		}
		s.runDemon(e)
	}
}

// drainFor runs demons until v's in-process batch has fully executed.
// Entries belonging to other variables that sit ahead in the FIFOs run
// too; their own batch accounting is updated through their queue entries.
func (s *Solver) drainFor(v *IntVar) {
	for v.hasPendingOwn() {
		e, ok := s.queue.popNext()
		if !ok {
			return
		}
		s.runDemon(e)
	}
}

func (s *Solver) runDemon(e queueEntry) {
	if e.owner != nil {
		defer e.owner.onDemonRun()
	}
	s.arena.get(e.h).Run()
}

// freezeQueue suppresses demon execution; writes still enqueue. Used by
// Assignment.Restore so that a batch of restored bounds propagates in a
// single pass.
func (s *Solver) freezeQueue() { s.queueFrozen = true }

// unfreezeQueue re-enables execution and drains whatever accumulated.
func (s *Solver) unfreezeQueue() error {
	s.queueFrozen = false
	return s.Propagate(nil)
}

// PushState marks a restore point on the trail, entering a new search
// node. Returns the node depth.
func (s *Solver) PushState() int { return s.trail.PushCheckpoint() }

// PopState rewinds the most recent restore point.
func (s *Solver) PopState() { s.trail.PopOne() }

// Depth returns the current search-node depth.
func (s *Solver) Depth() int { return s.trail.Depth() }

// Branches returns the number of branching decisions taken so far.
func (s *Solver) Branches() int64 { return s.branches }

// Failures returns the number of contradictions encountered so far.
func (s *Solver) Failures() int64 { return s.failures }

// Solutions returns the number of solutions found so far.
func (s *Solver) Solutions() int64 { return s.solutions }
