package cpkernel

import "fmt"

// EventClass identifies the kind of change that happened to an IntVar.
// Classes refine each other: Bound and Domain events both imply Range;
// Value fires exactly when Bound becomes satisfied on a variable that was
// previously unbound.
type EventClass int

const (
	EventRange  EventClass = iota // any bound (min or max) change
	EventBound                    // domain collapsed to a singleton
	EventDomain                   // any hole removed (domain shrunk without necessarily moving a bound)
	EventValue                    // bound() became true, having been false before this write
)

// IntVar is a finite-domain integer variable: a domain [min,max]
// optionally narrowed by a set of excluded interior values ("holes"),
// plus per-event-class listener lists and the previous-bounds bookkeeping
// observers need to compute deltas.
type IntVar struct {
	solver *Solver
	id     int
	name   string

	min *Rev[int64]
	max *Rev[int64]

	// holes records excluded interior values. Reversible via its backing
	// RevFIFO: a hole added at a node disappears automatically on
	// backtrack past that node. Membership is a linear scan, which is
	// appropriate here because this kernel targets bound consistency;
	// arc-consistent hole-heavy domains are out of scope.
	holes *RevFIFO[int64]

	// oldMin/oldMax snapshot the bounds this variable had at the start of
	// the current propagation pass, refreshed lazily the first time the
	// variable is written within a new pass (tracked by passSeq). These
	// are the previous bounds observers read to compute deltas; the two
	// sides are distinct fields and must never alias.
	oldMin, oldMax int64
	passSeq        uint64 // pass id at which oldMin/oldMax were last refreshed

	// in-process postponement state.
	inProcess  bool
	pendingOwn int
	shadowMin  int64
	shadowMax  int64
	shadowSet  bool

	listenRange  *RevFIFO[demonHandle]
	listenBound  *RevFIFO[demonHandle]
	listenDomain *RevFIFO[demonHandle]
	listenValue  *RevFIFO[demonHandle]

	wasBoundLastNotify bool
}

// newIntVar constructs a variable bound to solver s with initial domain
// [lo,hi]. Unexported: hosts create variables through Solver.NewIntVar.
func newIntVar(s *Solver, id int, lo, hi int64, name string) *IntVar {
	if lo > hi {
		Abort("IntVar", "empty initial domain [%d,%d] for %s", lo, hi, name)
	}
	v := &IntVar{
		solver:       s,
		id:           id,
		name:         name,
		min:          NewRev(s.trail, lo),
		max:          NewRev(s.trail, hi),
		holes:        NewRevFIFO[int64](s.trail),
		oldMin:       lo,
		oldMax:       hi,
		listenRange:  NewRevFIFO[demonHandle](s.trail),
		listenBound:  NewRevFIFO[demonHandle](s.trail),
		listenDomain: NewRevFIFO[demonHandle](s.trail),
		listenValue:  NewRevFIFO[demonHandle](s.trail),
	}
	v.wasBoundLastNotify = lo == hi
	return v
}

// ID returns the variable's identity within its solver.
func (v *IntVar) ID() int { return v.id }

// Name returns the variable's display name.
func (v *IntVar) Name() string { return v.name }

// Min returns the current lower bound.
func (v *IntVar) Min() int64 { return v.min.Get() }

// Max returns the current upper bound.
func (v *IntVar) Max() int64 { return v.max.Get() }

// Bound reports whether min == max.
func (v *IntVar) Bound() bool { return v.min.Get() == v.max.Get() }

// Value returns the singleton value. Precondition: Bound() is true.
func (v *IntVar) Value() int64 {
	if !v.Bound() {
		Abort("IntVar.Value", "%s is not bound ([%d,%d])", v.name, v.Min(), v.Max())
	}
	return v.min.Get()
}

func (v *IntVar) refreshOld() {
	seq := v.solver.passSeq
	if v.passSeq != seq {
		v.oldMin, v.oldMax = v.min.Get(), v.max.Get()
		v.passSeq = seq
	}
}

// OldMin returns the lower bound this variable had at the start of the
// current propagation pass.
func (v *IntVar) OldMin() int64 {
	v.refreshOld()
	return v.oldMin
}

// OldMax returns the upper bound this variable had at the start of the
// current propagation pass. Reads the max-side snapshot field and nothing
// else.
func (v *IntVar) OldMax() int64 {
	v.refreshOld()
	return v.oldMax
}

// Has reports whether value is within [min,max] and not an excluded hole.
func (v *IntVar) Has(value int64) bool {
	if value < v.min.Get() || value > v.max.Get() {
		return false
	}
	has := true
	v.holes.Each(func(h int64) {
		if h == value {
			has = false
		}
	})
	return has
}

// apply is the single choke point for every bound-narrowing write. It
// handles in-process redirection, cap-safe intersection, Fail on
// emptiness, and event scheduling. newMin/newMax must already be
// individually valid (no overflow); callers compute them with CapAdd/
// CapSub as needed before calling apply.
func (v *IntVar) apply(newMin, newMax int64) {
	if v.inProcess {
		if !v.shadowSet {
			v.shadowMin, v.shadowMax = newMin, newMax
			v.shadowSet = true
		} else {
			if newMin > v.shadowMin {
				v.shadowMin = newMin
			}
			if newMax < v.shadowMax {
				v.shadowMax = newMax
			}
		}
		return
	}

	curMin, curMax := v.min.Get(), v.max.Get()
	if newMin < curMin {
		newMin = curMin
	}
	if newMax > curMax {
		newMax = curMax
	}
	if newMin > newMax {
		Fail("%s: domain emptied narrowing to [%d,%d]", v.name, newMin, newMax)
	}
	if newMin == curMin && newMax == curMax {
		return
	}

	v.refreshOld()
	wasBound := curMin == curMax
	v.min.Set(newMin)
	v.max.Set(newMax)

	// Dropping holes that fall outside the new range keeps Count()/holes
	// bounded, but is not required for correctness (Has already bounds
	// checks against min/max first), so it is skipped here to avoid extra
	// trail writes on the hot path.

	nowBound := newMin == newMax
	v.notify(EventRange, wasBound, nowBound)
}

// SetMin raises the lower bound to max(current min, m).
func (v *IntVar) SetMin(m int64) {
	if m <= v.min.Get() {
		return
	}
	v.apply(m, v.max.Get())
}

// SetMax lowers the upper bound to min(current max, m).
func (v *IntVar) SetMax(m int64) {
	if m >= v.max.Get() {
		return
	}
	v.apply(v.min.Get(), m)
}

// SetRange intersects [min,max] with [l,u]. Fails if the intersection is
// empty (l > u is a precondition violation: the caller computed a
// malformed range, which is a programming error, not a search outcome).
func (v *IntVar) SetRange(l, u int64) {
	if l > u {
		Abort("IntVar.SetRange", "%s: malformed range [%d,%d]", v.name, l, u)
	}
	v.apply(l, u)
}

// SetValue collapses the domain to {val}. Fails if val is outside the
// current domain (including if it falls on a hole).
func (v *IntVar) SetValue(val int64) {
	if !v.Has(val) {
		Fail("%s: value %d not in domain [%d,%d]", v.name, val, v.Min(), v.Max())
	}
	v.apply(val, val)
}

// RemoveValue excludes val from the domain. If val is a bound, this
// narrows the corresponding bound (possibly by more than one step, to
// the next non-hole value) rather than leaving a boundary hole; if val is
// interior, it is recorded as a hole and a Domain event fires.
func (v *IntVar) RemoveValue(val int64) {
	curMin, curMax := v.min.Get(), v.max.Get()
	if val < curMin || val > curMax || !v.Has(val) {
		return
	}
	if val == curMin {
		next := curMin + 1
		for next < curMax && !v.Has(next) {
			next++
		}
		v.SetMin(next)
		return
	}
	if val == curMax {
		prev := curMax - 1
		for prev > curMin && !v.Has(prev) {
			prev--
		}
		v.SetMax(prev)
		return
	}
	// Interior holes do not move a bound, so they cannot be folded into
	// the in-process shadow range; they are journaled immediately and
	// their Domain event fires right away.
	v.holes.Push(val)
	v.notify(EventDomain, false, false)
}

// notify schedules every demon subscribed to a class implied by this
// write, then synchronously drains exactly this variable's own pending
// batch so that the postponement window is well-defined: while any demon
// scheduled because of *this* event is still running, further direct
// writes to v redirect into the shadow range, and the shadow is flushed
// via one consolidating apply() the moment the batch finishes.
func (v *IntVar) notify(cause EventClass, wasBound, nowBound bool) {
	if v.inProcess {
		// A nested event during this variable's own batch (an interior
		// hole removed by one of its demons). Fold the demons into the
		// open frame's batch; the enclosing drain runs them.
		nested := func(fifo *RevFIFO[demonHandle]) {
			fifo.Each(func(h demonHandle) {
				if v.solver.queue.wouldSchedule(h) {
					v.pendingOwn++
					v.solver.queue.scheduleFor(h, v)
				}
			})
		}
		if cause == EventDomain {
			nested(v.listenDomain)
		}
		nested(v.listenRange)
		return
	}

	v.inProcess = true
	v.pendingOwn = 0
	v.shadowSet = false

	// Cleaner: if a demon in this batch fails, the unwind must leave the
	// variable out of its processing window with no stale shadow, before
	// the trail rolls back.
	defer func() {
		v.inProcess = false
		v.pendingOwn = 0
		v.shadowSet = false
	}()

	schedule := func(fifo *RevFIFO[demonHandle]) {
		fifo.Each(func(h demonHandle) {
			if v.solver.queue.wouldSchedule(h) {
				v.pendingOwn++
				v.solver.queue.scheduleFor(h, v)
			}
		})
	}

	switch cause {
	case EventRange:
		schedule(v.listenRange)
		if nowBound {
			schedule(v.listenBound)
		}
		if nowBound && !wasBound {
			schedule(v.listenValue)
		}
	case EventDomain:
		schedule(v.listenDomain)
		schedule(v.listenRange)
	}

	if v.solver.queueFrozen {
		// Restore-in-progress: demons stay enqueued for the single pass
		// the unfreeze will run; there is nothing to flush because none of
		// them ran.
		v.inProcess = false
		return
	}

	v.solver.drainFor(v)

	v.inProcess = false
	if v.shadowSet {
		shadowMin, shadowMax := v.shadowMin, v.shadowMax
		v.shadowSet = false
		v.apply(shadowMin, shadowMax)
	}
}

// wouldSchedule reports whether h is not already pending, without the
// side effect of scheduling it, so notify can count only the demons its
// own event is actually responsible for enqueuing.
func (q *eventQueue) wouldSchedule(h demonHandle) bool {
	q.ensureCapacity()
	return !q.scheduled[h]
}

// onDemonRun lets the solver's drain loop tell a variable that one of its
// pending-own demons just finished, so notify's batch-completion check
// stays accurate even though draining happens inside Solver, not inside
// IntVar.
func (v *IntVar) onDemonRun() {
	if v.pendingOwn > 0 {
		v.pendingOwn--
	}
}

func (v *IntVar) hasPendingOwn() bool { return v.inProcess && v.pendingOwn > 0 }

// WhenRange subscribes d to fire on any bound change.
func (v *IntVar) WhenRange(d *Demon) { v.listenRange.Push(v.solver.arena.register(d)) }

// whenRangeHandle subscribes an already-registered demon, so a single
// demon watching many variables keeps one queue identity and still runs
// at most once per pass.
func (v *IntVar) whenRangeHandle(h demonHandle) { v.listenRange.Push(h) }

// WhenBound subscribes d to fire when a write collapses the domain to a
// singleton.
func (v *IntVar) WhenBound(d *Demon) { v.listenBound.Push(v.solver.arena.register(d)) }

// WhenDomain subscribes d to fire on any hole removal.
func (v *IntVar) WhenDomain(d *Demon) { v.listenDomain.Push(v.solver.arena.register(d)) }

// WhenValue subscribes d to fire exactly at the transition from unbound
// to bound.
func (v *IntVar) WhenValue(d *Demon) { v.listenValue.Push(v.solver.arena.register(d)) }

func (v *IntVar) String() string {
	if v.Bound() {
		return fmt.Sprintf("%s=%d", v.name, v.Value())
	}
	return fmt.Sprintf("%s∈[%d,%d]", v.name, v.Min(), v.Max())
}
