package cpkernel

import "fmt"

// intervalSnapshot is the raw state an Assignment element stores and
// restores. The fields are physically preserved even when the interval is
// unperformed, so a restore can resurrect the pre-decision state.
type intervalSnapshot struct {
	startMin, startMax int64
	durMin, durMax     int64
	endMin, endMax     int64
	perfMin, perfMax   int64
}

// IntervalVar is a temporal variable with four logical dimensions: start,
// duration, end, and a tri-valued performed flag (false, true, or
// undecided). The three interval ranges are kept mutually consistent by
// projection on start + duration = end; inconsistency on an optional
// interval flips performed to false, on a mandatory one it fails.
//
// Reading a time bound of an interval whose performed flag is already
// false is a programming error: callers must test MayBePerformed first.
type IntervalVar interface {
	Name() string

	StartMin() int64
	StartMax() int64
	DurationMin() int64
	DurationMax() int64
	EndMin() int64
	EndMax() int64

	SetStartMin(m int64)
	SetStartMax(m int64)
	SetStartRange(l, u int64)
	SetDurationMin(m int64)
	SetDurationMax(m int64)
	SetDurationRange(l, u int64)
	SetEndMin(m int64)
	SetEndMax(m int64)
	SetEndRange(l, u int64)

	// MustBePerformed reports performed == true; MayBePerformed reports
	// performed != false. Undecided is May && !Must.
	MustBePerformed() bool
	MayBePerformed() bool
	SetPerformed(performed bool)

	// Previous-pass bounds, refreshed once per propagation pass. The min
	// and max sides are independent snapshots: OldEndMax reads the
	// max-side field, never the min-side one.
	OldStartMin() int64
	OldStartMax() int64
	OldEndMin() int64
	OldEndMax() int64

	// WhenAnything fires d on any change to any dimension.
	WhenAnything(d *Demon)

	snapshot() intervalSnapshot
	restoreSnapshot(sn intervalSnapshot)

	String() string
}

// checkPerformedRead guards time-bound reads against unperformed
// intervals.
func checkPerformedRead(name string, mayBePerformed bool) {
	if !mayBePerformed {
		Abort("IntervalVar", "%s is unperformed; its time bounds are undefined", name)
	}
}

// intervalState is the reversible storage shared by the stand-alone
// variants that own their bounds.
type intervalState struct {
	solver *Solver
	name   string

	startMin, startMax *Rev[int64]
	durMin, durMax     *Rev[int64]
	endMin, endMax     *Rev[int64]
	perfMin, perfMax   *Rev[int64] // over {0,1}

	listeners *RevFIFO[demonHandle]

	oldStartMin, oldStartMax int64
	oldEndMin, oldEndMax     int64
	passSeq                  uint64
}

func newIntervalState(s *Solver, name string, startMin, startMax, durMin, durMax, endMin, endMax int64, optional bool) *intervalState {
	perfMin := int64(1)
	if optional {
		perfMin = 0
	}
	st := &intervalState{
		solver:      s,
		name:        name,
		startMin:    NewRev(s.trail, startMin),
		startMax:    NewRev(s.trail, startMax),
		durMin:      NewRev(s.trail, durMin),
		durMax:      NewRev(s.trail, durMax),
		endMin:      NewRev(s.trail, endMin),
		endMax:      NewRev(s.trail, endMax),
		perfMin:     NewRev(s.trail, perfMin),
		perfMax:     NewRev(s.trail, int64(1)),
		listeners:   NewRevFIFO[demonHandle](s.trail),
		oldStartMin: startMin,
		oldStartMax: startMax,
		oldEndMin:   endMin,
		oldEndMax:   endMax,
	}
	return st
}

func (st *intervalState) refreshOld() {
	seq := st.solver.passSeq
	if st.passSeq != seq {
		st.oldStartMin, st.oldStartMax = st.startMin.Get(), st.startMax.Get()
		st.oldEndMin, st.oldEndMax = st.endMin.Get(), st.endMax.Get()
		st.passSeq = seq
	}
}

func (st *intervalState) scheduleListeners() {
	st.listeners.Each(func(h demonHandle) {
		st.solver.queue.Schedule(h)
	})
}

// project runs the start + duration = end consistency loop until no range
// moves. An emptied range flips performed to false when the interval is
// still optional, and fails when it must be performed.
func (st *intervalState) project() {
	if st.perfMax.Get() == 0 {
		return
	}
	changed := true
	for changed {
		changed = false
		sMin, sMax := st.startMin.Get(), st.startMax.Get()
		dMin, dMax := st.durMin.Get(), st.durMax.Get()
		eMin, eMax := st.endMin.Get(), st.endMax.Get()

		if nv := CapSub(eMin, dMax); nv > sMin {
			sMin = nv
			changed = true
		}
		if nv := CapSub(eMax, dMin); nv < sMax {
			sMax = nv
			changed = true
		}
		if nv := CapAdd(sMin, dMin); nv > eMin {
			eMin = nv
			changed = true
		}
		if nv := CapAdd(sMax, dMax); nv < eMax {
			eMax = nv
			changed = true
		}
		if nv := CapSub(eMin, sMax); nv > dMin {
			dMin = nv
			changed = true
		}
		if nv := CapSub(eMax, sMin); nv < dMax {
			dMax = nv
			changed = true
		}

		if sMin > sMax || dMin > dMax || eMin > eMax {
			st.markUnperformed()
			return
		}

		st.startMin.Set(sMin)
		st.startMax.Set(sMax)
		st.durMin.Set(dMin)
		st.durMax.Set(dMax)
		st.endMin.Set(eMin)
		st.endMax.Set(eMax)
	}
}

// markUnperformed records that the interval cannot be performed, failing
// if it was already required.
func (st *intervalState) markUnperformed() {
	if st.perfMin.Get() == 1 {
		Fail("%s: required interval has no feasible placement", st.name)
	}
	st.perfMax.Set(0)
}

// push narrows one dimension, re-projects, and notifies listeners if
// anything actually moved.
func (st *intervalState) push(mutate func() bool) {
	if st.perfMax.Get() == 0 {
		return
	}
	st.refreshOld()
	before := st.dims()
	if !mutate() {
		return
	}
	st.project()
	if st.dims() != before {
		st.scheduleListeners()
		if !st.solver.queueFrozen {
			st.solver.drainAll()
		}
	}
}

// dims packs the current bounds for cheap change detection.
func (st *intervalState) dims() intervalSnapshot {
	return intervalSnapshot{
		startMin: st.startMin.Get(), startMax: st.startMax.Get(),
		durMin: st.durMin.Get(), durMax: st.durMax.Get(),
		endMin: st.endMin.Get(), endMax: st.endMax.Get(),
		perfMin: st.perfMin.Get(), perfMax: st.perfMax.Get(),
	}
}

// VarDurationInterval is the fully general stand-alone variant: three
// reversible sub-ranges with the mutual-consistency loop on every push,
// optionally performed.
type VarDurationInterval struct {
	st       *intervalState
	optional bool
}

// NewIntervalVar creates a variable-duration interval variable. With
// optional true the performed flag starts undecided; otherwise the
// interval must be performed and an infeasible placement fails instead of
// deactivating it.
func (s *Solver) NewIntervalVar(startMin, startMax, durMin, durMax, endMin, endMax int64, optional bool, name string) *VarDurationInterval {
	if startMin > startMax || durMin > durMax || endMin > endMax {
		Abort("NewIntervalVar", "%s: malformed initial ranges", name)
	}
	iv := &VarDurationInterval{
		st:       newIntervalState(s, name, startMin, startMax, durMin, durMax, endMin, endMax, optional),
		optional: optional,
	}
	iv.st.project()
	s.intervalVars = append(s.intervalVars, iv)
	return iv
}

func (iv *VarDurationInterval) Name() string { return iv.st.name }

func (iv *VarDurationInterval) StartMin() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.startMin.Get()
}

func (iv *VarDurationInterval) StartMax() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.startMax.Get()
}

func (iv *VarDurationInterval) DurationMin() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.durMin.Get()
}

func (iv *VarDurationInterval) DurationMax() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.durMax.Get()
}

func (iv *VarDurationInterval) EndMin() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.endMin.Get()
}

func (iv *VarDurationInterval) EndMax() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.endMax.Get()
}

func (iv *VarDurationInterval) SetStartMin(m int64) {
	iv.st.push(func() bool {
		if m <= iv.st.startMin.Get() {
			return false
		}
		iv.st.startMin.Set(m)
		return true
	})
}

func (iv *VarDurationInterval) SetStartMax(m int64) {
	iv.st.push(func() bool {
		if m >= iv.st.startMax.Get() {
			return false
		}
		iv.st.startMax.Set(m)
		return true
	})
}

func (iv *VarDurationInterval) SetStartRange(l, u int64) {
	iv.SetStartMin(l)
	if iv.MayBePerformed() {
		iv.SetStartMax(u)
	}
}

func (iv *VarDurationInterval) SetDurationMin(m int64) {
	iv.st.push(func() bool {
		if m <= iv.st.durMin.Get() {
			return false
		}
		iv.st.durMin.Set(m)
		return true
	})
}

func (iv *VarDurationInterval) SetDurationMax(m int64) {
	iv.st.push(func() bool {
		if m >= iv.st.durMax.Get() {
			return false
		}
		iv.st.durMax.Set(m)
		return true
	})
}

func (iv *VarDurationInterval) SetDurationRange(l, u int64) {
	iv.SetDurationMin(l)
	if iv.MayBePerformed() {
		iv.SetDurationMax(u)
	}
}

func (iv *VarDurationInterval) SetEndMin(m int64) {
	iv.st.push(func() bool {
		if m <= iv.st.endMin.Get() {
			return false
		}
		iv.st.endMin.Set(m)
		return true
	})
}

func (iv *VarDurationInterval) SetEndMax(m int64) {
	iv.st.push(func() bool {
		if m >= iv.st.endMax.Get() {
			return false
		}
		iv.st.endMax.Set(m)
		return true
	})
}

func (iv *VarDurationInterval) SetEndRange(l, u int64) {
	iv.SetEndMin(l)
	if iv.MayBePerformed() {
		iv.SetEndMax(u)
	}
}

func (iv *VarDurationInterval) MustBePerformed() bool { return iv.st.perfMin.Get() == 1 }
func (iv *VarDurationInterval) MayBePerformed() bool  { return iv.st.perfMax.Get() == 1 }

func (iv *VarDurationInterval) SetPerformed(performed bool) {
	if performed {
		if iv.st.perfMax.Get() == 0 {
			Fail("%s: cannot perform a deactivated interval", iv.st.name)
		}
		if iv.st.perfMin.Get() == 0 {
			iv.st.perfMin.Set(1)
			iv.st.scheduleListeners()
		}
		return
	}
	if iv.st.perfMin.Get() == 1 {
		Fail("%s: cannot deactivate a required interval", iv.st.name)
	}
	if iv.st.perfMax.Get() == 1 {
		iv.st.perfMax.Set(0)
		iv.st.scheduleListeners()
	}
}

func (iv *VarDurationInterval) OldStartMin() int64 { iv.st.refreshOld(); return iv.st.oldStartMin }
func (iv *VarDurationInterval) OldStartMax() int64 { iv.st.refreshOld(); return iv.st.oldStartMax }
func (iv *VarDurationInterval) OldEndMin() int64   { iv.st.refreshOld(); return iv.st.oldEndMin }
func (iv *VarDurationInterval) OldEndMax() int64   { iv.st.refreshOld(); return iv.st.oldEndMax }

func (iv *VarDurationInterval) WhenAnything(d *Demon) {
	iv.st.listeners.Push(iv.st.solver.registerDemon(d))
}

func (iv *VarDurationInterval) snapshot() intervalSnapshot { return iv.st.dims() }

func (iv *VarDurationInterval) restoreSnapshot(sn intervalSnapshot) {
	if sn.perfMax == 0 {
		iv.SetPerformed(false)
		return
	}
	if sn.perfMin == 1 {
		iv.SetPerformed(true)
	}
	iv.SetStartRange(sn.startMin, sn.startMax)
	if !iv.MayBePerformed() {
		return
	}
	iv.SetDurationRange(sn.durMin, sn.durMax)
	if !iv.MayBePerformed() {
		return
	}
	iv.SetEndRange(sn.endMin, sn.endMax)
}

func (iv *VarDurationInterval) String() string {
	if !iv.MayBePerformed() {
		return fmt.Sprintf("%s(unperformed)", iv.st.name)
	}
	return fmt.Sprintf("%s(start[%d,%d] dur[%d,%d] end[%d,%d] perf[%d,%d])",
		iv.st.name,
		iv.st.startMin.Get(), iv.st.startMax.Get(),
		iv.st.durMin.Get(), iv.st.durMax.Get(),
		iv.st.endMin.Get(), iv.st.endMax.Get(),
		iv.st.perfMin.Get(), iv.st.perfMax.Get())
}

// FixedDurationInterval is the optional fixed-duration variant: a start
// range, a constant duration, and a tri-valued performed flag. End bounds
// are the start bounds shifted by the duration.
type FixedDurationInterval struct {
	st       *intervalState
	duration int64
	optional bool
}

// NewFixedDurationIntervalVar creates a fixed-duration interval,
// optionally performed.
func (s *Solver) NewFixedDurationIntervalVar(startMin, startMax, duration int64, optional bool, name string) *FixedDurationInterval {
	if startMin > startMax {
		Abort("NewFixedDurationIntervalVar", "%s: malformed start range [%d,%d]", name, startMin, startMax)
	}
	if duration < 0 {
		Abort("NewFixedDurationIntervalVar", "%s: negative duration %d", name, duration)
	}
	iv := &FixedDurationInterval{
		st: newIntervalState(s, name, startMin, startMax, duration, duration,
			CapAdd(startMin, duration), CapAdd(startMax, duration), optional),
		duration: duration,
		optional: optional,
	}
	s.intervalVars = append(s.intervalVars, iv)
	return iv
}

// NewFixedDurationPerformedIntervalVar creates the always-performed
// fixed-duration variant.
func (s *Solver) NewFixedDurationPerformedIntervalVar(startMin, startMax, duration int64, name string) *FixedDurationInterval {
	return s.NewFixedDurationIntervalVar(startMin, startMax, duration, false, name)
}

func (iv *FixedDurationInterval) Name() string { return iv.st.name }

func (iv *FixedDurationInterval) StartMin() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.startMin.Get()
}

func (iv *FixedDurationInterval) StartMax() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.st.startMax.Get()
}

func (iv *FixedDurationInterval) DurationMin() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.duration
}

func (iv *FixedDurationInterval) DurationMax() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return iv.duration
}

func (iv *FixedDurationInterval) EndMin() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return CapAdd(iv.st.startMin.Get(), iv.duration)
}

func (iv *FixedDurationInterval) EndMax() int64 {
	checkPerformedRead(iv.st.name, iv.MayBePerformed())
	return CapAdd(iv.st.startMax.Get(), iv.duration)
}

func (iv *FixedDurationInterval) setStart(l, u int64) {
	if iv.st.perfMax.Get() == 0 {
		return
	}
	iv.st.refreshOld()
	curMin, curMax := iv.st.startMin.Get(), iv.st.startMax.Get()
	if l < curMin {
		l = curMin
	}
	if u > curMax {
		u = curMax
	}
	if l > u {
		if iv.optional && iv.st.perfMin.Get() == 0 {
			iv.st.perfMax.Set(0)
			iv.st.scheduleListeners()
			return
		}
		Fail("%s: start range emptied", iv.st.name)
	}
	if l == curMin && u == curMax {
		return
	}
	iv.st.startMin.Set(l)
	iv.st.startMax.Set(u)
	iv.st.endMin.Set(CapAdd(l, iv.duration))
	iv.st.endMax.Set(CapAdd(u, iv.duration))
	iv.st.scheduleListeners()
	if !iv.st.solver.queueFrozen {
		iv.st.solver.drainAll()
	}
}

func (iv *FixedDurationInterval) SetStartMin(m int64) { iv.setStart(m, MaxInt) }
func (iv *FixedDurationInterval) SetStartMax(m int64) { iv.setStart(MinInt, m) }
func (iv *FixedDurationInterval) SetStartRange(l, u int64) {
	iv.setStart(l, u)
}

func (iv *FixedDurationInterval) SetDurationMin(m int64) {
	if m > iv.duration {
		iv.deactivateOrFail("duration raised above the fixed value")
	}
}

func (iv *FixedDurationInterval) SetDurationMax(m int64) {
	if m < iv.duration {
		iv.deactivateOrFail("duration lowered below the fixed value")
	}
}

func (iv *FixedDurationInterval) SetDurationRange(l, u int64) {
	iv.SetDurationMin(l)
	if iv.MayBePerformed() {
		iv.SetDurationMax(u)
	}
}

func (iv *FixedDurationInterval) SetEndMin(m int64) { iv.setStart(CapSub(m, iv.duration), MaxInt) }
func (iv *FixedDurationInterval) SetEndMax(m int64) { iv.setStart(MinInt, CapSub(m, iv.duration)) }
func (iv *FixedDurationInterval) SetEndRange(l, u int64) {
	iv.setStart(CapSub(l, iv.duration), CapSub(u, iv.duration))
}

func (iv *FixedDurationInterval) deactivateOrFail(why string) {
	if iv.optional && iv.st.perfMin.Get() == 0 {
		if iv.st.perfMax.Get() == 1 {
			iv.st.perfMax.Set(0)
			iv.st.scheduleListeners()
		}
		return
	}
	Fail("%s: %s", iv.st.name, why)
}

func (iv *FixedDurationInterval) MustBePerformed() bool { return iv.st.perfMin.Get() == 1 }
func (iv *FixedDurationInterval) MayBePerformed() bool  { return iv.st.perfMax.Get() == 1 }

func (iv *FixedDurationInterval) SetPerformed(performed bool) {
	if performed {
		if iv.st.perfMax.Get() == 0 {
			Fail("%s: cannot perform a deactivated interval", iv.st.name)
		}
		if iv.st.perfMin.Get() == 0 {
			iv.st.perfMin.Set(1)
			iv.st.scheduleListeners()
		}
		return
	}
	if iv.st.perfMin.Get() == 1 {
		Fail("%s: cannot deactivate a required interval", iv.st.name)
	}
	if iv.st.perfMax.Get() == 1 {
		iv.st.perfMax.Set(0)
		iv.st.scheduleListeners()
	}
}

func (iv *FixedDurationInterval) OldStartMin() int64 { iv.st.refreshOld(); return iv.st.oldStartMin }
func (iv *FixedDurationInterval) OldStartMax() int64 { iv.st.refreshOld(); return iv.st.oldStartMax }
func (iv *FixedDurationInterval) OldEndMin() int64   { iv.st.refreshOld(); return iv.st.oldEndMin }
func (iv *FixedDurationInterval) OldEndMax() int64   { iv.st.refreshOld(); return iv.st.oldEndMax }

func (iv *FixedDurationInterval) WhenAnything(d *Demon) {
	iv.st.listeners.Push(iv.st.solver.registerDemon(d))
}

func (iv *FixedDurationInterval) snapshot() intervalSnapshot { return iv.st.dims() }

func (iv *FixedDurationInterval) restoreSnapshot(sn intervalSnapshot) {
	if sn.perfMax == 0 {
		iv.SetPerformed(false)
		return
	}
	if sn.perfMin == 1 {
		iv.SetPerformed(true)
	}
	iv.SetStartRange(sn.startMin, sn.startMax)
}

func (iv *FixedDurationInterval) String() string {
	if !iv.MayBePerformed() {
		return fmt.Sprintf("%s(unperformed)", iv.st.name)
	}
	return fmt.Sprintf("%s(start[%d,%d] dur=%d)", iv.st.name,
		iv.st.startMin.Get(), iv.st.startMax.Get(), iv.duration)
}

// StartVarInterval delegates its start to an integer variable and is
// always performed; its end is start + duration for a constant duration.
// Narrowing the interval narrows the backing variable and vice versa.
type StartVarInterval struct {
	solver   *Solver
	name     string
	start    *IntVar
	duration int64
}

// NewStartVarIntervalVar creates an always-performed interval whose start
// is the given integer variable.
func (s *Solver) NewStartVarIntervalVar(start *IntVar, duration int64, name string) *StartVarInterval {
	if start == nil {
		Abort("NewStartVarIntervalVar", "%s: nil start variable", name)
	}
	if duration < 0 {
		Abort("NewStartVarIntervalVar", "%s: negative duration %d", name, duration)
	}
	iv := &StartVarInterval{solver: s, name: name, start: start, duration: duration}
	s.intervalVars = append(s.intervalVars, iv)
	return iv
}

// StartVar exposes the backing variable, e.g. for branching.
func (iv *StartVarInterval) StartVar() *IntVar { return iv.start }

func (iv *StartVarInterval) Name() string { return iv.name }

func (iv *StartVarInterval) StartMin() int64    { return iv.start.Min() }
func (iv *StartVarInterval) StartMax() int64    { return iv.start.Max() }
func (iv *StartVarInterval) DurationMin() int64 { return iv.duration }
func (iv *StartVarInterval) DurationMax() int64 { return iv.duration }
func (iv *StartVarInterval) EndMin() int64      { return CapAdd(iv.start.Min(), iv.duration) }
func (iv *StartVarInterval) EndMax() int64      { return CapAdd(iv.start.Max(), iv.duration) }

func (iv *StartVarInterval) SetStartMin(m int64)      { iv.start.SetMin(m) }
func (iv *StartVarInterval) SetStartMax(m int64)      { iv.start.SetMax(m) }
func (iv *StartVarInterval) SetStartRange(l, u int64) { iv.start.SetRange(l, u) }

func (iv *StartVarInterval) SetDurationMin(m int64) {
	if m > iv.duration {
		Fail("%s: duration raised above the fixed value", iv.name)
	}
}

func (iv *StartVarInterval) SetDurationMax(m int64) {
	if m < iv.duration {
		Fail("%s: duration lowered below the fixed value", iv.name)
	}
}

func (iv *StartVarInterval) SetDurationRange(l, u int64) {
	iv.SetDurationMin(l)
	iv.SetDurationMax(u)
}

func (iv *StartVarInterval) SetEndMin(m int64) { iv.start.SetMin(CapSub(m, iv.duration)) }
func (iv *StartVarInterval) SetEndMax(m int64) { iv.start.SetMax(CapSub(m, iv.duration)) }
func (iv *StartVarInterval) SetEndRange(l, u int64) {
	iv.start.SetRange(CapSub(l, iv.duration), CapSub(u, iv.duration))
}

func (iv *StartVarInterval) MustBePerformed() bool { return true }
func (iv *StartVarInterval) MayBePerformed() bool  { return true }

func (iv *StartVarInterval) SetPerformed(performed bool) {
	if !performed {
		Fail("%s: cannot deactivate a required interval", iv.name)
	}
}

func (iv *StartVarInterval) OldStartMin() int64 { return iv.start.OldMin() }
func (iv *StartVarInterval) OldStartMax() int64 { return iv.start.OldMax() }
func (iv *StartVarInterval) OldEndMin() int64   { return CapAdd(iv.start.OldMin(), iv.duration) }
func (iv *StartVarInterval) OldEndMax() int64   { return CapAdd(iv.start.OldMax(), iv.duration) }

func (iv *StartVarInterval) WhenAnything(d *Demon) { iv.start.WhenRange(d) }

func (iv *StartVarInterval) snapshot() intervalSnapshot {
	return intervalSnapshot{
		startMin: iv.start.Min(), startMax: iv.start.Max(),
		durMin: iv.duration, durMax: iv.duration,
		endMin: iv.EndMin(), endMax: iv.EndMax(),
		perfMin: 1, perfMax: 1,
	}
}

func (iv *StartVarInterval) restoreSnapshot(sn intervalSnapshot) {
	iv.start.SetRange(sn.startMin, sn.startMax)
}

func (iv *StartVarInterval) String() string {
	return fmt.Sprintf("%s(start=%s dur=%d)", iv.name, iv.start.String(), iv.duration)
}

// FixedInterval is a fully fixed, always-performed interval: constant
// start and duration. Any range write that excludes the constants fails;
// writes that keep them are no-ops.
type FixedInterval struct {
	name     string
	start    int64
	duration int64
}

// NewFixedInterval creates a constant interval.
func (s *Solver) NewFixedInterval(start, duration int64, name string) *FixedInterval {
	if duration < 0 {
		Abort("NewFixedInterval", "%s: negative duration %d", name, duration)
	}
	iv := &FixedInterval{name: name, start: start, duration: duration}
	s.intervalVars = append(s.intervalVars, iv)
	return iv
}

func (iv *FixedInterval) Name() string { return iv.name }

func (iv *FixedInterval) StartMin() int64    { return iv.start }
func (iv *FixedInterval) StartMax() int64    { return iv.start }
func (iv *FixedInterval) DurationMin() int64 { return iv.duration }
func (iv *FixedInterval) DurationMax() int64 { return iv.duration }
func (iv *FixedInterval) EndMin() int64      { return CapAdd(iv.start, iv.duration) }
func (iv *FixedInterval) EndMax() int64      { return CapAdd(iv.start, iv.duration) }

func (iv *FixedInterval) SetStartMin(m int64) {
	if m > iv.start {
		Fail("%s: fixed start %d excluded", iv.name, iv.start)
	}
}

func (iv *FixedInterval) SetStartMax(m int64) {
	if m < iv.start {
		Fail("%s: fixed start %d excluded", iv.name, iv.start)
	}
}

func (iv *FixedInterval) SetStartRange(l, u int64) {
	iv.SetStartMin(l)
	iv.SetStartMax(u)
}

func (iv *FixedInterval) SetDurationMin(m int64) {
	if m > iv.duration {
		Fail("%s: fixed duration %d excluded", iv.name, iv.duration)
	}
}

func (iv *FixedInterval) SetDurationMax(m int64) {
	if m < iv.duration {
		Fail("%s: fixed duration %d excluded", iv.name, iv.duration)
	}
}

func (iv *FixedInterval) SetDurationRange(l, u int64) {
	iv.SetDurationMin(l)
	iv.SetDurationMax(u)
}

func (iv *FixedInterval) SetEndMin(m int64) {
	if m > iv.EndMin() {
		Fail("%s: fixed end %d excluded", iv.name, iv.EndMin())
	}
}

func (iv *FixedInterval) SetEndMax(m int64) {
	if m < iv.EndMax() {
		Fail("%s: fixed end %d excluded", iv.name, iv.EndMax())
	}
}

func (iv *FixedInterval) SetEndRange(l, u int64) {
	iv.SetEndMin(l)
	iv.SetEndMax(u)
}

func (iv *FixedInterval) MustBePerformed() bool { return true }
func (iv *FixedInterval) MayBePerformed() bool  { return true }

func (iv *FixedInterval) SetPerformed(performed bool) {
	if !performed {
		Fail("%s: cannot deactivate a fixed interval", iv.name)
	}
}

func (iv *FixedInterval) OldStartMin() int64 { return iv.start }
func (iv *FixedInterval) OldStartMax() int64 { return iv.start }
func (iv *FixedInterval) OldEndMin() int64   { return iv.EndMin() }
func (iv *FixedInterval) OldEndMax() int64   { return iv.EndMax() }

// WhenAnything on a constant interval registers nothing: nothing about
// the interval ever changes, so the demon could never fire.
func (iv *FixedInterval) WhenAnything(d *Demon) {}

func (iv *FixedInterval) snapshot() intervalSnapshot {
	return intervalSnapshot{
		startMin: iv.start, startMax: iv.start,
		durMin: iv.duration, durMax: iv.duration,
		endMin: iv.EndMin(), endMax: iv.EndMax(),
		perfMin: 1, perfMax: 1,
	}
}

func (iv *FixedInterval) restoreSnapshot(sn intervalSnapshot) {
	iv.SetStartRange(sn.startMin, sn.startMax)
}

func (iv *FixedInterval) String() string {
	return fmt.Sprintf("%s(start=%d dur=%d)", iv.name, iv.start, iv.duration)
}

// SyncPoint selects which coordinate of the base interval a synced
// interval follows.
type SyncPoint int

const (
	// SyncOnStart derives the wrapper's start from the base's start.
	SyncOnStart SyncPoint = iota
	// SyncOnEnd derives the wrapper's start from the base's end.
	SyncOnEnd
)

// SyncedInterval is derived by adding a constant offset to either the
// start or the end of a base interval; it has its own constant duration.
// Start writes on the wrapper translate to start or end writes on the
// base per the chosen sync point.
type SyncedInterval struct {
	name     string
	base     IntervalVar
	offset   int64
	duration int64
	sync     SyncPoint
}

// NewStartSyncedInterval creates an interval whose start tracks
// base.start + offset (SyncOnStart) or base.end + offset (SyncOnEnd),
// with the given constant duration.
func (s *Solver) NewStartSyncedInterval(base IntervalVar, sync SyncPoint, duration, offset int64, name string) *SyncedInterval {
	if base == nil {
		Abort("NewStartSyncedInterval", "%s: nil base interval", name)
	}
	if duration < 0 {
		Abort("NewStartSyncedInterval", "%s: negative duration %d", name, duration)
	}
	iv := &SyncedInterval{name: name, base: base, offset: offset, duration: duration, sync: sync}
	s.intervalVars = append(s.intervalVars, iv)
	return iv
}

func (iv *SyncedInterval) Name() string { return iv.name }

func (iv *SyncedInterval) baseMin() int64 {
	if iv.sync == SyncOnStart {
		return iv.base.StartMin()
	}
	return iv.base.EndMin()
}

func (iv *SyncedInterval) baseMax() int64 {
	if iv.sync == SyncOnStart {
		return iv.base.StartMax()
	}
	return iv.base.EndMax()
}

func (iv *SyncedInterval) StartMin() int64    { return CapAdd(iv.baseMin(), iv.offset) }
func (iv *SyncedInterval) StartMax() int64    { return CapAdd(iv.baseMax(), iv.offset) }
func (iv *SyncedInterval) DurationMin() int64 { return iv.duration }
func (iv *SyncedInterval) DurationMax() int64 { return iv.duration }
func (iv *SyncedInterval) EndMin() int64      { return CapAdd(iv.StartMin(), iv.duration) }
func (iv *SyncedInterval) EndMax() int64      { return CapAdd(iv.StartMax(), iv.duration) }

func (iv *SyncedInterval) SetStartMin(m int64) {
	if iv.sync == SyncOnStart {
		iv.base.SetStartMin(CapSub(m, iv.offset))
	} else {
		iv.base.SetEndMin(CapSub(m, iv.offset))
	}
}

func (iv *SyncedInterval) SetStartMax(m int64) {
	if iv.sync == SyncOnStart {
		iv.base.SetStartMax(CapSub(m, iv.offset))
	} else {
		iv.base.SetEndMax(CapSub(m, iv.offset))
	}
}

func (iv *SyncedInterval) SetStartRange(l, u int64) {
	iv.SetStartMin(l)
	if iv.base.MayBePerformed() {
		iv.SetStartMax(u)
	}
}

func (iv *SyncedInterval) SetDurationMin(m int64) {
	if m > iv.duration {
		Fail("%s: duration raised above the fixed value", iv.name)
	}
}

func (iv *SyncedInterval) SetDurationMax(m int64) {
	if m < iv.duration {
		Fail("%s: duration lowered below the fixed value", iv.name)
	}
}

func (iv *SyncedInterval) SetDurationRange(l, u int64) {
	iv.SetDurationMin(l)
	iv.SetDurationMax(u)
}

func (iv *SyncedInterval) SetEndMin(m int64) { iv.SetStartMin(CapSub(m, iv.duration)) }
func (iv *SyncedInterval) SetEndMax(m int64) { iv.SetStartMax(CapSub(m, iv.duration)) }
func (iv *SyncedInterval) SetEndRange(l, u int64) {
	iv.SetStartRange(CapSub(l, iv.duration), CapSub(u, iv.duration))
}

func (iv *SyncedInterval) MustBePerformed() bool { return iv.base.MustBePerformed() }
func (iv *SyncedInterval) MayBePerformed() bool  { return iv.base.MayBePerformed() }

func (iv *SyncedInterval) SetPerformed(performed bool) { iv.base.SetPerformed(performed) }

func (iv *SyncedInterval) OldStartMin() int64 {
	if iv.sync == SyncOnStart {
		return CapAdd(iv.base.OldStartMin(), iv.offset)
	}
	return CapAdd(iv.base.OldEndMin(), iv.offset)
}

func (iv *SyncedInterval) OldStartMax() int64 {
	if iv.sync == SyncOnStart {
		return CapAdd(iv.base.OldStartMax(), iv.offset)
	}
	return CapAdd(iv.base.OldEndMax(), iv.offset)
}

func (iv *SyncedInterval) OldEndMin() int64 { return CapAdd(iv.OldStartMin(), iv.duration) }
func (iv *SyncedInterval) OldEndMax() int64 { return CapAdd(iv.OldStartMax(), iv.duration) }

func (iv *SyncedInterval) WhenAnything(d *Demon) { iv.base.WhenAnything(d) }

func (iv *SyncedInterval) snapshot() intervalSnapshot {
	return intervalSnapshot{
		startMin: iv.StartMin(), startMax: iv.StartMax(),
		durMin: iv.duration, durMax: iv.duration,
		endMin: iv.EndMin(), endMax: iv.EndMax(),
		perfMin: boolToPerf(iv.MustBePerformed()), perfMax: boolToPerf(iv.MayBePerformed()),
	}
}

func (iv *SyncedInterval) restoreSnapshot(sn intervalSnapshot) {
	iv.SetStartRange(sn.startMin, sn.startMax)
}

func (iv *SyncedInterval) String() string {
	point := "start"
	if iv.sync == SyncOnEnd {
		point = "end"
	}
	return fmt.Sprintf("%s(synced-on-%s-of %s offset=%d dur=%d)",
		iv.name, point, iv.base.Name(), iv.offset, iv.duration)
}

func boolToPerf(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
