package cpkernel

// neg negates a bound without overflowing at MinInt.
func neg(v int64) int64 { return CapSub(0, v) }

// MirrorInterval flips the sign of all time coordinates of a base
// interval, so algorithms written for a forward time axis can be reused
// symmetrically. It is a view: it owns no state of its own.
type MirrorInterval struct {
	base IntervalVar
}

// NewMirrorInterval wraps base in a time-mirrored view.
func NewMirrorInterval(base IntervalVar) *MirrorInterval {
	if base == nil {
		Abort("NewMirrorInterval", "nil base interval")
	}
	return &MirrorInterval{base: base}
}

func (m *MirrorInterval) Name() string { return "mirror(" + m.base.Name() + ")" }

func (m *MirrorInterval) StartMin() int64    { return neg(m.base.EndMax()) }
func (m *MirrorInterval) StartMax() int64    { return neg(m.base.EndMin()) }
func (m *MirrorInterval) DurationMin() int64 { return m.base.DurationMin() }
func (m *MirrorInterval) DurationMax() int64 { return m.base.DurationMax() }
func (m *MirrorInterval) EndMin() int64      { return neg(m.base.StartMax()) }
func (m *MirrorInterval) EndMax() int64      { return neg(m.base.StartMin()) }

func (m *MirrorInterval) SetStartMin(v int64) { m.base.SetEndMax(neg(v)) }
func (m *MirrorInterval) SetStartMax(v int64) { m.base.SetEndMin(neg(v)) }
func (m *MirrorInterval) SetStartRange(l, u int64) {
	m.base.SetEndRange(neg(u), neg(l))
}

func (m *MirrorInterval) SetDurationMin(v int64) { m.base.SetDurationMin(v) }
func (m *MirrorInterval) SetDurationMax(v int64) { m.base.SetDurationMax(v) }
func (m *MirrorInterval) SetDurationRange(l, u int64) {
	m.base.SetDurationRange(l, u)
}

func (m *MirrorInterval) SetEndMin(v int64) { m.base.SetStartMax(neg(v)) }
func (m *MirrorInterval) SetEndMax(v int64) { m.base.SetStartMin(neg(v)) }
func (m *MirrorInterval) SetEndRange(l, u int64) {
	m.base.SetStartRange(neg(u), neg(l))
}

func (m *MirrorInterval) MustBePerformed() bool { return m.base.MustBePerformed() }
func (m *MirrorInterval) MayBePerformed() bool  { return m.base.MayBePerformed() }

func (m *MirrorInterval) SetPerformed(performed bool) { m.base.SetPerformed(performed) }

func (m *MirrorInterval) OldStartMin() int64 { return neg(m.base.OldEndMax()) }
func (m *MirrorInterval) OldStartMax() int64 { return neg(m.base.OldEndMin()) }
func (m *MirrorInterval) OldEndMin() int64   { return neg(m.base.OldStartMax()) }
func (m *MirrorInterval) OldEndMax() int64   { return neg(m.base.OldStartMin()) }

func (m *MirrorInterval) WhenAnything(d *Demon) { m.base.WhenAnything(d) }

func (m *MirrorInterval) snapshot() intervalSnapshot {
	Abort("MirrorInterval", "%s is a view, not a stand-alone variable; store the base interval", m.Name())
	return intervalSnapshot{}
}

func (m *MirrorInterval) restoreSnapshot(intervalSnapshot) {
	Abort("MirrorInterval", "%s is a view, not a stand-alone variable; restore the base interval", m.Name())
}

func (m *MirrorInterval) String() string { return m.Name() }

// RelaxedMaxInterval is a view over an optional interval: while the base's
// performed flag is undecided it reports MaxInt for the max-side bounds
// (start max, end max), so forward propagators cannot over-constrain an
// interval that may yet be dropped. Once the base must be performed it
// behaves identically to the base. Writes on the relaxed (max) side are
// unsupported and abort.
type RelaxedMaxInterval struct {
	base IntervalVar
}

// NewRelaxedMaxInterval wraps base in a relaxed-max view.
func NewRelaxedMaxInterval(base IntervalVar) *RelaxedMaxInterval {
	if base == nil {
		Abort("NewRelaxedMaxInterval", "nil base interval")
	}
	return &RelaxedMaxInterval{base: base}
}

func (r *RelaxedMaxInterval) relaxed() bool { return !r.base.MustBePerformed() }

func (r *RelaxedMaxInterval) Name() string { return "relaxed_max(" + r.base.Name() + ")" }

func (r *RelaxedMaxInterval) StartMin() int64 { return r.base.StartMin() }

func (r *RelaxedMaxInterval) StartMax() int64 {
	if r.relaxed() {
		return MaxInt
	}
	return r.base.StartMax()
}

func (r *RelaxedMaxInterval) DurationMin() int64 { return r.base.DurationMin() }
func (r *RelaxedMaxInterval) DurationMax() int64 { return r.base.DurationMax() }

func (r *RelaxedMaxInterval) EndMin() int64 { return r.base.EndMin() }

func (r *RelaxedMaxInterval) EndMax() int64 {
	if r.relaxed() {
		return MaxInt
	}
	return r.base.EndMax()
}

func (r *RelaxedMaxInterval) SetStartMin(v int64) { r.base.SetStartMin(v) }

func (r *RelaxedMaxInterval) SetStartMax(int64) {
	Abort("RelaxedMaxInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMaxInterval) SetStartRange(l, u int64) {
	Abort("RelaxedMaxInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMaxInterval) SetDurationMin(v int64) { r.base.SetDurationMin(v) }
func (r *RelaxedMaxInterval) SetDurationMax(v int64) { r.base.SetDurationMax(v) }
func (r *RelaxedMaxInterval) SetDurationRange(l, u int64) {
	r.base.SetDurationRange(l, u)
}

func (r *RelaxedMaxInterval) SetEndMin(v int64) { r.base.SetEndMin(v) }

func (r *RelaxedMaxInterval) SetEndMax(int64) {
	Abort("RelaxedMaxInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMaxInterval) SetEndRange(l, u int64) {
	Abort("RelaxedMaxInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMaxInterval) MustBePerformed() bool { return r.base.MustBePerformed() }
func (r *RelaxedMaxInterval) MayBePerformed() bool  { return r.base.MayBePerformed() }

func (r *RelaxedMaxInterval) SetPerformed(performed bool) { r.base.SetPerformed(performed) }

func (r *RelaxedMaxInterval) OldStartMin() int64 { return r.base.OldStartMin() }

func (r *RelaxedMaxInterval) OldStartMax() int64 {
	if r.relaxed() {
		return MaxInt
	}
	return r.base.OldStartMax()
}

func (r *RelaxedMaxInterval) OldEndMin() int64 { return r.base.OldEndMin() }

func (r *RelaxedMaxInterval) OldEndMax() int64 {
	if r.relaxed() {
		return MaxInt
	}
	return r.base.OldEndMax()
}

func (r *RelaxedMaxInterval) WhenAnything(d *Demon) { r.base.WhenAnything(d) }

func (r *RelaxedMaxInterval) snapshot() intervalSnapshot {
	Abort("RelaxedMaxInterval", "%s is a view, not a stand-alone variable; store the base interval", r.Name())
	return intervalSnapshot{}
}

func (r *RelaxedMaxInterval) restoreSnapshot(intervalSnapshot) {
	Abort("RelaxedMaxInterval", "%s is a view, not a stand-alone variable; restore the base interval", r.Name())
}

func (r *RelaxedMaxInterval) String() string { return r.Name() }

// RelaxedMinInterval is the symmetric view: while the base's performed
// flag is undecided it reports MinInt for the min-side bounds (start min,
// end min). Writes on the relaxed (min) side are unsupported and abort.
type RelaxedMinInterval struct {
	base IntervalVar
}

// NewRelaxedMinInterval wraps base in a relaxed-min view.
func NewRelaxedMinInterval(base IntervalVar) *RelaxedMinInterval {
	if base == nil {
		Abort("NewRelaxedMinInterval", "nil base interval")
	}
	return &RelaxedMinInterval{base: base}
}

func (r *RelaxedMinInterval) relaxed() bool { return !r.base.MustBePerformed() }

func (r *RelaxedMinInterval) Name() string { return "relaxed_min(" + r.base.Name() + ")" }

func (r *RelaxedMinInterval) StartMin() int64 {
	if r.relaxed() {
		return MinInt
	}
	return r.base.StartMin()
}

func (r *RelaxedMinInterval) StartMax() int64 { return r.base.StartMax() }

func (r *RelaxedMinInterval) DurationMin() int64 { return r.base.DurationMin() }
func (r *RelaxedMinInterval) DurationMax() int64 { return r.base.DurationMax() }

func (r *RelaxedMinInterval) EndMin() int64 {
	if r.relaxed() {
		return MinInt
	}
	return r.base.EndMin()
}

func (r *RelaxedMinInterval) EndMax() int64 { return r.base.EndMax() }

func (r *RelaxedMinInterval) SetStartMin(int64) {
	Abort("RelaxedMinInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMinInterval) SetStartMax(v int64) { r.base.SetStartMax(v) }

func (r *RelaxedMinInterval) SetStartRange(l, u int64) {
	Abort("RelaxedMinInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMinInterval) SetDurationMin(v int64) { r.base.SetDurationMin(v) }
func (r *RelaxedMinInterval) SetDurationMax(v int64) { r.base.SetDurationMax(v) }
func (r *RelaxedMinInterval) SetDurationRange(l, u int64) {
	r.base.SetDurationRange(l, u)
}

func (r *RelaxedMinInterval) SetEndMin(int64) {
	Abort("RelaxedMinInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMinInterval) SetEndMax(v int64) { r.base.SetEndMax(v) }

func (r *RelaxedMinInterval) SetEndRange(l, u int64) {
	Abort("RelaxedMinInterval", "%s: writes on the relaxed side are unsupported", r.Name())
}

func (r *RelaxedMinInterval) MustBePerformed() bool { return r.base.MustBePerformed() }
func (r *RelaxedMinInterval) MayBePerformed() bool  { return r.base.MayBePerformed() }

func (r *RelaxedMinInterval) SetPerformed(performed bool) { r.base.SetPerformed(performed) }

func (r *RelaxedMinInterval) OldStartMin() int64 {
	if r.relaxed() {
		return MinInt
	}
	return r.base.OldStartMin()
}

func (r *RelaxedMinInterval) OldStartMax() int64 { return r.base.OldStartMax() }

func (r *RelaxedMinInterval) OldEndMin() int64 {
	if r.relaxed() {
		return MinInt
	}
	return r.base.OldEndMin()
}

func (r *RelaxedMinInterval) OldEndMax() int64 { return r.base.OldEndMax() }

func (r *RelaxedMinInterval) WhenAnything(d *Demon) { r.base.WhenAnything(d) }

func (r *RelaxedMinInterval) snapshot() intervalSnapshot {
	Abort("RelaxedMinInterval", "%s is a view, not a stand-alone variable; store the base interval", r.Name())
	return intervalSnapshot{}
}

func (r *RelaxedMinInterval) restoreSnapshot(intervalSnapshot) {
	Abort("RelaxedMinInterval", "%s is a view, not a stand-alone variable; restore the base interval", r.Name())
}

func (r *RelaxedMinInterval) String() string { return r.Name() }
