package cpkernel

import "fmt"

// Rectangle is an axis-aligned box with variable position and size.
// Occupancy is closed-open: [x, x+dx) × [y, y+dy).
type Rectangle struct {
	X, Y   *IntVar
	DX, DY *IntVar
}

// mandatoryCore returns the [lo,hi) interval the rectangle occupies in
// every feasible placement along one axis, and whether it is non-empty:
// lo = pos.max, hi = pos.min + size.min.
func mandatoryCore(pos, size *IntVar) (lo, hi int64, ok bool) {
	lo = pos.Max()
	hi = CapAdd(pos.Min(), size.Min())
	return lo, hi, lo < hi
}

// Diffn enforces pairwise non-overlap of rectangles. Bound changes flag
// the affected box and schedule a single delayed sweep per pass; the
// sweep recomputes each flagged box's neighborhood, applies an area-based
// energy check over the neighborhood's bounding box, and pushes
// neighbors out of the box's mandatory core.
type Diffn struct {
	solver *Solver
	boxes  []Rectangle

	// flagged is pass-scoped scratch, reset by the sweep; it is not
	// search state and never touches the trail.
	flagged []bool
}

// NewDiffn builds the non-overlap constraint over the given rectangles.
func NewDiffn(s *Solver, boxes []Rectangle) *Diffn {
	if len(boxes) < 2 {
		Abort("NewDiffn", "need at least two rectangles, got %d", len(boxes))
	}
	for i, b := range boxes {
		if b.X == nil || b.Y == nil || b.DX == nil || b.DY == nil {
			Abort("NewDiffn", "rectangle %d has a nil variable", i)
		}
	}
	copied := make([]Rectangle, len(boxes))
	copy(copied, boxes)
	return &Diffn{solver: s, boxes: copied, flagged: make([]bool, len(boxes))}
}

// Post subscribes a flagging demon per rectangle dimension and the shared
// delayed sweep. When every size is bound and every position is
// non-negative, a redundant energy constraint per axis is posted too.
func (c *Diffn) Post() {
	sweep := &Demon{
		Priority: PriorityDelayed,
		Name:     "diffn_sweep",
		Run:      func() { c.sweep() },
	}
	sweepHandle := c.solver.registerDemon(sweep)
	for i, b := range c.boxes {
		idx := i
		h := c.solver.registerDemon(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("diffn_flag(%d)", idx),
			Run: func() {
				c.flagged[idx] = true
				c.solver.queue.Schedule(sweepHandle)
			},
		})
		b.X.whenRangeHandle(h)
		b.Y.whenRangeHandle(h)
		b.DX.whenRangeHandle(h)
		b.DY.whenRangeHandle(h)
	}
	if c.allSizesBoundAndNonNegative() {
		c.postRedundantCumulative()
	}
}

// InitialPropagate sweeps every box once.
func (c *Diffn) InitialPropagate() {
	for i := range c.flagged {
		c.flagged[i] = true
	}
	c.sweep()
}

func (c *Diffn) allSizesBoundAndNonNegative() bool {
	for _, b := range c.boxes {
		if !b.DX.Bound() || !b.DY.Bound() {
			return false
		}
		if b.X.Min() < 0 || b.Y.Min() < 0 {
			return false
		}
	}
	return true
}

// postRedundantCumulative adds one energy constraint per axis, treating
// the perpendicular sizes as resource demands against a capacity equal to
// their sum. Redundant but cheap: it fails infeasible packings earlier
// than pairwise reasoning alone.
func (c *Diffn) postRedundantCumulative() {
	post := func(axis string, pos func(Rectangle) *IntVar, size func(Rectangle) *IntVar, perp func(Rectangle) *IntVar) {
		h := c.solver.registerDemon(&Demon{
			Priority: PriorityDelayed,
			Name:     "diffn_cumulative_" + axis,
			Run:      func() { c.axisEnergy(pos, size, perp) },
		})
		for _, b := range c.boxes {
			pos(b).whenRangeHandle(h)
		}
	}
	post("x", func(b Rectangle) *IntVar { return b.X }, func(b Rectangle) *IntVar { return b.DX },
		func(b Rectangle) *IntVar { return b.DY })
	post("y", func(b Rectangle) *IntVar { return b.Y }, func(b Rectangle) *IntVar { return b.DY },
		func(b Rectangle) *IntVar { return b.DX })
}

// axisEnergy checks that the total area fits the axis window times the
// summed perpendicular capacity.
func (c *Diffn) axisEnergy(pos, size, perp func(Rectangle) *IntVar) {
	window0, window1 := int64(MaxInt), int64(MinInt)
	var capacity, area int64
	for _, b := range c.boxes {
		if p := pos(b).Min(); p < window0 {
			window0 = p
		}
		if e := CapAdd(pos(b).Max(), size(b).Min()); e > window1 {
			window1 = e
		}
		capacity = CapAdd(capacity, perp(b).Min())
		area = CapAdd(area, CapMul(size(b).Min(), perp(b).Min()))
	}
	if window1 <= window0 {
		return
	}
	if area > CapMul(CapSub(window1, window0), capacity) {
		Fail("diffn: area %d exceeds axis capacity", area)
	}
}

// sweep processes every flagged box: neighborhood recomputation, energy
// check, mandatory-part pushing. Pushing may flag further boxes; the
// sweep keeps going until the flag set drains.
func (c *Diffn) sweep() {
	for {
		i := -1
		for j, f := range c.flagged {
			if f {
				i = j
				break
			}
		}
		if i == -1 {
			return
		}
		c.flagged[i] = false
		c.processBox(i)
	}
}

// canOverlap reports whether boxes a and b can still intersect on the
// given axis, judged on maximum extents.
func canOverlap(posA, sizeA, posB, sizeB *IntVar) bool {
	return posA.Min() < CapAdd(posB.Max(), sizeB.Max()) &&
		posB.Min() < CapAdd(posA.Max(), sizeA.Max())
}

func (c *Diffn) processBox(i int) {
	b := c.boxes[i]

	// Neighborhood: boxes whose x- and y-projections still intersect b's
	// maximum extent.
	var neighbors []int
	for j := range c.boxes {
		if j == i {
			continue
		}
		o := c.boxes[j]
		if canOverlap(b.X, b.DX, o.X, o.DX) && canOverlap(b.Y, b.DY, o.Y, o.DY) {
			neighbors = append(neighbors, j)
		}
	}
	if len(neighbors) == 0 {
		return
	}

	// Energy check over the bounding box of b and its neighborhood.
	group := append([]int{i}, neighbors...)
	x0, y0 := int64(MaxInt), int64(MaxInt)
	x1, y1 := int64(MinInt), int64(MinInt)
	var area int64
	for _, j := range group {
		o := c.boxes[j]
		if v := o.X.Min(); v < x0 {
			x0 = v
		}
		if v := o.Y.Min(); v < y0 {
			y0 = v
		}
		if v := CapAdd(o.X.Max(), o.DX.Max()); v > x1 {
			x1 = v
		}
		if v := CapAdd(o.Y.Max(), o.DY.Max()); v > y1 {
			y1 = v
		}
		area = CapAdd(area, CapMul(o.DX.Min(), o.DY.Min()))
	}
	if area > CapMul(CapSub(x1, x0), CapSub(y1, y0)) {
		Fail("diffn: neighborhood area %d exceeds bounding box", area)
	}

	// Mandatory-part pushing.
	bxLo, bxHi, bxOK := mandatoryCore(b.X, b.DX)
	byLo, byHi, byOK := mandatoryCore(b.Y, b.DY)
	if !bxOK || !byOK {
		return
	}
	for _, j := range neighbors {
		o := c.boxes[j]
		oxLo, oxHi, oxOK := mandatoryCore(o.X, o.DX)
		oyLo, oyHi, oyOK := mandatoryCore(o.Y, o.DY)
		xOverlap := oxOK && oxLo < bxHi && bxLo < oxHi
		yOverlap := oyOK && oyLo < byHi && byLo < oyHi
		switch {
		case xOverlap && yOverlap:
			Fail("diffn: rectangles %d and %d have intersecting mandatory parts", i, j)
		case xOverlap:
			c.pushOut(j, o.Y, o.DY, byLo, byHi)
		case yOverlap:
			c.pushOut(j, o.X, o.DX, bxLo, bxHi)
		}
	}
}

// pushOut forces neighbor j's placement on one axis to exit the core
// [coreLo,coreHi): if only the low side remains feasible the neighbor is
// pushed (and its size tightened) below the core, if only the high side
// remains it is pushed above, and if neither remains the pair fails.
func (c *Diffn) pushOut(j int, pos, size *IntVar, coreLo, coreHi int64) {
	belowOK := CapAdd(pos.Min(), size.Min()) <= coreLo
	aboveOK := pos.Max() >= coreHi
	switch {
	case belowOK && aboveOK:
		// Both sides open; nothing to force yet.
	case belowOK:
		pos.SetMax(CapSub(coreLo, size.Min()))
		size.SetMax(CapSub(coreLo, pos.Min()))
	case aboveOK:
		pos.SetMin(coreHi)
	default:
		Fail("diffn: rectangle %d cannot exit a mandatory core", j)
	}
}

// Accept implements Constraint.
func (c *Diffn) Accept(v ModelVisitor) {
	xs := make([]*IntVar, len(c.boxes))
	ys := make([]*IntVar, len(c.boxes))
	for i, b := range c.boxes {
		xs[i] = b.X
		ys[i] = b.Y
	}
	v.BeginVisitConstraint(ConstraintDisjunctive, c)
	v.VisitIntegerVariableArrayArgument("x", xs)
	v.VisitIntegerVariableArrayArgument("y", ys)
	v.EndVisitConstraint(ConstraintDisjunctive, c)
}

func (c *Diffn) String() string {
	return fmt.Sprintf("Diffn(|boxes|=%d)", len(c.boxes))
}
