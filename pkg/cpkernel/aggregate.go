package cpkernel

import "fmt"

// aggNode is one reversible (min,max) pair of an aggregate tree.
type aggNode struct {
	min, max *Rev[int64]
}

// aggTree is a k-ary balanced tree over an array of variables. Leaves
// mirror variable bounds; each internal node aggregates its children with
// the owning constraint's operation. levels[0] holds the leaves, the last
// level the single root. Parent of levels[l][i] is levels[l+1][i/fanout].
type aggTree struct {
	fanout int
	levels [][]aggNode
}

func newAggTree(t *Trail, n, fanout int) *aggTree {
	tree := &aggTree{fanout: fanout}
	width := n
	for {
		level := make([]aggNode, width)
		for i := range level {
			level[i] = aggNode{min: NewRev(t, int64(0)), max: NewRev(t, int64(0))}
		}
		tree.levels = append(tree.levels, level)
		if width == 1 {
			break
		}
		width = (width + fanout - 1) / fanout
	}
	return tree
}

func (t *aggTree) root() aggNode { return t.levels[len(t.levels)-1][0] }

// children returns the index range [lo,hi) of node i's children on the
// level below.
func (t *aggTree) children(level, i int) (lo, hi int) {
	lo = i * t.fanout
	hi = lo + t.fanout
	if below := len(t.levels[level-1]); hi > below {
		hi = below
	}
	return lo, hi
}

// SumEquals enforces sum(vars) == target with bound-consistent
// propagation over a balanced tree: leaf events update ancestors by
// delta in O(log_B n); target events back-propagate residual ranges to
// the leaves. When the initial bound computation saturates anywhere, the
// constraint runs a per-event full recomputation instead of delta
// updates; the two branches share observable semantics.
type SumEquals struct {
	solver *Solver
	vars   []*IntVar
	target *IntVar
	tree   *aggTree

	// saturated is decided once, during initial propagation: bounds only
	// ever narrow afterwards, so a sum that starts finite stays finite.
	saturated bool
}

// NewSumEquals builds sum(vars) == target.
func NewSumEquals(s *Solver, vars []*IntVar, target *IntVar) *SumEquals {
	if len(vars) == 0 {
		Abort("NewSumEquals", "empty variable array")
	}
	if target == nil {
		Abort("NewSumEquals", "nil target")
	}
	for i, v := range vars {
		if v == nil {
			Abort("NewSumEquals", "nil variable at index %d", i)
		}
	}
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &SumEquals{
		solver: s,
		vars:   copied,
		target: target,
		tree:   newAggTree(s.trail, len(vars), s.config.TreeFanout),
	}
}

// Post subscribes one range demon per operand and one for the target.
func (c *SumEquals) Post() {
	for i, v := range c.vars {
		idx := i
		v.WhenRange(&Demon{
			Priority: PriorityNormal,
			Name:     fmt.Sprintf("sum_leaf(%s)", v.Name()),
			Run:      func() { c.leafChanged(idx) },
		})
	}
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("sum_target(%s)", c.target.Name()),
		Run:      func() { c.pushDown() },
	})
}

// InitialPropagate computes the whole tree, seeds the target, and runs a
// first top-down pass.
func (c *SumEquals) InitialPropagate() {
	c.recomputeAll()
	for _, level := range c.tree.levels {
		for _, node := range level {
			if node.min.Get() == MinInt || node.max.Get() == MaxInt {
				c.saturated = true
			}
		}
	}
	root := c.tree.root()
	c.target.SetRange(root.min.Get(), root.max.Get())
	c.pushDown()
}

// recomputeAll rebuilds every node bottom-up with saturating arithmetic.
func (c *SumEquals) recomputeAll() {
	leaves := c.tree.levels[0]
	for i, v := range c.vars {
		leaves[i].min.Set(v.Min())
		leaves[i].max.Set(v.Max())
	}
	for level := 1; level < len(c.tree.levels); level++ {
		for i := range c.tree.levels[level] {
			c.recomputeNode(level, i)
		}
	}
}

func (c *SumEquals) recomputeNode(level, i int) {
	lo, hi := c.tree.children(level, i)
	var sumMin, sumMax int64
	for j := lo; j < hi; j++ {
		child := c.tree.levels[level-1][j]
		sumMin = CapAdd(sumMin, child.min.Get())
		sumMax = CapAdd(sumMax, child.max.Get())
	}
	c.tree.levels[level][i].min.Set(sumMin)
	c.tree.levels[level][i].max.Set(sumMax)
}

// leafChanged updates ancestors of leaf i and re-propagates.
func (c *SumEquals) leafChanged(i int) {
	if c.saturated {
		c.recomputeAll()
	} else {
		v := c.vars[i]
		leaf := c.tree.levels[0][i]
		deltaMin := CapSub(v.Min(), leaf.min.Get())
		deltaMax := CapSub(v.Max(), leaf.max.Get())
		if deltaMin == 0 && deltaMax == 0 {
			return
		}
		leaf.min.Set(v.Min())
		leaf.max.Set(v.Max())
		idx := i
		for level := 1; level < len(c.tree.levels); level++ {
			idx /= c.tree.fanout
			node := c.tree.levels[level][idx]
			node.min.Set(CapAdd(node.min.Get(), deltaMin))
			node.max.Set(CapAdd(node.max.Get(), deltaMax))
		}
	}
	root := c.tree.root()
	c.target.SetRange(root.min.Get(), root.max.Get())
	c.pushDown()
}

// pushDown back-propagates the target's range through the tree: each
// child's admissible range is the required range minus the extreme
// contribution of its siblings. When target.Max() equals the root's
// minimal sum, every leaf collapses to its minimum, and symmetrically.
func (c *SumEquals) pushDown() {
	c.pushNode(len(c.tree.levels)-1, 0, c.target.Min(), c.target.Max())
}

func (c *SumEquals) pushNode(level, i int, reqMin, reqMax int64) {
	node := c.tree.levels[level][i]
	if node.min.Get() > reqMax || node.max.Get() < reqMin {
		Fail("sum(%s): node range [%d,%d] incompatible with required [%d,%d]",
			c.target.Name(), node.min.Get(), node.max.Get(), reqMin, reqMax)
	}
	if level == 0 {
		c.vars[i].SetRange(reqMin, reqMax)
		return
	}
	lo, hi := c.tree.children(level, i)
	nodeMin, nodeMax := node.min.Get(), node.max.Get()
	for j := lo; j < hi; j++ {
		child := c.tree.levels[level-1][j]
		var siblingsMin, siblingsMax int64
		if c.saturated {
			// Subtracting a child from a saturated node sum is unsound
			// (the saturation may hide the child's own contribution), so
			// the robust branch re-sums the siblings directly.
			for k := lo; k < hi; k++ {
				if k == j {
					continue
				}
				sibling := c.tree.levels[level-1][k]
				siblingsMin = CapAdd(siblingsMin, sibling.min.Get())
				siblingsMax = CapAdd(siblingsMax, sibling.max.Get())
			}
		} else {
			siblingsMin = CapSub(nodeMin, child.min.Get())
			siblingsMax = CapSub(nodeMax, child.max.Get())
		}
		childMin := CapSub(reqMin, siblingsMax)
		childMax := CapSub(reqMax, siblingsMin)
		if childMin > child.min.Get() || childMax < child.max.Get() {
			if childMin < child.min.Get() {
				childMin = child.min.Get()
			}
			if childMax > child.max.Get() {
				childMax = child.max.Get()
			}
			c.pushNode(level-1, j, childMin, childMax)
		}
	}
}

// Accept implements Constraint.
func (c *SumEquals) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintSumEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintSumEqual, c)
}

func (c *SumEquals) String() string {
	return fmt.Sprintf("SumEquals(|vars|=%d, target=%s)", len(c.vars), c.target.Name())
}

// minMaxTree shares the bottom-up machinery of MinEquals and MaxEquals.
// isMin selects the operation: for min, node.min is the min of child
// mins and node.max the min of child maxes; for max, both take the max.
type minMaxTree struct {
	tree  *aggTree
	isMin bool
}

func (t *minMaxTree) combine(a, b int64) int64 {
	if t.isMin {
		if b < a {
			return b
		}
		return a
	}
	if b > a {
		return b
	}
	return a
}

func (t *minMaxTree) identity() int64 {
	if t.isMin {
		return MaxInt
	}
	return MinInt
}

// MinEquals enforces min(vars) == target. The target's lower bound lifts
// every operand; the upper bound is carried by whichever operands can
// still reach it, and once only one candidate remains it is forced down.
type MinEquals struct {
	solver *Solver
	vars   []*IntVar
	target *IntVar
	mm     *minMaxTree
}

// NewMinEquals builds min(vars) == target.
func NewMinEquals(s *Solver, vars []*IntVar, target *IntVar) *MinEquals {
	validateMinMaxArgs("NewMinEquals", vars, target)
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &MinEquals{
		solver: s,
		vars:   copied,
		target: target,
		mm:     &minMaxTree{tree: newAggTree(s.trail, len(vars), s.config.TreeFanout), isMin: true},
	}
}

// MaxEquals enforces max(vars) == target, symmetric to MinEquals.
type MaxEquals struct {
	solver *Solver
	vars   []*IntVar
	target *IntVar
	mm     *minMaxTree
}

// NewMaxEquals builds max(vars) == target.
func NewMaxEquals(s *Solver, vars []*IntVar, target *IntVar) *MaxEquals {
	validateMinMaxArgs("NewMaxEquals", vars, target)
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &MaxEquals{
		solver: s,
		vars:   copied,
		target: target,
		mm:     &minMaxTree{tree: newAggTree(s.trail, len(vars), s.config.TreeFanout), isMin: false},
	}
}

func validateMinMaxArgs(ctor string, vars []*IntVar, target *IntVar) {
	if len(vars) == 0 {
		Abort(ctor, "empty variable array")
	}
	if target == nil {
		Abort(ctor, "nil target")
	}
	for i, v := range vars {
		if v == nil {
			Abort(ctor, "nil variable at index %d", i)
		}
	}
}

// minMaxRecompute rebuilds the ancestors of leaf i from their children.
func minMaxRecompute(mm *minMaxTree, vars []*IntVar, i int) {
	tree := mm.tree
	leaf := tree.levels[0][i]
	leaf.min.Set(vars[i].Min())
	leaf.max.Set(vars[i].Max())
	idx := i
	for level := 1; level < len(tree.levels); level++ {
		idx /= tree.fanout
		lo, hi := tree.children(level, idx)
		nmin, nmax := mm.identity(), mm.identity()
		for j := lo; j < hi; j++ {
			child := tree.levels[level-1][j]
			nmin = mm.combine(nmin, child.min.Get())
			nmax = mm.combine(nmax, child.max.Get())
		}
		tree.levels[level][idx].min.Set(nmin)
		tree.levels[level][idx].max.Set(nmax)
	}
}

func minMaxRecomputeAll(mm *minMaxTree, vars []*IntVar) {
	tree := mm.tree
	for i, v := range vars {
		tree.levels[0][i].min.Set(v.Min())
		tree.levels[0][i].max.Set(v.Max())
	}
	for level := 1; level < len(tree.levels); level++ {
		for i := range tree.levels[level] {
			lo, hi := tree.children(level, i)
			nmin, nmax := mm.identity(), mm.identity()
			for j := lo; j < hi; j++ {
				child := tree.levels[level-1][j]
				nmin = mm.combine(nmin, child.min.Get())
				nmax = mm.combine(nmax, child.max.Get())
			}
			tree.levels[level][i].min.Set(nmin)
			tree.levels[level][i].max.Set(nmax)
		}
	}
}

// Post subscribes the operand and target demons.
func (c *MinEquals) Post() {
	for i, v := range c.vars {
		idx := i
		v.WhenRange(&Demon{
			Priority: PriorityNormal,
			Name:     fmt.Sprintf("min_leaf(%s)", v.Name()),
			Run:      func() { c.leafChanged(idx) },
		})
	}
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("min_target(%s)", c.target.Name()),
		Run:      func() { c.pushDown() },
	})
}

// InitialPropagate seeds the tree and the target.
func (c *MinEquals) InitialPropagate() {
	minMaxRecomputeAll(c.mm, c.vars)
	root := c.mm.tree.root()
	c.target.SetRange(root.min.Get(), root.max.Get())
	c.pushDown()
}

func (c *MinEquals) leafChanged(i int) {
	minMaxRecompute(c.mm, c.vars, i)
	root := c.mm.tree.root()
	c.target.SetRange(root.min.Get(), root.max.Get())
	c.pushDown()
}

// pushDown propagates the target's bounds to the operands: the lower
// bound lifts every operand's min; the upper bound finds the candidates
// that can still carry the minimum and, when exactly one is left, forces
// its max down to the target's.
func (c *MinEquals) pushDown() {
	tMin, tMax := c.target.Min(), c.target.Max()
	for _, v := range c.vars {
		v.SetMin(tMin)
	}
	// Re-read: lifting operand mins may have moved the target via the
	// leaf demons.
	tMax = c.target.Max()
	candidate := -1
	count := 0
	for i, v := range c.vars {
		if v.Min() <= tMax {
			count++
			candidate = i
			if count > 1 {
				break
			}
		}
	}
	switch count {
	case 0:
		Fail("min(%s): no operand can reach the target's upper bound %d", c.target.Name(), tMax)
	case 1:
		c.vars[candidate].SetMax(tMax)
	}
}

// Accept implements Constraint.
func (c *MinEquals) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintMinEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintMinEqual, c)
}

func (c *MinEquals) String() string {
	return fmt.Sprintf("MinEquals(|vars|=%d, target=%s)", len(c.vars), c.target.Name())
}

// Post subscribes the operand and target demons.
func (c *MaxEquals) Post() {
	for i, v := range c.vars {
		idx := i
		v.WhenRange(&Demon{
			Priority: PriorityNormal,
			Name:     fmt.Sprintf("max_leaf(%s)", v.Name()),
			Run:      func() { c.leafChanged(idx) },
		})
	}
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("max_target(%s)", c.target.Name()),
		Run:      func() { c.pushDown() },
	})
}

// InitialPropagate seeds the tree and the target.
func (c *MaxEquals) InitialPropagate() {
	minMaxRecomputeAll(c.mm, c.vars)
	root := c.mm.tree.root()
	c.target.SetRange(root.min.Get(), root.max.Get())
	c.pushDown()
}

func (c *MaxEquals) leafChanged(i int) {
	minMaxRecompute(c.mm, c.vars, i)
	root := c.mm.tree.root()
	c.target.SetRange(root.min.Get(), root.max.Get())
	c.pushDown()
}

// pushDown mirrors MinEquals: the upper bound caps every operand; once a
// single operand can still reach the target's lower bound, it is forced
// up.
func (c *MaxEquals) pushDown() {
	tMax := c.target.Max()
	for _, v := range c.vars {
		v.SetMax(tMax)
	}
	tMin := c.target.Min()
	candidate := -1
	count := 0
	for i, v := range c.vars {
		if v.Max() >= tMin {
			count++
			candidate = i
			if count > 1 {
				break
			}
		}
	}
	switch count {
	case 0:
		Fail("max(%s): no operand can reach the target's lower bound %d", c.target.Name(), tMin)
	case 1:
		c.vars[candidate].SetMin(tMin)
	}
}

// Accept implements Constraint.
func (c *MaxEquals) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintMaxEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintMaxEqual, c)
}

func (c *MaxEquals) String() string {
	return fmt.Sprintf("MaxEquals(|vars|=%d, target=%s)", len(c.vars), c.target.Name())
}
