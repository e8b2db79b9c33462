package cpkernel

import "fmt"

// checkBoolean aborts unless every variable is a [0,1] variable at
// post time. The Boolean specializations rely on it.
func checkBoolean(ctor string, vars []*IntVar) {
	for i, v := range vars {
		if v == nil {
			Abort(ctor, "nil variable at index %d", i)
		}
		if v.Min() < 0 || v.Max() > 1 {
			Abort(ctor, "%s is not Boolean ([%d,%d])", v.Name(), v.Min(), v.Max())
		}
	}
}

// SumBooleanLessOrEqualOne enforces b_0 + ... + b_n <= 1: the first
// variable bound to 1 forces all others to 0. A reversible switch marks
// the absorbed state so later events are O(1).
type SumBooleanLessOrEqualOne struct {
	solver *Solver
	vars   []*IntVar
	done   *RevSwitch
}

// NewSumBooleanLessOrEqualOne builds the at-most-one constraint.
func NewSumBooleanLessOrEqualOne(s *Solver, vars []*IntVar) *SumBooleanLessOrEqualOne {
	if len(vars) == 0 {
		Abort("NewSumBooleanLessOrEqualOne", "empty variable array")
	}
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &SumBooleanLessOrEqualOne{solver: s, vars: copied, done: NewRevSwitch(s.trail)}
}

func (c *SumBooleanLessOrEqualOne) Post() {
	checkBoolean("SumBooleanLessOrEqualOne", c.vars)
	for i, v := range c.vars {
		idx := i
		v.WhenBound(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("atmostone(%s)", v.Name()),
			Run:      func() { c.boundTo(idx) },
		})
	}
}

func (c *SumBooleanLessOrEqualOne) InitialPropagate() {
	for i, v := range c.vars {
		if v.Bound() && v.Value() == 1 {
			c.boundTo(i)
			return
		}
	}
}

func (c *SumBooleanLessOrEqualOne) boundTo(i int) {
	if c.done.On() {
		return
	}
	v := c.vars[i]
	if !v.Bound() || v.Value() != 1 {
		return
	}
	c.done.Flip()
	for j, other := range c.vars {
		if j != i {
			other.SetMax(0)
		}
	}
}

func (c *SumBooleanLessOrEqualOne) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintScalProdLessOrEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerArgument(ArgConstant, 1)
	v.EndVisitConstraint(ConstraintScalProdLessOrEqual, c)
}

func (c *SumBooleanLessOrEqualOne) String() string {
	return fmt.Sprintf("SumBooleanLessOrEqualOne(|vars|=%d)", len(c.vars))
}

// SumBooleanGreaterOrEqualOne enforces b_0 + ... + b_n >= 1 with a
// reversible bitset of positions still possibly 1: cardinality 0 fails,
// cardinality 1 forces the survivor.
type SumBooleanGreaterOrEqualOne struct {
	solver   *Solver
	vars     []*IntVar
	possible *RevBitset
	done     *RevSwitch
}

// NewSumBooleanGreaterOrEqualOne builds the at-least-one constraint.
func NewSumBooleanGreaterOrEqualOne(s *Solver, vars []*IntVar) *SumBooleanGreaterOrEqualOne {
	if len(vars) == 0 {
		Abort("NewSumBooleanGreaterOrEqualOne", "empty variable array")
	}
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &SumBooleanGreaterOrEqualOne{
		solver:   s,
		vars:     copied,
		possible: NewRevBitsetAllSet(s.trail, len(vars)),
		done:     NewRevSwitch(s.trail),
	}
}

func (c *SumBooleanGreaterOrEqualOne) Post() {
	checkBoolean("SumBooleanGreaterOrEqualOne", c.vars)
	for i, v := range c.vars {
		idx := i
		v.WhenBound(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("atleastone(%s)", v.Name()),
			Run:      func() { c.boundAt(idx) },
		})
	}
}

func (c *SumBooleanGreaterOrEqualOne) InitialPropagate() {
	for i := range c.vars {
		if c.vars[i].Bound() {
			c.boundAt(i)
			if c.done.On() {
				return
			}
		}
	}
}

func (c *SumBooleanGreaterOrEqualOne) boundAt(i int) {
	if c.done.On() {
		return
	}
	v := c.vars[i]
	if !v.Bound() {
		return
	}
	if v.Value() == 1 {
		c.done.Flip()
		return
	}
	c.possible.Clear(i)
	if c.possible.CardinalityAtMost(0) {
		Fail("at-least-one: every operand is 0")
	}
	if sole, ok := c.possible.SoleMember(); ok {
		c.done.Flip()
		c.vars[sole].SetMin(1)
	}
}

func (c *SumBooleanGreaterOrEqualOne) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintSumEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerArgument(ArgConstant, 1)
	v.EndVisitConstraint(ConstraintSumEqual, c)
}

func (c *SumBooleanGreaterOrEqualOne) String() string {
	return fmt.Sprintf("SumBooleanGreaterOrEqualOne(|vars|=%d)", len(c.vars))
}

// SumBooleanEqualOne enforces b_0 + ... + b_n == 1 by combining the
// at-most-one forcing with the at-least-one bitset.
type SumBooleanEqualOne struct {
	solver   *Solver
	vars     []*IntVar
	possible *RevBitset
	done     *RevSwitch
}

// NewSumBooleanEqualOne builds the exactly-one constraint.
func NewSumBooleanEqualOne(s *Solver, vars []*IntVar) *SumBooleanEqualOne {
	if len(vars) == 0 {
		Abort("NewSumBooleanEqualOne", "empty variable array")
	}
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &SumBooleanEqualOne{
		solver:   s,
		vars:     copied,
		possible: NewRevBitsetAllSet(s.trail, len(vars)),
		done:     NewRevSwitch(s.trail),
	}
}

func (c *SumBooleanEqualOne) Post() {
	checkBoolean("SumBooleanEqualOne", c.vars)
	for i, v := range c.vars {
		idx := i
		v.WhenBound(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("exactlyone(%s)", v.Name()),
			Run:      func() { c.boundAt(idx) },
		})
	}
}

func (c *SumBooleanEqualOne) InitialPropagate() {
	for i := range c.vars {
		if c.vars[i].Bound() {
			c.boundAt(i)
			if c.done.On() {
				return
			}
		}
	}
}

func (c *SumBooleanEqualOne) boundAt(i int) {
	if c.done.On() {
		return
	}
	v := c.vars[i]
	if !v.Bound() {
		return
	}
	if v.Value() == 1 {
		c.done.Flip()
		for j, other := range c.vars {
			if j != i {
				other.SetMax(0)
			}
		}
		return
	}
	c.possible.Clear(i)
	if c.possible.CardinalityAtMost(0) {
		Fail("exactly-one: every operand is 0")
	}
	if sole, ok := c.possible.SoleMember(); ok {
		c.done.Flip()
		c.vars[sole].SetMin(1)
	}
}

func (c *SumBooleanEqualOne) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintSumEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerArgument(ArgConstant, 1)
	v.EndVisitConstraint(ConstraintSumEqual, c)
}

func (c *SumBooleanEqualOne) String() string {
	return fmt.Sprintf("SumBooleanEqualOne(|vars|=%d)", len(c.vars))
}

// SumBooleanEqualVar enforces b_0 + ... + b_n == target. Reversible
// counters track how many operands are already 1 and how many are still
// undecided; the target's range is pinned to [ones, ones+undecided], and
// a tight side forces the undecided operands one way.
type SumBooleanEqualVar struct {
	solver    *Solver
	vars      []*IntVar
	target    *IntVar
	ones      *RevInt
	undecided *RevInt
}

// NewSumBooleanEqualVar builds the Boolean-sum-to-variable constraint.
func NewSumBooleanEqualVar(s *Solver, vars []*IntVar, target *IntVar) *SumBooleanEqualVar {
	if len(vars) == 0 {
		Abort("NewSumBooleanEqualVar", "empty variable array")
	}
	if target == nil {
		Abort("NewSumBooleanEqualVar", "nil target")
	}
	copied := make([]*IntVar, len(vars))
	copy(copied, vars)
	return &SumBooleanEqualVar{
		solver:    s,
		vars:      copied,
		target:    target,
		ones:      NewRevInt(s.trail, 0),
		undecided: NewRevInt(s.trail, len(vars)),
	}
}

func (c *SumBooleanEqualVar) Post() {
	checkBoolean("SumBooleanEqualVar", c.vars)
	for i, v := range c.vars {
		idx := i
		v.WhenBound(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("boolsum(%s)", v.Name()),
			Run:      func() { c.boundAt(idx) },
		})
	}
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("boolsum_target(%s)", c.target.Name()),
		Run:      func() { c.refine() },
	})
}

func (c *SumBooleanEqualVar) InitialPropagate() {
	ones, undecided := 0, 0
	for _, v := range c.vars {
		switch {
		case !v.Bound():
			undecided++
		case v.Value() == 1:
			ones++
		}
	}
	c.ones.Set(ones)
	c.undecided.Set(undecided)
	c.refine()
}

func (c *SumBooleanEqualVar) boundAt(i int) {
	v := c.vars[i]
	if !v.Bound() {
		return
	}
	c.undecided.Incr(-1)
	if v.Value() == 1 {
		c.ones.Incr(1)
	}
	c.refine()
}

// refine pins the target to [ones, ones+undecided] and, when one side is
// tight, fixes every undecided operand.
func (c *SumBooleanEqualVar) refine() {
	ones := int64(c.ones.Get())
	undecided := int64(c.undecided.Get())
	c.target.SetRange(ones, ones+undecided)
	if undecided == 0 {
		return
	}
	switch {
	case c.target.Min() == ones+undecided:
		for _, v := range c.vars {
			if !v.Bound() {
				v.SetMin(1)
			}
		}
	case c.target.Max() == ones:
		for _, v := range c.vars {
			if !v.Bound() {
				v.SetMax(0)
			}
		}
	}
}

func (c *SumBooleanEqualVar) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintSumEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintSumEqual, c)
}

func (c *SumBooleanEqualVar) String() string {
	return fmt.Sprintf("SumBooleanEqualVar(|vars|=%d, target=%s)", len(c.vars), c.target.Name())
}
