package cpkernel

import (
	"fmt"
	"sort"
)

// boolTerm pairs a Boolean variable with its positive coefficient.
type boolTerm struct {
	v     *IntVar
	coeff int64
}

// normalizeBoolTerms sorts terms by ascending coefficient and folds the
// variables already bound at build time into the returned constant:
// a bound 1 contributes its coefficient, a bound 0 disappears.
func normalizeBoolTerms(ctor string, vars []*IntVar, coeffs []int64) (terms []boolTerm, constant int64) {
	if len(vars) != len(coeffs) {
		Abort(ctor, "len(vars)=%d != len(coeffs)=%d", len(vars), len(coeffs))
	}
	for i, v := range vars {
		if v == nil {
			Abort(ctor, "nil variable at index %d", i)
		}
		if coeffs[i] < 0 {
			Abort(ctor, "negative coefficient %d at index %d; split by sign first", coeffs[i], i)
		}
		if v.Bound() {
			if v.Value() == 1 {
				constant = CapAdd(constant, coeffs[i])
			}
			continue
		}
		terms = append(terms, boolTerm{v: v, coeff: coeffs[i]})
	}
	sort.SliceStable(terms, func(a, b int) bool { return terms[a].coeff < terms[b].coeff })
	return terms, constant
}

// PositiveBooleanScalProdLessOrEqual enforces
// sum(c_i * b_i) + constant <= upperBound over Boolean b_i with
// non-negative coefficients pre-sorted ascending. It maintains the sum of
// the operands already at 1 and the index of the largest still-undecided
// coefficient, both reversibly; whenever the remaining slack drops below
// that coefficient, every operand whose coefficient exceeds the slack is
// forced to 0.
type PositiveBooleanScalProdLessOrEqual struct {
	solver     *Solver
	terms      []boolTerm
	constant   int64
	upperBound int64

	sumOfOnes *Rev[int64]
	// maxIndex is the position just past the largest coefficient still
	// undecided; terms[maxIndex-1] carries maxRemainingCoefficient.
	maxIndex *RevInt
}

// NewPositiveBooleanScalProdLessOrEqual builds the specialized
// scalar-product upper bound. Bound variables are absorbed into the
// constant during normalization.
func NewPositiveBooleanScalProdLessOrEqual(s *Solver, vars []*IntVar, coeffs []int64, upperBound int64) *PositiveBooleanScalProdLessOrEqual {
	terms, constant := normalizeBoolTerms("NewPositiveBooleanScalProdLessOrEqual", vars, coeffs)
	return &PositiveBooleanScalProdLessOrEqual{
		solver:     s,
		terms:      terms,
		constant:   constant,
		upperBound: upperBound,
		sumOfOnes:  NewRev(s.trail, constant),
		maxIndex:   NewRevInt(s.trail, len(terms)),
	}
}

func (c *PositiveBooleanScalProdLessOrEqual) Post() {
	vars := make([]*IntVar, len(c.terms))
	for i, t := range c.terms {
		vars[i] = t.v
	}
	checkBoolean("PositiveBooleanScalProdLessOrEqual", vars)
	for i := range c.terms {
		idx := i
		c.terms[i].v.WhenBound(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("scalprod_le(%s)", c.terms[i].v.Name()),
			Run:      func() { c.boundAt(idx) },
		})
	}
}

func (c *PositiveBooleanScalProdLessOrEqual) InitialPropagate() {
	if c.constant > c.upperBound {
		Fail("scal_prod<=%d: bound terms alone sum to %d", c.upperBound, c.constant)
	}
	c.prune()
}

func (c *PositiveBooleanScalProdLessOrEqual) boundAt(i int) {
	t := c.terms[i]
	if !t.v.Bound() {
		return
	}
	if t.v.Value() == 1 {
		sum := CapAdd(c.sumOfOnes.Get(), t.coeff)
		if sum > c.upperBound {
			Fail("scal_prod<=%d: sum of ones reached %d", c.upperBound, sum)
		}
		c.sumOfOnes.Set(sum)
	}
	c.prune()
}

// prune walks the undecided suffix from the largest coefficient down,
// zeroing every operand whose coefficient no longer fits the slack, and
// lowers maxRemainingCoefficient past the decided positions.
func (c *PositiveBooleanScalProdLessOrEqual) prune() {
	slack := CapSub(c.upperBound, c.sumOfOnes.Get())
	hi := c.maxIndex.Get()
	for hi > 0 {
		t := c.terms[hi-1]
		if t.v.Bound() {
			hi--
			continue
		}
		if t.coeff > slack {
			t.v.SetMax(0)
			hi--
			continue
		}
		break
	}
	if hi != c.maxIndex.Get() {
		c.maxIndex.Set(hi)
	}
}

func (c *PositiveBooleanScalProdLessOrEqual) Accept(v ModelVisitor) {
	vars := make([]*IntVar, len(c.terms))
	coeffs := make([]int64, len(c.terms))
	for i, t := range c.terms {
		vars[i] = t.v
		coeffs[i] = t.coeff
	}
	v.BeginVisitConstraint(ConstraintScalProdLessOrEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, vars)
	v.VisitIntegerArrayArgument(ArgCoefficients, coeffs)
	v.VisitIntegerArgument(ArgConstant, CapSub(c.upperBound, c.constant))
	v.EndVisitConstraint(ConstraintScalProdLessOrEqual, c)
}

func (c *PositiveBooleanScalProdLessOrEqual) String() string {
	return fmt.Sprintf("PositiveBooleanScalProdLessOrEqual(|terms|=%d, ub=%d)", len(c.terms), c.upperBound)
}

// PositiveBooleanScalProdEqVar enforces sum(c_i * b_i) + constant ==
// target with two-sided slack reasoning: the target is pinned to
// [sumOfOnes, sumOfOnes + sumOfUndecided], an operand too large for the
// upper slack is forced to 0, and an operand whose absence would leave
// the sum below the target's minimum is forced to 1.
type PositiveBooleanScalProdEqVar struct {
	solver   *Solver
	terms    []boolTerm
	constant int64
	target   *IntVar

	sumOfOnes      *Rev[int64]
	sumOfUndecided *Rev[int64]
}

// NewPositiveBooleanScalProdEqVar builds the specialized scalar-product
// equality against a variable.
func NewPositiveBooleanScalProdEqVar(s *Solver, vars []*IntVar, coeffs []int64, target *IntVar) *PositiveBooleanScalProdEqVar {
	if target == nil {
		Abort("NewPositiveBooleanScalProdEqVar", "nil target")
	}
	terms, constant := normalizeBoolTerms("NewPositiveBooleanScalProdEqVar", vars, coeffs)
	var undecided int64
	for _, t := range terms {
		undecided = CapAdd(undecided, t.coeff)
	}
	return &PositiveBooleanScalProdEqVar{
		solver:         s,
		terms:          terms,
		constant:       constant,
		target:         target,
		sumOfOnes:      NewRev(s.trail, constant),
		sumOfUndecided: NewRev(s.trail, undecided),
	}
}

func (c *PositiveBooleanScalProdEqVar) Post() {
	vars := make([]*IntVar, len(c.terms))
	for i, t := range c.terms {
		vars[i] = t.v
	}
	checkBoolean("PositiveBooleanScalProdEqVar", vars)
	for i := range c.terms {
		idx := i
		c.terms[i].v.WhenBound(&Demon{
			Priority: PriorityVar,
			Name:     fmt.Sprintf("scalprod_eq(%s)", c.terms[i].v.Name()),
			Run:      func() { c.boundAt(idx) },
		})
	}
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("scalprod_eq_target(%s)", c.target.Name()),
		Run:      func() { c.refine() },
	})
}

func (c *PositiveBooleanScalProdEqVar) InitialPropagate() { c.refine() }

func (c *PositiveBooleanScalProdEqVar) boundAt(i int) {
	t := c.terms[i]
	if !t.v.Bound() {
		return
	}
	c.sumOfUndecided.Set(CapSub(c.sumOfUndecided.Get(), t.coeff))
	if t.v.Value() == 1 {
		c.sumOfOnes.Set(CapAdd(c.sumOfOnes.Get(), t.coeff))
	}
	c.refine()
}

func (c *PositiveBooleanScalProdEqVar) refine() {
	ones := c.sumOfOnes.Get()
	undecided := c.sumOfUndecided.Get()
	c.target.SetRange(ones, CapAdd(ones, undecided))

	for _, t := range c.terms {
		if t.v.Bound() {
			continue
		}
		// Slack is re-read per operand: forcing one operand runs its
		// demons, which move the counters before the loop continues.
		upperSlack := CapSub(c.target.Max(), c.sumOfOnes.Get())
		lowerNeed := CapSub(c.target.Min(), c.sumOfOnes.Get())
		if t.coeff > upperSlack {
			t.v.SetMax(0)
			continue
		}
		// Forcing to 1 is sound when dropping this operand leaves the
		// remaining undecided coefficients unable to reach the target's
		// minimum.
		if CapSub(c.sumOfUndecided.Get(), t.coeff) < lowerNeed {
			t.v.SetMin(1)
		}
	}
}

func (c *PositiveBooleanScalProdEqVar) Accept(v ModelVisitor) {
	vars := make([]*IntVar, len(c.terms))
	coeffs := make([]int64, len(c.terms))
	for i, t := range c.terms {
		vars[i] = t.v
		coeffs[i] = t.coeff
	}
	v.BeginVisitConstraint(ConstraintScalProdEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, vars)
	v.VisitIntegerArrayArgument(ArgCoefficients, coeffs)
	v.VisitIntegerArgument(ArgConstant, c.constant)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintScalProdEqual, c)
}

func (c *PositiveBooleanScalProdEqVar) String() string {
	return fmt.Sprintf("PositiveBooleanScalProdEqVar(|terms|=%d, target=%s)", len(c.terms), c.target.Name())
}
