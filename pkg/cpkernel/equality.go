package cpkernel

import "fmt"

// VarEquality enforces x == y by mirroring bounds in both directions.
type VarEquality struct {
	solver *Solver
	x, y   *IntVar
}

// NewVarEquality builds x == y.
func NewVarEquality(s *Solver, x, y *IntVar) *VarEquality {
	if x == nil || y == nil {
		Abort("NewVarEquality", "nil operand")
	}
	return &VarEquality{solver: s, x: x, y: y}
}

func (c *VarEquality) Post() {
	c.x.WhenRange(&Demon{
		Priority: PriorityVar,
		Name:     fmt.Sprintf("eq(%s->%s)", c.x.Name(), c.y.Name()),
		Run:      func() { c.y.SetRange(c.x.Min(), c.x.Max()) },
	})
	c.y.WhenRange(&Demon{
		Priority: PriorityVar,
		Name:     fmt.Sprintf("eq(%s->%s)", c.y.Name(), c.x.Name()),
		Run:      func() { c.x.SetRange(c.y.Min(), c.y.Max()) },
	})
}

func (c *VarEquality) InitialPropagate() {
	c.y.SetRange(c.x.Min(), c.x.Max())
	c.x.SetRange(c.y.Min(), c.y.Max())
}

func (c *VarEquality) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintScalProdEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, []*IntVar{c.x})
	v.VisitIntegerArrayArgument(ArgCoefficients, []int64{1})
	v.VisitIntegerVariableArgument(ArgTarget, c.y)
	v.EndVisitConstraint(ConstraintScalProdEqual, c)
}

func (c *VarEquality) String() string {
	return fmt.Sprintf("VarEquality(%s == %s)", c.x.Name(), c.y.Name())
}

// ceilDiv and floorDiv implement sign-correct integer division for
// coefficient elimination. divisor must be non-zero.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return q
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a > 0) != (b > 0) {
		q--
	}
	return q
}

// ScalProdEquals is the general mixed-sign linear constraint
// sum(coeffs[i] * vars[i]) == target with bound-consistent pruning. The
// Boolean specializations replace it whenever normalization applies; it
// remains the fallback and the glue for sign-split decompositions.
type ScalProdEquals struct {
	solver *Solver
	vars   []*IntVar
	coeffs []int64
	target *IntVar
}

// NewScalProdEquals builds the generic scalar-product equality. Zero
// coefficients are allowed and ignored by propagation.
func NewScalProdEquals(s *Solver, vars []*IntVar, coeffs []int64, target *IntVar) *ScalProdEquals {
	if len(vars) == 0 {
		Abort("NewScalProdEquals", "empty variable array")
	}
	if len(vars) != len(coeffs) {
		Abort("NewScalProdEquals", "len(vars)=%d != len(coeffs)=%d", len(vars), len(coeffs))
	}
	if target == nil {
		Abort("NewScalProdEquals", "nil target")
	}
	for i, v := range vars {
		if v == nil {
			Abort("NewScalProdEquals", "nil variable at index %d", i)
		}
	}
	vcopy := make([]*IntVar, len(vars))
	copy(vcopy, vars)
	ccopy := make([]int64, len(coeffs))
	copy(ccopy, coeffs)
	return &ScalProdEquals{solver: s, vars: vcopy, coeffs: ccopy, target: target}
}

func (c *ScalProdEquals) Post() {
	for _, v := range c.vars {
		v.WhenRange(&Demon{
			Priority: PriorityNormal,
			Name:     fmt.Sprintf("scalprod(%s)", v.Name()),
			Run:      func() { c.propagate() },
		})
	}
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("scalprod_target(%s)", c.target.Name()),
		Run:      func() { c.propagate() },
	})
}

func (c *ScalProdEquals) InitialPropagate() { c.propagate() }

// termBounds returns the [min,max] contribution of term i.
func (c *ScalProdEquals) termBounds(i int) (int64, int64) {
	v, coeff := c.vars[i], c.coeffs[i]
	if coeff >= 0 {
		return CapMul(coeff, v.Min()), CapMul(coeff, v.Max())
	}
	return CapMul(coeff, v.Max()), CapMul(coeff, v.Min())
}

func (c *ScalProdEquals) propagate() {
	var sumMin, sumMax int64
	for i := range c.vars {
		lo, hi := c.termBounds(i)
		sumMin = CapAdd(sumMin, lo)
		sumMax = CapAdd(sumMax, hi)
	}
	c.target.SetRange(sumMin, sumMax)

	for i := range c.vars {
		coeff := c.coeffs[i]
		if coeff == 0 {
			continue
		}
		lo, hi := c.termBounds(i)
		otherMin := CapSub(sumMin, lo)
		otherMax := CapSub(sumMax, hi)
		termLo := CapSub(c.target.Min(), otherMax)
		termHi := CapSub(c.target.Max(), otherMin)
		if termLo == MinInt && termHi == MaxInt {
			continue
		}
		var newLo, newHi int64
		if coeff > 0 {
			newLo, newHi = ceilDiv(termLo, coeff), floorDiv(termHi, coeff)
		} else {
			newLo, newHi = ceilDiv(termHi, coeff), floorDiv(termLo, coeff)
		}
		// Integer rounding can empty the range even when the raw interval
		// was not empty; that is a contradiction, not a malformed call.
		if newLo > newHi {
			Fail("scal_prod(%s): no integer value for %s in [%d,%d]/%d",
				c.target.Name(), c.vars[i].Name(), termLo, termHi, coeff)
		}
		c.vars[i].SetRange(newLo, newHi)
	}
}

func (c *ScalProdEquals) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintScalProdEqual, c)
	v.VisitIntegerVariableArrayArgument(ArgVars, c.vars)
	v.VisitIntegerArrayArgument(ArgCoefficients, c.coeffs)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintScalProdEqual, c)
}

func (c *ScalProdEquals) String() string {
	return fmt.Sprintf("ScalProdEquals(|vars|=%d, target=%s)", len(c.vars), c.target.Name())
}

// ElementFunction enforces target == f(index) for a host-supplied pure
// function over the index's domain. Propagation scans the index's current
// domain, so it is intended for the narrow index ranges routing models
// produce (transition times, demand tables).
type ElementFunction struct {
	solver *Solver
	f      func(int64) int64
	index  *IntVar
	target *IntVar
}

// NewElementFunction builds target == f(index). f must be pure: it is
// re-evaluated freely during propagation.
func NewElementFunction(s *Solver, f func(int64) int64, index, target *IntVar) *ElementFunction {
	if f == nil {
		Abort("NewElementFunction", "nil function")
	}
	if index == nil || target == nil {
		Abort("NewElementFunction", "nil variable")
	}
	return &ElementFunction{solver: s, f: f, index: index, target: target}
}

func (c *ElementFunction) Post() {
	c.index.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("element(%s)", c.index.Name()),
		Run:      func() { c.propagate() },
	})
	c.target.WhenRange(&Demon{
		Priority: PriorityNormal,
		Name:     fmt.Sprintf("element_target(%s)", c.target.Name()),
		Run:      func() { c.propagate() },
	})
}

func (c *ElementFunction) InitialPropagate() { c.propagate() }

func (c *ElementFunction) propagate() {
	lo, hi := int64(MaxInt), int64(MinInt)
	for i := c.index.Min(); i <= c.index.Max(); i++ {
		if !c.index.Has(i) {
			continue
		}
		val := c.f(i)
		if val < c.target.Min() || val > c.target.Max() {
			c.index.RemoveValue(i)
			continue
		}
		if val < lo {
			lo = val
		}
		if val > hi {
			hi = val
		}
	}
	if lo > hi {
		Fail("element(%s): no index value maps into the target's range", c.index.Name())
	}
	c.target.SetRange(lo, hi)
}

func (c *ElementFunction) Accept(v ModelVisitor) {
	v.BeginVisitConstraint(ConstraintScalProdEqual, c)
	v.VisitIntegerVariableArgument(ArgVars, c.index)
	v.VisitIntegerVariableArgument(ArgTarget, c.target)
	v.EndVisitConstraint(ConstraintScalProdEqual, c)
}

func (c *ElementFunction) String() string {
	return fmt.Sprintf("ElementFunction(%s -> %s)", c.index.Name(), c.target.Name())
}
