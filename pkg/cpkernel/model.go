package cpkernel

// This file is the model-building surface: factory helpers that pick the
// cheapest propagator for the shape of the posted relation. Hosts can
// always construct and Post the concrete constraints directly; the
// factories add the normalization pass that makes the Boolean
// specializations reachable.

// isBooleanArray reports whether every variable currently has a [0,1]
// domain.
func isBooleanArray(vars []*IntVar) bool {
	for _, v := range vars {
		if v == nil || v.Min() < 0 || v.Max() > 1 {
			return false
		}
	}
	return true
}

// MakeSumEquals posts sum(vars) == target, routed to a Boolean
// specialization when all operands are Boolean and to the balanced-tree
// propagator otherwise.
func (s *Solver) MakeSumEquals(vars []*IntVar, target *IntVar) error {
	if isBooleanArray(vars) {
		if target.Bound() && target.Value() == 1 {
			return s.Post(NewSumBooleanEqualOne(s, vars))
		}
		return s.Post(NewSumBooleanEqualVar(s, vars, target))
	}
	return s.Post(NewSumEquals(s, vars, target))
}

// MakeSumLessOrEqual posts sum(vars) <= ub. The all-Boolean ub == 1 case
// uses the at-most-one specialization; otherwise the sum is materialized
// through a tree into a bounded target.
func (s *Solver) MakeSumLessOrEqual(vars []*IntVar, ub int64) error {
	if isBooleanArray(vars) && ub == 1 {
		return s.Post(NewSumBooleanLessOrEqualOne(s, vars))
	}
	target := s.NewIntVar(MinInt, ub, "")
	return s.Post(NewSumEquals(s, vars, target))
}

// MakeSumGreaterOrEqual posts sum(vars) >= lb, with the all-Boolean
// lb == 1 case routed to the bitset specialization.
func (s *Solver) MakeSumGreaterOrEqual(vars []*IntVar, lb int64) error {
	if isBooleanArray(vars) && lb == 1 {
		return s.Post(NewSumBooleanGreaterOrEqualOne(s, vars))
	}
	target := s.NewIntVar(lb, MaxInt, "")
	return s.Post(NewSumEquals(s, vars, target))
}

// MakeMinEquals posts min(vars) == target.
func (s *Solver) MakeMinEquals(vars []*IntVar, target *IntVar) error {
	return s.Post(NewMinEquals(s, vars, target))
}

// MakeMaxEquals posts max(vars) == target.
func (s *Solver) MakeMaxEquals(vars []*IntVar, target *IntVar) error {
	return s.Post(NewMaxEquals(s, vars, target))
}

// splitBySign partitions the terms of a scalar product into positive and
// negated-negative halves, dropping zero coefficients.
func splitBySign(vars []*IntVar, coeffs []int64) (posVars []*IntVar, posCoeffs []int64, negVars []*IntVar, negCoeffs []int64) {
	for i, coeff := range coeffs {
		switch {
		case coeff > 0:
			posVars = append(posVars, vars[i])
			posCoeffs = append(posCoeffs, coeff)
		case coeff < 0:
			negVars = append(negVars, vars[i])
			negCoeffs = append(negCoeffs, CapSub(0, coeff))
		}
	}
	return
}

// boundedSum returns a conservative domain for sum(coeffs[i] * [0,1]).
func boundedSum(coeffs []int64) int64 {
	var total int64
	for _, c := range coeffs {
		total = CapAdd(total, c)
	}
	return total
}

// MakeScalProdEquals posts sum(coeffs[i]*vars[i]) == target. All-Boolean
// non-negative products go to the positive specialization; mixed signs
// over Booleans are split by sign into two positive products glued with
// a difference; everything else uses the generic propagator.
func (s *Solver) MakeScalProdEquals(vars []*IntVar, coeffs []int64, target *IntVar) error {
	if len(vars) != len(coeffs) {
		Abort("MakeScalProdEquals", "len(vars)=%d != len(coeffs)=%d", len(vars), len(coeffs))
	}
	if !isBooleanArray(vars) {
		return s.Post(NewScalProdEquals(s, vars, coeffs, target))
	}
	posVars, posCoeffs, negVars, negCoeffs := splitBySign(vars, coeffs)
	if len(negVars) == 0 {
		return s.Post(NewPositiveBooleanScalProdEqVar(s, posVars, posCoeffs, target))
	}
	if len(posVars) == 0 {
		neg := s.NewIntVar(0, boundedSum(negCoeffs), "")
		if err := s.Post(NewPositiveBooleanScalProdEqVar(s, negVars, negCoeffs, neg)); err != nil {
			return err
		}
		return s.Post(NewScalProdEquals(s, []*IntVar{neg}, []int64{-1}, target))
	}
	pos := s.NewIntVar(0, boundedSum(posCoeffs), "")
	neg := s.NewIntVar(0, boundedSum(negCoeffs), "")
	if err := s.Post(NewPositiveBooleanScalProdEqVar(s, posVars, posCoeffs, pos)); err != nil {
		return err
	}
	if err := s.Post(NewPositiveBooleanScalProdEqVar(s, negVars, negCoeffs, neg)); err != nil {
		return err
	}
	// Glue: pos - neg == target.
	return s.Post(NewScalProdEquals(s, []*IntVar{pos, neg}, []int64{1, -1}, target))
}

// MakeScalProdLessOrEqual posts sum(coeffs[i]*vars[i]) <= ub. The
// all-Boolean non-negative case uses the slack-tracking specialization;
// otherwise the product is materialized into a bounded target. A sum of
// all-ones coefficients is promoted back to a plain sum so the pure-sum
// machinery applies.
func (s *Solver) MakeScalProdLessOrEqual(vars []*IntVar, coeffs []int64, ub int64) error {
	if len(vars) != len(coeffs) {
		Abort("MakeScalProdLessOrEqual", "len(vars)=%d != len(coeffs)=%d", len(vars), len(coeffs))
	}
	allOnes := true
	nonNegative := true
	for _, c := range coeffs {
		if c != 1 {
			allOnes = false
		}
		if c < 0 {
			nonNegative = false
		}
	}
	if allOnes {
		return s.MakeSumLessOrEqual(vars, ub)
	}
	if isBooleanArray(vars) && nonNegative {
		return s.Post(NewPositiveBooleanScalProdLessOrEqual(s, vars, coeffs, ub))
	}
	target := s.NewIntVar(MinInt, ub, "")
	return s.Post(NewScalProdEquals(s, vars, coeffs, target))
}

// MakeEquality posts x == y.
func (s *Solver) MakeEquality(x, y *IntVar) error {
	return s.Post(NewVarEquality(s, x, y))
}

// MakeElement posts target == f(index).
func (s *Solver) MakeElement(f func(int64) int64, index, target *IntVar) error {
	return s.Post(NewElementFunction(s, f, index, target))
}

// MakeNonOverlapping posts pairwise non-overlap over rectangles given as
// parallel position/size arrays.
func (s *Solver) MakeNonOverlapping(x, y, dx, dy []*IntVar) error {
	n := len(x)
	if n == 0 || len(y) != n || len(dx) != n || len(dy) != n {
		Abort("MakeNonOverlapping", "x, y, dx, dy must have equal non-zero lengths")
	}
	boxes := make([]Rectangle, n)
	for i := 0; i < n; i++ {
		boxes[i] = Rectangle{X: x[i], Y: y[i], DX: dx[i], DY: dy[i]}
	}
	return s.Post(NewDiffn(s, boxes))
}

// FixedValueVar returns a variable bound to value, the "1 × const" term
// used when a normalized constant has to re-enter a pure sum.
func (s *Solver) FixedValueVar(value int64, name string) *IntVar {
	return s.NewIntVar(value, value, name)
}
