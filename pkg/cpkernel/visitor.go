package cpkernel

// Well-known type tags emitted through the model visitor. External
// exporters key on these strings.
const (
	ConstraintSumEqual            = "sum_equal"
	ConstraintMinEqual            = "min_equal"
	ConstraintMaxEqual            = "max_equal"
	ConstraintScalProdEqual       = "scal_prod_equal"
	ConstraintScalProdLessOrEqual = "scal_prod_less_or_equal"
	ConstraintDisjunctive         = "disjunctive"

	OperationMirror           = "mirror_operation"
	OperationRelaxedMax       = "relaxed_max_operation"
	OperationRelaxedMin       = "relaxed_min_operation"
	OperationStartSyncOnStart = "start_sync_on_start_operation"
	OperationStartSyncOnEnd   = "start_sync_on_end_operation"
)

// Well-known argument names.
const (
	ArgVars         = "vars"
	ArgCoefficients = "coefficients"
	ArgTarget       = "target"
	ArgConstant     = "constant"
	ArgIntervals    = "intervals"
)

// ModelVisitor receives a structural walk of the model. Constraints and
// interval operations report themselves with the well-known type tags
// above; arguments arrive between the begin/end pair.
type ModelVisitor interface {
	BeginVisitConstraint(typeName string, c Constraint)
	EndVisitConstraint(typeName string, c Constraint)

	BeginVisitExpression(typeName string)
	EndVisitExpression(typeName string)

	VisitIntegerArgument(argName string, value int64)
	VisitIntegerArrayArgument(argName string, values []int64)
	VisitIntegerVariableArgument(argName string, v *IntVar)
	VisitIntegerVariableArrayArgument(argName string, vars []*IntVar)
	VisitIntervalArgument(argName string, iv IntervalVar)
}

// BaseModelVisitor is a no-op ModelVisitor for embedding, so visitors
// only override the callbacks they care about.
type BaseModelVisitor struct{}

func (BaseModelVisitor) BeginVisitConstraint(string, Constraint)             {}
func (BaseModelVisitor) EndVisitConstraint(string, Constraint)               {}
func (BaseModelVisitor) BeginVisitExpression(string)                         {}
func (BaseModelVisitor) EndVisitExpression(string)                           {}
func (BaseModelVisitor) VisitIntegerArgument(string, int64)                  {}
func (BaseModelVisitor) VisitIntegerArrayArgument(string, []int64)           {}
func (BaseModelVisitor) VisitIntegerVariableArgument(string, *IntVar)        {}
func (BaseModelVisitor) VisitIntegerVariableArrayArgument(string, []*IntVar) {}
func (BaseModelVisitor) VisitIntervalArgument(string, IntervalVar)           {}

// Accept walks every posted constraint of the solver through v, in post
// order.
func (s *Solver) Accept(v ModelVisitor) {
	for _, c := range s.constraints {
		c.Accept(v)
	}
}

// AcceptIntervalOperation reports a wrapper-producing interval operation
// through the visitor as an expression with the matching well-known tag.
func AcceptIntervalOperation(v ModelVisitor, typeName string, base IntervalVar) {
	v.BeginVisitExpression(typeName)
	v.VisitIntervalArgument(ArgIntervals, base)
	v.EndVisitExpression(typeName)
}
