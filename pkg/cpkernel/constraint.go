package cpkernel

// Constraint is a stateful propagator. Post subscribes its demons to the
// variables it watches; InitialPropagate seeds bounds before any event
// has fired. All mutable state a constraint keeps across events must live
// in reversible cells so that backtracking restores it.
//
// Constraints signal infeasibility by calling Fail, never by returning an
// error: the propagation loop recovers the signal and reports ErrFailed
// from the enclosing Solver.Propagate.
type Constraint interface {
	Post()
	InitialPropagate()

	// Accept walks the constraint's structure through a ModelVisitor.
	Accept(v ModelVisitor)

	String() string
}
