package cpkernel

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// log is the kernel's ambient structured logger. It is deliberately not a
// statistics/telemetry pipeline; it reports precondition violations,
// limit-triggered termination, and assignment entries skipped on save or
// load.
var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLogOutput redirects the kernel's diagnostic logger, primarily for
// tests that want to assert on precondition-violation output instead of
// polluting stderr.
func SetLogOutput(w zerolog.ConsoleWriter) {
	log = zerolog.New(w).With().Timestamp().Logger()
}

// failSignal is the distinguished panic value carrying a logical
// contradiction (fail). It is recovered at the nearest search-node
// boundary, not surfaced to the host as an error: fail is normal
// backtracking control flow, and plumbing it as a returned error through
// every demon and every tree-propagator recursion would bury the one case
// that must never be accidentally swallowed behind the many cases that
// legitimately return nil.
type failSignal struct {
	reason string
}

// Fail raises a logical contradiction: the current branch is infeasible.
// Constraints call this (instead of returning an error) the moment they
// detect an empty domain or a violated constraint. It unwinds through
// whatever demon, tree-propagator, or consolidation call is currently
// executing until the kernel's propagation loop recovers it.
func Fail(reason string, args ...interface{}) {
	panic(failSignal{reason: fmt.Sprintf(reason, args...)})
}

// recoverFail runs fn and converts a Fail() panic into (reason, true). A
// non-fail panic is re-raised: a programming error must never be
// silently reinterpreted as a logical contradiction.
func recoverFail(fn func()) (reason string, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			if fs, ok := r.(failSignal); ok {
				reason, failed = fs.reason, true
				return
			}
			panic(r)
		}
	}()
	fn()
	return "", false
}

// PreconditionError marks a programming-error precondition violation:
// writing to the unsupported side of a relaxed interval wrapper, posting
// two objectives, building a constraint over a nil variable, and similar
// host-code mistakes that no amount of search can recover from. These are
// checked, logged, and fatal to the process, never routed through Fail.
type PreconditionError struct {
	Component string
	Detail    string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violation in %s: %s", e.Component, e.Detail)
}

// Abort logs a precondition violation at error level and then panics with
// a *PreconditionError. Unlike Fail, this is never recovered by the
// propagation loop: it is a defect in the calling code, not a property of
// the search space.
func Abort(component, detail string, args ...interface{}) {
	err := &PreconditionError{Component: component, Detail: fmt.Sprintf(detail, args...)}
	log.Error().Str("component", component).Str("detail", err.Detail).Msg("precondition_violation")
	panic(err)
}

// SolveStatus distinguishes the three ways a search can end. A limit hit
// is reported distinctly from a logically exhausted search tree.
type SolveStatus int

const (
	// StatusSolved means the most recent call to Next found a solution;
	// the search can be resumed for further ones.
	StatusSolved SolveStatus = iota
	// StatusExhausted means the entire search tree was explored and no
	// (further) solution exists.
	StatusExhausted
	// StatusTimedOut means a Limit fired before the tree was exhausted;
	// whatever solutions were already collected are returned alongside
	// this status.
	StatusTimedOut
)

func (s SolveStatus) String() string {
	switch s {
	case StatusSolved:
		return "solved"
	case StatusExhausted:
		return "exhausted-without-solution"
	case StatusTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}
