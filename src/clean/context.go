// Package clean implements clean-expr: the pipeline every
// expression passes through before it may appear in an equation step —
// let-lifting, L2 renaming, dereference removal against a ValueSet,
// byte-extract/selector normalization on assignment targets, and finally
// simplification. Grounded on a typical optimization pass pipeline (a
// small set of single-purpose tree rewrites run in sequence) generalized
// from parse-tree mutation to the immutable expr.Expr shape.
package clean

import (
	"strconv"

	"symex/src/collab"
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/guard"
	"symex/src/rename"
	"symex/src/util"
)

// Context bundles everything a clean-expr pass needs from the owning
// execution state and configuration, passed as explicit parameters
// rather than read from shared global mutable state.
type Context struct {
	Scope    *rename.Scope
	Values   collab.ValueSet
	Guard    *guard.Guard
	Simplify collab.Simplify
	Opt      util.Options
	Trace    *util.Trace

	// Emit appends a step to the owning equation — used to record
	// let-lifted auxiliary assignments at the point
	// they're discovered, before the surrounding instruction's own step
	// is emitted by the interpreter.
	Emit func(*equation.Step)

	// FailObject mints a fresh failed-dereference object name. Interpreter
	// callers wire this to util.NewLabel(util.LabelFailedObject);
	// NewContext supplies a counting fallback so this package's own
	// tests don't need the label-generator goroutine running.
	FailObject func() string
}

// NewContext returns a Context with FailObject defaulted when left nil.
func NewContext(c Context) *Context {
	if c.FailObject == nil {
		n := 0
		c.FailObject = func() string {
			n++
			return "failed_obj_" + strconv.Itoa(n)
		}
	}
	return &c
}

// Result is everything a clean-expr pass produces besides the cleaned
// expression itself.
type Result struct {
	// AuxKilled lists the L0 names of let-lifted locals declared while
	// cleaning, which the caller must Dead-kill.
	AuxKilled []string

	// DerefFailures lists the pointer expressions that failed to resolve
	// against the value-set during this clean-expr pass,
	// for the caller to turn into validity assertions.
	DerefFailures []DerefFailure
}

// DerefFailure records one dereference the value-set could not resolve
// to any target, paired with the failed-object symbol substituted in its
// place.
type DerefFailure struct {
	Ptr    *expr.Expr
	Object string
}
