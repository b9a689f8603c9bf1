// Package interp implements the instruction interpreter:
// the per-opcode transition logic dispatched on each step of the
// path-exploration controller (package symex). Modeled on a typical
// backend code generator, which dispatches on an instruction-kind
// switch and mutates a machine state one instruction at a time — the
// same shape this package uses for a symbolic machine instead of a
// physical one.
package interp

import (
	"fmt"

	"github.com/pkg/errors"

	"symex/src/clean"
	"symex/src/collab"
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/state"
	"symex/src/util"
)

// Context is everything one Step call needs: the function body being
// executed, the mutable state to advance, the equation to append to,
// and the external collaborators.
type Context struct {
	Function *expr.Function
	State    *state.State
	Equation *equation.Equation
	Values   collab.ValueSet
	Symbols  collab.SymbolTable
	Loader   collab.GotoFunctionLoader
	Simplify collab.Simplify
	Opt      util.Options
	Trace    *util.Trace
	Fkt      *FktTable
}

// cleanCtx builds a clean.Context bound to c's live state for one
// instruction's clean-expr passes.
func (c *Context) cleanCtx() *clean.Context {
	return clean.NewContext(clean.Context{
		Scope:    c.State.Scope(),
		Values:   c.Values,
		Guard:    c.State.Guard,
		Simplify: c.Simplify,
		Opt:      c.Opt,
		Trace:    c.Trace,
		Emit:     c.Equation.Append,
		FailObject: func() string { return util.NewLabel(util.LabelFailedObject) },
	})
}

// killAux appends Dead-kill bookkeeping for instruction-local let-lifted
// auxiliaries by removing their L1 entry; no equation
// step is needed for these.
func (c *Context) killAux(names []string) {
	for _, n := range names {
		c.State.Scope().Kill(n)
	}
}

// OutcomeKind differentiates the variants of Outcome, the result of one
// Step call that the path-exploration controller (package symex) acts
// on.
type OutcomeKind int

const (
	// OutcomeAdvance: state.PC has already been updated; continue
	// executing the same state.
	OutcomeAdvance OutcomeKind = iota
	// OutcomeBranch: a conditional Goto produced two successor states,
	// Taken and NotTaken, at TakenPC/NotTakenPC respectively.
	OutcomeBranch
	// OutcomeHalt: the active thread has no more runnable work (reached
	// EndFunction on the outermost frame, EndThread, an uncaught throw,
	// or a pc outside the body).
	OutcomeHalt
	// OutcomeThreadStarted: a new thread was allocated; Spawned is its id.
	OutcomeThreadStarted
)

// Outcome is the result of one Step call.
type Outcome struct {
	Kind OutcomeKind

	Taken, NotTaken       *state.State
	TakenPC, NotTakenPC   int
	TakenBackwards        bool // Taken branch is a loop back-edge.

	Spawned int
}

// Step executes the instruction at ctx.State.PC() and reports what the
// controller should do next. It is the single dispatch
// point every opcode handler in this package is reached from.
func Step(ctx *Context) (*Outcome, error) {
	body := ctx.Function.Body
	pc := ctx.State.PC()
	if pc < 0 || pc >= len(body) {
		return &Outcome{Kind: OutcomeHalt}, nil
	}
	stmt := body[pc]
	ctx.Trace.Debugf(2, "pc=%d thread=%d %s", pc, ctx.State.ActiveThreadID(), stmt.Kind)

	switch stmt.Kind {
	case expr.Assign:
		return ctx.stepAssign(stmt)
	case expr.Decl:
		return ctx.stepDecl(stmt)
	case expr.Dead:
		return ctx.stepDead(stmt)
	case expr.Assume:
		return ctx.stepAssume(stmt)
	case expr.Assert:
		return ctx.stepAssert(stmt)
	case expr.Goto:
		return ctx.stepGoto(stmt)
	case expr.FunctionCall:
		return ctx.stepFunctionCall(stmt)
	case expr.Return:
		return ctx.stepReturn(stmt)
	case expr.EndFunction:
		return ctx.stepEndFunction()
	case expr.StartThread:
		return ctx.stepStartThread(stmt)
	case expr.EndThread:
		return ctx.stepEndThread()
	case expr.AtomicBegin:
		ctx.State.AtomicSection++
		ctx.Equation.Append(&equation.Step{Kind: equation.StepAtomicBegin, Guard: ctx.State.Guard.As()})
		return ctx.advance()
	case expr.AtomicEnd:
		if ctx.State.AtomicSection > 0 {
			ctx.State.AtomicSection--
		}
		ctx.Equation.Append(&equation.Step{Kind: equation.StepAtomicEnd, Guard: ctx.State.Guard.As()})
		return ctx.advance()
	case expr.Label, expr.Skip:
		return ctx.advance()
	case expr.Input:
		return ctx.stepInput(stmt)
	case expr.Output:
		return ctx.stepOutput(stmt)
	case expr.Printf, expr.Trace:
		return ctx.advance() // no effect on equation semantics.
	case expr.Fkt:
		return ctx.stepFkt(stmt)
	case expr.ThrowPush, expr.ThrowPop, expr.Landingpad, expr.TryCatch:
		return ctx.stepException(stmt)
	default:
		return ctx.advance() // Other/VaStart/Allocate/CppNew/CppDelete: havoc-free no-ops in this reference engine.
	}
}

// advance moves the active thread's pc forward by one and reports
// OutcomeAdvance — the common case for straight-line instructions.
func (c *Context) advance() (*Outcome, error) {
	c.State.SetPC(c.State.PC() + 1)
	return &Outcome{Kind: OutcomeAdvance}, nil
}

// invariantViolation wraps a fatal invariant-violation error with a diagnostic stack, the policy every such error in this
// package follows.
func invariantViolation(format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("invariant violation: "+format, args...))
}
