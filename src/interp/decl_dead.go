package interp

import (
	"symex/src/equation"
	"symex/src/expr"
)

// stepDecl implements Decl: bump the L1 frame counter for
// sym, reset its L2 version, and emit a nondeterministic initialization
// — this reference engine always assigns nondet at Decl rather than
// deferring to first-read, since deferred init requires front-end
// cooperation (marking "definitely assigned before use") this engine
// has no access to.
func (c *Context) stepDecl(stmt *expr.Stmt) (*Outcome, error) {
	scope := c.State.Scope()
	scope.Declare(stmt.Symbol)
	if len(c.State.CallStack()) > 0 {
		top := c.State.CallStack()[len(c.State.CallStack())-1]
		top.KilledOnExit = append(top.KilledOnExit, stmt.Symbol)
	}

	lhs := scope.WriteL2(stmt.Symbol, stmt.Type)
	c.Equation.Append(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.State.Guard.As(),
		Loc:      stmt.Loc,
		Lhs:      lhs,
		Rhs:      expr.NewNondet(stmt.Type, stmt.Symbol),
		AssignOf: equation.AssignDecl,
	})
	return c.advance()
}

// stepDead implements Dead: remove the L1 entry for sym.
// Deallocation-guard emission for a still-live allocated object is left
// to a richer ValueSet implementation than this module's reference one
// (it never tracks allocation liveness); the value-set is left
// unchanged.
func (c *Context) stepDead(stmt *expr.Stmt) (*Outcome, error) {
	c.State.Scope().Kill(stmt.Symbol)
	return c.advance()
}
