package interp

import (
	"symex/src/equation"
	"symex/src/expr"
)

// stepAssume implements Assume: clean and rename c; if it
// simplifies to false, mark the state unreachable;
// otherwise emit Assume and conjoin c to the guard.
func (c *Context) stepAssume(stmt *expr.Stmt) (*Outcome, error) {
	cc := c.cleanCtx()
	cond, res := cc.RHS(stmt.Cond)
	c.killAux(res.AuxKilled)

	if cond.IsFalse() {
		c.State.Reachable = false
		return c.advance()
	}
	c.Equation.Append(&equation.Step{
		Kind:  equation.StepAssume,
		Guard: c.State.Guard.As(),
		Loc:   stmt.Loc,
		Cond:  cond,
	})
	c.State.Guard = c.State.Guard.Add(cond)
	if c.State.Guard.Unreachable() {
		c.State.Reachable = false
	}
	return c.advance()
}

// stepAssert implements Assert: clean, rename, always emit —
// a violation is the point of the check — without altering the guard.
func (c *Context) stepAssert(stmt *expr.Stmt) (*Outcome, error) {
	cc := c.cleanCtx()
	cond, res := cc.RHS(stmt.Cond)
	c.killAux(res.AuxKilled)

	c.Equation.Append(&equation.Step{
		Kind:       equation.StepAssert,
		Guard:      c.State.Guard.As(),
		Loc:        stmt.Loc,
		Cond:       cond,
		Msg:        stmt.Msg,
		PropertyID: stmt.PropertyID,
	})
	return c.advance()
}

// stepGoto implements Goto's three sub-cases: backwards
// (loop back-edge, delegated to the loop-policy hook), path-exploration
// mode (single branch pushed by the caller), and ordinary forward
// branching, which this package always resolves by returning an
// OutcomeBranch for package symex to either merge (single-path mode) or
// push to PathStorage (path-exploration mode) — the controller, not the
// interpreter, owns that policy decision.
func (c *Context) stepGoto(stmt *expr.Stmt) (*Outcome, error) {
	pc := c.State.PC()
	if stmt.Cond == nil {
		return &Outcome{
			Kind: OutcomeBranch, Taken: c.State, TakenPC: stmt.Target,
			NotTaken: nil, NotTakenPC: pc + 1, TakenBackwards: stmt.Target <= pc,
		}, nil
	}

	cc := c.cleanCtx()
	cond, res := cc.RHS(stmt.Cond)
	c.killAux(res.AuxKilled)

	c.Equation.Append(&equation.Step{
		Kind: equation.StepGoto, Guard: c.State.Guard.As(), Loc: stmt.Loc, Cond: cond,
	})

	taken, notTaken := c.State.ApplyCondition(cond)
	return &Outcome{
		Kind:           OutcomeBranch,
		Taken:          taken,
		TakenPC:        stmt.Target,
		NotTaken:       notTaken,
		NotTakenPC:     pc + 1,
		TakenBackwards: stmt.Target <= pc,
	}, nil
}
