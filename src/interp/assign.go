package interp

import (
	"symex/src/clean"
	"symex/src/equation"
	"symex/src/expr"
)

// stepAssign implements Assign: clean both sides, split the
// LHS into base + selector chain (possibly expanding a dereference into
// several guarded targets), and for each base component increment L2 and
// emit an Assignment step.
func (c *Context) stepAssign(stmt *expr.Stmt) (*Outcome, error) {
	cc := c.cleanCtx()
	targets, res := cc.LHS(stmt.Lhs, stmt.Rhs)

	for _, tgt := range targets {
		g := c.State.Guard
		if tgt.Cond != nil {
			g = g.Add(tgt.Cond)
		}
		versioned := c.State.Scope().WriteL2(tgt.Lhs.Name, tgt.Lhs.Type)
		c.Equation.Append(&equation.Step{
			Kind:     equation.StepAssignment,
			Guard:    g.As(),
			Loc:      stmt.Loc,
			Lhs:      versioned,
			Rhs:      tgt.Rhs,
			AssignOf: equation.AssignPlain,
		})
		if c.Values != nil {
			c.Values.Assign(versioned, tgt.Rhs)
		}
	}

	c.emitDerefFailureAssertions(res, stmt.Loc)
	c.killAux(res.AuxKilled)
	return c.advance()
}

// emitDerefFailureAssertions turns "inject a failed object
// and emit an assertion that the pointer was valid" into concrete
// Assert steps, one per failed dereference discovered while cleaning
// this instruction — unless allow_pointer_unsoundness suppresses them.
func (c *Context) emitDerefFailureAssertions(res clean.Result, loc expr.Source) {
	if c.Opt.AllowPointerUnsoundness {
		return
	}
	for _, f := range res.DerefFailures {
		c.Equation.Append(&equation.Step{
			Kind:       equation.StepAssert,
			Guard:      c.State.Guard.As(),
			Loc:        loc,
			Cond:       expr.False(),
			Msg:        "dereference of " + f.Ptr.String() + " has no known target",
			PropertyID: "pointer-validity",
		})
	}
}
