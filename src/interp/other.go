package interp

import (
	"symex/src/equation"
	"symex/src/expr"
)

// stepInput implements Input: clean and rename the read target,
// binding it to a fresh nondeterministic value standing for external
// input, and record the step for the equation's I/O trace.
func (c *Context) stepInput(stmt *expr.Stmt) (*Outcome, error) {
	if stmt.Lhs == nil {
		return c.advance()
	}
	scope := c.State.Scope()
	versioned := scope.WriteL2(stmt.Lhs.Name, stmt.Lhs.Type)
	val := expr.NewNondet(stmt.Lhs.Type, "input_"+stmt.Lhs.Name)

	c.Equation.Append(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.State.Guard.As(),
		Loc:      stmt.Loc,
		Lhs:      versioned,
		Rhs:      val,
		AssignOf: equation.AssignAux,
	})
	c.Equation.Append(&equation.Step{
		Kind:  equation.StepInput,
		Guard: c.State.Guard.As(),
		Loc:   stmt.Loc,
		Value: versioned,
	})
	if c.Values != nil {
		c.Values.Assign(versioned, val)
	}
	return c.advance()
}

// stepOutput implements Output: clean and rename the emitted
// value and record it on the equation's I/O trace, with no effect on any
// symbol's binding.
func (c *Context) stepOutput(stmt *expr.Stmt) (*Outcome, error) {
	if stmt.Rhs == nil {
		return c.advance()
	}
	cc := c.cleanCtx()
	val, res := cc.RHS(stmt.Rhs)
	c.killAux(res.AuxKilled)

	c.Equation.Append(&equation.Step{
		Kind:  equation.StepOutput,
		Guard: c.State.Guard.As(),
		Loc:   stmt.Loc,
		Value: val,
	})
	return c.advance()
}
