package interp

import (
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/state"
)

// stepFunctionCall implements FunctionCall: resolve the callee
// via Loader, bind arguments to fresh parameter instances in a new Frame,
// and transfer control to its body's entry (index 0). A callee whose body
// cannot be resolved havocs its result instead of calling; a callee
// already recursing deeper than Opt.RecursionBound does the same, the
// bounded treatment this engine applies uniformly to recursion. A
// negative RecursionBound means unbounded recursion; 0 allows the
// initial call but blocks any nested self-call.
func (c *Context) stepFunctionCall(stmt *expr.Stmt) (*Outcome, error) {
	pc := c.State.PC()
	cc := c.cleanCtx()

	args := make([]*expr.Expr, len(stmt.Args))
	for i, a := range stmt.Args {
		v, res := cc.RHS(a)
		c.killAux(res.AuxKilled)
		args[i] = v
	}

	fn, ok := c.Loader(stmt.Callee)
	bounded := c.Opt.RecursionBound >= 0 && c.State.RecursionDepth[stmt.Callee] > c.Opt.RecursionBound
	if !ok || fn == nil || fn.Body == nil || bounded {
		c.havocCallResult(stmt)
		return c.advance()
	}

	scope := c.State.Scope()
	returnTarget := ""
	if stmt.Lhs != nil {
		returnTarget = stmt.Lhs.Name
	}
	frame := state.NewFrame(stmt.Callee, returnTarget, fn.ReturnType, pc+1, 0)
	for i, p := range fn.Params {
		frame.Declare(scope, p.Name)
		versioned := scope.WriteL2(p.Name, p.Type)
		var rhs *expr.Expr
		if i < len(args) {
			rhs = args[i]
		} else {
			rhs = expr.NewNondet(p.Type, p.Name)
		}
		c.Equation.Append(&equation.Step{
			Kind:     equation.StepAssignment,
			Guard:    c.State.Guard.As(),
			Loc:      stmt.Loc,
			Lhs:      versioned,
			Rhs:      rhs,
			AssignOf: equation.AssignDecl,
		})
		if c.Values != nil {
			c.Values.Assign(versioned, rhs)
		}
	}

	c.State.PushFrame(frame)
	c.State.RecursionDepth[stmt.Callee]++
	c.State.SetPC(0)
	return &Outcome{Kind: OutcomeAdvance}, nil
}

// havocCallResult assigns a fresh nondeterministic value to a call's
// result target when the call itself cannot be executed.
func (c *Context) havocCallResult(stmt *expr.Stmt) {
	if stmt.Lhs == nil {
		return
	}
	scope := c.State.Scope()
	versioned := scope.WriteL2(stmt.Lhs.Name, stmt.Lhs.Type)
	c.Equation.Append(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.State.Guard.As(),
		Loc:      stmt.Loc,
		Lhs:      versioned,
		Rhs:      expr.NewNondet(stmt.Lhs.Type, "call_"+stmt.Callee),
		AssignOf: equation.AssignAux,
	})
	if c.Values != nil {
		c.Values.Assign(versioned, expr.NewNondet(stmt.Lhs.Type, "call_"+stmt.Callee))
	}
}

// stepReturn implements Return: bind the cleaned return value
// to the active frame's ReturnTarget, if the caller wants the result.
// The frame itself is popped by the following EndFunction instruction,
// not here, matching the flat two-instruction shape GOTO programs use.
func (c *Context) stepReturn(stmt *expr.Stmt) (*Outcome, error) {
	stack := c.State.CallStack()
	if len(stack) == 0 || stmt.Rhs == nil {
		return c.advance()
	}
	top := stack[len(stack)-1]
	if top.ReturnTarget == "" {
		return c.advance()
	}

	cc := c.cleanCtx()
	val, res := cc.RHS(stmt.Rhs)
	c.killAux(res.AuxKilled)

	scope := c.State.Scope()
	versioned := scope.WriteL2(top.ReturnTarget, top.ReturnType)
	c.Equation.Append(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.State.Guard.As(),
		Loc:      stmt.Loc,
		Lhs:      versioned,
		Rhs:      val,
		AssignOf: equation.AssignPlain,
	})
	if c.Values != nil {
		c.Values.Assign(versioned, val)
	}
	return c.advance()
}

// stepEndFunction implements EndFunction: kill the returning
// frame's locals, pop it, and resume the caller at its recorded return
// pc. An empty call stack means the outermost function has ended, so the
// active thread is done.
func (c *Context) stepEndFunction() (*Outcome, error) {
	frame := c.State.PopFrame()
	if frame == nil {
		return &Outcome{Kind: OutcomeHalt}, nil
	}
	for _, id := range frame.KilledOnExit {
		c.State.Scope().Kill(id)
	}
	if c.State.RecursionDepth[frame.FunctionID] > 0 {
		c.State.RecursionDepth[frame.FunctionID]--
	}
	c.State.SetPC(frame.ReturnPC)
	return &Outcome{Kind: OutcomeAdvance}, nil
}
