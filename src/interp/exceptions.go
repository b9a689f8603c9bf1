package interp

import (
	"symex/src/expr"
)

// stepException implements the exception quartet
// (ThrowPush/ThrowPop/Landingpad/TryCatch): a per-frame stack of open
// landing pad targets, searched innermost-frame-first on throw. Modeled
// on a typical call-stack unwinding shape (a backend code generator
// walks frames outward on function return); here the walk additionally
// kills each unwound frame's locals, matching EndFunction.
func (c *Context) stepException(stmt *expr.Stmt) (*Outcome, error) {
	switch stmt.Kind {
	case expr.TryCatch:
		stack := c.State.CallStack()
		if n := len(stack); n > 0 {
			top := stack[n-1]
			top.CatchTargets = append(top.CatchTargets, stmt.Target)
		}
		return c.advance()

	case expr.ThrowPop:
		stack := c.State.CallStack()
		if n := len(stack); n > 0 {
			top := stack[n-1]
			if m := len(top.CatchTargets); m > 0 {
				top.CatchTargets = top.CatchTargets[:m-1]
			}
		}
		return c.advance()

	case expr.Landingpad:
		return c.advance()

	case expr.ThrowPush:
		return c.unwindToHandler()

	default:
		return c.advance()
	}
}

// unwindToHandler implements the "linearly search nearest matching
// landing pad" half of Throw: walk the call stack from innermost
// outward, popping and killing each frame with no open catch, until one
// with an open CatchTargets entry is found. A thread that unwinds past
// its outermost frame without finding a handler terminates.
func (c *Context) unwindToHandler() (*Outcome, error) {
	for {
		stack := c.State.CallStack()
		if len(stack) == 0 {
			return &Outcome{Kind: OutcomeHalt}, nil
		}
		top := stack[len(stack)-1]
		if n := len(top.CatchTargets); n > 0 {
			target := top.CatchTargets[n-1]
			top.CatchTargets = top.CatchTargets[:n-1]
			c.State.SetPC(target)
			return &Outcome{Kind: OutcomeAdvance}, nil
		}
		frame := c.State.PopFrame()
		for _, id := range frame.KilledOnExit {
			c.State.Scope().Kill(id)
		}
		if c.State.RecursionDepth[frame.FunctionID] > 0 {
			c.State.RecursionDepth[frame.FunctionID]--
		}
	}
}
