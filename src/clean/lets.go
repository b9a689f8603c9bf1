package clean

import (
	"symex/src/equation"
	"symex/src/expr"
)

// liftLets removes let-bindings from e: every Let(x = e_x, body) is
// rewritten by emitting an auxiliary assignment of x <- e_x at the
// current guard, then letting the subsequent L2-rename pass (run by the
// caller immediately after) resolve body's bare references to x to the
// same L2 symbol, since declaring x in the scope here makes
// Scope.ReadL2(x) resolve consistently. Returns the let-free tree and the
// list of L0 names to kill once the current instruction finishes.
func (c *Context) liftLets(e *expr.Expr) (*expr.Expr, []string) {
	if e == nil {
		return nil, nil
	}
	if e.Kind == expr.Let {
		binding, killed := c.liftLets(e.Operands[0])

		c.Scope.Declare(e.Name)
		rhs := c.Scope.Rename(binding, c.Opt.ConstantPropagation)
		lhs := c.Scope.WriteL2(e.Name, binding.Type)
		c.Emit(&equation.Step{
			Kind:     equation.StepAssignment,
			Guard:    c.Guard.As(),
			Lhs:      lhs,
			Rhs:      rhs,
			AssignOf: equation.AssignAux,
		})

		body, bodyKilled := c.liftLets(e.Operands[1])
		return body, append(append(killed, e.Name), bodyKilled...)
	}

	if len(e.Operands) == 0 {
		return e, nil
	}
	next := make([]*expr.Expr, len(e.Operands))
	var killed []string
	for i, op := range e.Operands {
		cleaned, k := c.liftLets(op)
		next[i] = cleaned
		killed = append(killed, k...)
	}
	clone := *e
	clone.Operands = next
	clone.Rebuild()
	return &clone, killed
}
