package clean

import "symex/src/expr"

// RHS runs the full clean-expr pipeline on a right-hand-side
// or condition expression: let-lifting, L2 renaming, dereference
// removal, string-builtin constant-folding, then simplification. The
// expression returned is ready to appear in an equation step.
func (c *Context) RHS(e *expr.Expr) (*expr.Expr, Result) {
	var res Result
	lifted, killed := c.liftLets(e)
	res.AuxKilled = killed

	renamed := c.Scope.Rename(lifted, c.Opt.ConstantPropagation)
	dereffed := c.removeDerefs(renamed, &res)
	folded := c.foldStringBuiltins(dereffed)

	if c.Opt.SimplifyOpt && c.Simplify != nil {
		folded = c.Simplify(folded)
	}
	return folded, res
}

// LHS runs the clean-expr pipeline on an assignment target: it cleans
// the RHS first (callers always have one, even for Decl's implicit
// nondet init), splits the target into base + selector path, expands any
// dereferencing target against the value-set, and returns one guarded
// write per resulting base.
func (c *Context) LHS(lhs, rhs *expr.Expr) ([]LHSTarget, Result) {
	cleanRhs, res := c.RHS(rhs)
	targets := c.expandLHS(lhs, cleanRhs, &res)
	return targets, res
}
