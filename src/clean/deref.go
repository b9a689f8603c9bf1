package clean

import "symex/src/expr"

// removeDerefs resolves pointer dereferences in an already L2-renamed
// expression: every Dereference node is replaced by an if-then-else
// ladder over the pointer's value-set candidates, or a failed-object
// symbol when the set is empty.
func (c *Context) removeDerefs(e *expr.Expr, res *Result) *expr.Expr {
	if e == nil {
		return nil
	}
	if len(e.Operands) > 0 {
		next := make([]*expr.Expr, len(e.Operands))
		for i, op := range e.Operands {
			next[i] = c.removeDerefs(op, res)
		}
		clone := *e
		clone.Operands = next
		clone.Rebuild()
		e = &clone
	}
	if e.Kind != expr.Dereference {
		return e
	}
	ptr := e.Operands[0]
	targets := c.Values.Read(ptr)
	if len(targets) == 0 {
		obj := c.FailObject()
		res.DerefFailures = append(res.DerefFailures, DerefFailure{Ptr: ptr, Object: obj})
		return &expr.Expr{Kind: expr.Symbol, Type: e.Type, Name: obj}
	}
	return derefLadder(ptr, targets, e.Type)
}

// derefLadder builds `if p==&o1 then o1 else if p==&o2 then o2 else ...
// else o_n` for the given candidate object names.
func derefLadder(ptr *expr.Expr, targets []string, typ string) *expr.Expr {
	tail := &expr.Expr{Kind: expr.Symbol, Type: typ, Name: targets[len(targets)-1]}
	for i := len(targets) - 2; i >= 0; i-- {
		obj := &expr.Expr{Kind: expr.Symbol, Type: typ, Name: targets[i]}
		cond := &expr.Expr{
			Kind: expr.BinaryOp, Type: "bool", Name: "==",
			Operands: []*expr.Expr{ptr, &expr.Expr{Kind: expr.AddressOf, Type: ptr.Type, Operands: []*expr.Expr{obj}}},
		}
		tail = &expr.Expr{Kind: expr.IfThenElse, Type: typ, Operands: []*expr.Expr{cond, obj, tail}}
	}
	return tail
}

// LHSTarget is one guarded conditional assignment produced by expanding
// a dereferencing assignment target.
type LHSTarget struct {
	Cond *expr.Expr // nil for an unconditional (non-pointer) target.
	Lhs  *expr.Expr // the whole-variable base this assignment writes (pre-L2; caller versions it).
	Rhs  *expr.Expr // the value to write at Lhs, already including any selector-path functional update.
}

// expandLHS resolves an assignment's LHS into its write targets: it
// splits compound selectors (array index / struct member / byte extract)
// from the ultimate base, and if that base is itself reached through a
// dereference, expands into one guarded target per value-set candidate.
// rhsClean must already be clean-expr'd (let-lifted, L2-renamed,
// dereferenced, simplified).
func (c *Context) expandLHS(lhs, rhsClean *expr.Expr, res *Result) []LHSTarget {
	if lhs.Kind == expr.Dereference {
		renamedPtr := c.Scope.Rename(lhs.Operands[0], c.Opt.ConstantPropagation)
		ptr := c.removeDerefs(renamedPtr, res)
		targets := c.Values.Read(renamedPtr)
		if len(targets) == 0 {
			obj := c.FailObject()
			res.DerefFailures = append(res.DerefFailures, DerefFailure{Ptr: ptr, Object: obj})
			return []LHSTarget{{Lhs: &expr.Expr{Kind: expr.Symbol, Type: lhs.Type, Name: obj}, Rhs: rhsClean}}
		}
		out := make([]LHSTarget, len(targets))
		for i, t := range targets {
			obj := &expr.Expr{Kind: expr.Symbol, Type: lhs.Type, Name: t}
			cond := &expr.Expr{
				Kind: expr.BinaryOp, Type: "bool", Name: "==",
				Operands: []*expr.Expr{ptr, &expr.Expr{Kind: expr.AddressOf, Type: ptr.Type, Operands: []*expr.Expr{obj}}},
			}
			out[i] = LHSTarget{Cond: cond, Lhs: obj, Rhs: rhsClean}
		}
		return out
	}

	base, path := splitLHS(lhs)
	if len(path) == 0 {
		return []LHSTarget{{Lhs: base, Rhs: rhsClean}}
	}
	readBase := c.Scope.ReadL2(base.Name, base.Type, false)
	return []LHSTarget{{Lhs: base, Rhs: storeUpdate(readBase, path, rhsClean)}}
}

