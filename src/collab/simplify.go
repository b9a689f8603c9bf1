package collab

import "symex/src/expr"

// DefaultSimplify is a reference Simplify implementation performing
// constant folding of binary/unary arithmetic and relational operators,
// and collapse of if-then-else on a constant condition. A typical
// compiler's own constant-folding pass generalized from the parse-tree
// shape to the expr.Expr shape. Only expr.Constant values holding an
// int, float64 or bool are folded; other constant payloads are left as
// they are.
//
// Like the rest of package collab's reference implementations, this is
// deliberately modest: the engine treats simplify as an opaque,
// semantics-preserving pure function and never assumes it is
// complete. A production decision-procedure front end plugs in a much
// stronger simplifier; this one only has to be correct, not maximal.
func DefaultSimplify(e *expr.Expr) *expr.Expr {
	if e == nil {
		return nil
	}
	return e.Transform(simplifyOne)
}

func simplifyOne(e *expr.Expr) *expr.Expr {
	switch e.Kind {
	case expr.BinaryOp:
		return simplifyBinary(e)
	case expr.UnaryOp:
		return simplifyUnary(e)
	case expr.IfThenElse:
		return simplifyITE(e)
	default:
		return e
	}
}

func simplifyITE(e *expr.Expr) *expr.Expr {
	cond := e.Operands[0]
	if cond.IsTrue() {
		return e.Operands[1]
	}
	if cond.IsFalse() {
		return e.Operands[2]
	}
	if e.Operands[1].Equal(e.Operands[2]) {
		return e.Operands[1] // both branches agree; condition is irrelevant.
	}
	return e
}

func simplifyUnary(e *expr.Expr) *expr.Expr {
	op := e.Operands[0]
	if op.Kind != expr.Constant {
		return e
	}
	switch e.Name {
	case "!", "not":
		if b, ok := op.Value.(bool); ok {
			return expr.NewConstant(!b, e.Type)
		}
	case "-":
		switch v := op.Value.(type) {
		case int:
			return expr.NewConstant(-v, e.Type)
		case float64:
			return expr.NewConstant(-v, e.Type)
		}
	case "~":
		if v, ok := op.Value.(int); ok {
			return expr.NewConstant(^v, e.Type)
		}
	}
	return e
}

func simplifyBinary(e *expr.Expr) *expr.Expr {
	lhs, rhs := e.Operands[0], e.Operands[1]

	// Logical short-circuiting on constant operands, regardless of the
	// other operand's shape.
	if b, ok := asBool(lhs); ok {
		switch {
		case e.Name == "&&" && !b:
			return expr.False()
		case e.Name == "&&" && b:
			return rhs
		case e.Name == "||" && b:
			return expr.True()
		case e.Name == "||" && !b:
			return rhs
		}
	}
	if b, ok := asBool(rhs); ok {
		switch {
		case e.Name == "&&" && !b:
			return expr.False()
		case e.Name == "&&" && b:
			return lhs
		case e.Name == "||" && b:
			return expr.True()
		case e.Name == "||" && !b:
			return lhs
		}
	}

	if lhs.Kind != expr.Constant || rhs.Kind != expr.Constant {
		return e
	}

	if a, ok := lhs.Value.(int); ok {
		if b, ok := rhs.Value.(int); ok {
			if folded, ok := foldInt(e.Name, a, b); ok {
				return expr.NewConstant(folded, e.Type)
			}
			if rel, ok := foldIntRelation(e.Name, a, b); ok {
				return expr.NewConstant(rel, "bool")
			}
		}
	}
	if a, ok := lhs.Value.(float64); ok {
		if b, ok := rhs.Value.(float64); ok {
			if folded, ok := foldFloat(e.Name, a, b); ok {
				return expr.NewConstant(folded, e.Type)
			}
		}
	}
	return e
}

func asBool(e *expr.Expr) (bool, bool) {
	if e.Kind != expr.Constant {
		return false, false
	}
	b, ok := e.Value.(bool)
	return b, ok
}

func foldInt(op string, a, b int) (int, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case "%":
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case "&":
		return a & b, true
	case "|":
		return a | b, true
	case "^":
		return a ^ b, true
	case "<<":
		return a << b, true
	case ">>":
		return a >> b, true
	default:
		return 0, false
	}
}

func foldIntRelation(op string, a, b int) (bool, bool) {
	switch op {
	case "==":
		return a == b, true
	case "!=":
		return a != b, true
	case "<":
		return a < b, true
	case "<=":
		return a <= b, true
	case ">":
		return a > b, true
	case ">=":
		return a >= b, true
	default:
		return false, false
	}
}

func foldFloat(op string, a, b float64) (float64, bool) {
	switch op {
	case "+":
		return a + b, true
	case "-":
		return a - b, true
	case "*":
		return a * b, true
	case "/":
		if b == 0 {
			return 0, false
		}
		return a / b, true
	default:
		return 0, false
	}
}
