package clean

import "symex/src/expr"

// selector is one step of a compound assignment target's path from its
// base variable: `a.b[i] = rhs` splits into base `a` and selectors
// [member "b", index i], in application order (the order they're applied
// starting from the base).
type selector struct {
	member string     // StructMember
	index  *expr.Expr // ArrayIndex
	offset *expr.Expr // ByteExtract
	typ    string     // result type once this selector has been applied.
}

// splitLHS walks down an assignment target through ArrayIndex,
// StructMember and ByteExtract wrappers, returning the ultimate base
// expression (ordinarily a Symbol) and the selector chain in
// base-to-leaf application order.
func splitLHS(lhs *expr.Expr) (base *expr.Expr, path []selector) {
	switch lhs.Kind {
	case expr.ArrayIndex:
		b, p := splitLHS(lhs.Operands[0])
		return b, append(p, selector{index: lhs.Operands[1], typ: lhs.Type})
	case expr.StructMember:
		b, p := splitLHS(lhs.Operands[0])
		return b, append(p, selector{member: lhs.Name, typ: lhs.Type})
	case expr.ByteExtract:
		b, p := splitLHS(lhs.Operands[0])
		return b, append(p, selector{offset: lhs.Operands[1], typ: lhs.Type})
	default:
		return lhs, nil
	}
}

// storeUpdate builds the functional-update expression representing "old,
// but with the value reached by following path replaced by newValue".
// Compound updates are encoded as uninterpreted store functions
// (store_member/store_index/store_bytes) — the conventional SMT encoding
// for array/struct writes, which a downstream decision procedure
// interprets via the standard select/store axioms; this package never
// interprets them itself.
func storeUpdate(old *expr.Expr, path []selector, newValue *expr.Expr) *expr.Expr {
	if len(path) == 0 {
		return newValue
	}
	head, rest := path[0], path[1:]
	subOld := applySelector(old, head)
	subNew := storeUpdate(subOld, rest, newValue)
	return storeAt(old, head, subNew)
}

// applySelector builds the read-side expression for old's value at
// selector s.
func applySelector(old *expr.Expr, s selector) *expr.Expr {
	switch {
	case s.index != nil:
		return &expr.Expr{Kind: expr.ArrayIndex, Type: s.typ, Operands: []*expr.Expr{old, s.index}}
	case s.member != "":
		return &expr.Expr{Kind: expr.StructMember, Type: s.typ, Name: s.member, Operands: []*expr.Expr{old}}
	default:
		return &expr.Expr{Kind: expr.ByteExtract, Type: s.typ, Operands: []*expr.Expr{old, s.offset}}
	}
}

// storeAt builds the functional update of old at selector s to newVal.
func storeAt(old *expr.Expr, s selector, newVal *expr.Expr) *expr.Expr {
	switch {
	case s.index != nil:
		return &expr.Expr{Kind: expr.FunctionApp, Type: old.Type, Name: "store_index", Operands: []*expr.Expr{old, s.index, newVal}}
	case s.member != "":
		return &expr.Expr{Kind: expr.FunctionApp, Type: old.Type, Name: "store_member:" + s.member, Operands: []*expr.Expr{old, newVal}}
	default:
		return &expr.Expr{Kind: expr.FunctionApp, Type: old.Type, Name: "store_bytes", Operands: []*expr.Expr{old, s.offset, newVal}}
	}
}
