// Package guard implements the path-condition algebra: a
// guard is a conjunction of L2-renamed boolean expressions, canonicalized
// so that true is the neutral element and appending a trivially-true
// literal is idempotent.
package guard

import (
	"symex/src/expr"
)

// Guard is a conjunction of conjuncts plus a lazily-built summary
// expression. The split favors fast incremental emission over
// rebuilding a full conjunction on every step: Add copies the conjunct
// list (O(n)) but builds no expression; As only pays the rebuild cost
// when the guard is actually consumed.
type Guard struct {
	conjuncts []*expr.Expr
	summary   *expr.Expr // cached As() result; nil whenever conjuncts changed since last build.
}

// True returns the empty guard (no conjuncts), representing the boolean
// constant true — the identity element for Add and the initial guard of
// the entry-point state.
func True() *Guard {
	return &Guard{}
}

// Add conjoins c onto g, returning the possibly-unreachable result.
// Syntactically-true conjuncts are dropped (idempotent append); if c is
// syntactically false the returned guard is permanently unsatisfiable and
// reports so via Unreachable.
func (g *Guard) Add(c *expr.Expr) *Guard {
	if c == nil || c.IsTrue() {
		return g
	}
	next := &Guard{conjuncts: append(append([]*expr.Expr{}, g.conjuncts...), c)}
	return next
}

// Unreachable reports whether g contains a syntactically-false conjunct,
// i.e. whether the path it represents can never be taken. The interpreter
// uses this directly rather than delegating to the decision procedure,
// since a literal `false` conjunct makes unreachability a syntactic
// fact.
func (g *Guard) Unreachable() bool {
	for _, c := range g.conjuncts {
		if c.IsFalse() {
			return true
		}
	}
	return false
}

// Implies builds g → c as a single expression, used when emitting the
// Assume/Assert steps that must carry "guard implies condition" rather
// than just the condition.
func (g *Guard) Implies(c *expr.Expr) *expr.Expr {
	return expr.NewBinary("=>", "bool", g.As(), c)
}

// As returns the guard as a single boolean expression: the conjunction of
// its conjuncts, or the true constant if empty. The result is cached
// until the next Add.
func (g *Guard) As() *expr.Expr {
	if g.summary != nil {
		return g.summary
	}
	if len(g.conjuncts) == 0 {
		g.summary = expr.True()
		return g.summary
	}
	acc := g.conjuncts[0]
	for _, c := range g.conjuncts[1:] {
		acc = expr.NewBinary("&&", "bool", acc, c)
	}
	g.summary = acc
	return acc
}

// Conjuncts returns the guard's conjuncts in the order they were added.
// Callers must not mutate the returned slice.
func (g *Guard) Conjuncts() []*expr.Expr {
	return g.conjuncts
}

// Or builds the disjunction of g and o as used at a control-flow merge:
// g_merged = g ⋁ o. The conjunct lists themselves are
// not combined — Or always returns a single-conjunct guard wrapping the
// disjunction, since "g1 or g2" is not generally expressible as a
// conjunction of g1's and g2's individual conjuncts.
func (g *Guard) Or(o *Guard) *Guard {
	lhs, rhs := g.As(), o.As()
	if lhs.IsTrue() || rhs.IsTrue() {
		return True()
	}
	if lhs.IsFalse() {
		return o
	}
	if rhs.IsFalse() {
		return g
	}
	if lhs.Equal(rhs) {
		return g
	}
	return &Guard{conjuncts: []*expr.Expr{expr.NewBinary("||", "bool", lhs, rhs)}}
}

// Clone returns a guard with an independent conjunct slice, sharing the
// underlying Expr values (which are immutable once built).
func (g *Guard) Clone() *Guard {
	return &Guard{conjuncts: append([]*expr.Expr{}, g.conjuncts...), summary: g.summary}
}
