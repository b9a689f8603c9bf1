// Package merge implements the control-flow join algorithm: combining
// multiple successor states that reach the same program counter into
// one, via guard disjunction and guarded phi selection. Grounded on a
// typical register-allocation liveness merge pass, which folds
// per-predecessor liveness sets into one at a basic block join,
// generalized from set union to a richer per-variable phi ladder.
package merge

import (
	"sort"

	"symex/src/collab"
	"symex/src/expr"
	"symex/src/guard"
	"symex/src/rename"
	"symex/src/state"
)

// Contributor is one predecessor state arriving at a merge point.
type Contributor struct {
	Guard  *guard.Guard
	Scope  *rename.Scope
	Values collab.ValueSet
}

// Phi is one emitted merge assignment: `lhs <- if g1
// then v1 else if g2 then v2 else ... else previous`.
type Phi struct {
	ID  string // L0 id the phi is for.
	Lhs *expr.Expr
	Rhs *expr.Expr
}

// JoinGuardsAndValues combines contributors' guards by disjunction and
// their value-sets pointwise. Scope's own L1
// name set is not iterable (package rename keeps it opaque), so phi
// construction is a separate step — see BuildPhis — driven by the
// candidate ids the caller (package symex's merge step) already knows
// about.
func JoinGuardsAndValues(contributors []Contributor) (*guard.Guard, collab.ValueSet) {
	if len(contributors) == 0 {
		return guard.True(), nil
	}
	g := contributors[0].Guard
	var values collab.ValueSet
	for i, c := range contributors {
		if i > 0 {
			g = g.Or(c.Guard)
		}
		if c.Values == nil {
			continue
		}
		if values == nil {
			values = c.Values
		} else {
			values = values.Merge(c.Values)
		}
	}
	return g, values
}

// BuildPhis builds the phi ladder for the given candidate ids
// (L0 id -> type): for each id whose current L2 version differs across
// contributors, it allocates a fresh version in merged and builds the
// nested if-then-else selection ladder, with previous's current version
// as the tie-breaker tail. Ids on which every contributor agrees are
// skipped — merged simply keeps previous's (already-agreeing) version.
func BuildPhis(contributors []Contributor, previous, merged *rename.Scope, candidates map[string]string) []Phi {
	ids := make([]string, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic emission order.

	var phis []Phi
	for _, id := range ids {
		typ := candidates[id]
		if agree(contributors, id, typ) {
			continue
		}
		rhs := previous.CurrentVersion(id, typ)
		for i := len(contributors) - 1; i >= 0; i-- {
			c := contributors[i]
			val := c.Scope.CurrentVersion(id, typ)
			rhs = &expr.Expr{Kind: expr.IfThenElse, Type: typ, Operands: []*expr.Expr{c.Guard.As(), val, rhs}}
		}
		lhs := merged.FreshVersion(id, typ)
		phis = append(phis, Phi{ID: id, Lhs: lhs, Rhs: rhs})
	}
	return phis
}

func agree(contributors []Contributor, id, typ string) bool {
	if len(contributors) == 0 {
		return true
	}
	first := contributors[0].Scope.CurrentVersion(id, typ)
	for _, c := range contributors[1:] {
		if !first.Equal(c.Scope.CurrentVersion(id, typ)) {
			return false
		}
	}
	return true
}

// MergeConstProp folds the contributors' constant-prop tables: a
// binding in previous's table survives the merge only if every
// contributor holds the same binding; a contributor that lacks it drops
// it. Bindings absent from previous's table are not carried over.
func MergeConstProp(contributors []Contributor, previous, merged *rename.Scope) {
	for l1, v := range previous.ConstProp {
		allAgree := true
		for _, c := range contributors {
			if cv, ok := c.Scope.ConstProp[l1]; !ok || cv != v {
				allAgree = false
				break
			}
		}
		if allAgree {
			merged.ConstProp[l1] = v
		} else {
			delete(merged.ConstProp, l1)
		}
	}
}

// MergeLoopIterations folds per-contributor loop-iteration counters by
// maximum.
func MergeLoopIterations(contributors []map[state.LoopKey]int) map[state.LoopKey]int {
	out := map[state.LoopKey]int{}
	for _, m := range contributors {
		for k, v := range m {
			if cur, ok := out[k]; !ok || v > cur {
				out[k] = v
			}
		}
	}
	return out
}
