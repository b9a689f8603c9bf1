package collab

import (
	"fmt"

	"symex/src/expr"
	"symex/src/util"
)

// MapValueSet is a reference ValueSet implementation backed by a plain
// map from pointer-expression string form to candidate target object
// names. It is deliberately unsound/approximate (it never actually runs
// points-to analysis) — real callers bring their own; this exists so
// the engine's tests and the CLI's demonstration mode have something to
// dereference through.
type MapValueSet struct {
	targets map[string][]string
}

// NewMapValueSet returns an empty MapValueSet.
func NewMapValueSet() *MapValueSet {
	return &MapValueSet{targets: map[string][]string{}}
}

// Bind declares that ptr (by its printed form) may target the listed
// object names — the construction-time equivalent of what a real pointer
// analysis would have computed.
func (vs *MapValueSet) Bind(ptr *expr.Expr, objects ...string) {
	vs.targets[ptr.String()] = append([]string{}, objects...)
}

// Read implements ValueSet.
func (vs *MapValueSet) Read(ptr *expr.Expr) []string {
	return vs.targets[ptr.String()]
}

// Assign implements ValueSet.
func (vs *MapValueSet) Assign(lhs, rhs *expr.Expr) {
	if rhs.Kind == expr.AddressOf {
		vs.targets[lhs.String()] = []string{rhs.Operands[0].String()}
		return
	}
	vs.targets[lhs.String()] = vs.Read(rhs)
}

// ApplyCondition implements ValueSet. The reference implementation only
// sharpens pointer-equality conditions; everything else is an
// identity copy.
func (vs *MapValueSet) ApplyCondition(cond *expr.Expr) ValueSet {
	clone := vs.clone()
	if cond == nil || cond.Kind != expr.BinaryOp || cond.Name != "==" {
		return clone
	}
	p, q := cond.Operands[0], cond.Operands[1]
	if p.Kind != expr.Dereference && q.Kind != expr.Dereference {
		inter := intersect(vs.Read(p), vs.Read(q))
		if inter != nil {
			clone.targets[p.String()] = inter
			clone.targets[q.String()] = inter
		}
	}
	return clone
}

// Merge implements ValueSet: pointwise set union.
func (vs *MapValueSet) Merge(other ValueSet) ValueSet {
	o, ok := other.(*MapValueSet)
	if !ok {
		return vs.clone()
	}
	merged := vs.clone()
	for k, v := range o.targets {
		merged.targets[k] = union(merged.targets[k], v)
	}
	return merged
}

// Filter implements ValueSet: for a pointer p appearing in
// cond, drop targets that make cond unconditionally false from the taken
// branch and targets that make it unconditionally true from the
// not-taken branch. The reference implementation only recognizes
// `p == &o` / `p != &o` shaped conditions.
func (vs *MapValueSet) Filter(cond *expr.Expr) (ValueSet, ValueSet) {
	taken, notTaken := vs.clone(), vs.clone()
	if cond == nil || cond.Kind != expr.BinaryOp {
		return taken, notTaken
	}
	p, target := addressOfShape(cond)
	if p == nil {
		return taken, notTaken
	}
	key := p.String()
	switch cond.Name {
	case "==":
		taken.targets[key] = []string{target}
		notTaken.targets[key] = remove(vs.targets[key], target)
	case "!=":
		taken.targets[key] = remove(vs.targets[key], target)
		notTaken.targets[key] = []string{target}
	}
	return taken, notTaken
}

func addressOfShape(cond *expr.Expr) (*expr.Expr, string) {
	lhs, rhs := cond.Operands[0], cond.Operands[1]
	if rhs.Kind == expr.AddressOf && rhs.Operands[0].Kind == expr.Symbol {
		return lhs, rhs.Operands[0].Name
	}
	if lhs.Kind == expr.AddressOf && lhs.Operands[0].Kind == expr.Symbol {
		return rhs, lhs.Operands[0].Name
	}
	return nil, ""
}

func (vs *MapValueSet) clone() *MapValueSet {
	c := NewMapValueSet()
	for k, v := range vs.targets {
		c.targets[k] = append([]string{}, v...)
	}
	return c
}

func intersect(a, b []string) []string {
	set := map[string]bool{}
	for _, x := range a {
		set[x] = true
	}
	var out []string
	for _, x := range b {
		if set[x] {
			out = append(out, x)
		}
	}
	return out
}

func union(a, b []string) []string {
	set := map[string]bool{}
	var out []string
	for _, x := range append(append([]string{}, a...), b...) {
		if !set[x] {
			set[x] = true
			out = append(out, x)
		}
	}
	return out
}

func remove(a []string, x string) []string {
	var out []string
	for _, v := range a {
		if v != x {
			out = append(out, v)
		}
	}
	return out
}

// MapSymbolTable is a reference SymbolTable: a plain map from identifier
// to Symbol — an "insert once, look up many" shape, minus the
// compiler-specific type-compatibility lookup table a real front end
// would also carry.
type MapSymbolTable struct {
	syms map[string]Symbol
}

// NewMapSymbolTable returns an empty MapSymbolTable.
func NewMapSymbolTable() *MapSymbolTable {
	return &MapSymbolTable{syms: map[string]Symbol{}}
}

// Insert implements SymbolTable.
func (t *MapSymbolTable) Insert(sym Symbol) error {
	if _, exists := t.syms[sym.ID]; exists {
		return fmt.Errorf("symbol %q already declared", sym.ID)
	}
	t.syms[sym.ID] = sym
	return nil
}

// Lookup implements SymbolTable.
func (t *MapSymbolTable) Lookup(id string) (Symbol, bool) {
	s, ok := t.syms[id]
	return s, ok
}

// StackPathStorage is the default PathStorage: a LIFO built on
// util.Stack, giving depth-first path exploration the way a simple
// model checker without a priority heuristic would explore paths.
type StackPathStorage struct {
	s util.Stack
}

// NewStackPathStorage returns an empty StackPathStorage.
func NewStackPathStorage() *StackPathStorage {
	return &StackPathStorage{}
}

// Push implements PathStorage.
func (p *StackPathStorage) Push(state interface{}) { p.s.Push(state) }

// Pop implements PathStorage.
func (p *StackPathStorage) Pop() (interface{}, bool) {
	v := p.s.Pop()
	return v, v != nil
}

// Len implements PathStorage.
func (p *StackPathStorage) Len() int { return p.s.Size() }
