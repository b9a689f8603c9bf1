// Package collab defines the interfaces of every external collaborator
// the symbolic execution engine treats as opaque: pointer analysis
// (ValueSet), symbol table bookkeeping (SymbolTable), expression
// simplification (Simplify), the path-exploration work queue
// (PathStorage), and the lazy GOTO-function loader. It also provides a
// small in-memory reference implementation of each, grounded on a
// typical compiler's own symbol-table and constant-folding passes, used
// by this repo's own tests and by the CLI's demonstration mode.
package collab

import "symex/src/expr"

// ValueSet is the abstract pointer store. Real
// implementations run a whole-program pointer analysis; this package
// never looks inside one.
type ValueSet interface {
	// Read returns the set of object names ptr may point to.
	Read(ptr *expr.Expr) []string
	// Assign records that lhs now may point to whatever rhs may point
	// to (or, for a non-pointer rhs, has no effect).
	Assign(lhs, rhs *expr.Expr)
	// ApplyCondition returns a refined copy of the value-set under the
	// assumption that cond holds.
	ApplyCondition(cond *expr.Expr) ValueSet
	// Merge returns the pointwise union of the receiver and other.
	Merge(other ValueSet) ValueSet
	// Filter partitions the receiver into a refined taken/not-taken pair
	// under cond. Implementations that cannot refine simply return
	// unmodified copies of the receiver for both.
	Filter(cond *expr.Expr) (taken ValueSet, notTaken ValueSet)
}

// Symbol is the information the engine needs about a declared identifier;
// SymbolTable never exposes more than this to the engine.
type Symbol struct {
	ID       string
	Type     string
	IsGlobal bool
}

// SymbolTable is the opaque outer/inner symbol table. The
// engine inserts newly-materialized symbols (e.g. string-builtin
// constant-fold results) and looks up declared identifiers'
// types; it never iterates the whole table.
type SymbolTable interface {
	Insert(sym Symbol) error
	Lookup(id string) (Symbol, bool)
}

// Simplify is the pure, semantics-preserving expression simplifier. The
// engine calls it on-the-fly when simplify_opt is enabled; it never
// second-guesses the result.
type Simplify func(e *expr.Expr) *expr.Expr

// GotoFunctionLoader lazily loads the body of a callee by id. It returns
// ok false when the loader could not resolve a body.
type GotoFunctionLoader func(id string) (*expr.Function, bool)

// PathStorage is the external work queue path-exploration mode pushes
// unexplored successor states to. State is left as
// interface{} here since PathStorage is generic over whatever concrete
// saved-state type package symex defines; that avoids an import cycle
// between collab and symex while keeping the interface's push/pop/len
// shape exact.
type PathStorage interface {
	Push(state interface{})
	Pop() (interface{}, bool)
	Len() int
}
