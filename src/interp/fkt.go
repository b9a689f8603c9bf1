package interp

import (
	"strings"

	"symex/src/equation"
	"symex/src/expr"
)

// FktHandler resolves one Fkt instruction's effect on ctx; it is
// responsible for the instruction's own PC advance.
type FktHandler func(ctx *Context, stmt *expr.Stmt) (*Outcome, error)

// FktTable is the extensible registry of intrinsic-function handlers,
// modeled on a typical instruction-selection table, which maps an
// opcode name to a code-emission function the same way this table maps
// an intrinsic name to a state-transition function.
type FktTable struct {
	handlers map[string]FktHandler
}

// NewFktTable returns a table pre-populated with the handful of
// intrinsics every GOTO front-end commonly lowers library calls to:
// CBMC-style nondet_* generators and assume_abort_if_not, plus a
// minimal malloc/free pair. Register overrides or additions with Add.
func NewFktTable() *FktTable {
	t := &FktTable{handlers: map[string]FktHandler{}}
	t.Add("assume_abort_if_not", fktAssume)
	t.Add("malloc", fktMalloc)
	t.Add("free", fktNoop)
	return t
}

// Add registers handler for intrinsic name, replacing any existing
// registration.
func (t *FktTable) Add(name string, handler FktHandler) {
	t.handlers[name] = handler
}

// Lookup returns the handler registered for name, and whether one was
// found. Names with a "nondet_" prefix that have no explicit
// registration fall back to fktNondet, matching CBMC's convention of
// treating any nondet_<type> symbol as a fresh nondeterministic value.
func (t *FktTable) Lookup(name string) (FktHandler, bool) {
	if h, ok := t.handlers[name]; ok {
		return h, true
	}
	if strings.HasPrefix(name, "nondet_") {
		return fktNondet, true
	}
	return nil, false
}

// stepFkt implements Fkt: dispatch to the registered intrinsic
// handler, or havoc the result and warn if none is registered (an
// unrecognized intrinsic is not a fatal invariant violation; it is
// exactly the soundness gap allow_pointer_unsoundness-style flags exist
// to flag rather than abort on).
func (c *Context) stepFkt(stmt *expr.Stmt) (*Outcome, error) {
	if c.Fkt != nil {
		if h, ok := c.Fkt.Lookup(stmt.Fkt); ok {
			return h(c, stmt)
		}
	}
	c.Trace.Warn("unrecognized intrinsic %q, havocking result", stmt.Fkt)
	c.havocFktResult(stmt)
	return c.advance()
}

func (c *Context) havocFktResult(stmt *expr.Stmt) {
	if stmt.Lhs == nil {
		return
	}
	scope := c.State.Scope()
	versioned := scope.WriteL2(stmt.Lhs.Name, stmt.Lhs.Type)
	val := expr.NewNondet(stmt.Lhs.Type, "fkt_"+stmt.Fkt)
	c.Equation.Append(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.State.Guard.As(),
		Loc:      stmt.Loc,
		Lhs:      versioned,
		Rhs:      val,
		AssignOf: equation.AssignAux,
	})
	if c.Values != nil {
		c.Values.Assign(versioned, val)
	}
}

// fktNondet binds Lhs to a fresh nondeterministic value of its declared
// type, the semantics CBMC-style nondet_<type>() intrinsics carry.
func fktNondet(c *Context, stmt *expr.Stmt) (*Outcome, error) {
	c.havocFktResult(stmt)
	return c.advance()
}

// fktAssume implements assume_abort_if_not(cond) as an ordinary Assume
// over the cleaned first argument.
func fktAssume(c *Context, stmt *expr.Stmt) (*Outcome, error) {
	if len(stmt.FktArgs) == 0 {
		return c.advance()
	}
	return c.stepAssume(&expr.Stmt{Kind: expr.Assume, Loc: stmt.Loc, Cond: stmt.FktArgs[0]})
}

// fktMalloc binds Lhs to a fresh nondeterministic pointer value standing
// for a newly allocated object; it does not itself register anything
// with the ValueSet beyond the plain Assign every binding already gets,
// since object provenance is ValueSet's concern, not this engine's.
func fktMalloc(c *Context, stmt *expr.Stmt) (*Outcome, error) {
	c.havocFktResult(stmt)
	return c.advance()
}

// fktNoop advances with no effect, the correct behavior for an
// intrinsic this reference engine does not model memory effects for
// (e.g. free, whose only observable effect would be on a ValueSet richer
// than MapValueSet).
func fktNoop(c *Context, stmt *expr.Stmt) (*Outcome, error) {
	return c.advance()
}
