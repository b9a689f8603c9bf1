// Package expr provides the tagged-variant expression tree used throughout
// the symbolic execution engine, and the matching statement tree for GOTO
// program instructions. A single struct per tree plays the role the
// compiler's ir.Node plays for the syntax tree: one shape, a Kind tag and a
// generic payload, instead of a class hierarchy per node type.
package expr

import (
	"fmt"
	"hash/fnv"
)

// Kind differentiates the variants of Expr.
type Kind int

// Expression kinds, per the data model.
const (
	Symbol Kind = iota
	Constant
	BinaryOp
	UnaryOp
	IfThenElse
	ArrayIndex
	StructMember
	Dereference
	AddressOf
	Cast
	ByteExtract
	FunctionApp
	Let
	Quantifier
	SideEffectNondet
	SideEffectAssign
	SideEffectCall
	SideEffectThrow
	SideEffectStatementExpr
	Nil
)

var kindNames = [...]string{
	Symbol:                  "symbol",
	Constant:                "constant",
	BinaryOp:                "binary",
	UnaryOp:                 "unary",
	IfThenElse:              "if-then-else",
	ArrayIndex:              "array-index",
	StructMember:            "struct-member",
	Dereference:             "dereference",
	AddressOf:               "address-of",
	Cast:                    "cast",
	ByteExtract:             "byte-extract",
	FunctionApp:             "function-app",
	Let:                     "let",
	Quantifier:              "quantifier",
	SideEffectNondet:        "side-effect-nondet",
	SideEffectAssign:        "side-effect-assign",
	SideEffectCall:          "side-effect-call",
	SideEffectThrow:         "side-effect-throw",
	SideEffectStatementExpr: "side-effect-statement-expr",
	Nil:                     "nil",
}

// String returns a print-friendly name for k.
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Source is a location in the original GOTO program, carried for equation
// steps and diagnostics. Front-end lowering populates it; the engine only
// threads it through.
type Source struct {
	File     string
	Function string
	Line     int
}

// Expr is a single node in the tagged-variant expression tree. Every
// variant carries its type and an optional source location; the payload
// fields below are populated according to Kind, the familiar
// Node.Data/Children split but with named fields for the handful of
// shapes that recur constantly in the interpreter (binary/unary operators,
// if-then-else, symbol names).
type Expr struct {
	Kind Kind
	Type string // symbol-table type name; opaque to this package.
	Loc  Source

	// Symbol / FunctionApp name, BinaryOp/UnaryOp operator mnemonic,
	// Cast target type mnemonic, Let/Quantifier bound symbol.
	Name string

	// Constant payload (already in whatever representation the
	// surrounding symbol table defines; this package never interprets
	// it beyond equality and printing).
	Value interface{}

	// Operands, in a fixed order per Kind:
	//   BinaryOp:        [lhs, rhs]
	//   UnaryOp:         [operand]
	//   IfThenElse:      [cond, then, else]
	//   ArrayIndex:      [array, index]
	//   StructMember:    [struct]      (Name holds the member)
	//   Dereference:     [pointer]
	//   AddressOf:       [operand]
	//   Cast:            [operand]
	//   ByteExtract:     [container, offset]
	//   FunctionApp:     args...       (Name holds the callee)
	//   Let:             [binding, body]  (Name holds the bound symbol's L0 name)
	//   Quantifier:      [body]        (Name holds the bound symbol)
	//   SideEffect*:     side-effect-specific, see side_effect.go
	Operands []*Expr

	hash    uint64
	hashSet bool
}

// New builds an Expr of the given kind with the supplied operands.
func New(k Kind, typ string, operands ...*Expr) *Expr {
	return &Expr{Kind: k, Type: typ, Operands: operands}
}

// NewSymbol builds a Symbol leaf expression.
func NewSymbol(name, typ string) *Expr {
	return &Expr{Kind: Symbol, Type: typ, Name: name}
}

// NewConstant builds a Constant leaf expression.
func NewConstant(value interface{}, typ string) *Expr {
	return &Expr{Kind: Constant, Type: typ, Value: value}
}

// NewBinary builds a BinaryOp expression.
func NewBinary(op, typ string, lhs, rhs *Expr) *Expr {
	return &Expr{Kind: BinaryOp, Type: typ, Name: op, Operands: []*Expr{lhs, rhs}}
}

// NewUnary builds a UnaryOp expression.
func NewUnary(op, typ string, operand *Expr) *Expr {
	return &Expr{Kind: UnaryOp, Type: typ, Name: op, Operands: []*Expr{operand}}
}

// NewITE builds an IfThenElse expression.
func NewITE(typ string, cond, then, els *Expr) *Expr {
	return &Expr{Kind: IfThenElse, Type: typ, Operands: []*Expr{cond, then, els}}
}

// IsTrue reports whether e is the boolean constant true.
func (e *Expr) IsTrue() bool {
	if e == nil || e.Kind != Constant {
		return false
	}
	b, ok := e.Value.(bool)
	return ok && b
}

// IsFalse reports whether e is the boolean constant false.
func (e *Expr) IsFalse() bool {
	if e == nil || e.Kind != Constant {
		return false
	}
	b, ok := e.Value.(bool)
	return ok && !b
}

// True returns the canonical boolean-true constant expression.
func True() *Expr { return NewConstant(true, "bool") }

// False returns the canonical boolean-false constant expression.
func False() *Expr { return NewConstant(false, "bool") }

// Equal reports whether e and o are structurally identical: same kind,
// type, name, value and pairwise-equal operands. Used by the merge/phi
// algorithm to detect whether two contributors actually disagree on a
// variable's value, and by tests asserting renaming results.
func (e *Expr) Equal(o *Expr) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.Hash() != o.Hash() {
		return false
	}
	if e.Kind != o.Kind || e.Type != o.Type || e.Name != o.Name {
		return false
	}
	if !valueEqual(e.Value, o.Value) {
		return false
	}
	if len(e.Operands) != len(o.Operands) {
		return false
	}
	for i := range e.Operands {
		if !e.Operands[i].Equal(o.Operands[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Hash returns the structural hash of e, computing and caching it on first
// use. Expressions are treated as immutable once built; mutating Operands
// or leaf fields after the hash has been taken invalidates the cache and
// must go through Rebuild instead.
func (e *Expr) Hash() uint64 {
	if e == nil {
		return 0
	}
	if e.hashSet {
		return e.hash
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s|%v", e.Kind, e.Type, e.Name, e.Value)
	for _, op := range e.Operands {
		fmt.Fprintf(h, "|%d", op.Hash())
	}
	e.hash = h.Sum64()
	e.hashSet = true
	return e.hash
}

// Rebuild clears the cached hash of e, forcing recomputation on next use.
// Called by in-place Operand mutation sites (there are none in this
// package; clean-expr and renaming always build fresh nodes).
func (e *Expr) Rebuild() {
	if e != nil {
		e.hashSet = false
	}
}

// String renders a debug form of the expression tree, not a solver-ready
// serialization (that lives downstream, in the decision procedure).
func (e *Expr) String() string {
	if e == nil {
		return "<nil-expr>"
	}
	switch e.Kind {
	case Symbol:
		return e.Name
	case Constant:
		return fmt.Sprintf("%v", e.Value)
	case BinaryOp:
		return fmt.Sprintf("(%s %s %s)", e.Operands[0], e.Name, e.Operands[1])
	case UnaryOp:
		return fmt.Sprintf("(%s%s)", e.Name, e.Operands[0])
	case IfThenElse:
		return fmt.Sprintf("(if %s then %s else %s)", e.Operands[0], e.Operands[1], e.Operands[2])
	case Dereference:
		return fmt.Sprintf("(*%s)", e.Operands[0])
	case AddressOf:
		return fmt.Sprintf("(&%s)", e.Operands[0])
	case ArrayIndex:
		return fmt.Sprintf("%s[%s]", e.Operands[0], e.Operands[1])
	case StructMember:
		return fmt.Sprintf("%s.%s", e.Operands[0], e.Name)
	case Cast:
		return fmt.Sprintf("(%s)%s", e.Name, e.Operands[0])
	case ByteExtract:
		return fmt.Sprintf("byte_extract(%s, %s, %s)", e.Operands[0], e.Operands[1], e.Type)
	case FunctionApp:
		return fmt.Sprintf("%s(%v)", e.Name, e.Operands)
	case Let:
		return fmt.Sprintf("let %s = %s in %s", e.Name, e.Operands[0], e.Operands[1])
	case Quantifier:
		return fmt.Sprintf("%s %s . %s", e.Name, e.Type, e.Operands[0])
	case Nil:
		return "nil"
	default:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Operands)
	}
}

// Walk visits e and every operand in pre-order, calling visit on each
// node. Stops early (without visiting remaining operands) if visit
// returns false.
func (e *Expr) Walk(visit func(*Expr) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	for _, op := range e.Operands {
		op.Walk(visit)
	}
}

// Transform returns a new tree obtained by applying f to every node,
// bottom-up: operands are transformed first, then f is applied to the
// (possibly operand-replaced) node itself. Used by renaming and
// clean-expr, which both need to replace leaves while keeping everything
// else structurally shared.
func (e *Expr) Transform(f func(*Expr) *Expr) *Expr {
	if e == nil {
		return nil
	}
	if len(e.Operands) == 0 {
		return f(e)
	}
	next := make([]*Expr, len(e.Operands))
	for i, op := range e.Operands {
		next[i] = op.Transform(f)
	}
	clone := *e
	clone.Operands = next
	clone.hashSet = false
	return f(&clone)
}

// FreeSymbols returns the set of distinct Symbol names occurring in e,
// excluding symbols bound by an enclosing Let or Quantifier.
func (e *Expr) FreeSymbols() map[string]bool {
	out := map[string]bool{}
	e.freeSymbols(map[string]bool{}, out)
	return out
}

func (e *Expr) freeSymbols(bound map[string]bool, out map[string]bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case Symbol:
		if !bound[e.Name] {
			out[e.Name] = true
		}
	case Let:
		e.Operands[0].freeSymbols(bound, out)
		inner := make(map[string]bool, len(bound)+1)
		for k := range bound {
			inner[k] = true
		}
		inner[e.Name] = true
		e.Operands[1].freeSymbols(inner, out)
	case Quantifier:
		inner := make(map[string]bool, len(bound)+1)
		for k := range bound {
			inner[k] = true
		}
		inner[e.Name] = true
		e.Operands[0].freeSymbols(inner, out)
	default:
		for _, op := range e.Operands {
			op.freeSymbols(bound, out)
		}
	}
}
