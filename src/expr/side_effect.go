package expr

// Side-effect expressions model the RHS shapes of a
// SideEffect(Nondet|Assign|Call|Throw|StatementExpr) kind. They are
// ordinary Expr values (Kind one of the SideEffect* constants) but carry
// their payload through dedicated constructors so call sites don't have to
// remember the Operands layout by hand.

// NewNondet builds a SideEffectNondet expression: a fresh nondeterministic
// value of the given type, optionally tagged with a source-visible name
// (e.g. the intrinsic that produced it, for diagnostics only).
func NewNondet(typ, tag string) *Expr {
	return &Expr{Kind: SideEffectNondet, Type: typ, Name: tag}
}

// NewSideEffectAssign builds the RHS shape of a GOTO side-effect assignment
// expression, e.g. `x = (y = 3)`. Operands: [inner assignment target, value].
func NewSideEffectAssign(typ string, target, value *Expr) *Expr {
	return &Expr{Kind: SideEffectAssign, Type: typ, Operands: []*Expr{target, value}}
}

// NewSideEffectCall builds a function-application side effect distinct
// from a pure FunctionApp: it stands for a call whose body symex must
// execute (push a frame) rather than an uninterpreted function symbol.
// Name holds the callee; Operands hold the arguments.
func NewSideEffectCall(typ, callee string, args ...*Expr) *Expr {
	return &Expr{Kind: SideEffectCall, Type: typ, Name: callee, Operands: args}
}

// NewThrow builds a throw side-effect expression carrying the thrown
// value as its single operand.
func NewThrow(typ string, value *Expr) *Expr {
	return &Expr{Kind: SideEffectThrow, Type: typ, Operands: []*Expr{value}}
}

// NewStatementExpr wraps a statement-as-expression (e.g. GNU C statement
// expressions); Operands holds the single resulting value expression, with
// the originating statements kept on the owning Stmt rather than here.
func NewStatementExpr(typ string, result *Expr) *Expr {
	return &Expr{Kind: SideEffectStatementExpr, Type: typ, Operands: []*Expr{result}}
}

// IsSideEffect reports whether k is one of the SideEffect* kinds.
func (k Kind) IsSideEffect() bool {
	switch k {
	case SideEffectNondet, SideEffectAssign, SideEffectCall, SideEffectThrow, SideEffectStatementExpr:
		return true
	default:
		return false
	}
}
