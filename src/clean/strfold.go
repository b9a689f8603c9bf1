package clean

import (
	"encoding/hex"
	"hash/fnv"

	"github.com/iancoleman/strcase"

	"symex/src/equation"
	"symex/src/expr"
	"symex/src/util"
)

// foldStringBuiltins folds concat/substring/empty side-effect calls
// whose arguments are all constant character arrays. Must run after
// dereference removal (operands need to already be concrete constants)
// and before simplification, mirroring removeDerefs' bottom-up rewrite
// shape.
func (c *Context) foldStringBuiltins(e *expr.Expr) *expr.Expr {
	if e == nil {
		return nil
	}
	if len(e.Operands) > 0 {
		next := make([]*expr.Expr, len(e.Operands))
		for i, op := range e.Operands {
			next[i] = c.foldStringBuiltins(op)
		}
		clone := *e
		clone.Operands = next
		clone.Rebuild()
		e = &clone
	}
	if e.Kind != expr.SideEffectCall {
		return e
	}
	content, ok := foldContent(e)
	if !ok {
		return e
	}
	return c.materializeFolded(content, e.Type)
}

// foldContent computes the folded byte content of a concat/substring/empty
// call, reporting false when an argument isn't a constant character array
// (or, for substring, constant in-range bounds) — the call is then left
// uninterpreted for the decision procedure.
func foldContent(e *expr.Expr) ([]byte, bool) {
	switch e.Name {
	case "empty":
		return []byte{}, true
	case "concat":
		if len(e.Operands) != 2 {
			return nil, false
		}
		a, ok := constBytes(e.Operands[0])
		if !ok {
			return nil, false
		}
		b, ok := constBytes(e.Operands[1])
		if !ok {
			return nil, false
		}
		return append(append([]byte{}, a...), b...), true
	case "substring":
		if len(e.Operands) != 3 {
			return nil, false
		}
		s, ok := constBytes(e.Operands[0])
		if !ok {
			return nil, false
		}
		start, ok := constInt(e.Operands[1])
		if !ok {
			return nil, false
		}
		length, ok := constInt(e.Operands[2])
		if !ok {
			return nil, false
		}
		if start < 0 || length < 0 || start+length > len(s) {
			return nil, false
		}
		return append([]byte{}, s[start:start+length]...), true
	default:
		return nil, false
	}
}

func constBytes(e *expr.Expr) ([]byte, bool) {
	if e.Kind != expr.Constant {
		return nil, false
	}
	b, ok := e.Value.([]byte)
	return b, ok
}

func constInt(e *expr.Expr) (int, bool) {
	if e.Kind != expr.Constant {
		return 0, false
	}
	switch v := e.Value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// materializeFolded emits the length/data assignment pair for a folded
// string builtin's fresh symbol and returns a reference to its data
// field — the expression the caller substitutes in place of the
// original side-effect call.
func (c *Context) materializeFolded(content []byte, typ string) *expr.Expr {
	name := foldedName(content)

	lhsLen := c.Scope.WriteL2(name+".length", "int")
	c.Emit(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.Guard.As(),
		Lhs:      lhsLen,
		Rhs:      expr.NewConstant(len(content), "int"),
		AssignOf: equation.AssignAux,
	})

	lhsData := c.Scope.WriteL2(name+".data", typ)
	c.Emit(&equation.Step{
		Kind:     equation.StepAssignment,
		Guard:    c.Guard.As(),
		Lhs:      lhsData,
		Rhs:      expr.NewConstant(append([]byte{}, content...), typ),
		AssignOf: equation.AssignAux,
	})

	return lhsData
}

// foldedName derives a deterministic, human-legible base name from
// content: an FNV-1a digest of the bytes rendered through
// strcase.ToSnake, under the same prefix util.NewLabel(LabelFoldedString)
// uses for its counter-based names. Two folds of identical content
// always produce the same name, regardless of emission order or which
// path discovered it first.
func foldedName(content []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(content)
	digest := hex.EncodeToString(h.Sum(nil))
	return util.LabelPrefix(util.LabelFoldedString) + "_" + strcase.ToSnake(digest)
}
