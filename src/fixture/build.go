package fixture

import (
	"fmt"

	"symex/src/expr"
)

// Build lowers a parsed Program into the map a collab.GotoFunctionLoader
// closes over: function id -> *expr.Function. One function per
// top-level construct, operands built bottom-up, front-end-local state
// (here: each function's declared-symbol type table) threaded as a
// plain map rather than smuggled through the tree.
func Build(prog *Program) (map[string]*expr.Function, error) {
	out := make(map[string]*expr.Function, len(prog.Functions))
	for _, fn := range prog.Functions {
		ef, err := buildFunction(fn)
		if err != nil {
			return nil, err
		}
		out[ef.ID] = ef
	}
	return out, nil
}

// Loader builds a collab.GotoFunctionLoader-shaped closure directly from
// src, the common case for a test that only needs one or two functions.
func Loader(src string) (func(id string) (*expr.Function, bool), error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, err
	}
	fns, err := Build(prog)
	if err != nil {
		return nil, err
	}
	return func(id string) (*expr.Function, bool) {
		fn, ok := fns[id]
		return fn, ok
	}, nil
}

func buildFunction(f *Function) (*expr.Function, error) {
	ef := &expr.Function{ID: f.Name}
	types := map[string]string{}
	for _, p := range f.Params {
		ef.Params = append(ef.Params, expr.Param{Name: p.Name, Type: p.Type})
		types[p.Name] = p.Type
	}
	if f.ReturnType != nil {
		ef.ReturnType = *f.ReturnType
	}

	labelToIndex := make(map[int]int, len(f.Instrs))
	for i, instr := range f.Instrs {
		lbl := i
		if instr.Label != nil {
			lbl = *instr.Label
		}
		labelToIndex[lbl] = i
	}

	body := make([]*expr.Stmt, len(f.Instrs))
	for i, instr := range f.Instrs {
		s, err := buildInstr(instr, types, labelToIndex)
		if err != nil {
			return nil, fmt.Errorf("function %s, instruction %d: %w", f.Name, i, err)
		}
		body[i] = s
	}
	ef.Body = body
	return ef, nil
}

func resolveTarget(labelToIndex map[int]int, label int) (int, error) {
	idx, ok := labelToIndex[label]
	if !ok {
		return 0, fmt.Errorf("undefined instruction label %d", label)
	}
	return idx, nil
}

func buildInstr(instr *Instr, types map[string]string, labelToIndex map[int]int) (*expr.Stmt, error) {
	switch {
	case instr.Decl != nil:
		types[instr.Decl.Name] = instr.Decl.Type
		return &expr.Stmt{Kind: expr.Decl, Symbol: instr.Decl.Name, Type: instr.Decl.Type}, nil

	case instr.Dead != nil:
		return &expr.Stmt{Kind: expr.Dead, Symbol: instr.Dead.Name}, nil

	case instr.GotoI != nil:
		target, err := resolveTarget(labelToIndex, instr.GotoI.Target)
		if err != nil {
			return nil, err
		}
		var cond *expr.Expr
		if instr.GotoI.Cond != nil {
			cond, err = buildExpr(instr.GotoI.Cond, types)
			if err != nil {
				return nil, err
			}
		}
		return expr.NewGoto(target, cond), nil

	case instr.Assume != nil:
		cond, err := buildExpr(instr.Assume.Cond, types)
		if err != nil {
			return nil, err
		}
		return expr.NewAssume(cond), nil

	case instr.Assert != nil:
		cond, err := buildExpr(instr.Assert.Cond, types)
		if err != nil {
			return nil, err
		}
		msg, propID := "", ""
		if instr.Assert.Msg != nil {
			msg = *instr.Assert.Msg
		}
		if instr.Assert.PropertyID != nil {
			propID = *instr.Assert.PropertyID
		}
		return expr.NewAssert(cond, msg, propID), nil

	case instr.LabelStmt != nil:
		return &expr.Stmt{Kind: expr.Label, Label: instr.LabelStmt.Name}, nil

	case instr.StartThread != nil:
		target, err := resolveTarget(labelToIndex, instr.StartThread.Target)
		if err != nil {
			return nil, err
		}
		return &expr.Stmt{Kind: expr.StartThread, Target: target}, nil

	case instr.EndThread != nil:
		return &expr.Stmt{Kind: expr.EndThread}, nil

	case instr.AtomicBegin != nil:
		return &expr.Stmt{Kind: expr.AtomicBegin}, nil

	case instr.AtomicEnd != nil:
		return &expr.Stmt{Kind: expr.AtomicEnd}, nil

	case instr.Skip != nil:
		return &expr.Stmt{Kind: expr.Skip}, nil

	case instr.End != nil:
		return &expr.Stmt{Kind: expr.EndFunction}, nil

	case instr.Return != nil:
		var val *expr.Expr
		if instr.Return.Value != nil {
			var err error
			val, err = buildExpr(instr.Return.Value, types)
			if err != nil {
				return nil, err
			}
		}
		return &expr.Stmt{Kind: expr.Return, Rhs: val}, nil

	case instr.Call != nil:
		args := make([]*expr.Expr, len(instr.Call.Args))
		for i, a := range instr.Call.Args {
			v, err := buildExpr(a, types)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		var lhs *expr.Expr
		if instr.Call.Lhs != nil {
			lhs = expr.NewSymbol(*instr.Call.Lhs, types[*instr.Call.Lhs])
		}
		return &expr.Stmt{Kind: expr.FunctionCall, Lhs: lhs, Callee: instr.Call.Callee, Args: args}, nil

	case instr.Fkt != nil:
		args := make([]*expr.Expr, len(instr.Fkt.Args))
		for i, a := range instr.Fkt.Args {
			v, err := buildExpr(a, types)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		var lhs *expr.Expr
		if instr.Fkt.Lhs != nil {
			lhs = expr.NewSymbol(*instr.Fkt.Lhs, types[*instr.Fkt.Lhs])
		}
		return &expr.Stmt{Kind: expr.Fkt, Lhs: lhs, Fkt: instr.Fkt.Name, FktArgs: args}, nil

	case instr.Assign != nil:
		lhs, err := buildExpr(instr.Assign.Lhs, types)
		if err != nil {
			return nil, err
		}
		rhs, err := buildExpr(instr.Assign.Rhs, types)
		if err != nil {
			return nil, err
		}
		return expr.NewAssign(lhs, rhs), nil

	default:
		return nil, fmt.Errorf("empty instruction")
	}
}

// logicalOps produces a bool-typed result regardless of its operands'
// declared types.
var logicalOps = map[string]bool{
	"||": true, "&&": true, "==": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
}

func buildExpr(e *Expr, types map[string]string) (*expr.Expr, error) {
	left, err := buildUnary(e.Left, types)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Ops {
		right, err := buildUnary(op.Right, types)
		if err != nil {
			return nil, err
		}
		typ := left.Type
		if logicalOps[op.Operator] {
			typ = "bool"
		} else if typ == "" {
			typ = right.Type
		}
		left = expr.NewBinary(op.Operator, typ, left, right)
	}
	return left, nil
}

func buildUnary(u *Unary, types map[string]string) (*expr.Expr, error) {
	val, err := buildPostfix(u.Value, types)
	if err != nil {
		return nil, err
	}
	if u.Operator == nil {
		return val, nil
	}
	switch *u.Operator {
	case "!":
		return expr.NewUnary("!", "bool", val), nil
	case "-":
		return expr.NewUnary("-", val.Type, val), nil
	case "*":
		return &expr.Expr{Kind: expr.Dereference, Operands: []*expr.Expr{val}}, nil
	case "&":
		return &expr.Expr{Kind: expr.AddressOf, Operands: []*expr.Expr{val}}, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator %q", *u.Operator)
	}
}

func buildPostfix(p *Postfix, types map[string]string) (*expr.Expr, error) {
	base, err := buildPrimary(p.Base, types)
	if err != nil {
		return nil, err
	}
	for _, suf := range p.Suffixes {
		switch {
		case suf.Index != nil:
			idx, err := buildExpr(suf.Index, types)
			if err != nil {
				return nil, err
			}
			base = &expr.Expr{Kind: expr.ArrayIndex, Operands: []*expr.Expr{base, idx}}
		case suf.Member != nil:
			base = &expr.Expr{Kind: expr.StructMember, Name: *suf.Member, Operands: []*expr.Expr{base}}
		}
	}
	return base, nil
}

func buildPrimary(p *Primary, types map[string]string) (*expr.Expr, error) {
	switch {
	case p.Bool != nil:
		return expr.NewConstant(*p.Bool == "true", "bool"), nil
	case p.Float != nil:
		return expr.NewConstant(*p.Float, "float"), nil
	case p.Int != nil:
		return expr.NewConstant(*p.Int, "int"), nil
	case p.Ident != nil:
		return expr.NewSymbol(*p.Ident, types[*p.Ident]), nil
	case p.Parens != nil:
		return buildExpr(p.Parens, types)
	default:
		return nil, fmt.Errorf("empty expression")
	}
}
