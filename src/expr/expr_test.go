package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEqualStructural verifies that Equal compares expressions
// structurally, not by pointer identity.
func TestEqualStructural(t *testing.T) {
	a := NewBinary("+", "int", NewSymbol("x", "int"), NewConstant(1, "int"))
	b := NewBinary("+", "int", NewSymbol("x", "int"), NewConstant(1, "int"))
	c := NewBinary("+", "int", NewSymbol("x", "int"), NewConstant(2, "int"))

	assert.True(t, a.Equal(b), "structurally identical trees must compare equal")
	assert.False(t, a.Equal(c), "trees differing in a leaf constant must not compare equal")
	assert.Equal(t, a.Hash(), b.Hash(), "equal trees must hash equal")
	assert.NotEqual(t, a.Hash(), c.Hash())
}

// TestTransformRebuildsBottomUp checks that Transform replaces leaves
// while preserving tree shape, used by renaming.
func TestTransformRebuildsBottomUp(t *testing.T) {
	tree := NewBinary("+", "int", NewSymbol("x", "int"), NewSymbol("y", "int"))
	renamed := tree.Transform(func(e *Expr) *Expr {
		if e.Kind == Symbol {
			return NewSymbol(e.Name+"!1", e.Type)
		}
		return e
	})

	require.Len(t, renamed.Operands, 2)
	assert.Equal(t, "x!1", renamed.Operands[0].Name)
	assert.Equal(t, "y!1", renamed.Operands[1].Name)
	// original must be untouched.
	assert.Equal(t, "x", tree.Operands[0].Name)
}

// TestFreeSymbolsExcludesBound ensures Let/Quantifier binders are removed
// from the free-symbol set, which the merge candidate heuristic relies on.
func TestFreeSymbolsExcludesBound(t *testing.T) {
	letExpr := &Expr{
		Kind: Let,
		Name: "t",
		Operands: []*Expr{
			NewSymbol("x", "int"),
			NewBinary("+", "int", NewSymbol("t", "int"), NewSymbol("y", "int")),
		},
	}
	free := letExpr.FreeSymbols()
	assert.True(t, free["x"])
	assert.True(t, free["y"])
	assert.False(t, free["t"], "let-bound symbol must not be free")
}

// TestIsTrueFalse exercises the guard algebra's short-circuit helpers.
func TestIsTrueFalse(t *testing.T) {
	assert.True(t, True().IsTrue())
	assert.True(t, False().IsFalse())
	assert.False(t, True().IsFalse())
	assert.False(t, NewSymbol("b", "bool").IsTrue())
}

// TestWalkVisitsAllNodes verifies pre-order traversal visits every node
// exactly once and can short-circuit.
func TestWalkVisitsAllNodes(t *testing.T) {
	tree := NewITE("int", NewSymbol("c", "bool"), NewConstant(1, "int"), NewConstant(2, "int"))
	var visited []Kind
	tree.Walk(func(e *Expr) bool {
		visited = append(visited, e.Kind)
		return true
	})
	assert.Equal(t, []Kind{IfThenElse, Symbol, Constant, Constant}, visited)

	count := 0
	tree.Walk(func(e *Expr) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count, "returning false must stop descending into operands")
}
