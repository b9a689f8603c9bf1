package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symex/src/expr"
	"symex/src/guard"
	"symex/src/rename"
	"symex/src/state"
)

func TestJoinGuardsAndValuesDisjoinsGuards(t *testing.T) {
	s1 := rename.NewScope(0)
	g1 := guard.True().Add(expr.NewBinary(">", "bool", expr.NewSymbol("x", "int"), expr.NewConstant(0, "int")))
	g2 := guard.True().Add(expr.NewUnary("!", "bool", expr.NewBinary(">", "bool", expr.NewSymbol("x", "int"), expr.NewConstant(0, "int"))))

	joined, _ := JoinGuardsAndValues([]Contributor{{Guard: g1, Scope: s1}, {Guard: g2, Scope: s1}})
	assert.Equal(t, expr.BinaryOp, joined.As().Kind)
	assert.Equal(t, "||", joined.As().Name)
}

func TestBuildPhisSkipsAgreeingSymbols(t *testing.T) {
	previous := rename.NewScope(0)
	previous.Declare("y")

	a := previous.Clone()
	b := previous.Clone()
	// Neither contributor wrote y: both still report the same version.

	phis := BuildPhis(
		[]Contributor{{Guard: guard.True(), Scope: a}, {Guard: guard.True(), Scope: b}},
		previous, previous.Clone(), map[string]string{"y": "int"},
	)
	assert.Empty(t, phis)
}

func TestBuildPhisEmitsLadderForDivergentSymbol(t *testing.T) {
	previous := rename.NewScope(0)
	previous.Declare("y")

	a := previous.Clone()
	a.WriteL2("y", "int") // y@1 in branch a.
	b := previous.Clone()
	b.WriteL2("y", "int")
	b.WriteL2("y", "int") // y@2 in branch b.

	merged := previous.Clone()
	ga := guard.True().Add(expr.NewSymbol("cond_a", "bool"))
	gb := guard.True().Add(expr.NewSymbol("cond_b", "bool"))

	phis := BuildPhis(
		[]Contributor{{Guard: ga, Scope: a}, {Guard: gb, Scope: b}},
		previous, merged, map[string]string{"y": "int"},
	)
	require.Len(t, phis, 1)
	assert.Equal(t, "y", phis[0].ID)
	assert.Equal(t, expr.IfThenElse, phis[0].Rhs.Kind)
	assert.Contains(t, phis[0].Lhs.Name, "@")
}

func TestMergeConstPropDropsDisagreement(t *testing.T) {
	previous := rename.NewScope(0)
	previous.Declare("z")
	previous.SetConst("z", 5)

	a := previous.Clone()
	b := previous.Clone()
	b.SetConst("z", 6) // disagrees with previous/a.

	merged := previous.Clone()
	MergeConstProp([]Contributor{{Scope: a}, {Scope: b}}, previous, merged)

	l1 := merged.CurrentL1("z")
	_, ok := merged.ConstProp[l1]
	assert.False(t, ok)
}

func TestMergeLoopIterationsTakesMax(t *testing.T) {
	k := state.LoopKey{HeadPC: 4}
	out := MergeLoopIterations([]map[state.LoopKey]int{
		{k: 2},
		{k: 5},
	})
	assert.Equal(t, 5, out[k])
}
