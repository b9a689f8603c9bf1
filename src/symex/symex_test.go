package symex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symex/src/collab"
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/interp"
	"symex/src/state"
	"symex/src/util"
)

func newTestDriver(entry string, loader collab.GotoFunctionLoader) (*Driver, *collab.MapSymbolTable) {
	syms := collab.NewMapSymbolTable()
	d := &Driver{
		EntryPoint: entry,
		Loader:     loader,
		Symbols:    syms,
		Simplify:   collab.DefaultSimplify,
		Opt:        util.Default(),
		Trace:      util.NewTrace(util.Default()),
		Fkt:        interp.NewFktTable(),
		Storage:    collab.NewStackPathStorage(),
	}
	return d, syms
}

func TestRunSinglePathStraightLine(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "main", Body: []*expr.Stmt{
		{Kind: expr.Decl, Symbol: "x", Type: "int"},
		expr.NewAssign(expr.NewSymbol("x", "int"), expr.NewConstant(7, "int")),
		{Kind: expr.EndFunction},
	}}
	d, _ := newTestDriver("main", func(id string) (*expr.Function, bool) {
		if id == "main" {
			return fn, true
		}
		return nil, false
	})

	eq, err := FromEntryPoint(d, collab.NewMapValueSet())
	require.NoError(t, err)

	steps := eq.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, equation.AssignDecl, steps[0].AssignOf)
	assert.Equal(t, equation.AssignPlain, steps[1].AssignOf)
}

// branchingFixture builds a small if/else program converging at a single
// EndFunction, used by both the single-path merge test and the
// path-exploration split test:
//
//	0: Decl x int
//	1: Decl c bool
//	2: Goto 5 if c            (then branch)
//	3: Assign x := 10         (else branch)
//	4: Goto 6
//	5: Assign x := 20         (then branch)
//	6: EndFunction
func branchingFixture() *expr.Function {
	return &expr.Function{ID: "main", Body: []*expr.Stmt{
		{Kind: expr.Decl, Symbol: "x", Type: "int"},
		{Kind: expr.Decl, Symbol: "c", Type: "bool"},
		expr.NewGoto(5, expr.NewSymbol("c", "bool")),
		expr.NewAssign(expr.NewSymbol("x", "int"), expr.NewConstant(10, "int")),
		expr.NewGoto(6, nil),
		expr.NewAssign(expr.NewSymbol("x", "int"), expr.NewConstant(20, "int")),
		{Kind: expr.EndFunction},
	}}
}

func TestRunSinglePathMergesForwardBranch(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := branchingFixture()
	d, syms := newTestDriver("main", func(id string) (*expr.Function, bool) {
		if id == "main" {
			return fn, true
		}
		return nil, false
	})
	require.NoError(t, syms.Insert(collab.Symbol{ID: "x", Type: "int"}))
	require.NoError(t, syms.Insert(collab.Symbol{ID: "c", Type: "bool"}))

	eq, err := FromEntryPoint(d, collab.NewMapValueSet())
	require.NoError(t, err)

	var phis int
	for _, s := range eq.Steps() {
		if s.Kind == equation.StepAssignment && s.AssignOf == equation.AssignPhi {
			phis++
			assert.Equal(t, expr.IfThenElse, s.Rhs.Kind)
		}
	}
	assert.Equal(t, 1, phis, "the two arms disagree on x and must be reconciled by exactly one phi")
}

func TestRunPathExplorationPushesOtherBranch(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := branchingFixture()
	d, syms := newTestDriver("main", func(id string) (*expr.Function, bool) {
		if id == "main" {
			return fn, true
		}
		return nil, false
	})
	require.NoError(t, syms.Insert(collab.Symbol{ID: "x", Type: "int"}))
	require.NoError(t, syms.Insert(collab.Symbol{ID: "c", Type: "bool"}))
	d.Opt.DoingPathExploration = true

	eq, err := FromEntryPoint(d, collab.NewMapValueSet())
	require.NoError(t, err)
	assert.Equal(t, 0, d.Storage.Len(), "both forked paths must have drained from storage")

	var sawTen, sawTwenty bool
	for _, s := range eq.Steps() {
		if s.Kind != equation.StepAssignment || s.Rhs == nil || s.Rhs.Kind != expr.Constant {
			continue
		}
		switch s.Rhs.Value {
		case 10:
			sawTen = true
		case 20:
			sawTwenty = true
		}
	}
	assert.True(t, sawTen, "the else arm must have been explored")
	assert.True(t, sawTwenty, "the then arm must have been explored")
}

func TestApplyLoopPolicyUnwindingAssertions(t *testing.T) {
	d, _ := newTestDriver("main", func(string) (*expr.Function, bool) { return nil, false })
	d.Opt.UnwindingAssertions = true
	d.Opt.UnwindBound = 1

	st := state.New(collab.NewMapValueSet())
	st.LoopIterations[st.LoopKeyAt(0)] = 1 // already at the bound.
	eq := equation.New()
	out := &interp.Outcome{Kind: interp.OutcomeBranch, Taken: st, TakenPC: 0, TakenBackwards: true}

	taken, notTaken := d.applyLoopPolicy(out, eq)
	assert.Nil(t, taken)
	assert.Nil(t, notTaken)
	steps := eq.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, equation.StepAssert, steps[0].Kind)
	assert.Equal(t, "unwind-bound", steps[0].PropertyID)
}

func TestApplyLoopPolicyPartialLoops(t *testing.T) {
	d, _ := newTestDriver("main", func(string) (*expr.Function, bool) { return nil, false })
	d.Opt.PartialLoops = true
	d.Opt.UnwindBound = 1

	st := state.New(collab.NewMapValueSet())
	st.LoopIterations[st.LoopKeyAt(0)] = 1
	eq := equation.New()
	out := &interp.Outcome{Kind: interp.OutcomeBranch, Taken: st, TakenPC: 0, TakenBackwards: true}

	taken, _ := d.applyLoopPolicy(out, eq)
	assert.Nil(t, taken)
	assert.Empty(t, eq.Steps(), "partial_loops silently drops the continuation, no assertion")
}

func TestApplyLoopPolicyDefaultBecomesAssumeFalse(t *testing.T) {
	d, _ := newTestDriver("main", func(string) (*expr.Function, bool) { return nil, false })
	d.Opt.UnwindBound = 1

	st := state.New(collab.NewMapValueSet())
	st.LoopIterations[st.LoopKeyAt(0)] = 1
	eq := equation.New()
	out := &interp.Outcome{Kind: interp.OutcomeBranch, Taken: st, TakenPC: 0, TakenBackwards: true}

	taken, _ := d.applyLoopPolicy(out, eq)
	assert.Nil(t, taken)
	require.Len(t, eq.Steps(), 1)
	assert.Equal(t, equation.StepAssume, eq.Steps()[0].Kind)
	assert.False(t, st.Reachable)
}

func TestGetVccsReflectAsserts(t *testing.T) {
	eq := equation.New()
	assert.Equal(t, 0, GetTotalVccs(eq))
	eq.Append(&equation.Step{Kind: equation.StepAssert, Cond: expr.False()})
	assert.Equal(t, 1, GetTotalVccs(eq))
	assert.Equal(t, 1, GetRemainingVccs(eq))
}
