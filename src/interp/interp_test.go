package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symex/src/collab"
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/state"
	"symex/src/util"
)

func newTestContext(fn *expr.Function) *Context {
	return &Context{
		Function: fn,
		State:    state.New(collab.NewMapValueSet()),
		Equation: equation.New(),
		Values:   collab.NewMapValueSet(),
		Symbols:  collab.NewMapSymbolTable(),
		Simplify: collab.DefaultSimplify,
		Opt:      util.Default(),
		Trace:    util.NewTrace(util.Default()),
		Fkt:      NewFktTable(),
	}
}

func TestStepAssignEmitsSSAStep(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		expr.NewAssign(expr.NewSymbol("x", "int"), expr.NewConstant(5, "int")),
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("x")

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)
	require.Equal(t, 1, ctx.Equation.Len())

	steps := ctx.Equation.Steps()
	assert.Equal(t, equation.StepAssignment, steps[0].Kind)
	assert.Contains(t, steps[0].Lhs.Name, "@")
}

func TestStepDeclEmitsNondetInit(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.Decl, Symbol: "y", Type: "int"},
	}}
	ctx := newTestContext(fn)

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)

	steps := ctx.Equation.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, equation.AssignDecl, steps[0].AssignOf)
	assert.Equal(t, expr.SideEffectNondet, steps[0].Rhs.Kind)
}

func TestStepAssumeMarksUnreachableOnFalse(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		expr.NewAssume(expr.False()),
	}}
	ctx := newTestContext(fn)

	_, err := Step(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.State.Reachable)
}

func TestStepAssertAlwaysEmitsRegardlessOfGuard(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		expr.NewAssert(expr.False(), "unreachable code", "prop-1"),
	}}
	ctx := newTestContext(fn)

	_, err := Step(ctx)
	require.NoError(t, err)
	steps := ctx.Equation.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, equation.StepAssert, steps[0].Kind)
	assert.Equal(t, "prop-1", steps[0].PropertyID)
	assert.True(t, ctx.State.Reachable) // Assert never changes reachability.
}

func TestStepGotoUnconditionalBranches(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		expr.NewGoto(3, nil),
	}}
	ctx := newTestContext(fn)

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBranch, out.Kind)
	assert.Equal(t, 3, out.TakenPC)
	assert.Nil(t, out.NotTaken)
}

func TestStepGotoConditionalForksState(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		expr.NewGoto(5, expr.NewSymbol("c", "bool")),
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("c")

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBranch, out.Kind)
	require.NotNil(t, out.Taken)
	require.NotNil(t, out.NotTaken)
	assert.Equal(t, 5, out.TakenPC)
	assert.Equal(t, 1, out.NotTakenPC)
	assert.NotSame(t, out.Taken, out.NotTaken)
}

func TestStepGotoBackwardsEdgeFlagged(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{}, {}, {}, expr.NewGoto(1, nil),
	}}
	ctx := newTestContext(fn)
	ctx.State.SetPC(3)

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.True(t, out.TakenBackwards)
}

func TestStepFunctionCallPushesFrameAndBindsParams(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	callee := &expr.Function{
		ID:         "callee",
		Params:     []expr.Param{{Name: "a", Type: "int"}},
		ReturnType: "int",
		Body: []*expr.Stmt{
			{Kind: expr.Return, Rhs: expr.NewSymbol("a", "int")},
			{Kind: expr.EndFunction},
		},
	}
	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.FunctionCall, Lhs: expr.NewSymbol("r", "int"), Callee: "callee",
			Args: []*expr.Expr{expr.NewConstant(9, "int")}},
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("r")
	ctx.Loader = func(id string) (*expr.Function, bool) {
		if id == "callee" {
			return callee, true
		}
		return nil, false
	}

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)
	assert.Equal(t, 0, ctx.State.PC())
	require.Len(t, ctx.State.CallStack(), 1)
	assert.Equal(t, "callee", ctx.State.CallStack()[0].FunctionID)
	assert.Equal(t, 1, ctx.State.RecursionDepth["callee"])

	// Execute the callee body: Return then EndFunction.
	ctx.Function = callee
	out, err = Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)

	out, err = Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)
	assert.Equal(t, 1, ctx.State.PC()) // resumed after the call instruction.
	assert.Empty(t, ctx.State.CallStack())
	assert.Equal(t, 0, ctx.State.RecursionDepth["callee"])

	steps := ctx.Equation.Steps()
	var sawReturnAssign bool
	for _, s := range steps {
		if s.Kind == equation.StepAssignment && s.AssignOf == equation.AssignPlain {
			sawReturnAssign = true
		}
	}
	assert.True(t, sawReturnAssign)
}

func TestStepFunctionCallHavocsOnMissingBody(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.FunctionCall, Lhs: expr.NewSymbol("r", "int"), Callee: "unknown"},
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("r")
	ctx.Loader = func(id string) (*expr.Function, bool) { return nil, false }

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)
	assert.Empty(t, ctx.State.CallStack())

	steps := ctx.Equation.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, equation.AssignAux, steps[0].AssignOf)
	assert.Equal(t, expr.SideEffectNondet, steps[0].Rhs.Kind)
}

func TestStepFunctionCallHonorsRecursionBound(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	callee := &expr.Function{ID: "rec", Body: []*expr.Stmt{{Kind: expr.EndFunction}}}
	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.FunctionCall, Callee: "rec"},
	}}
	ctx := newTestContext(fn)
	ctx.Opt.RecursionBound = 0
	ctx.State.RecursionDepth["rec"] = 1
	ctx.Loader = func(id string) (*expr.Function, bool) { return callee, true }

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAdvance, out.Kind)
	assert.Empty(t, ctx.State.CallStack(), "bounded recursion must not push a new frame")
}

func TestStepEndFunctionHaltsAtOutermostFrame(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{{Kind: expr.EndFunction}}}
	ctx := newTestContext(fn)

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHalt, out.Kind)
}

func TestStepStartThreadReportsSpawnedID(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.StartThread, Target: 4},
	}}
	ctx := newTestContext(fn)

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeThreadStarted, out.Kind)
	assert.Equal(t, 1, out.Spawned)
	assert.Equal(t, 2, ctx.State.ThreadCount())
}

func TestStepInputBindsNondetAndRecordsIO(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.Input, Lhs: expr.NewSymbol("v", "int")},
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("v")

	_, err := Step(ctx)
	require.NoError(t, err)
	steps := ctx.Equation.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, equation.StepAssignment, steps[0].Kind)
	assert.Equal(t, equation.StepInput, steps[1].Kind)
}

func TestStepFktUnrecognizedIntrinsicHavocs(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.Fkt, Lhs: expr.NewSymbol("r", "int"), Fkt: "mystery_intrinsic"},
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("r")

	_, err := Step(ctx)
	require.NoError(t, err)
	steps := ctx.Equation.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, equation.AssignAux, steps[0].AssignOf)
}

func TestStepFktNondetPrefixFallback(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.Fkt, Lhs: expr.NewSymbol("r", "bool"), Fkt: "nondet_bool"},
	}}
	ctx := newTestContext(fn)
	ctx.State.Scope().Declare("r")

	_, err := Step(ctx)
	require.NoError(t, err)
	steps := ctx.Equation.Steps()
	require.Len(t, steps, 1)
	assert.Equal(t, expr.SideEffectNondet, steps[0].Rhs.Kind)
}

func TestStepFktAssumeAbortIfNot(t *testing.T) {
	util.ListenLabel()
	defer util.CloseLabel()

	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{
		{Kind: expr.Fkt, Fkt: "assume_abort_if_not", FktArgs: []*expr.Expr{expr.False()}},
	}}
	ctx := newTestContext(fn)

	_, err := Step(ctx)
	require.NoError(t, err)
	assert.False(t, ctx.State.Reachable)
}

func TestStepHaltsAtEndOfBody(t *testing.T) {
	fn := &expr.Function{ID: "f", Body: []*expr.Stmt{}}
	ctx := newTestContext(fn)

	out, err := Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeHalt, out.Kind)
}
