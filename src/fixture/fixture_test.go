package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"symex/src/expr"
)

func TestBuildStraightLineAssignment(t *testing.T) {
	prog, err := Parse(`
		func main(n: int) {
			decl x: int
			x = n + 1
			end
		}
	`)
	require.NoError(t, err)

	fns, err := Build(prog)
	require.NoError(t, err)

	main, ok := fns["main"]
	require.True(t, ok)
	require.Len(t, main.Body, 3)

	assert.Equal(t, expr.Decl, main.Body[0].Kind)
	assert.Equal(t, "x", main.Body[0].Symbol)

	assign := main.Body[1]
	assert.Equal(t, expr.Assign, assign.Kind)
	assert.Equal(t, expr.Symbol, assign.Lhs.Kind)
	assert.Equal(t, "x", assign.Lhs.Name)
	assert.Equal(t, expr.BinaryOp, assign.Rhs.Kind)
	assert.Equal(t, "+", assign.Rhs.Name)

	assert.Equal(t, expr.EndFunction, main.Body[2].Kind)
}

func TestBuildBranchResolvesGotoLabels(t *testing.T) {
	prog, err := Parse(`
		func main() {
			0: decl x: int
			1: decl c: bool
			2: goto 5 if c
			3: x = 10
			4: goto 6
			5: x = 20
			6: end
		}
	`)
	require.NoError(t, err)

	fns, err := Build(prog)
	require.NoError(t, err)
	main := fns["main"]
	require.Len(t, main.Body, 7)

	assert.Equal(t, expr.Goto, main.Body[2].Kind)
	assert.Equal(t, 5, main.Body[2].Target)
	assert.NotNil(t, main.Body[2].Cond)

	assert.Equal(t, expr.Goto, main.Body[4].Kind)
	assert.Equal(t, 6, main.Body[4].Target)
	assert.Nil(t, main.Body[4].Cond)
}

func TestBuildAssertAndCall(t *testing.T) {
	prog, err := Parse(`
		func helper(a: int): int {
			return a
		}
		func main() {
			decl r: int
			r = call helper(1, 2)
			assert r > 0, "positive", "p1"
			end
		}
	`)
	require.NoError(t, err)

	fns, err := Build(prog)
	require.NoError(t, err)

	helper := fns["helper"]
	require.Len(t, helper.Params, 1)
	assert.Equal(t, "a", helper.Params[0].Name)
	require.Len(t, helper.Body, 1)
	assert.Equal(t, expr.Return, helper.Body[0].Kind)
	assert.Equal(t, "a", helper.Body[0].Rhs.Name)

	main := fns["main"]
	call := main.Body[1]
	assert.Equal(t, expr.FunctionCall, call.Kind)
	assert.Equal(t, "helper", call.Callee)
	require.Len(t, call.Args, 2)
	assert.Equal(t, "r", call.Lhs.Name)

	assertStmt := main.Body[2]
	assert.Equal(t, expr.Assert, assertStmt.Kind)
	assert.Equal(t, "positive", assertStmt.Msg)
	assert.Equal(t, "p1", assertStmt.PropertyID)
}

func TestLoaderResolvesById(t *testing.T) {
	load, err := Loader(`
		func a() { end }
		func b() { end }
	`)
	require.NoError(t, err)

	fn, ok := load("a")
	assert.True(t, ok)
	assert.Equal(t, "a", fn.ID)

	_, ok = load("missing")
	assert.False(t, ok)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse(`func main() { x = }`)
	assert.Error(t, err)
}
