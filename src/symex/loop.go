package symex

import (
	"fmt"

	"symex/src/equation"
	"symex/src/expr"
	"symex/src/interp"
	"symex/src/state"
)

// applyLoopPolicy handles a branch outcome discovered to be a loop
// back-edge (out.TakenBackwards): bump the per-(head, call-stack)
// iteration counter and, once the configured bound is breached, replace
// the taken successor according to the configured policy. Precedence
// among the three configurable behaviors: unwinding_assertions, if set,
// always wins; otherwise self_loops_to_assumptions wins over
// partial_loops; the bare "otherwise" default (neither flag set)
// behaves identically to self_loops_to_assumptions. Returns the
// (possibly pruned) taken/notTaken successors; a pruned successor is
// nil.
func (d *Driver) applyLoopPolicy(out *interp.Outcome, eq *equation.Equation) (taken, notTaken *state.State) {
	taken, notTaken = out.Taken, out.NotTaken
	if !out.TakenBackwards || taken == nil {
		return taken, notTaken
	}

	headPC := out.TakenPC
	loopHeadID := fmt.Sprintf("loop_head_%d", headPC)
	key := taken.LoopKeyAt(headPC)
	taken.LoopIterations[key]++
	n := taken.LoopIterations[key]
	bound := d.Opt.BoundFor(loopHeadID)

	if bound < 0 || n <= bound {
		return taken, notTaken
	}

	switch {
	case d.Opt.UnwindingAssertions:
		eq.Append(&equation.Step{
			Kind:       equation.StepAssert,
			Guard:      taken.Guard.As(),
			Cond:       expr.False(),
			Msg:        "unwind bound breached at " + loopHeadID,
			PropertyID: "unwind-bound",
		})
		return nil, notTaken

	case d.Opt.PartialLoops && !d.Opt.SelfLoopsToAssumptions:
		return nil, notTaken

	default: // self_loops_to_assumptions, or the bare "otherwise" default.
		eq.Append(&equation.Step{
			Kind:  equation.StepAssume,
			Guard: taken.Guard.As(),
			Cond:  expr.False(),
		})
		taken.Reachable = false
		return nil, notTaken
	}
}
