package symex

import (
	"symex/src/equation"
	"symex/src/interp"
)

// runPathExplorationStep implements path-exploration mode for
// one path popped off Storage: drive it forward, and at every branch push
// one successor onto Storage for a later iteration of the driver's work
// queue to pick up while continuing immediately with the other, until this
// particular line of execution halts, breaches max_depth, or both of a
// branch's successors turn out unreachable. There is no automatic forward
// merging in this mode — every successor state explores to
// completion (or further splits) on its own.
func (d *Driver) runPathExplorationStep(ps *PausedState, eq *equation.Equation) (bool, error) {
	st := ps.State
	depth := ps.Depth

	for {
		if !st.Reachable {
			return true, nil
		}
		depth++
		if d.Opt.MaxDepth > 0 && depth > d.Opt.MaxDepth {
			truncate(st, eq)
			return true, nil
		}

		fn, err := d.loadCurrentFunction(st)
		if err != nil {
			return true, err
		}
		before := eq.Len()
		out, err := interp.Step(d.context(fn, st, eq))
		if err != nil {
			return true, err
		}
		d.traceSteps(eq, before)

		switch out.Kind {
		case interp.OutcomeAdvance, interp.OutcomeThreadStarted:
			continue

		case interp.OutcomeHalt:
			st.EndThread()
			if ids := st.RunnableThreads(); len(ids) > 0 {
				st.SwitchThread(ids[0])
				continue
			}
			return true, nil

		case interp.OutcomeBranch:
			taken, notTaken := d.applyLoopPolicy(out, eq)
			if taken != nil {
				taken.SetPC(out.TakenPC)
			}
			if notTaken != nil {
				notTaken.SetPC(out.NotTakenPC)
			}
			switch {
			case taken != nil && taken.Reachable && notTaken != nil && notTaken.Reachable:
				d.Storage.Push(&PausedState{State: notTaken, Depth: depth})
				st = taken
			case taken != nil && taken.Reachable:
				st = taken
			case notTaken != nil && notTaken.Reachable:
				st = notTaken
			default:
				return true, nil
			}
		}
	}
}
