package symex

import (
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/interp"
	"symex/src/merge"
	"symex/src/rename"
	"symex/src/state"
)

// pathItem is one not-yet-finished line of execution in single-path mode:
// a state paused at its next instruction, plus the renaming scope it
// diverged from at its most recent unmerged branch (nil once it has been
// produced by a merge itself, until the next branch gives it a fresh
// ancestor). previous is exactly the tie-breaker scope merge.BuildPhis
// needs: the scope in force immediately before the fork that produced
// this item.
type pathItem struct {
	st       *state.State
	previous *rename.Scope
}

// joinKey identifies a point two pathItems can be merged at: the same
// function, the same program counter, and the same call-stack shape (so a
// recursive call's inner iteration never merges with its own caller's
// frame). CallStackHash is borrowed from state.LoopKeyAt, whose hash
// component does not depend on the head pc argument.
type joinKey struct {
	fn   string
	pc   int
	hash uint64
}

func (d *Driver) joinKeyFor(st *state.State) joinKey {
	return joinKey{fn: d.currentFunctionID(st), pc: st.PC(), hash: st.LoopKeyAt(0).CallStackHash}
}

// runSinglePath drives ps to completion in default mode, automatically
// merging any contributors that reach the same point via different
// forward gotos before either of them is allowed to execute past it.
// Loop back-edges are bound per applyLoopPolicy; threads cooperate
// non-preemptively, switching only when the active one halts or ends.
func (d *Driver) runSinglePath(ps *PausedState, eq *equation.Equation) error {
	pending := []*pathItem{{st: ps.State}}
	depth := ps.Depth

	for len(pending) > 0 {
		pending = d.mergeReady(pending, eq)
		if len(pending) == 0 {
			break
		}

		i := pickNext(pending)
		item := pending[i]
		pending = append(pending[:i], pending[i+1:]...)

		if !item.st.Reachable {
			continue
		}

		depth++
		if d.Opt.MaxDepth > 0 && depth > d.Opt.MaxDepth {
			truncate(item.st, eq)
			continue
		}

		fn, err := d.loadCurrentFunction(item.st)
		if err != nil {
			return err
		}
		before := eq.Len()
		out, err := interp.Step(d.context(fn, item.st, eq))
		if err != nil {
			return err
		}
		d.traceSteps(eq, before)

		switch out.Kind {
		case interp.OutcomeAdvance, interp.OutcomeThreadStarted:
			pending = append(pending, item)

		case interp.OutcomeHalt:
			item.st.EndThread()
			if ids := item.st.RunnableThreads(); len(ids) > 0 {
				item.st.SwitchThread(ids[0])
				pending = append(pending, item)
			}
			// Otherwise this line of execution is finished; drop it.

		case interp.OutcomeBranch:
			ancestor := item.st.Scope()
			taken, notTaken := d.applyLoopPolicy(out, eq)
			if taken != nil {
				taken.SetPC(out.TakenPC)
				if taken.Reachable {
					pending = append(pending, &pathItem{st: taken, previous: ancestor})
				}
			}
			if notTaken != nil {
				notTaken.SetPC(out.NotTakenPC)
				if notTaken.Reachable {
					pending = append(pending, &pathItem{st: notTaken, previous: ancestor})
				}
			}
		}
	}
	return nil
}

// truncate implements max_depth discard: emit Assume(false) over the
// truncated state's guard and mark it unreachable, rather than silently
// dropping it.
func truncate(st *state.State, eq *equation.Equation) {
	eq.Append(&equation.Step{Kind: equation.StepAssume, Guard: st.Guard.As(), Cond: expr.False()})
	st.Reachable = false
}

// pickNext chooses the frontier item to step next: the shallowest call
// stack, then the smallest program counter, ties broken by position. This
// keeps contributors converging toward shared join points instead of one
// racing arbitrarily far ahead of its sibling.
func pickNext(pending []*pathItem) int {
	best := 0
	for i := 1; i < len(pending); i++ {
		a, b := pending[i].st, pending[best].st
		if len(a.CallStack()) != len(b.CallStack()) {
			if len(a.CallStack()) < len(b.CallStack()) {
				best = i
			}
			continue
		}
		if a.PC() < b.PC() {
			best = i
		}
	}
	return best
}

// mergeReady repeatedly folds together any frontier items that share a
// joinKey, until no two remaining items are at the same
// point. Items with no surviving partner (the common case for an
// unconditional goto, or a branch whose other side was pruned by loop
// policy) pass through untouched.
func (d *Driver) mergeReady(pending []*pathItem, eq *equation.Equation) []*pathItem {
	for {
		groups := map[joinKey][]int{}
		for i, it := range pending {
			k := d.joinKeyFor(it.st)
			groups[k] = append(groups[k], i)
		}

		var mergeIdx []int
		for _, idxs := range groups {
			if len(idxs) > 1 {
				mergeIdx = idxs
				break
			}
		}
		if mergeIdx == nil {
			return pending
		}

		group := make([]*pathItem, len(mergeIdx))
		for j, idx := range mergeIdx {
			group[j] = pending[idx]
		}
		merged := d.mergeGroup(group, eq)

		next := make([]*pathItem, 0, len(pending)-len(mergeIdx)+1)
		inGroup := map[int]bool{}
		for _, idx := range mergeIdx {
			inGroup[idx] = true
		}
		for i, it := range pending {
			if !inGroup[i] {
				next = append(next, it)
			}
		}
		next = append(next, merged)
		pending = next
	}
}

// mergeGroup folds group's states into one: disjoin guards,
// pointwise-merge value-sets, build the phi ladder for every candidate
// id the contributors might disagree on, fold constant propagation, and
// take the per-loop-head iteration max.
func (d *Driver) mergeGroup(group []*pathItem, eq *equation.Equation) *pathItem {
	previous := group[0].previous
	if previous == nil {
		previous = group[0].st.Scope()
	}
	mergedScope := previous.Clone()

	contributors := make([]merge.Contributor, len(group))
	loopIters := make([]map[state.LoopKey]int, len(group))
	for i, it := range group {
		contributors[i] = merge.Contributor{Guard: it.st.Guard, Scope: it.st.Scope(), Values: it.st.Values}
		loopIters[i] = it.st.LoopIterations
	}

	mergedGuard, mergedValues := merge.JoinGuardsAndValues(contributors)
	candidates := d.mergeCandidates(contributors, group[0].st)
	phis := merge.BuildPhis(contributors, previous, mergedScope, candidates)
	before := eq.Len()
	for _, phi := range phis {
		eq.Append(&equation.Step{
			Kind: equation.StepAssignment, Guard: mergedGuard.As(),
			Lhs: phi.Lhs, Rhs: phi.Rhs, AssignOf: equation.AssignPhi,
		})
		if mergedValues != nil {
			mergedValues.Assign(phi.Lhs, phi.Rhs)
		}
	}
	d.traceSteps(eq, before)
	merge.MergeConstProp(contributors, previous, mergedScope)

	out := group[0].st
	out.Guard = mergedGuard
	out.Values = mergedValues
	out.SetScope(mergedScope)
	out.LoopIterations = merge.MergeLoopIterations(loopIters)
	reachable := false
	for _, it := range group {
		reachable = reachable || it.st.Reachable
	}
	out.Reachable = reachable
	return &pathItem{st: out}
}

// mergeCandidates approximates the set of L0 ids the contributors might
// disagree on (package merge cannot enumerate a Scope's bindings itself):
// the union of every id any contributor's scope ever declared, every id
// the active call frame will kill on exit, and every free symbol's base
// id appearing in a contributor's guard (covers names read, but never
// themselves declared, in the current frame — e.g. a global). Ids package
// symex's symbol table cannot type are skipped, which only risks
// under-merging a name nothing in scope actually knows about.
func (d *Driver) mergeCandidates(contributors []merge.Contributor, st *state.State) map[string]string {
	out := map[string]string{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := out[id]; ok {
			return
		}
		sym, ok := d.Symbols.Lookup(id)
		if !ok {
			return
		}
		out[id] = sym.Type
	}

	for _, c := range contributors {
		for _, id := range c.Scope.Declared {
			add(id)
		}
		for _, conj := range c.Guard.Conjuncts() {
			for name := range conj.FreeSymbols() {
				add(rename.BaseID(name))
			}
		}
	}
	if stack := st.CallStack(); len(stack) > 0 {
		top := stack[len(stack)-1]
		for _, id := range top.KilledOnExit {
			add(id)
		}
	}
	return out
}
