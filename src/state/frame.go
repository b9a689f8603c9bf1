// Package state implements the per-thread execution state: program
// counter, call stack, renaming scope, value-set, guard and the
// bookkeeping the interpreter and merge algorithm need at each step.
// Grounded on util.Stack (linked-list LIFO, mapped onto its
// Push/Pop/Peek discipline to hold a call-stack record) and on
// rename.Scope for the renaming-table snapshot a Frame restores on exit.
package state

import "symex/src/rename"

// Frame is one call-stack entry: created on function
// entry, mutated during body execution, destroyed on EndFunction or
// exception unwinding.
type Frame struct {
	FunctionID string

	// ReturnTarget is where Return's value is assigned (L0 name), "" if
	// the call result is discarded.
	ReturnTarget string
	ReturnType   string

	// ReturnPC is the caller instruction index to resume at after
	// EndFunction pops this frame.
	ReturnPC int

	// KilledOnExit lists the L0 parameter/local names this frame declared
	// and that must be Dead-killed (from the renaming scope) when the
	// frame is popped.
	KilledOnExit []string

	// CatchDepth is the try-catch stack depth in force when this frame
	// was entered. It is recorded only; exception unwinding walks the
	// frames' CatchTargets and does not read it.
	CatchDepth int

	// CatchTargets is this frame's own stack of open try-catch landing
	// pad indices, innermost last.
	CatchTargets []int

	// localCounters holds L1 frame counters for this call. Nothing in
	// this module fills it; Clone copies it when set. Distinct frame
	// instances come from rename.Scope.Declare's counters.
	localCounters map[string]int
}

// NewFrame returns a Frame for a call into fn, returning to pc in the
// caller, assigning its result (if any) to returnTarget.
func NewFrame(fn, returnTarget, returnType string, returnPC, catchDepth int) *Frame {
	return &Frame{
		FunctionID:   fn,
		ReturnTarget: returnTarget,
		ReturnType:   returnType,
		ReturnPC:     returnPC,
		CatchDepth:   catchDepth,
	}
}

// Declare records that id was declared in this frame (for KilledOnExit)
// and performs the L1 declaration against scope, returning the L1 name.
func (f *Frame) Declare(scope *rename.Scope, id string) string {
	f.KilledOnExit = append(f.KilledOnExit, id)
	return scope.Declare(id)
}

// Clone returns an independent copy of f, used when State.Fork deep
// copies the call stack.
func (f *Frame) Clone() *Frame {
	c := *f
	c.KilledOnExit = append([]string{}, f.KilledOnExit...)
	c.CatchTargets = append([]int{}, f.CatchTargets...)
	if f.localCounters != nil {
		c.localCounters = make(map[string]int, len(f.localCounters))
		for k, v := range f.localCounters {
			c.localCounters[k] = v
		}
	}
	return &c
}
