// Package symex implements the path-exploration controller and the
// loop/recursion bound policy: the top-level driver that repeatedly
// calls package interp's Step, decides what to do with a branch's two
// successors, and assembles one target equation. Grounded on the
// shape of a typical compiler driver — a small top-level loop threading
// one mutable context through a sequence of named phases — generalized
// here from "run every compiler pass once" to "run the interpreter
// until the work queue empties".
package symex

import (
	"fmt"

	"github.com/pkg/errors"

	"symex/src/collab"
	"symex/src/equation"
	"symex/src/expr"
	"symex/src/interp"
	"symex/src/rename"
	"symex/src/state"
	"symex/src/util"
)

// Driver holds every collaborator the controller needs across the whole
// run.
type Driver struct {
	EntryPoint string
	Loader     collab.GotoFunctionLoader
	Symbols    collab.SymbolTable
	Simplify   collab.Simplify
	Opt        util.Options
	Trace      *util.Trace
	Fkt        *interp.FktTable
	Storage    collab.PathStorage
}

// PausedState is a path suspended mid-execution: everything needed to continue
// it later, plus the step count already spent against max_depth.
type PausedState struct {
	State *state.State
	Depth int
}

// context builds the interp.Context for one Step call against fn and
// ps's live state, wiring the step's equation appends into eq.
func (d *Driver) context(fn *expr.Function, st *state.State, eq *equation.Equation) *interp.Context {
	return &interp.Context{
		Function: fn,
		State:    st,
		Equation: eq,
		Values:   st.Values,
		Symbols:  d.Symbols,
		Loader:   d.Loader,
		Simplify: d.Simplify,
		Opt:      d.Opt,
		Trace:    d.Trace,
		Fkt:      d.Fkt,
	}
}

// currentFunctionID reports the function body the active thread is
// currently executing: the top call-stack frame's function, or the
// driver's entry point when no call is in progress.
func (d *Driver) currentFunctionID(st *state.State) string {
	stack := st.CallStack()
	if len(stack) == 0 {
		return d.EntryPoint
	}
	return stack[len(stack)-1].FunctionID
}

// loadCurrentFunction resolves the body the active thread is currently
// executing, per currentFunctionID.
func (d *Driver) loadCurrentFunction(st *state.State) (*expr.Function, error) {
	id := d.currentFunctionID(st)
	fn, ok := d.Loader(id)
	if !ok || fn == nil || fn.Body == nil {
		return nil, invariantViolation("cannot resolve function body for %q", id)
	}
	return fn, nil
}

// traceSteps prints every step eq gained since index from through
// d.Trace: a no-op unless step tracing is enabled.
func (d *Driver) traceSteps(eq *equation.Equation, from int) {
	steps := eq.Steps()
	for _, s := range steps[from:] {
		d.Trace.Step(traceLabel(s.Kind), s.String())
	}
}

// traceLabel maps a step kind onto the label Trace.Step colors by.
func traceLabel(k equation.StepKind) string {
	switch k {
	case equation.StepAssert:
		return "assert"
	case equation.StepAssume:
		return "assume"
	case equation.StepGoto:
		return "goto"
	case equation.StepAssignment:
		return "phi"
	default:
		return ""
	}
}

// invariantViolation wraps a fatal invariant-violation error: abort the
// drive loop after logging, never swallowed.
func invariantViolation(format string, args ...interface{}) error {
	return errors.WithStack(fmt.Errorf("invariant violation: "+format, args...))
}

// FromEntryPoint implements symex_from_entry_point: execute the
// whole program from EntryPoint to completion, single-path merging
// forward gotos in the default mode, or draining Storage path by path in
// path-exploration mode, and return the finished equation.
func FromEntryPoint(d *Driver, values collab.ValueSet) (*equation.Equation, error) {
	eq := equation.New()
	initial := &PausedState{State: state.New(values)}

	if !d.Opt.DoingPathExploration {
		if err := d.runSinglePath(initial, eq); err != nil {
			return eq, err
		}
		if d.Opt.RunValidationChecks {
			d.runValidation(eq)
		}
		return eq, nil
	}

	d.Storage.Push(initial)
	for d.Storage.Len() > 0 {
		v, ok := d.Storage.Pop()
		if !ok {
			break
		}
		ps, ok := v.(*PausedState)
		if !ok {
			return eq, invariantViolation("path storage returned a value of unexpected type %T", v)
		}
		if _, err := Resume(d, ps, eq); err != nil {
			return eq, err
		}
	}
	if d.Opt.RunValidationChecks {
		d.runValidation(eq)
	}
	return eq, nil
}

// runValidation implements run_validation_checks normalization: log
// failures, never abort. namespace asks whether id is shaped like an
// L2 name (base@version), not whether it is a declared symbol —
// d.Symbols only ever holds bare declared identifiers, which are never
// what Validate's operand check is looking for.
func (d *Driver) runValidation(eq *equation.Equation) {
	namespace := func(id string) bool {
		base, _ := rename.SplitL2(id)
		return base != ""
	}
	for _, verr := range eq.Validate(namespace) {
		d.Trace.Debugf(1, "validation: %v", verr)
	}
}

// InitializeFromEntryPoint implements initialize_from_entry_point:
// build the initial paused state for stepwise resumption without running
// anything yet.
func InitializeFromEntryPoint(values collab.ValueSet) *PausedState {
	return &PausedState{State: state.New(values)}
}

// Resume implements resume: continue a single paused path,
// appending to eq, until it halts or breaches max_depth. It does not
// stop at branch points: in path-exploration mode each branch pushes one
// successor onto Storage and the path continues with the other, so the
// returned done is always true.
func Resume(d *Driver, ps *PausedState, eq *equation.Equation) (done bool, err error) {
	if d.Opt.DoingPathExploration {
		return d.runPathExplorationStep(ps, eq)
	}
	return true, d.runSinglePath(ps, eq)
}
