// Package equation implements the target equation: an
// append-only log of SSA steps produced by symbolic execution. It is the
// only artifact this module exports to a downstream decision procedure.
package equation

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"symex/src/expr"
	"symex/src/rename"
)

// StepKind differentiates the variants of StepSSA-step
// enumeration.
type StepKind int

const (
	StepAssignment StepKind = iota
	StepAssume
	StepAssert
	StepGoto
	StepFunctionCallMarker
	StepThreadSpawn
	StepInput
	StepOutput
	StepSharedRead
	StepSharedWrite
	StepAtomicBegin
	StepAtomicEnd
)

// AssignmentKind distinguishes the provenance of an Assignment step, for
// diagnostics. Validate does not consult it.
type AssignmentKind int

const (
	AssignPlain AssignmentKind = iota
	AssignPhi
	AssignDecl
	AssignAux // instruction-local let-lifted auxiliary, killed at end of instruction.
)

// Step is one entry of the target equation. Fields not relevant to Kind
// are left zero, following the same single-shape-per-tree discipline as
// package expr.
type Step struct {
	Kind  StepKind
	Guard *expr.Expr // the guard in force at emission.
	Loc   expr.Source

	Lhs      *expr.Expr // Assignment LHS, always an L2 symbol.
	Rhs      *expr.Expr // Assignment RHS.
	AssignOf AssignmentKind

	Cond       *expr.Expr // Assume/Assert/Goto condition, L2-renamed.
	Msg        string     // Assert message.
	PropertyID string     // Assert property identifier.

	ThreadID int    // ThreadSpawn, SharedRead/Write: the thread this step pertains to.
	Channel  string // Input/Output channel/variable name.
	Value    *expr.Expr
}

// String renders a debug form of the step.
func (s *Step) String() string {
	switch s.Kind {
	case StepAssignment:
		return fmt.Sprintf("[%s] %s := %s", s.Guard, s.Lhs, s.Rhs)
	case StepAssume:
		return fmt.Sprintf("[%s] ASSUME %s", s.Guard, s.Cond)
	case StepAssert:
		return fmt.Sprintf("[%s] ASSERT %s  // %s (%s)", s.Guard, s.Cond, s.Msg, s.PropertyID)
	case StepGoto:
		return fmt.Sprintf("[%s] GOTO %s", s.Guard, s.Cond)
	case StepFunctionCallMarker:
		return fmt.Sprintf("[%s] CALL-MARKER", s.Guard)
	case StepThreadSpawn:
		return fmt.Sprintf("[%s] SPAWN thread=%d", s.Guard, s.ThreadID)
	case StepInput:
		return fmt.Sprintf("[%s] INPUT %s = %s", s.Guard, s.Channel, s.Value)
	case StepOutput:
		return fmt.Sprintf("[%s] OUTPUT %s = %s", s.Guard, s.Channel, s.Value)
	case StepSharedRead:
		return fmt.Sprintf("[%s] SHARED-READ thread=%d %s", s.Guard, s.ThreadID, s.Lhs)
	case StepSharedWrite:
		return fmt.Sprintf("[%s] SHARED-WRITE thread=%d %s", s.Guard, s.ThreadID, s.Lhs)
	case StepAtomicBegin:
		return fmt.Sprintf("[%s] ATOMIC-BEGIN", s.Guard)
	case StepAtomicEnd:
		return fmt.Sprintf("[%s] ATOMIC-END", s.Guard)
	default:
		return "<unknown-step>"
	}
}

// Stats tracks VCC bookkeeping incrementally, so
// GetTotalVccs/GetRemainingVccs don't require a full rescan.
type Stats struct {
	TotalVCCs     int
	RemainingVCCs int // asserts not yet known-discharged; this engine never discharges and Equation has no operation to mark one resolved, so this always equals TotalVCCs.
}

// Equation is the append-only SSA step log. Appends are safe for
// concurrent use from multiple explored paths (path-exploration mode may
// resume several stored states whose emission the caller interleaves),
// guarded by a deadlock-detecting mutex rather than plain sync.Mutex,
// since the path-exploration controller's lock ordering with PathStorage
// is exactly the kind of thing worth catching in development.
type Equation struct {
	mu    deadlock.Mutex
	steps []*Step
	stats Stats
}

// New returns an empty equation.
func New() *Equation {
	return &Equation{}
}

// Append adds step to the end of the equation. No step depends on a
// future step; callers are responsible for only constructing
// steps from data already finalized (e.g. L2-renamed operands).
func (eq *Equation) Append(step *Step) {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	eq.steps = append(eq.steps, step)
	if step.Kind == StepAssert {
		eq.stats.TotalVCCs++
		eq.stats.RemainingVCCs++
	}
}

// Len returns the number of steps currently in the equation.
func (eq *Equation) Len() int {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return len(eq.steps)
}

// Steps returns a snapshot slice of the equation's steps in append order.
// The returned slice must not be mutated.
func (eq *Equation) Steps() []*Step {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	out := make([]*Step, len(eq.steps))
	copy(out, eq.steps)
	return out
}

// Stats returns a snapshot of the VCC bookkeeping, backing // get_total_vccs/get_remaining_vccs.
func (eq *Equation) Stats() Stats {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return eq.stats
}

// Merge appends all of other's steps onto eq, in order. Used by the
// path-exploration controller to fold a resumed path's prefix equation
// into the caller's running equation.
func (eq *Equation) Merge(other *Equation) {
	for _, s := range other.Steps() {
		eq.Append(s)
	}
}

// Validate checks the invariants that are mechanically checkable from
// the step log alone: every guard present, every operand L2-renamed,
// and L2 versions monotonically increasing per base name. Invariants
// tied to the execution state that produced the log (e.g. thread
// interleaving legality) are not checked here or elsewhere. Validate
// never aborts the drive
// loop — it backs the run_validation_checks option: failures are
// returned, not panicked.
func (eq *Equation) Validate(namespace func(l2Name string) bool) []error {
	eq.mu.Lock()
	steps := append([]*Step{}, eq.steps...)
	eq.mu.Unlock()

	var errs []error
	versions := map[string]int{}
	checkRenamed := func(e *expr.Expr, where string) {
		if e == nil {
			return
		}
		e.Walk(func(n *expr.Expr) bool {
			if n.Kind == expr.Symbol && namespace != nil && !namespace(n.Name) {
				errs = append(errs, fmt.Errorf("%s: symbol %q is not L2-renamed", where, n.Name))
			}
			return true
		})
	}

	for i, s := range steps {
		if s.Guard == nil {
			errs = append(errs, fmt.Errorf("step %d: missing guard", i))
		}
		checkRenamed(s.Guard, fmt.Sprintf("step %d guard", i))
		checkRenamed(s.Lhs, fmt.Sprintf("step %d lhs", i))
		checkRenamed(s.Rhs, fmt.Sprintf("step %d rhs", i))
		checkRenamed(s.Cond, fmt.Sprintf("step %d cond", i))

		if s.Kind == StepAssignment && s.Lhs != nil && s.Lhs.Kind == expr.Symbol {
			base, version := rename.SplitL2(s.Lhs.Name)
			if version < versions[base] {
				errs = append(errs, fmt.Errorf("step %d: L2 version of %q decreased (%d after %d)", i, base, version, versions[base]))
			}
			versions[base] = version
		}
	}
	return errs
}
