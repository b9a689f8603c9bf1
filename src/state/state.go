package state

import (
	"symex/src/collab"
	"symex/src/expr"
	"symex/src/guard"
	"symex/src/rename"
)

// ThreadState is one program thread's private execution context: its
// own program counter, renaming scope and call stack. Threads share the
// owning State's guard, value-set and loop/recursion counters — the
// single-active-thread-at-a-time cooperative model means only the
// active thread's fields change between interleaving points.
type ThreadState struct {
	ID         int
	PC         int
	Scope      *rename.Scope
	CallStack  []*Frame
	Terminated bool
}

func newThreadState(id int) *ThreadState {
	return &ThreadState{ID: id, Scope: rename.NewScope(id)}
}

func (t *ThreadState) clone() *ThreadState {
	stack := make([]*Frame, len(t.CallStack))
	for i, f := range t.CallStack {
		stack[i] = f.Clone()
	}
	return &ThreadState{
		ID:         t.ID,
		PC:         t.PC,
		Scope:      t.Scope.Clone(),
		CallStack:  stack,
		Terminated: t.Terminated,
	}
}

// State is the per-path execution state: the mutable carrier threaded
// through renaming, the interpreter, guard updates and merges. A single
// State may represent several program threads, but only the active one
// is advanced by the interpreter between interleaving points.
type State struct {
	Guard   *guard.Guard
	Values  collab.ValueSet
	Source  expr.Source

	// Reachable becomes false the moment the guard is discovered
	// unsatisfiable by construction.
	Reachable bool

	// AtomicSection counts nested AtomicBegin/AtomicEnd; >0 suppresses
	// thread-interleaving points.
	AtomicSection int

	// LoopIterations tracks back-edge counts per (loop head, call-stack
	// context).
	LoopIterations map[LoopKey]int

	// RecursionDepth tracks call-entry counts for the recursion-bound
	// policy, keyed by function id only: all threads share one count per
	// function.
	RecursionDepth map[string]int

	threads      []*ThreadState
	activeThread int
}

// New returns the initial state for a single-threaded run starting at
// program counter 0 with an empty (true) guard, reachable by
// construction.
func New(values collab.ValueSet) *State {
	s := &State{
		Guard:          guard.True(),
		Values:         values,
		Reachable:      true,
		LoopIterations: map[LoopKey]int{},
		RecursionDepth: map[string]int{},
		threads:        []*ThreadState{newThreadState(0)},
	}
	return s
}

// PC returns the active thread's program counter.
func (s *State) PC() int { return s.threads[s.activeThread].PC }

// SetPC sets the active thread's program counter.
func (s *State) SetPC(pc int) { s.threads[s.activeThread].PC = pc }

// Scope returns the active thread's renaming scope.
func (s *State) Scope() *rename.Scope { return s.threads[s.activeThread].Scope }

// SetScope replaces the active thread's renaming scope, used by the merge
// algorithm (package merge via package symex) to install the merged scope
// it built from several contributors' diverging scopes.
func (s *State) SetScope(sc *rename.Scope) { s.threads[s.activeThread].Scope = sc }

// CallStack returns the active thread's call stack.
func (s *State) CallStack() []*Frame { return s.threads[s.activeThread].CallStack }

// PushFrame pushes f onto the active thread's call stack.
func (s *State) PushFrame(f *Frame) {
	t := s.threads[s.activeThread]
	t.CallStack = append(t.CallStack, f)
}

// PopFrame pops and returns the active thread's top frame, or nil if the
// call stack is empty.
func (s *State) PopFrame() *Frame {
	t := s.threads[s.activeThread]
	n := len(t.CallStack)
	if n == 0 {
		return nil
	}
	f := t.CallStack[n-1]
	t.CallStack = t.CallStack[:n-1]
	return f
}

// ActiveThreadID returns the id of the currently active thread.
func (s *State) ActiveThreadID() int { return s.threads[s.activeThread].ID }

// ThreadCount returns the number of threads tracked by s, including
// terminated ones.
func (s *State) ThreadCount() int { return len(s.threads) }

// StartThread allocates a new thread-local state entering at pc, sharing
// s's guard/value-set/loop counters, and returns its id.
func (s *State) StartThread(pc int) int {
	id := len(s.threads)
	t := newThreadState(id)
	t.PC = pc
	s.threads = append(s.threads, t)
	return id
}

// EndThread marks the active thread terminated; the scheduler driving
// path exploration is responsible for skipping it.
func (s *State) EndThread() {
	s.threads[s.activeThread].Terminated = true
}

// SwitchThread saves nothing explicitly (each ThreadState already owns
// its pc/scope/call-stack) and makes the thread with the given id
// active. Reports false if id names a terminated or unknown thread.
func (s *State) SwitchThread(id int) bool {
	for i, t := range s.threads {
		if t.ID == id {
			if t.Terminated {
				return false
			}
			s.activeThread = i
			return true
		}
	}
	return false
}

// RunnableThreads returns the ids of threads not yet terminated, in
// creation order, for the scheduler to pick among at an interleaving
// point.
func (s *State) RunnableThreads() []int {
	var out []int
	for _, t := range s.threads {
		if !t.Terminated {
			out = append(out, t.ID)
		}
	}
	return out
}

// LoopKeyAt builds the LoopKey for a back-edge hit at headPC in the
// active thread's current call-stack context.
func (s *State) LoopKeyAt(headPC int) LoopKey {
	return LoopKey{HeadPC: headPC, CallStackHash: callStackHash(s.CallStack())}
}

// Fork returns a deep copy of s for path exploration: independent
// guard, value-set, renaming scopes and call stacks, so
// mutating one copy never affects the other. Value-sets are cloned via
// ApplyCondition(nil), the convention every collab.ValueSet
// implementation in this module follows for "refine under no additional
// information".
func (s *State) Fork() *State {
	threads := make([]*ThreadState, len(s.threads))
	for i, t := range s.threads {
		threads[i] = t.clone()
	}
	loopIters := make(map[LoopKey]int, len(s.LoopIterations))
	for k, v := range s.LoopIterations {
		loopIters[k] = v
	}
	recursion := make(map[string]int, len(s.RecursionDepth))
	for k, v := range s.RecursionDepth {
		recursion[k] = v
	}
	var values collab.ValueSet
	if s.Values != nil {
		values = s.Values.ApplyCondition(nil)
	}
	return &State{
		Guard:          s.Guard.Clone(),
		Values:         values,
		Source:         s.Source,
		Reachable:      s.Reachable,
		AtomicSection:  s.AtomicSection,
		LoopIterations: loopIters,
		RecursionDepth: recursion,
		threads:        threads,
		activeThread:   s.activeThread,
	}
}

// ApplyCondition implements apply_condition's value-set half: it splits
// s into a taken and not-taken copy under cond (already clean,
// L2-renamed), sharpening each copy's value-set.
// No constant-propagation binding is recorded for either copy, here or
// by the interpreter's branch handling: this method only ever sees the
// renamed form of cond, which has already lost the L1 identity
// Scope.SetConst needs.
func (s *State) ApplyCondition(cond *expr.Expr) (taken, notTaken *State) {
	taken, notTaken = s.Fork(), s.Fork()
	taken.Guard = taken.Guard.Add(cond)
	notTaken.Guard = notTaken.Guard.Add(negate(cond))

	if s.Values != nil {
		tFiltered, ntFiltered := s.Values.Filter(cond)
		taken.Values = s.Values.ApplyCondition(cond).Merge(tFiltered)
		notTaken.Values = s.Values.ApplyCondition(negate(cond)).Merge(ntFiltered)
	}

	taken.Reachable = taken.Reachable && !taken.Guard.Unreachable()
	notTaken.Reachable = notTaken.Reachable && !notTaken.Guard.Unreachable()
	return taken, notTaken
}

func negate(cond *expr.Expr) *expr.Expr {
	if cond.IsTrue() {
		return expr.False()
	}
	if cond.IsFalse() {
		return expr.True()
	}
	return expr.NewUnary("!", "bool", cond)
}
