// Package rename implements the three-tier L0/L1/L2 symbol renaming
// discipline that promotes program symbols into globally
// unique SSA names. Each level is a pure function of (expression, scope)
// that additionally mutates the scope's bookkeeping maps on writes and
// declarations.
package rename

import (
	"fmt"
	"strconv"
	"strings"

	"symex/src/expr"
)

// Scope carries every renaming-relevant map for one thread's current
// frame stack. Execution state (package state) owns one Scope per
// thread and hands it to this package's functions; package rename
// itself holds no global state, keeping every mutable dependency an
// explicit parameter.
type Scope struct {
	ThreadID int

	// Globals lists L0 base names (without thread decoration) that are
	// global: L1 rename is a no-op for them.
	Globals map[string]bool

	// frameCounter is the per-L0-name frame counter bumped on every
	// Decl and on every function-entry parameter rename.
	frameCounter map[string]int

	// currentL1 maps an L0 name to the L1 name currently in scope
	// (the most recently declared frame instance).
	currentL1 map[string]string

	// version maps an L1 name to its current SSA version.
	version map[string]int

	// ConstProp maps an L1 name to a propagated constant value, used
	// when the constant_propagation option is enabled.
	ConstProp map[string]interface{}

	// Declared lists every bare id ever passed to Declare, in declaration
	// order with duplicates. Scope itself never reads this; it exists so
	// callers that need to enumerate "names that might be in scope"
	// (package merge's phi candidate heuristic, via package symex) have
	// something to iterate, since the rest of Scope's bookkeeping is kept
	// opaque by design (see the package doc).
	Declared []string
}

// NewScope returns an empty Scope for the given thread.
func NewScope(threadID int) *Scope {
	return &Scope{
		ThreadID:     threadID,
		Globals:      map[string]bool{},
		frameCounter: map[string]int{},
		currentL1:    map[string]string{},
		version:      map[string]int{},
		ConstProp:    map[string]interface{}{},
	}
}

func (s *Scope) recordDeclared(id string) {
	s.Declared = append(s.Declared, id)
}

// Clone returns a deep copy of s, used by State.Fork when the owning
// execution state forks a path.
func (s *Scope) Clone() *Scope {
	c := &Scope{
		ThreadID:     s.ThreadID,
		Globals:      s.Globals, // shared: global-ness never changes after symbol-table load.
		frameCounter: cloneIntMap(s.frameCounter),
		currentL1:    cloneStrMap(s.currentL1),
		version:      cloneIntMap(s.version),
		ConstProp:    make(map[string]interface{}, len(s.ConstProp)),
		Declared:     append([]string{}, s.Declared...),
	}
	for k, v := range s.ConstProp {
		c.ConstProp[k] = v
	}
	return c
}

func cloneIntMap(m map[string]int) map[string]int {
	c := make(map[string]int, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneStrMap(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// L0 decorates a bare identifier with the scope's thread id. Idempotent: calling
// L0 on an already-decorated name returns it unchanged.
func (s *Scope) L0(id string) string {
	if strings.Contains(id, "!t") {
		return id
	}
	return fmt.Sprintf("%s!t%d", id, s.ThreadID)
}

func l0Base(l0 string) string {
	if i := strings.Index(l0, "!t"); i >= 0 {
		return l0[:i]
	}
	return l0
}

// Declare performs an L1 rename for a fresh local declaration: it bumps
// the frame counter for id and resets the SSA version, so recursive or
// repeated frames produce distinct L1 names. Declaring a global name is
// a documented no-op: the L1 name for a global is always its L0 name
// and its version counter is shared, never reset, across "frames"
// (globals have none).
func (s *Scope) Declare(id string) string {
	s.recordDeclared(id)
	l0 := s.L0(id)
	if s.Globals[l0Base(l0)] {
		s.currentL1[l0] = l0
		return l0
	}
	s.frameCounter[l0]++
	l1 := fmt.Sprintf("%s#%d", l0, s.frameCounter[l0])
	s.currentL1[l0] = l1
	s.version[l1] = 0
	delete(s.ConstProp, l1)
	return l1
}

// EnterFrame re-declares every parameter name on function-entry, so a
// recursive call gets parameters distinct from the caller's.
func (s *Scope) EnterFrame(params []string) map[string]string {
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p] = s.Declare(p)
	}
	return out
}

// CurrentL1 returns the L1 name currently bound to id, declaring it (as a
// global) on first reference if id was never explicitly declared — the
// common case for global variables that have no Decl statement.
func (s *Scope) CurrentL1(id string) string {
	l0 := s.L0(id)
	if l1, ok := s.currentL1[l0]; ok {
		return l1
	}
	// First reference to an undeclared name: treat as global.
	s.Globals[l0Base(l0)] = true
	s.currentL1[l0] = l0
	if _, ok := s.version[l0]; !ok {
		s.version[l0] = 0
	}
	return l0
}

// Kill removes the L1 entry for id, so a later read of
// the same L0 name (e.g. after the frame is re-declared) does not
// accidentally resolve to the dead frame's L1 name.
func (s *Scope) Kill(id string) {
	l0 := s.L0(id)
	delete(s.currentL1, l0)
}

// l2Name renders the L2 (SSA) name for L1 name l1 at version v.
func l2Name(l1 string, v int) string {
	return fmt.Sprintf("%s@%d", l1, v)
}

// SplitL2 parses an L2 name back into its L1 base and version number, used
// by the equation validator to check that L2 versions only ever
// increase. Returns ("", 0) if name is not in L2 form.
func SplitL2(name string) (l1Base string, version int) {
	i := strings.LastIndex(name, "@")
	if i < 0 {
		return "", 0
	}
	v, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return "", 0
	}
	return name[:i], v
}

// BaseID recovers the bare identifier a renamed name (L1 or L2) was built
// from, stripping the "@version" suffix (if any), the "#frameCounter"
// suffix (if any) and the "!tThreadID" decoration — the inverse of
// L0+Declare+WriteL2's successive decorations. Used by the merge
// candidate-id heuristic, which only ever sees already-renamed names
// (guard conjuncts, KilledOnExit ids) and needs the original source-level
// name back to drive Scope.CurrentVersion/FreshVersion.
func BaseID(name string) string {
	if l1, _ := SplitL2(name); l1 != "" {
		name = l1
	}
	if i := strings.LastIndex(name, "#"); i >= 0 {
		name = name[:i]
	}
	return l0Base(name)
}

// ReadL2 renames a read occurrence of id to its current L2 name. If
// constant propagation is enabled and id's L1 name has a propagated
// constant, the constant expression is returned in place of the symbol
// — callers then run simplification/constant folding.
func (s *Scope) ReadL2(id, typ string, constantPropagation bool) *expr.Expr {
	l1 := s.CurrentL1(id)
	if constantPropagation {
		if v, ok := s.ConstProp[l1]; ok {
			return expr.NewConstant(v, typ)
		}
	}
	return expr.NewSymbol(l2Name(l1, s.version[l1]), typ)
}

// WriteL2 increments the SSA version for id's current L1 name and
// returns the new L2 symbol, which becomes the LHS of the emitted
// Assignment step. Writing also invalidates any propagated constant for
// the old version (a later read of the new version has no propagated
// value until the caller explicitly records one via SetConst).
func (s *Scope) WriteL2(id, typ string) *expr.Expr {
	l1 := s.CurrentL1(id)
	s.version[l1]++
	delete(s.ConstProp, l1)
	return expr.NewSymbol(l2Name(l1, s.version[l1]), typ)
}

// CurrentVersion returns the current L2 symbol for id without bumping the
// version — used by the merge/phi algorithm to read each contributor's
// final value for a variable without writing a new version itself.
func (s *Scope) CurrentVersion(id, typ string) *expr.Expr {
	l1 := s.CurrentL1(id)
	return expr.NewSymbol(l2Name(l1, s.version[l1]), typ)
}

// FreshVersion allocates a new SSA version for the L1 name currently
// bound to id without requiring a value yet — used by the phi builder,
// which must name the merged symbol before it can build the RHS
// ite-ladder that defines it.
func (s *Scope) FreshVersion(id, typ string) *expr.Expr {
	return s.WriteL2(id, typ)
}

// SetConst records a propagated constant for id's current L1 name.
func (s *Scope) SetConst(id string, v interface{}) {
	l1 := s.CurrentL1(id)
	s.ConstProp[l1] = v
}

// ClearConst removes any propagated constant for id's current L1 name,
// e.g. because a merge's contributors disagreed.
func (s *Scope) ClearConst(id string) {
	l1 := s.CurrentL1(id)
	delete(s.ConstProp, l1)
}

// Rename descends into e, replacing every Symbol leaf with its L2 name.
// Symbols already in L2 form (containing "@") are left untouched.
func (s *Scope) Rename(e *expr.Expr, constantPropagation bool) *expr.Expr {
	return e.Transform(func(n *expr.Expr) *expr.Expr {
		if n.Kind != expr.Symbol {
			return n
		}
		if strings.Contains(n.Name, "@") {
			return n // already L2-renamed; repeated rename is a no-op.
		}
		return s.ReadL2(n.Name, n.Type, constantPropagation)
	})
}
