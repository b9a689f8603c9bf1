package interp

import "symex/src/expr"

// stepStartThread implements StartThread: allocate a new
// thread-local state entering at stmt.Target and report it so the
// controller (package symex) can schedule it as runnable.
func (c *Context) stepStartThread(stmt *expr.Stmt) (*Outcome, error) {
	id := c.State.StartThread(stmt.Target)
	c.State.SetPC(c.State.PC() + 1)
	return &Outcome{Kind: OutcomeThreadStarted, Spawned: id}, nil
}

// stepEndThread implements EndThread: mark the active thread
// terminated; the scheduler is responsible for never switching back to
// it.
func (c *Context) stepEndThread() (*Outcome, error) {
	c.State.EndThread()
	return &Outcome{Kind: OutcomeHalt}, nil
}
