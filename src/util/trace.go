package util

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/segmentio/ksuid"
)

// Trace is the diagnostic step tracer backing the show_symex_steps and
// debug_level options. It is purely observational: nothing it
// prints becomes part of the equation, so disabling it can never change
// engine behavior.
type Trace struct {
	opt Options
	id  ksuid.KSUID // correlates every line this Trace prints to one drive-loop run, for log grepping.
}

// NewTrace returns a Trace configured from opt. A fresh correlation ID is
// minted once per Trace (i.e. once per symex run), not once per line —
// ksuid.New is wall-clock seeded and is deliberately kept off the
// equation-construction path so nothing it does is visible to the
// determinism invariant.
func NewTrace(opt Options) *Trace {
	return &Trace{opt: opt, id: ksuid.New()}
}

// Step prints a single equation-step trace line, colored by step kind,
// when show_symex_steps is enabled.
func (t *Trace) Step(kindLabel, line string) {
	if !t.opt.ShowSymexSteps {
		return
	}
	var c *color.Color
	switch kindLabel {
	case "assert":
		c = color.New(color.FgMagenta)
	case "assume", "goto":
		c = color.New(color.FgYellow)
	case "phi":
		c = color.New(color.FgCyan)
	case "error":
		c = color.New(color.FgRed, color.Bold)
	default:
		c = color.New(color.FgWhite)
	}
	_, _ = c.Fprintf(os.Stderr, "[%s] %s\n", t.id.String()[:8], line)
}

// Debugf prints a formatted diagnostic when the engine's debug_level
// meets or exceeds level.
func (t *Trace) Debugf(level int, format string, args ...interface{}) {
	if t.opt.DebugLevel < level {
		return
	}
	fmt.Fprintf(os.Stderr, "[%s] debug: %s\n", t.id.String()[:8], fmt.Sprintf(format, args...))
}

// Warn prints a yellow warning line unconditionally — used for
// modeling-failure diagnostics a caller chooses to
// surface immediately rather than only collect.
func (t *Trace) Warn(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "[%s] warning: %s\n", t.id.String()[:8], fmt.Sprintf(format, args...))
}
