// label.go provides a thread-safe generator of fresh base names for the
// auxiliary symbols the engine mints on the fly: let-lifted instruction
// locals, failed-dereference objects and
// constant-folded string materializations. Adapted from the
// compiler's assembly-label generator, which solved the identical
// "thread-safe monotonic per-kind counter" problem for jump labels.

package util

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kinds of generated auxiliary symbol base names.
const (
	LabelLetAux = iota
	LabelFailedObject
	LabelFoldedString
	labelKindCount
)

// -------------------
// ----- Globals -----
// -------------------

var cll chan string // Label channel; results.
var clr chan int    // Request channel.
var clc chan error  // Close channel.

// labelIndices stores the numerical suffix for generated labels of each kind.
var labelIndices [labelKindCount]int

// labelPrefixes stores the string literal prefixes for labels of each kind.
var labelPrefixes = [labelKindCount]string{
	"let_aux",
	"failed_obj",
	"folded_str",
}

// ---------------------
// ----- Functions -----
// ---------------------

// ListenLabel starts the label generator goroutine. Must be called once
// before NewLabel, and CloseLabel called exactly once when the run that
// started it is finished.
func ListenLabel() {
	cll = make(chan string)
	clr = make(chan int)
	clc = make(chan error)

	go func() {
		defer close(clr)
		defer close(cll)
		defer close(clc)
		for {
			select {
			case <-clc:
				return
			case i := <-clr:
				if i >= 0 && i < len(labelIndices) {
					cll <- fmt.Sprintf("%s_%03d", labelPrefixes[i], labelIndices[i])
					labelIndices[i]++
				} else {
					cll <- "#LABEL-ERROR"
				}
			}
		}
	}()
}

// NewLabel returns a fresh base name of kind typ.
func NewLabel(typ int) string {
	clr <- typ
	return <-cll
}

// LabelPrefix returns the string literal prefix for labels of kind typ,
// without consuming a counter value. Callers that must derive a
// deterministic name (e.g. from hashed content, rather than from a
// monotonic counter) use this to stay consistent with the prefixes
// NewLabel itself produces.
func LabelPrefix(typ int) string {
	if typ < 0 || typ >= len(labelPrefixes) {
		return "#LABEL-ERROR"
	}
	return labelPrefixes[typ]
}

// CloseLabel sends the termination signal to the label generator. Must
// only be called once, after the run that started it has finished.
func CloseLabel() {
	clc <- nil
}
