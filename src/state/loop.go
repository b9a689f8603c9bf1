package state

import "fmt"

// LoopKey identifies a back-edge context: the loop-head program counter
// plus a hash of the call-stack state it was hit in, so the
// same source loop inside two different recursive frames is tracked
// independently.
type LoopKey struct {
	HeadPC        int
	CallStackHash uint64
}

// String renders a debug form of the key.
func (k LoopKey) String() string { return fmt.Sprintf("loop(%d@%x)", k.HeadPC, k.CallStackHash) }

// callStackHash computes a cheap order-sensitive hash of the call stack's
// function identifiers and return PCs, used as the LoopKey context so
// loop_iterations distinguishes recursive invocations of the same loop.
func callStackHash(stack []*Frame) uint64 {
	var h uint64 = 14695981039346656037 // FNV offset basis.
	for _, f := range stack {
		for _, c := range f.FunctionID {
			h ^= uint64(c)
			h *= 1099511628211
		}
		h ^= uint64(f.ReturnPC)
		h *= 1099511628211
	}
	return h
}
