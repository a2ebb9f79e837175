// Package critical runs code with interrupts masked.
//
// An atomic block masks interrupts on entry and restores the previous state
// on exit, with a memory fence on both boundaries so nothing inside the
// block is reordered across them:
//
//	for range critical.Block() {
//	    timerList = insert(timerList, t)
//	}
//
// The restore runs however the block is left (fall-through, return, break,
// panic). Blocks nest; each level restores the state it found.
//
// The backend is fixed per build. TinyGo builds use runtime/interrupt,
// builds tagged rtos go through the depth-counting Kernel section, and
// regular Go builds use an emulated interrupt mask so callers can be tested
// on the host. The Kernel backend is tested with go test -tags rtos.
package critical

import "sync/atomic"

// Backend is an enter/exit pair guarding a critical section. Enter returns
// the token that the matching Exit consumes.
type Backend[T any] interface {
	Enter() T
	Exit(T)
}

var fenceWord atomic.Uint32

// fence is a full memory barrier for both the compiler and the CPU.
func fence() {
	fenceWord.Add(0)
}

// Block yields exactly once with the build's critical section held.
func Block() func(yield func() bool) {
	return func(yield func() bool) {
		t := Enter()
		defer Exit(t)
		yield()
	}
}

// Do calls fn with the build's critical section held.
func Do(fn func()) {
	t := Enter()
	defer Exit(t)
	fn()
}

// Run calls fn inside the critical section provided by b.
func Run[T any](b Backend[T], fn func()) {
	fence()
	t := b.Enter()
	defer func() {
		b.Exit(t)
		fence()
	}()
	fn()
}

// Interrupts is the saved-state backend: Enter masks interrupts and
// returns the previous mask, Exit restores it.
var Interrupts InterruptMask

// InterruptMask implements Backend with the build's interrupt primitives.
type InterruptMask struct{}

func (InterruptMask) Enter() State { return disableInterrupts() }

func (InterruptMask) Exit(s State) { restoreInterrupts(s) }
