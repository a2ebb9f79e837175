//go:build !tinygo

package critical

import "sync/atomic"

// State is the emulated PRIMASK value saved on entry: 1 when interrupts
// were already masked.
type State uintptr

// primask emulates the interrupt mask of one execution context on regular Go.
var primask atomic.Uintptr

func disableInterrupts() State {
	return State(primask.Swap(1))
}

func restoreInterrupts(state State) {
	primask.Store(uintptr(state))
}

// InterruptsEnabled reports whether the emulated mask lets interrupts through.
func InterruptsEnabled() bool {
	return primask.Load() == 0
}

// SetInterruptsEnabled forces the emulated mask, for tests that need a
// particular starting state.
func SetInterruptsEnabled(enabled bool) {
	if enabled {
		primask.Store(0)
	} else {
		primask.Store(1)
	}
}
