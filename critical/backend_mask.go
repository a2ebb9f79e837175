//go:build !rtos

package critical

// Token is what Enter hands to Exit: the interrupt state saved on entry.
type Token = State

// Enter fences, then masks interrupts. The result must be passed to Exit.
func Enter() Token {
	fence()
	return disableInterrupts()
}

// Exit restores the interrupt state saved by Enter, then fences.
func Exit(t Token) {
	restoreInterrupts(t)
	fence()
}
