//go:build rtos

package critical

// Token carries nothing in rtos builds; Kernel tracks the nesting.
type Token = struct{}

// Enter fences, then takes the Kernel section.
func Enter() Token {
	fence()
	return Kernel.Enter()
}

// Exit leaves the Kernel section, then fences.
func Exit(t Token) {
	Kernel.Exit(t)
	fence()
}
