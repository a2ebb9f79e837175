//go:build !tinygo

package critical

import "testing"

func TestBlockMasksAndRestores(t *testing.T) {
	SetInterruptsEnabled(true)

	iterations := 0
	for range Block() {
		iterations++
		if InterruptsEnabled() {
			t.Error("Interrupts enabled inside atomic block")
		}
	}

	if iterations != 1 {
		t.Errorf("Expected one iteration, got %d", iterations)
	}
	if !InterruptsEnabled() {
		t.Error("Interrupts not restored after atomic block")
	}
}

func TestBlockKeepsMaskedState(t *testing.T) {
	SetInterruptsEnabled(false)
	defer SetInterruptsEnabled(true)

	for range Block() {
	}

	if InterruptsEnabled() {
		t.Error("Block enabled interrupts that were masked before it")
	}
}

func TestNestedBlocks(t *testing.T) {
	SetInterruptsEnabled(true)

	var inside []bool
	for range Block() {
		for range Block() {
			inside = append(inside, InterruptsEnabled())
		}
		// Inner exit restores the masked state it found.
		inside = append(inside, InterruptsEnabled())
	}

	for i, enabled := range inside {
		if enabled {
			t.Errorf("Check %d: interrupts enabled inside outer block", i)
		}
	}
	if !InterruptsEnabled() {
		t.Error("Outer exit did not restore enabled state")
	}
}

func TestDeepNesting(t *testing.T) {
	for _, depth := range []int{1, 2, 5, 16} {
		SetInterruptsEnabled(true)

		var nest func(n int)
		nest = func(n int) {
			if n == 0 {
				return
			}
			Do(func() {
				if InterruptsEnabled() {
					t.Errorf("depth %d: interrupts enabled at level %d", depth, n)
				}
				nest(n - 1)
			})
		}
		nest(depth)

		if !InterruptsEnabled() {
			t.Errorf("depth %d: interrupts not restored", depth)
		}
	}
}

func blockReturnEarly(stop int) int {
	for range Block() {
		for i := 0; ; i++ {
			if i == stop {
				return i
			}
		}
	}
	return -1
}

func TestBlockEarlyExit(t *testing.T) {
	SetInterruptsEnabled(true)

	if got := blockReturnEarly(3); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
	if !InterruptsEnabled() {
		t.Error("Return from block left interrupts masked")
	}

	for range Block() {
		break
	}
	if !InterruptsEnabled() {
		t.Error("Break from block left interrupts masked")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic to propagate")
			}
		}()
		for range Block() {
			panic("fault inside critical section")
		}
	}()
	if !InterruptsEnabled() {
		t.Error("Panic through block left interrupts masked")
	}
}

func TestEnterExit(t *testing.T) {
	SetInterruptsEnabled(true)

	outer := Enter()
	inner := Enter()
	if InterruptsEnabled() {
		t.Error("Interrupts enabled after Enter")
	}
	Exit(inner)
	if InterruptsEnabled() {
		t.Error("Inner Exit enabled interrupts")
	}
	Exit(outer)
	if !InterruptsEnabled() {
		t.Error("Outer Exit did not enable interrupts")
	}
}

// traceBackend records enter/exit order for nesting checks.
type traceBackend struct {
	next  int
	trace []int
}

func (b *traceBackend) Enter() int {
	b.next++
	b.trace = append(b.trace, b.next)
	return b.next
}

func (b *traceBackend) Exit(id int) {
	b.trace = append(b.trace, -id)
}

func TestRunLIFO(t *testing.T) {
	b := &traceBackend{}

	Run[int](b, func() {
		Run[int](b, func() {
			Run[int](b, func() {})
		})
	})

	want := []int{1, 2, 3, -3, -2, -1}
	if len(b.trace) != len(want) {
		t.Fatalf("Expected trace %v, got %v", want, b.trace)
	}
	for i := range want {
		if b.trace[i] != want[i] {
			t.Fatalf("Expected trace %v, got %v", want, b.trace)
		}
	}
}

func TestRunInterrupts(t *testing.T) {
	SetInterruptsEnabled(true)

	Run[State](Interrupts, func() {
		if InterruptsEnabled() {
			t.Error("Interrupts enabled inside Run")
		}
	})
	if !InterruptsEnabled() {
		t.Error("Run did not restore interrupts")
	}
}
