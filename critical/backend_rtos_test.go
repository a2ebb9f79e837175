//go:build rtos && !tinygo

package critical

import "testing"

// Run with: go test -tags rtos ./critical

func TestBlockTakesKernel(t *testing.T) {
	SetInterruptsEnabled(true)

	if Kernel.Depth() != 0 {
		t.Fatalf("Expected Kernel free before block, depth %d", Kernel.Depth())
	}

	for range Block() {
		if Kernel.Depth() != 1 {
			t.Errorf("Expected depth 1 inside block, got %d", Kernel.Depth())
		}
		if InterruptsEnabled() {
			t.Error("Interrupts enabled inside block")
		}

		for range Block() {
			if Kernel.Depth() != 2 {
				t.Errorf("Expected depth 2 in nested block, got %d", Kernel.Depth())
			}
		}
		if Kernel.Depth() != 1 {
			t.Errorf("Expected depth 1 after nested block, got %d", Kernel.Depth())
		}
	}

	if Kernel.Depth() != 0 {
		t.Errorf("Expected depth 0 after block, got %d", Kernel.Depth())
	}
	if !InterruptsEnabled() {
		t.Error("Interrupts not restored after block")
	}
}

func TestBlockReleasesKernelOnPanic(t *testing.T) {
	SetInterruptsEnabled(true)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected panic to propagate")
			}
		}()
		for range Block() {
			panic("fault")
		}
	}()

	if Kernel.Depth() != 0 {
		t.Errorf("Expected depth 0 after panic, got %d", Kernel.Depth())
	}
	if !InterruptsEnabled() {
		t.Error("Panic left interrupts masked")
	}
}
