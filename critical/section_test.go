//go:build !tinygo

package critical

import "testing"

func TestSectionDepth(t *testing.T) {
	SetInterruptsEnabled(true)
	s := NewSection("uart")

	if s.Name() != "uart" {
		t.Errorf("Expected name uart, got %s", s.Name())
	}

	tok := s.Enter()
	if s.Depth() != 1 {
		t.Errorf("Expected depth 1, got %d", s.Depth())
	}
	s.Enter()
	s.Enter()
	if s.Depth() != 3 {
		t.Errorf("Expected depth 3, got %d", s.Depth())
	}

	s.Exit(tok)
	s.Exit(tok)
	if InterruptsEnabled() {
		t.Error("Interrupts enabled while section still held")
	}

	s.Exit(tok)
	if s.Depth() != 0 {
		t.Errorf("Expected depth 0, got %d", s.Depth())
	}
	if !InterruptsEnabled() {
		t.Error("Outermost Exit did not restore interrupts")
	}
}

func TestSectionKeepsPriorMask(t *testing.T) {
	SetInterruptsEnabled(false)
	defer SetInterruptsEnabled(true)

	s := NewSection("spi")
	Run[struct{}](s, func() {
		Run[struct{}](s, func() {})
	})

	if InterruptsEnabled() {
		t.Error("Section enabled interrupts that were masked before it")
	}
}

func TestSectionExitUnheld(t *testing.T) {
	s := NewSection("adc")
	defer func() {
		if recover() == nil {
			t.Error("Expected panic on exit of unheld section")
		}
	}()
	s.Exit(struct{}{})
}

func TestSectionInsideBlock(t *testing.T) {
	SetInterruptsEnabled(true)
	s := NewSection("i2c")

	for range Block() {
		Run[struct{}](s, func() {
			if s.Depth() != 1 {
				t.Errorf("Expected depth 1, got %d", s.Depth())
			}
		})
		if InterruptsEnabled() {
			t.Error("Section exit unmasked interrupts owned by the outer block")
		}
	}

	if !InterruptsEnabled() {
		t.Error("Interrupts not restored")
	}
}
