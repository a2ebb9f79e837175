//go:build rp2040

package pio

// Hardware-timed step pulse generation on an RP2040 PIO state machine.

import (
	"machine"

	"scopeblock/critical"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO program for step pulse generation
// Command word format:
//
//	Bits 0-15:  pulse count
//	Bits 16-23: delay cycles (inter-pulse spacing)
//	Bit 31:     direction (0=forward, 1=reverse)
func buildStepperProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (pulse count)
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8 (delay cycles)
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1 (direction)
		// step_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

const stepperPIOOrigin = 0 // jump addresses above are absolute

// Stepper drives one stepper from a claimed PIO state machine
type Stepper struct {
	pio       *rp2pio.PIO
	sm        rp2pio.StateMachine
	stepPin   machine.Pin
	dirPin    machine.Pin
	direction bool
	offset    uint8
	claimed   bool
}

// NewStepper returns an unclaimed stepper on pioNum (0 or 1), state
// machine smNum (0-3).
func NewStepper(pioNum, smNum uint8) *Stepper {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &Stepper{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init claims the state machine, loads the program and starts it. If any
// step fails the state machine is released again.
func (s *Stepper) Init(stepPin, dirPin uint8) error {
	s.stepPin = machine.Pin(stepPin)
	s.dirPin = machine.Pin(dirPin)

	claim, err := Claim(s.pio, s.sm.StateMachineIndex())
	if err != nil {
		return err
	}
	defer claim.Close()

	program := buildStepperProgram()
	offset, err := s.pio.AddProgram(program, stepperPIOOrigin)
	if err != nil {
		return err
	}
	s.offset = offset

	s.stepPin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})
	s.dirPin.Configure(machine.PinConfig{Mode: s.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(s.stepPin, 1)
	cfg.SetOutPins(s.dirPin, 1)
	// Shift right, explicit PULL, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(1000, 0)

	// Pin directions must be set after Init.
	s.sm.Init(offset, cfg)
	s.sm.SetPindirsConsecutive(s.stepPin, 1, true)
	s.sm.SetPindirsConsecutive(s.dirPin, 1, true)
	s.sm.SetPinsConsecutive(s.stepPin, 1, false)
	s.sm.SetPinsConsecutive(s.dirPin, 1, false)
	s.sm.SetEnabled(true)

	claim.Invalidate()
	s.claimed = true
	return nil
}

// Close stops the state machine and releases it
func (s *Stepper) Close() {
	if !s.claimed {
		return
	}
	Release(s.sm)
	s.claimed = false
}

// TryQueue pushes a step command if the TX FIFO has room. It is safe to
// call from timer interrupts and the main loop alike.
func (s *Stepper) TryQueue(count uint16, delayCycles uint8, direction bool) bool {
	cmd := uint32(count) | uint32(delayCycles)<<16
	if direction {
		cmd |= 1 << 31
	}

	queued := false
	for range critical.Block() {
		if s.sm.IsTxFIFOFull() {
			break
		}
		s.sm.TxPut(cmd)
		queued = true
	}
	return queued
}

// Step queues a single pulse in the current direction, waiting for FIFO
// space if needed.
func (s *Stepper) Step() {
	for !s.TryQueue(1, 1, s.direction) {
	}
}

// SetDirection sets the direction for the next move
func (s *Stepper) SetDirection(dir bool) {
	s.direction = dir
}

// Stop drops queued commands and restarts the program
func (s *Stepper) Stop() {
	for range critical.Block() {
		s.sm.SetEnabled(false)
		s.sm.ClearFIFOs()
		s.sm.Restart()
		s.sm.SetEnabled(true)
	}
}
