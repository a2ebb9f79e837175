//go:build rp2040

package pio

import (
	"errors"

	"scopeblock/critical"
	"scopeblock/scope"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// ErrStateMachineBusy is returned when the requested state machine is
// already claimed.
var ErrStateMachineBusy = errors.New("pio: state machine already claimed")

// Claim takes state machine index of p. The claim mask is shared with
// interrupt handlers, so it is only updated inside atomic blocks. Closing
// the returned guard stops the state machine and releases it unless the
// guard was invalidated.
func Claim(p *rp2pio.PIO, index uint8) (*scope.Cancelable[rp2pio.StateMachine], error) {
	return scope.TryNew(func() (rp2pio.StateMachine, error) {
		sm := p.StateMachine(index)
		claimed := false
		for range critical.Block() {
			claimed = sm.TryClaim()
		}
		if !claimed {
			return sm, ErrStateMachineBusy
		}
		return sm, nil
	}, Release)
}

// Release stops sm, drops anything left in its FIFOs and frees it.
func Release(sm rp2pio.StateMachine) {
	sm.SetEnabled(false)
	sm.ClearFIFOs()
	for range critical.Block() {
		sm.Unclaim()
	}
}
