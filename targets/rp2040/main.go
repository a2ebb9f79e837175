//go:build rp2040

package main

import (
	"machine"
	"time"

	"scopeblock/core"
	"scopeblock/protocol"
	"scopeblock/targets/pio"
)

// Command bytes carried as the first payload byte
const (
	cmdEcho       = 0x00
	cmdQueueSteps = 0x01
	cmdDumpTiming = 0x02
	cmdStop       = 0x03
)

const (
	stepPin = 2
	dirPin  = 3
)

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	stepper      *pio.Stepper

	msgerrors uint32
	led       = machine.LED
)

func main() {
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	// Debug text goes out on UART0; USB CDC carries frames only
	machine.UART0.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	core.SetDebugWriter(func(s string) {
		machine.UART0.Write([]byte(s + "\r\n"))
	})
	core.SetDebugEnabled(true)
	core.InitAsyncDebug()

	stepper = pio.NewStepper(0, 0)
	if err := stepper.Init(stepPin, dirPin); err != nil {
		core.DebugAsync("stepper init failed: " + err.Error())
		stepper = nil
	}

	UpdateSystemTime()
	heartbeat := &core.Timer{
		WakeTime: core.GetTime() + core.TimerFromUS(500000),
		Handler: func(t *core.Timer) uint8 {
			led.Set(!led.Get())
			t.WakeTime += core.TimerFromUS(500000)
			return core.SF_RESCHEDULE
		},
	}
	core.ScheduleTimer(heartbeat)

	go usbReaderLoop()

	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			UpdateSystemTime()
			receive()

			flushOutput()

			core.ProcessTimers()
		}()

		time.Sleep(10 * time.Microsecond)
	}
}

// usbReaderLoop moves bytes from USB CDC into the input FIFO
func usbReaderLoop() {
	buf := make([]byte, 64)
	for {
		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				msgerrors++
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 && inputBuffer.Write(buf[:n]) < n {
			msgerrors++ // FIFO overrun, the host will retransmit
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// receive decodes every complete frame waiting in the input FIFO
func receive() {
	if bad := protocol.ReceiveFrames(inputBuffer, handle); bad > 0 {
		msgerrors += uint32(bad)
		core.DebugAsync("dropped " + core.Itoa(bad) + " bad frames")
	}
}

// flushOutput sends whatever replies are queued in the scratch buffer
func flushOutput() {
	if result := outputBuffer.Result(); len(result) > 0 {
		machine.Serial.Write(result)
		outputBuffer.Reset()
	}
}

func handle(seq uint8, payload []byte) {
	if len(payload) == 0 {
		return
	}

	var reply []byte
	switch payload[0] {
	case cmdEcho:
		reply = payload
	case cmdQueueSteps:
		reply = []byte{cmdQueueSteps, queueSteps(payload[1:])}
	case cmdDumpTiming:
		dumpTiming(seq)
		return
	case cmdStop:
		if stepper != nil {
			stepper.Stop()
		}
		reply = []byte{cmdStop}
	default:
		reply = []byte{0xFF, payload[0]}
	}

	if outputBuffer.CurPosition()+protocol.MessageLengthMax > protocol.MessageMax {
		flushOutput()
	}
	if err := protocol.EncodeFrame(outputBuffer, seq, func(o protocol.OutputBuffer) error {
		o.Output(reply)
		return nil
	}); err != nil {
		msgerrors++
	}
}

// timingEventsPerFrame is how many encoded events fit after the command byte
const timingEventsPerFrame = (protocol.MessageLengthMax - protocol.MessageMin - 1) / core.TimingEventSize

// dumpTiming sends the timing ring as frames of encoded events, each
// starting with cmdDumpTiming, then a bare cmdDumpTiming frame to end it.
// The text form goes to the debug UART.
func dumpTiming(seq uint8) {
	core.DumpTimingRing()

	err := core.DumpTimingChunks(timingEventsPerFrame, func(chunk []byte) error {
		flushOutput()
		return protocol.EncodeFrame(outputBuffer, seq, func(o protocol.OutputBuffer) error {
			o.Output([]byte{cmdDumpTiming})
			o.Output(chunk)
			return nil
		})
	})
	if err == nil {
		err = protocol.EncodeFrame(outputBuffer, seq, func(o protocol.OutputBuffer) error {
			o.Output([]byte{cmdDumpTiming})
			return nil
		})
	}
	if err != nil {
		msgerrors++
		core.DebugAsync("timing dump failed: " + err.Error())
	}
}

// queueSteps takes count(2, big-endian), delay(1), dir(1) and reports 1 on success
func queueSteps(args []byte) byte {
	if stepper == nil || len(args) < 4 {
		return 0
	}
	count := uint16(args[0])<<8 | uint16(args[1])
	if !stepper.TryQueue(count, args[2], args[3] != 0) {
		core.RecordTiming(core.EvtQueueFull, 0, core.GetTime(), uint32(count), 0)
		return 0
	}
	core.RecordTiming(core.EvtQueueStep, 0, core.GetTime(), uint32(count), uint32(args[2]))
	return 1
}
