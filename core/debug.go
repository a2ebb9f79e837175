package core

import (
	"scopeblock/critical"
	"scopeblock/scope"
)

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a timing-critical event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	OID       uint8  // Object ID (stepper, etc.)
	Clock     uint32 // System clock at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTimerSchedule = 1 // Timer scheduled
	EvtTimerFire     = 2 // Timer handler ran
	EvtTimerPast     = 3 // Timer scheduled in the past
	EvtQueueStep     = 4 // Step command queued to hardware
	EvtQueueFull     = 5 // Step command dropped, queue full
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool

	// Timing capture ring buffer, written from interrupt and thread context
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  = true

	// Async debug output channel and the worker's exit signal
	debugChan chan string
	debugDone chan struct{}
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// WithDebugEnabled runs fn with debug output switched on or off and puts
// the previous setting back afterwards. Benchmarks use it to silence output
// around timing measurements.
func WithDebugEnabled(enabled bool, fn func()) {
	scope.With(func() bool {
		prev := debugEnabled
		debugEnabled = enabled
		return prev
	}, SetDebugEnabled, func(*scope.Cancelable[bool]) {
		fn()
	})
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	debugDone = make(chan struct{})
	go debugOutputWorker(debugChan, debugDone)
}

// StopAsyncDebug closes the queue and waits for the worker to write what
// was already queued. DebugAsync drops messages afterwards.
func StopAsyncDebug() {
	if debugChan == nil {
		return
	}
	close(debugChan)
	<-debugDone
	debugChan = nil
}

func debugOutputWorker(msgs <-chan string, done chan<- struct{}) {
	defer close(done)
	for msg := range msgs {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output.
// Drops the message if the channel is full.
func DebugAsync(msg string) {
	if debugChan != nil {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordTiming captures a timing event in the ring buffer
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	for range critical.Block() {
		idx := timingRingHead
		timingRing[idx] = TimingEvent{
			EventType: eventType,
			OID:       oid,
			Clock:     clock,
			Value1:    value1,
			Value2:    value2,
		}
		timingRingHead = (idx + 1) % TimingRingSize
	}
}

// TimingSnapshot copies the ring oldest first, skipping empty slots
func TimingSnapshot() []TimingEvent {
	var ring [TimingRingSize]TimingEvent
	var head uint8
	for range critical.Block() {
		ring = timingRing
		head = timingRingHead
	}

	events := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := ring[(head+i)%TimingRingSize]
		if evt.EventType != 0 {
			events = append(events, evt)
		}
	}
	return events
}

// TimingEventSize is the encoded length of one TimingEvent
const TimingEventSize = 14

// AppendBinary appends the event as type, oid, then clock, value1 and
// value2 as big-endian 32-bit words.
func (e TimingEvent) AppendBinary(b []byte) ([]byte, error) {
	b = append(b, e.EventType, e.OID)
	for _, v := range [...]uint32{e.Clock, e.Value1, e.Value2} {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return b, nil
}

// DumpTimingChunks passes the ring, oldest first, to emit as encoded events
// with at most perChunk events per call. It stops at the first error.
func DumpTimingChunks(perChunk int, emit func(chunk []byte) error) error {
	if perChunk < 1 {
		perChunk = 1
	}
	events := TimingSnapshot()
	chunk := make([]byte, 0, perChunk*TimingEventSize)
	for i, evt := range events {
		chunk, _ = evt.AppendBinary(chunk)
		if (i+1)%perChunk == 0 || i == len(events)-1 {
			if err := emit(chunk); err != nil {
				return err
			}
			chunk = chunk[:0]
		}
	}
	return nil
}

// DumpTimingRing outputs the timing ring buffer (call on shutdown/error)
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingSnapshot() {
		var name string
		switch evt.EventType {
		case EvtTimerSchedule:
			name = "TIMER_SCHED"
		case EvtTimerFire:
			name = "TIMER_FIRE"
		case EvtTimerPast:
			name = "TIMER_PAST!"
		case EvtQueueStep:
			name = "QUEUE_STEP"
		case EvtQueueFull:
			name = "QUEUE_FULL!"
		default:
			name = "UNKNOWN"
		}

		debugPrintln("[TIMING] " + name +
			" oid=" + utoa(uint32(evt.OID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for range critical.Block() {
		timingRing = [TimingRingSize]TimingEvent{}
		timingRingHead = 0
	}
}
