package core

import "scopeblock/critical"

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

// Handler results
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// timerList and currentTime are shared with interrupt context and are only
// touched inside atomic blocks.
var (
	timerList   *Timer
	currentTime uint32
)

// timerIsBefore compares two clock values across counter wraparound
func timerIsBefore(a, b uint32) bool {
	return int32(a-b) < 0
}

// ScheduleTimer adds a timer to the schedule
func ScheduleTimer(t *Timer) {
	var now uint32
	for range critical.Block() {
		now = currentTime
		insertTimer(t)
	}

	if timerIsBefore(t.WakeTime, now) {
		RecordTiming(EvtTimerPast, 0, now, t.WakeTime, 0)
	} else {
		RecordTiming(EvtTimerSchedule, 0, now, t.WakeTime, 0)
	}
}

// CancelTimer removes a pending timer. It reports whether the timer was
// still scheduled.
func CancelTimer(t *Timer) bool {
	removed := false
	for range critical.Block() {
		if timerList == t {
			timerList = t.Next
			t.Next = nil
			removed = true
			break
		}
		for cur := timerList; cur != nil && cur.Next != nil; cur = cur.Next {
			if cur.Next == t {
				cur.Next = t.Next
				t.Next = nil
				removed = true
				break
			}
		}
	}
	return removed
}

// insertTimer inserts a timer in sorted order by WakeTime.
// Must be called inside an atomic block.
func insertTimer(t *Timer) {
	if timerList == nil || timerIsBefore(t.WakeTime, timerList.WakeTime) {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && !timerIsBefore(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerDispatch runs every timer that is due at currentTime.
// Handlers run with interrupts masked and must be short.
func TimerDispatch() {
	for range critical.Block() {
		for timerList != nil && !timerIsBefore(currentTime, timerList.WakeTime) {
			timer := timerList
			timerList = timer.Next
			timer.Next = nil

			RecordTiming(EvtTimerFire, 0, currentTime, timer.WakeTime, 0)
			if timer.Handler(timer) == SF_RESCHEDULE {
				insertTimer(timer)
			}
		}
	}
}

// PendingTimers returns the number of scheduled timers
func PendingTimers() int {
	n := 0
	for range critical.Block() {
		for t := timerList; t != nil; t = t.Next {
			n++
		}
	}
	return n
}

// ResetTimers drops every pending timer
func ResetTimers() {
	for range critical.Block() {
		for t := timerList; t != nil; {
			next := t.Next
			t.Next = nil
			t = next
		}
		timerList = nil
	}
}
