// Package backoff implements the exponentially growing retry delay used to
// throttle failing uploads.
package backoff

import (
	"math"
	"time"
)

// Timer is a stateful delay calculator. Increment grows the delay
// exponentially (base = minimum delay) up to the maximum; Reset drops it back
// to zero after a success.
//
// Timer is not safe for concurrent use; callers serialize access.
type Timer struct {
	delay    int
	exponent int

	minimumDelay int
	maximumDelay int

	next     time.Time
	nextDate time.Time
}

// DefaultMinimumDelay and DefaultMaximumDelay match the server's retry
// window: delays grow from two seconds and are capped at one hour.
const (
	DefaultMinimumDelay = 2
	DefaultMaximumDelay = 3600
)

// NewTimer creates a backoff timer. Delays are expressed in whole seconds.
//
// NewTimer panics when minimumDelay is not greater than 1 (the delay could
// never grow), when maximumDelay does not exceed minimumDelay, or when
// maximumDelay is large enough to risk time arithmetic overflow.
func NewTimer(minimumDelay, maximumDelay int) *Timer {
	if minimumDelay <= 1 {
		panic("backoff: minimum delay must be greater than 1, otherwise it never increases")
	}
	if maximumDelay <= minimumDelay {
		panic("backoff: maximum delay must be greater than the minimum delay")
	}
	if maximumDelay >= math.MaxInt32/2 {
		panic("backoff: maximum delay must be less than MaxInt32/2 to avoid overflow")
	}

	now := time.Now()
	return &Timer{
		exponent:     1,
		minimumDelay: minimumDelay,
		maximumDelay: maximumDelay,
		next:         now,
		nextDate:     now.Round(0),
	}
}

// Increment exponentially increases the delay, clamped at the maximum, and
// recomputes both fire-time fields.
func (t *Timer) Increment() {
	t.delay = int(math.Pow(float64(t.minimumDelay), float64(t.exponent)))
	t.exponent++

	if t.delay > t.maximumDelay {
		t.delay = t.maximumDelay
	}

	now := time.Now()
	t.next = now.Add(time.Duration(t.delay) * time.Second)
	t.nextDate = t.next.Round(0)
}

// Reset returns the delay to zero and both fire-time fields to now.
func (t *Timer) Reset() {
	t.delay = 0
	t.exponent = 1

	now := time.Now()
	t.next = now
	t.nextDate = now.Round(0)
}

// Delay returns the current delay in seconds.
func (t *Timer) Delay() int {
	return t.delay
}

// NextFireTime returns the earliest instant the next attempt may run. The
// value carries a monotonic clock reading, so comparisons are immune to wall
// clock adjustments.
func (t *Timer) NextFireTime() time.Time {
	return t.next
}

// NextFireDate is the wall-clock representation of NextFireTime, suitable
// for showing the user when uploads resume.
func (t *Timer) NextFireDate() time.Time {
	return t.nextDate
}
