package landing

import (
	"fmt"
	"time"
)

// Remaining is the countdown split into display units.
type Remaining struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// Unit is one labelled countdown field.
type Unit struct {
	Label string
	Value int64
}

// Units returns the fields in display order.
func (r Remaining) Units() []Unit {
	return []Unit{
		{Label: "days", Value: r.Days},
		{Label: "hours", Value: r.Hours},
		{Label: "minutes", Value: r.Minutes},
		{Label: "seconds", Value: r.Seconds},
	}
}

// Pad renders a field with at least two digits.
func Pad(v int64) string {
	return fmt.Sprintf("%02d", v)
}

// splitRemaining divides a millisecond delta by integer division.
func splitRemaining(ms int64) Remaining {
	const (
		second = int64(1000)
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	return Remaining{
		Days:    ms / day,
		Hours:   (ms % day) / hour,
		Minutes: (ms % hour) / minute,
		Seconds: (ms % minute) / second,
	}
}

// Countdown counts down to a target fixed at mount time.
type Countdown struct {
	target    time.Time
	remaining Remaining
	done      bool
}

// NewCountdown targets now+window. Until the first tick it shows the whole window.
func NewCountdown(now time.Time, window time.Duration) *Countdown {
	return &Countdown{
		target:    now.Add(window),
		remaining: splitRemaining(window.Milliseconds()),
	}
}

// Tick recomputes the fields for now. Once the target is reached every field
// reads zero and later ticks do nothing. Reports whether the display changed.
func (c *Countdown) Tick(now time.Time) bool {
	if c.done {
		return false
	}

	prev := c.remaining
	delta := c.target.Sub(now).Milliseconds()
	if delta <= 0 {
		c.remaining = Remaining{}
		c.done = true
		return true
	}

	c.remaining = splitRemaining(delta)
	return c.remaining != prev
}

// Remaining returns the current fields.
func (c *Countdown) Remaining() Remaining {
	return c.remaining
}

// Done reports whether the countdown has stopped.
func (c *Countdown) Done() bool {
	return c.done
}

// Target returns the fixed target time.
func (c *Countdown) Target() time.Time {
	return c.target
}
