package clock

import (
	"fmt"

	"github.com/jrockway/rainbow-clock/mcp7940"
)

// Time is a time of day.
type Time struct {
	Hours, Minutes, Seconds int
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// Field names a part of Time that the buttons can change.
type Field int

const (
	Minutes Field = iota
	Hours
)

// Source is where the clock gets its time from.  The loop counts seconds itself and only asks
// the source for help at startup, at every minute boundary, and when the time is set.
type Source interface {
	// Load returns the time to start from.
	Load() (Time, error)
	// MinuteElapsed is called when the local seconds count wraps from 59 to 0.  local has
	// seconds set to 0 and minutes not yet advanced.
	MinuteElapsed(local Time) (Time, error)
	// Adjust stores a time set from the buttons.  f says which field changed.
	Adjust(t Time, f Field) error
}

// Counter is a free-running Source with nothing behind it; the time is lost when the program
// exits.
type Counter struct {
	Start Time
}

// Load implements Source.
func (c *Counter) Load() (Time, error) { return c.Start, nil }

// MinuteElapsed implements Source.
func (c *Counter) MinuteElapsed(t Time) (Time, error) {
	return nextMinute(t), nil
}

// nextMinute returns the start of the minute after t.
func nextMinute(t Time) Time {
	t.Seconds = 0
	t.Minutes++
	if t.Minutes == 60 {
		t.Minutes = 0
		t.Hours++
		if t.Hours == 24 {
			t.Hours = 0
		}
	}
	return t
}

// Adjust implements Source.
func (c *Counter) Adjust(Time, Field) error { return nil }

// Chip is the part of the RTC driver that RTC needs.  *mcp7940.Dev implements it.
type Chip interface {
	Now() (h, m, s int, err error)
	SetSeconds(v int, oscillator bool) error
	SetMinutes(v int) error
	SetHours(h int, mode mcp7940.HourMode) error
}

var _ Chip = (*mcp7940.Dev)(nil)

// RTC is a Source backed by the real-time clock chip.  The chip is re-read every minute, so the
// seconds counted locally never drift far from it.
type RTC struct {
	Chip Chip
	Mode mcp7940.HourMode // The mode to write hours in.
}

// Load implements Source.
func (r *RTC) Load() (Time, error) {
	h, m, s, err := r.Chip.Now()
	if err != nil {
		return Time{}, fmt.Errorf("load time from rtc: %w", err)
	}
	return Time{Hours: h, Minutes: m, Seconds: s}, nil
}

// MinuteElapsed implements Source.  The time comes from the chip, read in one transaction.  The
// seconds ticker isn't synchronised to the chip, so the chip may still be in the minute that
// just ended locally; then the minute is advanced locally instead.
func (r *RTC) MinuteElapsed(local Time) (Time, error) {
	h, m, s, err := r.Chip.Now()
	if err != nil {
		return local, fmt.Errorf("refresh time: %w", err)
	}
	if h == local.Hours && m == local.Minutes {
		return nextMinute(local), nil
	}
	return Time{Hours: h, Minutes: m, Seconds: s}, nil
}

// Adjust implements Source.  Changing the minutes also restarts the minute, so the seconds
// are written too.
func (r *RTC) Adjust(t Time, f Field) error {
	switch f {
	case Minutes:
		if err := r.Chip.SetSeconds(t.Seconds, true); err != nil {
			return fmt.Errorf("adjust: %w", err)
		}
		if err := r.Chip.SetMinutes(t.Minutes); err != nil {
			return fmt.Errorf("adjust: %w", err)
		}
	case Hours:
		if err := r.Chip.SetHours(t.Hours, r.Mode); err != nil {
			return fmt.Errorf("adjust: %w", err)
		}
	}
	return nil
}
