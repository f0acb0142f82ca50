// Package rtcsync copies the system time into the RTC, but only when chronyd says the system
// time is worth copying.
package rtcsync

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"time"
	"unicode"

	"github.com/facebookincubator/ntp/protocol/chrony"
	"github.com/jrockway/rainbow-clock/mcp7940"
)

// leapUnsynchronised is chrony's leap status for a clock that isn't synchronised to anything.
const leapUnsynchronised = 3

// ErrNotSynchronised is returned when chronyd isn't confident in the system time.
var ErrNotSynchronised = errors.New("system clock not synchronised")

// Tracking asks chronyd for its tracking report.  conn is usually a UDP connection to
// localhost:323.
func Tracking(conn io.ReadWriter) (*chrony.Tracking, error) {
	c := chrony.Client{Sequence: 1, Connection: conn}
	res, err := c.Communicate(chrony.NewTrackingPacket())
	if err != nil {
		return nil, fmt.Errorf("get tracking info: communicate: %w", err)
	}
	tracking, ok := res.(*chrony.ReplyTracking)
	if !ok {
		return nil, fmt.Errorf("get tracking info: reply was of unexpected type %T", res)
	}
	return &tracking.Tracking, nil
}

// Check returns an error wrapping ErrNotSynchronised unless t shows a synchronised clock within
// maxOffset of its reference.
func Check(t *chrony.Tracking, maxOffset time.Duration) error {
	if t == nil {
		return fmt.Errorf("no tracking report: %w", ErrNotSynchronised)
	}
	if t.LeapStatus == leapUnsynchronised {
		return fmt.Errorf("leap status unsynchronised: %w", ErrNotSynchronised)
	}
	if t.Stratum == 0 || t.Stratum >= 16 {
		return fmt.Errorf("stratum %d: %w", t.Stratum, ErrNotSynchronised)
	}
	if off := time.Duration(math.Abs(t.LastOffset) * float64(time.Second)); off > maxOffset {
		return fmt.Errorf("last offset %v from %s exceeds %v: %w", off, RefID(t.RefID), maxOffset, ErrNotSynchronised)
	}
	return nil
}

// Setter writes a time of day to the RTC.  *mcp7940.Dev implements it.
type Setter interface {
	Set(h, m, s int, mode mcp7940.HourMode) error
}

// SetRTC writes now to the RTC if t passes Check.
func SetRTC(rtc Setter, t *chrony.Tracking, maxOffset time.Duration, now time.Time, mode mcp7940.HourMode) error {
	if err := Check(t, maxOffset); err != nil {
		return err
	}
	h, m, s := now.Clock()
	if err := rtc.Set(h, m, s, mode); err != nil {
		return fmt.Errorf("set rtc to %v: %w", now.Format("15:04:05"), err)
	}
	return nil
}

// RefID formats the reference ID from a tracking report.  Reference clocks put a short name
// like "GPS" in it, NUL-padded; NTP servers put their IPv4 address there.
func RefID(id uint32) string {
	b := []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	name := strings.TrimRight(string(b), "\x00")
	if name == "" {
		return net.IP(b).String()
	}
	for _, r := range name {
		if !unicode.IsPrint(r) || r > unicode.MaxASCII {
			return net.IP(b).String()
		}
	}
	return name
}
