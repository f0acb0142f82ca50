package mcp7940

import "fmt"

// The MCP7940 stores time as binary-coded decimal: the ones digit lives in bits 0-3 and the
// tens digit in some of bits 4-6, with the leftover high bits used as flags.  None of the
// functions in this file validate their input; a value that is out of range for the field
// is packed as-is, just like the chip would accept it.

// HourMode is the format of the hours register.
type HourMode int

const (
	TwentyFourHour HourMode = iota
	TwelveHour
)

func (m HourMode) String() string {
	if m == TwelveHour {
		return "12h"
	}
	return "24h"
}

// DecodeBCD extracts a two-digit value from b.  The tens digit is (b&tensMask)>>tensShift and
// the ones digit is the low nibble.
func DecodeBCD(b, tensMask byte, tensShift uint) int {
	return int((b&tensMask)>>tensShift)*10 + int(b&0x0f)
}

// DecodeSeconds decodes RegisterSeconds, ignoring the oscillator bit.
func DecodeSeconds(b byte) int {
	return DecodeBCD(b, 0b0111_0000, 4)
}

// DecodeMinutes decodes RegisterMinutes.
func DecodeMinutes(b byte) int {
	return DecodeBCD(b, 0b0111_0000, 4)
}

// Hour is the decoded contents of RegisterHours.
type Hour struct {
	Value int // 0-23 in 24-hour mode, 1-12 in 12-hour mode.
	Mode  HourMode
	PM    bool // Only meaningful in 12-hour mode.
}

// DecodeHours decodes RegisterHours according to the mode bit stored in the register itself.
func DecodeHours(b byte) Hour {
	if b&(1<<BitTwelveHour) != 0 {
		return Hour{
			Value: DecodeBCD(b, 0b0001_0000, 4),
			Mode:  TwelveHour,
			PM:    b&(1<<BitPM) != 0,
		}
	}
	return Hour{Value: DecodeBCD(b, 0b0011_0000, 4), Mode: TwentyFourHour}
}

// Packed returns the hour in the packed form older firmware passed around: in 24-hour mode
// the plain value, in 12-hour mode 1<<5 as a marker, the meridiem in bit 4 and the 1-12 value
// in bits 0-3.
func (h Hour) Packed() byte {
	if h.Mode != TwelveHour {
		return byte(h.Value)
	}
	b := byte(1<<5) | byte(h.Value)
	if h.PM {
		b |= 1 << 4
	}
	return b
}

// Clock24 returns the hour of the day, 0-23.  12 AM is 0 and 12 PM is 12.
func (h Hour) Clock24() int {
	if h.Mode != TwelveHour {
		return h.Value
	}
	v := h.Value % 12
	if h.PM {
		v += 12
	}
	return v
}

func (h Hour) String() string {
	if h.Mode != TwelveHour {
		return fmt.Sprintf("%02d", h.Value)
	}
	if h.PM {
		return fmt.Sprintf("%d PM", h.Value)
	}
	return fmt.Sprintf("%d AM", h.Value)
}

func encodeBCD(v int, tensMask byte) byte {
	return byte(v/10)&tensMask<<4 | byte(v%10)
}

// EncodeSeconds packs seconds for RegisterSeconds.  The value is truncated to 6 bits; values
// from 60 to 63 produce a BCD pattern the chip will happily count up from.
func EncodeSeconds(v int, oscillator bool) byte {
	v &= 0b11_1111
	return SetBit(encodeBCD(v, 0b111), BitStartOscillator, oscillator)
}

// EncodeMinutes packs minutes for RegisterMinutes.
func EncodeMinutes(v int) byte {
	v &= 0b11_1111
	return encodeBCD(v, 0b111)
}

// EncodeHours packs an hour of the day (0-23) for RegisterHours in the requested mode.  In
// 12-hour mode, hours from 12 onward are PM and hour 0 is written as 12 AM.
func EncodeHours(h int, mode HourMode) byte {
	h &= 0b1_1111
	if mode != TwelveHour {
		return encodeBCD(h, 0b11)
	}
	v := h % 12
	if v == 0 {
		v = 12
	}
	return EncodeHours12(v, h >= 12)
}

// EncodeHours12 packs a 1-12 hour and meridiem for RegisterHours in 12-hour mode.
func EncodeHours12(v int, pm bool) byte {
	b := encodeBCD(v&0b1_1111, 0b1) | 1<<BitTwelveHour
	return SetBit(b, BitPM, pm)
}

// SetBit returns b with the given bit set or cleared, leaving every other bit alone.
func SetBit(b byte, bit uint, enabled bool) byte {
	b &^= 1 << bit
	if enabled {
		b |= 1 << bit
	}
	return b
}

// EncodeTrim packs a trim value for RegisterTrim.  When negative is set, the chip subtracts
// clock cycles, which slows the clock down.
func EncodeTrim(negative bool, magnitude uint8) byte {
	return SetBit(magnitude&TrimMagnitude, BitTrimSign, negative)
}

// DecodeTrim is the inverse of EncodeTrim.
func DecodeTrim(b byte) (negative bool, magnitude uint8) {
	return b&(1<<BitTrimSign) != 0, b & TrimMagnitude
}
