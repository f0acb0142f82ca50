// Package mcp7940 talks to a Microchip MCP7940 real-time clock over I2C:
// https://ww1.microchip.com/downloads/en/DeviceDoc/20005010F.pdf
//
// Only the timekeeping registers this clock uses are implemented; the date, alarm and
// power-fail timestamp registers are left alone.
package mcp7940

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Dev is an MCP7940 on an I2C bus.
type Dev struct {
	c i2c.Dev
}

// New returns a Dev for the chip at its fixed address on b.  It does not talk to the chip; call
// Probe for that.
func New(b i2c.Bus) *Dev {
	return &Dev{c: i2c.Dev{Bus: b, Addr: Address}}
}

func (d *Dev) String() string {
	return fmt.Sprintf("mcp7940{%s}", d.c.String())
}

// ReadRegister reads one register.
func (d *Dev) ReadRegister(r Register) (byte, error) {
	var buf [1]byte
	if err := d.c.Tx([]byte{byte(r)}, buf[:]); err != nil {
		return 0, fmt.Errorf("read register %#02x: %w", byte(r), err)
	}
	return buf[0], nil
}

// WriteRegister writes one register.
func (d *Dev) WriteRegister(r Register, v byte) error {
	if err := d.c.Tx([]byte{byte(r), v}, nil); err != nil {
		return fmt.Errorf("write register %#02x: %w", byte(r), err)
	}
	return nil
}

// updateRegister does a read-modify-write of one register.
func (d *Dev) updateRegister(r Register, f func(byte) byte) error {
	v, err := d.ReadRegister(r)
	if err != nil {
		return err
	}
	return d.WriteRegister(r, f(v))
}

// Probe checks that the chip is on the bus and starts its oscillator.  The seconds are
// preserved.  Errors come straight from the bus; retrying is up to the caller.
func (d *Dev) Probe() error {
	if err := d.updateRegister(RegisterSeconds, func(v byte) byte {
		return SetBit(v, BitStartOscillator, true)
	}); err != nil {
		return fmt.Errorf("probe %v: %w", d, err)
	}
	return nil
}

// Seconds returns the current seconds, 0-59.
func (d *Dev) Seconds() (int, error) {
	v, err := d.ReadRegister(RegisterSeconds)
	if err != nil {
		return 0, fmt.Errorf("get seconds: %w", err)
	}
	return DecodeSeconds(v), nil
}

// Minutes returns the current minutes, 0-59.
func (d *Dev) Minutes() (int, error) {
	v, err := d.ReadRegister(RegisterMinutes)
	if err != nil {
		return 0, fmt.Errorf("get minutes: %w", err)
	}
	return DecodeMinutes(v), nil
}

// Hours returns the current hour of the day (0-23), whichever mode the chip is counting in,
// and that mode.
func (d *Dev) Hours() (int, HourMode, error) {
	h, err := d.RawHours()
	if err != nil {
		return 0, TwentyFourHour, err
	}
	return h.Clock24(), h.Mode, nil
}

// RawHours returns the hours register decoded in the chip's own mode.
func (d *Dev) RawHours() (Hour, error) {
	v, err := d.ReadRegister(RegisterHours)
	if err != nil {
		return Hour{}, fmt.Errorf("get hours: %w", err)
	}
	return DecodeHours(v), nil
}

// Now reads hours, minutes and seconds in one transaction, so they can't tear across a
// rollover.  The hour is 0-23.
func (d *Dev) Now() (h, m, s int, err error) {
	var buf [3]byte
	if err := d.c.Tx([]byte{byte(RegisterSeconds)}, buf[:]); err != nil {
		return 0, 0, 0, fmt.Errorf("read time: %w", err)
	}
	return DecodeHours(buf[2]).Clock24(), DecodeMinutes(buf[1]), DecodeSeconds(buf[0]), nil
}

// SetSeconds writes the seconds register.  Pass oscillator=false to stop the clock.
func (d *Dev) SetSeconds(v int, oscillator bool) error {
	if err := d.WriteRegister(RegisterSeconds, EncodeSeconds(v, oscillator)); err != nil {
		return fmt.Errorf("set seconds: %w", err)
	}
	return nil
}

// SetMinutes writes the minutes register.
func (d *Dev) SetMinutes(v int) error {
	if err := d.WriteRegister(RegisterMinutes, EncodeMinutes(v)); err != nil {
		return fmt.Errorf("set minutes: %w", err)
	}
	return nil
}

// SetHours writes an hour of the day (0-23), switching the chip to the given mode.
func (d *Dev) SetHours(h int, mode HourMode) error {
	if err := d.WriteRegister(RegisterHours, EncodeHours(h, mode)); err != nil {
		return fmt.Errorf("set hours: %w", err)
	}
	return nil
}

// Set writes a whole time of day.  The seconds go last so that the oscillator starts on a
// consistent time.
func (d *Dev) Set(h, m, s int, mode HourMode) error {
	if err := d.SetHours(h, mode); err != nil {
		return err
	}
	if err := d.SetMinutes(m); err != nil {
		return err
	}
	return d.SetSeconds(s, true)
}

// ControlRegister returns the raw control register.  See the Control* constants.
func (d *Dev) ControlRegister() (byte, error) {
	return d.ReadRegister(RegisterControl)
}

// SetControlRegister overwrites the control register.
func (d *Dev) SetControlRegister(v byte) error {
	return d.WriteRegister(RegisterControl, v)
}

// SetSquareWave enables or disables the square wave on the MFP pin, at frequency f.  Other
// control bits are preserved.
func (d *Dev) SetSquareWave(f SquareWave, enabled bool) error {
	if err := d.updateRegister(RegisterControl, func(v byte) byte {
		v = v&^(ControlFrequencyMask|ControlSquareWave) | byte(f)&ControlFrequencyMask
		if enabled {
			v |= ControlSquareWave
		}
		return v
	}); err != nil {
		return fmt.Errorf("set square wave: %w", err)
	}
	return nil
}

// SetBatteryBackup enables or disables switching over to the backup battery when main power is
// lost.  While on battery, the chip keeps time but the bus and MFP pin are dead.
func (d *Dev) SetBatteryBackup(enabled bool) error {
	if err := d.updateRegister(RegisterWeekday, func(v byte) byte {
		return SetBit(v, BitBatteryBackup, enabled)
	}); err != nil {
		return fmt.Errorf("set battery backup: %w", err)
	}
	return nil
}

// SetTrim writes the raw oscillator trim register.  See EncodeTrim.
func (d *Dev) SetTrim(v byte) error {
	if err := d.WriteRegister(RegisterTrim, v); err != nil {
		return fmt.Errorf("set trim: %w", err)
	}
	return nil
}

// Status is the state reported in RegisterWeekday.
type Status struct {
	OscillatorRunning bool
	PowerFailed       bool // Set by the chip when it switched to battery; cleared by writing 0.
	BatteryBackup     bool
}

// Status reads the oscillator and power status.
func (d *Dev) Status() (Status, error) {
	v, err := d.ReadRegister(RegisterWeekday)
	if err != nil {
		return Status{}, fmt.Errorf("get status: %w", err)
	}
	return Status{
		OscillatorRunning: v&(1<<BitOscillatorRunning) != 0,
		PowerFailed:       v&(1<<BitPowerFail) != 0,
		BatteryBackup:     v&(1<<BitBatteryBackup) != 0,
	}, nil
}
