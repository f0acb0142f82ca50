package mcp7940

// Address is the fixed I2C address of the MCP7940.
const Address = 0x6f

// Register is a timekeeping register address.
type Register uint8

const (
	RegisterSeconds Register = 0x00
	RegisterMinutes Register = 0x01
	RegisterHours   Register = 0x02
	RegisterWeekday Register = 0x03 // Also holds the oscillator and power status bits.
	RegisterDate    Register = 0x04
	RegisterMonth   Register = 0x05
	RegisterYear    Register = 0x06
	RegisterControl Register = 0x07
	RegisterTrim    Register = 0x08
)

// Bits in RegisterSeconds.
const (
	BitStartOscillator = 7
)

// Bits in RegisterHours.
const (
	BitTwelveHour = 6
	BitPM         = 5
)

// Bits in RegisterWeekday.
const (
	BitOscillatorRunning = 5
	BitPowerFail         = 4
	BitBatteryBackup     = 3
)

// Bits in RegisterControl.  Combine them with ControlRegister/SetControlRegister.
const (
	ControlOut           = 1 << 7 // Level of the MFP pin when nothing else drives it.
	ControlSquareWave    = 1 << 6
	ControlAlarm1        = 1 << 5
	ControlAlarm0        = 1 << 4
	ControlExtOscillator = 1 << 3
	ControlCoarseTrim    = 1 << 2
	ControlFrequencyMask = 0b11
)

// Bits in RegisterTrim.
const (
	BitTrimSign   = 7
	TrimMagnitude = 0x7f
)

// SquareWave selects the MFP square wave frequency.
type SquareWave uint8

const (
	SquareWave1Hz     SquareWave = 0 // Affected by digital trimming.
	SquareWave4096Hz  SquareWave = 1 // Affected by digital trimming.
	SquareWave8192Hz  SquareWave = 2 // Affected by digital trimming.
	SquareWave32768Hz SquareWave = 3 // Straight from the crystal.
)
