package mcp7940

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func read(r Register, v ...byte) i2ctest.IO {
	return i2ctest.IO{Addr: Address, W: []byte{byte(r)}, R: v}
}

func write(r Register, v byte) i2ctest.IO {
	return i2ctest.IO{Addr: Address, W: []byte{byte(r), v}}
}

func playback(t *testing.T, ops ...i2ctest.IO) (*Dev, func()) {
	t.Helper()
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	return New(bus), func() {
		t.Helper()
		if err := bus.Close(); err != nil {
			t.Errorf("unconsumed i2c operations: %v", err)
		}
	}
}

func TestProbe(t *testing.T) {
	d, done := playback(t,
		read(RegisterSeconds, 0x42),
		write(RegisterSeconds, 0xc2),
	)
	if err := d.Probe(); err != nil {
		t.Fatalf("probe: %v", err)
	}
	done()
}

func TestProbeMissingDevice(t *testing.T) {
	d, _ := playback(t)
	if err := d.Probe(); err == nil {
		t.Fatal("expected error probing a bus with nothing on it")
	}
}

type nackBus struct{ i2ctest.Playback }

var errNack = errors.New("nack")

func (*nackBus) Tx(addr uint16, w, r []byte) error { return errNack }

func TestProbeReturnsBusError(t *testing.T) {
	d := New(&nackBus{})
	if err := d.Probe(); !errors.Is(err, errNack) {
		t.Errorf("probe error:\n  got: %v\n want: %v", err, errNack)
	}
}

func TestGetters(t *testing.T) {
	d, done := playback(t,
		read(RegisterSeconds, 0xd9),
		read(RegisterMinutes, 0x34),
		read(RegisterHours, 0x23),
		read(RegisterHours, 0x71),
		read(RegisterHours, 0x71),
	)
	s, err := d.Seconds()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s, 59; got != want {
		t.Errorf("seconds:\n  got: %v\n want: %v", got, want)
	}
	m, err := d.Minutes()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m, 34; got != want {
		t.Errorf("minutes:\n  got: %v\n want: %v", got, want)
	}
	h, mode, err := d.Hours()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := h, 23; got != want {
		t.Errorf("hours:\n  got: %v\n want: %v", got, want)
	}
	if got, want := mode, TwentyFourHour; got != want {
		t.Errorf("mode:\n  got: %v\n want: %v", got, want)
	}
	h, mode, err = d.Hours()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := h, 23; got != want {
		t.Errorf("hours from 11 PM:\n  got: %v\n want: %v", got, want)
	}
	if got, want := mode, TwelveHour; got != want {
		t.Errorf("mode:\n  got: %v\n want: %v", got, want)
	}
	raw, err := d.RawHours()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := raw.Packed(), byte(0x3b); got != want {
		t.Errorf("packed hours:\n  got: %#02x\n want: %#02x", got, want)
	}
	done()
}

func TestNow(t *testing.T) {
	d, done := playback(t, read(RegisterSeconds, 0x96, 0x34, 0x12))
	h, m, s, err := d.Now()
	if err != nil {
		t.Fatal(err)
	}
	if h != 12 || m != 34 || s != 16 {
		t.Errorf("now:\n  got: %02d:%02d:%02d\n want: 12:34:16", h, m, s)
	}
	done()
}

func TestSetters(t *testing.T) {
	d, done := playback(t,
		write(RegisterSeconds, 0x80),
		write(RegisterMinutes, 0x59),
		write(RegisterHours, 0x72),
		write(RegisterHours, 0x07),
		write(RegisterControl, ControlSquareWave|ControlAlarm0),
		write(RegisterTrim, 0x85),
	)
	if err := d.SetSeconds(0, true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetMinutes(59); err != nil {
		t.Fatal(err)
	}
	if err := d.SetHours(12, TwelveHour); err != nil {
		t.Fatal(err)
	}
	if err := d.SetHours(7, TwentyFourHour); err != nil {
		t.Fatal(err)
	}
	if err := d.SetControlRegister(ControlSquareWave | ControlAlarm0); err != nil {
		t.Fatal(err)
	}
	if err := d.SetTrim(EncodeTrim(true, 5)); err != nil {
		t.Fatal(err)
	}
	done()
}

func TestSet(t *testing.T) {
	d, done := playback(t,
		write(RegisterHours, 0x21),
		write(RegisterMinutes, 0x05),
		write(RegisterSeconds, 0xb0),
	)
	if err := d.Set(21, 5, 30, TwentyFourHour); err != nil {
		t.Fatal(err)
	}
	done()
}

func TestSetBatteryBackupPreservesStatus(t *testing.T) {
	// OSCRUN and PWRFAIL are set, weekday is 3.
	d, done := playback(t,
		read(RegisterWeekday, 0x33),
		write(RegisterWeekday, 0x3b),
		read(RegisterWeekday, 0x3b),
		write(RegisterWeekday, 0x33),
	)
	if err := d.SetBatteryBackup(true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetBatteryBackup(false); err != nil {
		t.Fatal(err)
	}
	done()
}

func TestStatus(t *testing.T) {
	d, done := playback(t, read(RegisterWeekday, 0x29))
	s, err := d.Status()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := s, (Status{OscillatorRunning: true, BatteryBackup: true}); got != want {
		t.Errorf("status:\n  got: %+v\n want: %+v", got, want)
	}
	done()
}

func TestSetSquareWave(t *testing.T) {
	d, done := playback(t,
		read(RegisterControl, ControlOut|ControlAlarm0|0b01),
		write(RegisterControl, ControlOut|ControlAlarm0|ControlSquareWave|byte(SquareWave32768Hz)),
		read(RegisterControl, ControlOut|ControlSquareWave|0b11),
		write(RegisterControl, ControlOut|byte(SquareWave1Hz)),
	)
	if err := d.SetSquareWave(SquareWave32768Hz, true); err != nil {
		t.Fatal(err)
	}
	if err := d.SetSquareWave(SquareWave1Hz, false); err != nil {
		t.Fatal(err)
	}
	done()
}
