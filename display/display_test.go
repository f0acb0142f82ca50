package display

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGlyphs(t *testing.T) {
	testData := []struct {
		digit int
		want  []int // Lit LEDs.
	}{
		{1, []int{3, 4, 7, 8, 13, 14, 19}},
		{7, []int{0, 1, 2, 3, 4, 7, 8, 13, 14, 19}},
		{-1, nil},
		{10, nil},
	}
	for _, test := range testData {
		var got []int
		for i := 0; i < DigitLEDs; i++ {
			if Lookup(test.digit).Lit(i) {
				got = append(got, i)
			}
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("digit %d lit LEDs (-want +got):\n%s", test.digit, diff)
		}
	}

	if got, want := Lookup(8).Count(), DigitLEDs; got != want {
		t.Errorf("lit LEDs in 8:\n  got: %v\n want: %v", got, want)
	}
	for d := 0; d < 10; d++ {
		if d == 8 {
			continue
		}
		if Lookup(d).Count() >= DigitLEDs {
			t.Errorf("digit %d lights every LED", d)
		}
		if Lookup(d)&^Lookup(8) != 0 {
			t.Errorf("digit %d lights an LED that 8 does not", d)
		}
	}
	if Lookup(8).Lit(DigitLEDs) {
		t.Error("LED past the end of the block is lit")
	}
}

func TestDefaultLayout(t *testing.T) {
	if got, want := DefaultLayout.Len(), 128; got != want {
		t.Errorf("strip length:\n  got: %v\n want: %v", got, want)
	}
	next := 0
	for _, z := range DefaultLayout {
		if got, want := z.Start, next; got != want {
			t.Errorf("zone %v starts at:\n  got: %v\n want: %v", z.Kind, got, want)
		}
		want := DigitLEDs
		if z.Kind == Colon {
			want = ColonLEDs
		}
		if got := z.Len(); got != want {
			t.Errorf("zone %v length:\n  got: %v\n want: %v", z.Kind, got, want)
		}
		next = z.End
	}
}

// fakeOracle encodes its arguments into the colour so tests can check them.
type fakeOracle struct{}

func (fakeOracle) Color(phase uint16, value uint8) color.NRGBA {
	return color.NRGBA{R: byte(phase >> 8), G: byte(phase), B: value, A: 0xff}
}

func TestRender(t *testing.T) {
	r := NewRenderer(fakeOracle{})
	r.phase = 100
	buf := r.Render(12, 34, 56, true)
	if got, want := len(buf), 128; got != want {
		t.Fatalf("buffer length:\n  got: %v\n want: %v", got, want)
	}
	if got, want := r.Phase(), uint16(105); got != want {
		t.Errorf("phase after one frame:\n  got: %v\n want: %v", got, want)
	}

	wantDigits := map[ZoneKind]int{
		HoursTens:   1,
		HoursOnes:   2,
		MinutesTens: 3,
		MinutesOnes: 4,
		SecondsTens: 5,
		SecondsOnes: 6,
	}
	for _, z := range DefaultLayout {
		if z.Kind != Colon {
			if got, want := z.Kind.Digit(12, 34, 56), wantDigits[z.Kind]; got != want {
				t.Errorf("zone %v digit:\n  got: %v\n want: %v", z.Kind, got, want)
			}
		}
		for i := z.Start; i < z.End; i++ {
			lit := true
			if z.Kind != Colon {
				lit = Lookup(wantDigits[z.Kind]).Lit(i - z.Start)
			}
			want := color.NRGBA{A: 0xff}
			if lit {
				want = fakeOracle{}.Color(105+uint16(3*i), 50)
			}
			if got := buf[i]; got != want {
				t.Errorf("LED %d (zone %v, lit=%v):\n  got: %v\n want: %v", i, z.Kind, lit, got, want)
			}
		}
	}
}

func TestRenderColonOff(t *testing.T) {
	r := NewRenderer(Rainbow{})
	buf := r.Render(88, 88, 88, false)
	for i, c := range buf {
		black := c.R == 0 && c.G == 0 && c.B == 0
		if colon := i >= 40 && i < 48; colon != black {
			t.Errorf("LED %d: colon=%v but black=%v (%v)", i, colon, black, c)
		}
	}
}

func TestRenderPhaseWraps(t *testing.T) {
	r := NewRenderer(fakeOracle{})
	r.phase = 0xfffe
	buf := r.Render(8, 0, 0, false)
	if got, want := r.Phase(), uint16(3); got != want {
		t.Errorf("phase after wrapping:\n  got: %v\n want: %v", got, want)
	}
	if got, want := buf[0], (color.NRGBA{R: 0, G: 3, B: 50, A: 0xff}); got != want {
		t.Errorf("first LED:\n  got: %v\n want: %v", got, want)
	}
}

func TestRainbow(t *testing.T) {
	var rb Rainbow
	for phase := 0; phase < 1<<16; phase += 7 {
		c := rb.Color(uint16(phase), 50)
		if c.R == 0 && c.G == 0 && c.B == 0 {
			t.Fatalf("phase %d: black", phase)
		}
		if c.R > 50 || c.G > 50 || c.B > 50 {
			t.Fatalf("phase %d: %v brighter than requested", phase, c)
		}
	}
	if got, want := rb.Color(0, 255), (color.NRGBA{R: 255, A: 255}); got != want {
		t.Errorf("phase 0:\n  got: %v\n want: %v", got, want)
	}
	if got, want := rb.Color(RainbowPeriod, 50), rb.Color(0, 50); got != want {
		t.Errorf("one full period:\n  got: %v\n want: %v", got, want)
	}
	if got, want := rb.Color(17, 0), (color.NRGBA{A: 255}); got != want {
		t.Errorf("zero brightness:\n  got: %v\n want: %v", got, want)
	}
}
