// Package display turns a time of day into colours for each LED of the clock's strip.
package display

import (
	"image/color"
)

// ColorOracle picks a colour for a lit LED.  phase already includes the LED's position on the
// strip; value is the brightness.
type ColorOracle interface {
	Color(phase uint16, value uint8) color.NRGBA
}

var black = color.NRGBA{A: 0xff}

// Renderer draws frames.  It remembers the animation phase between frames and nothing else.
type Renderer struct {
	Layout     Layout
	Oracle     ColorOracle
	Step       uint16 // How far the phase advances each frame.
	Brightness uint8

	phase uint16
}

// NewRenderer returns a Renderer for the default layout.
func NewRenderer(o ColorOracle) *Renderer {
	return &Renderer{
		Layout:     DefaultLayout,
		Oracle:     o,
		Step:       5,
		Brightness: 50,
	}
}

// Phase returns the phase used for the most recent frame.
func (r *Renderer) Phase() uint16 { return r.phase }

// Render advances the animation and returns a new frame showing h:m:s.  colon turns the colon
// on or off.  Every LED of the returned buffer is written.
func (r *Renderer) Render(h, m, s int, colon bool) []color.NRGBA {
	r.phase += r.Step
	buf := make([]color.NRGBA, r.Layout.Len())
	for i := range buf {
		buf[i] = black
	}
	for _, z := range r.Layout {
		var lit func(int) bool
		if z.Kind == Colon {
			lit = func(int) bool { return colon }
		} else {
			lit = Lookup(z.Kind.Digit(h, m, s)).Lit
		}
		for i := z.Start; i < z.End; i++ {
			if !lit(i - z.Start) {
				continue
			}
			// The 3*i offset spreads the rainbow along the strip.
			buf[i] = r.Oracle.Color(r.phase+uint16(3*i), r.Brightness)
		}
	}
	return buf
}
