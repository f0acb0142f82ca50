package display

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RainbowPeriod is how many phase steps it takes to go around the colour wheel once.  It
// divides 1<<16, so the phase counter wrapping around doesn't make the colours jump.
const RainbowPeriod = 2048

// Rainbow is a ColorOracle that walks the hue around the colour wheel at full saturation.
type Rainbow struct{}

// Color implements ColorOracle.  value 0 is off and 255 is full brightness; any nonzero value
// gives a non-black colour.
func (Rainbow) Color(phase uint16, value uint8) color.NRGBA {
	hue := float64(phase%RainbowPeriod) * 360 / RainbowPeriod
	r, g, b := colorful.Hsv(hue, 1, float64(value)/255).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
