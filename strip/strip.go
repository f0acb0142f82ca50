// Package strip sends frames to the clock's LED strip, and retains them for debugging the rest of
// the program without the strip attached.
package strip

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jrockway/rainbow-clock/display"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/apa102"
	"periph.io/x/devices/v3/nrzled"
)

const (
	previewScale       = 12 // Size of one LED in the rendered image.
	previewPixelBorder = 4  // Border around right and bottom of an LED, to simulate spacing.
	previewZoneSpacing = 16 // Border between zones.
	previewRows        = 3  // LEDs 0-7, 8-15 and 16-19 of a digit block.
	previewCols        = 8
	previewLabelHeight = 16

	milliampsPerChannel = 20 // At full brightness, per the WS2812B datasheet.
	volts               = 5
)

var (
	powerMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "strip_power_watts",
		Help: "estimated power drawn by the most recent frame, after limiting",
	})
	writeMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strip_write_seconds",
		Help:    "time spent writing one frame to the strip",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
)

// Device is an LED strip driver.  Write accepts 3 bytes (R, G, B) per LED.
type Device interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// Suspender stops asynchronous events from being delivered until resume is called.
type Suspender interface {
	Suspend() (resume func())
}

type nopSuspender struct{}

func (nopSuspender) Suspend() func() { return func() {} }

// Open opens an LED strip of n LEDs on the SPI port p.  kind is "ws2812" (or any other
// single-wire NRZ strip) or "apa102".
func Open(p spi.Port, kind string, n int) (Device, error) {
	switch kind {
	case "ws2812", "nrz":
		opts := nrzled.DefaultOpts
		opts.NumPixels = n
		d, err := nrzled.NewSPI(p, &opts)
		if err != nil {
			return nil, fmt.Errorf("init nrzled: %w", err)
		}
		return d, nil
	case "apa102":
		d, err := apa102.New(p, &apa102.Opts{
			NumPixels:        n,
			Intensity:        255,
			Temperature:      apa102.NeutralTemp,
			DisableGlobalPWM: true,
		})
		if err != nil {
			return nil, fmt.Errorf("init apa102: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown led type %q", kind)
}

// Strip is the clock's strip of LEDs, laid out as described by a display.Layout.
type Strip struct {
	// PowerLimit is the most power, in watts, that a frame is allowed to draw.  Brighter
	// frames are scaled down.  0 means no limit.
	PowerLimit float64

	leds    Device
	guard   Suspender
	layout  display.Layout
	imageMu sync.Mutex
	image   *image.NRGBA // must hold imageMu to read or write.
}

// New returns a Strip that writes to leds.  leds may be nil, in which case frames only go to
// the preview image.  guard is held for the duration of every write; it may be nil.
func New(leds Device, guard Suspender, layout display.Layout) *Strip {
	if guard == nil {
		guard = nopSuspender{}
	}
	w := len(layout)*previewCols*(previewScale+previewPixelBorder) + (len(layout)-1)*previewZoneSpacing
	h := previewRows*(previewScale+previewPixelBorder) + previewLabelHeight
	return &Strip{
		leds:   leds,
		guard:  guard,
		layout: layout,
		image:  image.NewNRGBA(image.Rect(0, 0, w, h)),
	}
}

// powerFor returns the number of watts that displaying c on one LED will use.  The idle current
// of the LED's controller is neglected.
func powerFor(c color.NRGBA) float64 {
	return milliampsPerChannel / 1000.0 * volts * (float64(c.R) + float64(c.G) + float64(c.B)) / 0xff
}

// limitPower scales every LED down by the same factor so that the frame stays within limit
// watts.  It returns the new frame and the power it will draw.
func limitPower(buf []color.NRGBA, limit float64) ([]color.NRGBA, float64) {
	var power float64
	for _, c := range buf {
		power += powerFor(c)
	}
	if limit <= 0 || power <= limit {
		return buf, power
	}
	scale := limit / power
	result := make([]color.NRGBA, len(buf))
	power = 0
	for i, c := range buf {
		result[i] = color.NRGBA{
			R: uint8(scale * float64(c.R)),
			G: uint8(scale * float64(c.G)),
			B: uint8(scale * float64(c.B)),
			A: 0xff,
		}
		power += powerFor(result[i])
	}
	return result, power
}

// Show displays a frame.  The whole frame is written in one go with asynchronous events
// suspended, since the strip latches whatever it has if the data stops for too long.
func (s *Strip) Show(buf []color.NRGBA) error {
	buf, power := limitPower(buf, s.PowerLimit)
	powerMetric.Set(power)
	s.updatePreview(buf)
	if s.leds == nil {
		return nil
	}
	return s.write(apa102.ToRGB(buf))
}

func (s *Strip) write(pixels []byte) error {
	resume := s.guard.Suspend()
	defer resume()
	start := time.Now()
	if _, err := s.leds.Write(pixels); err != nil {
		return fmt.Errorf("write to led strip: %w", err)
	}
	writeMetric.Observe(time.Since(start).Seconds())
	return nil
}

// Blank turns off every LED.
func (s *Strip) Blank() error {
	if err := s.Show(make([]color.NRGBA, s.layout.Len())); err != nil {
		return fmt.Errorf("blank strip: %w", err)
	}
	return nil
}

// Halt blanks the strip and releases the driver.
func (s *Strip) Halt() error {
	if s.leds == nil {
		return nil
	}
	if err := s.leds.Halt(); err != nil {
		return fmt.Errorf("halt led strip: %w", err)
	}
	return nil
}

// updatePreview draws the frame into the image returned by the web interface.  Each zone is
// drawn as a block of rows of 8 LEDs, labelled underneath.
func (s *Strip) updatePreview(buf []color.NRGBA) {
	s.imageMu.Lock()
	defer s.imageMu.Unlock()
	for i := range s.image.Pix {
		s.image.Pix[i] = 0
	}
	cell := previewScale + previewPixelBorder
	labels := &font.Drawer{
		Dst:  s.image,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}
	for n, z := range s.layout {
		xOff := n * (previewCols*cell + previewZoneSpacing)
		for i := z.Start; i < z.End && i < len(buf); i++ {
			x := xOff + ((i-z.Start)%previewCols)*cell
			y := ((i - z.Start) / previewCols) * cell
			c := buf[i]
			c.A = 0xff
			for destX := x; destX < x+previewScale; destX++ {
				for destY := y; destY < y+previewScale; destY++ {
					s.image.SetNRGBA(destX, destY, c)
				}
			}
		}
		labels.Dot = fixed.P(xOff, previewRows*cell+previewLabelHeight-3)
		labels.DrawString(z.Kind.String())
	}
}

// Preview returns a copy of the current preview image.
func (s *Strip) Preview() *image.NRGBA {
	s.imageMu.Lock()
	defer s.imageMu.Unlock()
	img := image.NewNRGBA(s.image.Rect)
	copy(img.Pix, s.image.Pix)
	return img
}

// ServeHTTP serves the current frame as a PNG.
func (s *Strip) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("content-type", "image/png")
	w.WriteHeader(http.StatusOK)
	if err := png.Encode(w, s.Preview()); err != nil {
		log.Printf("encoding preview: %v", err)
	}
}
