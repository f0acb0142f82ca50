// Package input reads the clock's two setting buttons.
package input

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgeTimeout bounds each wait for an edge, so that Watch notices a cancelled context.
const edgeTimeout = 250 * time.Millisecond

// Buttons are the increment-minutes and increment-hours buttons.  Each shorts its pin to ground
// when held.
type Buttons struct {
	Minutes, Hours gpio.PinIn
}

// New configures both pins as pulled-up inputs that report edges.
func New(minutes, hours gpio.PinIn) (*Buttons, error) {
	for _, p := range []gpio.PinIn{minutes, hours} {
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("configure %v: %w", p, err)
		}
	}
	return &Buttons{Minutes: minutes, Hours: hours}, nil
}

// Pressed samples both buttons.
func (b *Buttons) Pressed() (minutes, hours bool) {
	return b.Minutes.Read() == gpio.Low, b.Hours.Read() == gpio.Low
}

// ErrNoEdges is returned by Watch when a pin reports no edge without waiting for one, which is
// what pins without edge detection do.
var ErrNoEdges = errors.New("pin does not wait for edges")

// Watch calls notify every time either button changes state, until the context is cancelled.
// Debouncing is left to whoever reads Pressed.
func (b *Buttons) Watch(ctx context.Context, notify func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	for _, p := range []gpio.PinIn{b.Minutes, b.Hours} {
		go func(p gpio.PinIn) {
			for {
				start := time.Now()
				if p.WaitForEdge(edgeTimeout) {
					notify()
				} else if time.Since(start) < edgeTimeout/2 {
					errCh <- fmt.Errorf("watch %v: %w", p, ErrNoEdges)
					return
				}
				if err := ctx.Err(); err != nil {
					errCh <- fmt.Errorf("watch %v: %w", p, err)
					return
				}
			}
		}(p)
	}
	err := <-errCh
	cancel()
	<-errCh
	return err
}
