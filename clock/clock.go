// Package clock runs the clock: it counts seconds, reads the buttons, and redraws the display
// when something changed.
package clock

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/jrockway/rainbow-clock/display"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/trace"
)

var (
	framesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frames_rendered",
		Help: "count of frames sent to the display",
	})
	adjustCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "time_adjustments",
		Help: "count of times the time was changed with the buttons",
	}, []string{"field"})
)

// Display shows a frame.  *strip.Strip implements it.
type Display interface {
	Show(buf []color.NRGBA) error
}

// Buttons reports which of the setting buttons are held.  *input.Buttons implements it.
type Buttons interface {
	Pressed() (minutes, hours bool)
}

// EventSource delivers events to a State until the context is cancelled.
type EventSource func(ctx context.Context, s *State) error

// Clock is the main loop.
type Clock struct {
	Source   Source
	Display  Display
	Renderer *display.Renderer
	Buttons  Buttons // Optional.
	State    *State

	PollInterval time.Duration // How long to sleep when there is nothing to do.
	HeldInterval time.Duration // How often to poll while a button is held.
	RepeatPolls  int           // Polls between repeats of a held button.

	now        Time
	colon      bool
	buttonDown int
}

// New returns a Clock with the usual timing: idle polls every 100ms, and a held button repeats
// every 20 polls of 10ms.
func New(src Source, d Display, r *display.Renderer, b Buttons) *Clock {
	return &Clock{
		Source:       src,
		Display:      d,
		Renderer:     r,
		Buttons:      b,
		State:        new(State),
		PollInterval: 100 * time.Millisecond,
		HeldInterval: 10 * time.Millisecond,
		RepeatPolls:  20,
	}
}

// Now returns the time the clock is showing.
func (c *Clock) Now() Time { return c.now }

// Start loads the time from the source and schedules the first frame.
func (c *Clock) Start() error {
	t, err := c.Source.Load()
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	c.now = t
	c.State.redisplay.Store(true)
	return nil
}

// advance moves the clock forward one second.
func (c *Clock) advance() error {
	c.colon = !c.colon
	c.now.Seconds++
	if c.now.Seconds < 60 {
		return nil
	}
	c.now.Seconds = 0
	t, err := c.Source.MinuteElapsed(c.now)
	if err != nil {
		return fmt.Errorf("minute elapsed: %w", err)
	}
	c.now = t
	return nil
}

// press applies one press of the held buttons.
func (c *Clock) press(minutes, hours bool) error {
	if minutes {
		c.now.Minutes = (c.now.Minutes + 1) % 60
		c.now.Seconds = 0
		adjustCounter.WithLabelValues("minutes").Inc()
		if err := c.Source.Adjust(c.now, Minutes); err != nil {
			return fmt.Errorf("set minutes: %w", err)
		}
	}
	if hours {
		c.now.Hours = (c.now.Hours + 1) % 24
		adjustCounter.WithLabelValues("hours").Inc()
		if err := c.Source.Adjust(c.now, Hours); err != nil {
			return fmt.Errorf("set hours: %w", err)
		}
	}
	return nil
}

// Step makes one pass through the loop and returns how long to sleep before the next one.
// An error means the clock can't continue.
func (c *Clock) Step() (time.Duration, error) {
	for n := c.State.TakeTicks(); n > 0; n-- {
		if err := c.advance(); err != nil {
			return 0, err
		}
	}

	redraw := c.State.TakeRedisplay()
	checkInput := c.Buttons != nil && c.State.CheckInput()
	if !redraw && !checkInput {
		return c.PollInterval, nil
	}

	var sleep time.Duration
	if checkInput {
		minutes, hours := c.Buttons.Pressed()
		if !minutes && !hours {
			c.State.ClearInput()
			c.buttonDown = 0
			redraw = true
		} else {
			// A held button counts as one press now, and another every RepeatPolls
			// polls until it's released.
			if c.buttonDown <= 0 {
				c.buttonDown = c.RepeatPolls
				if err := c.press(minutes, hours); err != nil {
					return 0, err
				}
				redraw = true
			}
			c.buttonDown--
			sleep = c.HeldInterval
		}
	}

	if redraw {
		buf := c.Renderer.Render(c.now.Hours, c.now.Minutes, c.now.Seconds, c.colon)
		if err := c.Display.Show(buf); err != nil {
			return 0, fmt.Errorf("show %v: %w", c.now, err)
		}
		framesCounter.Inc()
	}
	return sleep, nil
}

// Run starts the event sources and runs the loop until the context is cancelled or something
// fails.
func (c *Clock) Run(ctx context.Context, sources ...EventSource) error {
	l := trace.NewEventLog("clock", "loop")
	defer l.Finish()

	if err := c.Start(); err != nil {
		l.Errorf("%v", err)
		return err
	}
	l.Printf("starting at %v", c.now)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, len(sources))
	for _, src := range sources {
		go func(src EventSource) {
			errCh <- src(ctx, c.State)
		}(src)
	}

	for {
		sleep, err := c.Step()
		if err != nil {
			l.Errorf("step: %v", err)
			return fmt.Errorf("step: %w", err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("clock loop: %w", ctx.Err())
		case err := <-errCh:
			l.Errorf("event source: %v", err)
			return fmt.Errorf("event source: %w", err)
		case <-time.After(sleep):
		}
	}
}
