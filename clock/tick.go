package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"periph.io/x/conn/v3/gpio"
)

var (
	lateTicksCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "late_ticks",
		Help: "count of ticks that were delivered more than a second after they happened",
	})

	tickDelayMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tick_delay_seconds",
		Help:    "amount of time between the seconds changing and the clock loop being told about it",
		Buckets: prometheus.ExponentialBuckets(0.000001, 10, 7),
	})

	squareWaveEdges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "square_wave_edges",
		Help: "count of falling edges seen on the rtc's square wave output",
	})
)

func deliver(s *State, at time.Time) {
	s.Tick()
	delay := time.Since(at)
	tickDelayMetric.Observe(delay.Seconds())
	if delay > time.Second {
		lateTicksCounter.Inc()
	}
}

// Ticker ticks s at the exact instant that the system clock's seconds change.  Cancelling the
// context causes this to return immediately.
func Ticker(ctx context.Context, s *State) error {
	for {
		nextSecond := time.Now().Add(time.Second).Truncate(time.Second)

		// Wait until the next second starts.
		select {
		case <-time.After(time.Until(nextSecond)):
		case <-ctx.Done():
			return fmt.Errorf("waiting for next second: %w", ctx.Err())
		}
		deliver(s, nextSecond)
	}
}

// edgeTimeout bounds each wait for a square wave edge, so that SquareWaveTicker notices a
// cancelled context.
const edgeTimeout = 250 * time.Millisecond

// SquareWaveTicker ticks s on every falling edge of p, which should be wired to the RTC's MFP pin
// with a 1Hz square wave enabled.  The pin must already be configured for falling edges; if it
// returns from WaitForEdge without waiting, it isn't, and an error is returned.
func SquareWaveTicker(ctx context.Context, p gpio.PinIn, s *State) error {
	for {
		start := time.Now()
		if p.WaitForEdge(edgeTimeout) {
			squareWaveEdges.Inc()
			deliver(s, time.Now())
		} else if time.Since(start) < edgeTimeout/2 {
			return fmt.Errorf("square wave pin %v does not wait for edges", p)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("waiting for square wave edge: %w", err)
		}
	}
}
