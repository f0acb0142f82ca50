package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrockway/periphflag"
	"github.com/jrockway/rainbow-clock/clock"
	"github.com/jrockway/rainbow-clock/display"
	"github.com/jrockway/rainbow-clock/input"
	"github.com/jrockway/rainbow-clock/mcp7940"
	"github.com/jrockway/rainbow-clock/rtcsync"
	"github.com/jrockway/rainbow-clock/strip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/trace"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var (
	bind          = flag.String("bind", ":8080", "address to bind for debug/metrics server")
	i2cBus        = flag.String("i2c", "", "i2c bus that the rtc is on; empty for the first bus")
	ledType       = flag.String("led", "ws2812", "type of led strip: ws2812 or apa102")
	minButton     = flag.String("min-button", "", "gpio pin of the minutes button; empty for no buttons")
	hourButton    = flag.String("hour-button", "", "gpio pin of the hours button")
	squareWave    = flag.String("square-wave", "", "gpio pin wired to the rtc's mfp output; if set, seconds are counted from the rtc's 1Hz square wave instead of the system clock")
	freeRunning   = flag.Bool("free-running", false, "don't use the rtc; start at midnight and count from the system clock")
	twelveHour    = flag.Bool("twelve-hour", false, "store hours in the rtc in 12 hour mode")
	batteryBackup = flag.Bool("battery-backup", true, "enable the rtc's backup battery")
	powerLimit    = flag.Float64("power-limit", 10, "maximum number of watts the strip may draw; 0 for no limit")
	brightness    = flag.Uint("brightness", 50, "brightness of lit leds, 0-255")
	setFromSystem = flag.Bool("set-from-system", false, "at startup, copy the system time into the rtc if chronyd says the system time is synchronised")
	chronyAddr    = flag.String("chrony", "localhost:323", "address of chronyd's command port")
	maxOffset     = flag.Duration("max-offset", 100*time.Millisecond, "largest chrony offset at which the system time is trusted")
	probeRetry    = flag.Duration("probe-retry", time.Second, "how long to wait between attempts to find the rtc")
	spiDev        string

	probeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtc_probe_failures",
		Help: "count of failed attempts to find the rtc at startup",
	})
)

// probe tries to start the rtc's oscillator until it works.  The clock is useless without the
// rtc, so it keeps trying forever.
func probe(ctx context.Context, dev *mcp7940.Dev) error {
	l := trace.NewEventLog("rtc", dev.String())
	defer l.Finish()
	for {
		err := dev.Probe()
		if err == nil {
			l.Printf("rtc found")
			return nil
		}
		probeFailures.Inc()
		l.Errorf("probe: %v", err)
		log.Printf("rtc not found, retrying in %v: %v", *probeRetry, err)
		select {
		case <-time.After(*probeRetry):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// setFromChrony copies the system time into the rtc.
func setFromChrony(dev *mcp7940.Dev, mode mcp7940.HourMode) error {
	conn, err := net.DialTimeout("udp", *chronyAddr, time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	tracking, err := rtcsync.Tracking(conn)
	if err != nil {
		return err
	}
	return rtcsync.SetRTC(dev, tracking, *maxOffset, time.Now(), mode)
}

func main() {
	if _, err := host.Init(); err != nil {
		log.Fatalf("init periph.io: %v", err)
	}
	periphflag.SPIDevVar(&spiDev, "spi", "", "spi bus that the led strip is on; empty to only render to /display.png")
	flag.Parse()

	if *brightness > 255 {
		log.Fatalf("brightness %d out of range 0-255", *brightness)
	}
	mode := mcp7940.TwentyFourHour
	if *twelveHour {
		mode = mcp7940.TwelveHour
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("interrupt")
		cancel()
	}()

	var src clock.Source = &clock.Counter{}
	var rtc *mcp7940.Dev
	if !*freeRunning {
		bus, err := i2creg.Open(*i2cBus)
		if err != nil {
			log.Fatalf("open i2c bus %q: %v", *i2cBus, err)
		}
		defer bus.Close()
		rtc = mcp7940.New(bus)
		if err := probe(ctx, rtc); err != nil {
			log.Fatalf("probe rtc: %v", err)
		}
		if *batteryBackup {
			if err := rtc.SetBatteryBackup(true); err != nil {
				log.Fatalf("enable battery backup: %v", err)
			}
		}
		if *setFromSystem {
			if err := setFromChrony(rtc, mode); err != nil {
				log.Printf("not setting rtc from system time: %v", err)
			} else {
				log.Printf("rtc set from system time")
			}
		}
		if status, err := rtc.Status(); err != nil {
			log.Printf("read rtc status: %v", err)
		} else {
			log.Printf("rtc status: %+v", status)
		}
		src = &clock.RTC{Chip: rtc, Mode: mode}
	}

	r := display.NewRenderer(display.Rainbow{})
	r.Brightness = uint8(*brightness)
	cl := clock.New(src, nil, r, nil)

	var leds strip.Device
	if spiDev != "" {
		spiPort, err := spireg.Open(spiDev)
		if err != nil {
			log.Fatalf("open spi port %q: %v", spiDev, err)
		}
		defer spiPort.Close()
		leds, err = strip.Open(spiPort, *ledType, display.DefaultLayout.Len())
		if err != nil {
			log.Fatalf("init led strip: %v", err)
		}
	}
	s := strip.New(leds, cl.State, display.DefaultLayout)
	s.PowerLimit = *powerLimit
	cl.Display = s

	sources := []clock.EventSource{clock.Ticker}
	if *squareWave != "" {
		if rtc == nil {
			log.Fatalf("-square-wave needs the rtc")
		}
		pin := gpioreg.ByName(*squareWave)
		if pin == nil {
			log.Fatalf("square wave pin %q not found", *squareWave)
		}
		if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			log.Fatalf("configure square wave pin: %v", err)
		}
		if err := rtc.SetSquareWave(mcp7940.SquareWave1Hz, true); err != nil {
			log.Fatalf("enable rtc square wave: %v", err)
		}
		sources[0] = func(ctx context.Context, st *clock.State) error {
			return clock.SquareWaveTicker(ctx, pin, st)
		}
	}
	if *minButton != "" {
		minPin, hourPin := gpioreg.ByName(*minButton), gpioreg.ByName(*hourButton)
		if minPin == nil || hourPin == nil {
			log.Fatalf("button pins %q/%q not found", *minButton, *hourButton)
		}
		b, err := input.New(minPin, hourPin)
		if err != nil {
			log.Fatalf("init buttons: %v", err)
		}
		cl.Buttons = b
		sources = append(sources, func(ctx context.Context, st *clock.State) error {
			return b.Watch(ctx, st.Press)
		})
	}

	http.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/display.png", http.StatusFound)
	})
	http.Handle("/display.png", s)
	http.Handle("/metrics", promhttp.Handler())

	httpDoneCh := make(chan error)
	httpServer := http.Server{Addr: *bind}
	go func() {
		log.Printf("http server listening on %s", httpServer.Addr)
		err := httpServer.ListenAndServe()
		select {
		case httpDoneCh <- err:
		case <-ctx.Done():
		}
		close(httpDoneCh)
	}()

	loopDoneCh := make(chan error)
	go func() {
		err := cl.Run(ctx, sources...)
		select {
		case loopDoneCh <- err:
		case <-ctx.Done():
		}
		close(loopDoneCh)
	}()

	httpAlive := true
	select {
	case err := <-httpDoneCh:
		log.Printf("http server died: %v", err)
		httpAlive = false
	case err := <-loopDoneCh:
		if !errors.Is(err, context.Canceled) {
			log.Printf("clock loop died: %v", err)
		}
	case <-ctx.Done():
	}
	signal.Stop(sigCh)
	cancel()
	<-loopDoneCh
	if err := s.Blank(); err != nil {
		log.Printf("blank strip: %v", err)
	}
	if err := s.Halt(); err != nil {
		log.Printf("halt strip: %v", err)
	}
	if httpAlive {
		tctx, c := context.WithTimeout(context.Background(), time.Second)
		httpServer.Shutdown(tctx)
		c()
	}
	os.Exit(1)
}
