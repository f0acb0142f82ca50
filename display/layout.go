package display

// ZoneKind says what a zone of the strip shows.
type ZoneKind int

const (
	HoursTens ZoneKind = iota
	HoursOnes
	Colon
	MinutesTens
	MinutesOnes
	SecondsTens
	SecondsOnes
)

var zoneNames = [...]string{"HH0", "HH1", "colon", "MM0", "MM1", "SS0", "SS1"}

func (k ZoneKind) String() string {
	if k < 0 || int(k) >= len(zoneNames) {
		return "unknown"
	}
	return zoneNames[k]
}

// Digit returns the digit this zone shows for the given time.  The colon has no digit and
// returns -1.
func (k ZoneKind) Digit(h, m, s int) int {
	switch k {
	case HoursTens:
		return h / 10
	case HoursOnes:
		return h % 10
	case MinutesTens:
		return m / 10
	case MinutesOnes:
		return m % 10
	case SecondsTens:
		return s / 10
	case SecondsOnes:
		return s % 10
	}
	return -1
}

// Zone is a contiguous run of LEDs on the strip, [Start, End).
type Zone struct {
	Kind       ZoneKind
	Start, End int
}

// Len returns the number of LEDs in the zone.
func (z Zone) Len() int { return z.End - z.Start }

// Layout is the partition of the strip into zones, in the order the LEDs are wired.
type Layout []Zone

// Len returns the number of LEDs covered by the layout.
func (l Layout) Len() int {
	var n int
	for _, z := range l {
		if z.End > n {
			n = z.End
		}
	}
	return n
}

// ColonLEDs is the number of LEDs in the colon between hours and minutes.
const ColonLEDs = 8

// DefaultLayout is the clock as built: HH, a colon, MM, SS.  There is no colon between
// minutes and seconds.
var DefaultLayout = Layout{
	{Kind: HoursTens, Start: 0, End: 20},
	{Kind: HoursOnes, Start: 20, End: 40},
	{Kind: Colon, Start: 40, End: 48},
	{Kind: MinutesTens, Start: 48, End: 68},
	{Kind: MinutesOnes, Start: 68, End: 88},
	{Kind: SecondsTens, Start: 88, End: 108},
	{Kind: SecondsOnes, Start: 108, End: 128},
}
