package display

// Glyph says which LEDs of a 20-LED digit block are lit.  Bit i is LED i of the block.  The
// block is wired as three rows: LEDs 0-7, LEDs 8-15, and LEDs 16-19.
type Glyph uint32

// DigitLEDs is the number of LEDs in one digit block.
const DigitLEDs = 20

func rows(r0, r1, r2 uint8) Glyph {
	return Glyph(r0) | Glyph(r1)<<8 | Glyph(r2&0x0f)<<16
}

var glyphs = [10]Glyph{
	rows(0b11111111, 0b11111001, 0b1111), // 0
	rows(0b10011000, 0b01100001, 0b1000), // 1
	rows(0b10011111, 0b10011111, 0b1111), // 2
	rows(0b10011111, 0b01101111, 0b1111), // 3
	rows(0b11111001, 0b01101111, 0b1000), // 4
	rows(0b01101111, 0b01101111, 0b1111), // 5
	rows(0b01101111, 0b11111111, 0b1111), // 6
	rows(0b10011111, 0b01100001, 0b1000), // 7
	rows(0b11111111, 0b11111111, 0b1111), // 8
	rows(0b11111111, 0b01101111, 0b1000), // 9
}

// Lookup returns the glyph for digit d, 0-9.  Anything else is blank.
func Lookup(d int) Glyph {
	if d < 0 || d >= len(glyphs) {
		return 0
	}
	return glyphs[d]
}

// Lit reports whether LED i of the block is on.
func (g Glyph) Lit(i int) bool {
	if i < 0 || i >= DigitLEDs {
		return false
	}
	return g&(1<<uint(i)) != 0
}

// Count returns the number of lit LEDs.
func (g Glyph) Count() int {
	var n int
	for i := 0; i < DigitLEDs; i++ {
		if g.Lit(i) {
			n++
		}
	}
	return n
}
