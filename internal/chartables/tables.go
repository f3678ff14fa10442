// Package chartables holds the character classification tables the
// compiler reads. Tables are opaque input; Default returns the tables for
// the "C" locale.
package chartables

// Class selects one of the 256-bit class bitmaps.
type Class int

const (
	Space Class = iota
	XDigit
	Digit
	Upper
	Lower
	Word
	Graph
	Print
	Punct
	Cntrl

	classCount
)

// Ctype flags, one byte per character.
const (
	CtypeSpace  = 0x01
	CtypeLetter = 0x02
	CtypeDigit  = 0x04
	CtypeXDigit = 0x08
	CtypeWord   = 0x10
	CtypeMeta   = 0x80 // regex metacharacter
)

// Tables is a character classification table set.
type Tables struct {
	// Lower maps each byte to its lowercase form.
	Lower [256]byte
	// Flip maps each byte to its other case, or to itself.
	Flip [256]byte
	// Bits holds a 32-byte bitmap per Class.
	Bits [classCount][32]byte
	// Ctypes holds the Ctype flags per byte.
	Ctypes [256]byte
}

var defaultTables = build()

// Default returns the built-in "C" locale tables. The result is shared and
// must not be modified.
func Default() *Tables {
	return defaultTables
}

// Bitmap returns the bitmap for class c.
func (t *Tables) Bitmap(c Class) [32]byte {
	return t.Bits[c]
}

// Is reports whether byte b belongs to class c.
func (t *Tables) Is(c Class, b byte) bool {
	return t.Bits[c][b/8]&(1<<(b%8)) != 0
}

// Ctype reports whether byte b has all the given ctype flags.
func (t *Tables) Ctype(b byte, flags byte) bool {
	return t.Ctypes[b]&flags == flags
}

func build() *Tables {
	t := &Tables{}
	for i := 0; i < 256; i++ {
		c := byte(i)
		t.Lower[i] = c
		t.Flip[i] = c
		switch {
		case c >= 'A' && c <= 'Z':
			t.Lower[i] = c + 32
			t.Flip[i] = c + 32
		case c >= 'a' && c <= 'z':
			t.Flip[i] = c - 32
		}

		upper := c >= 'A' && c <= 'Z'
		lower := c >= 'a' && c <= 'z'
		digit := c >= '0' && c <= '9'
		xdigit := digit || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		space := c == ' ' || (c >= '\t' && c <= '\r')
		cntrl := c < 0x20 || c == 0x7f
		graph := c > 0x20 && c < 0x7f
		printable := c >= 0x20 && c < 0x7f
		word := upper || lower || digit || c == '_'
		punct := graph && !upper && !lower && !digit

		set := func(cl Class, ok bool) {
			if ok {
				t.Bits[cl][i/8] |= 1 << (i % 8)
			}
		}
		set(Space, space)
		set(XDigit, xdigit)
		set(Digit, digit)
		set(Upper, upper)
		set(Lower, lower)
		set(Word, word)
		set(Graph, graph)
		set(Print, printable)
		set(Punct, punct)
		set(Cntrl, cntrl)

		var ct byte
		if space {
			ct |= CtypeSpace
		}
		if upper || lower {
			ct |= CtypeLetter
		}
		if digit {
			ct |= CtypeDigit
		}
		if xdigit {
			ct |= CtypeXDigit
		}
		if word {
			ct |= CtypeWord
		}
		if isMeta(c) {
			ct |= CtypeMeta
		}
		t.Ctypes[i] = ct
	}
	return t
}

func isMeta(c byte) bool {
	switch c {
	case '*', '+', '?', '{', '^', '.', '$', '|', '(', ')', '[':
		return true
	}
	return false
}
