package compiler

import (
	"unicode"
	"unicode/utf8"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
	"github.com/KromDaniel/pcrego/internal/chartables"
)

// Horizontal and vertical space above the byte range.
var (
	wideHSpace = [][2]rune{{0x1680, 0x1680}, {0x180e, 0x180e}, {0x2000, 0x200a}, {0x202f, 0x202f}, {0x205f, 0x205f}, {0x3000, 0x3000}}
	wideVSpace = [][2]rune{{0x2028, 0x2029}}
)

// xprop is a property item of an extended class.
type xprop struct {
	negated bool
	prop    property
}

// classBuilder collects the members of one [...] class.
type classBuilder struct {
	bits    [32]byte
	wide    [][2]rune // code point ranges above 255
	props   []xprop
	wideAll bool // every code point above 255 is a member

	items    int
	lastChar rune
	onlyChar bool

	tables   *chartables.Tables
	caseless bool
	utf      bool
}

func (b *classBuilder) addChar(ch rune) {
	b.items++
	b.onlyChar = b.items == 1
	b.lastChar = ch
	b.addRange(ch, ch)
}

func (b *classBuilder) addRange(lo, hi rune) {
	for ch := lo; ch <= hi && ch < 256; ch++ {
		setBit(&b.bits, int(ch))
		if b.caseless {
			b.addFolds(ch)
		}
	}
	if hi < 256 {
		return
	}
	if lo < 256 {
		lo = 256
	}
	b.wide = append(b.wide, [2]rune{lo, hi})
	if b.caseless && hi-lo < 0x1000 {
		for ch := lo; ch <= hi; ch++ {
			b.addFolds(ch)
		}
	}
}

// addFolds adds the other case forms of ch.
func (b *classBuilder) addFolds(ch rune) {
	if !b.utf || ch < 128 {
		if ch < 256 {
			setBit(&b.bits, int(b.tables.Flip[ch]))
		}
		return
	}
	for f := unicode.SimpleFold(ch); f != ch; f = unicode.SimpleFold(f) {
		if f < 256 {
			setBit(&b.bits, int(f))
		} else {
			b.wide = append(b.wide, [2]rune{f, f})
		}
	}
}

func (b *classBuilder) addBitmap(m [32]byte, negated bool) {
	b.items++
	b.onlyChar = false
	for i := range b.bits {
		if negated {
			b.bits[i] |= ^m[i]
		} else {
			b.bits[i] |= m[i]
		}
	}
	if negated && b.utf {
		b.wideAll = true
	}
}

// addSpaceList adds \h or \v style members, or their complement.
func (b *classBuilder) addSpaceList(narrow []int, wide [][2]rune, negated bool) {
	var m [32]byte
	for _, ch := range narrow {
		setBit(&m, ch)
	}
	b.addBitmap(m, negated)
	if !b.utf {
		return
	}
	if !negated {
		b.wide = append(b.wide, wide...)
		return
	}
	b.wideAll = false
	next := rune(256)
	for _, r := range wide {
		if r[0] > next {
			b.wide = append(b.wide, [2]rune{next, r[0] - 1})
		}
		next = r[1] + 1
	}
	b.wide = append(b.wide, [2]rune{next, utf8.MaxRune})
}

func (b *classBuilder) addProp(p property, negated bool) {
	b.items++
	b.onlyChar = false
	b.props = append(b.props, xprop{negated: negated, prop: p})
}

// addMarker adds a class-marker escape. It reports false for markers that
// cannot appear in a class.
func (b *classBuilder) addMarker(esc escapeResult) bool {
	t := b.tables
	switch esc.char {
	case escDigit, escNotDigit:
		b.addBitmap(t.Bitmap(chartables.Digit), esc.char == escNotDigit)
	case escSpace, escNotSpace:
		b.addBitmap(t.Bitmap(chartables.Space), esc.char == escNotSpace)
	case escWord, escNotWord:
		b.addBitmap(t.Bitmap(chartables.Word), esc.char == escNotWord)
	case escHSpace, escNotHSpace:
		b.addSpaceList([]int{0x09, 0x20, 0xa0}, wideHSpace, esc.char == escNotHSpace)
	case escVSpace, escNotVSpace:
		b.addSpaceList([]int{0x0a, 0x0b, 0x0c, 0x0d, 0x85}, wideVSpace, esc.char == escNotVSpace)
	case escProp, escNotProp:
		b.addProp(esc.prop, esc.char == escNotProp)
	default:
		return false
	}
	return true
}

// compileClass compiles a character class; c.pos is just past the '['.
func (c *compileContext) compileClass(flags Flag) error {
	start := c.pos - 1
	b := &classBuilder{tables: c.tables, caseless: flags&Caseless != 0, utf: c.utf}

	negated := false
	if c.peekByte(0) == '^' {
		negated = true
		c.pos++
	}

	inQuote := false
	first := true
	for {
		if c.atEnd() {
			return c.fail(ErrMissingClassTerminator, start)
		}
		if inQuote {
			if c.peekByte(0) == '\\' && c.peekByte(1) == 'E' {
				inQuote = false
				c.pos += 2
				continue
			}
			b.addChar(c.next())
			first = false
			continue
		}
		if c.peekByte(0) == ']' && !first {
			c.pos++
			break
		}
		first = false

		if c.peekByte(0) == '[' {
			if end, ok := checkPosixSyntax(c.pattern, c.pos); ok {
				if err := c.posixItem(b, end); err != nil {
					return err
				}
				continue
			}
		}

		lo, isChar, err := c.classAtom(b, flags, &inQuote)
		if err != nil {
			return err
		}
		if !isChar {
			continue
		}

		if c.peekByte(0) == '-' && c.pos+1 < len(c.pattern) && c.peekByte(1) != ']' {
			save := c.pos
			c.pos++
			hi, ok, err := c.rangeEnd(flags)
			if err != nil {
				return err
			}
			if ok {
				if hi < lo {
					return c.fail(ErrClassRangeOrder, save-1)
				}
				b.items++
				b.onlyChar = false
				b.addRange(lo, hi)
				continue
			}
			c.pos = save
		}
		b.addChar(lo)
	}

	return c.emitClass(b, negated)
}

// classAtom reads one class member that is not a POSIX item. It returns a
// literal for ranges, or adds a marker to b directly.
func (c *compileContext) classAtom(b *classBuilder, flags Flag, inQuote *bool) (rune, bool, error) {
	if c.peekByte(0) != '\\' {
		return c.next(), true, nil
	}
	c.pos++
	esc, err := c.escape(flags, true)
	if err != nil {
		return 0, false, err
	}
	if esc.char >= 0 {
		return rune(esc.char), true, nil
	}
	switch esc.char {
	case escQuote:
		*inQuote = true
		return 0, false, nil
	case escEndQuote:
		return 0, false, nil
	}
	if !b.addMarker(esc) {
		return 0, false, c.fail(ErrBadClassEscape, c.pos)
	}
	return 0, false, nil
}

// rangeEnd reads the upper end of a range after '-'. ok is false when the
// '-' has to be taken literally.
func (c *compileContext) rangeEnd(flags Flag) (rune, bool, error) {
	if c.peekByte(0) == '[' {
		if _, ok := checkPosixSyntax(c.pattern, c.pos); ok {
			return 0, false, nil
		}
	}
	if c.peekByte(0) != '\\' {
		return c.next(), true, nil
	}
	c.pos++
	esc, err := c.escape(flags, true)
	if err != nil {
		return 0, false, err
	}
	if esc.char < 0 {
		return 0, false, nil
	}
	return rune(esc.char), true, nil
}

func (c *compileContext) posixItem(b *classBuilder, end int) error {
	start := c.pos
	kind := c.pattern[start+1]
	if kind != ':' {
		return c.fail(ErrPosixCollating, start)
	}
	name := c.pattern[start+2 : end-2]
	negated := false
	if len(name) > 0 && name[0] == '^' {
		negated = true
		name = name[1:]
	}
	m, ok := posixClass(name, c.tables, b.caseless)
	if !ok {
		return c.fail(ErrUnknownPosixClass, start)
	}
	b.addBitmap(m, negated)
	c.pos = end
	return nil
}

// emitClass writes the smallest instruction for the collected class: a
// single character, a bitmap CLASS or NCLASS, or an XCLASS.
func (c *compileContext) emitClass(b *classBuilder, negated bool) error {
	if b.onlyChar && b.items == 1 {
		op := bc.OpChar
		if negated {
			op = bc.OpNot
		}
		c.emitChar(op, b.lastChar, b.caseless)
		return nil
	}

	if len(b.wide) == 0 && len(b.props) == 0 && !b.wideAll {
		if !negated {
			c.emit(bc.OpClass, b.bits[:]...)
			return nil
		}
		var m [32]byte
		for i := range m {
			m[i] = ^b.bits[i]
		}
		c.emit(bc.OpNClass, m[:]...)
		return nil
	}

	start := len(c.code)
	c.emit(bc.OpXClass, 0, 0)
	var flags byte
	if negated {
		flags |= bc.XClassNot
	}
	var zero [32]byte
	if b.bits != zero {
		flags |= bc.XClassMap
	}
	c.code = append(c.code, flags)
	if flags&bc.XClassMap != 0 {
		c.code = append(c.code, b.bits[:]...)
	}
	if b.wideAll {
		c.code = append(c.code, bc.XClassRange)
		c.code = utf8.AppendRune(c.code, 256)
		c.code = utf8.AppendRune(c.code, utf8.MaxRune)
	}
	for _, r := range b.wide {
		if r[0] == r[1] {
			c.code = append(c.code, bc.XClassSingle)
			c.code = utf8.AppendRune(c.code, r[0])
			continue
		}
		c.code = append(c.code, bc.XClassRange)
		c.code = utf8.AppendRune(c.code, r[0])
		c.code = utf8.AppendRune(c.code, r[1])
	}
	for _, p := range b.props {
		tag := byte(bc.XClassProp)
		if p.negated {
			tag = bc.XClassNotProp
		}
		c.code = append(c.code, tag, p.prop.typ, p.prop.value)
	}
	c.code = append(c.code, bc.XClassEnd)
	if len(c.code)-start > bc.MaxLink {
		return c.fail(ErrPatternTooLarge, c.pos)
	}
	bc.PutLink(c.code, start, len(c.code)-start)
	return nil
}

// emitChar writes CHAR or NOT for ch, switching to the caseless opcode
// when ch has another case.
func (c *compileContext) emitChar(op bc.Opcode, ch rune, caseless bool) {
	if caseless && c.hasOtherCase(ch) {
		op++
	}
	c.code = append(c.code, byte(op))
	c.appendChar(ch)
}

func (c *compileContext) appendChar(ch rune) {
	if c.utf {
		c.code = utf8.AppendRune(c.code, ch)
		return
	}
	c.code = append(c.code, byte(ch))
}

func (c *compileContext) hasOtherCase(ch rune) bool {
	if !c.utf || ch < 128 {
		return ch < 256 && rune(c.tables.Flip[ch]) != ch
	}
	return unicode.SimpleFold(ch) != ch
}
