package compiler

import (
	"unicode/utf8"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

// Class markers returned by escape in place of a literal code point.
const (
	escDigit = -(iota + 1)
	escNotDigit
	escSpace
	escNotSpace
	escWord
	escNotWord
	escHSpace
	escNotHSpace
	escVSpace
	escNotVSpace
	escAnyNL
	escExtUni
	escNotNL
	escAnyByte
	escProp
	escNotProp
	escWordBoundary
	escNotWordBoundary
	escSOD
	escEODN
	escEOD
	escSOM
	escSetSOM
	escQuote
	escEndQuote
	escBackref
	escSubroutine
)

// escapeOps maps single-instruction markers to their opcode.
var escapeOps = map[int]bc.Opcode{
	escDigit:           bc.OpDigit,
	escNotDigit:        bc.OpNotDigit,
	escSpace:           bc.OpWhitespace,
	escNotSpace:        bc.OpNotWhitespace,
	escWord:            bc.OpWordchar,
	escNotWord:         bc.OpNotWordchar,
	escHSpace:          bc.OpHSpace,
	escNotHSpace:       bc.OpNotHSpace,
	escVSpace:          bc.OpVSpace,
	escNotVSpace:       bc.OpNotVSpace,
	escAnyNL:           bc.OpAnyNL,
	escExtUni:          bc.OpExtUni,
	escNotNL:           bc.OpAny,
	escAnyByte:         bc.OpAnyByte,
	escWordBoundary:    bc.OpWordBoundary,
	escNotWordBoundary: bc.OpNotWordBoundary,
	escSOD:             bc.OpSOD,
	escEODN:            bc.OpEODN,
	escEOD:             bc.OpEOD,
	escSOM:             bc.OpSOM,
	escSetSOM:          bc.OpSetSOM,
}

// groupRef names a group by number or by name. A zero number with an
// empty name is the whole pattern.
type groupRef struct {
	number int
	name   string
}

// escapeResult is the outcome of resolving one backslash escape.
type escapeResult struct {
	// char is a literal code point when >= 0 and a class marker otherwise.
	char int
	ref  groupRef
	prop property
}

func literal(ch int) escapeResult {
	return escapeResult{char: ch}
}

func marker(m int) escapeResult {
	return escapeResult{char: m}
}

// escape resolves the escape whose backslash is just before c.pos.
func (c *compileContext) escape(flags Flag, inClass bool) (escapeResult, error) {
	start := c.pos - 1
	if c.atEnd() {
		return escapeResult{}, c.fail(ErrEscapeAtEnd, start)
	}
	ch := c.next()

	if ch >= '1' && ch <= '9' {
		return c.numericEscape(ch, inClass, start)
	}
	if ch < 128 && !isWordChar(ch) {
		return literal(int(ch)), nil
	}
	if ch >= 128 {
		return literal(int(ch)), nil
	}

	switch ch {
	case '0':
		v := 0
		for i := 0; i < 2 && isOctal(c.peekByte(0)); i++ {
			v = v*8 + int(c.next()-'0')
		}
		return literal(v), nil
	case 'a':
		return literal(0x07), nil
	case 'e':
		return literal(0x1b), nil
	case 'f':
		return literal(0x0c), nil
	case 'n':
		return literal(0x0a), nil
	case 'r':
		return literal(0x0d), nil
	case 't':
		return literal(0x09), nil
	case 'b':
		if inClass {
			return literal(0x08), nil
		}
		return marker(escWordBoundary), nil
	case 'd':
		return marker(escDigit), nil
	case 'D':
		return marker(escNotDigit), nil
	case 's':
		return marker(escSpace), nil
	case 'S':
		return marker(escNotSpace), nil
	case 'w':
		return marker(escWord), nil
	case 'W':
		return marker(escNotWord), nil
	case 'h':
		return marker(escHSpace), nil
	case 'H':
		return marker(escNotHSpace), nil
	case 'v':
		return marker(escVSpace), nil
	case 'V':
		return marker(escNotVSpace), nil
	case 'Q':
		return marker(escQuote), nil
	case 'E':
		return marker(escEndQuote), nil
	case 'p', 'P':
		return c.propertyEscape(ch == 'P', start)
	case 'x':
		return c.hexEscape(start)
	case 'o':
		return c.braceOctalEscape(start)
	case 'c':
		if c.atEnd() {
			return escapeResult{}, c.fail(ErrControlAtEnd, start)
		}
		x := c.next()
		if x >= 128 {
			return escapeResult{}, c.fail(ErrUnrecognizedEscape, start)
		}
		if x >= 'a' && x <= 'z' {
			x -= 32
		}
		return literal(int(x ^ 0x40)), nil
	case 'L', 'l', 'U', 'u':
		return escapeResult{}, c.fail(ErrUnsupportedEscape, start)
	}

	if inClass {
		switch ch {
		case 'B', 'A', 'Z', 'z', 'G', 'K', 'R', 'X', 'N', 'C', 'g', 'k':
			return escapeResult{}, c.fail(ErrBadClassEscape, start)
		}
	}

	switch ch {
	case 'B':
		return marker(escNotWordBoundary), nil
	case 'A':
		return marker(escSOD), nil
	case 'Z':
		return marker(escEODN), nil
	case 'z':
		return marker(escEOD), nil
	case 'G':
		return marker(escSOM), nil
	case 'K':
		return marker(escSetSOM), nil
	case 'R':
		return marker(escAnyNL), nil
	case 'X':
		return marker(escExtUni), nil
	case 'C':
		return marker(escAnyByte), nil
	case 'N':
		if c.peekByte(0) == '{' {
			return escapeResult{}, c.fail(ErrUnsupportedEscape, start)
		}
		return marker(escNotNL), nil
	case 'g':
		return c.gEscape(start)
	case 'k':
		return c.kEscape(start)
	}

	if flags&Extra != 0 {
		return escapeResult{}, c.fail(ErrUnrecognizedEscape, start)
	}
	return literal(int(ch)), nil
}

// numericEscape handles \1..\9. Outside a class a number below 10, or one
// not above the groups opened so far, is a back-reference; otherwise the
// digits are octal, and a leading 8 or 9 stands for itself.
func (c *compileContext) numericEscape(first rune, inClass bool, start int) (escapeResult, error) {
	if !inClass {
		save := c.pos
		n := int(first - '0')
		for isDigit(c.peekByte(0)) {
			if n <= MaxGroups {
				n = n*10 + int(c.peekByte(0)-'0')
			}
			c.pos++
		}
		if n < 10 || n <= c.groups {
			if n > MaxGroups {
				return escapeResult{}, c.fail(ErrUnknownGroup, start)
			}
			return escapeResult{char: escBackref, ref: groupRef{number: n}}, nil
		}
		c.pos = save
	}
	if first >= '8' {
		return literal(int(first)), nil
	}
	v := int(first - '0')
	for i := 0; i < 2 && isOctal(c.peekByte(0)); i++ {
		v = v*8 + int(c.next()-'0')
	}
	return c.checkChar(v, start)
}

func (c *compileContext) hexEscape(start int) (escapeResult, error) {
	if c.peekByte(0) != '{' {
		v := 0
		for i := 0; i < 2 && isHex(c.peekByte(0)); i++ {
			v = v*16 + hexValue(c.peekByte(0))
			c.pos++
		}
		return literal(v), nil
	}
	c.pos++
	v, digits := 0, 0
	for !c.atEnd() && c.peekByte(0) != '}' {
		b := c.peekByte(0)
		if !isHex(b) {
			return escapeResult{}, c.fail(ErrBadHex, c.pos)
		}
		if v <= utf8.MaxRune {
			v = v*16 + hexValue(b)
		}
		digits++
		c.pos++
	}
	if c.atEnd() {
		return escapeResult{}, c.fail(ErrMissingBrace, start)
	}
	c.pos++
	if digits == 0 {
		return escapeResult{}, c.fail(ErrBadHex, start)
	}
	return c.checkChar(v, start)
}

func (c *compileContext) braceOctalEscape(start int) (escapeResult, error) {
	if c.peekByte(0) != '{' {
		return escapeResult{}, c.fail(ErrMissingBrace, start)
	}
	c.pos++
	v, digits := 0, 0
	for !c.atEnd() && c.peekByte(0) != '}' {
		b := c.peekByte(0)
		if !isOctal(b) {
			return escapeResult{}, c.fail(ErrBadOctal, c.pos)
		}
		if v <= utf8.MaxRune {
			v = v*8 + int(b-'0')
		}
		digits++
		c.pos++
	}
	if c.atEnd() {
		return escapeResult{}, c.fail(ErrMissingBrace, start)
	}
	c.pos++
	if digits == 0 {
		return escapeResult{}, c.fail(ErrBadOctal, start)
	}
	return c.checkChar(v, start)
}

// checkChar rejects code points the current mode cannot encode.
func (c *compileContext) checkChar(v, start int) (escapeResult, error) {
	if c.utf {
		if v > utf8.MaxRune || (v >= 0xd800 && v <= 0xdfff) {
			return escapeResult{}, c.fail(ErrCharTooLarge, start)
		}
	} else if v > 0xff {
		return escapeResult{}, c.fail(ErrCharTooLarge, start)
	}
	return literal(v), nil
}

func (c *compileContext) propertyEscape(negated bool, start int) (escapeResult, error) {
	if c.atEnd() {
		return escapeResult{}, c.fail(ErrMalformedProperty, start)
	}
	var name string
	if c.peekByte(0) == '{' {
		c.pos++
		if c.peekByte(0) == '^' {
			negated = !negated
			c.pos++
		}
		end := c.pos
		for end < len(c.pattern) && c.pattern[end] != '}' {
			end++
		}
		if end >= len(c.pattern) {
			return escapeResult{}, c.fail(ErrMalformedProperty, start)
		}
		name = c.pattern[c.pos:end]
		c.pos = end + 1
	} else {
		r := c.next()
		name = string(r)
	}
	p, ok := lookupProperty(name)
	if !ok {
		return escapeResult{}, c.fail(ErrBadPropertyName, start)
	}
	m := escProp
	if negated {
		m = escNotProp
	}
	return escapeResult{char: m, prop: p}, nil
}

// gEscape handles \g back-references and \g<...> subroutine calls.
func (c *compileContext) gEscape(start int) (escapeResult, error) {
	switch c.peekByte(0) {
	case '<', '\'':
		term := byte('>')
		if c.peekByte(0) == '\'' {
			term = '\''
		}
		c.pos++
		ref, err := c.readGroupRef(term, true, start)
		if err != nil {
			return escapeResult{}, err
		}
		return escapeResult{char: escSubroutine, ref: ref}, nil
	case '{':
		c.pos++
		ref, err := c.readGroupRef('}', false, start)
		if err != nil {
			return escapeResult{}, err
		}
		return escapeResult{char: escBackref, ref: ref}, nil
	}

	neg := false
	if c.peekByte(0) == '-' {
		neg = true
		c.pos++
	}
	if !isDigit(c.peekByte(0)) {
		return escapeResult{}, c.fail(ErrBadName, start)
	}
	n := c.readNumber()
	ref, err := c.numberRef(n, neg, false, false, start)
	if err != nil {
		return escapeResult{}, err
	}
	return escapeResult{char: escBackref, ref: ref}, nil
}

// kEscape handles \k<name>, \k'name' and \k{name}.
func (c *compileContext) kEscape(start int) (escapeResult, error) {
	var term byte
	switch c.peekByte(0) {
	case '<':
		term = '>'
	case '\'':
		term = '\''
	case '{':
		term = '}'
	default:
		return escapeResult{}, c.fail(ErrBadName, start)
	}
	c.pos++
	name, err := c.readName(term)
	if err != nil {
		return escapeResult{}, err
	}
	return escapeResult{char: escBackref, ref: groupRef{name: name}}, nil
}

// readGroupRef reads a signed number or a name terminated by term.
func (c *compileContext) readGroupRef(term byte, subroutine bool, start int) (groupRef, error) {
	b := c.peekByte(0)
	if b == '+' || b == '-' || isDigit(b) {
		plus, neg := b == '+', b == '-'
		if plus || neg {
			c.pos++
		}
		if !isDigit(c.peekByte(0)) {
			return groupRef{}, c.fail(ErrBadName, c.pos)
		}
		n := c.readNumber()
		if c.peekByte(0) != term {
			return groupRef{}, c.fail(ErrBadName, c.pos)
		}
		c.pos++
		if plus && !subroutine {
			return groupRef{}, c.fail(ErrUnknownGroup, start)
		}
		return c.numberRef(n, neg, plus, subroutine, start)
	}
	name, err := c.readName(term)
	if err != nil {
		return groupRef{}, err
	}
	return groupRef{name: name}, nil
}

// numberRef turns an absolute or relative number into a group reference.
// Group zero is only valid for subroutine calls.
func (c *compileContext) numberRef(n int, neg, plus, subroutine bool, start int) (groupRef, error) {
	switch {
	case neg:
		if n == 0 {
			return groupRef{}, c.fail(ErrGroupZero, start)
		}
		n = c.groups - n + 1
		if n <= 0 {
			return groupRef{}, c.fail(ErrUnknownGroup, start)
		}
	case plus:
		if n == 0 {
			return groupRef{}, c.fail(ErrGroupZero, start)
		}
		n += c.groups
	case n == 0 && !subroutine:
		return groupRef{}, c.fail(ErrGroupZero, start)
	}
	if n > MaxGroups {
		return groupRef{}, c.fail(ErrUnknownGroup, start)
	}
	return groupRef{number: n}, nil
}

// readName reads a group name and the terminator that must follow it.
func (c *compileContext) readName(term byte) (string, error) {
	start := c.pos
	if isDigit(c.peekByte(0)) {
		return "", c.fail(ErrBadName, start)
	}
	for isWordChar(rune(c.peekByte(0))) {
		c.pos++
	}
	name := c.pattern[start:c.pos]
	if name == "" {
		return "", c.fail(ErrBadName, start)
	}
	if len(name) > MaxNameLength {
		return "", c.fail(ErrNameTooLong, start)
	}
	if c.peekByte(0) != term {
		return "", c.fail(ErrBadName, c.pos)
	}
	c.pos++
	return name, nil
}

// readNumber reads decimal digits, saturating above MaxGroups.
func (c *compileContext) readNumber() int {
	n := 0
	for isDigit(c.peekByte(0)) {
		if n <= MaxGroups {
			n = n*10 + int(c.peekByte(0)-'0')
		}
		c.pos++
	}
	return n
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isOctal(b byte) bool { return b >= '0' && b <= '7' }
func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexValue(b byte) int {
	switch {
	case b >= 'a':
		return int(b-'a') + 10
	case b >= 'A':
		return int(b-'A') + 10
	}
	return int(b - '0')
}

func isWordChar(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
