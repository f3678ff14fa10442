package compiler

import (
	"unicode"
	"unicode/utf8"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
	"github.com/KromDaniel/pcrego/internal/chartables"
)

// isAnchored reports whether every branch of the bracket at pc can only
// match at the start of the subject. A leading .* with dotall counts as
// anchored unless the pattern has back-references, which could see the
// skipped text.
func isAnchored(code []byte, pc int, backrefs bool) bool {
	return everyBranch(code, pc, func(first int) bool {
		op := bc.Opcode(code[first])
		switch {
		case op == bc.OpBra || op == bc.OpCBra || op == bc.OpOnce || op == bc.OpCond || op == bc.OpAssert:
			return isAnchored(code, first, backrefs)
		case op == bc.OpSOD || op == bc.OpSOM || op == bc.OpCirc:
			return true
		case isTypeStar(op):
			return bc.Opcode(code[first+1]) == bc.OpAllAny && !backrefs
		}
		return false
	})
}

// isStartLine reports whether every branch starts with ^ (in either mode)
// or with .* without dotall, so a match can only start at a line start.
func isStartLine(code []byte, pc int) bool {
	return everyBranch(code, pc, func(first int) bool {
		op := bc.Opcode(code[first])
		switch {
		case op == bc.OpBra || op == bc.OpCBra || op == bc.OpOnce || op == bc.OpCond || op == bc.OpAssert:
			return isStartLine(code, first)
		case op == bc.OpCirc || op == bc.OpCircM:
			return true
		case isTypeStar(op):
			return bc.Opcode(code[first+1]) == bc.OpAny
		}
		return false
	})
}

func isTypeStar(op bc.Opcode) bool {
	return op == bc.OpTypeStar+bc.Opcode(bc.KindStar) ||
		op == bc.OpTypeStar+bc.Opcode(bc.KindMinStar) ||
		op == bc.OpTypeStar+bc.Opcode(bc.KindPosStar)
}

// everyBranch calls fn with the first significant instruction of each
// branch of the bracket at pc and reports whether all calls returned true.
func everyBranch(code []byte, pc int, fn func(first int) bool) bool {
	for {
		op := bc.Opcode(code[pc])
		body := pc + op.Info().Len
		if op == bc.OpCond {
			// A condition without a "no" branch may match nothing.
			if bc.Opcode(code[pc+bc.GetLink(code, pc)]) != bc.OpAlt {
				return false
			}
		}
		if !fn(firstSignificant(code, body, false)) {
			return false
		}
		pc += bc.GetLink(code, pc)
		if bc.Opcode(code[pc]) != bc.OpAlt {
			return true
		}
	}
}

// charAt decodes the character operand starting at code[at].
func charAt(code []byte, at int, utf bool) rune {
	if !utf {
		return rune(code[at])
	}
	r, _ := utf8.DecodeRune(code[at:])
	return r
}

// firstAssertedChar returns the literal every match of the bracket at pc
// must start with.
func firstAssertedChar(code []byte, pc int, utf bool) (ch rune, caseless, ok bool) {
	found := false
	all := everyBranch(code, pc, func(first int) bool {
		op := bc.Opcode(code[first])
		var c rune
		var ci bool
		switch {
		case op == bc.OpBra || op == bc.OpCBra || op == bc.OpOnce || op == bc.OpAssert:
			var sub bool
			c, ci, sub = firstAssertedChar(code, first, utf)
			if !sub {
				return false
			}
		case op == bc.OpChar || op == bc.OpCharI:
			c, ci = charAt(code, first+1, utf), op == bc.OpCharI
		default:
			base, kind, isRepeat := bc.RepeatOf(op)
			if !isRepeat || (base != bc.OpStar && base != bc.OpStarI) {
				return false
			}
			switch kind {
			case bc.KindPlus, bc.KindMinPlus, bc.KindPosPlus:
				c = charAt(code, first+1, utf)
			case bc.KindRange, bc.KindMinRange, bc.KindPosRange:
				if bc.Get2(code, first+1) == 0 {
					return false
				}
				c = charAt(code, first+5, utf)
			default:
				return false
			}
			ci = base == bc.OpStarI
		}
		if found && (c != ch || ci != caseless) {
			return false
		}
		ch, caseless, found = c, ci, true
		return true
	})
	return ch, caseless, all && found
}

// startSet collects the possible first bytes of a match.
type startSet struct {
	code   []byte
	utf    bool
	tables *chartables.Tables
	bits   [32]byte
}

// bracket adds the first bytes of every branch of the bracket at pc. It
// reports whether each branch surely consumes a character (nonEmpty) and
// whether the set could be worked out at all.
func (s *startSet) bracket(pc int) (nonEmpty, ok bool) {
	nonEmpty = true
	for {
		op := bc.Opcode(s.code[pc])
		ne, branchOK := s.branch(pc + op.Info().Len)
		if !branchOK {
			return false, false
		}
		nonEmpty = nonEmpty && ne
		pc += bc.GetLink(s.code, pc)
		if bc.Opcode(s.code[pc]) != bc.OpAlt {
			return nonEmpty, true
		}
	}
}

func (s *startSet) branch(pc int) (nonEmpty, ok bool) {
	code := s.code
	for {
		pc = firstSignificant(code, pc, true)
		op := bc.Opcode(code[pc])
		switch op {
		case bc.OpAlt, bc.OpKet, bc.OpKetRMax, bc.OpKetRMin, bc.OpEnd:
			return false, true

		case bc.OpSOD, bc.OpSOM, bc.OpSetSOM, bc.OpEODN, bc.OpEOD,
			bc.OpCirc, bc.OpCircM, bc.OpDoll, bc.OpDollM, bc.OpClose:
			pc++
			continue

		case bc.OpAssert:
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpBra, bc.OpCBra, bc.OpOnce, bc.OpSBra, bc.OpSCBra:
			ne, ok := s.bracket(pc)
			if !ok {
				return false, false
			}
			if ne {
				return true, true
			}
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpBraZero, bc.OpBraMinZero:
			pc++
			if _, ok := s.bracket(pc); !ok {
				return false, false
			}
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpChar, bc.OpCharI:
			s.addChar(charAt(code, pc+1, s.utf), op == bc.OpCharI)
			return true, true

		case bc.OpClass, bc.OpNClass:
			s.addClass(code[pc+1:pc+1+bc.ClassMapSize], op == bc.OpNClass)
			pc += op.Info().Len
			if base, kind, ok := bc.RepeatOf(bc.Opcode(code[pc])); ok && base == bc.OpCRStar && minZero(code, pc, kind) {
				pc += bc.Length(code, pc, s.utf)
				continue
			}
			return true, true
		}

		if bc.SingleType(op) {
			return true, s.addType(op)
		}
		base, kind, isRepeat := bc.RepeatOf(op)
		if !isRepeat || base == bc.OpCRStar || base == bc.OpNotStar || base == bc.OpNotStarI {
			return false, false
		}
		operand := pc + 1
		if kind.Bounded() {
			operand += 2 * bc.Imm2Size
		}
		if base == bc.OpTypeStar {
			if !s.addType(bc.Opcode(code[operand])) {
				return false, false
			}
		} else {
			s.addChar(charAt(code, operand, s.utf), base == bc.OpStarI)
		}
		if !minZero(code, pc, kind) {
			return true, true
		}
		pc += bc.Length(code, pc, s.utf)
	}
}

func (s *startSet) addByte(b byte) {
	setBit(&s.bits, int(b))
}

// addChar adds the first byte of ch, and of its other case when caseless.
func (s *startSet) addChar(ch rune, caseless bool) {
	var buf [utf8.UTFMax]byte
	add := func(r rune) {
		if !s.utf {
			s.addByte(byte(r))
			return
		}
		utf8.EncodeRune(buf[:], r)
		s.addByte(buf[0])
	}
	add(ch)
	if !caseless {
		return
	}
	if ch < 256 {
		add(rune(s.tables.Flip[ch]))
	}
	if s.utf {
		for f := unicode.SimpleFold(ch); f != ch; f = unicode.SimpleFold(f) {
			add(f)
		}
	}
}

// addClass adds a class bitmap. In UTF mode characters above 127 start
// with a lead byte, and a negated class also matches everything above 255.
func (s *startSet) addClass(m []byte, negated bool) {
	for c := 0; c < 256; c++ {
		if m[c/8]&(1<<(c%8)) == 0 {
			continue
		}
		switch {
		case !s.utf || c < 128:
			s.addByte(byte(c))
		case c < 0xc0:
			s.addByte(0xc2)
		default:
			s.addByte(0xc3)
		}
	}
	if negated && s.utf {
		for b := 0xc4; b <= 0xf4; b++ {
			s.addByte(byte(b))
		}
	}
}

// addType adds the first bytes of a one-character type. It reports false
// for types that can start with almost any byte.
func (s *startSet) addType(op bc.Opcode) bool {
	t := s.tables
	var m [32]byte
	negated := false
	switch op {
	case bc.OpDigit, bc.OpNotDigit:
		m, negated = t.Bitmap(chartables.Digit), op == bc.OpNotDigit
	case bc.OpWhitespace, bc.OpNotWhitespace:
		m, negated = t.Bitmap(chartables.Space), op == bc.OpNotWhitespace
	case bc.OpWordchar, bc.OpNotWordchar:
		m, negated = t.Bitmap(chartables.Word), op == bc.OpNotWordchar
	case bc.OpHSpace:
		for _, c := range []int{0x09, 0x20, 0xa0} {
			setBit(&m, c)
		}
		if s.utf {
			s.addByte(0xe1)
			s.addByte(0xe2)
			s.addByte(0xe3)
		}
	case bc.OpVSpace, bc.OpAnyNL:
		for _, c := range []int{0x0a, 0x0b, 0x0c, 0x0d, 0x85} {
			setBit(&m, c)
		}
		if s.utf {
			s.addByte(0xe2)
		}
	default:
		return false
	}
	if negated {
		for i := range m {
			m[i] = ^m[i]
		}
	}
	s.addClass(m[:], negated)
	return true
}

// findFirstChar works out what a match must start with: one literal, a
// set of possible first bytes, or nothing useful.
func findFirstChar(code []byte, utf bool, tables *chartables.Tables) FirstChar {
	if ch, caseless, ok := firstAssertedChar(code, 0, utf); ok {
		return FirstChar{Kind: FirstLiteral, Char: ch, Caseless: caseless}
	}
	s := &startSet{code: code, utf: utf, tables: tables}
	if nonEmpty, ok := s.bracket(0); ok && nonEmpty {
		return FirstChar{Kind: FirstSet, Set: s.bits}
	}
	return FirstChar{Kind: FirstUnknown}
}

// reqState is the last literal a branch is known to require so far.
type reqState struct {
	known    bool
	ch       rune
	caseless bool
	items    int // consuming items seen before it
}

// findRequiredChar returns the last literal character that every match
// must contain. A pattern whose only requirement is its first character
// reports none, and so does any program using ACCEPT, since a match may
// end before the literals that follow it.
func findRequiredChar(code []byte, utf bool) RequiredChar {
	if hasAccept(code, utf) {
		return RequiredChar{}
	}
	r, ok := requiredInBracket(code, 0, utf)
	if !ok || !r.known || r.items == 0 {
		return RequiredChar{}
	}
	return RequiredChar{Known: true, Char: r.ch, Caseless: r.caseless}
}

func hasAccept(code []byte, utf bool) bool {
	for pc := 0; pc < len(code); pc = bc.Next(code, pc, utf) {
		if bc.Opcode(code[pc]) == bc.OpAccept {
			return true
		}
	}
	return false
}

func requiredInBracket(code []byte, pc int, utf bool) (reqState, bool) {
	var out reqState
	first := true
	for {
		op := bc.Opcode(code[pc])
		r := requiredInBranch(code, pc+op.Info().Len, utf)
		switch {
		case first:
			out = r
		case !r.known || !out.known || r.ch != out.ch || r.caseless != out.caseless:
			return reqState{}, false
		case r.items < out.items:
			out.items = r.items
		}
		first = false
		pc += bc.GetLink(code, pc)
		if bc.Opcode(code[pc]) != bc.OpAlt {
			return out, out.known
		}
	}
}

func requiredInBranch(code []byte, pc int, utf bool) reqState {
	var req reqState
	items := 0
	set := func(ch rune, caseless bool) {
		req = reqState{known: true, ch: ch, caseless: caseless, items: items}
	}
	for pc < len(code) {
		op := bc.Opcode(code[pc])
		switch op {
		case bc.OpAlt, bc.OpKet, bc.OpKetRMax, bc.OpKetRMin, bc.OpEnd:
			return req

		case bc.OpChar, bc.OpCharI:
			set(charAt(code, pc+1, utf), op == bc.OpCharI)
			items++

		case bc.OpBra, bc.OpCBra, bc.OpOnce:
			if sub, ok := requiredInBracket(code, pc, utf); ok {
				sub.items += items
				req = sub
			}
			items++
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpSBra, bc.OpSCBra, bc.OpCond, bc.OpSCond,
			bc.OpAssert, bc.OpAssertNot, bc.OpAssertBack, bc.OpAssertBackNot:
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpBraZero, bc.OpBraMinZero, bc.OpSkipZero:
			pc = bc.Close(code, pc+1) + 1 + bc.LinkSize
			continue

		case bc.OpRepeat, bc.OpMinRepeat:
			body := pc + op.Info().Len
			if bc.Get2(code, pc+1) > 0 {
				if sub, ok := requiredInBracket(code, body, utf); ok {
					sub.items += items
					req = sub
				}
			}
			items++
			pc = bc.Close(code, body) + 1 + bc.LinkSize
			continue

		default:
			base, kind, isRepeat := bc.RepeatOf(op)
			if isRepeat && (base == bc.OpStar || base == bc.OpStarI) && !minZero(code, pc, kind) {
				operand := pc + 1
				if kind.Bounded() {
					operand += 2 * bc.Imm2Size
				}
				set(charAt(code, operand, utf), base == bc.OpStarI)
			}
			if !zeroWidth(op) {
				items++
			}
		}
		pc += bc.Length(code, pc, utf)
	}
	return req
}
