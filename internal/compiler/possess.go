package compiler

import (
	"unicode"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
	"github.com/KromDaniel/pcrego/internal/chartables"
)

// charset approximates the characters a single item can match: a bitmap
// for the byte range plus a summary of what it matches above 255.
type charset struct {
	bits      [32]byte
	wideAll   bool   // arbitrary characters above 255
	wideSome  bool   // some characters above 255, not enumerated
	wideChars []rune // exactly these characters above 255

	// not holds the excluded characters of a NOT or NOTI item.
	not     []rune
	isNot   bool
	literal []rune // the characters of a CHAR or CHARI item
}

// possessifier rewrites greedy single-item repeats into possessive ones
// when the item that follows can never match what the repeat matches.
type possessifier struct {
	code   []byte
	utf    bool
	tables *chartables.Tables
	count  int
}

// autoPossessify runs the pass over a finished program and returns the
// number of repeats it converted.
func autoPossessify(code []byte, utf bool, tables *chartables.Tables) int {
	p := &possessifier{code: code, utf: utf, tables: tables}
	for pc := 0; pc < len(code); pc = bc.Next(code, pc, utf) {
		op := bc.Opcode(code[pc])
		if op == bc.OpEnd {
			break
		}
		switch op {
		case bc.OpClass, bc.OpNClass:
			cr := pc + op.Info().Len
			if base, kind, ok := bc.RepeatOf(bc.Opcode(code[cr])); ok && base == bc.OpCRStar && greedy(kind) {
				item := p.classSet(pc)
				p.try(cr, base, kind, item)
			}
			continue
		}
		base, kind, ok := bc.RepeatOf(op)
		if !ok || base == bc.OpCRStar || !greedy(kind) {
			continue
		}
		operand := pc + 1
		if kind.Bounded() {
			operand += 2 * bc.Imm2Size
		}
		var item *charset
		switch base {
		case bc.OpTypeStar:
			item = p.typeSet(bc.Opcode(code[operand]))
		case bc.OpStar, bc.OpStarI:
			item = p.charSet(charAt(code, operand, utf), base == bc.OpStarI)
		case bc.OpNotStar, bc.OpNotStarI:
			item = p.notSet(charAt(code, operand, utf), base == bc.OpNotStarI)
		}
		if item != nil {
			p.try(pc, base, kind, item)
		}
	}
	return p.count
}

func greedy(k bc.RepeatKind) bool {
	switch k {
	case bc.KindStar, bc.KindPlus, bc.KindQuery, bc.KindRange:
		return true
	}
	return false
}

// try converts the repeat at pc when the following item is disjoint.
func (p *possessifier) try(pc int, base bc.Opcode, kind bc.RepeatKind, item *charset) {
	next := p.nextItem(bc.Next(p.code, pc, p.utf))
	if next == nil || !disjoint(item, next) {
		return
	}
	p.code[pc] = byte(base + bc.Opcode(kind.ToPossessive()))
	p.count++
}

// nextItem describes the item at pc, skipping option changes. It returns
// nil when that item may match nothing or cannot be summarized.
func (p *possessifier) nextItem(pc int) *charset {
	code := p.code
	for pc < len(code) && bc.Opcode(code[pc]) == bc.OpOpt {
		pc += bc.Length(code, pc, p.utf)
	}
	if pc >= len(code) {
		return nil
	}
	op := bc.Opcode(code[pc])
	switch op {
	case bc.OpChar, bc.OpCharI:
		return p.charSet(charAt(code, pc+1, p.utf), op == bc.OpCharI)
	case bc.OpNot, bc.OpNotI:
		return p.notSet(charAt(code, pc+1, p.utf), op == bc.OpNotI)
	case bc.OpClass, bc.OpNClass:
		cr := pc + op.Info().Len
		if base, kind, ok := bc.RepeatOf(bc.Opcode(code[cr])); ok && base == bc.OpCRStar && minZero(code, cr, kind) {
			return nil
		}
		return p.classSet(pc)
	}
	if bc.SingleType(op) {
		return p.typeSet(op)
	}
	base, kind, ok := bc.RepeatOf(op)
	if !ok || base == bc.OpCRStar || minZero(code, pc, kind) {
		return nil
	}
	operand := pc + 1
	if kind.Bounded() {
		operand += 2 * bc.Imm2Size
	}
	switch base {
	case bc.OpTypeStar:
		return p.typeSet(bc.Opcode(code[operand]))
	case bc.OpStar, bc.OpStarI:
		return p.charSet(charAt(code, operand, p.utf), base == bc.OpStarI)
	default:
		return p.notSet(charAt(code, operand, p.utf), base == bc.OpNotStarI)
	}
}

// cases returns ch and, when caseless, its other case forms.
func (p *possessifier) cases(ch rune, caseless bool) []rune {
	out := []rune{ch}
	if !caseless {
		return out
	}
	if !p.utf || ch < 128 {
		if ch < 256 {
			if f := rune(p.tables.Flip[ch]); f != ch {
				out = append(out, f)
			}
		}
		return out
	}
	for f := unicode.SimpleFold(ch); f != ch; f = unicode.SimpleFold(f) {
		out = append(out, f)
	}
	return out
}

func (p *possessifier) charSet(ch rune, caseless bool) *charset {
	s := &charset{literal: p.cases(ch, caseless)}
	for _, r := range s.literal {
		if r < 256 {
			setBit(&s.bits, int(r))
		} else {
			s.wideChars = append(s.wideChars, r)
		}
	}
	return s
}

func (p *possessifier) notSet(ch rune, caseless bool) *charset {
	return &charset{isNot: true, not: p.cases(ch, caseless)}
}

func (p *possessifier) classSet(pc int) *charset {
	s := &charset{}
	copy(s.bits[:], p.code[pc+1:pc+1+bc.ClassMapSize])
	if bc.Opcode(p.code[pc]) == bc.OpNClass && p.utf {
		s.wideAll = true
	}
	return s
}

// typeSet summarizes a one-character type, or returns nil for types that
// match too much to be worth it.
func (p *possessifier) typeSet(op bc.Opcode) *charset {
	t := p.tables
	s := &charset{}
	negated := false
	switch op {
	case bc.OpDigit, bc.OpNotDigit:
		s.bits, negated = t.Bitmap(chartables.Digit), op == bc.OpNotDigit
	case bc.OpWhitespace, bc.OpNotWhitespace:
		s.bits, negated = t.Bitmap(chartables.Space), op == bc.OpNotWhitespace
	case bc.OpWordchar, bc.OpNotWordchar:
		s.bits, negated = t.Bitmap(chartables.Word), op == bc.OpNotWordchar
	case bc.OpHSpace, bc.OpNotHSpace:
		for _, c := range []int{0x09, 0x20, 0xa0} {
			setBit(&s.bits, c)
		}
		negated = op == bc.OpNotHSpace
		s.wideSome = p.utf
	case bc.OpVSpace, bc.OpNotVSpace:
		for _, c := range []int{0x0a, 0x0b, 0x0c, 0x0d, 0x85} {
			setBit(&s.bits, c)
		}
		negated = op == bc.OpNotVSpace
		s.wideSome = p.utf
	default:
		return nil
	}
	if negated {
		for i := range s.bits {
			s.bits[i] = ^s.bits[i]
		}
		s.wideSome = false
		s.wideAll = p.utf
	}
	return s
}

// disjoint reports whether no character can match both a and b. It errs
// on the side of false.
func disjoint(a, b *charset) bool {
	switch {
	case a.isNot && b.isNot:
		return false
	case a.isNot:
		return b.literal != nil && subset(b.literal, a.not)
	case b.isNot:
		return a.literal != nil && subset(a.literal, b.not)
	}
	for i := range a.bits {
		if a.bits[i]&b.bits[i] != 0 {
			return false
		}
	}
	return wideDisjoint(a, b) && wideDisjoint(b, a)
}

func wideDisjoint(a, b *charset) bool {
	if a.wideAll && (b.wideAll || b.wideSome || len(b.wideChars) > 0) {
		return false
	}
	if a.wideSome && (b.wideSome || len(b.wideChars) > 0) {
		return false
	}
	for _, x := range a.wideChars {
		for _, y := range b.wideChars {
			if x == y {
				return false
			}
		}
	}
	return true
}

func subset(xs, of []rune) bool {
	for _, x := range xs {
		found := false
		for _, y := range of {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
