package compiler

import bc "github.com/KromDaniel/pcrego/internal/bytecode"

// couldBeEmpty reports whether any branch of the bracket opened at pc can
// match without consuming a character. Subroutine calls are followed into
// their targets; calls that are unresolved or target a bracket still being
// compiled are assumed to be able to match empty.
func couldBeEmpty(code []byte, pc int, utf bool) bool {
	p := &emptyScan{code: code, utf: utf, active: make(map[int]bool)}
	return p.bracket(pc)
}

type emptyScan struct {
	code   []byte
	utf    bool
	active map[int]bool
}

func (p *emptyScan) bracket(pc int) bool {
	code := p.code
	op := bc.Opcode(code[pc])
	branches := 0
	empty := false
	q := pc + op.Info().Len
	for {
		e, end := p.branch(q)
		if e {
			empty = true
		}
		branches++
		if bc.Opcode(code[end]) != bc.OpAlt {
			break
		}
		q = end + 1 + bc.LinkSize
	}
	if (op == bc.OpCond || op == bc.OpSCond) && branches == 1 {
		return true
	}
	return empty
}

// branch scans from pc to the end of its branch. It returns whether the
// whole branch can match empty and the pc where the scan stopped.
func (p *emptyScan) branch(pc int) (bool, int) {
	code := p.code
	for pc < len(code) {
		op := bc.Opcode(code[pc])
		switch op {
		case bc.OpAlt, bc.OpKet, bc.OpKetRMax, bc.OpKetRMin, bc.OpEnd:
			return true, pc

		case bc.OpBra, bc.OpCBra, bc.OpOnce, bc.OpCond, bc.OpSBra, bc.OpSCBra, bc.OpSCond:
			if isOpen(code, pc) {
				return true, pc
			}
			if !p.bracket(pc) {
				return false, pc
			}
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpAssert, bc.OpAssertNot, bc.OpAssertBack, bc.OpAssertBackNot:
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpBraZero, bc.OpBraMinZero, bc.OpSkipZero:
			pc = bc.Close(code, pc+1) + 1 + bc.LinkSize
			continue

		case bc.OpRepeat, bc.OpMinRepeat:
			if bc.Get2(code, pc+1) == 0 {
				pc = bc.Close(code, pc+op.Info().Len) + 1 + bc.LinkSize
			} else {
				pc += op.Info().Len
			}
			continue

		case bc.OpRecurse:
			target := bc.GetRecurse(code, pc)
			if target == bc.RecurseUnresolved {
				return true, pc
			}
			if isOpen(code, target) {
				return true, pc
			}
			if !p.active[target] {
				p.active[target] = true
				e := p.bracket(target)
				delete(p.active, target)
				if !e {
					return false, pc
				}
			}

		case bc.OpAccept:
			return true, pc

		case bc.OpRef, bc.OpRefI:
			// A back-reference to an unset or empty group matches empty.
			pc += op.Info().Len
			if base, kind, ok := bc.RepeatOf(bc.Opcode(code[pc])); ok && base == bc.OpCRStar && !minZero(code, pc, kind) {
				pc += bc.Length(code, pc, p.utf)
			}
			continue

		case bc.OpClass, bc.OpNClass, bc.OpXClass:
			pc += bc.Length(code, pc, p.utf)
			base, kind, ok := bc.RepeatOf(bc.Opcode(code[pc]))
			if !ok || base != bc.OpCRStar || !minZero(code, pc, kind) {
				return false, pc
			}

		default:
			switch {
			case zeroWidth(op):
			case bc.SingleType(op), op >= bc.OpChar && op <= bc.OpNotI:
				return false, pc
			default:
				_, kind, ok := bc.RepeatOf(op)
				if !ok || !minZero(code, pc, kind) {
					return false, pc
				}
			}
		}
		pc += bc.Length(code, pc, p.utf)
	}
	return true, pc
}

// minZero reports whether the repeat at pc allows zero iterations.
func minZero(code []byte, pc int, kind bc.RepeatKind) bool {
	switch kind {
	case bc.KindStar, bc.KindMinStar, bc.KindQuery, bc.KindMinQuery, bc.KindPosStar, bc.KindPosQuery:
		return true
	case bc.KindRange, bc.KindMinRange, bc.KindPosRange:
		return bc.Get2(code, pc+1) == 0
	}
	return false
}
