package compiler

import bc "github.com/KromDaniel/pcrego/internal/bytecode"

// fixedStatus is the outcome of a fixed-length measurement.
type fixedStatus int

const (
	fixedOK          fixedStatus = iota
	fixedVariable                // branches or repeats differ in length
	fixedUnsupported             // an item that lookbehind cannot step over
	fixedDeferred                // depends on a recursion not yet resolved
)

// fixedLength measures, in characters, the branch starting at pc and
// ending at its ALT or KET. Brackets inside it must have branches of equal
// length.
func fixedLength(code []byte, pc int, utf bool) (int, fixedStatus) {
	m := &measurer{code: code, utf: utf, active: make(map[int]bool)}
	n, st, _ := m.branch(pc)
	return n, st
}

type measurer struct {
	code   []byte
	utf    bool
	active map[int]bool // recursion targets being measured
}

// bracket measures the bracket opened at pc.
func (m *measurer) bracket(pc int) (int, fixedStatus) {
	code := m.code
	op := bc.Opcode(code[pc])
	if bc.Opcode(code[bc.Close(code, pc)]) != bc.OpKet {
		return 0, fixedVariable
	}

	length, branches := -1, 0
	p := pc + op.Info().Len
	for {
		n, st, end := m.branch(p)
		if st != fixedOK {
			return 0, st
		}
		if length >= 0 && n != length {
			return 0, fixedVariable
		}
		length = n
		branches++
		if bc.Opcode(code[end]) != bc.OpAlt {
			break
		}
		p = end + 1 + bc.LinkSize
	}
	if op == bc.OpCond && branches == 1 && length != 0 {
		return 0, fixedVariable
	}
	return length, fixedOK
}

// branch measures from pc to the ALT or KET ending the branch and returns
// the pc of that terminator.
func (m *measurer) branch(pc int) (int, fixedStatus, int) {
	code := m.code
	total := 0
	for pc < len(code) {
		op := bc.Opcode(code[pc])
		switch op {
		case bc.OpAlt, bc.OpKet, bc.OpKetRMax, bc.OpKetRMin, bc.OpEnd:
			return total, fixedOK, pc

		case bc.OpBra, bc.OpCBra, bc.OpOnce, bc.OpCond:
			n, st := m.bracket(pc)
			if st != fixedOK {
				return 0, st, pc
			}
			total += n
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpSBra, bc.OpSCBra, bc.OpSCond, bc.OpBraZero, bc.OpBraMinZero,
			bc.OpRef, bc.OpRefI, bc.OpAnyNL, bc.OpExtUni, bc.OpAccept:
			return 0, fixedVariable, pc

		case bc.OpAssert, bc.OpAssertNot, bc.OpAssertBack, bc.OpAssertBackNot:
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpSkipZero:
			pc = bc.Close(code, pc+1) + 1 + bc.LinkSize
			continue

		case bc.OpRepeat, bc.OpMinRepeat:
			lo, hi := bc.Get2(code, pc+1), bc.Get2(code, pc+3)
			if lo != hi {
				return 0, fixedVariable, pc
			}
			pc += op.Info().Len
			n, st := m.bracket(pc)
			if st != fixedOK {
				return 0, st, pc
			}
			total += n * lo
			pc = bc.Close(code, pc) + 1 + bc.LinkSize
			continue

		case bc.OpRecurse:
			n, st := m.recurse(pc)
			if st != fixedOK {
				return 0, st, pc
			}
			total += n
			pc += op.Info().Len
			continue

		case bc.OpAnyByte:
			if m.utf {
				return 0, fixedUnsupported, pc
			}
			total++

		case bc.OpChar, bc.OpCharI, bc.OpNot, bc.OpNotI:
			total++

		case bc.OpClass, bc.OpNClass, bc.OpXClass:
			pc += bc.Length(code, pc, m.utf)
			if base, kind, ok := bc.RepeatOf(bc.Opcode(code[pc])); ok && base == bc.OpCRStar {
				if !kind.Bounded() || bc.Get2(code, pc+1) != bc.Get2(code, pc+3) {
					return 0, fixedVariable, pc
				}
				total += bc.Get2(code, pc+1)
				pc += bc.Length(code, pc, m.utf)
				continue
			}
			total++
			continue

		default:
			switch {
			case bc.SingleType(op):
				total++
			case zeroWidth(op):
			default:
				base, kind, ok := bc.RepeatOf(op)
				if !ok || base == bc.OpCRStar {
					return 0, fixedVariable, pc
				}
				if !kind.Bounded() || bc.Get2(code, pc+1) != bc.Get2(code, pc+3) {
					return 0, fixedVariable, pc
				}
				if base == bc.OpTypeStar {
					switch bc.Opcode(code[pc+5]) {
					case bc.OpAnyNL, bc.OpExtUni:
						return 0, fixedVariable, pc
					case bc.OpAnyByte:
						if m.utf {
							return 0, fixedUnsupported, pc
						}
					}
				}
				total += bc.Get2(code, pc+1)
			}
		}
		pc += bc.Length(code, pc, m.utf)
	}
	return total, fixedOK, pc
}

// recurse measures a subroutine call through its target bracket.
func (m *measurer) recurse(pc int) (int, fixedStatus) {
	target := bc.GetRecurse(m.code, pc)
	if target == bc.RecurseUnresolved {
		return 0, fixedDeferred
	}
	if isOpen(m.code, target) || m.active[target] {
		return 0, fixedVariable
	}
	m.active[target] = true
	defer delete(m.active, target)
	return m.bracket(target)
}

// zeroWidth reports whether op never consumes a character.
func zeroWidth(op bc.Opcode) bool {
	switch op {
	case bc.OpSOD, bc.OpSOM, bc.OpSetSOM, bc.OpNotWordBoundary, bc.OpWordBoundary,
		bc.OpEODN, bc.OpEOD, bc.OpCirc, bc.OpCircM, bc.OpDoll, bc.OpDollM,
		bc.OpOpt, bc.OpCRef, bc.OpRRef, bc.OpDef, bc.OpReverse, bc.OpClose,
		bc.OpMark, bc.OpPrune, bc.OpSkip, bc.OpThen, bc.OpCommit, bc.OpFail:
		return true
	}
	return false
}
