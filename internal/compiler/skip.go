package compiler

import bc "github.com/KromDaniel/pcrego/internal/bytecode"

// firstSignificant returns the pc of the first instruction at or after pc
// that is not a zero-width marker. Option changes, condition references,
// DEFINE, MARK and SKIPZERO with its bracket are always skipped. Negative
// and backward assertions and word boundaries are skipped only when
// skipAssert is set; positive lookahead is never skipped.
func firstSignificant(code []byte, pc int, skipAssert bool) int {
	for pc < len(code) {
		switch op := bc.Opcode(code[pc]); op {
		case bc.OpAssertNot, bc.OpAssertBack, bc.OpAssertBackNot:
			if !skipAssert {
				return pc
			}
			pc = bc.Close(code, pc) + 1 + bc.LinkSize

		case bc.OpWordBoundary, bc.OpNotWordBoundary:
			if !skipAssert {
				return pc
			}
			pc++

		case bc.OpOpt, bc.OpCRef, bc.OpRRef, bc.OpDef, bc.OpMark:
			pc += bc.Length(code, pc, false)

		case bc.OpSkipZero:
			pc++
			pc = bc.Close(code, pc) + 1 + bc.LinkSize

		default:
			return pc
		}
	}
	return pc
}
