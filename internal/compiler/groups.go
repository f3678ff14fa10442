package compiler

import bc "github.com/KromDaniel/pcrego/internal/bytecode"

// findBracket returns the pc of the opener of capturing group number, or
// -1 when no such group has been compiled yet. Group zero is the whole
// pattern, whose bracket starts at 0.
func findBracket(code []byte, number int, utf bool) int {
	if number == 0 {
		return 0
	}
	for pc := 0; pc < len(code); {
		op := bc.Opcode(code[pc])
		if op == bc.OpEnd {
			break
		}
		if bc.Capturing(op) && bc.Get2(code, pc+1+bc.LinkSize) == number {
			return pc
		}
		n := bc.Length(code, pc, utf)
		if n <= 0 {
			break
		}
		pc += n
	}
	return -1
}

// groupNumberAt returns the group number of the capturing opener at pc.
func groupNumberAt(code []byte, pc int) int {
	return bc.Get2(code, pc+1+bc.LinkSize)
}

// isOpen reports whether the bracket at pc is still being compiled. Its
// link stays zero until the closing KET is written.
func isOpen(code []byte, pc int) bool {
	return bc.GetLink(code, pc) == 0
}
