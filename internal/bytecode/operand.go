package bytecode

import "fmt"

// Get2 reads a big-endian two-byte operand.
func Get2(code []byte, pc int) int {
	return int(code[pc])<<8 | int(code[pc+1])
}

// Put2 writes a big-endian two-byte operand.
func Put2(code []byte, pc, v int) {
	code[pc] = byte(v >> 8)
	code[pc+1] = byte(v)
}

// GetLink reads the link operand of the instruction at pc.
func GetLink(code []byte, pc int) int {
	return Get2(code, pc+1)
}

// PutLink writes the link operand of the instruction at pc.
func PutLink(code []byte, pc, v int) {
	Put2(code, pc+1, v)
}

// RecurseUnresolved is the RECURSE operand of a call whose target group
// has not been compiled yet. No bracket can start there since a program
// is at most MaxLink bytes long.
const RecurseUnresolved = MaxLink

// GetRecurse reads the target of a RECURSE at pc as an offset from the
// start of the program.
func GetRecurse(code []byte, pc int) int {
	return Get2(code, pc+1)
}

// PutRecurse sets the target of a RECURSE at pc.
func PutRecurse(code []byte, pc, target int) {
	Put2(code, pc+1, target)
}

// Append2 appends a big-endian two-byte value.
func Append2(code []byte, v int) []byte {
	return append(code, byte(v>>8), byte(v))
}

// UTF8Extra returns the number of continuation bytes following a UTF-8
// lead byte.
func UTF8Extra(lead byte) int {
	switch {
	case lead >= 0xf0:
		return 3
	case lead >= 0xe0:
		return 2
	case lead >= 0xc0:
		return 1
	}
	return 0
}

// Length returns the full length of the instruction at pc. It returns 0
// when the opcode is unknown or the instruction's own length operand is
// out of reach.
func Length(code []byte, pc int, utf bool) int {
	op := Opcode(code[pc])
	if !op.Valid() {
		return 0
	}
	n := op.Info().Len
	switch op {
	case OpXClass:
		if pc+1+LinkSize > len(code) {
			return 0
		}
		return GetLink(code, pc)
	case OpMark:
		if pc+1 >= len(code) {
			return 0
		}
		return 3 + int(code[pc+1])
	}
	if pc+n > len(code) {
		return n
	}
	if utf && HasChar(op) {
		n += UTF8Extra(code[pc+n-1])
	}
	if base, _, ok := RepeatOf(op); ok && base == OpTypeStar {
		t := Opcode(code[pc+n-1])
		if t == OpProp || t == OpNotProp {
			n += 2
		}
	}
	return n
}

// Next returns the pc of the instruction following the one at pc.
func Next(code []byte, pc int, utf bool) int {
	return pc + Length(code, pc, utf)
}

// Validate walks the stream from offset 0 to its end using the length
// table and checks that every bracket link lands on an instruction
// boundary holding an ALT or a KET.
func Validate(code []byte, utf bool) error {
	starts := make(map[int]bool)
	pc, last := 0, -1
	for pc < len(code) {
		n := Length(code, pc, utf)
		if n <= 0 {
			return fmt.Errorf("invalid opcode 0x%02x at %d", code[pc], pc)
		}
		if pc+n > len(code) {
			return fmt.Errorf("%s at %d runs past end of program", Opcode(code[pc]), pc)
		}
		starts[pc] = true
		last = pc
		pc += n
	}
	if last < 0 || Opcode(code[last]) != OpEnd {
		return fmt.Errorf("program does not end with END")
	}

	for pc := 0; pc < len(code); pc = Next(code, pc, utf) {
		op := Opcode(code[pc])
		switch {
		case Opener(op) || op == OpAlt:
			target := pc + GetLink(code, pc)
			if !starts[target] {
				return fmt.Errorf("%s at %d links into the middle of an instruction (%d)", op, pc, target)
			}
			if t := Opcode(code[target]); t != OpAlt && !Ket(t) {
				return fmt.Errorf("%s at %d links to %s at %d", op, pc, t, target)
			}
		case Ket(op):
			target := pc - GetLink(code, pc)
			if target < 0 || !starts[target] || !Opener(Opcode(code[target])) {
				return fmt.Errorf("%s at %d does not link back to a bracket", op, pc)
			}
		case op == OpRecurse:
			target := GetRecurse(code, pc)
			if target >= len(code) || !starts[target] || !Opener(Opcode(code[target])) {
				return fmt.Errorf("RECURSE at %d does not target a bracket", pc)
			}
		}
	}
	return nil
}

// Close returns the pc of the KET that closes the bracket opened at pc.
func Close(code []byte, pc int) int {
	for Opcode(code[pc]) != OpKet && Opcode(code[pc]) != OpKetRMax && Opcode(code[pc]) != OpKetRMin {
		pc += GetLink(code, pc)
	}
	return pc
}
