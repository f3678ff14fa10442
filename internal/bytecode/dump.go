package bytecode

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Disassemble writes one line per instruction: offset, name and operands.
func Disassemble(w io.Writer, code []byte, utf bool) error {
	for pc := 0; pc < len(code); {
		n := Length(code, pc, utf)
		if n <= 0 || pc+n > len(code) {
			return fmt.Errorf("invalid instruction at %d", pc)
		}
		if _, err := fmt.Fprintf(w, "%4d  %s\n", pc, Instruction(code[pc:pc+n], pc, utf)); err != nil {
			return err
		}
		pc += n
	}
	return nil
}

// Instruction renders a single instruction. ins holds exactly the
// instruction's bytes and pc its offset in the program.
func Instruction(ins []byte, pc int, utf bool) string {
	op := Opcode(ins[0])
	name := fmt.Sprintf("%-16s", op)

	if base, kind, ok := RepeatOf(op); ok {
		var bounds string
		at := 1
		if kind.Bounded() {
			bounds = fmt.Sprintf("{%d,%s} ", Get2(ins, 1), maxString(Get2(ins, 3)))
			at = 5
		}
		switch base {
		case OpCRStar:
			return strings.TrimRight(name+bounds, " ")
		case OpTypeStar:
			t := Opcode(ins[at])
			if t == OpProp || t == OpNotProp {
				return fmt.Sprintf("%s%s%s %d %d", name, bounds, t, ins[at+1], ins[at+2])
			}
			return name + bounds + t.String()
		}
		return name + bounds + charString(ins[at:], utf)
	}

	switch op {
	case OpChar, OpCharI, OpNot, OpNotI:
		return name + charString(ins[1:], utf)
	case OpProp, OpNotProp:
		return fmt.Sprintf("%s%d %d", name, ins[1], ins[2])
	case OpClass, OpNClass:
		return name + mapString(ins[1:1+ClassMapSize])
	case OpXClass:
		return fmt.Sprintf("%slen=%d flags=%#x", name, GetLink(ins, 0), ins[1+LinkSize])
	case OpRef, OpRefI, OpCRef, OpClose:
		return fmt.Sprintf("%s%d", name, Get2(ins, 1))
	case OpRRef:
		if Get2(ins, 1) == RRefAny {
			return name + "any"
		}
		return fmt.Sprintf("%s%d", name, Get2(ins, 1))
	case OpRecurse:
		return fmt.Sprintf("%s-> %d", name, GetRecurse(ins, 0))
	case OpCBra, OpSCBra:
		return fmt.Sprintf("%s%d (-> %d) #%d", name, GetLink(ins, 0), pc+GetLink(ins, 0), Get2(ins, 1+LinkSize))
	case OpKet, OpKetRMax, OpKetRMin:
		return fmt.Sprintf("%s%d (<- %d)", name, GetLink(ins, 0), pc-GetLink(ins, 0))
	case OpReverse:
		return fmt.Sprintf("%s%d", name, GetLink(ins, 0))
	case OpRepeat, OpMinRepeat:
		return fmt.Sprintf("%s{%d,%d}", name, Get2(ins, 1), Get2(ins, 3))
	case OpOpt:
		return fmt.Sprintf("%s%#02x", name, ins[1])
	case OpMark:
		return fmt.Sprintf("%s%q", name, ins[2:2+int(ins[1])])
	}
	if Opener(op) || op == OpAlt {
		return fmt.Sprintf("%s%d (-> %d)", name, GetLink(ins, 0), pc+GetLink(ins, 0))
	}
	return strings.TrimRight(name, " ")
}

func maxString(v int) string {
	if v == RepeatUnlimited {
		return ""
	}
	return fmt.Sprint(v)
}

func charString(b []byte, utf bool) string {
	if utf {
		r, _ := utf8.DecodeRune(b)
		return fmt.Sprintf("%q", r)
	}
	if b[0] >= 0x20 && b[0] < 0x7f {
		return fmt.Sprintf("%q", rune(b[0]))
	}
	return fmt.Sprintf("\\x%02x", b[0])
}

func mapString(m []byte) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for c := 0; c < 256; c++ {
		if m[c/8]&(1<<(c%8)) == 0 {
			continue
		}
		lo := c
		for c+1 < 256 && m[(c+1)/8]&(1<<((c+1)%8)) != 0 {
			c++
		}
		sb.WriteString(byteString(lo))
		if c > lo {
			sb.WriteByte('-')
			sb.WriteString(byteString(c))
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func byteString(c int) string {
	if c > 0x20 && c < 0x7f && c != '-' && c != ']' && c != '\\' {
		return string(rune(c))
	}
	return fmt.Sprintf("\\x%02x", c)
}
