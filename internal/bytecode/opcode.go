// Package bytecode defines the compiled pattern instruction set: opcodes,
// the opcode length table and helpers for reading and writing operands.
//
// Every instruction starts with a one-byte opcode. Two-byte operands are
// big-endian. Link operands are offsets relative to the start of the
// instruction holding them.
package bytecode

import "fmt"

// Opcode is a single instruction tag.
type Opcode byte

// Operand sizes
const (
	// LinkSize is the width of a relative link operand.
	LinkSize = 2

	// Imm2Size is the width of group numbers, counts and repeat bounds.
	Imm2Size = 2

	// ClassMapSize is the width of an inline 256-bit class bitmap.
	ClassMapSize = 32

	// MaxLink is the largest value a link operand can hold.
	MaxLink = 0xffff

	// RepeatUnlimited is the max operand of a RANGE repeat with no upper bound.
	RepeatUnlimited = 0

	// RRefAny is the RREF operand meaning "inside any recursion".
	RRefAny = 0xffff
)

// Simple items, anchors and literals.
const (
	OpEnd             Opcode = iota // end of program
	OpSOD                           // \A
	OpSOM                           // \G
	OpSetSOM                        // \K
	OpNotWordBoundary               // \B
	OpWordBoundary                  // \b
	OpNotDigit                      // \D
	OpDigit                         // \d
	OpNotWhitespace                 // \S
	OpWhitespace                    // \s
	OpNotWordchar                   // \W
	OpWordchar                      // \w
	OpAny                           // . without dotall
	OpAllAny                        // . with dotall, \N never
	OpAnyByte                       // \C
	OpNotProp                       // \P{..}: type, value
	OpProp                          // \p{..}: type, value
	OpAnyNL                         // \R
	OpNotHSpace                     // \H
	OpHSpace                        // \h
	OpNotVSpace                     // \V
	OpVSpace                        // \v
	OpExtUni                        // \X
	OpEODN                          // \Z
	OpEOD                           // \z
	OpCirc                          // ^
	OpCircM                         // ^ multiline
	OpDoll                          // $
	OpDollM                         // $ multiline
	OpChar                          // literal char
	OpCharI                         // literal char, caseless
	OpNot                           // any char but
	OpNotI                          // any char but, caseless
)

// RepeatKind selects a member of a repeat family. A family is a run of
// opcodes laid out in RepeatKind order starting at its STAR opcode.
type RepeatKind byte

const (
	KindStar RepeatKind = iota
	KindMinStar
	KindPlus
	KindMinPlus
	KindQuery
	KindMinQuery
	KindRange
	KindMinRange
	KindPosStar
	KindPosPlus
	KindPosQuery
	KindPosRange

	kindCount
)

// Repeat families. Char families carry the character as their last
// operand, RANGE members carry min and max before it.
const (
	OpStar Opcode = OpNotI + 1 + Opcode(iota)*Opcode(kindCount)
	OpStarI
	OpNotStar
	OpNotStarI
	OpTypeStar
	OpCRStar
)

// Classes, references and brackets.
const (
	OpClass         Opcode = OpCRStar + Opcode(kindCount) + iota // 32-byte bitmap
	OpNClass                                                     // negated bitmap
	OpXClass                                                     // extended class, own length
	OpRef                                                        // back-reference
	OpRefI                                                       // back-reference, caseless
	OpRecurse                                                    // subroutine call, absolute target
	OpAlt                                                        // start of alternative
	OpKet                                                        // end of group
	OpKetRMax                                                    // end of greedy repeated group
	OpKetRMin                                                    // end of lazy repeated group
	OpAssert                                                     // (?=
	OpAssertNot                                                  // (?!
	OpAssertBack                                                 // (?<=
	OpAssertBackNot                                              // (?<!
	OpReverse                                                    // lookbehind width
	OpOnce                                                       // (?>
	OpBra                                                        // non-capturing group
	OpCBra                                                       // capturing group
	OpCond                                                       // conditional group
	OpSBra                                                       // possibly empty BRA under unbounded repeat
	OpSCBra                                                      // possibly empty CBRA under unbounded repeat
	OpSCond                                                      // possibly empty COND under unbounded repeat
	OpCRef                                                       // condition: group set
	OpRRef                                                       // condition: in recursion
	OpDef                                                        // condition: DEFINE
	OpBraZero                                                    // following group is optional, greedy
	OpBraMinZero                                                 // following group is optional, lazy
	OpSkipZero                                                   // following group is never run
	OpRepeat                                                     // following group repeats min..max, greedy
	OpMinRepeat                                                  // following group repeats min..max, lazy
	OpOpt                                                        // inline option change
	OpClose                                                      // close group before ACCEPT
	OpMark                                                       // (*MARK:NAME)
	OpPrune                                                      // (*PRUNE)
	OpSkip                                                       // (*SKIP)
	OpThen                                                       // (*THEN)
	OpCommit                                                     // (*COMMIT)
	OpFail                                                       // (*FAIL)
	OpAccept                                                     // (*ACCEPT)

	opCount
)

// Option bits carried by OPT.
const (
	OptCaseless  = 0x01
	OptMultiline = 0x02
	OptDotAll    = 0x04
	OptExtended  = 0x08
	OptUngreedy  = 0x10
)

// XCLASS flags and item tags.
const (
	XClassNot = 0x01 // class is negated
	XClassMap = 0x02 // a 32-byte bitmap follows the flags

	XClassEnd     = 0
	XClassSingle  = 1
	XClassRange   = 2
	XClassProp    = 3
	XClassNotProp = 4
)

// Info describes an opcode.
type Info struct {
	Name string
	// Len is the instruction length in bytes. Zero means the instruction
	// encodes its own length.
	Len int
}

var opcodeTable [opCount]Info

var kindNames = [kindCount]string{
	"STAR", "MINSTAR", "PLUS", "MINPLUS", "QUERY", "MINQUERY",
	"RANGE", "MINRANGE", "POSSTAR", "POSPLUS", "POSQUERY", "POSRANGE",
}

func init() {
	fixed := map[Opcode]Info{
		OpEnd:             {"END", 1},
		OpSOD:             {"SOD", 1},
		OpSOM:             {"SOM", 1},
		OpSetSOM:          {"SET_SOM", 1},
		OpNotWordBoundary: {"NOT_WORD_BOUNDARY", 1},
		OpWordBoundary:    {"WORD_BOUNDARY", 1},
		OpNotDigit:        {"NOT_DIGIT", 1},
		OpDigit:           {"DIGIT", 1},
		OpNotWhitespace:   {"NOT_WHITESPACE", 1},
		OpWhitespace:      {"WHITESPACE", 1},
		OpNotWordchar:     {"NOT_WORDCHAR", 1},
		OpWordchar:        {"WORDCHAR", 1},
		OpAny:             {"ANY", 1},
		OpAllAny:          {"ALLANY", 1},
		OpAnyByte:         {"ANYBYTE", 1},
		OpNotProp:         {"NOTPROP", 3},
		OpProp:            {"PROP", 3},
		OpAnyNL:           {"ANYNL", 1},
		OpNotHSpace:       {"NOT_HSPACE", 1},
		OpHSpace:          {"HSPACE", 1},
		OpNotVSpace:       {"NOT_VSPACE", 1},
		OpVSpace:          {"VSPACE", 1},
		OpExtUni:          {"EXTUNI", 1},
		OpEODN:            {"EODN", 1},
		OpEOD:             {"EOD", 1},
		OpCirc:            {"CIRC", 1},
		OpCircM:           {"CIRCM", 1},
		OpDoll:            {"DOLL", 1},
		OpDollM:           {"DOLLM", 1},
		OpChar:            {"CHAR", 2},
		OpCharI:           {"CHARI", 2},
		OpNot:             {"NOT", 2},
		OpNotI:            {"NOTI", 2},
		OpClass:           {"CLASS", 1 + ClassMapSize},
		OpNClass:          {"NCLASS", 1 + ClassMapSize},
		OpXClass:          {"XCLASS", 0},
		OpRef:             {"REF", 1 + Imm2Size},
		OpRefI:            {"REFI", 1 + Imm2Size},
		OpRecurse:         {"RECURSE", 1 + LinkSize},
		OpAlt:             {"ALT", 1 + LinkSize},
		OpKet:             {"KET", 1 + LinkSize},
		OpKetRMax:         {"KETRMAX", 1 + LinkSize},
		OpKetRMin:         {"KETRMIN", 1 + LinkSize},
		OpAssert:          {"ASSERT", 1 + LinkSize},
		OpAssertNot:       {"ASSERT_NOT", 1 + LinkSize},
		OpAssertBack:      {"ASSERTBACK", 1 + LinkSize},
		OpAssertBackNot:   {"ASSERTBACK_NOT", 1 + LinkSize},
		OpReverse:         {"REVERSE", 1 + LinkSize},
		OpOnce:            {"ONCE", 1 + LinkSize},
		OpBra:             {"BRA", 1 + LinkSize},
		OpCBra:            {"CBRA", 1 + LinkSize + Imm2Size},
		OpCond:            {"COND", 1 + LinkSize},
		OpSBra:            {"SBRA", 1 + LinkSize},
		OpSCBra:           {"SCBRA", 1 + LinkSize + Imm2Size},
		OpSCond:           {"SCOND", 1 + LinkSize},
		OpCRef:            {"CREF", 1 + Imm2Size},
		OpRRef:            {"RREF", 1 + Imm2Size},
		OpDef:             {"DEF", 1},
		OpBraZero:         {"BRAZERO", 1},
		OpBraMinZero:      {"BRAMINZERO", 1},
		OpSkipZero:        {"SKIPZERO", 1},
		OpRepeat:          {"REPEAT", 1 + 2*Imm2Size},
		OpMinRepeat:       {"MINREPEAT", 1 + 2*Imm2Size},
		OpOpt:             {"OPT", 2},
		OpClose:           {"CLOSE", 1 + Imm2Size},
		OpMark:            {"MARK", 0},
		OpPrune:           {"PRUNE", 1},
		OpSkip:            {"SKIP", 1},
		OpThen:            {"THEN", 1},
		OpCommit:          {"COMMIT", 1},
		OpFail:            {"FAIL", 1},
		OpAccept:          {"ACCEPT", 1},
	}
	for op, info := range fixed {
		opcodeTable[op] = info
	}

	families := []struct {
		base   Opcode
		prefix string
		suffix string
		short  int // length without bounds
	}{
		{OpStar, "", "", 2},
		{OpStarI, "", "I", 2},
		{OpNotStar, "NOT", "", 2},
		{OpNotStarI, "NOT", "I", 2},
		{OpTypeStar, "TYPE", "", 2},
		{OpCRStar, "CR", "", 1},
	}
	for _, f := range families {
		for k := RepeatKind(0); k < kindCount; k++ {
			n := f.short
			if k.Bounded() {
				n += 2 * Imm2Size
			}
			opcodeTable[f.base+Opcode(k)] = Info{Name: f.prefix + kindNames[k] + f.suffix, Len: n}
		}
	}
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() Info {
	if op < opCount {
		return opcodeTable[op]
	}
	return Info{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	return op < opCount
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Info().Name
}

// Bounded reports whether the kind carries min and max operands.
func (k RepeatKind) Bounded() bool {
	return k == KindRange || k == KindMinRange || k == KindPosRange
}

// Lazy reports whether the kind is a minimizing repeat.
func (k RepeatKind) Lazy() bool {
	return k == KindMinStar || k == KindMinPlus || k == KindMinQuery || k == KindMinRange
}

// Possessive reports whether the kind is a possessive repeat.
func (k RepeatKind) Possessive() bool {
	return k >= KindPosStar
}

// ToPossessive returns the possessive counterpart of a greedy kind.
func (k RepeatKind) ToPossessive() RepeatKind {
	switch k {
	case KindStar:
		return KindPosStar
	case KindPlus:
		return KindPosPlus
	case KindQuery:
		return KindPosQuery
	case KindRange:
		return KindPosRange
	}
	return k
}

// RepeatOf splits a repeat opcode into its family base and kind.
func RepeatOf(op Opcode) (base Opcode, kind RepeatKind, ok bool) {
	if op < OpStar || op >= OpCRStar+Opcode(kindCount) {
		return 0, 0, false
	}
	off := op - OpStar
	base = OpStar + off/Opcode(kindCount)*Opcode(kindCount)
	return base, RepeatKind(off % Opcode(kindCount)), true
}

// CharRepeat reports whether op repeats a literal or negated character.
func CharRepeat(op Opcode) bool {
	return op >= OpStar && op < OpTypeStar
}

// HasChar reports whether the last byte of op's fixed part starts a
// character, which in UTF mode may be followed by continuation bytes.
func HasChar(op Opcode) bool {
	return (op >= OpChar && op <= OpNotI) || CharRepeat(op)
}

// SingleType reports whether op is a one-character type item that can
// follow a TYPE repeat opcode.
func SingleType(op Opcode) bool {
	return op >= OpNotDigit && op <= OpExtUni
}

// Opener reports whether op starts a bracket closed by a KET.
func Opener(op Opcode) bool {
	return (op >= OpAssert && op <= OpSCond) && op != OpReverse
}

// Capturing reports whether op opens a numbered group.
func Capturing(op Opcode) bool {
	return op == OpCBra || op == OpSCBra
}

// Assertion reports whether op opens a lookaround group.
func Assertion(op Opcode) bool {
	return op >= OpAssert && op <= OpAssertBackNot
}

// Ket reports whether op closes a bracket.
func Ket(op Opcode) bool {
	return op == OpKet || op == OpKetRMax || op == OpKetRMin
}
