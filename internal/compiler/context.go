package compiler

import (
	"strings"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
	"github.com/KromDaniel/pcrego/internal/chartables"
)

// refKind says which operand a forward reference fills in.
type refKind int

const (
	refRecurse       refKind = iota // RECURSE link
	refBackref                      // REF group number
	refCond                         // CREF group number
	refCondRecursion                // RREF group number
	refLookbehind                   // REVERSE waiting for a recursion target
)

// forwardRef records a group reference that could not be resolved when it
// was compiled. pos is the pc of the referencing instruction.
type forwardRef struct {
	kind     refKind
	pos      int
	number   int
	name     string
	caseless bool
	offset   int
}

// NameEntry maps a group name to its number.
type NameEntry struct {
	Name   string `json:"name" cbor:"1,keyasint"`
	Number int    `json:"number" cbor:"2,keyasint"`
}

type nameTable struct {
	entries []NameEntry
}

// branchChain links the innermost open alternation to the ones enclosing
// it. last is the pc of the most recent opener or ALT whose link is still
// unpatched.
type branchChain struct {
	last  int
	outer *branchChain
}

func (b *branchChain) depth() int {
	n := 0
	for ; b != nil; b = b.outer {
		n++
	}
	return n
}

// compileContext is shared by the whole recursive descent of one compile.
type compileContext struct {
	pattern string
	raw     []byte // pattern bytes for the newline matcher, set on first use
	pos     int
	code    []byte

	tables  *chartables.Tables
	utf     bool
	newline Newline
	cfg     Config

	groups          int
	backrefMap      uint32
	backrefOverflow bool
	backrefMax      int
	names           nameTable
	fwd             []forwardRef
	fwdHigh         int
	open            []int // numbers of the capturing groups being compiled
	chain           *branchChain
	maxLookbehind   int

	log *Logger
}

func (c *compileContext) fail(code ErrorCode, offset int) error {
	return &Error{Code: code, Offset: offset}
}

// noteBackref records a back-reference to group n.
func (c *compileContext) noteBackref(n int) {
	if n < 32 {
		c.backrefMap |= 1 << uint(n)
	} else {
		c.backrefOverflow = true
	}
	if n > c.backrefMax {
		c.backrefMax = n
	}
}

// addForward appends a record to the forward-reference arena.
func (c *compileContext) addForward(r forwardRef) error {
	if len(c.fwd) >= c.cfg.WorkspaceLimit {
		return c.fail(ErrWorkspaceOverflow, r.offset)
	}
	c.fwd = append(c.fwd, r)
	if len(c.fwd) > c.fwdHigh {
		c.fwdHigh = len(c.fwd)
	}
	return nil
}

// add registers name for group number. The same name may map to the same
// number again (branch reset), or to another number when dupNames is set.
func (t *nameTable) add(name string, number int, dupNames bool) ErrorCode {
	for _, e := range t.entries {
		if e.Name == name {
			if e.Number == number {
				return 0
			}
			if !dupNames {
				return ErrDuplicateName
			}
		}
	}
	if len(t.entries) >= MaxNames {
		return ErrTooManyNames
	}
	t.entries = append(t.entries, NameEntry{Name: name, Number: number})
	return 0
}

// lookup returns the lowest group number registered for name. When
// caseless is set and no name matches exactly, names differing only in
// case are accepted.
func (t *nameTable) lookup(name string, caseless bool) (int, bool) {
	found := t.lowest(func(s string) bool { return s == name })
	if found == 0 && caseless {
		found = t.lowest(func(s string) bool { return strings.EqualFold(s, name) })
	}
	return found, found > 0
}

func (t *nameTable) lowest(match func(string) bool) int {
	found := 0
	for _, e := range t.entries {
		if match(e.Name) && (found == 0 || e.Number < found) {
			found = e.Number
		}
	}
	return found
}

// emit appends an opcode followed by raw operand bytes.
func (c *compileContext) emit(op bc.Opcode, operands ...byte) {
	c.code = append(c.code, byte(op))
	c.code = append(c.code, operands...)
}

// emit2 appends an opcode with one two-byte operand.
func (c *compileContext) emit2(op bc.Opcode, v int) {
	c.code = append(c.code, byte(op))
	c.code = bc.Append2(c.code, v)
}

// insert opens a gap of len(b) bytes at pc, copies b into it and fixes
// everything that refers across the gap.
func (c *compileContext) insert(pc int, b ...byte) {
	n := len(b)
	c.code = append(c.code, b...)
	copy(c.code[pc+n:], c.code[pc:len(c.code)-n])
	copy(c.code[pc:], b)
	c.shiftInsert(pc, n)
}

func (c *compileContext) checkSize() error {
	if len(c.code) > c.cfg.MaxSize {
		return c.fail(ErrPatternTooLarge, c.pos)
	}
	return nil
}
