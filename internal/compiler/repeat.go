package compiler

import bc "github.com/KromDaniel/pcrego/internal/bytecode"

// atomKind classifies the most recently compiled item so a following
// quantifier knows how to rewrite it.
type atomKind int

const (
	atomNone         atomKind = iota // nothing repeatable
	atomChar                         // CHAR, CHARI, NOT, NOTI
	atomType                         // one-character type such as \d or .
	atomClass                        // CLASS, NCLASS, XCLASS
	atomRef                          // back-reference
	atomGroup                        // bracket
	atomRecurse                      // subroutine call
	atomAssertSimple                 // ^, $, \b and friends
	atomAssertGroup                  // lookaround bracket
	atomKeep                         // comment: the previous atom stays current
)

type atom struct {
	kind atomKind
	pc   int
}

// quantifier is a parsed *, +, ?, or {m,n}. A negative max is unbounded.
type quantifier struct {
	min, max   int
	lazy       bool
	possessive bool
	offset     int
}

// repeat applies q to the atom that ends the program.
func (c *compileContext) repeat(a atom, q quantifier) error {
	switch a.kind {
	case atomNone, atomKeep:
		return c.fail(ErrNothingToRepeat, q.offset)
	case atomAssertSimple:
		return c.fail(ErrRepeatAssertion, q.offset)
	case atomChar:
		base := charFamily(bc.Opcode(c.code[a.pc]))
		c.repeatSingle(a.pc, a.pc+1, base, q)
	case atomType:
		c.repeatSingle(a.pc, a.pc, bc.OpTypeStar, q)
	case atomClass, atomRef:
		c.repeatCR(a.pc, q)
	case atomAssertGroup:
		c.repeatGroup(a.pc, q, true)
	case atomRecurse:
		c.insert(a.pc, byte(bc.OpBra), 0, 0)
		c.closeBracket(a.pc)
		fallthrough
	case atomGroup:
		if err := c.repeatGroup(a.pc, q, false); err != nil {
			return err
		}
	}
	return c.checkSize()
}

func charFamily(op bc.Opcode) bc.Opcode {
	switch op {
	case bc.OpCharI:
		return bc.OpStarI
	case bc.OpNot:
		return bc.OpNotStar
	case bc.OpNotI:
		return bc.OpNotStarI
	}
	return bc.OpStar
}

// repeatKind picks the family member for q. keep means the atom stays as
// it is ({1}), drop means it is removed ({0}).
func repeatKind(q quantifier) (k bc.RepeatKind, keep, drop bool) {
	switch {
	case q.max == 0:
		return 0, false, true
	case q.min == 1 && q.max == 1:
		return 0, true, false
	case q.min == 0 && q.max < 0:
		k = bc.KindStar
	case q.min == 1 && q.max < 0:
		k = bc.KindPlus
	case q.min == 0 && q.max == 1:
		k = bc.KindQuery
	default:
		k = bc.KindRange
	}
	switch {
	case q.possessive:
		k = k.ToPossessive()
	case q.lazy:
		k++
	}
	return k, false, false
}

func (c *compileContext) appendBounds(k bc.RepeatKind, q quantifier) {
	if !k.Bounded() {
		return
	}
	max := q.max
	if max < 0 {
		max = bc.RepeatUnlimited
	}
	c.code = bc.Append2(c.code, q.min)
	c.code = bc.Append2(c.code, max)
}

// repeatSingle replaces the one-instruction atom at pc with a repeat from
// family base. The operand bytes start at operand.
func (c *compileContext) repeatSingle(pc, operand int, base bc.Opcode, q quantifier) {
	k, keep, drop := repeatKind(q)
	if keep {
		return
	}
	saved := append([]byte(nil), c.code[operand:]...)
	c.truncate(pc)
	if drop {
		return
	}
	c.code = append(c.code, byte(base+bc.Opcode(k)))
	c.appendBounds(k, q)
	c.code = append(c.code, saved...)
}

// repeatCR appends a class repeat to the class or back-reference at pc.
func (c *compileContext) repeatCR(pc int, q quantifier) {
	k, keep, drop := repeatKind(q)
	switch {
	case keep:
	case drop:
		c.truncate(pc)
	default:
		c.code = append(c.code, byte(bc.OpCRStar+bc.Opcode(k)))
		c.appendBounds(k, q)
	}
}

// repeatGroup rewrites the bracket at gpc, which ends the program, for q.
// Small bounded repeats are expanded into copies, nesting the optional
// ones under BRAZERO; larger ones get a REPEAT prefix.
func (c *compileContext) repeatGroup(gpc int, q quantifier, assertion bool) error {
	if q.max == 0 {
		c.insert(gpc, byte(bc.OpSkipZero))
		return nil
	}
	if q.min == 1 && q.max == 1 {
		return nil
	}
	zero := bc.OpBraZero
	if q.lazy {
		zero = bc.OpBraMinZero
	}
	if assertion {
		if q.min == 0 {
			c.insert(gpc, byte(zero))
		}
		return nil
	}

	length := len(c.code) - gpc
	empty := q.max < 0 && couldBeEmpty(c.code, gpc, c.utf)

	copies := q.max
	if q.max < 0 {
		copies = q.min
	}
	if copies > c.cfg.DuplicateLimit {
		op := bc.OpRepeat
		if q.lazy {
			op = bc.OpMinRepeat
		}
		max := q.max
		if max < 0 {
			max = bc.RepeatUnlimited
		}
		if empty {
			markEmpty(c.code, gpc)
		}
		c.insert(gpc, byte(op), byte(q.min>>8), byte(q.min), byte(max>>8), byte(max))
		return c.possessive(gpc, q)
	}

	if q.min == 0 && q.max < 0 {
		c.setRepeatKet(gpc, q.lazy)
		if empty {
			markEmpty(c.code, gpc)
		}
		c.insert(gpc, byte(zero))
		return c.possessive(gpc, q)
	}

	src := gpc
	optional := 0
	if q.max > 0 {
		optional = q.max - q.min
	}
	var wrappers []int
	if q.min == 0 {
		prefix := []byte{byte(zero)}
		if optional > 1 {
			prefix = append(prefix, byte(bc.OpBra), 0, 0)
			wrappers = append(wrappers, gpc+1)
		}
		c.insert(gpc, prefix...)
		src = gpc + len(prefix)
		optional--
	} else {
		last := src
		for i := 1; i < q.min; i++ {
			dst, err := c.appendCopy(src, length)
			if err != nil {
				return err
			}
			last = dst
		}
		if q.max < 0 {
			c.setRepeatKet(last, q.lazy)
			if empty {
				markEmpty(c.code, last)
			}
		}
	}

	for j := 0; j < optional; j++ {
		c.code = append(c.code, byte(zero))
		if j < optional-1 {
			wrappers = append(wrappers, len(c.code))
			c.emit(bc.OpBra, 0, 0)
		}
		if _, err := c.appendCopy(src, length); err != nil {
			return err
		}
	}
	for i := len(wrappers) - 1; i >= 0; i-- {
		c.closeBracket(wrappers[i])
	}
	return c.possessive(gpc, q)
}

// possessive wraps everything from pc to the end in ONCE when q is
// possessive.
func (c *compileContext) possessive(pc int, q quantifier) error {
	if !q.possessive {
		return nil
	}
	c.insert(pc, byte(bc.OpOnce), 0, 0)
	c.closeBracket(pc)
	return nil
}

// appendCopy appends a copy of code[src:src+length] and returns its pc.
func (c *compileContext) appendCopy(src, length int) (int, error) {
	dst := len(c.code)
	c.code = append(c.code, c.code[src:src+length]...)
	if err := c.patchCopy(src, dst, length); err != nil {
		return 0, err
	}
	return dst, c.checkSize()
}

// closeBracket appends a KET for the opener at pc and links the two.
func (c *compileContext) closeBracket(pc int) {
	ket := len(c.code)
	c.emit2(bc.OpKet, ket-pc)
	bc.PutLink(c.code, pc, ket-pc)
}

// setRepeatKet turns the KET of the bracket at pc into KETRMAX or KETRMIN.
func (c *compileContext) setRepeatKet(pc int, lazy bool) {
	ket := bc.Close(c.code, pc)
	if lazy {
		c.code[ket] = byte(bc.OpKetRMin)
	} else {
		c.code[ket] = byte(bc.OpKetRMax)
	}
}

// markEmpty switches BRA, CBRA and COND to their possibly-empty forms.
func markEmpty(code []byte, pc int) {
	switch op := bc.Opcode(code[pc]); op {
	case bc.OpBra, bc.OpCBra, bc.OpCond:
		code[pc] = byte(op + (bc.OpSBra - bc.OpBra))
	}
}

// truncate drops the program from pc on, with any forward references
// recorded inside it.
func (c *compileContext) truncate(pc int) {
	c.code = c.code[:pc]
	kept := c.fwd[:0]
	for _, r := range c.fwd {
		if r.pos < pc {
			kept = append(kept, r)
		}
	}
	c.fwd = kept
}
