package compiler

import (
	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

// bracket describes a group whose opener has just been emitted.
type bracket struct {
	pc     int // pc of the opener
	offset int // pattern offset of its '('

	outerOpt    byte // option byte in force around the group
	lookbehind  bool
	branchReset bool
	cond        bool
	define      bool
	condAssert  bool // the first branch starts with an assertion condition

	options    Flag // options for the body, when setOptions
	setOptions bool
}

// compileRegex compiles the alternatives of one group up to, but not
// including, the ')' or end of pattern that closes it. It links the
// opener and every ALT to their successor and writes the closing KET.
func (c *compileContext) compileRegex(flags Flag, g bracket) error {
	if c.chain.depth() >= c.cfg.NestLimit {
		return c.fail(ErrNestTooDeep, g.offset)
	}
	c.chain = &branchChain{last: g.pc, outer: c.chain}
	defer func() { c.chain = c.chain.outer }()

	startGroups, maxGroups := c.groups, c.groups
	starts := []int{g.pc}
	for branch := 0; ; branch++ {
		if g.branchReset {
			c.groups = startGroups
		}
		if g.lookbehind {
			c.emit2(bc.OpReverse, 0)
		}
		if opt := flags.optByte(); opt != g.outerOpt {
			c.emit(bc.OpOpt, opt)
		}

		var err error
		flags, err = c.compileBranch(flags, g.condAssert && branch == 0)
		if err != nil {
			return err
		}
		if c.groups > maxGroups {
			maxGroups = c.groups
		}
		if c.atEnd() || c.peekByte(0) != '|' {
			break
		}
		c.pos++
		c.chain.last = len(c.code)
		starts = append(starts, len(c.code))
		c.emit2(bc.OpAlt, 0)
	}
	c.groups = maxGroups

	ket := len(c.code)
	for i, s := range starts {
		next := ket
		if i+1 < len(starts) {
			next = starts[i+1]
		}
		bc.PutLink(c.code, s, next-s)
	}
	c.emit2(bc.OpKet, ket-g.pc)

	switch {
	case g.define && len(starts) > 1:
		return c.fail(ErrDefineBranches, g.offset)
	case g.cond && len(starts) > 2:
		return c.fail(ErrConditionBranches, g.offset)
	}

	if g.lookbehind {
		for _, s := range starts {
			if err := c.measureLookbehind(s+1+bc.LinkSize, g.offset); err != nil {
				return err
			}
		}
	}
	return c.checkSize()
}

// measureLookbehind fills in the REVERSE at rev with the fixed length of
// the branch following it. Branches that call a not yet compiled group
// are measured again once all references are resolved.
func (c *compileContext) measureLookbehind(rev, offset int) error {
	n, st := fixedLength(c.code, rev+1+bc.LinkSize, c.utf)
	switch st {
	case fixedVariable:
		return c.fail(ErrLookbehindNotFixed, offset)
	case fixedUnsupported:
		return c.fail(ErrLookbehindUnsupported, offset)
	case fixedDeferred:
		return c.addForward(forwardRef{kind: refLookbehind, pos: rev, offset: offset})
	}
	if n > bc.MaxLink {
		return c.fail(ErrLookbehindNotFixed, offset)
	}
	bc.Put2(c.code, rev+1, n)
	if n > c.maxLookbehind {
		c.maxLookbehind = n
	}
	return nil
}

// compileBranch compiles items until '|', ')' or the end of the pattern.
// It returns the options in force at the end of the branch, which carry
// over into the following alternatives.
func (c *compileContext) compileBranch(flags Flag, condAssert bool) (Flag, error) {
	last := atom{kind: atomNone}
	inQuote := false
	first := true

	for !c.atEnd() {
		if inQuote {
			if c.lookingAt(`\E`) {
				inQuote = false
				c.pos += 2
				continue
			}
			last = c.literal(flags, c.next())
			continue
		}

		if flags&Extended != 0 {
			if err := c.skipExtended(); err != nil {
				return flags, err
			}
			if c.atEnd() {
				break
			}
		}

		b := c.peekByte(0)
		if b == '|' || b == ')' {
			break
		}

		if q, ok, err := c.readQuantifier(flags); err != nil {
			return flags, err
		} else if ok {
			if err := c.repeat(last, q); err != nil {
				return flags, err
			}
			last = atom{kind: atomNone}
			continue
		}

		start := len(c.code)
		switch b {
		case '^':
			c.pos++
			if flags&Multiline != 0 {
				c.emit(bc.OpCircM)
			} else {
				c.emit(bc.OpCirc)
			}
			last = atom{kind: atomAssertSimple, pc: start}

		case '$':
			c.pos++
			if flags&Multiline != 0 {
				c.emit(bc.OpDollM)
			} else {
				c.emit(bc.OpDoll)
			}
			last = atom{kind: atomAssertSimple, pc: start}

		case '.':
			c.pos++
			if flags&DotAll != 0 {
				c.emit(bc.OpAllAny)
			} else {
				c.emit(bc.OpAny)
			}
			last = atom{kind: atomType, pc: start}

		case '[':
			if _, ok := checkPosixSyntax(c.pattern, c.pos); ok {
				return flags, c.fail(ErrPosixOutsideClass, c.pos)
			}
			c.pos++
			if err := c.compileClass(flags); err != nil {
				return flags, err
			}
			last = atom{kind: atomClass, pc: start}
			if op := bc.Opcode(c.code[start]); op >= bc.OpChar && op <= bc.OpNotI {
				last.kind = atomChar
			}

		case '(':
			a, f, err := c.compileGroup(flags)
			if err != nil {
				return flags, err
			}
			flags = f
			if a.kind != atomKeep {
				last = a
			}

		case '\\':
			c.pos++
			a, quote, err := c.compileEscape(flags)
			if err != nil {
				return flags, err
			}
			if quote {
				inQuote = true
				continue
			}
			if a.kind != atomKeep {
				last = a
			}

		default:
			last = c.literal(flags, c.next())
		}

		if condAssert && first {
			if last.kind != atomAssertGroup {
				return flags, c.fail(ErrAssertionExpected, c.pos)
			}
			last.kind = atomAssertSimple
		}
		first = false
		if err := c.checkSize(); err != nil {
			return flags, err
		}
	}
	return flags, nil
}

// literal emits one literal character.
func (c *compileContext) literal(flags Flag, ch rune) atom {
	pc := len(c.code)
	c.emitChar(bc.OpChar, ch, flags&Caseless != 0)
	return atom{kind: atomChar, pc: pc}
}

// compileEscape compiles a backslash item outside a class. quote reports
// the start of a \Q...\E run.
func (c *compileContext) compileEscape(flags Flag) (atom, bool, error) {
	offset := c.pos - 1
	esc, err := c.escape(flags, false)
	if err != nil {
		return atom{}, false, err
	}
	if esc.char >= 0 {
		return c.literal(flags, rune(esc.char)), false, nil
	}

	pc := len(c.code)
	switch esc.char {
	case escQuote:
		return atom{}, true, nil
	case escEndQuote:
		return atom{kind: atomKeep}, false, nil
	case escBackref:
		return c.compileBackref(flags, esc.ref, offset)
	case escSubroutine:
		return c.compileRecurse(flags, esc.ref, offset)
	case escProp, escNotProp:
		op := bc.OpProp
		if esc.char == escNotProp {
			op = bc.OpNotProp
		}
		c.emit(op, esc.prop.typ, esc.prop.value)
		return atom{kind: atomType, pc: pc}, false, nil
	}

	op := escapeOps[esc.char]
	c.emit(op)
	switch op {
	case bc.OpWordBoundary, bc.OpNotWordBoundary, bc.OpSOD, bc.OpSOM, bc.OpSetSOM, bc.OpEODN, bc.OpEOD:
		return atom{kind: atomAssertSimple, pc: pc}, false, nil
	}
	return atom{kind: atomType, pc: pc}, false, nil
}

// compileBackref emits REF or REFI. References to groups that are not yet
// known are recorded and filled in after the whole pattern is compiled.
func (c *compileContext) compileBackref(flags Flag, ref groupRef, offset int) (atom, bool, error) {
	pc := len(c.code)
	op := bc.OpRef
	if flags&Caseless != 0 {
		op = bc.OpRefI
	}
	caseless := flags&Caseless != 0

	number := ref.number
	if ref.name != "" {
		if n, ok := c.names.lookup(ref.name, caseless); ok {
			number = n
		}
	}
	c.emit2(op, number)
	if number == 0 || number > c.groups {
		err := c.addForward(forwardRef{kind: refBackref, pos: pc, number: ref.number, name: ref.name, caseless: caseless, offset: offset})
		if err != nil {
			return atom{}, false, err
		}
	} else {
		c.noteBackref(number)
	}
	return atom{kind: atomRef, pc: pc}, false, nil
}

// compileRecurse emits a RECURSE. Calls to a group already started are
// linked at once; others are resolved at the end.
func (c *compileContext) compileRecurse(flags Flag, ref groupRef, offset int) (atom, bool, error) {
	pc := len(c.code)
	c.emit2(bc.OpRecurse, bc.RecurseUnresolved)

	number := ref.number
	known := ref.name == ""
	if !known {
		number, known = c.names.lookup(ref.name, flags&Caseless != 0)
	}
	target := -1
	if known {
		target = findBracket(c.code, number, c.utf)
	}
	if target >= 0 {
		bc.PutRecurse(c.code, pc, target)
	} else {
		err := c.addForward(forwardRef{kind: refRecurse, pos: pc, number: ref.number, name: ref.name, caseless: flags&Caseless != 0, offset: offset})
		if err != nil {
			return atom{}, false, err
		}
	}
	return atom{kind: atomRecurse, pc: pc}, false, nil
}

// readQuantifier parses a quantifier at c.pos. A '{' that does not start
// a valid {m}, {m,} or {m,n} is not a quantifier.
func (c *compileContext) readQuantifier(flags Flag) (quantifier, bool, error) {
	q := quantifier{offset: c.pos}
	switch c.peekByte(0) {
	case '*':
		q.min, q.max = 0, -1
		c.pos++
	case '+':
		q.min, q.max = 1, -1
		c.pos++
	case '?':
		q.min, q.max = 0, 1
		c.pos++
	case '{':
		if !isQuantifier(c.pattern, c.pos) {
			return q, false, nil
		}
		c.pos++
		q.min = c.readBound()
		q.max = q.min
		if c.peekByte(0) == ',' {
			c.pos++
			q.max = -1
			if c.peekByte(0) != '}' {
				q.max = c.readBound()
			}
		}
		c.pos++
		if q.min > MaxRepeat || q.max > MaxRepeat {
			return q, false, c.fail(ErrQuantifierTooBig, q.offset)
		}
		if q.max >= 0 && q.max < q.min {
			return q, false, c.fail(ErrQuantifierOutOfOrder, q.offset)
		}
	default:
		return q, false, nil
	}

	switch c.peekByte(0) {
	case '+':
		q.possessive = true
		c.pos++
	case '?':
		q.lazy = true
		c.pos++
	}
	if flags&Ungreedy != 0 && !q.possessive {
		q.lazy = !q.lazy
	}
	return q, true, nil
}

// readBound reads the digits of a quantifier bound, saturating just past
// MaxRepeat.
func (c *compileContext) readBound() int {
	n := 0
	for isDigit(c.peekByte(0)) {
		if n <= MaxRepeat {
			n = n*10 + int(c.peekByte(0)-'0')
		}
		c.pos++
	}
	return n
}

// isQuantifier reports whether pattern[pos:] starts with {m}, {m,} or
// {m,n}.
func isQuantifier(pattern string, pos int) bool {
	i := pos + 1
	digits := func() bool {
		s := i
		for i < len(pattern) && isDigit(pattern[i]) {
			i++
		}
		return i > s
	}
	if !digits() {
		return false
	}
	if i < len(pattern) && pattern[i] == '}' {
		return true
	}
	if i >= len(pattern) || pattern[i] != ',' {
		return false
	}
	i++
	if i < len(pattern) && pattern[i] == '}' {
		return true
	}
	return digits() && i < len(pattern) && pattern[i] == '}'
}

// skipExtended skips white space and #-comments in extended mode. A
// comment runs to the next newline as defined by the newline convention.
func (c *compileContext) skipExtended() error {
	for !c.atEnd() {
		switch c.peekByte(0) {
		case ' ', '\t', '\n', '\v', '\f', '\r':
			c.pos++
		case '#':
			c.pos++
			if c.raw == nil {
				c.raw = []byte(c.pattern)
			}
			for !c.atEnd() {
				if ok, n := IsNewline(c.raw, c.pos, c.newline, c.utf); ok {
					c.pos += n
					break
				}
				c.pos++
			}
		default:
			return nil
		}
	}
	return nil
}
