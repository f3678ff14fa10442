package compiler

import (
	"strings"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

// compileGroup compiles a parenthesized item starting at the '(' under
// c.pos. It returns the atom it produced and the options in force after
// it, which only differ for a bare (?flags) item.
func (c *compileContext) compileGroup(flags Flag) (atom, Flag, error) {
	start := c.pos
	c.pos++

	if c.peekByte(0) == '*' {
		a, err := c.compileVerb(start)
		return a, flags, err
	}
	if c.peekByte(0) != '?' {
		if flags&NoAutoCapture != 0 {
			a, err := c.compileBracket(flags, bc.OpBra, bracket{offset: start})
			return a, flags, err
		}
		a, err := c.compileCapture(flags, "", start)
		return a, flags, err
	}

	c.pos++
	var (
		a   atom
		err error
	)
	switch b := c.peekByte(0); {
	case b == '#':
		end := strings.IndexByte(c.pattern[c.pos:], ')')
		if end < 0 {
			return a, flags, c.fail(ErrUnterminatedComment, start)
		}
		c.pos += end + 1
		return atom{kind: atomKeep}, flags, nil

	case b == ':':
		c.pos++
		a, err = c.compileBracket(flags, bc.OpBra, bracket{offset: start})

	case b == '|':
		c.pos++
		a, err = c.compileBracket(flags, bc.OpBra, bracket{offset: start, branchReset: true})

	case b == '>':
		c.pos++
		a, err = c.compileBracket(flags, bc.OpOnce, bracket{offset: start})

	case b == '=':
		c.pos++
		a, err = c.compileBracket(flags, bc.OpAssert, bracket{offset: start})

	case b == '!':
		c.pos++
		a, err = c.compileBracket(flags, bc.OpAssertNot, bracket{offset: start})

	case c.lookingAt("<="):
		c.pos += 2
		a, err = c.compileBracket(flags, bc.OpAssertBack, bracket{offset: start, lookbehind: true})

	case c.lookingAt("<!"):
		c.pos += 2
		a, err = c.compileBracket(flags, bc.OpAssertBackNot, bracket{offset: start, lookbehind: true})

	case b == '<' || b == '\'':
		c.pos++
		a, err = c.compileNamed(flags, closingQuote(b), start)

	case c.lookingAt("P<"):
		c.pos += 2
		a, err = c.compileNamed(flags, '>', start)

	case c.lookingAt("P="):
		c.pos += 2
		var name string
		if name, err = c.readName(')'); err == nil {
			a, _, err = c.compileBackref(flags, groupRef{name: name}, start)
		}

	case c.lookingAt("P>"), b == '&':
		c.pos += 1 + boolInt(b == 'P')
		var name string
		if name, err = c.readName(')'); err == nil {
			a, _, err = c.compileRecurse(flags, groupRef{name: name}, start)
		}

	case b == 'R' && c.peekByte(1) == ')':
		c.pos += 2
		a, _, err = c.compileRecurse(flags, groupRef{}, start)

	case isDigit(b), (b == '+' || b == '-') && isDigit(c.peekByte(1)):
		var ref groupRef
		if ref, err = c.readGroupRef(')', true, start); err == nil {
			a, _, err = c.compileRecurse(flags, ref, start)
		}

	case b == '(':
		c.pos++
		a, err = c.compileConditional(flags, start)

	default:
		return c.compileOptions(flags, start)
	}
	return a, flags, err
}

func closingQuote(b byte) byte {
	if b == '<' {
		return '>'
	}
	return b
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// compileBracket emits opener op, compiles the group body with the
// options in flags and consumes the closing ')'.
func (c *compileContext) compileBracket(flags Flag, op bc.Opcode, g bracket) (atom, error) {
	pc := len(c.code)
	c.emit2(op, 0)
	return c.finishBracket(flags, pc, g)
}

// finishBracket compiles the body of a group whose opener (and condition,
// if any) is already emitted at pc. flags are the options around the
// group.
func (c *compileContext) finishBracket(flags Flag, pc int, g bracket) (atom, error) {
	g.pc = pc
	g.outerOpt = flags.optByte()
	body := flags
	if g.setOptions {
		body = g.options
	}
	if err := c.compileRegex(body, g); err != nil {
		return atom{}, err
	}
	if c.atEnd() {
		return atom{}, c.fail(ErrUnmatchedParen, g.offset)
	}
	c.pos++

	kind := atomGroup
	if bc.Assertion(bc.Opcode(c.code[pc])) {
		kind = atomAssertGroup
	}
	return atom{kind: kind, pc: pc}, nil
}

// compileCapture compiles a numbered group, registering name when set.
func (c *compileContext) compileCapture(flags Flag, name string, start int) (atom, error) {
	if c.groups >= MaxGroups {
		return atom{}, c.fail(ErrTooManyGroups, start)
	}
	c.groups++
	number := c.groups
	if name != "" {
		if code := c.names.add(name, number, flags&DupNames != 0); code != 0 {
			return atom{}, c.fail(code, start)
		}
	}

	pc := len(c.code)
	c.emit2(bc.OpCBra, 0)
	c.code = bc.Append2(c.code, number)
	c.open = append(c.open, number)
	a, err := c.finishBracket(flags, pc, bracket{offset: start})
	c.open = c.open[:len(c.open)-1]
	return a, err
}

// compileNamed compiles (?<name>...), (?'name'...) and (?P<name>...).
func (c *compileContext) compileNamed(flags Flag, term byte, start int) (atom, error) {
	name, err := c.readName(term)
	if err != nil {
		return atom{}, err
	}
	return c.compileCapture(flags, name, start)
}

// compileConditional compiles (?(condition)yes|no); c.pos is just past the
// second '('.
func (c *compileContext) compileConditional(flags Flag, start int) (atom, error) {
	pc := len(c.code)
	c.emit2(bc.OpCond, 0)
	g := bracket{offset: start, cond: true}

	b := c.peekByte(0)
	switch {
	case b == '?':
		switch {
		case c.lookingAt("?="), c.lookingAt("?!"), c.lookingAt("?<="), c.lookingAt("?<!"):
		default:
			return atom{}, c.fail(ErrAssertionExpected, c.pos)
		}
		// Back up to the assertion's '(' so the first branch compiles it.
		c.pos--
		g.condAssert = true

	case b == 'R' && (c.peekByte(1) == ')' || isDigit(c.peekByte(1)) || c.peekByte(1) == '&'):
		c.pos++
		ref := groupRef{number: bc.RRefAny}
		switch {
		case c.peekByte(0) == '&':
			c.pos++
			name, err := c.readName(')')
			if err != nil {
				return atom{}, err
			}
			ref = groupRef{name: name}
		case isDigit(c.peekByte(0)):
			ref.number = c.readNumber()
			if c.peekByte(0) != ')' {
				return atom{}, c.fail(ErrBadCondition, c.pos)
			}
			c.pos++
		default:
			c.pos++
		}
		if err := c.conditionRef(bc.OpRRef, refCondRecursion, ref, flags, start); err != nil {
			return atom{}, err
		}

	case c.lookingAt("DEFINE)"):
		c.pos += len("DEFINE)")
		c.emit(bc.OpDef)
		g.define = true

	case isDigit(b), (b == '+' || b == '-') && isDigit(c.peekByte(1)):
		ref, err := c.readGroupRef(')', true, start)
		if err != nil {
			return atom{}, err
		}
		if ref.number == 0 {
			return atom{}, c.fail(ErrGroupZero, start)
		}
		if err := c.conditionRef(bc.OpCRef, refCond, ref, flags, start); err != nil {
			return atom{}, err
		}

	case b == '<' || b == '\'':
		c.pos++
		name, err := c.readName(closingQuote(b))
		if err != nil {
			return atom{}, err
		}
		if c.peekByte(0) != ')' {
			return atom{}, c.fail(ErrBadCondition, c.pos)
		}
		c.pos++
		if err := c.conditionRef(bc.OpCRef, refCond, groupRef{name: name}, flags, start); err != nil {
			return atom{}, err
		}

	case isWordChar(rune(b)):
		name, err := c.readName(')')
		if err != nil {
			return atom{}, c.fail(ErrBadCondition, c.pos)
		}
		if err := c.conditionRef(bc.OpCRef, refCond, groupRef{name: name}, flags, start); err != nil {
			return atom{}, err
		}

	default:
		return atom{}, c.fail(ErrBadCondition, c.pos)
	}

	return c.finishBracket(flags, pc, g)
}

// conditionRef emits a CREF or RREF for ref, deferring names and numbers
// that are not yet known.
func (c *compileContext) conditionRef(op bc.Opcode, kind refKind, ref groupRef, flags Flag, start int) error {
	pc := len(c.code)
	number := ref.number
	if ref.name != "" {
		number, _ = c.names.lookup(ref.name, flags&Caseless != 0)
	}
	c.emit2(op, number)
	if number == bc.RRefAny && ref.name == "" {
		return nil
	}
	if number == 0 || number > c.groups {
		return c.addForward(forwardRef{kind: kind, pos: pc, number: ref.number, name: ref.name, caseless: flags&Caseless != 0, offset: start})
	}
	return nil
}

// compileOptions handles (?flags) and (?flags:...). c.pos is just past
// the '?'.
func (c *compileContext) compileOptions(flags Flag, start int) (atom, Flag, error) {
	set := true
	newFlags := flags
	for !c.atEnd() {
		b := c.peekByte(0)
		var f Flag
		switch b {
		case 'i':
			f = Caseless
		case 'm':
			f = Multiline
		case 's':
			f = DotAll
		case 'x':
			f = Extended
		case 'U':
			f = Ungreedy
		case 'J':
			f = DupNames
		case 'X':
			f = Extra
		case '-':
			if !set {
				return atom{}, flags, c.fail(ErrUnrecognizedGroup, c.pos)
			}
			set = false
			c.pos++
			continue
		case ')':
			c.pos++
			if newFlags.optByte() != flags.optByte() {
				c.emit(bc.OpOpt, newFlags.optByte())
			}
			return atom{kind: atomNone}, newFlags, nil
		case ':':
			c.pos++
			a, err := c.compileBracket(flags, bc.OpBra, bracket{offset: start, options: newFlags, setOptions: true})
			return a, flags, err
		default:
			return atom{}, flags, c.fail(ErrUnrecognizedGroup, c.pos)
		}
		if set {
			newFlags |= f
		} else {
			newFlags &^= f
		}
		c.pos++
	}
	return atom{}, flags, c.fail(ErrUnmatchedParen, start)
}

// verbs maps backtracking control verb names to their opcode.
var verbs = map[string]bc.Opcode{
	"ACCEPT": bc.OpAccept,
	"FAIL":   bc.OpFail,
	"F":      bc.OpFail,
	"COMMIT": bc.OpCommit,
	"PRUNE":  bc.OpPrune,
	"SKIP":   bc.OpSkip,
	"THEN":   bc.OpThen,
}

// compileVerb compiles (*VERB) and (*MARK:NAME); c.pos is at the '*'.
func (c *compileContext) compileVerb(start int) (atom, error) {
	c.pos++
	end := strings.IndexByte(c.pattern[c.pos:], ')')
	if end < 0 {
		return atom{}, c.fail(ErrBadVerb, start)
	}
	body := c.pattern[c.pos : c.pos+end]
	c.pos += end + 1

	name, arg, hasArg := strings.Cut(body, ":")
	if name == "MARK" || name == "" {
		if !hasArg || arg == "" || len(arg) > 255 {
			return atom{}, c.fail(ErrBadVerb, start)
		}
		c.emit(bc.OpMark, byte(len(arg)))
		c.code = append(c.code, arg...)
		c.code = append(c.code, 0)
		return atom{kind: atomNone}, nil
	}

	op, ok := verbs[name]
	if !ok || hasArg {
		return atom{}, c.fail(ErrBadVerb, start)
	}
	if op == bc.OpAccept {
		for i := len(c.open) - 1; i >= 0; i-- {
			c.emit2(bc.OpClose, c.open[i])
		}
	}
	c.emit(op)
	return atom{kind: atomNone}, nil
}
