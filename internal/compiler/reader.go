package compiler

import "unicode/utf8"

func (c *compileContext) atEnd() bool {
	return c.pos >= len(c.pattern)
}

// next consumes one character. In UTF mode it decodes a whole code point;
// otherwise each byte is a character.
func (c *compileContext) next() rune {
	if !c.utf {
		b := c.pattern[c.pos]
		c.pos++
		return rune(b)
	}
	r, n := utf8.DecodeRuneInString(c.pattern[c.pos:])
	c.pos += n
	return r
}

// peekByte returns the byte off positions ahead, or 0 past the end.
func (c *compileContext) peekByte(off int) byte {
	if c.pos+off < len(c.pattern) {
		return c.pattern[c.pos+off]
	}
	return 0
}

// lookingAt reports whether the unread input starts with s.
func (c *compileContext) lookingAt(s string) bool {
	return len(c.pattern)-c.pos >= len(s) && c.pattern[c.pos:c.pos+len(s)] == s
}

// checkUTF8 returns the offset of the first invalid UTF-8 sequence, or -1.
func checkUTF8(s string) int {
	for i := 0; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && n <= 1 {
			return i
		}
		i += n
	}
	return -1
}
