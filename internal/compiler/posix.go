package compiler

import "github.com/KromDaniel/pcrego/internal/chartables"

// checkPosixSyntax reports whether pattern[pos:] (pos at a '[') starts a
// [:name:], [.x.] or [=x=] item, and returns the offset just past it. It
// does not consume anything; a ']' or another item start before the
// terminator means this is not a POSIX item.
func checkPosixSyntax(pattern string, pos int) (int, bool) {
	if pos+1 >= len(pattern) {
		return 0, false
	}
	term := pattern[pos+1]
	if term != ':' && term != '.' && term != '=' {
		return 0, false
	}
	for i := pos + 2; i+1 < len(pattern); i++ {
		switch {
		case pattern[i] == '\\' && (pattern[i+1] == ']' || pattern[i+1] == '\\'):
			i++
		case pattern[i] == term && pattern[i+1] == ']':
			return i + 2, true
		case pattern[i] == ']':
			return 0, false
		case pattern[i] == '[' && (pattern[i+1] == ':' || pattern[i+1] == '.' || pattern[i+1] == '='):
			return 0, false
		}
	}
	return 0, false
}

// posixClass returns the bitmap for a POSIX class name. With caseless
// matching, upper and lower both mean alpha.
func posixClass(name string, t *chartables.Tables, caseless bool) ([32]byte, bool) {
	var m [32]byte
	or := func(c chartables.Class) {
		b := t.Bitmap(c)
		for i := range m {
			m[i] |= b[i]
		}
	}
	switch name {
	case "alpha":
		or(chartables.Upper)
		or(chartables.Lower)
	case "lower", "upper":
		if caseless {
			or(chartables.Upper)
			or(chartables.Lower)
		} else if name == "lower" {
			or(chartables.Lower)
		} else {
			or(chartables.Upper)
		}
	case "alnum":
		or(chartables.Upper)
		or(chartables.Lower)
		or(chartables.Digit)
	case "ascii":
		for i := 0; i < 16; i++ {
			m[i] = 0xff
		}
	case "blank":
		setBit(&m, ' ')
		setBit(&m, '\t')
	case "cntrl":
		or(chartables.Cntrl)
	case "digit":
		or(chartables.Digit)
	case "graph":
		or(chartables.Graph)
	case "print":
		or(chartables.Print)
	case "punct":
		or(chartables.Punct)
	case "space":
		or(chartables.Space)
	case "word":
		or(chartables.Word)
	case "xdigit":
		or(chartables.XDigit)
	default:
		return m, false
	}
	return m, true
}

func setBit(m *[32]byte, c int) {
	m[c/8] |= 1 << (c % 8)
}

func hasBit(m *[32]byte, c int) bool {
	return m[c/8]&(1<<(c%8)) != 0
}
