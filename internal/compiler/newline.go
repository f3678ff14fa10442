package compiler

import "unicode/utf8"

// IsNewline reports whether a newline sequence of convention nl starts at
// subject[pos], and its length in bytes.
func IsNewline(subject []byte, pos int, nl Newline, utf bool) (bool, int) {
	if pos >= len(subject) {
		return false, 0
	}
	c := subject[pos]
	switch nl {
	case NewlineLF:
		return single(c == '\n')
	case NewlineCR:
		return single(c == '\r')
	case NewlineCRLF:
		if c == '\r' && pos+1 < len(subject) && subject[pos+1] == '\n' {
			return true, 2
		}
		return false, 0
	case NewlineAnyCRLF:
		switch c {
		case '\n':
			return true, 1
		case '\r':
			if pos+1 < len(subject) && subject[pos+1] == '\n' {
				return true, 2
			}
			return true, 1
		}
		return false, 0
	case NewlineAny:
		switch c {
		case '\n', '\v', '\f':
			return true, 1
		case '\r':
			if pos+1 < len(subject) && subject[pos+1] == '\n' {
				return true, 2
			}
			return true, 1
		}
		if !utf {
			return single(c == 0x85)
		}
		r, n := utf8.DecodeRune(subject[pos:])
		switch r {
		case 0x85, 0x2028, 0x2029:
			return true, n
		}
		return false, 0
	}
	return false, 0
}

// WasNewline reports whether the bytes ending just before subject[pos]
// form a newline sequence of convention nl, and its length.
func WasNewline(subject []byte, pos int, nl Newline, utf bool) (bool, int) {
	if pos <= 0 || pos > len(subject) {
		return false, 0
	}
	c := subject[pos-1]
	switch nl {
	case NewlineLF:
		return single(c == '\n')
	case NewlineCR:
		return single(c == '\r')
	case NewlineCRLF:
		if c == '\n' && pos >= 2 && subject[pos-2] == '\r' {
			return true, 2
		}
		return false, 0
	case NewlineAnyCRLF:
		switch c {
		case '\r':
			return true, 1
		case '\n':
			if pos >= 2 && subject[pos-2] == '\r' {
				return true, 2
			}
			return true, 1
		}
		return false, 0
	case NewlineAny:
		switch c {
		case '\r', '\v', '\f':
			return true, 1
		case '\n':
			if pos >= 2 && subject[pos-2] == '\r' {
				return true, 2
			}
			return true, 1
		}
		if !utf {
			return single(c == 0x85)
		}
		r, n := utf8.DecodeLastRune(subject[:pos])
		switch r {
		case 0x85, 0x2028, 0x2029:
			return true, n
		}
		return false, 0
	}
	return false, 0
}

func single(ok bool) (bool, int) {
	if ok {
		return true, 1
	}
	return false, 0
}
