package compiler

import (
	"strings"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

// Flag is a compile option bit.
type Flag uint32

const (
	// Caseless makes letters match both cases.
	Caseless Flag = 1 << iota
	// Multiline makes ^ and $ match at internal newlines.
	Multiline
	// DotAll makes . match newlines.
	DotAll
	// Extended ignores whitespace and #-comments in the pattern.
	Extended
	// Anchored forces the match to start at the first position.
	Anchored
	// DollarEndOnly makes $ match only at the very end of the subject.
	DollarEndOnly
	// Ungreedy inverts the greediness of quantifiers.
	Ungreedy
	// NoAutoCapture turns plain ( ) groups into non-capturing groups.
	NoAutoCapture
	// UTF treats the pattern and subjects as UTF-8.
	UTF
	// DupNames allows several groups to share a name.
	DupNames
	// NoAutoPossess disables the auto-possessify pass.
	NoAutoPossess
	// Extra rejects unknown alphanumeric escapes.
	Extra
)

var flagNames = []struct {
	f    Flag
	name string
}{
	{Caseless, "caseless"},
	{Multiline, "multiline"},
	{DotAll, "dotall"},
	{Extended, "extended"},
	{Anchored, "anchored"},
	{DollarEndOnly, "dollar_endonly"},
	{Ungreedy, "ungreedy"},
	{NoAutoCapture, "no_auto_capture"},
	{UTF, "utf"},
	{DupNames, "dupnames"},
	{NoAutoPossess, "no_auto_possess"},
	{Extra, "extra"},
}

func (f Flag) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseFlag maps an option name (as printed by Flag.String) to its bit.
func ParseFlag(name string) (Flag, bool) {
	for _, fn := range flagNames {
		if fn.name == strings.ToLower(name) {
			return fn.f, true
		}
	}
	return 0, false
}

// optByte packs the options a matcher needs into an OPT operand.
func (f Flag) optByte() byte {
	var b byte
	if f&Caseless != 0 {
		b |= bc.OptCaseless
	}
	if f&Multiline != 0 {
		b |= bc.OptMultiline
	}
	if f&DotAll != 0 {
		b |= bc.OptDotAll
	}
	if f&Extended != 0 {
		b |= bc.OptExtended
	}
	if f&Ungreedy != 0 {
		b |= bc.OptUngreedy
	}
	return b
}

// Newline selects which character sequences count as a newline.
type Newline int

const (
	NewlineLF Newline = iota
	NewlineCR
	NewlineCRLF
	NewlineAnyCRLF
	NewlineAny
)

var newlineNames = [...]string{"lf", "cr", "crlf", "anycrlf", "any"}

func (n Newline) String() string {
	if n >= 0 && int(n) < len(newlineNames) {
		return newlineNames[n]
	}
	return "unknown"
}

// ParseNewline maps a convention name to its value.
func ParseNewline(name string) (Newline, bool) {
	for i, s := range newlineNames {
		if s == strings.ToLower(name) {
			return Newline(i), true
		}
	}
	return 0, false
}
