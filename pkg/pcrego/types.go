package pcrego

import "github.com/KromDaniel/pcrego/internal/compiler"

// Program is a compiled pattern. Programs are immutable once returned and
// may be shared between goroutines.
type Program = compiler.Program

// Error is a compile failure carrying the byte offset where it was found.
type Error = compiler.Error

// ErrorCode identifies the kind of compile failure.
type ErrorCode = compiler.ErrorCode

type (
	Flag          = compiler.Flag
	Newline       = compiler.Newline
	NameEntry     = compiler.NameEntry
	FirstChar     = compiler.FirstChar
	FirstCharKind = compiler.FirstCharKind
	RequiredChar  = compiler.RequiredChar
)

const (
	Caseless      = compiler.Caseless
	Multiline     = compiler.Multiline
	DotAll        = compiler.DotAll
	Extended      = compiler.Extended
	Anchored      = compiler.Anchored
	DollarEndOnly = compiler.DollarEndOnly
	Ungreedy      = compiler.Ungreedy
	NoAutoCapture = compiler.NoAutoCapture
	UTF           = compiler.UTF
	DupNames      = compiler.DupNames
	NoAutoPossess = compiler.NoAutoPossess
	Extra         = compiler.Extra
)

const (
	NewlineLF      = compiler.NewlineLF
	NewlineCR      = compiler.NewlineCR
	NewlineCRLF    = compiler.NewlineCRLF
	NewlineAnyCRLF = compiler.NewlineAnyCRLF
	NewlineAny     = compiler.NewlineAny
)

const (
	FirstUnknown = compiler.FirstUnknown
	FirstLiteral = compiler.FirstLiteral
	FirstSet     = compiler.FirstSet
)

// ParseFlag maps an option name such as "caseless" to its flag.
func ParseFlag(name string) (Flag, bool) {
	return compiler.ParseFlag(name)
}

// ParseNewline maps a convention name such as "crlf" to its value.
func ParseNewline(name string) (Newline, bool) {
	return compiler.ParseNewline(name)
}

// IsNewline reports whether a newline under nl starts at subject[pos],
// and its length in bytes.
func IsNewline(subject []byte, pos int, nl Newline, utf bool) (bool, int) {
	return compiler.IsNewline(subject, pos, nl, utf)
}

// WasNewline reports whether a newline under nl ends just before
// subject[pos], and its length in bytes.
func WasNewline(subject []byte, pos int, nl Newline, utf bool) (bool, int) {
	return compiler.WasNewline(subject, pos, nl, utf)
}
