package compiler

import "fmt"

// ErrorCode identifies why a pattern failed to compile. The set is closed;
// codes are grouped by the phase that detects them.
type ErrorCode int

// Lexical errors
const (
	ErrEscapeAtEnd ErrorCode = iota + 1
	ErrControlAtEnd
	ErrUnrecognizedEscape
	ErrUnsupportedEscape
	ErrBadHex
	ErrBadOctal
	ErrMissingBrace
	ErrCharTooLarge
	ErrMissingClassTerminator
	ErrBadClassEscape
	ErrBadPropertyName
	ErrMalformedProperty
	ErrBadUTF8
	ErrUnterminatedComment
	ErrBadName
	ErrNameTooLong
	ErrBadVerb
)

// Structural errors
const (
	ErrUnmatchedParen ErrorCode = iota + 100
	ErrUnmatchedCloseParen
	ErrUnrecognizedGroup
	ErrNothingToRepeat
	ErrRepeatAssertion
	ErrQuantifierOutOfOrder
	ErrQuantifierTooBig
	ErrClassRangeOrder
	ErrPosixOutsideClass
	ErrUnknownPosixClass
	ErrPosixCollating
	ErrDuplicateName
	ErrLookbehindNotFixed
	ErrLookbehindUnsupported
	ErrConditionBranches
	ErrDefineBranches
	ErrAssertionExpected
	ErrBadCondition
)

// Reference errors
const (
	ErrUnknownGroup ErrorCode = iota + 200
	ErrUnknownName
	ErrGroupZero
	ErrTooManyGroups
)

// Resource errors
const (
	ErrPatternTooLarge ErrorCode = iota + 300
	ErrTooManyNames
	ErrWorkspaceOverflow
	ErrNestTooDeep
	ErrInternal
)

var errorMessages = map[ErrorCode]string{
	ErrEscapeAtEnd:            `\ at end of pattern`,
	ErrControlAtEnd:           `\c at end of pattern`,
	ErrUnrecognizedEscape:     "unrecognized character follows \\",
	ErrUnsupportedEscape:      `\L, \l, \N{name}, \U and \u are not supported`,
	ErrBadHex:                 "invalid hexadecimal digit",
	ErrBadOctal:               "invalid octal digit",
	ErrMissingBrace:           "missing terminating }",
	ErrCharTooLarge:           "character value too large",
	ErrMissingClassTerminator: "missing terminating ] for character class",
	ErrBadClassEscape:         "escape sequence is invalid in character class",
	ErrBadPropertyName:        `unknown property name after \P or \p`,
	ErrMalformedProperty:      `malformed \P or \p sequence`,
	ErrBadUTF8:                "invalid UTF-8 string",
	ErrUnterminatedComment:    "missing ) after comment",
	ErrBadName:                "syntax error in subpattern name",
	ErrNameTooLong:            "subpattern name is too long",
	ErrBadVerb:                "(*VERB) not recognized or malformed",

	ErrUnmatchedParen:        "missing )",
	ErrUnmatchedCloseParen:   "unmatched parentheses",
	ErrUnrecognizedGroup:     "unrecognized character after (? or (?-",
	ErrNothingToRepeat:       "nothing to repeat",
	ErrRepeatAssertion:       "quantifier does not follow a repeatable item",
	ErrQuantifierOutOfOrder:  "numbers out of order in {} quantifier",
	ErrQuantifierTooBig:      "number too big in {} quantifier",
	ErrClassRangeOrder:       "range out of order in character class",
	ErrPosixOutsideClass:     "POSIX named classes are supported only within a class",
	ErrUnknownPosixClass:     "unknown POSIX class name",
	ErrPosixCollating:        "POSIX collating elements are not supported",
	ErrDuplicateName:         "two named subpatterns have the same name",
	ErrLookbehindNotFixed:    "lookbehind assertion is not fixed length",
	ErrLookbehindUnsupported: "lookbehind assertion contains an item of unknown width",
	ErrConditionBranches:     "conditional group contains more than two branches",
	ErrDefineBranches:        "DEFINE group contains more than one branch",
	ErrAssertionExpected:     "assertion expected after (?(",
	ErrBadCondition:          "malformed number or name after (?(",

	ErrUnknownGroup:  "reference to non-existent subpattern",
	ErrUnknownName:   "reference to non-existent named subpattern",
	ErrGroupZero:     "a numbered reference must not be zero",
	ErrTooManyGroups: "too many capturing parentheses",

	ErrPatternTooLarge:   "regular expression is too large",
	ErrTooManyNames:      "too many named subpatterns",
	ErrWorkspaceOverflow: "forward reference workspace exhausted",
	ErrNestTooDeep:       "parentheses are too deeply nested",
	ErrInternal:          "internal error: compiled program is inconsistent",
}

// String returns the error message for the code.
func (c ErrorCode) String() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error %d", int(c))
}

// Phase returns the phase group of the code: "lexical", "structural",
// "reference" or "resource".
func (c ErrorCode) Phase() string {
	switch {
	case c < 100:
		return "lexical"
	case c < 200:
		return "structural"
	case c < 300:
		return "reference"
	}
	return "resource"
}

// Error is a compile failure with the byte offset in the pattern where it
// was detected.
type Error struct {
	Code   ErrorCode
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Code, e.Offset)
}

// Is matches another *Error with the same code, so callers can write
// errors.Is(err, &compiler.Error{Code: compiler.ErrNothingToRepeat}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
