// Package codegen writes compiled programs out as Go source.
package codegen

import (
	"strings"
	"unicode"
)

// Names used in generated code
const (
	ProgramTypeName      = "Program"
	NameTypeName         = "Name"
	FirstCharTypeName    = "FirstChar"
	RequiredCharTypeName = "RequiredChar"
	ProgramsVarName      = "Programs"
	PatternSuffix        = "Pattern"
)

// Identifier turns a manifest name such as "user-email" into an exported
// Go identifier ("UserEmail"). It returns "" when nothing usable is left.
func Identifier(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(UpperFirst(p))
	}
	id := b.String()
	if id == "" || unicode.IsDigit(rune(id[0])) {
		return ""
	}
	return id
}

// PatternConstName returns the name of the constant holding the source of
// the program called id.
func PatternConstName(id string) string {
	return id + PatternSuffix
}

// UpperFirst converts the first character of a string to uppercase.
func UpperFirst(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]&^0x20) + s[1:]
}
