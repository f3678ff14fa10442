// Package pcrego compiles PCRE-style regular expressions into a compact
// bytecode program and can write precompiled programs out as Go source.
package pcrego

import (
	"fmt"

	"github.com/KromDaniel/pcrego/internal/compiler"
)

// Options configures compilation. The zero value compiles with the
// default limits, LF newlines and no flags.
type Options struct {
	// Flags are the compile-time options, e.g. Caseless|UTF.
	Flags Flag

	// Newline selects what counts as a line break for ^, $ and dot.
	Newline Newline

	// NestLimit bounds parenthesis nesting (0 selects 250).
	NestLimit int

	// MaxSize bounds the program length in bytes (0 selects 65535).
	MaxSize int

	// DuplicateLimit is how many copies of a repeated group are written out
	// before a REPEAT prefix is used instead (0 selects 8, negative never copies).
	DuplicateLimit int

	// PreSize runs a sizing pass first so the program buffer is allocated once.
	PreSize bool

	// Verbose logs compilation details to stderr.
	Verbose bool
}

const allFlags = Caseless | Multiline | DotAll | Extended | Anchored | DollarEndOnly |
	Ungreedy | NoAutoCapture | UTF | DupNames | NoAutoPossess | Extra

// Validate checks if the options are valid.
func (o Options) Validate() error {
	if unknown := o.Flags &^ allFlags; unknown != 0 {
		return fmt.Errorf("unknown flag bits %#x", uint32(unknown))
	}
	if o.Newline < NewlineLF || o.Newline > NewlineAny {
		return fmt.Errorf("unknown newline convention %d", int(o.Newline))
	}
	if o.NestLimit < 0 {
		return fmt.Errorf("nest limit cannot be negative")
	}
	if o.MaxSize < 0 {
		return fmt.Errorf("max size cannot be negative")
	}
	if o.MaxSize > compiler.DefaultMaxSize {
		return fmt.Errorf("max size %d exceeds %d", o.MaxSize, compiler.DefaultMaxSize)
	}
	return nil
}

func (o Options) config() compiler.Config {
	return compiler.Config{
		Flags:          o.Flags,
		Newline:        o.Newline,
		NestLimit:      o.NestLimit,
		MaxSize:        o.MaxSize,
		DuplicateLimit: o.DuplicateLimit,
		PreSize:        o.PreSize,
		Verbose:        o.Verbose,
	}
}

// Compile compiles pattern into a program.
// Syntax errors unwrap to *Error with the offending byte offset.
func Compile(pattern string, opts Options) (*Program, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	prog, err := compiler.Compile(pattern, opts.config())
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}
	return prog, nil
}

// MustCompile is like Compile but panics if the pattern cannot be compiled.
func MustCompile(pattern string, opts Options) *Program {
	prog, err := Compile(pattern, opts)
	if err != nil {
		panic(fmt.Sprintf("pcrego: Compile(%q): %v", pattern, err))
	}
	return prog
}
