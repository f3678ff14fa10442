// Package compiler turns PCRE-style patterns into bytecode programs.
package compiler

import (
	"log/slog"
	"strings"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
	"github.com/KromDaniel/pcrego/internal/chartables"
)

// Config holds the options for one compilation.
type Config struct {
	Flags   Flag
	Newline Newline
	Tables  *chartables.Tables // nil selects the built-in C locale tables

	NestLimit      int  // maximum parenthesis nesting (0 = DefaultNestLimit)
	MaxSize        int  // maximum program length (0 = DefaultMaxSize)
	DuplicateLimit int  // maximum copies of a repeated group (0 = DefaultDuplicateLimit, <0 = never copy)
	WorkspaceLimit int  // maximum pending forward references (0 = DefaultWorkspaceLimit)
	PreSize        bool // run a sizing pass and compile into an exactly sized buffer
	Verbose        bool // log compilation details
	Logger         *Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.Tables == nil {
		cfg.Tables = chartables.Default()
	}
	if cfg.NestLimit <= 0 {
		cfg.NestLimit = DefaultNestLimit
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	switch {
	case cfg.DuplicateLimit == 0:
		cfg.DuplicateLimit = DefaultDuplicateLimit
	case cfg.DuplicateLimit < 0:
		cfg.DuplicateLimit = 0
	}
	if cfg.WorkspaceLimit <= 0 {
		cfg.WorkspaceLimit = DefaultWorkspaceLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = NewLogger(cfg.Verbose)
	}
	return cfg
}

// leadingItems are the (*...) settings accepted at the very start of a
// pattern.
var leadingItems = []struct {
	text  string
	apply func(*leading)
}{
	{"(*UTF8)", func(l *leading) { l.flags |= UTF }},
	{"(*UTF)", func(l *leading) { l.flags |= UTF }},
	{"(*CRLF)", func(l *leading) { l.newline = NewlineCRLF }},
	{"(*CR)", func(l *leading) { l.newline = NewlineCR }},
	{"(*LF)", func(l *leading) { l.newline = NewlineLF }},
	{"(*ANYCRLF)", func(l *leading) { l.newline = NewlineAnyCRLF }},
	{"(*ANY)", func(l *leading) { l.newline = NewlineAny }},
	{"(*NO_AUTO_POSSESS)", func(l *leading) { l.flags |= NoAutoPossess }},
}

type leading struct {
	flags   Flag
	newline Newline
	end     int
}

// readLeading consumes leading (*...) items.
func readLeading(pattern string, flags Flag, nl Newline) leading {
	l := leading{flags: flags, newline: nl}
	for {
		matched := false
		for _, item := range leadingItems {
			if strings.HasPrefix(pattern[l.end:], item.text) {
				item.apply(&l)
				l.end += len(item.text)
				matched = true
				break
			}
		}
		if !matched {
			return l
		}
	}
}

// Compile compiles pattern. Errors are *Error values carrying the code and
// the pattern offset where compilation stopped.
func Compile(pattern string, cfg Config) (*Program, error) {
	cfg = cfg.withDefaults()
	log := cfg.Logger

	lead := readLeading(pattern, cfg.Flags, cfg.Newline)
	log.Section("Compile")
	log.Log("Pattern: %s", pattern)
	log.Log("Options: %s, newline: %s", lead.flags, lead.newline)

	if lead.flags&UTF != 0 {
		if off := checkUTF8(pattern); off >= 0 {
			return nil, &Error{Code: ErrBadUTF8, Offset: off}
		}
	}

	sized := -1
	if cfg.PreSize {
		c, err := compileOnce(pattern, lead, cfg, 0)
		if err != nil {
			return nil, err
		}
		sized = len(c.code)
		log.Log("Sizing pass: %d bytes", sized)
	}

	c, err := compileOnce(pattern, lead, cfg, sized)
	if err != nil {
		log.Log("Error: %v", err)
		return nil, err
	}
	if sized >= 0 && len(c.code) != sized {
		log.Log("Sizing pass disagrees: %d != %d", sized, len(c.code))
		return nil, &Error{Code: ErrInternal, Offset: len(pattern)}
	}

	possessified := 0
	if lead.flags&NoAutoPossess == 0 {
		possessified = autoPossessify(c.code, c.utf, c.tables)
	}
	if err := bc.Validate(c.code, c.utf); err != nil {
		log.Log("Malformed program: %v", err)
		return nil, &Error{Code: ErrInternal, Offset: len(pattern)}
	}

	prog := &Program{
		Pattern:         pattern,
		Code:            c.code,
		Options:         lead.flags,
		Newline:         lead.newline,
		Groups:          c.groups,
		BackrefMax:      c.backrefMax,
		BackrefMap:      c.backrefMap,
		BackrefOverflow: c.backrefOverflow,
		Names:           c.names.entries,
		MaxLookbehind:   c.maxLookbehind,
		WorkspaceUsed:   c.fwdHigh,
		Size:            len(c.code),
		Possessified:    possessified,
	}
	analyze(prog, c)

	log.Section("Pattern Analysis")
	log.Attrs("program",
		slog.Int("size", prog.Size),
		slog.Int("groups", prog.Groups),
		slog.Int("names", len(prog.Names)),
		slog.Int("possessified", possessified),
	)
	log.Log("Anchored: %v, start of line: %v", prog.Anchored, prog.StartLine)
	log.Log("First char: %s, required char known: %v", prog.FirstChar.Kind, prog.RequiredChar.Known)
	log.Log("Max lookbehind: %d", prog.MaxLookbehind)
	return prog, nil
}

// compileOnce runs the parser over the whole pattern, appends END and
// resolves forward references. capHint sizes the code buffer.
func compileOnce(pattern string, lead leading, cfg Config, capHint int) (*compileContext, error) {
	if capHint <= 0 {
		capHint = 2*len(pattern) + 16
	}
	c := &compileContext{
		pattern: pattern,
		pos:     lead.end,
		code:    make([]byte, 0, capHint),
		tables:  cfg.Tables,
		utf:     lead.flags&UTF != 0,
		newline: lead.newline,
		cfg:     cfg,
		log:     cfg.Logger,
	}

	c.emit2(bc.OpBra, 0)
	g := bracket{pc: 0, offset: lead.end, outerOpt: lead.flags.optByte()}
	if err := c.compileRegex(lead.flags, g); err != nil {
		return nil, err
	}
	if !c.atEnd() {
		return nil, c.fail(ErrUnmatchedCloseParen, c.pos)
	}
	c.emit(bc.OpEnd)
	if err := c.checkSize(); err != nil {
		return nil, err
	}
	if err := c.resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

// resolve fills in the forward references recorded during compilation,
// then measures lookbehind branches that were waiting on them.
func (c *compileContext) resolve() error {
	var lookbehinds []forwardRef
	for _, r := range c.fwd {
		if r.kind == refLookbehind {
			lookbehinds = append(lookbehinds, r)
			continue
		}
		number := r.number
		if r.name != "" {
			n, ok := c.names.lookup(r.name, r.caseless)
			if !ok {
				return c.fail(ErrUnknownName, r.offset)
			}
			number = n
		}
		if number > c.groups {
			return c.fail(ErrUnknownGroup, r.offset)
		}
		switch r.kind {
		case refRecurse:
			target := findBracket(c.code, number, c.utf)
			if target < 0 {
				return c.fail(ErrUnknownGroup, r.offset)
			}
			bc.PutRecurse(c.code, r.pos, target)
		case refBackref:
			bc.Put2(c.code, r.pos+1, number)
			c.noteBackref(number)
		case refCond, refCondRecursion:
			bc.Put2(c.code, r.pos+1, number)
		}
	}
	c.log.Log("Resolved %d forward references", len(c.fwd)-len(lookbehinds))

	c.fwd = nil
	for _, r := range lookbehinds {
		if err := c.measureLookbehind(r.pos, r.offset); err != nil {
			return err
		}
		if len(c.fwd) > 0 {
			return c.fail(ErrInternal, r.offset)
		}
	}
	return nil
}

// analyze runs the post-compile analyzers over a finished program.
func analyze(p *Program, c *compileContext) {
	backrefs := p.BackrefMap != 0 || p.BackrefOverflow
	p.Anchored = p.Options&Anchored != 0 || isAnchored(p.Code, 0, backrefs)
	if !p.Anchored {
		p.StartLine = isStartLine(p.Code, 0)
		p.FirstChar = findFirstChar(p.Code, c.utf, c.tables)
	}
	p.RequiredChar = findRequiredChar(p.Code, c.utf)
}
