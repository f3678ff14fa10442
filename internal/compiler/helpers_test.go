package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

func mustCompile(t *testing.T, pattern string, flags Flag) *Program {
	t.Helper()
	p, err := Compile(pattern, Config{Flags: flags})
	require.NoError(t, err, "pattern %q", pattern)
	return p
}

// ops lists the opcodes of a program in order.
func ops(code []byte, utf bool) []bc.Opcode {
	var out []bc.Opcode
	for pc := 0; pc < len(code); pc = bc.Next(code, pc, utf) {
		out = append(out, bc.Opcode(code[pc]))
	}
	return out
}

// body returns the code between the outer BRA and its KET for a pattern
// with a single top-level branch.
func body(p *Program) []byte {
	return p.Code[1+bc.LinkSize : len(p.Code)-1-(1+bc.LinkSize)]
}

// findOp returns the pc of the first instruction with opcode op, or -1.
func findOp(code []byte, utf bool, op bc.Opcode) int {
	for pc := 0; pc < len(code); pc = bc.Next(code, pc, utf) {
		if bc.Opcode(code[pc]) == op {
			return pc
		}
	}
	return -1
}

// checkLinks verifies that every opener reaches a KET through its chain
// of ALTs and that the KET links straight back to it.
func checkLinks(t *testing.T, code []byte, utf bool) {
	t.Helper()
	for pc := 0; pc < len(code); pc = bc.Next(code, pc, utf) {
		if !bc.Opener(bc.Opcode(code[pc])) {
			continue
		}
		ket := bc.Close(code, pc)
		require.Equal(t, ket-pc, bc.GetLink(code, ket), "KET at %d does not link back to %d", ket, pc)
	}
}

// newTestContext returns a context positioned at the start of pattern.
func newTestContext(pattern string, flags Flag) *compileContext {
	cfg := Config{Flags: flags}.withDefaults()
	return &compileContext{
		pattern: pattern,
		tables:  cfg.Tables,
		utf:     flags&UTF != 0,
		cfg:     cfg,
		log:     cfg.Logger,
	}
}
