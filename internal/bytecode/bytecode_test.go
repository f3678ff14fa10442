package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tiny is BRA CHAR 'a' KET END.
func tiny() []byte {
	return []byte{
		byte(OpBra), 0, 5,
		byte(OpChar), 'a',
		byte(OpKet), 0, 5,
		byte(OpEnd),
	}
}

func TestOperands(t *testing.T) {
	code := make([]byte, 4)

	Put2(code, 1, 0x1234)
	assert.Equal(t, []byte{0, 0x12, 0x34, 0}, code)
	assert.Equal(t, 0x1234, Get2(code, 1))

	PutRecurse(code, 0, 40000)
	assert.Equal(t, 40000, GetRecurse(code, 0))
	PutRecurse(code, 0, RecurseUnresolved)
	assert.Equal(t, 0xffff, GetRecurse(code, 0))

	assert.Equal(t, []byte{0xab, 0xcd}, Append2(nil, 0xabcd))
}

func TestRepeatOf(t *testing.T) {
	tests := []struct {
		op   Opcode
		base Opcode
		kind RepeatKind
		ok   bool
	}{
		{OpStar, OpStar, KindStar, true},
		{OpStar + Opcode(KindRange), OpStar, KindRange, true},
		{OpNotStarI + Opcode(KindMinPlus), OpNotStarI, KindMinPlus, true},
		{OpTypeStar + Opcode(KindPosQuery), OpTypeStar, KindPosQuery, true},
		{OpCRStar + Opcode(KindPosRange), OpCRStar, KindPosRange, true},
		{OpChar, 0, 0, false},
		{OpClass, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			base, kind, ok := RepeatOf(tt.op)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.base, base)
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestRepeatKinds(t *testing.T) {
	for _, k := range []RepeatKind{KindStar, KindPlus, KindQuery, KindRange} {
		assert.False(t, k.Lazy(), "greedy %d", k)
		assert.True(t, (k + 1).Lazy(), "lazy %d", k+1)
		assert.True(t, k.ToPossessive().Possessive())
		assert.Equal(t, k.Bounded(), k.ToPossessive().Bounded())
	}
	assert.Equal(t, "RANGE", (OpStar + Opcode(KindRange)).String())
	assert.Equal(t, "TYPEPOSPLUS", (OpTypeStar + Opcode(KindPosPlus)).String())
	assert.Equal(t, "CRMINQUERY", (OpCRStar + Opcode(KindMinQuery)).String())
	assert.Equal(t, "NOTSTARI", OpNotStarI.String())
}

func TestLength(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		utf  bool
		want int
	}{
		{"end", []byte{byte(OpEnd)}, false, 1},
		{"char", []byte{byte(OpChar), 'x'}, false, 2},
		{"utf char", []byte{byte(OpChar), 0xe2, 0x82, 0xac}, true, 4},
		{"utf lead ignored without utf", []byte{byte(OpChar), 0xe2, 0x82, 0xac}, false, 2},
		{"range", []byte{byte(OpStar + Opcode(KindRange)), 0, 2, 0, 4, 'a'}, false, 6},
		{"type star", []byte{byte(OpTypeStar), byte(OpDigit)}, false, 2},
		{"type star prop", []byte{byte(OpTypeStar), byte(OpProp), 1, 2}, false, 4},
		{"class repeat", []byte{byte(OpCRStar + Opcode(KindRange)), 0, 1, 0, 0}, false, 5},
		{"cbra", []byte{byte(OpCBra), 0, 0, 0, 1}, false, 5},
		{"xclass", []byte{byte(OpXClass), 0, 7, 0, XClassSingle, 'a', XClassEnd}, false, 7},
		{"mark", []byte{byte(OpMark), 2, 'h', 'i', 0}, false, 5},
		{"unknown", []byte{0xff}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Length(tt.code, 0, tt.utf))
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(tiny(), false))

	t.Run("missing end", func(t *testing.T) {
		code := tiny()
		assert.Error(t, Validate(code[:len(code)-1], false))
	})

	t.Run("mark ending in zero is not END", func(t *testing.T) {
		code := append(tiny()[:8], byte(OpMark), 1, 'x', 0)
		assert.Error(t, Validate(code, false))
	})

	t.Run("opener link into operand", func(t *testing.T) {
		code := tiny()
		Put2(code, 1, 4)
		assert.Error(t, Validate(code, false))
	})

	t.Run("ket not pointing at opener", func(t *testing.T) {
		code := tiny()
		Put2(code, 6, 2)
		assert.Error(t, Validate(code, false))
	})

	t.Run("recurse to outer bracket", func(t *testing.T) {
		code := []byte{
			byte(OpBra), 0, 6,
			byte(OpRecurse), 0, 0,
			byte(OpKet), 0, 6,
			byte(OpEnd),
		}
		PutRecurse(code, 3, 0)
		require.NoError(t, Validate(code, false))

		PutRecurse(code, 3, 5)
		assert.Error(t, Validate(code, false))

		PutRecurse(code, 3, RecurseUnresolved)
		assert.Error(t, Validate(code, false))
	})

	t.Run("truncated instruction", func(t *testing.T) {
		assert.Error(t, Validate([]byte{byte(OpCBra), 0}, false))
	})
}

func TestClose(t *testing.T) {
	code := []byte{
		byte(OpBra), 0, 5,
		byte(OpChar), 'a',
		byte(OpAlt), 0, 5,
		byte(OpChar), 'b',
		byte(OpKet), 0, 10,
		byte(OpEnd),
	}
	Put2(code, 1, 5)
	require.NoError(t, Validate(code, false))
	assert.Equal(t, 10, Close(code, 0))
	assert.Equal(t, 10, Close(code, 5))
}

func TestDisassemble(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Disassemble(&buf, tiny(), false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "BRA")
	assert.Contains(t, lines[0], "(-> 5)")
	assert.Contains(t, lines[1], "CHAR")
	assert.Contains(t, lines[1], "'a'")
	assert.Contains(t, lines[2], "(<- 0)")
	assert.Equal(t, "8  END", strings.TrimSpace(lines[3]))

	assert.Error(t, Disassemble(&buf, []byte{0xff}, false))
}

func TestInstruction(t *testing.T) {
	tests := []struct {
		name string
		ins  []byte
		want string
	}{
		{"range", []byte{byte(OpStar + Opcode(KindRange)), 0, 2, 0, 4, 'a'}, "{2,4} 'a'"},
		{"unbounded range", []byte{byte(OpStar + Opcode(KindRange)), 0, 3, 0, 0, 'a'}, "{3,} 'a'"},
		{"type", []byte{byte(OpTypeStar + Opcode(KindPlus)), byte(OpDigit)}, "DIGIT"},
		{"ref", []byte{byte(OpRef), 0, 3}, "3"},
		{"rref any", []byte{byte(OpRRef), 0xff, 0xff}, "any"},
		{"class", append([]byte{byte(OpClass)}, digitMap()...), "[0-9]"},
		{"mark", []byte{byte(OpMark), 2, 'h', 'i', 0}, `"hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Instruction(tt.ins, 0, false), tt.want)
		})
	}
}

func digitMap() []byte {
	m := make([]byte, ClassMapSize)
	for c := '0'; c <= '9'; c++ {
		m[c/8] |= 1 << (c % 8)
	}
	return m
}
