package compiler

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

func TestProgramBinaryRoundTrip(t *testing.T) {
	for _, pattern := range []string{"abc", `(?<y>\d{4})-(?<m>\d\d)`, "(?i)^a|b$", `(?<=x)[\x{100}-\x{200}]+`} {
		t.Run(pattern, func(t *testing.T) {
			p := mustCompile(t, pattern, UTF)
			data, err := p.MarshalBinary()
			require.NoError(t, err)

			var got Program
			require.NoError(t, got.UnmarshalBinary(data))
			if diff := cmp.Diff(p, &got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			again, err := got.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestProgramUnmarshalErrors(t *testing.T) {
	var p Program
	assert.Error(t, p.UnmarshalBinary([]byte{0xff, 0x00}))

	bad := &Program{Pattern: "x", Code: []byte{byte(bc.OpBra), 0, 9, byte(bc.OpEnd)}}
	data, err := bad.MarshalBinary()
	require.NoError(t, err)
	assert.Error(t, p.UnmarshalBinary(data))
	assert.Empty(t, p.Code)
}

func TestFingerprint(t *testing.T) {
	a := mustCompile(t, "a+b", 0)
	assert.Equal(t, a.Fingerprint(), mustCompile(t, "a+b", 0).Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), mustCompile(t, "a+c", 0).Fingerprint())

	nl, err := Compile("a+b", Config{Newline: NewlineCRLF})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), nl.Fingerprint())

	assert.NotEqual(t,
		mustCompile(t, "(?<x>a)", 0).Fingerprint(),
		mustCompile(t, "(?<y>a)", 0).Fingerprint())
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, mustCompile(t, "ab", 0).Dump(&buf))
	assert.Contains(t, buf.String(), "CHAR")
	assert.Contains(t, buf.String(), "END")
}

func TestFlagNames(t *testing.T) {
	assert.Equal(t, "none", Flag(0).String())
	assert.Equal(t, "caseless|utf", (Caseless | UTF).String())

	f, ok := ParseFlag("DOTALL")
	assert.True(t, ok)
	assert.Equal(t, DotAll, f)
	_, ok = ParseFlag("bogus")
	assert.False(t, ok)
}
