package chartables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultClasses(t *testing.T) {
	tb := Default()

	tests := []struct {
		class Class
		in    string
		out   string
	}{
		{Space, " \t\n\v\f\r", "a0_\x00"},
		{Digit, "0123456789", "a/:"},
		{XDigit, "09afAF", "gG"},
		{Upper, "AZ", "az@["},
		{Lower, "az", "AZ`{"},
		{Word, "aZ0_", " -\x80"},
		{Punct, "!-/@[`{~", "a0 "},
		{Cntrl, "\x00\x1f\x7f", " a"},
		{Graph, "!~", " \x7f"},
		{Print, " ~", "\x7f\x00"},
	}

	for _, tt := range tests {
		for _, c := range []byte(tt.in) {
			assert.True(t, tb.Is(tt.class, c), "class %d should contain %q", tt.class, c)
		}
		for _, c := range []byte(tt.out) {
			assert.False(t, tb.Is(tt.class, c), "class %d should not contain %q", tt.class, c)
		}
	}
}

func TestCase(t *testing.T) {
	tb := Default()
	assert.Equal(t, byte('a'), tb.Lower['A'])
	assert.Equal(t, byte('a'), tb.Lower['a'])
	assert.Equal(t, byte('A'), tb.Flip['a'])
	assert.Equal(t, byte('z'), tb.Flip['Z'])
	assert.Equal(t, byte('1'), tb.Flip['1'])
	assert.Equal(t, byte(0xe9), tb.Flip[0xe9])
}

func TestCtype(t *testing.T) {
	tb := Default()
	assert.True(t, tb.Ctype('a', CtypeLetter|CtypeWord|CtypeXDigit))
	assert.False(t, tb.Ctype('g', CtypeXDigit))
	assert.True(t, tb.Ctype('*', CtypeMeta))
	assert.False(t, tb.Ctype('a', CtypeMeta))
	assert.True(t, tb.Ctype(' ', CtypeSpace))
}

func TestBitmapIsACopy(t *testing.T) {
	tb := Default()
	m := tb.Bitmap(Digit)
	m[6] = 0
	assert.True(t, tb.Is(Digit, '0'))
}
