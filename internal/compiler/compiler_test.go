package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bc "github.com/KromDaniel/pcrego/internal/bytecode"
)

var (
	opRange = bc.OpStar + bc.Opcode(bc.KindRange)
	opPlus  = bc.OpStar + bc.Opcode(bc.KindPlus)
)

// corpus is a set of valid patterns covering most constructs.
var corpus = []struct {
	pattern string
	flags   Flag
}{
	{"abc", 0},
	{"a|b|c", 0},
	{"(a)(b)(c)", 0},
	{"a*b+c?", 0},
	{"a{2,4}", 0},
	{"a{3}", 0},
	{"a{2,}", 0},
	{"(ab){2,3}", 0},
	{"(ab){0,2}", 0},
	{"(ab){0,3}", 0},
	{"(ab)+", 0},
	{"(ab)*?", 0},
	{"(?:x|y)++", 0},
	{"(?:ab){20}", 0},
	{"[a-z0-9_]+", 0},
	{"[^abc]", 0},
	{`\d\w\s\D\W\S`, 0},
	{"(?i)abc", 0},
	{"(?i:a|b)c", 0},
	{`(?<n>x)\k<n>`, 0},
	{"(?=a)b", 0},
	{"(?!a)b", 0},
	{"(?=a)?b", 0},
	{"(?<=ab)c", 0},
	{"(?<!a|bc)d", 0},
	{"(?<=(?1))(ab)", 0},
	{"(a)(?1)", 0},
	{"(?1)(a)", 0},
	{"(a)(?1)+", 0},
	{"(?R)?", 0},
	{"(a)?(?(1)b|c)", 0},
	{"(?(R)a|b)", 0},
	{"(?(?=x)a|b)", 0},
	{"(?(<n>)a|b)(?<n>c)", 0},
	{`(?(DEFINE)(?<d>\d))(?&d)`, 0},
	{`\Qa.b\E+`, 0},
	{"x(*SKIP)y", 0},
	{"(*MARK:m)a", 0},
	{"(a(*ACCEPT))b", 0},
	{"(?|(a)|(b))", 0},
	{"(?x) a b # c", 0},
	{"[[:alpha:][:digit:]]", 0},
	{`\x41\101\o{101}\cA`, 0},
	{"^a$", 0},
	{"(?m)^a$", 0},
	{".+", 0},
	{"(?s).+", 0},
	{`\bfoo\b`, 0},
	{`(a|b)\1`, 0},
	{`\p{L}+`, 0},
	{"(?>a+)b", 0},
	{"(a|)*", 0},
	{"(?:)*", 0},
	{`\x{263A}+[\x{100}-\x{200}a]`, UTF},
	{`[^\d]\D+`, UTF},
	{"(?U)a*b", 0},
	{"a++b*+c?+", 0},
	{"(?:a|b){0}c", 0},
}

func TestCompileCorpus(t *testing.T) {
	for _, tt := range corpus {
		t.Run(tt.pattern, func(t *testing.T) {
			p := mustCompile(t, tt.pattern, tt.flags)
			require.NoError(t, p.Validate())
			checkLinks(t, p.Code, p.UTF())

			assert.Equal(t, bc.OpBra, bc.Opcode(p.Code[0]))
			assert.Equal(t, bc.OpEnd, bc.Opcode(p.Code[len(p.Code)-1]))
			assert.Equal(t, len(p.Code), p.Size)
			assert.Equal(t, len(p.Code)-1, bc.Close(p.Code, 0)+1+bc.LinkSize)
		})
	}
}

func TestCompileDeterministic(t *testing.T) {
	for _, tt := range corpus {
		a := mustCompile(t, tt.pattern, tt.flags)
		b := mustCompile(t, tt.pattern, tt.flags)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("pattern %q compiled differently (-first +second):\n%s", tt.pattern, diff)
		}
	}
}

func TestPreSize(t *testing.T) {
	for _, tt := range corpus {
		plain := mustCompile(t, tt.pattern, tt.flags)
		sized, err := Compile(tt.pattern, Config{Flags: tt.flags, PreSize: true})
		require.NoError(t, err, "pattern %q", tt.pattern)
		assert.Equal(t, plain.Code, sized.Code, "pattern %q", tt.pattern)
		assert.Equal(t, len(sized.Code), cap(sized.Code), "pattern %q", tt.pattern)
	}
}

func TestBoundedCharRepeat(t *testing.T) {
	p := mustCompile(t, "a{2,4}", 0)
	assert.Equal(t, []byte{byte(opRange), 0, 2, 0, 4, 'a'}, body(p))

	pc := findOp(p.Code, false, opRange)
	require.GreaterOrEqual(t, pc, 0)
	assert.Equal(t, 2, bc.Get2(p.Code, pc+1))
	assert.Equal(t, 4, bc.Get2(p.Code, pc+3))
}

func TestNamedBackreference(t *testing.T) {
	p := mustCompile(t, `(?<name>a)\k<name>`, 0)
	assert.Equal(t, 1, p.Groups)
	assert.Equal(t, []NameEntry{{Name: "name", Number: 1}}, p.Names)

	pc := findOp(p.Code, false, bc.OpRef)
	require.GreaterOrEqual(t, pc, 0)
	assert.Equal(t, 1, bc.Get2(p.Code, pc+1))
	assert.Equal(t, uint32(1<<1), p.BackrefMap)
	assert.Equal(t, 1, p.BackrefMax)

	n, ok := p.GroupNumber("name")
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	_, ok = p.GroupNumber("other")
	assert.False(t, ok)
}

func TestNullableGroupLoop(t *testing.T) {
	tests := []struct {
		pattern string
		want    []bc.Opcode
	}{
		{"(a|)*", []bc.Opcode{bc.OpBra, bc.OpBraZero, bc.OpSCBra, bc.OpChar, bc.OpAlt, bc.OpKetRMax, bc.OpKet, bc.OpEnd}},
		{"(a)*", []bc.Opcode{bc.OpBra, bc.OpBraZero, bc.OpCBra, bc.OpChar, bc.OpKetRMax, bc.OpKet, bc.OpEnd}},
		{"(?:a?)*", []bc.Opcode{bc.OpBra, bc.OpBraZero, bc.OpSBra, bc.OpStar + bc.Opcode(bc.KindQuery), bc.OpKetRMax, bc.OpKet, bc.OpEnd}},
		{"(a|b*)+", []bc.Opcode{bc.OpBra, bc.OpSCBra, bc.OpChar, bc.OpAlt, bc.OpStar, bc.OpKetRMax, bc.OpKet, bc.OpEnd}},
		{"(?:ab)+", []bc.Opcode{bc.OpBra, bc.OpBra, bc.OpChar, bc.OpChar, bc.OpKetRMax, bc.OpKet, bc.OpEnd}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p := mustCompile(t, tt.pattern, 0)
			assert.Equal(t, tt.want, ops(p.Code, false))
		})
	}
}

func TestGroupRepeat(t *testing.T) {
	const (
		bra   = bc.OpBra
		ket   = bc.OpKet
		char  = bc.OpChar
		zero  = bc.OpBraZero
		end   = bc.OpEnd
		rmax  = bc.OpKetRMax
		rmin  = bc.OpKetRMin
		once  = bc.OpOnce
		skip0 = bc.OpSkipZero
	)

	tests := []struct {
		pattern string
		cfg     Config
		want    []bc.Opcode
	}{
		{"(?:ab){2}", Config{}, []bc.Opcode{bra, bra, char, char, ket, bra, char, char, ket, ket, end}},
		{"(?:ab){0}", Config{}, []bc.Opcode{bra, skip0, bra, char, char, ket, ket, end}},
		{"(?:ab){0,2}", Config{}, []bc.Opcode{bra, zero, bra, bra, char, char, ket, zero, bra, char, char, ket, ket, ket, end}},
		{"(?:ab){0,3}", Config{}, []bc.Opcode{
			bra, zero, bra, bra, char, char, ket,
			zero, bra, bra, char, char, ket,
			zero, bra, char, char, ket,
			ket, ket, ket, end,
		}},
		{"(?:ab){2,}", Config{}, []bc.Opcode{bra, bra, char, char, ket, bra, char, char, rmax, ket, end}},
		{"(?:ab){1,2}", Config{}, []bc.Opcode{bra, bra, char, char, ket, zero, bra, char, char, ket, ket, end}},
		{"(?:ab)*?", Config{}, []bc.Opcode{bra, bc.OpBraMinZero, bra, char, char, rmin, ket, end}},
		{"(?:ab)*+", Config{}, []bc.Opcode{bra, once, zero, bra, char, char, rmax, ket, ket, end}},
		{"(?:ab){10}", Config{}, []bc.Opcode{bra, bc.OpRepeat, bra, char, char, ket, ket, end}},
		{"(?:ab){2}", Config{DuplicateLimit: -1}, []bc.Opcode{bra, bc.OpRepeat, bra, char, char, ket, ket, end}},
		{"(?:ab){2,5}?", Config{DuplicateLimit: 3}, []bc.Opcode{bra, bc.OpMinRepeat, bra, char, char, ket, ket, end}},
		{"(?=a)?b", Config{}, []bc.Opcode{bra, zero, bc.OpAssert, char, ket, char, ket, end}},
		{"(?=a){2}b", Config{}, []bc.Opcode{bra, bc.OpAssert, char, ket, char, ket, end}},
		{"(?R)?", Config{}, []bc.Opcode{bra, zero, bra, bc.OpRecurse, ket, ket, end}},
		{"a{0}b", Config{}, []bc.Opcode{bra, char, ket, end}},
		{"[ab]{0}c", Config{}, []bc.Opcode{bra, char, ket, end}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ops(p.Code, false))
			checkLinks(t, p.Code, false)
		})
	}

	t.Run("repeat operands", func(t *testing.T) {
		p := mustCompile(t, "(?:ab){3,20}", 0)
		pc := findOp(p.Code, false, bc.OpRepeat)
		require.GreaterOrEqual(t, pc, 0)
		assert.Equal(t, 3, bc.Get2(p.Code, pc+1))
		assert.Equal(t, 20, bc.Get2(p.Code, pc+3))

		p = mustCompile(t, "(?:ab){9,}", 0)
		pc = findOp(p.Code, false, bc.OpRepeat)
		require.GreaterOrEqual(t, pc, 0)
		assert.Equal(t, 9, bc.Get2(p.Code, pc+1))
		assert.Equal(t, bc.RepeatUnlimited, bc.Get2(p.Code, pc+3))
	})

	t.Run("copies keep their group number", func(t *testing.T) {
		p := mustCompile(t, "(a){3}", 0)
		assert.Equal(t, 1, p.Groups)
		var numbers []int
		for pc := 0; pc < len(p.Code); pc = bc.Next(p.Code, pc, false) {
			if bc.Opcode(p.Code[pc]) == bc.OpCBra {
				numbers = append(numbers, groupNumberAt(p.Code, pc))
			}
		}
		assert.Equal(t, []int{1, 1, 1}, numbers)
	})

	t.Run("repeated recursion keeps its target", func(t *testing.T) {
		p := mustCompile(t, "(a)(?1)+", 0)
		pc := findOp(p.Code, false, bc.OpRecurse)
		require.GreaterOrEqual(t, pc, 0)
		assert.Equal(t, findBracket(p.Code, 1, false), bc.GetRecurse(p.Code, pc))
	})
}

func TestSingleRepeat(t *testing.T) {
	star := func(k bc.RepeatKind) bc.Opcode { return bc.OpStar + bc.Opcode(k) }

	tests := []struct {
		pattern string
		flags   Flag
		want    []byte
	}{
		{"a*", 0, []byte{byte(star(bc.KindStar)), 'a'}},
		{"a*?", 0, []byte{byte(star(bc.KindMinStar)), 'a'}},
		{"a+?", 0, []byte{byte(star(bc.KindMinPlus)), 'a'}},
		{"a??", 0, []byte{byte(star(bc.KindMinQuery)), 'a'}},
		{"a*+", 0, []byte{byte(star(bc.KindPosStar)), 'a'}},
		{"a{3}", 0, []byte{byte(opRange), 0, 3, 0, 3, 'a'}},
		{"a{2,}", 0, []byte{byte(opRange), 0, 2, 0, 0, 'a'}},
		{"a{2,3}?", 0, []byte{byte(star(bc.KindMinRange)), 0, 2, 0, 3, 'a'}},
		{"a{1}", 0, []byte{byte(bc.OpChar), 'a'}},
		{"a*", Ungreedy, []byte{byte(star(bc.KindMinStar)), 'a'}},
		{"a*?", Ungreedy, []byte{byte(star(bc.KindStar)), 'a'}},
		{"[^a]*", 0, []byte{byte(bc.OpNotStar), 'a'}},
		{`\d?`, 0, []byte{byte(bc.OpTypeStar + bc.Opcode(bc.KindQuery)), byte(bc.OpDigit)}},
		{"x{,3}", 0, []byte{byte(bc.OpChar), 'x', byte(bc.OpChar), '{', byte(bc.OpChar), ',', byte(bc.OpChar), '3', byte(bc.OpChar), '}'}},
		{`(a)\1{2}`, 0, []byte{
			byte(bc.OpCBra), 0, 7, 0, 1, byte(bc.OpChar), 'a', byte(bc.OpKet), 0, 7,
			byte(bc.OpRef), 0, 1, byte(bc.OpCRStar + bc.Opcode(bc.KindRange)), 0, 2, 0, 2,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p := mustCompile(t, tt.pattern, tt.flags)
			assert.Equal(t, tt.want, body(p))
		})
	}
}

func TestOptionMarkers(t *testing.T) {
	tests := []struct {
		pattern string
		want    []bc.Opcode
	}{
		{"a(?i)b", []bc.Opcode{bc.OpBra, bc.OpChar, bc.OpOpt, bc.OpCharI, bc.OpKet, bc.OpEnd}},
		{"(?i:a|b)c", []bc.Opcode{bc.OpBra, bc.OpBra, bc.OpOpt, bc.OpCharI, bc.OpAlt, bc.OpOpt, bc.OpCharI, bc.OpKet, bc.OpChar, bc.OpKet, bc.OpEnd}},
		{"(?i)a|b", []bc.Opcode{bc.OpBra, bc.OpOpt, bc.OpCharI, bc.OpAlt, bc.OpOpt, bc.OpCharI, bc.OpKet, bc.OpEnd}},
		{"(?i)(?-i)a", []bc.Opcode{bc.OpBra, bc.OpOpt, bc.OpOpt, bc.OpChar, bc.OpKet, bc.OpEnd}},
		{"(?i)(?i)a", []bc.Opcode{bc.OpBra, bc.OpOpt, bc.OpCharI, bc.OpKet, bc.OpEnd}},
		{"(?x)a#c\nb", []bc.Opcode{bc.OpBra, bc.OpOpt, bc.OpChar, bc.OpChar, bc.OpKet, bc.OpEnd}},
		{"(?i)1", []bc.Opcode{bc.OpBra, bc.OpOpt, bc.OpChar, bc.OpKet, bc.OpEnd}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p := mustCompile(t, tt.pattern, 0)
			assert.Equal(t, tt.want, ops(p.Code, false))
		})
	}

	p := mustCompile(t, "a(?im)b", 0)
	pc := findOp(p.Code, false, bc.OpOpt)
	require.GreaterOrEqual(t, pc, 0)
	assert.Equal(t, byte(bc.OptCaseless|bc.OptMultiline), p.Code[pc+1])
}

func TestLookbehind(t *testing.T) {
	fixed := []struct {
		pattern string
		lengths []int
	}{
		{"(?<=abc)d", []int{3}},
		{"(?<=a|bc)d", []int{1, 2}},
		{"(?<!a|bc)d", []int{1, 2}},
		{"(?<=a{3})b", []int{3}},
		{"(?<=(ab|cd))e", []int{2}},
		{"(?<=[a-z]{2})x", []int{2}},
		{`(?<=\d\b.)x`, []int{2}},
		{"(?<=(?=xyz)a)b", []int{1}},
		{"(?<=(?1))(ab)", []int{2}},
		{"(a)(?<=(?1)b)", []int{2}},
		{"(?<=(?:ab){2})c", []int{4}},
	}
	for _, tt := range fixed {
		t.Run(tt.pattern, func(t *testing.T) {
			p := mustCompile(t, tt.pattern, 0)
			var got []int
			for pc := 0; pc < len(p.Code); pc = bc.Next(p.Code, pc, false) {
				if bc.Opcode(p.Code[pc]) == bc.OpReverse {
					got = append(got, bc.Get2(p.Code, pc+1))
				}
			}
			assert.Equal(t, tt.lengths, got)

			max := 0
			for _, n := range tt.lengths {
				if n > max {
					max = n
				}
			}
			assert.Equal(t, max, p.MaxLookbehind)
		})
	}

	variable := []struct {
		pattern string
		flags   Flag
		code    ErrorCode
		offset  int
	}{
		{"(?<=a+)b", 0, ErrLookbehindNotFixed, 0},
		{"(?<=a*)b", 0, ErrLookbehindNotFixed, 0},
		{"x(?<=(ab|c))", 0, ErrLookbehindNotFixed, 1},
		{"(?<=a{1,3})", 0, ErrLookbehindNotFixed, 0},
		{`(a)(?<=\1)b`, 0, ErrLookbehindNotFixed, 3},
		{`(?<=\R)`, 0, ErrLookbehindNotFixed, 0},
		{"(?<=a?)", 0, ErrLookbehindNotFixed, 0},
		{`(?<=\C)`, UTF, ErrLookbehindUnsupported, 0},
		{"(?<=(?1))(a+)(b)", 0, ErrLookbehindNotFixed, 0},
	}
	for _, tt := range variable {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := Compile(tt.pattern, Config{Flags: tt.flags})
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.code, cerr.Code)
			assert.Equal(t, tt.offset, cerr.Offset)
		})
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		pattern string
		cfg     Config
		code    ErrorCode
		offset  int
	}{
		{"(abc", Config{}, ErrUnmatchedParen, 0},
		{"x(a(b)", Config{}, ErrUnmatchedParen, 1},
		{"abc)", Config{}, ErrUnmatchedCloseParen, 3},
		{"*a", Config{}, ErrNothingToRepeat, 0},
		{"a**", Config{}, ErrNothingToRepeat, 2},
		{"(*MARK:x)+", Config{}, ErrNothingToRepeat, 9},
		{"^*", Config{}, ErrRepeatAssertion, 1},
		{`\b+`, Config{}, ErrRepeatAssertion, 2},
		{"a{3,2}", Config{}, ErrQuantifierOutOfOrder, 1},
		{"a{70000}", Config{}, ErrQuantifierTooBig, 1},
		{"[b-a]", Config{}, ErrClassRangeOrder, 1},
		{"[abc", Config{}, ErrMissingClassTerminator, 0},
		{"[:alpha:]", Config{}, ErrPosixOutsideClass, 0},
		{"[[:foo:]]", Config{}, ErrUnknownPosixClass, 1},
		{"[[.a.]]", Config{}, ErrPosixCollating, 1},
		{"(?<n>a)(?<n>b)", Config{}, ErrDuplicateName, 7},
		{"(?(1)a|b|c)", Config{}, ErrConditionBranches, 0},
		{"(?(DEFINE)a|b)", Config{}, ErrDefineBranches, 0},
		{"(?(?x)a)", Config{}, ErrAssertionExpected, 3},
		{"(?(%)a)", Config{}, ErrBadCondition, 3},
		{"(?(0)a)", Config{}, ErrGroupZero, 0},
		{`\k<nope>`, Config{}, ErrUnknownName, 0},
		{`(a)\2`, Config{}, ErrUnknownGroup, 3},
		{"(?2)(a)", Config{}, ErrUnknownGroup, 0},
		{`\g{0}`, Config{}, ErrGroupZero, 0},
		{`\g{-2}(a)`, Config{}, ErrUnknownGroup, 0},
		{`\`, Config{}, ErrEscapeAtEnd, 0},
		{`a\c`, Config{}, ErrControlAtEnd, 1},
		{`\x{zz}`, Config{}, ErrBadHex, 3},
		{`\x{41`, Config{}, ErrMissingBrace, 0},
		{`\x{100}`, Config{}, ErrCharTooLarge, 0},
		{`\x{d800}`, Config{Flags: UTF}, ErrCharTooLarge, 0},
		{`\o{8}`, Config{}, ErrBadOctal, 3},
		{`\p{Foo}`, Config{}, ErrBadPropertyName, 0},
		{`\p{L`, Config{}, ErrMalformedProperty, 0},
		{`\u`, Config{}, ErrUnsupportedEscape, 0},
		{`\N{U+41}`, Config{}, ErrUnsupportedEscape, 0},
		{`\q`, Config{Flags: Extra}, ErrUnrecognizedEscape, 0},
		{`[\B]`, Config{}, ErrBadClassEscape, 1},
		{`[\R]`, Config{}, ErrBadClassEscape, 1},
		{"(?#abc", Config{}, ErrUnterminatedComment, 0},
		{"(?<1a>x)", Config{}, ErrBadName, 3},
		{"(?<" + strings.Repeat("n", MaxNameLength+1) + ">x)", Config{}, ErrNameTooLong, 3},
		{"(*FOO)", Config{}, ErrBadVerb, 0},
		{"(*MARK)", Config{}, ErrBadVerb, 0},
		{"(*ACCEPT:x)", Config{}, ErrBadVerb, 0},
		{"(?Y)", Config{}, ErrUnrecognizedGroup, 2},
		{"(?i-m-s)", Config{}, ErrUnrecognizedGroup, 5},
		{"a\xff", Config{Flags: UTF}, ErrBadUTF8, 1},
		{"((a))", Config{NestLimit: 2}, ErrNestTooDeep, 1},
		{"(?1)(?2)(a)(b)", Config{WorkspaceLimit: 1}, ErrWorkspaceOverflow, 4},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern, tt.cfg)
			require.Error(t, err)
			assert.Nil(t, p)

			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %T", err)
			assert.Equal(t, tt.code, cerr.Code, "got %v", cerr)
			assert.Equal(t, tt.offset, cerr.Offset, "got %v", cerr)
			assert.True(t, errors.Is(err, &Error{Code: tt.code}))
		})
	}
}

func TestPatternTooLarge(t *testing.T) {
	_, err := Compile("abcdefghij", Config{MaxSize: 10})
	assert.True(t, errors.Is(err, &Error{Code: ErrPatternTooLarge}))

	_, err = Compile("(?:abcd){8}", Config{MaxSize: 40})
	assert.True(t, errors.Is(err, &Error{Code: ErrPatternTooLarge}))
}

func TestErrorMessages(t *testing.T) {
	err := &Error{Code: ErrUnmatchedParen, Offset: 4}
	assert.Equal(t, "missing ) at offset 4", err.Error())
	assert.Equal(t, "structural", ErrUnmatchedParen.Phase())
	assert.Equal(t, "lexical", ErrBadHex.Phase())
	assert.Equal(t, "reference", ErrUnknownName.Phase())
	assert.Equal(t, "resource", ErrInternal.Phase())
	assert.Equal(t, "unknown error 9999", ErrorCode(9999).String())

	for code := range errorMessages {
		assert.NotEmpty(t, code.String())
	}
}

func TestGroupsAndNames(t *testing.T) {
	t.Run("branch reset", func(t *testing.T) {
		p := mustCompile(t, "(?|(a)|(b)(c))(d)", 0)
		assert.Equal(t, 3, p.Groups)
	})

	t.Run("branch reset reuses names", func(t *testing.T) {
		p := mustCompile(t, "(?|(?<n>a)|(?<n>b))", 0)
		assert.Equal(t, []NameEntry{{Name: "n", Number: 1}}, p.Names)
	})

	t.Run("duplicate names", func(t *testing.T) {
		p := mustCompile(t, "(?J)(?<n>a)|(?<n>b)", 0)
		assert.Equal(t, []NameEntry{{Name: "n", Number: 1}, {Name: "n", Number: 2}}, p.Names)
		n, ok := p.GroupNumber("n")
		assert.True(t, ok)
		assert.Equal(t, 1, n)
	})

	t.Run("caseless name lookup", func(t *testing.T) {
		mustCompile(t, `(?i)(?<Name>a)\k<name>`, 0)
		_, err := Compile(`(?<Name>a)\k<name>`, Config{})
		assert.True(t, errors.Is(err, &Error{Code: ErrUnknownName}))
	})

	t.Run("caseless lookup prefers the exact name", func(t *testing.T) {
		tests := []struct {
			pattern string
			want    int
		}{
			{`(?i)(?<a>x)(?<A>y)\k<A>`, 2},
			{`(?i)(?<a>x)(?<A>y)\k<a>`, 1},
			{`(?i)(?<A>x)(?<a>y)\k<a>`, 2},
			{`(?i)(?<ab>x)(?<Ab>y)\k<AB>`, 1},
		}
		for _, tt := range tests {
			p := mustCompile(t, tt.pattern, 0)
			pc := findOp(p.Code, false, bc.OpRefI)
			require.GreaterOrEqual(t, pc, 0, tt.pattern)
			assert.Equal(t, tt.want, bc.Get2(p.Code, pc+1), tt.pattern)
		}
	})

	t.Run("no auto capture", func(t *testing.T) {
		p := mustCompile(t, "(a)(?<n>b)", NoAutoCapture)
		assert.Equal(t, 1, p.Groups)
		assert.Equal(t, bc.OpBra, bc.Opcode(p.Code[3]))
	})

	t.Run("relative references", func(t *testing.T) {
		p := mustCompile(t, `(a)(b)\g{-1}\g-2`, 0)
		var refs []int
		for pc := 0; pc < len(p.Code); pc = bc.Next(p.Code, pc, false) {
			if bc.Opcode(p.Code[pc]) == bc.OpRef {
				refs = append(refs, bc.Get2(p.Code, pc+1))
			}
		}
		assert.Equal(t, []int{2, 1}, refs)
		assert.Equal(t, uint32(1<<1|1<<2), p.BackrefMap)
	})

	t.Run("forward subroutine", func(t *testing.T) {
		p := mustCompile(t, "(?+1)(a)", 0)
		pc := findOp(p.Code, false, bc.OpRecurse)
		assert.Equal(t, findBracket(p.Code, 1, false), bc.GetRecurse(p.Code, pc))
	})

	t.Run("named subroutine", func(t *testing.T) {
		for _, pattern := range []string{"(?&d)(?<d>x)", "(?P>d)(?<d>x)", `\g<d>(?<d>x)`, `(?<d>x)\g'1'`} {
			p := mustCompile(t, pattern, 0)
			pc := findOp(p.Code, false, bc.OpRecurse)
			require.GreaterOrEqual(t, pc, 0, pattern)
			assert.Equal(t, findBracket(p.Code, 1, false), bc.GetRecurse(p.Code, pc), pattern)
		}
	})

	t.Run("conditions", func(t *testing.T) {
		p := mustCompile(t, "(?(<n>)a|b)(?<n>c)", 0)
		pc := findOp(p.Code, false, bc.OpCRef)
		require.GreaterOrEqual(t, pc, 0)
		assert.Equal(t, 1, bc.Get2(p.Code, pc+1))

		p = mustCompile(t, "(?(R)a|b)", 0)
		pc = findOp(p.Code, false, bc.OpRRef)
		assert.Equal(t, bc.RRefAny, bc.Get2(p.Code, pc+1))

		p = mustCompile(t, "(?(R2)a)(b)(c)", 0)
		pc = findOp(p.Code, false, bc.OpRRef)
		assert.Equal(t, 2, bc.Get2(p.Code, pc+1))
	})

	t.Run("accept closes open groups", func(t *testing.T) {
		p := mustCompile(t, "(a(b(*ACCEPT)))", 0)
		var closed []int
		for pc := 0; pc < len(p.Code); pc = bc.Next(p.Code, pc, false) {
			if bc.Opcode(p.Code[pc]) == bc.OpClose {
				closed = append(closed, bc.Get2(p.Code, pc+1))
			}
		}
		assert.Equal(t, []int{2, 1}, closed)
	})
}

func TestLeadingItems(t *testing.T) {
	p := mustCompile(t, `(*UTF)(*CRLF)\x{263A}`, 0)
	assert.True(t, p.UTF())
	assert.Equal(t, NewlineCRLF, p.Newline)
	assert.Equal(t, []byte{byte(bc.OpChar), 0xe2, 0x98, 0xba}, body(p))

	p = mustCompile(t, "(*NO_AUTO_POSSESS)a+b", 0)
	assert.Equal(t, 0, p.Possessified)
	assert.Equal(t, opPlus, bc.Opcode(p.Code[3]))

	p = mustCompile(t, "(*ANY)(*LF)a", 0)
	assert.Equal(t, NewlineLF, p.Newline)
}

func TestVerboseLogging(t *testing.T) {
	var buf strings.Builder
	logger := NewLogger(true)
	logger.SetOutput(&buf)

	_, err := Compile("(a+)+b", Config{Logger: logger, PreSize: true})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== Compile ===")
	assert.Contains(t, out, "=== Pattern Analysis ===")
	assert.Contains(t, out, "Sizing pass")
	assert.Contains(t, out, "size=")
}

func TestLogger(t *testing.T) {
	t.Run("disabled logger produces no output", func(t *testing.T) {
		var buf strings.Builder
		logger := NewLogger(false)
		logger.SetOutput(&buf)

		logger.Log("test message")
		logger.Section("test section")

		assert.Empty(t, buf.String())
		assert.False(t, logger.Enabled())
	})

	t.Run("enabled logger produces output", func(t *testing.T) {
		var buf strings.Builder
		logger := NewLogger(true)
		logger.SetOutput(&buf)

		logger.Log("test message %d", 7)
		logger.Section("test section")

		out := buf.String()
		assert.Contains(t, out, "[pcrego] test message 7")
		assert.Contains(t, out, "test section")
	})
}

func TestLongRecursion(t *testing.T) {
	long := strings.Repeat("a", 17000)

	t.Run("backward call", func(t *testing.T) {
		p := mustCompile(t, long+"(?R)?", 0)
		pc := findOp(p.Code, false, bc.OpRecurse)
		require.Greater(t, pc, 32767)
		assert.Equal(t, 0, bc.GetRecurse(p.Code, pc))
		require.NoError(t, p.Validate())
	})

	t.Run("forward call", func(t *testing.T) {
		p := mustCompile(t, "(?1)"+long+"(b)", 0)
		pc := findOp(p.Code, false, bc.OpRecurse)
		target := findBracket(p.Code, 1, false)
		require.Greater(t, target-pc, 32767)
		assert.Equal(t, target, bc.GetRecurse(p.Code, pc))
		require.NoError(t, p.Validate())
	})

	t.Run("call into a group that gains a prefix", func(t *testing.T) {
		p := mustCompile(t, "(b"+long+"(?1)?)?", 0)
		pc := findOp(p.Code, false, bc.OpRecurse)
		require.Greater(t, pc, 32767)
		assert.Equal(t, bc.OpBraZero, bc.Opcode(p.Code[3]))
		assert.Equal(t, findBracket(p.Code, 1, false), bc.GetRecurse(p.Code, pc))
		require.NoError(t, p.Validate())
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Compile(strings.Repeat("a", 40000)+"(?R)", Config{})
		assert.True(t, errors.Is(err, &Error{Code: ErrPatternTooLarge}))
	})
}

func TestExtendedComments(t *testing.T) {
	tests := []struct {
		pattern string
		newline Newline
	}{
		{"a # one\nb # two\nc", NewlineLF},
		{"a # one\rb # two\rc", NewlineCR},
		{"a # one\r\nb # two\r\nc", NewlineCRLF},
		{"a # one \r\nb#\rc", NewlineAnyCRLF},
	}

	for _, tt := range tests {
		t.Run(tt.newline.String(), func(t *testing.T) {
			p, err := Compile(tt.pattern, Config{Flags: Extended, Newline: tt.newline})
			require.NoError(t, err)
			assert.Equal(t, []bc.Opcode{bc.OpChar, bc.OpChar, bc.OpChar}, ops(body(p), false))
		})
	}

	t.Run("pattern bytes are converted once", func(t *testing.T) {
		c := newTestContext("#a\n#b\nx", Extended)
		require.NoError(t, c.skipExtended())
		assert.Equal(t, len(c.pattern)-1, c.pos)
		first := &c.raw[0]

		c.pos = 0
		require.NoError(t, c.skipExtended())
		assert.Same(t, first, &c.raw[0])
	})
}
