package qlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlbind/internal/qlast"
)

func TestLexer_Tokens(t *testing.T) {
	l := NewLexer(`std::f(x := -1.5e3, b'\x00a', "s\n", [], <array<int64>>{}) filter`)
	want := []TokenType{
		IDENT, DCOLON, IDENT, LPAREN, IDENT, ASSIGN, MINUS, FLOAT, COMMA, BYTES, COMMA,
		STRING, COMMA, LBRACKET, RBRACKET, COMMA, LT, IDENT, LT, IDENT, GT, GT, LBRACE,
		RBRACE, RPAREN, FILTER, EOF, EOF,
	}
	var got []TokenType
	for range want {
		got = append(got, l.NextToken().Type)
	}
	assert.Equal(t, want, got)
}

func TestLexer_Literals(t *testing.T) {
	tok := NewLexer(`b'\x00\x7f'`).NextToken()
	require.Equal(t, BYTES, tok.Type)
	assert.Equal(t, "\x00\x7f", tok.Literal)

	tok = NewLexer(`'it\'s'`).NextToken()
	require.Equal(t, STRING, tok.Type)
	assert.Equal(t, "it's", tok.Literal)

	tok = NewLexer("\n  foo").NextToken()
	assert.Equal(t, qlast.Pos{Line: 2, Column: 3}, tok.Pos)

	assert.Equal(t, ILLEGAL, NewLexer(`'open`).NextToken().Type)
	assert.Equal(t, ILLEGAL, NewLexer(`b'é'`).NextToken().Type)
}

func TestParseCall(t *testing.T) {
	call, err := ParseCall(`std::f(1, 'a', y := true)`)
	require.NoError(t, err)

	assert.Equal(t, "std", call.Module)
	assert.Equal(t, "f", call.Name)
	require.Len(t, call.Args, 2)
	assert.Equal(t, &qlast.IntLiteral{Pos: qlast.Pos{Line: 1, Column: 8}, Value: "1"}, call.Args[0].Arg)
	require.Len(t, call.Kwargs, 1)
	assert.Equal(t, "y", call.Kwargs[0].Name)
	assert.Equal(t, true, call.Kwargs[0].Arg.Arg.(*qlast.BoolLiteral).Value)
}

func TestParseCall_Clauses(t *testing.T) {
	call, err := ParseCall(`array_agg(x FILTER f(x) ORDER BY x DESC THEN g(x))`)
	require.NoError(t, err)
	require.Len(t, call.Args, 1)

	arg := call.Args[0]
	assert.IsType(t, &qlast.FunctionCall{}, arg.Filter)
	require.Len(t, arg.Sort, 2)
	assert.True(t, arg.Sort[0].Descending)
	assert.False(t, arg.Sort[1].Descending)
}

func TestParseFragment_RoundTrip(t *testing.T) {
	tests := []string{
		`f()`,
		`std::len('abc')`,
		`f(1, -2, 3.5, y := 'b')`,
		`<std::int64>{}`,
		`<array<str>>[]`,
		`[1, 2, 3]`,
		`f(b'\x00', true, false)`,
		`(SELECT f(x) FILTER g(x) ORDER BY x DESC)`,
		`sum(x FILTER x ORDER BY x THEN y)`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			expr, err := ParseFragment(src)
			require.NoError(t, err)
			assert.Equal(t, src, qlast.String(expr))
		})
	}
}

func TestParseFragment_Errors(t *testing.T) {
	tests := []struct {
		src     string
		message string
	}{
		{`f(`, "expected expression"},
		{`f(1 2)`, "expected ','"},
		{`f(x := 1, 2)`, "positional argument follows named argument"},
		{`f(x := 1, x := 2)`, `duplicate named argument "x"`},
		{`std::x`, "is not an expression"},
		{`<int64 1`, "expected '>'"},
		{`1 2`, "expected end of input"},
		{`{1}`, "expected '}'"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := ParseFragment(tt.src)
			require.Error(t, err)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Message, tt.message)
		})
	}
}

func TestParseCall_NotACall(t *testing.T) {
	_, err := ParseCall(`42`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1:1: expected a function call")
}
