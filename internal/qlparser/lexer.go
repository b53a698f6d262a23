package qlparser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/qlbind/internal/qlast"
)

// Lexer splits fragment source into tokens.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int
	column       int
}

// NewLexer returns a lexer positioned at the first character of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.readPosition++
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// NextToken returns the next token; after the input is exhausted it keeps
// returning EOF.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	pos := qlast.Pos{Line: l.line, Column: l.column}

	single := func(t TokenType) Token {
		tok := Token{Type: t, Lexeme: string(l.ch), Pos: pos}
		l.readChar()
		return tok
	}

	switch {
	case l.ch == 0 && l.position >= len(l.input):
		return Token{Type: EOF, Pos: pos}
	case l.ch == '(':
		return single(LPAREN)
	case l.ch == ')':
		return single(RPAREN)
	case l.ch == '[':
		return single(LBRACKET)
	case l.ch == ']':
		return single(RBRACKET)
	case l.ch == '{':
		return single(LBRACE)
	case l.ch == '}':
		return single(RBRACE)
	case l.ch == ',':
		return single(COMMA)
	case l.ch == '<':
		return single(LT)
	case l.ch == '>':
		return single(GT)
	case l.ch == '-':
		return single(MINUS)
	case l.ch == ':':
		switch l.peekChar() {
		case '=':
			l.readChar()
			l.readChar()
			return Token{Type: ASSIGN, Lexeme: ":=", Pos: pos}
		case ':':
			l.readChar()
			l.readChar()
			return Token{Type: DCOLON, Lexeme: "::", Pos: pos}
		}
		return single(ILLEGAL)
	case l.ch == '\'' || l.ch == '"':
		return l.readString(pos, STRING)
	case (l.ch == 'b' || l.ch == 'B') && (l.peekChar() == '\'' || l.peekChar() == '"'):
		l.readChar()
		return l.readString(pos, BYTES)
	case isDigit(l.ch):
		return l.readNumber(pos)
	case isIdentStart(l.ch):
		start := l.position
		for isIdentPart(l.ch) {
			l.readChar()
		}
		word := l.input[start:l.position]
		if kw, ok := keywords[strings.ToLower(word)]; ok {
			return Token{Type: kw, Lexeme: word, Pos: pos}
		}
		return Token{Type: IDENT, Lexeme: word, Literal: word, Pos: pos}
	}
	return single(ILLEGAL)
}

func (l *Lexer) readNumber(pos qlast.Pos) Token {
	start := l.position
	typ := INT
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = FLOAT
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		typ = FLOAT
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	text := l.input[start:l.position]
	return Token{Type: typ, Lexeme: text, Literal: text, Pos: pos}
}

// readString consumes a quoted literal starting at the opening quote.
// For BYTES, \xHH escapes produce raw bytes and other characters must be ASCII.
func (l *Lexer) readString(pos qlast.Pos, typ TokenType) Token {
	quote := l.ch
	start := l.position
	l.readChar()

	var b strings.Builder
	for {
		switch l.ch {
		case quote:
			l.readChar()
			return Token{Type: typ, Lexeme: l.input[start:l.position], Literal: b.String(), Pos: pos}
		case 0:
			if l.position >= len(l.input) {
				return Token{Type: ILLEGAL, Lexeme: "unterminated string", Pos: pos}
			}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\', '\'', '"':
				b.WriteRune(l.ch)
			case 'x':
				hex := string([]rune{l.peekAt(1), l.peekAt(2)})
				n, err := strconv.ParseUint(hex, 16, 8)
				if err != nil {
					return Token{Type: ILLEGAL, Lexeme: `invalid \x escape`, Pos: pos}
				}
				l.readChar()
				l.readChar()
				if typ == BYTES {
					b.WriteByte(byte(n))
				} else {
					b.WriteRune(rune(n))
				}
			default:
				return Token{Type: ILLEGAL, Lexeme: "invalid escape \\" + string(l.ch), Pos: pos}
			}
			l.readChar()
			continue
		}
		if typ == BYTES && l.ch >= utf8.RuneSelf {
			return Token{Type: ILLEGAL, Lexeme: "non-ASCII character in bytes literal", Pos: pos}
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
}

// peekAt returns the rune n characters after the current one.
func (l *Lexer) peekAt(n int) rune {
	pos := l.readPosition
	var r rune
	for i := 0; i < n; i++ {
		if pos >= len(l.input) {
			return 0
		}
		var w int
		r, w = utf8.DecodeRuneInString(l.input[pos:])
		pos += w
	}
	return r
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}
