package qlparser

import "github.com/roach88/qlbind/internal/qlast"

// TokenType classifies a lexeme.
type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	IDENT
	INT
	FLOAT
	STRING
	BYTES
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }
	COMMA    // ,
	ASSIGN   // :=
	DCOLON   // ::
	LT       // <
	GT       // >
	MINUS    // -

	// keywords
	TRUE
	FALSE
	FILTER
	ORDER
	BY
	THEN
	ASC
	DESC
	SELECT
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "end of input", IDENT: "identifier", INT: "integer",
	FLOAT: "float", STRING: "string", BYTES: "bytes", LPAREN: "'('", RPAREN: "')'",
	LBRACKET: "'['", RBRACKET: "']'", LBRACE: "'{'", RBRACE: "'}'", COMMA: "','",
	ASSIGN: "':='", DCOLON: "'::'", LT: "'<'", GT: "'>'", MINUS: "'-'",
	TRUE: "TRUE", FALSE: "FALSE", FILTER: "FILTER", ORDER: "ORDER", BY: "BY",
	THEN: "THEN", ASC: "ASC", DESC: "DESC", SELECT: "SELECT",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// keywords are matched case-insensitively.
var keywords = map[string]TokenType{
	"true":   TRUE,
	"false":  FALSE,
	"filter": FILTER,
	"order":  ORDER,
	"by":     BY,
	"then":   THEN,
	"asc":    ASC,
	"desc":   DESC,
	"select": SELECT,
}

// Token is one lexeme. Literal holds the decoded value for strings and bytes.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal string
	Pos     qlast.Pos
}
