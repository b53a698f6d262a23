// Package qlparser parses call sites and stored expression fragments
// (parameter defaults, aggregate initial values) into qlast trees.
//
// The grammar covers what those fragments use:
//
//	expr     := literal | '{' '}' | '[' [expr {',' expr}] ']'
//	          | '<' type '>' expr | '(' expr ')' | name [ '(' args ')' ]
//	          | SELECT expr [FILTER expr] [ORDER BY sort {THEN sort}]
//	name     := IDENT ['::' IDENT]
//	type     := name ['<' type {',' type} '>']
//	args     := [arg {',' arg}]
//	arg      := [IDENT ':='] expr [FILTER expr] [ORDER BY sort {THEN sort}]
//	sort     := expr [ASC | DESC]
package qlparser

import (
	"fmt"

	"github.com/roach88/qlbind/internal/qlast"
)

// ParseError reports a syntax error with its source position.
type ParseError struct {
	Pos     qlast.Pos
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Parser is a recursive-descent parser over a Lexer.
type Parser struct {
	l         *Lexer
	curToken  Token
	peekToken Token
}

// New returns a parser reading src.
func New(src string) *Parser {
	p := &Parser{l: NewLexer(src)}
	p.nextToken()
	p.nextToken()
	return p
}

// ParseFragment parses a single expression that must span the whole input.
func ParseFragment(src string) (qlast.Expr, error) {
	p := New(src)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(EOF) {
		return nil, p.unexpected("end of input")
	}
	return expr, nil
}

// ParseCall parses a fragment that must be a function call.
func ParseCall(src string) (*qlast.FunctionCall, error) {
	expr, err := ParseFragment(src)
	if err != nil {
		return nil, err
	}
	call, ok := expr.(*qlast.FunctionCall)
	if !ok {
		return nil, &ParseError{Pos: expr.Position(), Message: "expected a function call"}
	}
	return call, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t TokenType) error {
	if !p.curTokenIs(t) {
		return p.unexpected(t.String())
	}
	p.nextToken()
	return nil
}

func (p *Parser) unexpected(want string) error {
	if p.curTokenIs(ILLEGAL) {
		return &ParseError{Pos: p.curToken.Pos, Message: p.curToken.Lexeme}
	}
	got := p.curToken.Type.String()
	if p.curToken.Lexeme != "" {
		got = fmt.Sprintf("%q", p.curToken.Lexeme)
	}
	return &ParseError{Pos: p.curToken.Pos, Message: fmt.Sprintf("expected %s, got %s", want, got)}
}

func (p *Parser) parseExpr() (qlast.Expr, error) {
	tok := p.curToken
	switch tok.Type {
	case INT:
		p.nextToken()
		return &qlast.IntLiteral{Pos: tok.Pos, Value: tok.Literal}, nil
	case FLOAT:
		p.nextToken()
		return &qlast.FloatLiteral{Pos: tok.Pos, Value: tok.Literal}, nil
	case MINUS:
		p.nextToken()
		num := p.curToken
		switch num.Type {
		case INT:
			p.nextToken()
			return &qlast.IntLiteral{Pos: tok.Pos, Value: "-" + num.Literal}, nil
		case FLOAT:
			p.nextToken()
			return &qlast.FloatLiteral{Pos: tok.Pos, Value: "-" + num.Literal}, nil
		}
		return nil, p.unexpected("number")
	case STRING:
		p.nextToken()
		return &qlast.StringLiteral{Pos: tok.Pos, Value: tok.Literal}, nil
	case BYTES:
		p.nextToken()
		return &qlast.BytesLiteral{Pos: tok.Pos, Value: []byte(tok.Literal)}, nil
	case TRUE, FALSE:
		p.nextToken()
		return &qlast.BoolLiteral{Pos: tok.Pos, Value: tok.Type == TRUE}, nil
	case LBRACE:
		p.nextToken()
		if err := p.expect(RBRACE); err != nil {
			return nil, err
		}
		return &qlast.EmptySet{Pos: tok.Pos}, nil
	case LBRACKET:
		return p.parseArray()
	case LT:
		return p.parseTypeCast()
	case LPAREN:
		p.nextToken()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case SELECT:
		return p.parseSelect()
	case IDENT:
		return p.parseNameOrCall()
	}
	return nil, p.unexpected("expression")
}

func (p *Parser) parseArray() (qlast.Expr, error) {
	arr := &qlast.ArrayLiteral{Pos: p.curToken.Pos, Elements: []qlast.Expr{}}
	p.nextToken()
	for !p.curTokenIs(RBRACKET) {
		if len(arr.Elements) > 0 {
			if err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		el, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
	}
	p.nextToken()
	return arr, nil
}

func (p *Parser) parseTypeCast() (qlast.Expr, error) {
	pos := p.curToken.Pos
	p.nextToken()
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expect(GT); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &qlast.TypeCast{Pos: pos, Type: typ, Expr: expr}, nil
}

func (p *Parser) parseType() (*qlast.TypeName, error) {
	pos := p.curToken.Pos
	module, name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	t := &qlast.TypeName{Pos: pos, Module: module, Name: name}
	if !p.curTokenIs(LT) {
		return t, nil
	}
	p.nextToken()
	for {
		sub, err := p.parseType()
		if err != nil {
			return nil, err
		}
		t.Subtypes = append(t.Subtypes, sub)
		if !p.curTokenIs(COMMA) {
			break
		}
		p.nextToken()
	}
	if err := p.expect(GT); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Parser) parseName() (module, name string, err error) {
	if !p.curTokenIs(IDENT) {
		return "", "", p.unexpected("identifier")
	}
	name = p.curToken.Literal
	p.nextToken()
	if p.curTokenIs(DCOLON) {
		p.nextToken()
		if !p.curTokenIs(IDENT) {
			return "", "", p.unexpected("identifier")
		}
		module, name = name, p.curToken.Literal
		p.nextToken()
	}
	return module, name, nil
}

func (p *Parser) parseNameOrCall() (qlast.Expr, error) {
	pos := p.curToken.Pos
	module, name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(LPAREN) {
		if module != "" {
			return nil, &ParseError{Pos: pos, Message: fmt.Sprintf("qualified name %s::%s is not an expression", module, name)}
		}
		return &qlast.Ident{Pos: pos, Name: name}, nil
	}
	call := &qlast.FunctionCall{Pos: pos, Module: module, Name: name}
	if err := p.parseCallArgs(call); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *Parser) parseCallArgs(call *qlast.FunctionCall) error {
	p.nextToken() // (
	seen := make(map[string]bool)
	first := true
	for !p.curTokenIs(RPAREN) {
		if !first {
			if err := p.expect(COMMA); err != nil {
				return err
			}
		}
		first = false

		if p.curTokenIs(IDENT) && p.peekTokenIs(ASSIGN) {
			name := p.curToken.Literal
			namePos := p.curToken.Pos
			p.nextToken()
			p.nextToken()
			if seen[name] {
				return &ParseError{Pos: namePos, Message: fmt.Sprintf("duplicate named argument %q", name)}
			}
			seen[name] = true
			arg, err := p.parseFuncArg()
			if err != nil {
				return err
			}
			call.Kwargs = append(call.Kwargs, qlast.NamedArg{Name: name, Arg: arg})
			continue
		}

		if len(call.Kwargs) > 0 {
			return &ParseError{Pos: p.curToken.Pos, Message: "positional argument follows named argument"}
		}
		arg, err := p.parseFuncArg()
		if err != nil {
			return err
		}
		call.Args = append(call.Args, arg)
	}
	p.nextToken() // )
	return nil
}

func (p *Parser) parseFuncArg() (qlast.FuncArg, error) {
	arg := qlast.FuncArg{Pos: p.curToken.Pos}
	expr, err := p.parseExpr()
	if err != nil {
		return arg, err
	}
	arg.Arg = expr
	arg.Filter, arg.Sort, err = p.parseClauses()
	return arg, err
}

func (p *Parser) parseSelect() (qlast.Expr, error) {
	q := &qlast.SelectQuery{Pos: p.curToken.Pos}
	p.nextToken()
	result, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	q.Result = result
	q.Where, q.OrderBy, err = p.parseClauses()
	if err != nil {
		return nil, err
	}
	return q, nil
}

// parseClauses reads the optional FILTER and ORDER BY tails.
func (p *Parser) parseClauses() (qlast.Expr, []qlast.SortExpr, error) {
	var filter qlast.Expr
	var sort []qlast.SortExpr
	if p.curTokenIs(FILTER) {
		p.nextToken()
		f, err := p.parseExpr()
		if err != nil {
			return nil, nil, err
		}
		filter = f
	}
	if p.curTokenIs(ORDER) {
		p.nextToken()
		if err := p.expect(BY); err != nil {
			return nil, nil, err
		}
		for {
			key, err := p.parseExpr()
			if err != nil {
				return nil, nil, err
			}
			s := qlast.SortExpr{Path: key}
			switch {
			case p.curTokenIs(DESC):
				s.Descending = true
				p.nextToken()
			case p.curTokenIs(ASC):
				p.nextToken()
			}
			sort = append(sort, s)
			if !p.curTokenIs(THEN) {
				break
			}
			p.nextToken()
		}
	}
	return filter, sort, nil
}
