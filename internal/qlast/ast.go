// Package qlast defines the syntax tree of call sites and expression
// fragments consumed by the call compiler.
package qlast

import "fmt"

// Pos is a 1-based line and column in the source text.
// The zero Pos means the node was synthesized.
type Pos struct {
	Line   int
	Column int
}

// Position returns p. Embedding Pos gives every node this method.
func (p Pos) Position() Pos { return p }

// IsValid reports whether p points into source text.
func (p Pos) IsValid() bool { return p.Line > 0 }

// String implements fmt.Stringer.
func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Expr is a sealed interface for expression nodes.
type Expr interface {
	exprNode()
	Position() Pos
}

// Ident is a bare name, such as a reference to a function parameter.
type Ident struct {
	Pos
	Name string
}

// IntLiteral is an integer literal; Value keeps the source digits.
type IntLiteral struct {
	Pos
	Value string
}

// FloatLiteral is a decimal literal; Value keeps the source text.
type FloatLiteral struct {
	Pos
	Value string
}

// StringLiteral is a quoted string; Value is the decoded text.
type StringLiteral struct {
	Pos
	Value string
}

// BytesLiteral is b'...'; Value is the decoded bytes.
type BytesLiteral struct {
	Pos
	Value []byte
}

// BoolLiteral is true or false.
type BoolLiteral struct {
	Pos
	Value bool
}

// EmptySet is {}.
type EmptySet struct {
	Pos
}

// ArrayLiteral is [e1, e2, ...].
type ArrayLiteral struct {
	Pos
	Elements []Expr
}

// TypeName is a possibly module-qualified type with optional subtypes,
// as in std::int64 or array<str>.
type TypeName struct {
	Pos
	Module   string
	Name     string
	Subtypes []*TypeName
}

// TypeCast is <Type>Expr.
type TypeCast struct {
	Pos
	Type *TypeName
	Expr Expr
}

// FunctionCall is a call site. Named arguments keep their source order.
type FunctionCall struct {
	Pos
	Module string
	Name   string
	Args   []FuncArg
	Kwargs []NamedArg
}

// FuncArg is one call argument with its optional FILTER and ORDER BY
// clauses, as in array_agg(x FILTER x > 0 ORDER BY x).
type FuncArg struct {
	Pos
	Arg    Expr
	Filter Expr
	Sort   []SortExpr
}

// NamedArg is name := arg.
type NamedArg struct {
	Name string
	Arg  FuncArg
}

// SortExpr is one ORDER BY key.
type SortExpr struct {
	Path       Expr
	Descending bool
}

// SelectQuery is the statement a filtered or ordered argument is wrapped in.
type SelectQuery struct {
	Pos
	Result  Expr
	Where   Expr
	OrderBy []SortExpr
}

// And is the conjunction of two filters. The parser never produces it; it
// appears when an argument FILTER meets a select that already filters.
type And struct {
	Pos
	Left  Expr
	Right Expr
}

func (*Ident) exprNode()         {}
func (*IntLiteral) exprNode()    {}
func (*FloatLiteral) exprNode()  {}
func (*StringLiteral) exprNode() {}
func (*BytesLiteral) exprNode()  {}
func (*BoolLiteral) exprNode()   {}
func (*EmptySet) exprNode()      {}
func (*ArrayLiteral) exprNode()  {}
func (*TypeCast) exprNode()      {}
func (*FunctionCall) exprNode()  {}
func (*SelectQuery) exprNode()   {}
func (*And) exprNode()           {}

// QualifiedName returns "module::name", or the bare name.
func (f *FunctionCall) QualifiedName() string {
	if f.Module == "" {
		return f.Name
	}
	return f.Module + "::" + f.Name
}

// NoArgs reports whether the call has neither positional nor named arguments.
func (f *FunctionCall) NoArgs() bool {
	return len(f.Args) == 0 && len(f.Kwargs) == 0
}

// QualifiedName returns "module::name", or the bare name.
func (t *TypeName) QualifiedName() string {
	if t.Module == "" {
		return t.Name
	}
	return t.Module + "::" + t.Name
}
