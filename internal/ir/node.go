package ir

import (
	"github.com/roach88/qlbind/internal/schema"
)

// Expr is a sealed interface for compiled expression nodes.
// Only the node types in this file implement it.
type Expr interface {
	irExpr() // Sealed
}

// PathID identifies a Set within the scope tree.
type PathID string

// Set is a compiled expression together with its scope bookkeeping.
// Every expression the compiler produces is wrapped in a Set.
type Set struct {
	Expr   Expr
	PathID PathID

	// Scope is the fenced sub-scope the set was compiled in, or nil once the
	// scope has been collapsed into its parent.
	Scope *ScopeNode
}

// ConstKind is the lexical class of a Constant.
type ConstKind uint8

const (
	ConstInt ConstKind = iota + 1
	ConstFloat
	ConstString
	ConstBool
)

// Constant is a literal of a scalar type. Value holds the decoded text.
type Constant struct {
	Kind  ConstKind
	Value string
	Type  schema.Type
}

func (Constant) irExpr() {}

// BytesConstant is a literal byte string.
type BytesConstant struct {
	Value []byte
	Type  schema.Type
}

func (BytesConstant) irExpr() {}

// EmptySet is the literal {}. Type is nil for an untyped {}; Alias names
// the parameter an empty default stands in for.
type EmptySet struct {
	Type  schema.Type
	Alias string
}

func (EmptySet) irExpr() {}

// TypeCast converts Expr to To.
type TypeCast struct {
	Expr *Set
	To   schema.Type
}

func (TypeCast) irExpr() {}

// ArrayLiteral is [e1, e2, ...].
type ArrayLiteral struct {
	Elements []*Set
	Type     schema.Type
}

func (ArrayLiteral) irExpr() {}

// Parameter references a parameter of the enclosing function.
type Parameter struct {
	Name string
	Type schema.Type
}

func (Parameter) irExpr() {}

// SelectStmt is the statement shape a filtered or ordered call argument
// is wrapped in.
type SelectStmt struct {
	Result  *Set
	Where   *Set
	OrderBy []SortExpr
}

func (SelectStmt) irExpr() {}

// And is the conjunction of two boolean sets.
type And struct {
	Left  *Set
	Right *Set
	Type  schema.Type
}

func (And) irExpr() {}

// SortExpr is one ordering key of a SelectStmt.
type SortExpr struct {
	Expr       *Set
	Descending bool
}

// FunctionCall is a resolved call of one concrete function variant.
type FunctionCall struct {
	Func schema.Object
	Name schema.Name

	// Args is the bound argument list in backend order. Functions written in
	// the query language receive a leading defaults bitmask argument.
	Args []*Set

	ReturnType        schema.Type
	ReturnTypemod     schema.TypeModifier
	Language          schema.Language
	FromFunction      string
	HasEmptyVariadic  bool
	UsedImplicitCasts bool

	// DefaultsMask has bit i set when bound argument i came from a default.
	DefaultsMask []byte

	// InitialValue is the compiled initial-value expression, if declared.
	InitialValue *Set
}

func (FunctionCall) irExpr() {}
