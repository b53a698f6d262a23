package compiler

import (
	"fmt"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/qlast"
	"github.com/roach88/qlbind/internal/schema"
)

// Standard types of literal values.
const (
	int64TypeName   = "std::int64"
	float64TypeName = "std::float64"
	strTypeName     = "std::str"
	boolTypeName    = "std::bool"
	bytesTypeName   = "std::bytes"
)

// exprCompiler is the default ExprCompiler for the fragment grammar.
type exprCompiler struct{}

// Compile implements ExprCompiler.
func (exprCompiler) Compile(ctx *Context, expr qlast.Expr) (*ir.Set, error) {
	switch n := expr.(type) {
	case *qlast.IntLiteral:
		return compileConstant(ctx, n.Pos, ir.ConstInt, n.Value, int64TypeName)
	case *qlast.FloatLiteral:
		return compileConstant(ctx, n.Pos, ir.ConstFloat, n.Value, float64TypeName)
	case *qlast.StringLiteral:
		return compileConstant(ctx, n.Pos, ir.ConstString, n.Value, strTypeName)
	case *qlast.BoolLiteral:
		value := "false"
		if n.Value {
			value = "true"
		}
		return compileConstant(ctx, n.Pos, ir.ConstBool, value, boolTypeName)
	case *qlast.BytesLiteral:
		t, err := stdType(ctx, n.Pos, bytesTypeName)
		if err != nil {
			return nil, err
		}
		return ctx.ensureSet(ir.BytesConstant{Value: n.Value, Type: t}, "bytes"), nil
	case *qlast.EmptySet:
		return ctx.ensureSet(ir.EmptySet{}, "empty"), nil
	case *qlast.Ident:
		return compileIdent(ctx, n)
	case *qlast.ArrayLiteral:
		return compileArray(ctx, n)
	case *qlast.TypeCast:
		return compileTypeCast(ctx, n)
	case *qlast.SelectQuery:
		return compileSelect(ctx, n)
	case *qlast.And:
		return compileAnd(ctx, n)
	case *qlast.FunctionCall:
		return CompileFunctionCall(ctx, n)
	}
	return nil, fmt.Errorf("compile %T: unsupported expression", expr)
}

func compileConstant(ctx *Context, pos qlast.Pos, kind ir.ConstKind, value, typeName string) (*ir.Set, error) {
	t, err := stdType(ctx, pos, typeName)
	if err != nil {
		return nil, err
	}
	return ctx.ensureSet(ir.Constant{Kind: kind, Value: value, Type: t}, "const"), nil
}

// stdType looks up a standard type by its full name.
func stdType(ctx *Context, pos qlast.Pos, fullname string) (schema.Object, error) {
	obj, err := ctx.Catalog.Get(fullname, schema.WithVariants(schema.VariantScalarType))
	if err != nil {
		return schema.Object{}, newError(ErrCodeTypeNotFound, pos, "type %s is not defined", fullname)
	}
	return obj, nil
}

// resolveType turns a type reference into a catalog type.
func resolveType(ctx *Context, tn *qlast.TypeName) (schema.Type, error) {
	if tn.Module == "" && tn.Name == "array" {
		if len(tn.Subtypes) != 1 {
			return nil, newError(ErrCodeTypeNotFound, tn.Pos, "array type takes exactly one element type")
		}
		elem, err := resolveType(ctx, tn.Subtypes[0])
		if err != nil {
			return nil, err
		}
		return schema.Array{Element: elem}, nil
	}
	obj, err := ctx.Catalog.Get(tn.QualifiedName(), ctx.lookupOpts(
		schema.WithVariants(schema.VariantScalarType, schema.VariantObjectType, schema.VariantPseudoType),
	)...)
	if err != nil {
		return nil, newError(ErrCodeTypeNotFound, tn.Pos, "type %s is not defined", tn.QualifiedName())
	}
	return obj, nil
}

func compileIdent(ctx *Context, n *qlast.Ident) (*ir.Set, error) {
	if ctx.Func != nil {
		if p, ok := ctx.Func.Params.ByName(n.Name); ok {
			return ctx.ensureSet(ir.Parameter{Name: p.Name, Type: p.Type}, "param"), nil
		}
	}
	return nil, newError(ErrCodeInvalidReference, n.Pos, "reference to a non-existent parameter: %s", n.Name)
}

func compileArray(ctx *Context, n *qlast.ArrayLiteral) (*ir.Set, error) {
	elems := make([]*ir.Set, 0, len(n.Elements))
	types := make([]schema.Type, 0, len(n.Elements))
	for _, el := range n.Elements {
		s, err := ctx.Exprs.Compile(ctx, el)
		if err != nil {
			return nil, err
		}
		elems = append(elems, s)
		types = append(types, ctx.Types.InferType(ctx.Catalog, s))
	}
	var t schema.Type
	if elem := arrayElementType(ctx.Catalog, types); elem != nil {
		t = schema.Array{Element: elem}
	}
	return ctx.ensureSet(ir.ArrayLiteral{Elements: elems, Type: t}, "array"), nil
}

func compileTypeCast(ctx *Context, n *qlast.TypeCast) (*ir.Set, error) {
	to, err := resolveType(ctx, n.Type)
	if err != nil {
		return nil, err
	}
	inner, err := ctx.Exprs.Compile(ctx, n.Expr)
	if err != nil {
		return nil, err
	}
	// <T>{} is an empty set of type T.
	if empty, ok := inner.Expr.(ir.EmptySet); ok && empty.Type == nil {
		return ctx.ensureSet(ir.EmptySet{Type: to}, "empty"), nil
	}
	return ctx.ensureSet(ir.TypeCast{Expr: inner, To: to}, "cast"), nil
}

func compileAnd(ctx *Context, n *qlast.And) (*ir.Set, error) {
	left, err := ctx.Exprs.Compile(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ctx.Exprs.Compile(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	t, err := stdType(ctx, n.Pos, boolTypeName)
	if err != nil {
		return nil, err
	}
	return ctx.ensureSet(ir.And{Left: left, Right: right, Type: t}, "and"), nil
}

func compileSelect(ctx *Context, n *qlast.SelectQuery) (*ir.Set, error) {
	result, err := ctx.Exprs.Compile(ctx, n.Result)
	if err != nil {
		return nil, err
	}
	stmt := ir.SelectStmt{Result: result}
	if n.Where != nil {
		if stmt.Where, err = ctx.Exprs.Compile(ctx, n.Where); err != nil {
			return nil, err
		}
	}
	for _, key := range n.OrderBy {
		s, err := ctx.Exprs.Compile(ctx, key.Path)
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = append(stmt.OrderBy, ir.SortExpr{Expr: s, Descending: key.Descending})
	}
	return ctx.ensureSet(stmt, "select"), nil
}
