package compiler

import (
	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/schema"
)

// typeInferer is the default TypeInferer. It reads the type the dispatcher
// recorded on each node.
type typeInferer struct{}

// InferType implements TypeInferer.
func (typeInferer) InferType(c *schema.Catalog, s *ir.Set) schema.Type {
	if s == nil {
		return nil
	}
	return inferExpr(c, s.Expr)
}

func inferExpr(c *schema.Catalog, e ir.Expr) schema.Type {
	switch n := e.(type) {
	case ir.Constant:
		return n.Type
	case ir.BytesConstant:
		return n.Type
	case ir.EmptySet:
		// An untyped {} has no type until a cast gives it one.
		return n.Type
	case ir.TypeCast:
		return n.To
	case ir.ArrayLiteral:
		return n.Type
	case ir.Parameter:
		return n.Type
	case ir.And:
		return n.Type
	case ir.SelectStmt:
		if n.Result == nil {
			return nil
		}
		return inferExpr(c, n.Result.Expr)
	case ir.FunctionCall:
		return n.ReturnType
	}
	return nil
}

// arrayElementType picks the element type of an array literal: the first
// element's type, widened to a later element's type when the first is a
// subtype of it. It returns nil when any element is untyped.
func arrayElementType(c *schema.Catalog, types []schema.Type) schema.Type {
	if len(types) == 0 {
		return nil
	}
	elem := types[0]
	for _, t := range types {
		if t == nil {
			return nil
		}
		if !schema.TypesEqual(elem, t) && c.IsSubtype(elem, t) {
			elem = t
		}
	}
	return elem
}
