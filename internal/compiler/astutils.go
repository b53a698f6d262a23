package compiler

import (
	"github.com/roach88/qlbind/internal/qlast"
	"github.com/roach88/qlbind/internal/schema"
)

// typeToQL renders a catalog type as a syntax-tree type reference.
func typeToQL(c *schema.Catalog, t schema.Type) *qlast.TypeName {
	switch tt := t.(type) {
	case schema.Array:
		return &qlast.TypeName{Name: "array", Subtypes: []*qlast.TypeName{typeToQL(c, tt.Element)}}
	case schema.Object:
		n := c.NameOf(tt)
		return &qlast.TypeName{Module: n.Module, Name: n.Name}
	}
	return nil
}

// ensureQLStmt wraps expr in a SelectQuery unless it already is one, in
// which case it returns a shallow copy.
func ensureQLStmt(expr qlast.Expr) *qlast.SelectQuery {
	if sel, ok := expr.(*qlast.SelectQuery); ok {
		cp := *sel
		return &cp
	}
	return &qlast.SelectQuery{Pos: expr.Position(), Result: expr}
}

// applyArgClauses turns an argument with FILTER or ORDER BY clauses into a
// select statement carrying them. A filter on a select that already filters
// is ANDed with the existing one. Argument sort keys precede existing ones.
func applyArgClauses(arg qlast.FuncArg) qlast.Expr {
	if arg.Filter == nil && len(arg.Sort) == 0 {
		return arg.Arg
	}
	sel := ensureQLStmt(arg.Arg)
	if arg.Filter != nil {
		if sel.Where == nil {
			sel.Where = arg.Filter
		} else {
			sel.Where = &qlast.And{Pos: arg.Filter.Position(), Left: sel.Where, Right: arg.Filter}
		}
	}
	if len(arg.Sort) > 0 {
		orderBy := make([]qlast.SortExpr, 0, len(arg.Sort)+len(sel.OrderBy))
		orderBy = append(orderBy, arg.Sort...)
		sel.OrderBy = append(orderBy, sel.OrderBy...)
	}
	return sel
}
