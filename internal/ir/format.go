package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/qlbind/internal/schema"
)

// Format renders a compiled expression back to query-like text for traces
// and records. The output is stable for a given catalog.
func Format(c *schema.Catalog, s *Set) string {
	if s == nil {
		return "<nil>"
	}
	var b strings.Builder
	formatExpr(&b, c, s.Expr)
	return b.String()
}

func formatExpr(b *strings.Builder, c *schema.Catalog, e Expr) {
	switch n := e.(type) {
	case Constant:
		if n.Kind == ConstString {
			b.WriteString(strconv.Quote(n.Value))
		} else {
			b.WriteString(n.Value)
		}
	case BytesConstant:
		b.WriteString("b'")
		for _, by := range n.Value {
			if by >= 0x20 && by < 0x7f && by != '\'' && by != '\\' {
				b.WriteByte(by)
			} else {
				fmt.Fprintf(b, `\x%02x`, by)
			}
		}
		b.WriteByte('\'')
	case EmptySet:
		if n.Type != nil {
			b.WriteByte('<')
			b.WriteString(c.TypeName(n.Type))
			b.WriteByte('>')
		}
		b.WriteString("{}")
	case TypeCast:
		b.WriteByte('<')
		b.WriteString(c.TypeName(n.To))
		b.WriteByte('>')
		formatExpr(b, c, n.Expr.Expr)
	case ArrayLiteral:
		b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			formatExpr(b, c, el.Expr)
		}
		b.WriteByte(']')
	case Parameter:
		b.WriteString(n.Name)
	case And:
		b.WriteByte('(')
		formatExpr(b, c, n.Left.Expr)
		b.WriteString(" AND ")
		formatExpr(b, c, n.Right.Expr)
		b.WriteByte(')')
	case SelectStmt:
		b.WriteString("(SELECT ")
		formatExpr(b, c, n.Result.Expr)
		if n.Where != nil {
			b.WriteString(" FILTER ")
			formatExpr(b, c, n.Where.Expr)
		}
		for i, key := range n.OrderBy {
			if i == 0 {
				b.WriteString(" ORDER BY ")
			} else {
				b.WriteString(" THEN ")
			}
			formatExpr(b, c, key.Expr.Expr)
			if key.Descending {
				b.WriteString(" DESC")
			}
		}
		b.WriteByte(')')
	case FunctionCall:
		b.WriteString(n.Name.String())
		b.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			formatExpr(b, c, arg.Expr)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}
