package qlast

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders an expression in source form. Parsing the output yields an
// equivalent tree.
func String(e Expr) string {
	var b strings.Builder
	write(&b, e)
	return b.String()
}

func write(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Ident:
		b.WriteString(n.Name)
	case *IntLiteral:
		b.WriteString(n.Value)
	case *FloatLiteral:
		b.WriteString(n.Value)
	case *StringLiteral:
		b.WriteString(quote(n.Value))
	case *BytesLiteral:
		b.WriteString("b'")
		for _, c := range n.Value {
			if c >= 0x20 && c < 0x7f && c != '\'' && c != '\\' {
				b.WriteByte(c)
			} else {
				fmt.Fprintf(b, `\x%02x`, c)
			}
		}
		b.WriteByte('\'')
	case *BoolLiteral:
		b.WriteString(strconv.FormatBool(n.Value))
	case *EmptySet:
		b.WriteString("{}")
	case *ArrayLiteral:
		b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, el)
		}
		b.WriteByte(']')
	case *TypeCast:
		b.WriteByte('<')
		writeType(b, n.Type)
		b.WriteByte('>')
		write(b, n.Expr)
	case *FunctionCall:
		b.WriteString(n.QualifiedName())
		b.WriteByte('(')
		i := 0
		for _, arg := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeArg(b, arg)
			i++
		}
		for _, kw := range n.Kwargs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(kw.Name)
			b.WriteString(" := ")
			writeArg(b, kw.Arg)
			i++
		}
		b.WriteByte(')')
	case *And:
		b.WriteByte('(')
		write(b, n.Left)
		b.WriteString(" AND ")
		write(b, n.Right)
		b.WriteByte(')')
	case *SelectQuery:
		b.WriteString("(SELECT ")
		write(b, n.Result)
		if n.Where != nil {
			b.WriteString(" FILTER ")
			write(b, n.Where)
		}
		writeSort(b, n.OrderBy)
		b.WriteByte(')')
	case nil:
		b.WriteString("<nil>")
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func writeArg(b *strings.Builder, arg FuncArg) {
	write(b, arg.Arg)
	if arg.Filter != nil {
		b.WriteString(" FILTER ")
		write(b, arg.Filter)
	}
	writeSort(b, arg.Sort)
}

func writeSort(b *strings.Builder, keys []SortExpr) {
	for i, key := range keys {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(" THEN ")
		}
		write(b, key.Path)
		if key.Descending {
			b.WriteString(" DESC")
		}
	}
}

func writeType(b *strings.Builder, t *TypeName) {
	b.WriteString(t.QualifiedName())
	if len(t.Subtypes) == 0 {
		return
	}
	b.WriteByte('<')
	for i, sub := range t.Subtypes {
		if i > 0 {
			b.WriteString(", ")
		}
		writeType(b, sub)
	}
	b.WriteByte('>')
}

// TypeString renders a type reference in source form.
func TypeString(t *TypeName) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
