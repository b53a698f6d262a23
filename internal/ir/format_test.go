package ir

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlbind/internal/schema"
)

func TestFormat(t *testing.T) {
	c := schema.New()
	var err error
	c, err = c.Add(uuid.New(), schema.VariantModule, schema.Fields{"name": schema.Name{Name: "std"}})
	require.NoError(t, err)
	i64 := schema.Object{ID: uuid.New(), Variant: schema.VariantScalarType}
	c, err = c.Add(i64.ID, i64.Variant, schema.Fields{"name": schema.ParseName("std::int64")})
	require.NoError(t, err)

	one := &Set{Expr: Constant{Kind: ConstInt, Value: "1", Type: i64}}
	str := &Set{Expr: Constant{Kind: ConstString, Value: "a"}}

	tests := []struct {
		name string
		set  *Set
		want string
	}{
		{"int", one, "1"},
		{"string", str, `"a"`},
		{"bytes", &Set{Expr: BytesConstant{Value: []byte{0x00, 'a'}}}, `b'\x00a'`},
		{"empty set", &Set{Expr: EmptySet{}}, "{}"},
		{"typed empty set", &Set{Expr: EmptySet{Type: i64, Alias: "y"}}, "<std::int64>{}"},
		{"cast", &Set{Expr: TypeCast{Expr: &Set{Expr: EmptySet{}}, To: i64}}, "<std::int64>{}"},
		{"array", &Set{Expr: ArrayLiteral{Elements: []*Set{one, one}}}, "[1, 1]"},
		{"select", &Set{Expr: SelectStmt{
			Result:  one,
			Where:   &Set{Expr: Parameter{Name: "x"}},
			OrderBy: []SortExpr{{Expr: one, Descending: true}},
		}}, "(SELECT 1 FILTER x ORDER BY 1 DESC)"},
		{"call", &Set{Expr: FunctionCall{
			Name: schema.ParseName("std::f"),
			Args: []*Set{one, str},
		}}, `std::f(1, "a")`},
		{"nil", nil, "<nil>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(c, tt.set))
		})
	}
}
