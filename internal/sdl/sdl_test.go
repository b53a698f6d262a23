package sdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlbind/internal/schema"
)

func TestLoadString_DeclaredGroups(t *testing.T) {
	c, err := LoadString(`
modules: {
	std: {
		pseudo: anytype: {}
		scalars: {
			int64: {}
			str: {}
			bytes: {}
		}
		functions: {
			len: [
				{params: [{name: "s", type: "str"}], returns: "int64"},
				{params: [{name: "b", type: "bytes"}], returns: "int64"},
			]
			count: [{
				params: [{name: "s", type: "anytype", typemod: "SET OF"}]
				returns: "int64"
				initial_value: "0"
			}]
		}
		operators: "+": [{kind: "INFIX", params: [{name: "l", type: "int64"}, {name: "r", type: "int64"}], returns: "int64"}]
	}
	default: functions: greet: [{params: [{name: "who", type: "str", kind: "NAMED_ONLY", default: "'world'"}], returns: "str", language: "ql"}]
}
`)
	require.NoError(t, err)

	lens, err := c.GetFunctions("std::len")
	require.NoError(t, err)
	var sigs []string
	for _, fn := range lens {
		sigs = append(sigs, c.Signature(fn))
	}
	assert.ElementsMatch(t, []string{
		"std::len(s: std::str) -> std::int64",
		"std::len(b: std::bytes) -> std::int64",
	}, sigs)

	counts, err := c.GetFunctions("count")
	require.NoError(t, err)
	require.Len(t, counts, 1)
	iv, ok := c.InitialValue(counts[0])
	assert.True(t, ok)
	assert.Equal(t, "0", iv)
	assert.Equal(t, "std::count(s: SET OF std::anytype) -> std::int64", c.Signature(counts[0]))

	ops, err := c.GetOperators("std::+")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	kind, _ := c.StringField(ops[0], schema.FieldOperatorKind)
	assert.Equal(t, "INFIX", kind)

	greets, err := c.GetFunctions("default::greet")
	require.NoError(t, err)
	require.Len(t, greets, 1)
	assert.Equal(t, schema.LanguageQL, c.FuncLanguage(greets[0]))
	assert.Equal(t, "default::greet(NAMED ONLY who: std::str = 'world') -> std::str", c.Signature(greets[0]))

	assert.True(t, c.HasModule("default"))
}

func TestLoadString_Deterministic(t *testing.T) {
	src := `modules: std: scalars: {int64: {}, str: {}}`
	a, err := LoadString(src)
	require.NoError(t, err)
	b, err := LoadString(src)
	require.NoError(t, err)

	assert.Equal(t, a.Objects().Collect(), b.Objects().Collect())
}

func TestLoadString_BasesAnyOrder(t *testing.T) {
	c, err := LoadString(`modules: std: scalars: {
		int64: {bases: ["anyint"]}
		anyint: {abstract: true}
	}`)
	require.NoError(t, err)

	i64, err := c.Get("std::int64")
	require.NoError(t, err)
	anyint, err := c.Get("std::anyint")
	require.NoError(t, err)
	assert.True(t, c.IsSubtype(i64, anyint))

	abstract, _ := c.BoolField(anyint, schema.FieldIsAbstract)
	assert.True(t, abstract)
}

func TestLoadString_VariadicStoredAsArray(t *testing.T) {
	c, err := LoadString(`modules: std: {
		scalars: str: {}
		functions: concat: [{params: [{name: "parts", type: "str", kind: "VARIADIC"}], returns: "str"}]
	}`)
	require.NoError(t, err)

	fns, err := c.GetFunctions("std::concat")
	require.NoError(t, err)
	params, err := c.FuncParams(fns[0])
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "array<std::str>", c.TypeName(params[0].Type))
	assert.Equal(t, "std::concat(VARIADIC parts: std::str) -> std::str", c.Signature(fns[0]))
}

func TestLoadString_Casts(t *testing.T) {
	c, err := LoadString(`modules: std: {
		scalars: {int32: {}, int64: {}}
		casts: [{from: "int32", to: "int64", implicit: true}]
	}`)
	require.NoError(t, err)

	i32, _ := c.Get("std::int32")
	i64, _ := c.Get("std::int64")
	assert.True(t, c.ImplicitlyCastable(i32, i64))
	assert.False(t, c.ImplicitlyCastable(i64, i32))
	assert.Len(t, c.GetCastsToType(i64, schema.CastFilter{Implicit: true}), 1)
}

func TestLoadString_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing modules", `x: 1`, "modules"},
		{"missing returns", `modules: std: {scalars: str: {}, functions: f: [{params: []}]}`, "modules.std.functions.f[0].returns"},
		{"unknown type", `modules: std: functions: f: [{returns: "nosuch"}]`, "modules.std.functions.f[0].returns"},
		{"bad kind", `modules: std: {scalars: str: {}, functions: f: [{params: [{name: "a", type: "str", kind: "SOMETIMES"}], returns: "str"}]}`,
			"modules.std.functions.f[0].params[0].kind"},
		{"bad typemod", `modules: std: {scalars: str: {}, functions: f: [{returns: "str", return_typemod: "MANY"}]}`,
			"modules.std.functions.f[0].return_typemod"},
		{"overloads not a list", `modules: std: {scalars: str: {}, functions: f: {returns: "str"}}`, "modules.std.functions.f"},
		{"duplicate overload", `modules: std: {scalars: str: {}, functions: f: [{returns: "str"}, {returns: "str"}]}`, "modules.std.functions.f[1]"},
		{"operator without kind", `modules: std: {scalars: str: {}, operators: "+": [{returns: "str"}]}`, "modules.std.operators.+[0].kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadString(tt.src)
			require.Error(t, err)
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestLoadString_CUEError(t *testing.T) {
	_, err := LoadString(`modules: std: scalars: int64: {abstract: "yes"}`)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, ce.Error(), "schema.cue:")
}

func TestLoadDir(t *testing.T) {
	res, err := LoadDir("testdata/valid")
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)

	fns, err := res.Catalog.GetFunctions("len")
	require.NoError(t, err)
	assert.Len(t, fns, 2)
}

func TestLoadDir_Errors(t *testing.T) {
	_, err := LoadDir("testdata/nosuch")
	assert.Error(t, err)

	_, err = LoadDir("testdata/valid/std.cue")
	assert.ErrorContains(t, err, "not a directory")

	_, err = LoadDir("testdata/badtype")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "modules.std.functions.len[0].params[0].type", ce.Field)
	assert.Contains(t, ce.Message, `unknown type "nosuch"`)
}

func TestLoadFiles(t *testing.T) {
	res, err := LoadFiles([]string{"testdata/valid/std.cue", "testdata/valid/funcs.cue"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FileCount)

	fns, err := res.Catalog.GetFunctions("len")
	require.NoError(t, err)
	assert.Len(t, fns, 2)

	_, err = LoadFiles(nil)
	assert.Error(t, err)
	_, err = LoadFiles([]string{"testdata/valid"})
	assert.ErrorContains(t, err, "not a CUE file")
	_, err = LoadFiles([]string{"testdata/nosuch.cue"})
	assert.Error(t, err)
}

func TestBuilder(t *testing.T) {
	b := NewBuilder(WithIDGenerator(schema.UUIDv7Generator{}))
	_, err := b.AddModule("std")
	require.NoError(t, err)
	i64, err := b.AddType(schema.VariantScalarType, "std::int64", false)
	require.NoError(t, err)

	_, err = b.AddType(schema.VariantFunction, "std::f", false)
	assert.Error(t, err, "functions are not types")

	_, err = b.AddFunction("f", FunctionDecl{Returns: i64})
	assert.ErrorContains(t, err, "module-qualified")

	_, err = b.AddFunction("std::f", FunctionDecl{})
	assert.ErrorContains(t, err, "return type is required")

	fn, err := b.AddFunction("std::f", FunctionDecl{
		Params: []ParamDecl{{Name: "x", Type: i64, Default: Default("1")}},
		Returns: i64,
	})
	require.NoError(t, err)
	assert.Equal(t, "std::f(x: std::int64 = 1) -> std::int64", b.Catalog().Signature(fn))

	_, err = b.AddFunction("nope::f", FunctionDecl{Returns: i64})
	assert.True(t, schema.IsModuleNotFound(err))

	arr, err := b.ResolveType("std", "array<int64>")
	require.NoError(t, err)
	assert.Equal(t, schema.Type(schema.Array{Element: i64}), arr)

	_, err = b.ResolveType("std", "array<int64")
	assert.ErrorContains(t, err, "malformed array type")
}

func TestBuilder_FailedCallableLeavesNoParameters(t *testing.T) {
	b := NewBuilder()
	_, err := b.AddModule("std")
	require.NoError(t, err)
	i64, err := b.AddType(schema.VariantScalarType, "std::int64", false)
	require.NoError(t, err)
	before := b.Catalog()

	_, err = b.AddFunction("std::g", FunctionDecl{
		Params:  []ParamDecl{{Name: "x", Type: i64}, {Name: "y"}},
		Returns: i64,
	})
	assert.ErrorContains(t, err, "parameter y has no type")
	assert.Same(t, before, b.Catalog())

	_, err = b.AddFunction("std::g", FunctionDecl{
		Params:  []ParamDecl{{Name: "x", Type: i64}, {Name: "x", Type: i64}},
		Returns: i64,
	})
	assert.True(t, schema.HasCode(err, schema.ErrCodeDuplicateID), "name-derived ids collide first")
	assert.Same(t, before, b.Catalog())

	fn, err := b.AddFunction("std::g", FunctionDecl{
		Params:  []ParamDecl{{Name: "x", Type: i64}},
		Returns: i64,
	})
	require.NoError(t, err, "no orphaned parameter blocks the retry")
	assert.Equal(t, "std::g(x: std::int64) -> std::int64", b.Catalog().Signature(fn))
}
