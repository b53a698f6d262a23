package compiler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/qlast"
	"github.com/roach88/qlbind/internal/schema"
	"github.com/roach88/qlbind/internal/sdl"
	"github.com/roach88/qlbind/internal/testutil"
)

func TestCompileFunctionCall_NamedOnlyDefault(t *testing.T) {
	ctx := stdContext(t)
	c := ctx.Catalog

	t.Run("defaulted", func(t *testing.T) {
		call, _ := compileCall(t, ctx, "f(1)")
		assert.Equal(t, "std::str", c.TypeName(call.ReturnType))
		assert.Equal(t, schema.LanguageQL, call.Language)
		// Named-only parameters bind first, so y is bound argument 0.
		assert.Equal(t, []byte{0x01}, call.DefaultsMask)
		assert.Equal(t, []string{`b'\x01'`, "<std::str>{}", "1"}, formatArgs(c, call))

		empty, ok := call.Args[1].Expr.(ir.EmptySet)
		require.True(t, ok)
		assert.Equal(t, "y", empty.Alias)
	})

	t.Run("explicit", func(t *testing.T) {
		call, _ := compileCall(t, ctx, "f(1, y := 'b')")
		assert.Equal(t, []byte{0x00}, call.DefaultsMask)
		assert.Equal(t, []string{`b'\x00'`, `"b"`, "1"}, formatArgs(c, call))
	})

	t.Run("missing positional", func(t *testing.T) {
		_, err := ctx.CompileSource("f(y := 'b')")
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodeNoMatchingVariant))
		assert.Contains(t, err.Error(), "could not find a function variant f")
	})

	t.Run("unknown named argument", func(t *testing.T) {
		_, err := ctx.CompileSource("f(1, z := 'c')")
		assert.True(t, HasCode(err, ErrCodeNoMatchingVariant))
	})
}

func TestCompileFunctionCall_Overloads(t *testing.T) {
	ctx := stdContext(t)
	c := ctx.Catalog

	tests := []struct {
		name       string
		src        string
		signature  string
		returnType string
		casts      bool
	}{
		{"str overload", "len('abc')", "std::len(s: std::str) -> std::int64", "std::int64", false},
		{"bytes overload", `len(b'\x00')`, "std::len(b: std::bytes) -> std::int64", "std::int64", false},
		{"polymorphic array", "len([1, 2])", "std::len(a: array<std::anytype>) -> std::int64", "std::int64", false},
		{"exact beats cast", "abs(1)", "std::abs(x: std::int64) -> std::int64", "std::int64", false},
		{"float", "abs(1.5)", "std::abs(x: std::float64) -> std::float64", "std::float64", false},
		{"implicit cast", "sum(<std::int32>1)", "std::sum(s: SET OF std::int64) -> std::int64", "std::int64", true},
		{"supertype rejected", "abs(<anyint>1)", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ctx.CompileSource(tt.src)
			if tt.signature == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			call := set.Expr.(ir.FunctionCall)
			assert.Equal(t, tt.signature, c.Signature(call.Func))
			assert.Equal(t, tt.returnType, c.TypeName(call.ReturnType))
			assert.Equal(t, tt.casts, call.UsedImplicitCasts)
		})
	}
}

func TestCompileFunctionCall_Polymorphic(t *testing.T) {
	ctx := stdContext(t)
	c := ctx.Catalog

	t.Run("return type resolved", func(t *testing.T) {
		call, _ := compileCall(t, ctx, "array_agg('x')")
		assert.Equal(t, "array<std::str>", c.TypeName(call.ReturnType))
	})

	t.Run("consistent binding", func(t *testing.T) {
		call, _ := compileCall(t, ctx, "coalesce(1, 2)")
		assert.Equal(t, "std::int64", c.TypeName(call.ReturnType))
	})

	t.Run("conflicting binding", func(t *testing.T) {
		_, err := ctx.CompileSource("coalesce(1, 'a')")
		assert.True(t, HasCode(err, ErrCodeNoMatchingVariant))
	})

	t.Run("empty default takes resolved type", func(t *testing.T) {
		call, _ := compileCall(t, ctx, "first([1, 2])")
		assert.Equal(t, "std::int64", c.TypeName(call.ReturnType))
		assert.Equal(t, []string{"[1, 2]", "<std::int64>{}"}, formatArgs(c, call))
		assert.Equal(t, []byte{0x02}, call.DefaultsMask)
	})

	t.Run("empty default without resolved type", func(t *testing.T) {
		_, err := ctx.CompileSource("describe()")
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodePolymorphicTypeUnresolved))
		assert.Contains(t, err.Error(), "could not resolve std::anytype type for the $x parameter")
	})
}

func TestCompileFunctionCall_NativeDefault(t *testing.T) {
	ctx := stdContext(t)
	call, _ := compileCall(t, ctx, "round(1.5)")
	assert.Equal(t, []string{"1.5", "0"}, formatArgs(ctx.Catalog, call))
	assert.Equal(t, []byte{0x02}, call.DefaultsMask)
	assert.Equal(t, "round", call.FromFunction)
}

func TestCompileFunctionCall_ZeroParams(t *testing.T) {
	ctx := stdContext(t)

	native, _ := compileCall(t, ctx, "random()")
	assert.Empty(t, native.Args)

	ql, _ := compileCall(t, ctx, "answer()")
	assert.Equal(t, []string{`b'\x00'`}, formatArgs(ctx.Catalog, ql))

	_, err := ctx.CompileSource("random(1)")
	assert.True(t, HasCode(err, ErrCodeNoMatchingVariant))
}

func TestCompileFunctionCall_Variadic(t *testing.T) {
	b := sdl.NewBuilder(sdl.WithBase(testutil.StdCatalog(t)))
	str := testutil.MustGet(t, b.Catalog(), "std::str")
	_, err := b.AddFunction("std::join", sdl.FunctionDecl{
		Params: []sdl.ParamDecl{
			{Name: "sep", Type: str},
			{Name: "parts", Kind: schema.VariadicParam, Type: str},
		},
		Returns: str,
	})
	require.NoError(t, err)
	ctx := newTestContext(t, b.Catalog())

	call, _ := compileCall(t, ctx, "concat('a', 'b', 'c')")
	assert.Len(t, call.Args, 3)
	assert.False(t, call.HasEmptyVariadic)

	call, _ = compileCall(t, ctx, "join(',')")
	assert.Len(t, call.Args, 1)
	assert.True(t, call.HasEmptyVariadic)

	_, err = ctx.CompileSource("concat('a', 1)")
	assert.True(t, HasCode(err, ErrCodeNoMatchingVariant))

	_, err = ctx.CompileSource("concat()")
	assert.True(t, HasCode(err, ErrCodeNoMatchingVariant), "a variadic parameter has no default")
}

func TestCompileFunctionCall_Errors(t *testing.T) {
	ctx := stdContext(t)

	tests := []struct {
		name string
		src  string
		code ErrorCode
		msg  string
	}{
		{"unknown function", "nope()", ErrCodeFunctionNotFound, "could not resolve function name nope"},
		{"ambiguous zero-arg call", "pick()", ErrCodeAmbiguousCall, "function pick is not unique"},
		{"untyped empty set", "len({})", ErrCodeArgumentTypeUnresolved,
			"could not resolve the type of positional argument #0 of function len"},
		{"untyped named argument", "f(1, y := {})", ErrCodeArgumentTypeUnresolved,
			"could not resolve the type of named argument $y of function f"},
		{"unknown type", "len(<nosuch>1)", ErrCodeTypeNotFound, "type nosuch is not defined"},
		{"unknown reference", "len(x)", ErrCodeInvalidReference, "reference to a non-existent parameter: x"},
		{"syntax", "len(", ErrCodeSyntax, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ctx.CompileSource(tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err), err.Error())
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCompileFunctionCall_ArgumentTieKeepsFirst(t *testing.T) {
	b := sdl.NewBuilder(sdl.WithBase(testutil.StdCatalog(t)))
	c := b.Catalog()
	anytype := testutil.MustGet(t, c, "std::anytype")
	anyscalar := testutil.MustGet(t, c, "std::anyscalar")
	str := testutil.MustGet(t, c, "std::str")
	for _, typ := range []schema.Object{anytype, anyscalar} {
		_, err := b.AddFunction("std::echo", sdl.FunctionDecl{
			Params:  []sdl.ParamDecl{{Name: "x", Type: typ}},
			Returns: str,
		})
		require.NoError(t, err)
	}
	ctx := newTestContext(t, b.Catalog())

	funcs, err := ctx.Catalog.GetFunctions("std::echo")
	require.NoError(t, err)
	require.Len(t, funcs, 2)

	// Both overloads match without casts; the call has arguments, so no
	// ambiguity is raised.
	call, _ := compileCall(t, ctx, "echo(1)")
	assert.Equal(t, funcs[0].ID, call.Func.ID)
	assert.False(t, call.UsedImplicitCasts)
}

func TestCompileFunctionCall_PrefersExactOverCast(t *testing.T) {
	// The float64 overload gets the lowest id, so it is tried first and
	// matches int64 arguments only through an implicit cast.
	ids := schema.NewFixedGenerator(
		uuid.MustParse("00000000-0000-0000-0000-00000000000a"),
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		uuid.MustParse("00000000-0000-0000-0000-00000000000b"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
	)
	b := sdl.NewBuilder(sdl.WithBase(testutil.StdCatalog(t)), sdl.WithIDGenerator(ids))
	c := b.Catalog()
	float64T := testutil.MustGet(t, c, "std::float64")
	int64T := testutil.MustGet(t, c, "std::int64")
	for _, typ := range []schema.Object{float64T, int64T} {
		_, err := b.AddFunction("std::scale", sdl.FunctionDecl{
			Params:  []sdl.ParamDecl{{Name: "x", Type: typ}},
			Returns: typ,
		})
		require.NoError(t, err)
	}
	ctx := newTestContext(t, b.Catalog())
	c = ctx.Catalog

	funcs, err := c.GetFunctions("std::scale")
	require.NoError(t, err)
	require.Len(t, funcs, 2)
	require.Equal(t, "std::scale(x: std::float64) -> std::float64", c.Signature(funcs[0]))

	call, _ := compileCall(t, ctx, "scale(1)")
	assert.Equal(t, "std::scale(x: std::int64) -> std::int64", c.Signature(call.Func))
	assert.False(t, call.UsedImplicitCasts)

	call, _ = compileCall(t, ctx, "scale(1.5)")
	assert.Equal(t, "std::scale(x: std::float64) -> std::float64", c.Signature(call.Func))
}

func TestCompileFunctionCall_InsidePolymorphicFunction(t *testing.T) {
	c := testutil.StdCatalog(t)
	enclosed := func(t *testing.T, name string) *Context {
		t.Helper()
		fns, err := c.GetFunctions(name)
		require.NoError(t, err)
		require.Len(t, fns, 1)
		return newTestContext(t, c, WithEnclosingFunction(fns[0]))
	}

	t.Run("placeholder argument to concrete parameter", func(t *testing.T) {
		ctx := enclosed(t, "std::coalesce")
		abs, err := c.GetFunctions("std::abs")
		require.NoError(t, err)

		call, _ := compileCall(t, ctx, "abs(l)")
		assert.Equal(t, abs[0].ID, call.Func.ID)
		assert.False(t, call.UsedImplicitCasts)
		assert.Equal(t, []string{"l"}, formatArgs(c, call))
	})

	t.Run("placeholder argument to same placeholder", func(t *testing.T) {
		ctx := enclosed(t, "std::first")
		call, _ := compileCall(t, ctx, "len(vals)")
		assert.Equal(t, "std::len(a: array<std::anytype>) -> std::int64", c.Signature(call.Func))
		assert.Equal(t, "std::int64", c.TypeName(call.ReturnType))
	})

	t.Run("return type stays unresolved", func(t *testing.T) {
		ctx := enclosed(t, "std::coalesce")
		_, err := ctx.CompileSource("coalesce(l, r)")
		require.Error(t, err)
		assert.True(t, HasCode(err, ErrCodeNoMatchingVariant), err.Error())
	})
}

func TestCompileFunctionCall_ErrorPosition(t *testing.T) {
	ctx := stdContext(t)
	_, err := ctx.CompileSource("len('a', nope(1))")
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1, ce.Pos.Line)
	assert.Equal(t, 10, ce.Pos.Column)
}

func TestCompileFunctionCall_EnclosingFunction(t *testing.T) {
	c := testutil.StdCatalog(t)
	funcs, err := c.GetFunctions("std::abs")
	require.NoError(t, err)

	var absInt schema.Object
	for _, fn := range funcs {
		if c.Signature(fn) == "std::abs(x: std::int64) -> std::int64" {
			absInt = fn
		}
	}
	require.False(t, absInt.IsZero())
	ctx := newTestContext(t, c, WithEnclosingFunction(absInt))

	_, err = ctx.CompileSource("x()")
	assert.True(t, HasCode(err, ErrCodeParameterNotCallable))
	assert.Contains(t, err.Error(), "parameter `x` is not callable")

	call, _ := compileCall(t, ctx, "abs(x)")
	assert.Equal(t, []string{"x"}, formatArgs(c, call))
}

func TestCompileFunctionCall_ModuleAliases(t *testing.T) {
	c := testutil.StdCatalog(t)

	t.Run("alias", func(t *testing.T) {
		ctx := newTestContext(t, c, WithModuleAliases(map[string]string{"m": "math"}))
		call, _ := compileCall(t, ctx, "m::clamp(5)")
		assert.Equal(t, "math::clamp", call.Name.String())
		assert.Equal(t, []byte{0x03}, call.DefaultsMask)
		assert.Equal(t, []string{`b'\x03'`, "<std::int64>{}", "<std::int64>{}", "5"}, formatArgs(c, call))
	})

	t.Run("default module", func(t *testing.T) {
		ctx := newTestContext(t, c, WithModuleAliases(map[string]string{"": "default"}))
		call, _ := compileCall(t, ctx, "double(<money>5)")
		assert.Equal(t, "default::money", c.TypeName(call.ReturnType))

		_, err := ctx.CompileSource("double(5)")
		assert.True(t, HasCode(err, ErrCodeNoMatchingVariant))

		// std stays reachable through the builtins fallback.
		_, _ = compileCall(t, ctx, "len('a')")
	})
}

func TestCompileFunctionCall_InitialValue(t *testing.T) {
	ctx := stdContext(t)
	call, _ := compileCall(t, ctx, "sum(1)")
	require.NotNil(t, call.InitialValue)
	assert.Equal(t, "<std::int64>0", ir.Format(ctx.Catalog, call.InitialValue))

	call, _ = compileCall(t, ctx, "abs(1)")
	assert.Nil(t, call.InitialValue)
}

func TestCompileFunctionCall_Scopes(t *testing.T) {
	t.Run("singleton argument collapses its fence", func(t *testing.T) {
		ctx := stdContext(t)
		call, _ := compileCall(t, ctx, "abs(1)")
		arg := call.Args[0]
		assert.Nil(t, arg.Scope)
		assert.NotNil(t, ctx.Scope.Find(arg.PathID))
		assert.Empty(t, ctx.Scope.Children())
	})

	t.Run("set of argument keeps its fence", func(t *testing.T) {
		ctx := stdContext(t)
		call, _ := compileCall(t, ctx, "count(1)")
		arg := call.Args[0]
		require.NotNil(t, arg.Scope)
		assert.True(t, arg.Scope.Fenced)
		assert.Same(t, ctx.Scope, arg.Scope.Parent())
	})

	t.Run("optional and defaulted arguments are optional paths", func(t *testing.T) {
		ctx := stdContext(t)
		call, _ := compileCall(t, ctx, "coalesce(1, 2)")
		for _, arg := range call.Args {
			assert.True(t, ctx.Scope.IsOptional(arg.PathID))
		}

		call, _ = compileCall(t, ctx, "round(1.5)")
		assert.False(t, ctx.Scope.IsOptional(call.Args[0].PathID))
		assert.True(t, ctx.Scope.IsOptional(call.Args[1].PathID))
	})
}

func TestCompileFunctionCall_ArgumentClauses(t *testing.T) {
	ctx := stdContext(t)
	call, _ := compileCall(t, ctx, "count(1 FILTER true ORDER BY 2 DESC)")
	require.Len(t, call.Args, 1)
	stmt, ok := call.Args[0].Expr.(ir.SelectStmt)
	require.True(t, ok)
	assert.NotNil(t, stmt.Where)
	require.Len(t, stmt.OrderBy, 1)
	assert.True(t, stmt.OrderBy[0].Descending)
	assert.Equal(t, "(SELECT 1 FILTER true ORDER BY 2 DESC)", ir.Format(ctx.Catalog, call.Args[0]))
}

func TestCompileFunctionCall_ArgumentFilterOnSelect(t *testing.T) {
	ctx := stdContext(t)
	call, _ := compileCall(t, ctx, "count((SELECT 1 FILTER true ORDER BY 3) FILTER false ORDER BY 2)")
	require.Len(t, call.Args, 1)
	stmt, ok := call.Args[0].Expr.(ir.SelectStmt)
	require.True(t, ok)
	_, nested := stmt.Result.Expr.(ir.SelectStmt)
	assert.False(t, nested)
	and, ok := stmt.Where.Expr.(ir.And)
	require.True(t, ok)
	assert.Equal(t, "std::bool", ctx.Catalog.TypeName(and.Type))
	assert.Equal(t, "(SELECT 1 FILTER (true AND false) ORDER BY 2 THEN 3)", ir.Format(ctx.Catalog, call.Args[0]))
}

func TestCompileFunctionCall_Nested(t *testing.T) {
	ctx := stdContext(t)
	call, _ := compileCall(t, ctx, "len(concat('a', 'b'))")
	assert.Equal(t, "std::len(s: std::str) -> std::int64", ctx.Catalog.Signature(call.Func))
	assert.Equal(t, `std::len(std::concat("a", "b"))`, ir.Format(ctx.Catalog, &ir.Set{Expr: call}))
}

func TestTryBindFuncArgs_NoMatch(t *testing.T) {
	ctx := stdContext(t)
	c := ctx.Catalog
	funcs, err := c.GetFunctions("len")
	require.NoError(t, err)

	call, err := TryBindFuncArgs(ctx, CollectedArgs{}, "len", funcs[0])
	require.NoError(t, err)
	assert.False(t, call.Matched())
	assert.Equal(t, NoMatch, call)
}

func TestInvariantError(t *testing.T) {
	err := error(&InvariantError{Message: "unprocessed NAMED ONLY parameter"})
	assert.True(t, IsInvariantError(err))
	assert.False(t, IsInvariantError(newError(ErrCodeSyntax, qlast.Pos{}, "x")))
	assert.Equal(t, "invariant violation: unprocessed NAMED ONLY parameter", err.Error())
}
