package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"std::len", Name{Module: "std", Name: "len"}},
		{"len", Name{Name: "len"}},
		{"  default::x ", Name{Module: "default", Name: "x"}},
		{"std::len@@std|str", Name{Module: "std", Name: "len@@std|str"}},
		// decomposed e + combining acute normalises to the composed form
		{"cafe\u0301", Name{Name: "caf\u00e9"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseName(tt.in))
		})
	}
}

func TestShortname(t *testing.T) {
	full := SpecializedName(ParseName("std::len"), "std::str", "array<std::int64>")
	assert.Equal(t, "std::len@@std|str@array<std|int64>", full.String())
	assert.Equal(t, ParseName("std::len"), Shortname(full))
	assert.Equal(t, ParseName("std::len"), Shortname(ParseName("std::len")))
}

func TestGet_ResolutionOrder(t *testing.T) {
	b := newBuilder(t, "std", "default", "math")
	stdStr := b.scalar("std::str")
	defStr := b.scalar("default::str")
	mathPi := b.scalar("math::pi")
	stdOnly := b.scalar("std::bytes")

	tests := []struct {
		name    string
		lookup  string
		aliases map[string]string
		want    Object
	}{
		{"qualified", "std::str", nil, stdStr},
		{"default alias wins over std", "str", map[string]string{"": "default"}, defStr},
		{"no alias falls back to std", "str", nil, stdStr},
		{"alias miss falls back to std", "bytes", map[string]string{"": "default"}, stdOnly},
		{"module alias", "m::pi", map[string]string{"m": "math"}, mathPi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.c.Get(tt.lookup, WithModuleAliases(tt.aliases))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGet_QualifiedDoesNotFallBack(t *testing.T) {
	b := newBuilder(t, "std", "default")
	b.scalar("std::str")

	_, err := b.c.Get("default::str")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "default::str")
}

func TestGet_VariantFilterAndDefault(t *testing.T) {
	b := newBuilder(t, "std")
	str := b.scalar("std::str")

	_, err := b.c.Get("std::str", WithVariants(VariantObjectType))
	assert.True(t, IsNotFound(err))

	got, err := b.c.Get("std::str", WithVariants(VariantObjectType, VariantScalarType))
	require.NoError(t, err)
	assert.Equal(t, str, got)

	fallback := Object{ID: str.ID, Variant: VariantScalarType}
	got, err = b.c.Get("std::missing", WithDefault(fallback))
	require.NoError(t, err)
	assert.Equal(t, fallback, got)
}

func TestGetFunctions_OverloadGroup(t *testing.T) {
	b := newBuilder(t, "std", "default")
	str := b.scalar("std::str")
	i64 := b.scalar("std::int64")
	f1 := b.fn("std::len", i64, str)
	f2 := b.fn("std::len", i64, i64)
	local := b.fn("default::len", i64, str)

	group, err := b.c.GetFunctions("len")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{f1, f2}, group)

	group, err = b.c.GetFunctions("len", WithModuleAliases(map[string]string{"": "default"}))
	require.NoError(t, err)
	assert.Equal(t, []Object{local}, group)

	_, err = b.c.GetOperators("len")
	assert.True(t, IsNotFound(err), "functions and operators are separate groups")

	again, err := b.c.GetFunctions("std::len")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{f1, f2}, again)
}

func TestGetReferrers_Filters(t *testing.T) {
	b := newBuilder(t, "std")
	str := b.scalar("std::str")
	i64 := b.scalar("std::int64")
	toStr := b.cast(i64, str, false)
	fromStr := b.cast(str, i64, true)

	all, err := b.c.GetReferrers(str)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{toStr, fromStr}, all)

	casts, err := b.c.GetReferrers(str, ReferrerVariant(VariantCast), ReferrerField(FieldToType))
	require.NoError(t, err)
	assert.Equal(t, []Object{toStr}, casts)

	_, err = b.c.GetReferrers(str, ReferrerField(FieldToType))
	assert.True(t, HasCode(err, ErrCodeInvalidField))

	unknown, err := b.c.GetReferrers(Object{})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestMemoizedResultsAreCopies(t *testing.T) {
	b := newBuilder(t, "std")
	str := b.scalar("std::str")
	i64 := b.scalar("std::int64")
	f1 := b.fn("std::len", i64, str)
	f2 := b.fn("std::len", i64, i64)
	toStr := b.cast(i64, str, true)

	group, err := b.c.GetFunctions("std::len")
	require.NoError(t, err)
	require.Len(t, group, 2)
	group[0], group[1] = Object{}, Object{}

	again, err := b.c.GetFunctions("std::len")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{f1, f2}, again)

	refs, err := b.c.GetReferrers(i64)
	require.NoError(t, err)
	require.NotEmpty(t, refs)
	want := append([]Object(nil), refs...)
	refs[0] = Object{}

	refs, err = b.c.GetReferrers(i64)
	require.NoError(t, err)
	assert.Equal(t, want, refs)

	casts := b.c.GetCastsToType(str, CastFilter{Implicit: true})
	require.Equal(t, []Object{toStr}, casts)
	casts[0] = Object{}
	assert.Equal(t, []Object{toStr}, b.c.GetCastsToType(str, CastFilter{Implicit: true}))
}

func TestGetCasts(t *testing.T) {
	b := newBuilder(t, "std")
	str := b.scalar("std::str")
	i32 := b.scalar("std::int32")
	i64 := b.scalar("std::int64")
	widen := b.cast(i32, i64, true)
	render := b.cast(i32, str, false)

	assert.ElementsMatch(t, []Object{widen, render}, b.c.GetCastsFromType(i32, CastFilter{}))
	assert.Equal(t, []Object{widen}, b.c.GetCastsFromType(i32, CastFilter{Implicit: true}))
	assert.Equal(t, []Object{widen}, b.c.GetCastsToType(i64, CastFilter{}))
	assert.Empty(t, b.c.GetCastsToType(str, CastFilter{Implicit: true}))
	assert.Empty(t, b.c.GetCastsFromType(i32, CastFilter{Assignment: true}))
}
