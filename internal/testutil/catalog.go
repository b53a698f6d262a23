package testutil

import (
	_ "embed"
	"testing"

	"github.com/roach88/qlbind/internal/schema"
	"github.com/roach88/qlbind/internal/sdl"
)

// StdSchema declares the standard catalog shared by package tests: the std
// numeric tower with implicit casts, overloaded and polymorphic functions,
// defaults, a variadic, and two small user modules (math, default).
//
//go:embed testdata/std.cue
var StdSchema string

// StdCatalog builds the standard test catalog, failing t on any error.
// Object ids are derived from names, so the catalog is identical on every call.
func StdCatalog(t testing.TB) *schema.Catalog {
	t.Helper()
	c, err := sdl.LoadString(StdSchema)
	if err != nil {
		t.Fatalf("load std catalog: %v", err)
	}
	return c
}

// MustGet resolves a full name in c, failing t when it is absent.
func MustGet(t testing.TB, c *schema.Catalog, name string) schema.Object {
	t.Helper()
	obj, err := c.Get(name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return obj
}
