package compiler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/schema"
	"github.com/roach88/qlbind/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(t *testing.T, c *schema.Catalog, opts ...Option) *Context {
	t.Helper()
	ctx, err := New(c, append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	return ctx
}

// compileCall compiles src and returns the resulting function call node.
func compileCall(t *testing.T, ctx *Context, src string) (ir.FunctionCall, *ir.Set) {
	t.Helper()
	set, err := ctx.CompileSource(src)
	require.NoError(t, err)
	call, ok := set.Expr.(ir.FunctionCall)
	require.True(t, ok, "expected a function call, got %T", set.Expr)
	return call, set
}

func stdContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	return newTestContext(t, testutil.StdCatalog(t), opts...)
}

func formatArgs(c *schema.Catalog, call ir.FunctionCall) []string {
	out := make([]string, len(call.Args))
	for i, a := range call.Args {
		out[i] = ir.Format(c, a)
	}
	return out
}
