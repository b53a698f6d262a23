package compiler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/qlast"
)

// unluckyCompiler rejects the literal 13 with a wrapped CompileError.
type unluckyCompiler struct{}

func (unluckyCompiler) Compile(ctx *Context, expr qlast.Expr) (*ir.Set, error) {
	if lit, ok := expr.(*qlast.IntLiteral); ok && lit.Value == "13" {
		return nil, fmt.Errorf("compiling argument: %w",
			&CompileError{Code: ErrCodeInvalidReference, Message: "13 is unlucky", Pos: lit.Pos})
	}
	return exprCompiler{}.Compile(ctx, expr)
}

func TestObserver_RecordsOutcomes(t *testing.T) {
	var recs []ResolutionRecord
	ctx := stdContext(t, WithObserver(ObserverFunc(func(rec ResolutionRecord) error {
		recs = append(recs, rec)
		return nil
	})))

	_, err := ctx.CompileSource("f(1)")
	require.NoError(t, err)
	_, err = ctx.CompileSource("abs('x')")
	require.Error(t, err)

	require.Len(t, recs, 2)

	ok := recs[0]
	assert.True(t, ok.Succeeded())
	assert.Equal(t, "f(1)", ok.Call)
	assert.Equal(t, "std::f(x: std::int64, NAMED ONLY y: std::str = 'a') -> std::str", ok.Signature)
	assert.Equal(t, "std::str", ok.ReturnType)
	assert.Equal(t, []byte{0x01}, ok.DefaultsMask)
	assert.Equal(t, []string{`b'\x01'`, "<std::str>{}", "1"}, ok.Args)
	require.Len(t, ok.Candidates, 1)
	assert.True(t, ok.Candidates[0].Matched)
	assert.Equal(t, ctx.Catalog.Generation(), ok.CatalogGeneration)
	assert.NotNil(t, ok.Result)

	failed := recs[1]
	assert.False(t, failed.Succeeded())
	assert.Equal(t, ErrCodeNoMatchingVariant, failed.ErrorCode)
	assert.Equal(t, "could not find a function variant abs", failed.Error)
	assert.Len(t, failed.Candidates, 2)
	for _, cand := range failed.Candidates {
		assert.False(t, cand.Matched)
	}
}

func TestObserver_NestedCallsReportInnerFirst(t *testing.T) {
	var calls []string
	ctx := stdContext(t, WithObserver(ObserverFunc(func(rec ResolutionRecord) error {
		calls = append(calls, rec.Function)
		return nil
	})))

	_, err := ctx.CompileSource("len(concat('a'))")
	require.NoError(t, err)
	assert.Equal(t, []string{"concat", "len"}, calls)
}

func TestObserver_ErrorDoesNotFailCompilation(t *testing.T) {
	ctx := stdContext(t, WithObserver(ObserverFunc(func(ResolutionRecord) error {
		return errors.New("journal unavailable")
	})))
	_, err := ctx.CompileSource("abs(1)")
	assert.NoError(t, err)
}

func TestObserver_WrappedCompileError(t *testing.T) {
	var recs []ResolutionRecord
	ctx := stdContext(t,
		WithExprCompiler(unluckyCompiler{}),
		WithObserver(ObserverFunc(func(rec ResolutionRecord) error {
			recs = append(recs, rec)
			return nil
		})))

	_, err := ctx.CompileSource("abs(13)")
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidReference, CodeOf(err))

	require.Len(t, recs, 1)
	assert.Equal(t, ErrCodeInvalidReference, recs[0].ErrorCode)
	assert.Equal(t, "13 is unlucky", recs[0].Error)
}

func TestResolutionRecord_ToIR(t *testing.T) {
	rec := ResolutionRecord{
		Call:     "f(1)",
		Function: "f",
		Candidates: []CandidateOutcome{
			{Function: "std::f@@std|int64", Signature: "std::f(x: std::int64) -> std::str", Matched: true},
		},
		Winner:            "std::f@@std|int64",
		Signature:         "std::f(x: std::int64) -> std::str",
		ReturnType:        "std::str",
		DefaultsMask:      []byte{0x01},
		Args:              []string{"1"},
		CatalogGeneration: 7,
	}

	obj := rec.ToIR()
	assert.Equal(t, ir.IRString("01"), obj["defaults_mask"])
	assert.NotContains(t, obj, "error_code")
	assert.NotContains(t, obj, "generation")

	later := rec
	later.CatalogGeneration = 8
	assert.Equal(t, ir.MustResolutionID(obj), ir.MustResolutionID(later.ToIR()),
		"the catalog generation does not change a record's identity")

	failed := ResolutionRecord{Call: "g()", Function: "g", ErrorCode: ErrCodeFunctionNotFound, Error: "could not resolve function name g"}
	fobj := failed.ToIR()
	assert.Equal(t, ir.IRString("FUNCTION_NOT_FOUND"), fobj["error_code"])
	assert.NotContains(t, fobj, "winner")
}
