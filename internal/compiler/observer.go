package compiler

import (
	"encoding/hex"
	"errors"

	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/schema"
)

// Observer is notified after every call resolution, successful or not.
// An observer error is logged and never fails the compilation.
type Observer interface {
	ObserveResolution(rec ResolutionRecord) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec ResolutionRecord) error

// ObserveResolution calls f(rec).
func (f ObserverFunc) ObserveResolution(rec ResolutionRecord) error {
	return f(rec)
}

// CandidateOutcome is how one overload candidate fared.
type CandidateOutcome struct {
	Function          string
	Signature         string
	Matched           bool
	UsedImplicitCasts bool
}

// ResolutionRecord describes one resolution attempt.
type ResolutionRecord struct {
	Call       string
	Function   string
	Candidates []CandidateOutcome

	// Set on success.
	Winner            string
	Signature         string
	ReturnType        string
	UsedImplicitCasts bool
	HasEmptyVariadic  bool
	DefaultsMask      []byte
	Args              []string
	Result            *ir.Set

	// Set on failure.
	ErrorCode ErrorCode
	Error     string

	CatalogGeneration int64
}

// Succeeded reports whether the call resolved.
func (r ResolutionRecord) Succeeded() bool {
	return r.Winner != ""
}

// ToIR converts the record to its canonical form. The catalog generation
// and compiled result are left out, so the same outcome always hashes the
// same.
func (r ResolutionRecord) ToIR() ir.IRObject {
	candidates := make(ir.IRArray, len(r.Candidates))
	for i, cand := range r.Candidates {
		candidates[i] = ir.IRObject{
			"function":       ir.IRString(cand.Function),
			"signature":      ir.IRString(cand.Signature),
			"matched":        ir.IRBool(cand.Matched),
			"implicit_casts": ir.IRBool(cand.UsedImplicitCasts),
		}
	}
	obj := ir.IRObject{
		"call":       ir.IRString(r.Call),
		"function":   ir.IRString(r.Function),
		"candidates": candidates,
	}
	if r.Succeeded() {
		obj["winner"] = ir.IRString(r.Winner)
		obj["signature"] = ir.IRString(r.Signature)
		obj["return_type"] = ir.IRString(r.ReturnType)
		obj["implicit_casts"] = ir.IRBool(r.UsedImplicitCasts)
		obj["empty_variadic"] = ir.IRBool(r.HasEmptyVariadic)
		obj["defaults_mask"] = ir.IRString(hex.EncodeToString(r.DefaultsMask))
		obj["args"] = ir.StringArray(r.Args)
	} else {
		obj["error_code"] = ir.IRString(r.ErrorCode)
		obj["error"] = ir.IRString(r.Error)
	}
	return obj
}

func (r *ResolutionRecord) setOutcome(c *schema.Catalog, set *ir.Set, node ir.FunctionCall) {
	r.Winner = c.NameOf(node.Func).String()
	r.Signature = c.Signature(node.Func)
	r.ReturnType = c.TypeName(node.ReturnType)
	r.UsedImplicitCasts = node.UsedImplicitCasts
	r.HasEmptyVariadic = node.HasEmptyVariadic
	r.DefaultsMask = node.DefaultsMask
	r.Args = make([]string, len(node.Args))
	for i, arg := range node.Args {
		r.Args[i] = ir.Format(c, arg)
	}
	r.Result = set
}

// notify reports a finished resolution to the observer.
func (ctx *Context) notify(rec *ResolutionRecord, err error) {
	if ctx.Observer == nil {
		return
	}
	if err != nil {
		rec.ErrorCode = CodeOf(err)
		rec.Error = err.Error()
		var ce *CompileError
		if errors.As(err, &ce) {
			rec.Error = ce.Message
		}
	}
	if oerr := ctx.Observer.ObserveResolution(*rec); oerr != nil {
		ctx.Logger.Warn("resolution observer failed", "call", rec.Function, "error", oerr)
	}
}
