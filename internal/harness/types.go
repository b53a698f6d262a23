package harness

import (
	"encoding/hex"

	"github.com/roach88/qlbind/internal/compiler"
	"github.com/roach88/qlbind/internal/ir"
)

// TraceEvent is one call resolution observed while running a scenario.
// Nested calls produce one event each, innermost first.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Call     string `json:"call"`
	Function string `json:"function"`

	Winner        string   `json:"winner,omitempty"`
	ReturnType    string   `json:"return_type,omitempty"`
	DefaultsMask  string   `json:"defaults_mask,omitempty"` // hex
	Args          []string `json:"args,omitempty"`
	ImplicitCasts bool     `json:"implicit_casts,omitempty"`
	EmptyVariadic bool     `json:"empty_variadic,omitempty"`

	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Succeeded reports whether the call bound to a variant.
func (e TraceEvent) Succeeded() bool {
	return e.Winner != ""
}

func eventFromRecord(seq int64, rec compiler.ResolutionRecord) TraceEvent {
	ev := TraceEvent{
		Seq:       seq,
		Call:      rec.Call,
		Function:  rec.Function,
		ErrorCode: string(rec.ErrorCode),
		Error:     rec.Error,
	}
	if rec.Succeeded() {
		ev.Winner = rec.Winner
		ev.ReturnType = rec.ReturnType
		ev.DefaultsMask = hex.EncodeToString(rec.DefaultsMask)
		ev.Args = rec.Args
		ev.ImplicitCasts = rec.UsedImplicitCasts
		ev.EmptyVariadic = rec.HasEmptyVariadic
	}
	return ev
}

// toIR renders the event for canonical traces. Failed events carry only the
// error; successful ones carry the binding.
func (e TraceEvent) toIR() ir.IRObject {
	obj := ir.IRObject{
		"seq":      ir.IRInt(e.Seq),
		"call":     ir.IRString(e.Call),
		"function": ir.IRString(e.Function),
	}
	if e.Succeeded() {
		obj["winner"] = ir.IRString(e.Winner)
		obj["return_type"] = ir.IRString(e.ReturnType)
		obj["defaults_mask"] = ir.IRString(e.DefaultsMask)
		obj["args"] = ir.StringArray(e.Args)
		obj["implicit_casts"] = ir.IRBool(e.ImplicitCasts)
		obj["empty_variadic"] = ir.IRBool(e.EmptyVariadic)
	} else {
		obj["error_code"] = ir.IRString(e.ErrorCode)
		obj["error"] = ir.IRString(e.Error)
	}
	return obj
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Session is the journal session the run was recorded under.
	Session string `json:"session"`

	// Trace holds every resolution in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(session string) *Result {
	return &Result{
		Pass:    true,
		Session: session,
		Trace:   []TraceEvent{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a resolution to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
