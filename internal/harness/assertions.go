package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/qlbind/internal/store"
)

// AssertionContext gives assertions access to the journal of the run.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Session string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			if event.Succeeded() {
				fmt.Fprintf(&buf, "  [%d] %s -> %s\n", event.Seq, event.Call, event.Winner)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s -> %s\n", event.Seq, event.Call, event.ErrorCode)
			}
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
// Journal assertions are skipped with an error when actx has no store.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertJournal:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("journal assertion requires a store")
			} else {
				err = assertJournal(actx, a)
			}
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// matchesFunction reports whether ev was a resolution of name, written at
// the call site or as the winner's full name.
func matchesFunction(ev TraceEvent, name string) bool {
	return ev.Function == name || (ev.Winner != "" && ev.Winner == name)
}

// assertTraceContains checks that some resolution matches the function.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesFunction(event, assertion.Function) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("resolution of %s", assertion.Function),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that functions were first resolved in the given
// order. Other resolutions may come in between.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		for _, fn := range assertion.Functions {
			if matchesFunction(event, fn) && positions[fn] == 0 {
				positions[fn] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, fn := range assertion.Functions {
		if positions[fn] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all functions present: %v", assertion.Functions),
				Actual:   fmt.Sprintf("missing function: %s", fn),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Functions); i++ {
		prev := assertion.Functions[i-1]
		curr := assertion.Functions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("functions in order: %v", assertion.Functions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks that the function was resolved exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchesFunction(event, assertion.Function) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d resolutions of %s", assertion.Count, assertion.Function),
			Actual:   fmt.Sprintf("%d resolutions", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertJournal counts the session's journal records. Records are
// content-addressed, so repeating an identical call is counted once.
func assertJournal(actx *AssertionContext, assertion Assertion) error {
	recs, err := actx.Store.ListResolutions(actx.Ctx, store.Filter{
		Session:    actx.Session,
		FailedOnly: assertion.Failed,
	})
	if err != nil {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: "readable journal",
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	count := 0
	for _, r := range recs {
		if assertion.Function == "" || r.Function == assertion.Function || r.Winner == assertion.Function {
			count++
		}
	}

	if count != assertion.Count {
		what := "records"
		if assertion.Failed {
			what = "failed records"
		}
		if assertion.Function != "" {
			what += " of " + assertion.Function
		}
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("%d %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}
