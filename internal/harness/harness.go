package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/roach88/qlbind/internal/compiler"
	"github.com/roach88/qlbind/internal/schema"
	"github.com/roach88/qlbind/internal/sdl"
	"github.com/roach88/qlbind/internal/store"
	"github.com/roach88/qlbind/internal/testutil"
)

// Harness runs one scenario. It builds the catalog, compiles every call
// with a deterministic clock and records each resolution to the journal.
type Harness struct {
	store   *store.Store
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
	session string
	result  *Result
}

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger *slog.Logger
	store  *store.Store
}

// WithLogger sets the logger for the run. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithStore records the run into st instead of a fresh in-memory journal.
// The caller owns st.
func WithStore(st *store.Store) Option {
	return func(c *config) {
		c.store = st
	}
}

// Run executes a scenario and returns the result.
//
// Unless WithStore is given, each scenario runs against a fresh in-memory
// journal for isolation. Failed expectations are reported in the result;
// the returned error is reserved for scenarios that cannot run at all
// (bad schema, bad enclosing function) and invariant violations.
//
// Execution flow:
// 1. Build the catalog from the schema files
// 2. Compile each call, recording every resolution
// 3. Check each call's expectation against its outer resolution
// 4. Evaluate assertions against the trace and the journal
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := loadCatalog(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	st := cfg.store
	if st == nil {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	session := scenario.Session
	if session == "" {
		session = scenario.Name
	}

	h := &Harness{
		store:   st,
		clock:   testutil.NewDeterministicClock(),
		logger:  cfg.logger,
		session: session,
		result:  NewResult(session),
	}

	ctx := context.Background()

	copts := []compiler.Option{
		compiler.WithLogger(cfg.logger),
		compiler.WithObserver(compiler.ObserverFunc(func(rec compiler.ResolutionRecord) error {
			return h.record(ctx, rec)
		})),
	}
	if len(scenario.ModuleAliases) > 0 {
		copts = append(copts, compiler.WithModuleAliases(scenario.ModuleAliases))
	}
	if scenario.Function != "" {
		fn, err := enclosingFunction(c, scenario.Function)
		if err != nil {
			return nil, err
		}
		copts = append(copts, compiler.WithEnclosingFunction(fn))
	}

	cctx, err := compiler.New(c, copts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compiler context: %w", err)
	}

	for i, step := range scenario.Calls {
		if err := h.executeCall(ctx, cctx, i, step); err != nil {
			return nil, err
		}
	}

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Session: session,
	}
	for _, errMsg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(errMsg)
	}

	return h.result, nil
}

// record is the compiler observer: it stamps the resolution with the next
// seq, traces it and writes it to the journal.
func (h *Harness) record(ctx context.Context, rec compiler.ResolutionRecord) error {
	seq := h.clock.Next()
	h.result.AddTrace(eventFromRecord(seq, rec))
	if _, err := h.store.Record(ctx, h.session, seq, rec); err != nil {
		return fmt.Errorf("journal %s: %w", rec.Call, err)
	}
	return nil
}

// executeCall compiles one call and checks its expectation.
func (h *Harness) executeCall(ctx context.Context, cctx *compiler.Context, i int, step CallStep) error {
	mark := len(h.result.Trace)
	_, err := cctx.CompileSource(step.Call)
	if compiler.IsInvariantError(err) {
		return fmt.Errorf("calls[%d] %s: %w", i, step.Call, err)
	}

	var outer TraceEvent
	last := len(h.result.Trace) - 1
	if last >= mark && (err == nil || !h.result.Trace[last].Succeeded()) {
		outer = h.result.Trace[last]
	} else {
		// Errors raised outside resolution (syntax, bad references) are not
		// observed by the compiler; trace them here, even when an earlier
		// part of the call resolved.
		outer = TraceEvent{
			Seq:       h.clock.Next(),
			Call:      step.Call,
			ErrorCode: string(compiler.CodeOf(err)),
			Error:     errorMessage(err),
		}
		if err == nil {
			outer.Error = "no function call was resolved"
		}
		h.result.AddTrace(outer)
	}

	h.logger.Info("call compiled",
		"step", i,
		"call", step.Call,
		"winner", outer.Winner,
		"error_code", outer.ErrorCode,
	)

	for _, msg := range checkExpect(step, outer) {
		h.result.AddError(fmt.Sprintf("calls[%d] %s: %s", i, step.Call, msg))
	}
	return nil
}

// checkExpect compares the outer resolution with the step's expectation.
func checkExpect(step CallStep, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		if !ev.Succeeded() {
			return []string{fmt.Sprintf("unexpected error %s: %s", ev.ErrorCode, ev.Error)}
		}
		return nil
	}

	if exp.Error != "" {
		switch {
		case ev.Succeeded():
			return []string{fmt.Sprintf("expected error %s, resolved to %s", exp.Error, ev.Winner)}
		case ev.ErrorCode != exp.Error:
			return []string{fmt.Sprintf("expected error %s, got %s: %s", exp.Error, ev.ErrorCode, ev.Error)}
		}
		return nil
	}

	if !ev.Succeeded() {
		return []string{fmt.Sprintf("unexpected error %s: %s", ev.ErrorCode, ev.Error)}
	}

	var errs []string
	mismatch := func(field string, want, got any) {
		errs = append(errs, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
	}
	if exp.Function != "" && exp.Function != ev.Winner {
		mismatch("function", exp.Function, ev.Winner)
	}
	if exp.ReturnType != "" && exp.ReturnType != ev.ReturnType {
		mismatch("return_type", exp.ReturnType, ev.ReturnType)
	}
	if exp.DefaultsMask != "" && exp.DefaultsMask != ev.DefaultsMask {
		mismatch("defaults_mask", exp.DefaultsMask, ev.DefaultsMask)
	}
	if exp.ImplicitCast != nil && *exp.ImplicitCast != ev.ImplicitCasts {
		mismatch("implicit_cast", *exp.ImplicitCast, ev.ImplicitCasts)
	}
	if exp.EmptyVariadic != nil && *exp.EmptyVariadic != ev.EmptyVariadic {
		mismatch("empty_variadic", *exp.EmptyVariadic, ev.EmptyVariadic)
	}
	if exp.Args != nil && !slices.Equal(exp.Args, ev.Args) {
		mismatch("args", exp.Args, ev.Args)
	}
	return errs
}

// loadCatalog builds a catalog from CUE files and directories.
func loadCatalog(paths []string) (*schema.Catalog, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := sdl.FindCUEFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	res, err := sdl.LoadFiles(files)
	if err != nil {
		return nil, err
	}
	return res.Catalog, nil
}

// enclosingFunction finds the single overload named name.
func enclosingFunction(c *schema.Catalog, name string) (schema.Object, error) {
	fns, err := c.GetFunctions(name)
	if err != nil {
		return schema.Object{}, fmt.Errorf("enclosing function: %w", err)
	}
	if len(fns) != 1 {
		return schema.Object{}, fmt.Errorf("enclosing function %s has %d overloads, want 1", name, len(fns))
	}
	return fns[0], nil
}

func errorMessage(err error) string {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
