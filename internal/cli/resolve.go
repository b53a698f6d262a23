package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/qlbind/internal/compiler"
	"github.com/roach88/qlbind/internal/ir"
	"github.com/roach88/qlbind/internal/schema"
	"github.com/roach88/qlbind/internal/store"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Database      string
	Session       string
	Function      string
	ModuleAliases map[string]string
}

// ResolveOutcome is the outer resolution of one call.
type ResolveOutcome struct {
	Call          string             `json:"call"`
	Winner        string             `json:"winner,omitempty"`
	Signature     string             `json:"signature,omitempty"`
	ReturnType    string             `json:"return_type,omitempty"`
	DefaultsMask  string             `json:"defaults_mask,omitempty"`
	Args          []string           `json:"args,omitempty"`
	ImplicitCasts bool               `json:"implicit_casts,omitempty"`
	EmptyVariadic bool               `json:"empty_variadic,omitempty"`
	Result        string             `json:"result,omitempty"`
	Code          string             `json:"code,omitempty"`
	ErrorCode     string             `json:"error_code,omitempty"`
	Error         string             `json:"error,omitempty"`
	Resolutions   int                `json:"resolutions"`
	Candidates    []CandidateOutcome `json:"candidates,omitempty"`
}

// CandidateOutcome is how one overload fared for the outer call.
type CandidateOutcome struct {
	Signature     string `json:"signature"`
	Matched       bool   `json:"matched"`
	ImplicitCasts bool   `json:"implicit_casts,omitempty"`
}

// Succeeded reports whether the call resolved.
func (o ResolveOutcome) Succeeded() bool {
	return o.Winner != ""
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <schema-dir> <call>...",
		Short: "Resolve function calls against a catalog",
		Long: `Compile one or more call expressions against the catalog and report
which overload each call bound to.

With --db, every resolution (nested calls included) is journaled under
the session, continuing the database's sequence numbers.

Exit codes:
  0 - All calls resolved
  1 - One or more calls failed to resolve
  2 - Command error (bad schema, database error, etc.)

Examples:
  qlbind resolve ./schema "len('abc')"
  qlbind resolve ./schema "m::clamp(5, hi := 10)" --module-alias m=math
  qlbind resolve ./schema "abs(x)" --function math::clamp
  qlbind resolve ./schema "len('abc')" "abs(1)" --db ./qlbind.db --session ci`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal resolutions to this SQLite database")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session (default: a random UUID)")
	cmd.Flags().StringVar(&opts.Function, "function", "", "compile calls inside the body of this function")
	cmd.Flags().StringToStringVar(&opts.ModuleAliases, "module-alias", nil, "module alias as alias=module (repeatable)")

	return cmd
}

// resolveRun holds the state shared by every call of one invocation.
type resolveRun struct {
	records    []compiler.ResolutionRecord
	journal    *store.Observer
	journaled  int
	journalErr error
}

func (r *resolveRun) ObserveResolution(rec compiler.ResolutionRecord) error {
	r.records = append(r.records, rec)
	if r.journal == nil {
		return nil
	}
	if err := r.journal.ObserveResolution(rec); err != nil {
		r.journalErr = errors.Join(r.journalErr, err)
		return err
	}
	r.journaled++
	return nil
}

func runResolve(opts *ResolveOptions, schemaDir string, calls []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := context.Background()

	res, err := LoadSchema(schemaDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	c := res.Catalog

	run := &resolveRun{}
	session := ""
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("opening database: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		clock, err := st.ResumeClock(ctx)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("reading last seq: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		session = opts.Session
		if session == "" {
			session = uuid.NewString()
		}
		run.journal = st.Observer(ctx, session, clock)
		formatter.VerboseLog("Journaling to %s (session %s, after seq %d)", opts.Database, session, clock.Current())
	}

	copts := []compiler.Option{
		compiler.WithLogger(opts.logger(formatter.GetErrWriter())),
		compiler.WithObserver(run),
		compiler.WithModuleAliases(opts.ModuleAliases),
	}
	if opts.Function != "" {
		fn, err := singleOverload(c, opts.Function)
		if err != nil {
			_ = formatter.Error(ErrCodeFunctionNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "bad enclosing function", err)
		}
		copts = append(copts, compiler.WithEnclosingFunction(fn))
	}

	cctx, err := compiler.New(c, copts...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create compiler context", err)
	}

	outcomes := make([]ResolveOutcome, 0, len(calls))
	failed := 0
	for _, call := range calls {
		mark := len(run.records)
		set, err := cctx.CompileSource(call)
		if compiler.IsInvariantError(err) {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), map[string]string{"call": call})
			return WrapExitError(ExitCommandError, "resolver invariant violated", err)
		}
		out := buildOutcome(c, call, run.records[mark:], set, err)
		if !out.Succeeded() {
			failed++
		}
		outcomes = append(outcomes, out)
	}

	if run.journalErr != nil {
		_ = formatter.Error(ErrCodeDatabase, fmt.Sprintf("journaling resolutions: %v", run.journalErr), nil)
		return WrapExitError(ExitCommandError, "failed to journal resolutions", run.journalErr)
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: outcomes, Session: session}
		if failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    outcomes[firstFailure(outcomes)].Code,
				Message: fmt.Sprintf("%d call(s) failed to resolve", failed),
			}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
	} else {
		outputResolveText(formatter.Writer, outcomes, opts.Verbose)
		if run.journal != nil {
			fmt.Fprintf(formatter.Writer, "\nJournaled %d resolution(s) to %s (session %s)\n", run.journaled, opts.Database, session)
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d call(s) failed to resolve", failed))
	}
	return nil
}

// buildOutcome describes a call from the records it produced. The outer
// call finishes last, so its record closes the slice unless compilation
// failed after it.
func buildOutcome(c *schema.Catalog, call string, recs []compiler.ResolutionRecord, set *ir.Set, err error) ResolveOutcome {
	out := ResolveOutcome{Call: call, Resolutions: len(recs)}
	// Syntax errors and bad references fail outside any resolution. When
	// they follow a resolved call, as in [len('a'), x], that call is not
	// the outcome.
	if len(recs) == 0 || (err != nil && recs[len(recs)-1].Succeeded()) {
		code := compiler.CodeOf(err)
		out.ErrorCode = string(code)
		out.Code = MapResolutionErrorCode(code)
		out.Error = "no function call was resolved"
		if err != nil {
			out.Error = err.Error()
			var ce *compiler.CompileError
			if errors.As(err, &ce) {
				out.Error = ce.Message
			}
		}
		return out
	}

	rec := recs[len(recs)-1]
	for _, cand := range rec.Candidates {
		out.Candidates = append(out.Candidates, CandidateOutcome{
			Signature:     cand.Signature,
			Matched:       cand.Matched,
			ImplicitCasts: cand.UsedImplicitCasts,
		})
	}
	if !rec.Succeeded() {
		out.ErrorCode = string(rec.ErrorCode)
		out.Code = MapResolutionErrorCode(rec.ErrorCode)
		out.Error = rec.Error
		return out
	}

	out.Winner = rec.Winner
	out.Signature = rec.Signature
	out.ReturnType = rec.ReturnType
	out.DefaultsMask = hex.EncodeToString(rec.DefaultsMask)
	out.Args = rec.Args
	out.ImplicitCasts = rec.UsedImplicitCasts
	out.EmptyVariadic = rec.HasEmptyVariadic
	if set != nil {
		out.Result = ir.Format(c, set)
	}
	return out
}

func firstFailure(outcomes []ResolveOutcome) int {
	for i, o := range outcomes {
		if !o.Succeeded() {
			return i
		}
	}
	return 0
}

func outputResolveText(w io.Writer, outcomes []ResolveOutcome, verbose bool) {
	for _, o := range outcomes {
		if !o.Succeeded() {
			fmt.Fprintf(w, "✗ %s\n", o.Call)
			fmt.Fprintf(w, "  Error [%s] %s: %s\n", o.Code, o.ErrorCode, o.Error)
		} else {
			fmt.Fprintf(w, "✓ %s\n", o.Call)
			fmt.Fprintf(w, "  function:  %s\n", o.Winner)
			fmt.Fprintf(w, "  signature: %s\n", o.Signature)
			fmt.Fprintf(w, "  returns:   %s\n", o.ReturnType)
			fmt.Fprintf(w, "  result:    %s\n", o.Result)
			if verbose {
				fmt.Fprintf(w, "  defaults:  %s\n", o.DefaultsMask)
				fmt.Fprintf(w, "  casts:     %t\n", o.ImplicitCasts)
			}
		}
		if verbose {
			for _, cand := range o.Candidates {
				mark := "-"
				if cand.Matched {
					mark = "+"
				}
				fmt.Fprintf(w, "    %s %s\n", mark, cand.Signature)
			}
		}
	}
}

// singleOverload finds the one function named name.
func singleOverload(c *schema.Catalog, name string) (schema.Object, error) {
	fns, err := c.GetFunctions(name)
	if err != nil {
		return schema.Object{}, err
	}
	if len(fns) != 1 {
		return schema.Object{}, fmt.Errorf("function %s has %d overloads, want 1", name, len(fns))
	}
	return fns[0], nil
}
