package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/qlbind/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string
	Function string
	Failed   bool
	Limit    int
	ID       string
}

// HistoryEntry is one journaled resolution.
type HistoryEntry struct {
	ID                string             `json:"id"`
	Session           string             `json:"session"`
	Seq               int64              `json:"seq"`
	Call              string             `json:"call"`
	Function          string             `json:"function"`
	Winner            string             `json:"winner,omitempty"`
	Signature         string             `json:"signature,omitempty"`
	ReturnType        string             `json:"return_type,omitempty"`
	DefaultsMask      string             `json:"defaults_mask,omitempty"`
	Args              []string           `json:"args,omitempty"`
	ImplicitCasts     bool               `json:"implicit_casts,omitempty"`
	EmptyVariadic     bool               `json:"empty_variadic,omitempty"`
	ErrorCode         string             `json:"error_code,omitempty"`
	Error             string             `json:"error,omitempty"`
	CatalogGeneration int64              `json:"catalog_generation"`
	Candidates        []HistoryCandidate `json:"candidates,omitempty"`
}

// HistoryCandidate is one overload tried for a journaled resolution.
type HistoryCandidate struct {
	Ordinal       int    `json:"ordinal"`
	Function      string `json:"function"`
	Signature     string `json:"signature"`
	Matched       bool   `json:"matched"`
	ImplicitCasts bool   `json:"implicit_casts,omitempty"`
}

// HistoryResult holds the listed resolutions.
type HistoryResult struct {
	Entries []HistoryEntry `json:"entries"`
	Failed  int            `json:"failed"`
	Total   int            `json:"total"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the resolution journal",
		Long: `List journaled resolutions in the order they happened.

Each entry shows the call, the overload it bound to or the error it
raised. With --verbose (or --id), every candidate overload is listed
with whether it matched.

Examples:
  qlbind history --db ./qlbind.db
  qlbind history --db ./qlbind.db --session ci --failed
  qlbind history --db ./qlbind.db --function len --limit 10
  qlbind history --db ./qlbind.db --id 3f2a... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only this session")
	cmd.Flags().StringVar(&opts.Function, "function", "", "only calls to this function name")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only failed resolutions")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entries (0 = all)")
	cmd.Flags().StringVar(&opts.ID, "id", "", "show a single resolution by id")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be non-negative")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var rows []store.Resolution
	if opts.ID != "" {
		r, err := st.GetResolution(ctx, opts.ID)
		if errors.Is(err, store.ErrNotFound) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("resolution not found: %s", opts.ID), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("resolution not found: %s", opts.ID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read resolution", err)
		}
		rows = []store.Resolution{r}
	} else {
		rows, err = st.ListResolutions(ctx, store.Filter{
			Session:    opts.Session,
			Function:   opts.Function,
			FailedOnly: opts.Failed,
			Limit:      opts.Limit,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list resolutions", err)
		}
	}

	withCandidates := opts.Verbose || opts.ID != ""
	result := HistoryResult{Entries: make([]HistoryEntry, 0, len(rows)), Total: len(rows)}
	for _, r := range rows {
		entry := historyEntry(r)
		if withCandidates {
			cands, err := st.Candidates(ctx, r.ID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read candidates", err)
			}
			for _, c := range cands {
				entry.Candidates = append(entry.Candidates, HistoryCandidate{
					Ordinal:       c.Ordinal,
					Function:      c.Function,
					Signature:     c.Signature,
					Matched:       c.Matched,
					ImplicitCasts: c.UsedImplicitCasts,
				})
			}
		}
		if !r.Succeeded() {
			result.Failed++
		}
		result.Entries = append(result.Entries, entry)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	outputHistoryText(formatter.Writer, result, withCandidates)
	return nil
}

func historyEntry(r store.Resolution) HistoryEntry {
	return HistoryEntry{
		ID:                r.ID,
		Session:           r.Session,
		Seq:               r.Seq,
		Call:              r.Call,
		Function:          r.Function,
		Winner:            r.Winner,
		Signature:         r.Signature,
		ReturnType:        r.ReturnType,
		DefaultsMask:      hex.EncodeToString(r.DefaultsMask),
		Args:              r.Args,
		ImplicitCasts:     r.UsedImplicitCasts,
		EmptyVariadic:     r.HasEmptyVariadic,
		ErrorCode:         r.ErrorCode,
		Error:             r.Error,
		CatalogGeneration: r.CatalogGeneration,
	}
}

// outputHistoryText renders the journal as a timeline.
func outputHistoryText(w io.Writer, result HistoryResult, verbose bool) {
	fmt.Fprintf(w, "History: %d resolution(s), %d failed\n\n", result.Total, result.Failed)
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "  (no resolutions)")
		return
	}
	for _, e := range result.Entries {
		if e.Winner != "" {
			fmt.Fprintf(w, "  [%d] %s -> %s\n", e.Seq, e.Call, e.Winner)
		} else {
			fmt.Fprintf(w, "  [%d] %s -> %s: %s\n", e.Seq, e.Call, e.ErrorCode, e.Error)
		}
		if !verbose {
			continue
		}
		fmt.Fprintf(w, "       ID: %s  session: %s\n", truncateID(e.ID), e.Session)
		for _, c := range e.Candidates {
			mark := "-"
			if c.Matched {
				mark = "+"
			}
			fmt.Fprintf(w, "       %s %s\n", mark, c.Signature)
		}
	}
}

// truncateID shortens a content hash for display.
func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
