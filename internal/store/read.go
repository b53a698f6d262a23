package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record id is not in the journal.
var ErrNotFound = errors.New("resolution not found")

const resolutionColumns = `
	id, session, seq, call, function, winner, signature, return_type,
	implicit_casts, empty_variadic, defaults_mask, args, error_code, error,
	catalog_generation`

// ListResolutions returns journal records matching f.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ListResolutions(ctx context.Context, f Filter) ([]Resolution, error) {
	var where []string
	var args []any
	if f.Session != "" {
		where = append(where, "session = ?")
		args = append(args, f.Session)
	}
	if f.Function != "" {
		where = append(where, "function = ?")
		args = append(args, f.Function)
	}
	if f.FailedOnly {
		where = append(where, "winner IS NULL")
	}

	query := "SELECT" + resolutionColumns + " FROM resolutions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	out := []Resolution{}
	for rows.Next() {
		r, err := scanResolution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return out, nil
}

// GetResolution returns one record by id, or ErrNotFound.
func (s *Store) GetResolution(ctx context.Context, id string) (Resolution, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+resolutionColumns+" FROM resolutions WHERE id = ?", id)
	r, err := scanResolution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Resolution{}, ErrNotFound
	}
	return r, err
}

// Candidates returns the overloads tried for a resolution, in the order
// they were tried.
func (s *Store) Candidates(ctx context.Context, resolutionID string) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resolution_id, ordinal, function, signature, matched, implicit_casts
		FROM candidates
		WHERE resolution_id = ?
		ORDER BY ordinal ASC
	`, resolutionID)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ResolutionID, &c.Ordinal, &c.Function, &c.Signature, &c.Matched, &c.UsedImplicitCasts); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResolution(row scanner) (Resolution, error) {
	var r Resolution
	var winner, signature, returnType, mask, errorCode, errMsg sql.NullString
	var argsJSON string
	err := row.Scan(
		&r.ID, &r.Session, &r.Seq, &r.Call, &r.Function,
		&winner, &signature, &returnType,
		&r.UsedImplicitCasts, &r.HasEmptyVariadic,
		&mask, &argsJSON, &errorCode, &errMsg,
		&r.CatalogGeneration,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan resolution: %w", err)
	}
	r.Winner = winner.String
	r.Signature = signature.String
	r.ReturnType = returnType.String
	r.ErrorCode = errorCode.String
	r.Error = errMsg.String
	if r.DefaultsMask, err = decodeMask(mask.String); err != nil {
		return r, err
	}
	if r.Args, err = unmarshalArgs(argsJSON); err != nil {
		return r, err
	}
	return r, nil
}
