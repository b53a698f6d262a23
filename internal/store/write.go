package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/roach88/qlbind/internal/compiler"
	"github.com/roach88/qlbind/internal/ir"
)

// Record writes a resolution and its candidates and returns the record id.
//
// The id is content-addressed over the record and its session, so writing
// the same outcome twice in one session is silently ignored. Uses
// ON CONFLICT(id) DO NOTHING for idempotency; other constraint violations
// still return errors.
func (s *Store) Record(ctx context.Context, session string, seq int64, rec compiler.ResolutionRecord) (string, error) {
	canonical := rec.ToIR()
	canonical["session"] = ir.IRString(session)

	id, err := ir.ResolutionID(canonical)
	if err != nil {
		return "", fmt.Errorf("record resolution: %w", err)
	}
	recordJSON, err := marshalRecord(canonical)
	if err != nil {
		return "", fmt.Errorf("record resolution: %w", err)
	}
	argsJSON, err := marshalArgs(rec.Args)
	if err != nil {
		return "", fmt.Errorf("record resolution: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("record resolution: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO resolutions
		(id, session, seq, call, function, winner, signature, return_type,
		 implicit_casts, empty_variadic, defaults_mask, args, error_code, error,
		 catalog_generation, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		session,
		seq,
		rec.Call,
		rec.Function,
		nullString(rec.Winner),
		nullString(rec.Signature),
		nullString(rec.ReturnType),
		boolToInt(rec.UsedImplicitCasts),
		boolToInt(rec.HasEmptyVariadic),
		nullString(hex.EncodeToString(rec.DefaultsMask)),
		argsJSON,
		nullString(string(rec.ErrorCode)),
		nullString(rec.Error),
		rec.CatalogGeneration,
		recordJSON,
	)
	if err != nil {
		return "", fmt.Errorf("record resolution: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return id, nil
	}

	for i, cand := range rec.Candidates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO candidates
			(resolution_id, ordinal, function, signature, matched, implicit_casts)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, cand.Function, cand.Signature, boolToInt(cand.Matched), boolToInt(cand.UsedImplicitCasts))
		if err != nil {
			return "", fmt.Errorf("record candidate %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("record resolution: commit: %w", err)
	}
	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
