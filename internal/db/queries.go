package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/intake/internal/errors"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.IntakeError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// EntryRow is one persisted journal entry. FieldsJSON holds the record
// values as a JSON object; CreatedAt is Unix nanoseconds.
type EntryRow struct {
	ID         string
	Persona    string
	Session    string
	FieldsJSON string
	CreatedAt  int64
}

// InsertEntry appends an entry. Rows are never updated.
func InsertEntry(ctx context.Context, db *sql.DB, e *EntryRow) error {
	query := `
		INSERT INTO entries (id, persona, session, fields_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		e.ID, e.Persona, toNullString(e.Session), e.FieldsJSON, e.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ListEntries returns entries in append order. An empty persona matches all
// personas. limit > 0 keeps only the most recent limit entries.
func ListEntries(ctx context.Context, db *sql.DB, persona string, limit int) ([]EntryRow, error) {
	where := ""
	args := []any{}
	if persona != "" {
		where = "WHERE persona = ?"
		args = append(args, persona)
	}
	lim := -1
	if limit > 0 {
		lim = limit
	}
	args = append(args, lim)

	query := `
		SELECT id, persona, session, fields_json, created_at FROM (
			SELECT seq, id, persona, session, fields_json, created_at
			FROM entries ` + where + `
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// LatestEntry returns the most recent entry for persona.
func LatestEntry(ctx context.Context, db *sql.DB, persona string) (*EntryRow, error) {
	query := `
		SELECT id, persona, session, fields_json, created_at
		FROM entries
		WHERE persona = ?
		ORDER BY seq DESC
		LIMIT 1
	`
	e, err := scanEntry(db.QueryRowContext(ctx, query, persona))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("entry", persona)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// CountEntries returns the number of entries for persona, or all entries
// when persona is empty.
func CountEntries(ctx context.Context, db *sql.DB, persona string) (int, error) {
	query := "SELECT COUNT(*) FROM entries"
	args := []any{}
	if persona != "" {
		query += " WHERE persona = ?"
		args = append(args, persona)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*EntryRow, error) {
	var (
		e       EntryRow
		session sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Persona, &session, &e.FieldsJSON, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Session = session.String
	return &e, nil
}

// toNullString maps "" to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
