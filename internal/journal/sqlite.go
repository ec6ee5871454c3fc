package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/db"
	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/record"
)

// SQLite appends entries as rows of the entries table. Rows are never
// rewritten, so concurrent appends need no extra locking.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite wraps an initialized database. Close closes it.
func NewSQLite(database *sql.DB, logger *zap.Logger) *SQLite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLite{db: database, logger: logger.With(zap.String("component", "journal.sqlite"))}
}

// Append implements Journal.
func (s *SQLite) Append(ctx context.Context, e Entry) error {
	fields := e.Fields
	if fields == nil {
		fields = map[string]record.Value{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return errors.NewInternal(err)
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	row := &db.EntryRow{
		ID:         e.ID,
		Persona:    e.Persona,
		Session:    e.Session,
		FieldsJSON: string(data),
		CreatedAt:  ts.UnixNano(),
	}
	if err := db.InsertEntry(ctx, s.db, row); err != nil {
		if errors.Is(err, errors.ErrInternal) {
			return errors.NewPersistence("sqlite", err)
		}
		return err
	}
	s.logger.Debug("appended entry", zap.String("persona", e.Persona), zap.String("id", e.ID))
	return nil
}

// List implements Journal.
func (s *SQLite) List(ctx context.Context, persona string, limit int) ([]Entry, error) {
	rows, err := db.ListEntries(ctx, s.db, persona, limit)
	if err != nil {
		return nil, errors.NewPersistence("sqlite", err)
	}
	out := make([]Entry, 0, len(rows))
	for i := range rows {
		e, err := rowToEntry(&rows[i])
		if err != nil {
			s.logger.Warn("skipping undecodable entry", zap.String("id", rows[i].ID), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Latest implements Journal.
func (s *SQLite) Latest(ctx context.Context, persona string) (Entry, error) {
	row, err := db.LatestEntry(ctx, s.db, persona)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return Entry{}, err
		}
		return Entry{}, errors.NewPersistence("sqlite", err)
	}
	e, err := rowToEntry(row)
	if err != nil {
		return Entry{}, errors.NewPersistence("sqlite", err)
	}
	return e, nil
}

// Count returns the number of stored entries for persona ("" for all).
func (s *SQLite) Count(ctx context.Context, persona string) (int, error) {
	return db.CountEntries(ctx, s.db, persona)
}

// Close implements Journal.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func rowToEntry(r *db.EntryRow) (Entry, error) {
	var fields map[string]record.Value
	if err := json.Unmarshal([]byte(r.FieldsJSON), &fields); err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:        r.ID,
		Persona:   r.Persona,
		Session:   r.Session,
		Timestamp: time.Unix(0, r.CreatedAt).UTC(),
		Fields:    fields,
	}, nil
}
