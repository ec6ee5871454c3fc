// Package journal persists finalized records as an append-only collection.
package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/intake/internal/config"
	"github.com/hpungsan/intake/internal/db"
	"github.com/hpungsan/intake/internal/record"
)

// Journal is an append-only store of entries, safe for concurrent use.
type Journal interface {
	// Append persists e at the end of its persona's collection.
	Append(ctx context.Context, e Entry) error

	// List returns entries in append order. An empty persona lists every
	// persona. limit > 0 keeps only the most recent limit entries.
	List(ctx context.Context, persona string, limit int) ([]Entry, error)

	// Latest returns the most recent entry for persona, or a NOT_FOUND error.
	Latest(ctx context.Context, persona string) (Entry, error)

	Close() error
}

// Entry is one persisted record.
type Entry struct {
	ID        string
	Persona   string
	Session   string
	Timestamp time.Time
	Fields    map[string]record.Value

	// Label names one-file-per-record files. It is not persisted.
	Label string
}

// NewEntry stamps fields with a fresh ULID and the given time.
func NewEntry(persona, session string, fields map[string]record.Value, now time.Time) Entry {
	return Entry{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Persona:   persona,
		Session:   session,
		Timestamp: now.UTC(),
		Fields:    fields,
	}
}

var reservedKeys = map[string]bool{"id": true, "persona": true, "session": true, "timestamp": true}

// MarshalJSON encodes the entry as one flat object: the field values plus
// id, persona, session and timestamp (RFC 3339). A field named like one of
// those keys is shadowed.
func (e Entry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		m[k] = v
	}
	if e.ID != "" {
		m["id"] = e.ID
	}
	if e.Persona != "" {
		m["persona"] = e.Persona
	}
	if e.Session != "" {
		m["session"] = e.Session
	}
	if !e.Timestamp.IsZero() {
		m["timestamp"] = e.Timestamp.Format(time.RFC3339Nano)
	}
	return json.Marshal(m)
}

// localISO is the timestamp layout of entries written without a zone.
const localISO = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts the flat form. Null fields are dropped and scalar
// numbers or booleans are kept as their JSON text.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Entry{Fields: make(map[string]record.Value, len(raw))}
	for k, v := range raw {
		if reservedKeys[k] {
			continue
		}
		v = bytes.TrimSpace(v)
		switch {
		case bytes.Equal(v, []byte("null")):
			continue
		case len(v) > 0 && (v[0] == '"' || v[0] == '['):
			var val record.Value
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
			out.Fields[k] = val
		default:
			out.Fields[k] = record.TextValue(string(v))
		}
	}

	for key, dst := range map[string]*string{"id": &out.ID, "persona": &out.Persona, "session": &out.Session} {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	if v, ok := raw["timestamp"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				out.Timestamp = ts
			} else if ts, err := time.Parse(localISO, s); err == nil {
				out.Timestamp = ts
			}
		}
	}

	*e = out
	return nil
}

// sortEntries orders entries by timestamp, then ID, keeping input order for ties.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].ID < entries[j].ID
	})
}

// tail keeps the last limit entries when limit > 0.
func tail(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}

// Open selects and opens the configured backend.
func Open(ctx context.Context, cfg *config.Config, baseDir string, logger *zap.Logger) (Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.JournalBackend {
	case "", config.BackendFile:
		return NewFile(cfg.ResolveJournalDir(baseDir), cfg.PerRecordPersonas, logger)
	case config.BackendSQLite:
		database, err := db.Init(baseDir)
		if err != nil {
			return nil, err
		}
		db.ConfigurePool(database, cfg)
		return NewSQLite(database, logger), nil
	case config.BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.JournalBackend)
	}
}
