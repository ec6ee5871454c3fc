package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/hpungsan/intake/internal/errors"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertN(t *testing.T, db *sql.DB, persona string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		e := &EntryRow{
			ID:         fmt.Sprintf("%s-%02d", persona, i),
			Persona:    persona,
			Session:    "s1",
			FieldsJSON: fmt.Sprintf(`{"n":"%d"}`, i),
			CreatedAt:  int64(1000 + i),
		}
		if err := InsertEntry(context.Background(), db, e); err != nil {
			t.Fatalf("InsertEntry failed: %v", err)
		}
	}
}

func TestInsertAndList(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	insertN(t, db, "order", 3)
	insertN(t, db, "lead", 2)

	got, err := ListEntries(ctx, db, "order", 0)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, e := range got {
		if want := fmt.Sprintf("order-%02d", i); e.ID != want {
			t.Errorf("entry %d ID = %q, want %q", i, e.ID, want)
		}
		if e.Session != "s1" {
			t.Errorf("entry %d Session = %q, want s1", i, e.Session)
		}
	}

	all, err := ListEntries(ctx, db, "", 0)
	if err != nil {
		t.Fatalf("ListEntries(all) failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("len(all) = %d, want 5", len(all))
	}
}

func TestListEntries_LimitKeepsMostRecent(t *testing.T) {
	db := openTestDB(t)
	insertN(t, db, "order", 5)

	got, err := ListEntries(context.Background(), db, "order", 2)
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "order-03" || got[1].ID != "order-04" {
		t.Errorf("got %+v, want order-03, order-04", got)
	}
}

func TestInsertEntry_DuplicateID(t *testing.T) {
	db := openTestDB(t)
	insertN(t, db, "order", 1)

	err := InsertEntry(context.Background(), db, &EntryRow{
		ID: "order-00", Persona: "order", FieldsJSON: "{}", CreatedAt: 1,
	})
	if err != ErrUniqueConstraint {
		t.Errorf("err = %v, want ErrUniqueConstraint", err)
	}
}

func TestInsertEntry_EmptySessionIsNull(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := InsertEntry(ctx, db, &EntryRow{ID: "x", Persona: "lead", FieldsJSON: "{}", CreatedAt: 1}); err != nil {
		t.Fatalf("InsertEntry failed: %v", err)
	}
	var session sql.NullString
	if err := db.QueryRow("SELECT session FROM entries WHERE id = 'x'").Scan(&session); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if session.Valid {
		t.Errorf("session = %q, want NULL", session.String)
	}
}

func TestLatestEntry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := LatestEntry(ctx, db, "wellness")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}

	insertN(t, db, "wellness", 3)
	e, err := LatestEntry(ctx, db, "wellness")
	if err != nil {
		t.Fatalf("LatestEntry failed: %v", err)
	}
	if e.ID != "wellness-02" || e.FieldsJSON != `{"n":"2"}` {
		t.Errorf("latest = %+v", e)
	}
}

func TestCountEntries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	insertN(t, db, "order", 2)
	insertN(t, db, "lead", 1)

	for persona, want := range map[string]int{"order": 2, "lead": 1, "wellness": 0, "": 3} {
		n, err := CountEntries(ctx, db, persona)
		if err != nil {
			t.Fatalf("CountEntries(%q) failed: %v", persona, err)
		}
		if n != want {
			t.Errorf("CountEntries(%q) = %d, want %d", persona, n, want)
		}
	}
}
