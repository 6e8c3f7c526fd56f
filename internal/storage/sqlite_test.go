package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/lucid/internal/apperr"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "lucid-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestSQLiteSchemaCreation(t *testing.T) {
	s := testSQLite(t)
	var count int
	if err := s.conn.QueryRow(`SELECT count(*) FROM entries`).Scan(&count); err != nil {
		t.Fatalf("entries table missing: %v", err)
	}
}

func TestSQLiteInsertAndFindOne(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC)

	id, err := s.Insert(ctx, Document{
		FieldUser:      "ann",
		FieldTitle:     "Flying",
		FieldContent:   "over the lake",
		FieldTags:      []string{"lucid", "water"},
		FieldCreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id.String() == "" {
		t.Fatal("empty id")
	}

	rec, err := s.FindOne(ctx, id)
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if rec.ID.String() != id.String() {
		t.Errorf("id = %q, want %q", rec.ID, id)
	}
	if rec.Fields[FieldUser] != "ann" {
		t.Errorf("user = %v", rec.Fields[FieldUser])
	}
	got, ok := rec.Fields[FieldCreatedAt].(time.Time)
	if !ok || !got.Equal(created) {
		t.Errorf("created_at = %v, want %v", rec.Fields[FieldCreatedAt], created)
	}
	tags, ok := rec.Fields[FieldTags].([]any)
	if !ok || len(tags) != 2 || tags[0] != "lucid" {
		t.Errorf("tags = %#v", rec.Fields[FieldTags])
	}
}

func TestSQLiteFindOneMissing(t *testing.T) {
	s := testSQLite(t)
	id, err := s.ParseID("6f1c1f8e-0b5a-4c3e-9a43-1f0f3f4f5a6b")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if _, err := s.FindOne(context.Background(), id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteParseIDInvalid(t *testing.T) {
	s := testSQLite(t)
	if _, err := s.ParseID("not-an-id"); !errors.Is(err, apperr.ErrInvalidID) {
		t.Errorf("err = %v, want ErrInvalidID", err)
	}
}

func TestSQLiteParseIDNormalizes(t *testing.T) {
	s := testSQLite(t)
	id, err := s.ParseID("6F1C1F8E-0B5A-4C3E-9A43-1F0F3F4F5A6B")
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if id.String() != "6f1c1f8e-0b5a-4c3e-9a43-1f0f3f4f5a6b" {
		t.Errorf("id = %q", id)
	}
}

func TestSQLiteFindOrderFilterLimit(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, u := range []string{"ann", "bob", "ann", "ann"} {
		_, err := s.Insert(ctx, Document{
			FieldUser:      u,
			FieldTitle:     u,
			FieldCreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	// Legacy document without created_at sorts last.
	if _, err := s.Insert(ctx, Document{FieldUser: "ann"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	all, err := s.Find(ctx, Query{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	if _, ok := all[4].Fields[FieldCreatedAt]; ok {
		t.Errorf("record without created_at should be last, got %#v", all[4].Fields)
	}

	ann, err := s.Find(ctx, Query{User: "ann", Limit: 2})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(ann) != 2 {
		t.Fatalf("len = %d, want 2", len(ann))
	}
	first := ann[0].Fields[FieldCreatedAt].(time.Time)
	second := ann[1].Fields[FieldCreatedAt].(time.Time)
	if !first.Equal(base.Add(3*time.Hour)) || !second.Equal(base.Add(2*time.Hour)) {
		t.Errorf("order = %v, %v", first, second)
	}
}

func TestSQLiteFindEmpty(t *testing.T) {
	s := testSQLite(t)
	recs, err := s.Find(context.Background(), Query{User: "nobody", Limit: 10})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Errorf("recs = %#v, want empty non-nil", recs)
	}
}

func TestSQLiteFindOrderOutsideUnixNanoRange(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	dates := []time.Time{
		time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2300, 1, 1, 0, 0, 0, 1, time.FixedZone("CET", 3600)),
	}
	for _, d := range dates {
		if _, err := s.Insert(ctx, Document{FieldUser: "u", FieldCreatedAt: d}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	recs, err := s.Find(ctx, Query{User: "u", Limit: 10})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(recs) != len(dates) {
		t.Fatalf("len = %d, want %d", len(recs), len(dates))
	}
	want := []time.Time{dates[2], dates[3], dates[1], dates[0]}
	for i, rec := range recs {
		got, ok := rec.Fields[FieldCreatedAt].(time.Time)
		if !ok || !got.Equal(want[i]) {
			t.Errorf("recs[%d].created_at = %v, want %v", i, rec.Fields[FieldCreatedAt], want[i])
		}
	}
}
