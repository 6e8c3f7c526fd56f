package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/lucid/internal/apperr"
)

const sqliteSchemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL DEFAULT '',
	created_at TEXT,
	doc        TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_entries_owner_created ON entries(owner, created_at DESC);
`

// sqliteSortLayout is a fixed-width UTC layout, so text order is time order
// across the whole RFC 3339 year range.
const sqliteSortLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite keeps entry documents as JSON text in a local SQLite database.
// owner and created_at are denormalized into columns for filtering and sorting.
type SQLite struct {
	conn *sql.DB
}

var _ Provider = (*SQLite)(nil)

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping sqlite: %w", err)
	}
	if _, err := conn.Exec(sqliteSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply sqlite schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// ParseID decodes a UUID identifier.
func (s *SQLite) ParseID(id string) (ID, error) {
	return parseUUIDID(id)
}

// Insert stores doc under a freshly generated UUID.
func (s *SQLite) Insert(ctx context.Context, doc Document) (ID, error) {
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}
	var created sql.NullString
	if t, ok := createdAt(doc); ok {
		created = sql.NullString{String: t.UTC().Format(sqliteSortLayout), Valid: true}
	}

	id := newUUIDID()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO entries (id, owner, created_at, doc) VALUES (?, ?, ?, ?)`,
		id.String(), owner(doc), created, string(data))
	if err != nil {
		return nil, fmt.Errorf("storage: insert entry: %w", err)
	}
	return id, nil
}

// FindOne returns the document stored under id.
func (s *SQLite) FindOne(ctx context.Context, id ID) (*Record, error) {
	uid, err := asUUIDID(id)
	if err != nil {
		return nil, err
	}
	var data string
	err = s.conn.QueryRowContext(ctx, `SELECT doc FROM entries WHERE id = ?`, uid.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: find entry: %w", err)
	}
	doc, err := decodeDocument([]byte(data))
	if err != nil {
		return nil, err
	}
	return &Record{ID: uid, Fields: doc}, nil
}

// Find lists documents newest first. Rows without created_at sort last.
func (s *SQLite) Find(ctx context.Context, q Query) ([]Record, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id, doc FROM entries`)
	if q.User != "" {
		sb.WriteString(` WHERE owner = ?`)
		args = append(args, q.User)
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list entries: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var rawID, data string
		if err := rows.Scan(&rawID, &data); err != nil {
			return nil, fmt.Errorf("storage: scan entry: %w", err)
		}
		id, err := parseUUIDID(rawID)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument([]byte(data))
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Fields: doc})
	}
	return out, rows.Err()
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLite) Close(_ context.Context) error {
	return s.conn.Close()
}
