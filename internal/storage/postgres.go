package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starford/lucid/internal/apperr"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id         UUID PRIMARY KEY,
	owner      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ,
	doc        JSONB NOT NULL DEFAULT '{}'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_entries_created ON entries (created_at DESC NULLS LAST);
CREATE INDEX IF NOT EXISTS idx_entries_owner_created ON entries (owner, created_at DESC NULLS LAST);
`

// pgxPool is the subset of *pgxpool.Pool used by Postgres.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Postgres keeps entry documents in a JSONB column.
type Postgres struct {
	pool pgxPool
}

var _ Provider = (*Postgres)(nil)

// OpenPostgres connects a pool to dsn and applies the schema.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: apply postgres schema: %w", err)
	}
	return NewPostgres(pool), nil
}

// NewPostgres wraps an already connected pool.
func NewPostgres(pool pgxPool) *Postgres {
	return &Postgres{pool: pool}
}

// ParseID decodes a UUID identifier.
func (s *Postgres) ParseID(id string) (ID, error) {
	return parseUUIDID(id)
}

// Insert stores doc under a freshly generated UUID.
func (s *Postgres) Insert(ctx context.Context, doc Document) (ID, error) {
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}
	var created any
	if t, ok := createdAt(doc); ok {
		created = t
	}

	id := newUUIDID()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO entries (id, owner, created_at, doc) VALUES ($1, $2, $3, $4)`,
		id.String(), owner(doc), created, data)
	if err != nil {
		return nil, fmt.Errorf("storage: insert entry: %w", err)
	}
	return id, nil
}

// FindOne returns the document stored under id.
func (s *Postgres) FindOne(ctx context.Context, id ID) (*Record, error) {
	uid, err := asUUIDID(id)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT doc FROM entries WHERE id = $1`, uid.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: find entry: %w", err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return &Record{ID: uid, Fields: doc}, nil
}

// Find lists documents newest first. Rows without created_at sort last.
func (s *Postgres) Find(ctx context.Context, q Query) ([]Record, error) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT id::text, doc FROM entries`)
	if q.User != "" {
		args = append(args, q.User)
		fmt.Fprintf(&sb, ` WHERE owner = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC NULLS LAST`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list entries: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			rawID string
			data  []byte
		)
		if err := rows.Scan(&rawID, &data); err != nil {
			return nil, fmt.Errorf("storage: scan entry: %w", err)
		}
		id, err := parseUUIDID(rawID)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Fields: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate entries: %w", err)
	}
	return out, nil
}

// Ping checks the pool connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Postgres) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}
