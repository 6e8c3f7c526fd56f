// Package entryservice implements the journal entry operations on top of a
// document store.
package entryservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lucid/internal/apperr"
	"github.com/starford/lucid/internal/models"
	"github.com/starford/lucid/internal/storage"
)

// DefaultLimit is the list size used when the caller does not pass one.
const DefaultLimit = 100

// DefaultMaxLimit bounds a single list call.
const DefaultMaxLimit = 1000

// CreateHook is invoked after an entry has been persisted.
type CreateHook func(ctx context.Context, entry models.Entry)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for default created_at values.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMaxLimit sets the upper bound applied to list limits. Zero disables clamping.
func WithMaxLimit(n int) Option {
	return func(s *Service) {
		s.maxLimit = n
	}
}

// WithCreateHook registers fn to run after every successful create.
func WithCreateHook(fn CreateHook) Option {
	return func(s *Service) {
		s.hooks = append(s.hooks, fn)
	}
}

// Service exposes create, list and get over a single entry collection.
// It holds no mutable state of its own.
type Service struct {
	store    storage.Provider
	now      func() time.Time
	maxLimit int
	hooks    []CreateHook
}

// NewService creates a new entry service.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      time.Now,
		maxLimit: DefaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEntry persists in as a new document and returns it as stored.
func (s *Service) CreateEntry(ctx context.Context, in models.EntryInput) (*models.Entry, error) {
	created := s.now().UTC()
	if in.CreatedAt != nil {
		created = *in.CreatedAt
	}

	id, err := s.store.Insert(ctx, storage.Document{
		storage.FieldUser:      in.User,
		storage.FieldTitle:     in.Title,
		storage.FieldContent:   in.Content,
		storage.FieldTags:      nonNilSlice(in.Tags),
		storage.FieldCreatedAt: created,
	})
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	rec, err := s.store.FindOne(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload entry %s: %w", id, err)
	}
	entry := ToEntry(*rec)

	for _, hook := range s.hooks {
		hook(ctx, entry)
	}
	return &entry, nil
}

// ListEntries returns at most limit entries, newest first, optionally
// restricted to a single user.
func (s *Service) ListEntries(ctx context.Context, limit int, user string) ([]models.Entry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative, got %d", apperr.ErrInvalidInput, limit)
	}
	// The store may read a zero limit as "unbounded".
	if limit == 0 {
		return []models.Entry{}, nil
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}

	recs, err := s.store.Find(ctx, storage.Query{User: user, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]models.Entry, len(recs))
	for i, rec := range recs {
		out[i] = ToEntry(rec)
	}
	return out, nil
}

// GetEntry looks up a single entry by its external identifier.
func (s *Service) GetEntry(ctx context.Context, rawID string) (*models.Entry, error) {
	id, err := s.store.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	entry := ToEntry(*rec)
	return &entry, nil
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
