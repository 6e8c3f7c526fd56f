// Package storage defines the entry document store abstraction and its backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Well-known document fields.
const (
	FieldUser      = "user"
	FieldTitle     = "title"
	FieldContent   = "content"
	FieldTags      = "tags"
	FieldCreatedAt = "created_at"
)

// ID is a store-assigned document identifier. Each backend has its own
// native form; String returns the external encoding.
type ID interface {
	String() string
}

// Document is a loosely-typed stored record. Fields may be missing or
// carry unexpected types for legacy or externally inserted data.
type Document map[string]any

// Record is a document together with its identifier.
type Record struct {
	ID     ID
	Fields Document
}

// Query selects documents for listing. An empty User matches every owner.
// Limit <= 0 means no limit.
type Query struct {
	User  string
	Limit int
}

// Provider is the interface for entry document persistence.
type Provider interface {
	// ParseID decodes an external identifier. Malformed input yields an
	// error wrapping apperr.ErrInvalidID.
	ParseID(s string) (ID, error)
	// Insert stores doc as a new document and returns the assigned identifier.
	Insert(ctx context.Context, doc Document) (ID, error)
	// FindOne returns the document with the given id or apperr.ErrNotFound.
	FindOne(ctx context.Context, id ID) (*Record, error)
	// Find returns documents matching q ordered by created_at, newest first.
	Find(ctx context.Context, q Query) ([]Record, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// encodeDocument serializes doc for backends that keep documents as JSON.
func encodeDocument(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("storage: encode document: %w", err)
	}
	return data, nil
}

// decodeDocument parses a JSON document and restores created_at to a time
// when it holds an RFC 3339 string.
func decodeDocument(data []byte) (Document, error) {
	doc := Document{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage: decode document: %w", err)
	}
	if s, ok := doc[FieldCreatedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			doc[FieldCreatedAt] = t
		}
	}
	return doc, nil
}

// createdAt extracts the sort key of doc, if it has one.
func createdAt(doc Document) (time.Time, bool) {
	switch v := doc[FieldCreatedAt].(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	}
	return time.Time{}, false
}

// owner extracts the user filter key of doc.
func owner(doc Document) string {
	s, _ := doc[FieldUser].(string)
	return s
}
