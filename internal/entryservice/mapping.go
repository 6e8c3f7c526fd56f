package entryservice

import (
	"github.com/spf13/cast"

	"github.com/starford/lucid/internal/models"
	"github.com/starford/lucid/internal/storage"
)

// ToEntry maps a stored record to its external representation.
// Missing or mistyped fields fall back to their zero value; it never fails.
func ToEntry(rec storage.Record) models.Entry {
	e := models.Entry{
		User:    stringField(rec.Fields, storage.FieldUser),
		Title:   stringField(rec.Fields, storage.FieldTitle),
		Content: stringField(rec.Fields, storage.FieldContent),
		Tags:    []string{},
	}
	if rec.ID != nil {
		e.ID = rec.ID.String()
	}
	if v := rec.Fields[storage.FieldTags]; v != nil {
		if tags, err := cast.ToStringSliceE(v); err == nil && tags != nil {
			e.Tags = tags
		}
	}
	if v := rec.Fields[storage.FieldCreatedAt]; v != nil {
		if t, err := cast.ToTimeE(v); err == nil {
			e.CreatedAt = &t
		}
	}
	return e
}

func stringField(doc storage.Document, key string) string {
	v := doc[key]
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}
