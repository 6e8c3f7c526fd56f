// Package models defines the domain types for lucid.
package models

import "time"

// Entry is the external representation of a journal entry.
type Entry struct {
	ID        string     `json:"id"`
	User      string     `json:"user"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt *time.Time `json:"created_at"`
}

// EntryInput carries the caller-supplied fields of a new entry.
// A nil CreatedAt means "now".
type EntryInput struct {
	User      string     `json:"user"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
