package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lucid/internal/models"
)

// CreateEntryRequest is the request body for creating an entry.
// Pointer fields distinguish an absent field from an empty string.
type CreateEntryRequest struct {
	User      *string    `json:"user" example:"ann"`
	Title     *string    `json:"title" example:"Flying over the lake"`
	Content   *string    `json:"content" example:"I noticed my hands and took off."`
	Tags      []string   `json:"tags" example:"lucid,flight"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Validate checks that every required field is present.
func (r CreateEntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.User, validation.NotNil),
		validation.Field(&r.Title, validation.NotNil),
		validation.Field(&r.Content, validation.NotNil),
	)
}

func (r CreateEntryRequest) input() models.EntryInput {
	in := models.EntryInput{
		Tags:      r.Tags,
		CreatedAt: r.CreatedAt,
	}
	if r.User != nil {
		in.User = *r.User
	}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Content != nil {
		in.Content = *r.Content
	}
	return in
}

// Entry is the response payload for a single entry (aliased from the domain layer).
type Entry = models.Entry
