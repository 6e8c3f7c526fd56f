package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lucid/internal/entryservice"
)

// NewRouter creates a chi router with all entry routes mounted.
// defaultLimit is used by GET /entries when the query omits limit.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *entryservice.Service, defaultLimit int, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, defaultLimit)

	r := chi.NewRouter()

	r.Post("/entries", h.CreateEntry)
	r.Get("/entries", h.ListEntries)
	r.Get("/entries/{id}", h.GetEntry)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
