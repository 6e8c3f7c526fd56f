package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lucid/internal/apperr"
	"github.com/starford/lucid/internal/entryservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc          *entryservice.Service
	defaultLimit int
}

// NewHandler creates a new Handler.
func NewHandler(svc *entryservice.Service, defaultLimit int) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = entryservice.DefaultLimit
	}
	return &Handler{svc: svc, defaultLimit: defaultLimit}
}

// CreateEntry handles POST /entries.
//
//	@Summary		Create a journal entry
//	@Tags			entries
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEntryRequest	true	"Entry to create"
//	@Success		200		{object}	Entry
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Router			/entries [post]
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateEntryRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	entry, err := h.svc.CreateEntry(r.Context(), req.input())
	if err != nil {
		slog.Error("create entry failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ListEntries handles GET /entries.
//
//	@Summary		List entries, newest first
//	@Tags			entries
//	@Produce		json
//	@Param			limit	query		int		false	"Maximum number of entries"	default(100)
//	@Param			user	query		string	false	"Only entries of this user"
//	@Success		200		{array}		Entry
//	@Failure		400		{object}	errResponse
//	@Router			/entries [get]
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := h.defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
			return
		}
		limit = n
	}
	user := q.Get("user")

	entries, err := h.svc.ListEntries(r.Context(), limit, user)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidInput) {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be non-negative"))
			return
		}
		slog.Error("list entries failed", slog.String("user", user), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetEntry handles GET /entries/{id}.
//
//	@Summary		Get a single entry by id
//	@Tags			entries
//	@Produce		json
//	@Param			id	path		string	true	"Entry id"
//	@Success		200	{object}	Entry
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/entries/{id} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := h.svc.GetEntry(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInvalidID):
			writeJSON(w, http.StatusBadRequest, errorBody("Bad entry id"))
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("Entry not found"))
		default:
			slog.Error("get entry failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
