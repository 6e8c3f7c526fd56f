// Package api implements the lucid REST API using chi.
package api

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware allows the journal web client at origins to call the API.
// An empty origins list disables CORS handling entirely.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept"},
		MaxAge:         300,
	})
	return c.Handler
}
