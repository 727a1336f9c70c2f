package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(h *Handler, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Sessions.
	r.Post("/sessions", h.CreateSession)
	r.Get("/sessions/{id}", h.GetSession)

	// Ingestion and querying.
	r.Post("/sessions/{id}/documents", h.UploadDocument)
	r.Post("/sessions/{id}/query", h.Query)

	// Archived chunk search.
	r.Get("/sessions/{id}/chunks", h.SearchChunks)

	// Event stream (protected by same auth middleware).
	r.Get("/sessions/{id}/ws", h.ServeWS)

	return r
}
