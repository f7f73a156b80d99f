package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Get("/documents/{id}", h.GetDocument)
	r.Put("/documents/{id}/content", h.UpdateContent)

	// Linking pipeline.
	r.Get("/documents/{id}/quota", h.Quota)
	r.Get("/documents/{id}/candidates", h.Candidates)
	r.Post("/documents/{id}/insertions", h.ApplyInsertions)
	r.Delete("/documents/{id}/internal-links", h.RemoveInternalLinks)
	r.Post("/documents/{id}/ledger/rebuild", h.RebuildLedger)
	r.Get("/needing-links", h.NeedingLinks)
	r.Post("/validate-urls", h.ValidateURLs)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
