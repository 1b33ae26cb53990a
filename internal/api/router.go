package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dagrev/xmap/internal/catalog"
	"github.com/dagrev/xmap/internal/mapservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *mapservice.Service, db catalog.ArchiveIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, db)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Archive catalog and codec.
	r.Get("/maps", h.ListMaps)
	r.Get("/maps/decode", h.GetMap)
	r.Post("/maps", h.CreateMap)

	// Catalog search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
