package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/catalog"
	"github.com/dagrev/xmap/internal/mapservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *mapservice.Service
	db  catalog.ArchiveIndex
}

// NewHandler creates a new Handler.
func NewHandler(svc *mapservice.Service, db catalog.ArchiveIndex) *Handler {
	return &Handler{svc: svc, db: db}
}

// ListMaps handles GET /maps: paginated catalog listing.
func (h *Handler) ListMaps(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.db.ListArchives(limit, offset)
	if err != nil {
		slog.Error("list maps failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	items := make([]MapListItem, len(rows))
	for i, row := range rows {
		items[i] = MapListItem{
			Path:        row.Path,
			Checksum:    row.Checksum,
			SheetCount:  row.SheetCount,
			SheetTitles: row.SheetTitles,
			UpdatedAt:   row.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, MapListResponse{Maps: items, Total: total})
}

// GetMap handles GET /maps/decode?path=...: decode one archive.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	forest, err := h.svc.ReadMap(r.Context(), path)
	if err != nil {
		writeServiceError(w, path, err)
		return
	}
	writeJSON(w, http.StatusOK, MapResponse{Path: path, Sheets: forest})
}

// CreateMap handles POST /maps: build and write an archive.
func (h *Handler) CreateMap(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || len(req.Sheets) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("path and sheets are required"))
		return
	}
	resolved, err := h.svc.CreateMap(r.Context(), req.Path, req.Sheets, req.Overwrite)
	if err != nil {
		writeServiceError(w, req.Path, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateMapResponse{Path: resolved})
}

// Search handles GET /search: catalog full-text search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.db.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	results := make([]SearchResult, len(rows))
	for i, row := range rows {
		results[i] = SearchResult{Path: row.Path, Title: row.Title, Snippet: row.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrFormat),
		errors.Is(err, apperr.ErrReference):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
