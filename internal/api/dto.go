package api

import (
	"time"

	"github.com/dagrev/xmap/internal/models"
)

// CreateMapRequest is the request body for building a new archive.
type CreateMapRequest struct {
	Path      string                    `json:"path"`
	Sheets    []models.SheetDescription `json:"sheets"`
	Overwrite bool                      `json:"overwrite,omitempty"`
}

// CreateMapResponse is returned after a successful build.
type CreateMapResponse struct {
	Path string `json:"path"`
}

// MapListItem is a lightweight catalog entry in a list response.
type MapListItem struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	SheetCount  int       `json:"sheetCount"`
	SheetTitles []string  `json:"sheetTitles"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MapListResponse wraps paginated catalog listings.
type MapListResponse struct {
	Maps  []MapListItem `json:"maps"`
	Total int           `json:"total"`
}

// SearchResult is a single catalog search hit in the API response.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps catalog search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// MapResponse wraps a decoded archive.
type MapResponse struct {
	Path   string          `json:"path"`
	Sheets []*models.Topic `json:"sheets"`
}
