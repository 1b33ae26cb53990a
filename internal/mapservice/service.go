// Package mapservice implements the operation surface shared by the MCP
// and HTTP layers: decoding, querying, and building mind-map archives.
package mapservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/builder"
	"github.com/dagrev/xmap/internal/catalog"
	"github.com/dagrev/xmap/internal/models"
	"github.com/dagrev/xmap/internal/parser"
	"github.com/dagrev/xmap/internal/query"
	"github.com/dagrev/xmap/internal/storage"
)

// Service coordinates storage, codec, transforms, and catalog upkeep.
// The catalog index is optional; a nil index disables catalog updates.
type Service struct {
	store storage.Provider
	db    catalog.ArchiveIndex
}

// NewService creates a new map service.
func NewService(store storage.Provider, db catalog.ArchiveIndex) *Service {
	return &Service{store: store, db: db}
}

// MapResult is one item of a batch read: either a decoded forest or the
// error that kept this one path from decoding. One bad path never fails
// the batch.
type MapResult struct {
	Path   string          `json:"path"`
	Sheets []*models.Topic `json:"sheets,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ReadMap decodes the archive at path into one normalized tree per sheet.
func (s *Service) ReadMap(_ context.Context, path string) ([]*models.Topic, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("map %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	sheets, err := archive.Decode(data)
	if err != nil {
		return nil, err
	}
	return parser.Forest(sheets)
}

// ReadMany decodes several archives, collecting a per-path result or
// error record.
func (s *Service) ReadMany(ctx context.Context, paths []string) []MapResult {
	out := make([]MapResult, 0, len(paths))
	for _, p := range paths {
		forest, err := s.ReadMap(ctx, p)
		if err != nil {
			out = append(out, MapResult{Path: p, Error: err.Error()})
			continue
		}
		out = append(out, MapResult{Path: p, Sheets: forest})
	}
	return out
}

// ListMaps returns archive paths under dir, or under all allowed roots
// when dir is empty.
func (s *Service) ListMaps(_ context.Context, dir string) ([]string, error) {
	return s.store.ListArchives(dir)
}

// FindFiles searches archive names and contents for pattern.
func (s *Service) FindFiles(_ context.Context, pattern string) ([]string, error) {
	return s.store.FindFiles(pattern)
}

// ExtractNode resolves a "Root > Child > Grandchild" path inside the
// archive at path. Segments match case-insensitively; the first segment
// selects the sheet root.
func (s *Service) ExtractNode(ctx context.Context, path, nodePath string) (*models.Topic, error) {
	segments := splitNodePath(nodePath)
	if len(segments) == 0 {
		return nil, fmt.Errorf("node path is empty: %w", apperr.ErrValidation)
	}
	forest, err := s.ReadMap(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, root := range forest {
		if strings.EqualFold(root.Title, segments[0]) {
			return query.FindByPath(root, segments)
		}
	}
	return nil, fmt.Errorf("no sheet root titled %q: %w", segments[0], apperr.ErrNotFound)
}

// ExtractNodeByID finds a topic by exact id anywhere in the archive.
// A missing id is reported as found=false, not as an error.
func (s *Service) ExtractNodeByID(ctx context.Context, path, id string) (*models.Topic, bool, error) {
	forest, err := s.ReadMap(ctx, path)
	if err != nil {
		return nil, false, err
	}
	node := query.FindByID(forest, id)
	return node, node != nil, nil
}

// SearchFuzzy ranks the archive's nodes against a free-text query.
func (s *Service) SearchFuzzy(ctx context.Context, path, q string, limit int) ([]query.PathMatch, error) {
	forest, err := s.ReadMap(ctx, path)
	if err != nil {
		return nil, err
	}
	return query.FuzzySearch(forest, q, query.DefaultThreshold, limit), nil
}

// SearchFields runs the multi-field search over the archive's nodes.
func (s *Service) SearchFields(ctx context.Context, path, q string, opts query.SearchOptions) ([]query.FieldMatch, error) {
	forest, err := s.ReadMap(ctx, path)
	if err != nil {
		return nil, err
	}
	return query.Search(forest, q, opts), nil
}

// CreateMap validates the descriptions, builds and encodes the archive,
// and writes it to path. The file is written only after every reference
// resolved; an existing file without overwrite is left untouched.
// Returns the resolved absolute path.
func (s *Service) CreateMap(_ context.Context, path string, sheets []models.SheetDescription, overwrite bool) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), archive.FileExtension) {
		return "", fmt.Errorf("output path must end with %s: %w", archive.FileExtension, apperr.ErrValidation)
	}
	if len(sheets) == 0 {
		return "", fmt.Errorf("at least one sheet is required: %w", apperr.ErrValidation)
	}
	for i := range sheets {
		if err := sheets[i].Validate(); err != nil {
			return "", fmt.Errorf("sheet %q: %v: %w", sheets[i].Title, err, apperr.ErrValidation)
		}
	}

	exists, err := s.store.Exists(path)
	if err != nil {
		return "", err
	}
	if exists && !overwrite {
		return "", fmt.Errorf("map %s: %w", path, apperr.ErrAlreadyExists)
	}

	built, err := builder.Build(sheets)
	if err != nil {
		return "", err
	}
	data, err := archive.Encode(built)
	if err != nil {
		return "", err
	}
	if err := s.store.Write(path, data); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if s.db != nil {
		if err := catalog.IndexArchive(s.db, abs, data); err != nil {
			// The archive is on disk; a catalog failure is not fatal.
			return abs, nil
		}
	}
	return abs, nil
}

// splitNodePath splits "A > B > C" into trimmed segments.
func splitNodePath(p string) []string {
	parts := strings.Split(p, ">")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
