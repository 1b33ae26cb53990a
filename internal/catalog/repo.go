package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/checksum"
	"github.com/dagrev/xmap/internal/models"
	"github.com/dagrev/xmap/internal/parser"
)

// ArchiveRow represents a row in the archives table.
type ArchiveRow struct {
	Path        string
	Checksum    string
	SheetCount  int
	SheetTitles []string
	UpdatedAt   time.Time
}

// SearchResult represents one catalog search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertArchive inserts or replaces an archive row and its FTS entry.
// topics is the flattened text of all topic titles, kept for search.
func (db *DB) UpsertArchive(row ArchiveRow, topics string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	titlesJSON, _ := json.Marshal(row.SheetTitles)

	_, err = tx.Exec(`
		INSERT INTO archives (path, checksum, sheet_count, titles, topics, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum    = excluded.checksum,
			sheet_count = excluded.sheet_count,
			titles      = excluded.titles,
			topics      = excluded.topics,
			updated_at  = excluded.updated_at
	`, row.Path, row.Checksum, row.SheetCount, string(titlesJSON), topics, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert archive: %w", err)
	}

	if err := ftsUpsert(tx, row.Path, strings.Join(row.SheetTitles, " "), topics); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteArchive removes an archive row and its FTS entry.
func (db *DB) DeleteArchive(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM archives WHERE path = ?`, path)

	return tx.Commit()
}

// AllChecksums returns path → checksum for every cataloged archive.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM archives`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListArchives returns paginated archive rows, newest first.
func (db *DB) ListArchives(limit, offset int) ([]ArchiveRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM archives`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT path, checksum, sheet_count, titles, updated_at
		FROM archives
		ORDER BY updated_at DESC, path
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []ArchiveRow
	for rows.Next() {
		var r ArchiveRow
		var titlesJSON string
		if err := rows.Scan(&r.Path, &r.Checksum, &r.SheetCount, &titlesJSON, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(titlesJSON), &r.SheetTitles)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// IndexArchive decodes raw archive bytes and upserts a catalog row for
// them. Exported so sync, watcher, and the map service can reuse it.
func IndexArchive(db ArchiveIndex, path string, data []byte) error {
	sheets, err := archive.Decode(data)
	if err != nil {
		return err
	}
	forest, err := parser.Forest(sheets)
	if err != nil {
		return err
	}

	titles := make([]string, 0, len(forest))
	var topics []string
	for _, root := range forest {
		titles = append(titles, root.SheetTitle)
		stack := []*models.Topic{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			topics = append(topics, n.Title)
			stack = append(stack, n.Children...)
		}
	}

	return db.UpsertArchive(ArchiveRow{
		Path:        path,
		Checksum:    checksum.Sum(data),
		SheetCount:  len(sheets),
		SheetTitles: titles,
		UpdatedAt:   time.Now(),
	}, strings.Join(topics, " "))
}
