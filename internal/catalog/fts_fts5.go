//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS archives_fts USING fts5(
			path UNINDEXED,
			titles,
			topics,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, titles, topics string) error {
	_, _ = tx.Exec(`DELETE FROM archives_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO archives_fts (path, titles, topics) VALUES (?, ?, ?)`,
		path, titles, topics)
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM archives_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over sheet and topic titles.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       titles,
		       snippet(archives_fts, 2, '<b>', '</b>', '...', 64)
		FROM archives_fts
		WHERE archives_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
