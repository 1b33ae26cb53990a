// Package testutil provides shared test helpers for setting up workspaces and catalogs.
package testutil

import (
	"os"
	"testing"

	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/builder"
	"github.com/dagrev/xmap/internal/catalog"
	"github.com/dagrev/xmap/internal/models"
	"github.com/dagrev/xmap/internal/storage"
)

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "xmap-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := catalog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary allowed directory with a storage.Provider.
func TestWorkspace(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// BuildArchive assembles sheet descriptions into encoded archive bytes.
func BuildArchive(t *testing.T, sheets []models.SheetDescription) []byte {
	t.Helper()
	built, err := builder.Build(sheets)
	if err != nil {
		t.Fatalf("build archive: %v", err)
	}
	data, err := archive.Encode(built)
	if err != nil {
		t.Fatalf("encode archive: %v", err)
	}
	return data
}
