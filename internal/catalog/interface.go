package catalog

// ArchiveIndex defines the interface for catalog operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type ArchiveIndex interface {
	UpsertArchive(row ArchiveRow, topics string) error
	DeleteArchive(path string) error
	AllChecksums() (map[string]string, error)
	ListArchives(limit, offset int) ([]ArchiveRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies ArchiveIndex at compile time.
var _ ArchiveIndex = (*DB)(nil)
