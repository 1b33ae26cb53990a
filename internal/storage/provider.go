// Package storage gives file access restricted to an allow-list of
// directory roots.
package storage

// Provider is the interface for allow-listed archive file operations.
// All paths are absolute; every read and write consults the allow-list
// first.
type Provider interface {
	// IsPathAllowed reports whether path falls under an allowed root.
	IsPathAllowed(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent
	// directories as needed.
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// ListArchives returns every archive file under dir, or under all
	// allowed roots when dir is empty. Results are sorted.
	ListArchives(dir string) ([]string, error)
	// FindFiles returns archives whose file name or decoded content
	// contains pattern: name matches first, then content matches, each
	// group alphabetical.
	FindFiles(pattern string) ([]string, error)
	// Roots returns the allowed root directories.
	Roots() []string
}
