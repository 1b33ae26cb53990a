package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/archive"
)

// FS implements Provider over the local file system with a fixed
// allow-list of root directories, established once at startup.
type FS struct {
	roots []string // absolute allowed directories
}

var _ Provider = (*FS)(nil)

// NewFS creates an FS provider. Every root must be an existing directory.
func NewFS(roots []string) (*FS, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("storage: at least one allowed directory is required")
	}
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("storage: resolve root %s: %w", r, err)
		}
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("storage: stat root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("storage: root is not a directory: %s", a)
		}
		abs = append(abs, a)
	}
	return &FS{roots: abs}, nil
}

// Roots returns the allowed root directories.
func (f *FS) Roots() []string {
	out := make([]string, len(f.roots))
	copy(out, f.roots)
	return out
}

// IsPathAllowed reports whether path resolves under an allowed root.
func (f *FS) IsPathAllowed(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range f.roots {
		if abs == root || strings.HasPrefix(abs, root+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

// resolve makes path absolute and rejects anything outside the allow-list.
func (f *FS) resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !f.IsPathAllowed(abs) {
		return "", fmt.Errorf("storage: path outside allowed directories: %s: %w", path, apperr.ErrAccessDenied)
	}
	return abs, nil
}

// Read returns the raw bytes of an allowed file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether an allowed file exists.
func (f *FS) Exists(path string) (bool, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return true, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".xmap-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// ListArchives walks dir (or every allowed root when dir is empty) and
// returns the sorted paths of all archive files. Independent roots are
// scanned concurrently; recursion within one tree is sequential.
func (f *FS) ListArchives(dir string) ([]string, error) {
	if dir != "" {
		abs, err := f.resolve(dir)
		if err != nil {
			return nil, err
		}
		out, err := scanArchives(abs)
		if err != nil {
			return nil, err
		}
		sort.Strings(out)
		return out, nil
	}

	perRoot := make([][]string, len(f.roots))
	var g errgroup.Group
	for i, root := range f.roots {
		g.Go(func() error {
			found, err := scanArchives(root)
			if err != nil {
				return err
			}
			perRoot[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, found := range perRoot {
		out = append(out, found...)
	}
	sort.Strings(out)
	return out, nil
}

// FindFiles searches all allowed roots for archives whose file name or
// decoded content contains pattern (case-insensitive). Name matches come
// before content matches, each group alphabetical; a file appears once.
func (f *FS) FindFiles(pattern string) ([]string, error) {
	paths, err := f.ListArchives("")
	if err != nil {
		return nil, err
	}
	lp := strings.ToLower(pattern)

	var byName, byContent []string
	for _, p := range paths {
		if strings.Contains(strings.ToLower(filepath.Base(p)), lp) {
			byName = append(byName, p)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		content, err := archive.RawContent(data)
		if err != nil {
			// Unreadable archives are skipped, not fatal.
			continue
		}
		if strings.Contains(strings.ToLower(content), lp) {
			byContent = append(byContent, p)
		}
	}
	// ListArchives already sorts, so each group stays alphabetical.
	return append(byName, byContent...), nil
}

func scanArchives(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), archive.FileExtension) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: scan %s: %w", root, err)
	}
	return out, nil
}
