package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dagrev/xmap/internal/archive"
	"github.com/dagrev/xmap/internal/storage"
)

// EventCallback is called after a watcher-driven catalog change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher over every allowed root and processes
// archive change events until ctx is cancelled. It calls cb (if non-nil)
// after each successful catalog mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a debounced reconciliation pass that removes
// stale catalog entries whose files no longer exist on disk.
func Watch(ctx context.Context, db ArchiveIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range store.Roots() {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
	}

	logger.Info("watcher: started", slog.Int("roots", len(store.Roots())))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			path := ev.Name

			// New directories join the watch list.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, path); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", path),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", path))
					}
					indexNewDir(db, store, path, logger, cb)
					continue
				}
			}

			// Only archive files from here on.
			if !isArchivePath(path) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(path)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := IndexArchive(db, path, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", path), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", path), slog.String("op", kind))
				if cb != nil {
					cb(kind, path)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteArchive(path); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", path), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", path))
				if cb != nil {
					cb("deleted", path)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a separate Create event if it stays inside a
				// watched dir. Delete the old entry now and reconcile the
				// stragglers shortly after.
				if delErr := db.DeleteArchive(path); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", path), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", path))
					if cb != nil {
						cb("deleted", path)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile does a lightweight sync using batch lookups: removes catalog
// entries without a file on disk and re-indexes what remains.
func reconcile(db ArchiveIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	paths, err := store.ListArchives("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		disk[p] = struct{}{}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.DeleteArchive(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}

	for _, p := range paths {
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if idxErr := IndexArchive(db, p, data); idxErr == nil {
			if _, known := checksums[p]; !known {
				logger.Debug("reconcile: indexed new", slog.String("path", p))
				if cb != nil {
					cb("created", p)
				}
			}
		}
	}
}

// indexNewDir indexes any archives found in a newly created directory.
func indexNewDir(db ArchiveIndex, store storage.Provider, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isArchivePath(path) {
			return nil
		}
		data, readErr := store.Read(path)
		if readErr != nil {
			return nil
		}
		if idxErr := IndexArchive(db, path, data); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", path))
			if cb != nil {
				cb("created", path)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func isArchivePath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), archive.FileExtension)
}
