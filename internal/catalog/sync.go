package catalog

import (
	"log/slog"

	"github.com/dagrev/xmap/internal/checksum"
	"github.com/dagrev/xmap/internal/storage"
)

// Sync walks every allowed root and brings the catalog up to date:
//   - new/changed archives are decoded and upserted
//   - archives removed from disk are deleted from the catalog
func Sync(db ArchiveIndex, store storage.Provider, logger *slog.Logger) error {
	paths, err := store.ListArchives("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		disk[p] = struct{}{}

		data, err := store.Read(p)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if checksums[p] == checksum.Sum(data) {
			continue
		}
		if err := IndexArchive(db, p, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", p))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteArchive(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}
