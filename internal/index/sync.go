package index

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nordveil/ideaforge/internal/checksum"
	"github.com/nordveil/ideaforge/internal/metadata"
	"github.com/nordveil/ideaforge/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// Per-file failures are logged and skipped; only the enumeration itself can
// fail the whole pass.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	infos, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		disk[info.Path] = struct{}{}

		if checksums[info.Path] == info.Checksum {
			continue
		}

		data, err := store.Read(info.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, info.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", info.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", info.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteIdea(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses data and upserts it into the index. Files without a
// metadata block are still indexed (with zero-valued fields) so that search
// covers the whole vault.
func IndexFile(db *DB, path string, data []byte) error {
	row := IdeaRow{
		Path:      path,
		Title:     Title(path),
		Checksum:  checksum.Sum(data),
		Tags:      []string{},
		UpdatedAt: time.Now(),
	}
	body := string(data)
	var related []int

	if doc, ok := metadata.Parse(string(data)); ok {
		row.DocID = doc.Meta.ID
		row.Status = doc.Meta.Status
		row.Category = doc.Meta.Category
		row.Tags = doc.Meta.Tags
		body = doc.Body
		related = doc.Meta.RelatedIDs
	}

	return db.UpsertIdea(row, body, related)
}

// Title derives a document's display name from its path: the base filename
// with the extension stripped.
func Title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
