// Package docstore is the read/transform/write surface over the vault. It
// combines the metadata codec and the section merger with a storage
// provider: callers get parsed documents out and hand mutations back; the
// service performs the atomic write, refreshes the index row, and
// invalidates the relation cache.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nordveil/ideaforge/internal/apperr"
	"github.com/nordveil/ideaforge/internal/checksum"
	"github.com/nordveil/ideaforge/internal/index"
	"github.com/nordveil/ideaforge/internal/metadata"
	"github.com/nordveil/ideaforge/internal/relations"
	"github.com/nordveil/ideaforge/internal/section"
	"github.com/nordveil/ideaforge/internal/storage"
)

// Detail is the full representation of a document. Doc is nil when the file
// carries no metadata block; Raw always holds the complete text.
type Detail struct {
	Path     string             `json:"path"`
	Title    string             `json:"title"`
	Doc      *metadata.Document `json:"doc,omitempty"`
	Raw      string             `json:"raw"`
	Checksum string             `json:"checksum"`
}

// Service coordinates storage, index, and relation-cache updates.
type Service struct {
	store  storage.Provider
	db     *index.DB
	cache  *relations.Cache
	logger *slog.Logger
}

// NewService creates a document service. db and cache may be nil when the
// caller does not need indexing or relation translation (tests, one-shot
// tools).
func NewService(store storage.Provider, db *index.DB, cache *relations.Cache, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, cache: cache, logger: logger}
}

// Get reads and parses the document at path.
func (s *Service) Get(_ context.Context, path string) (*Detail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	detail := &Detail{
		Path:     path,
		Title:    index.Title(path),
		Raw:      string(data),
		Checksum: checksum.Sum(data),
	}
	if doc, ok := metadata.Parse(string(data)); ok {
		detail.Doc = doc
	}
	return detail, nil
}

// Create writes a brand-new document built from rec and body.
func (s *Service) Create(ctx context.Context, path string, rec metadata.Record, body string) (*Detail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	text := metadata.Build(rec, body)
	if err := s.store.Write(path, []byte(text)); err != nil {
		return nil, err
	}
	s.reindex(path, []byte(text))
	return s.Get(ctx, path)
}

// PutMetadata reads the document at path, applies mutate to its metadata
// record, rebuilds the text with the body untouched, and writes it back.
// It returns the new full text. Documents without a metadata block yield
// apperr.ErrNoMetadata.
func (s *Service) PutMetadata(_ context.Context, path string, mutate func(*metadata.Record)) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	doc, ok := metadata.Parse(string(data))
	if !ok {
		return "", fmt.Errorf("docstore: %s: %w", path, apperr.ErrNoMetadata)
	}

	mutate(&doc.Meta)
	text := metadata.Build(doc.Meta, doc.Body)
	if err := s.store.Write(path, []byte(text)); err != nil {
		return "", err
	}
	s.reindex(path, []byte(text))
	return text, nil
}

// MergeSection applies content under the labeled section of the document's
// body and writes the result back, leaving the metadata block untouched.
// Documents without metadata are treated as all body. Returns the new full
// text.
func (s *Service) MergeSection(_ context.Context, path, label, content string, mode section.Mode) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}

	var text string
	if doc, ok := metadata.Parse(string(data)); ok {
		body := section.Merge(doc.Body, label, content, mode)
		text = metadata.Build(doc.Meta, body)
	} else {
		text = section.Merge(string(data), label, content, mode)
	}

	if err := s.store.Write(path, []byte(text)); err != nil {
		return "", err
	}
	s.reindex(path, []byte(text))
	return text, nil
}

// AssignID gives the document at path a stable id if it does not have one
// yet, and returns the id in effect afterwards. Requires an attached index.
func (s *Service) AssignID(ctx context.Context, path string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("docstore: assign id: no index attached")
	}
	detail, err := s.Get(ctx, path)
	if err != nil {
		return 0, err
	}
	if detail.Doc == nil {
		return 0, fmt.Errorf("docstore: %s: %w", path, apperr.ErrNoMetadata)
	}
	if detail.Doc.Meta.ID != 0 {
		return detail.Doc.Meta.ID, nil
	}

	id, err := s.db.NextID()
	if err != nil {
		return 0, err
	}
	if _, err := s.PutMetadata(ctx, path, func(r *metadata.Record) { r.ID = id }); err != nil {
		return 0, err
	}
	return id, nil
}

// Move renames a document in place. The id inside the file does not change,
// so existing relations keep working once the cache rebuilds.
func (s *Service) Move(_ context.Context, oldPath, newPath string) error {
	if err := s.store.Move(oldPath, newPath); err != nil {
		return err
	}
	if s.db != nil {
		if err := s.db.DeleteIdea(oldPath); err != nil {
			s.logger.Warn("docstore: drop old index row failed", slog.String("path", oldPath), slog.String("error", err.Error()))
		}
	}
	data, err := s.store.Read(newPath)
	if err != nil {
		// The rename itself went through, so stale translations must not
		// survive even though the reindex is skipped.
		if s.cache != nil {
			s.cache.Invalidate()
		}
		return err
	}
	s.reindex(newPath, data)
	return nil
}

// Delete removes a document from storage, index, and cache.
func (s *Service) Delete(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	if s.db != nil {
		if err := s.db.DeleteIdea(path); err != nil {
			s.logger.Warn("docstore: drop index row failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if s.cache != nil {
		s.cache.Invalidate()
	}
	return nil
}

// reindex refreshes the index row for a just-written file and invalidates
// the relation cache. Indexing problems are logged, never surfaced: the
// write itself already succeeded.
func (s *Service) reindex(path string, data []byte) {
	if s.db != nil {
		if err := index.IndexFile(s.db, path, data); err != nil {
			s.logger.Warn("docstore: reindex failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
