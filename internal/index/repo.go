package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nordveil/ideaforge/internal/apperr"
)

// IdeaRow represents a row in the ideas table.
type IdeaRow struct {
	Path      string
	DocID     int
	Title     string
	Status    string
	Category  string
	Tags      []string
	Checksum  string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertIdea inserts or replaces a document row, its FTS entry, and its
// outgoing relations within one transaction.
func (db *DB) UpsertIdea(row IdeaRow, body string, related []int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)

	_, err = tx.Exec(`
		INSERT INTO ideas (path, doc_id, title, status, category, tags, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			doc_id     = excluded.doc_id,
			title      = excluded.title,
			status     = excluded.status,
			category   = excluded.category,
			tags       = excluded.tags,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Path, row.DocID, row.Title, row.Status, row.Category, string(tagsJSON), row.Checksum, body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert idea: %w", err)
	}

	if err := ftsUpsert(tx, row.Path, row.Title, body, row.Tags); err != nil {
		return err
	}

	// Replace outgoing relations: delete old, bulk insert new.
	_, _ = tx.Exec(`DELETE FROM relations WHERE source = ?`, row.Path)
	if len(related) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO relations (source, target_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare relation insert: %w", err)
		}
		defer stmt.Close()
		for _, id := range related {
			if _, err := stmt.Exec(row.Path, id); err != nil {
				return fmt.Errorf("index: insert relation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteIdea removes a document row, its FTS entry, and outgoing relations.
func (db *DB) DeleteIdea(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM relations WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM ideas WHERE path = ?`, path)

	return tx.Commit()
}

// GetIdea returns the indexed row for path, or apperr.ErrNotFound.
func (db *DB) GetIdea(path string) (*IdeaRow, error) {
	var (
		row      IdeaRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT path, doc_id, title, status, category, tags, checksum, updated_at
		FROM ideas WHERE path = ?
	`, path).Scan(&row.Path, &row.DocID, &row.Title, &row.Status, &row.Category, &tagsJSON, &row.Checksum, &row.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get idea: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &row.Tags)
	return &row, nil
}

// ListIdeas returns a page of rows plus the total count, optionally filtered
// by status.
func (db *DB) ListIdeas(limit, offset int, status string) ([]IdeaRow, int, error) {
	if limit <= 0 {
		limit = 50
	}

	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = ?"
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM ideas `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count ideas: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.conn.Query(`
		SELECT path, doc_id, title, status, category, tags, checksum, updated_at
		FROM ideas `+where+`
		ORDER BY updated_at DESC, path
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list ideas: %w", err)
	}
	defer rows.Close()

	var out []IdeaRow
	for rows.Next() {
		var (
			r        IdeaRow
			tagsJSON string
		)
		if err := rows.Scan(&r.Path, &r.DocID, &r.Title, &r.Status, &r.Category, &tagsJSON, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &r.Tags)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Referrers returns the paths of all documents whose relatedIds cite id.
func (db *DB) Referrers(id int) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM relations WHERE target_id = ? ORDER BY source`, id)
	if err != nil {
		return nil, fmt.Errorf("index: referrers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetChecksum returns the stored checksum for a path, or empty string when
// the path is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	if err := db.conn.QueryRow(`SELECT checksum FROM ideas WHERE path = ?`, path).Scan(&cs); err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM ideas`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
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

// NextID returns the next unused document id (highest assigned id + 1).
func (db *DB) NextID() (int, error) {
	var next int
	if err := db.conn.QueryRow(`SELECT COALESCE(MAX(doc_id), 0) + 1 FROM ideas`).Scan(&next); err != nil {
		return 0, fmt.Errorf("index: next id: %w", err)
	}
	return next, nil
}
