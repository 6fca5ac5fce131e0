//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM ideas_fts`).Scan(&count); err != nil {
		t.Fatalf("ideas_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	r := row("fts.md", 1, "draft")
	if err := db.UpsertIdea(r, "an unmistakable trigram for searching", nil); err != nil {
		t.Fatalf("UpsertIdea: %v", err)
	}

	results, err := db.Search("unmistakable", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "fts.md" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertIdea(row("gone.md", 2, "draft"), "vanishing content", nil)
	_ = db.DeleteIdea("gone.md")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.md" {
			t.Error("deleted document still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	base := IdeaRow{Path: "evo.md", DocID: 3, Tags: []string{}, UpdatedAt: time.Now()}

	old := base
	old.Title = "Old"
	_ = db.UpsertIdea(old, "original text", nil)

	fresh := base
	fresh.Title = "New"
	_ = db.UpsertIdea(fresh, "replacement text", nil)

	if results, _ := db.Search("original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ := db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
