package docstore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nordveil/ideaforge/internal/apperr"
	"github.com/nordveil/ideaforge/internal/metadata"
	"github.com/nordveil/ideaforge/internal/relations"
	"github.com/nordveil/ideaforge/internal/section"
	"github.com/nordveil/ideaforge/internal/storage"
	"github.com/nordveil/ideaforge/internal/testutil"
)

func testService(t *testing.T) (*Service, *relations.Cache) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	cache := relations.NewCache(store, testutil.Logger())
	return NewService(store, db, cache, testutil.Logger()), cache
}

func sampleRecord(id int) metadata.Record {
	return metadata.Record{
		Kind:            metadata.Kind,
		Status:          metadata.StatusDraft,
		CreatedDate:     "2026-02-01",
		ID:              id,
		Category:        "tooling",
		Tags:            []string{"go"},
		RelatedIDs:      []int{},
		DomainChecks:    []string{},
		ExistenceChecks: []string{},
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	detail, err := svc.Create(ctx, "ideas/a.md", sampleRecord(5), "# A\n\nprose\n")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.Doc == nil || detail.Doc.Meta.ID != 5 {
		t.Fatalf("detail = %+v", detail)
	}
	if detail.Doc.Body != "# A\n\nprose\n" {
		t.Errorf("body = %q", detail.Doc.Body)
	}
	if detail.Title != "a" {
		t.Errorf("title = %q", detail.Title)
	}

	if _, err := svc.Create(ctx, "ideas/a.md", sampleRecord(6), ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate create err = %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := testService(t)
	if _, err := svc.Get(context.Background(), "nope.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPutMetadata(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, "a.md", sampleRecord(5), "body stays\n")

	text, err := svc.PutMetadata(ctx, "a.md", func(r *metadata.Record) {
		r.Status = metadata.StatusActive
		r.RelatedIDs = append(r.RelatedIDs, 9)
	})
	if err != nil {
		t.Fatalf("PutMetadata: %v", err)
	}
	if !strings.Contains(text, "status: active\n") || !strings.Contains(text, "relatedIds: [9]\n") {
		t.Errorf("text:\n%s", text)
	}
	if !strings.HasSuffix(text, "body stays\n") {
		t.Errorf("body disturbed:\n%s", text)
	}

	detail, _ := svc.Get(ctx, "a.md")
	if detail.Doc.Meta.Status != metadata.StatusActive {
		t.Errorf("persisted status = %q", detail.Doc.Meta.Status)
	}
}

func TestPutMetadata_NoMetadata(t *testing.T) {
	_, store := testutil.TestVault(t)
	svc := NewService(store, nil, nil, testutil.Logger())
	_ = store.Write("plain.md", []byte("just prose\n"))

	_, err := svc.PutMetadata(context.Background(), "plain.md", func(*metadata.Record) {})
	if !errors.Is(err, apperr.ErrNoMetadata) {
		t.Errorf("err = %v, want ErrNoMetadata", err)
	}
}

func TestMergeSection_PreservesMetadata(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	body := "# T\n\nIntro\n\n## Scaffold\n\nold text\n\n## Other\n\nkeep me"
	_, _ = svc.Create(ctx, "a.md", sampleRecord(5), body)

	text, err := svc.MergeSection(ctx, "a.md", "Scaffold", "new text", section.Replace)
	if err != nil {
		t.Fatalf("MergeSection: %v", err)
	}
	if !strings.Contains(text, "## Scaffold\n\nnew text\n\n## Other") {
		t.Errorf("merge result:\n%s", text)
	}
	doc, ok := metadata.Parse(text)
	if !ok || doc.Meta.ID != 5 {
		t.Errorf("metadata disturbed: %+v ok=%v", doc, ok)
	}
}

func TestMergeSection_PlainDocument(t *testing.T) {
	_, store := testutil.TestVault(t)
	svc := NewService(store, nil, nil, testutil.Logger())
	_ = store.Write("plain.md", []byte("prose\n"))

	text, err := svc.MergeSection(context.Background(), "plain.md", "Notes", "## Notes\n\nhi", section.AppendAtEnd)
	if err != nil {
		t.Fatalf("MergeSection: %v", err)
	}
	if text != "prose\n\n## Notes\n\nhi\n" {
		t.Errorf("text = %q", text)
	}
}

func TestAssignID(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, "a.md", sampleRecord(3), "")
	_, _ = svc.Create(ctx, "b.md", sampleRecord(0), "")

	id, err := svc.AssignID(ctx, "b.md")
	if err != nil {
		t.Fatalf("AssignID: %v", err)
	}
	if id != 4 {
		t.Errorf("id = %d, want 4 (max assigned + 1)", id)
	}

	// Assigning again is a no-op returning the existing id.
	again, err := svc.AssignID(ctx, "b.md")
	if err != nil || again != 4 {
		t.Errorf("second AssignID = %d, %v", again, err)
	}
}

func TestMoveKeepsRelationsWorking(t *testing.T) {
	svc, cache := testService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, "Docs/a.md", sampleRecord(5), "")

	if paths := cache.IDsToPaths(ctx, []int{5}); len(paths) != 1 || paths[0] != "Docs/a.md" {
		t.Fatalf("paths = %v", paths)
	}

	if err := svc.Move(ctx, "Docs/a.md", "Docs/a-renamed.md"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	cache.Invalidate()

	if paths := cache.IDsToPaths(ctx, []int{5}); len(paths) != 1 || paths[0] != "Docs/a-renamed.md" {
		t.Errorf("paths after rename = %v", paths)
	}
}

// readFailStore fails reads of one path, standing in for a document that
// becomes unreadable between the rename and the follow-up read.
type readFailStore struct {
	storage.Provider
	failPath string
}

func (s readFailStore) Read(path string) ([]byte, error) {
	if path == s.failPath {
		return nil, errors.New("read failed")
	}
	return s.Provider.Read(path)
}

func TestMove_ReadFailureStillInvalidatesCache(t *testing.T) {
	_, base := testutil.TestVault(t)
	store := readFailStore{Provider: base, failPath: "Docs/a-renamed.md"}
	db := testutil.TestDB(t)
	cache := relations.NewCache(store, testutil.Logger())
	svc := NewService(store, db, cache, testutil.Logger())
	ctx := context.Background()

	_, _ = svc.Create(ctx, "Docs/a.md", sampleRecord(5), "")
	if paths := cache.IDsToPaths(ctx, []int{5}); len(paths) != 1 || paths[0] != "Docs/a.md" {
		t.Fatalf("paths = %v", paths)
	}

	if err := svc.Move(ctx, "Docs/a.md", "Docs/a-renamed.md"); err == nil {
		t.Fatal("expected Move to fail on the unreadable destination")
	}

	// The rename itself went through, so the pre-rename path must not keep
	// resolving out of the cache.
	if paths := cache.IDsToPaths(ctx, []int{5}); len(paths) != 0 {
		t.Errorf("cache still serves pre-rename path: %v", paths)
	}
}

func TestDelete(t *testing.T) {
	svc, cache := testService(t)
	ctx := context.Background()
	_, _ = svc.Create(ctx, "a.md", sampleRecord(5), "")
	_ = cache.IDsToPaths(ctx, []int{5})

	if err := svc.Delete(ctx, "a.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "a.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if ids := cache.PathsToIDs(ctx, []string{"a.md"}); len(ids) != 0 {
		t.Errorf("cache still resolves deleted doc: %v", ids)
	}
}
