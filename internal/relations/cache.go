// Package relations maintains the bidirectional map between stable numeric
// document ids and current storage paths/titles. Documents reference each
// other by id, so the references survive renames; this cache is what turns
// an id back into a live path when a caller needs one.
package relations

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nordveil/ideaforge/internal/metadata"
	"github.com/nordveil/ideaforge/internal/models"
)

// Repository is the collaborator the cache scans during a build. A
// storage.Provider satisfies it.
type Repository interface {
	List(dir string) ([]models.DocInfo, error)
	Read(path string) ([]byte, error)
}

// State is the cache lifecycle: Empty until first use, Building while the
// one-time scan runs, Ready afterwards. Invalidate returns it to Empty.
type State int

const (
	Empty State = iota
	Building
	Ready
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Ready:
		return "ready"
	default:
		return "empty"
	}
}

// entry is one registered document.
type entry struct {
	path  string
	title string
}

// view is an immutable completed build. Every translation call that runs
// after a build started sees the same view; no caller ever observes a
// partially populated cache.
type view struct {
	byID   map[int]entry
	byPath map[string]int
}

// Cache lazily builds and serves id↔path/title translations.
//
// Translation failures never abort the caller's operation: unknown paths and
// ids are skipped with a warning, and a failed repository scan degrades to
// an empty result set.
type Cache struct {
	repo   Repository
	logger *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	state State
	gen   uint64
	cur   *view
}

// NewCache creates a cache over repo. The first translation call triggers
// the full-repository scan.
func NewCache(repo Repository, logger *slog.Logger) *Cache {
	return &Cache{repo: repo, logger: logger, state: Empty}
}

// State reports the current lifecycle state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Invalidate resets the cache to Empty. The owner must call it whenever
// documents are created, deleted, or renamed; the next translation call
// triggers a fresh scan. Bumping the generation keeps a build that is
// already in flight from committing over the reset.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.state = Empty
	c.cur = nil
	c.gen++
	c.mu.Unlock()
	c.group.Forget("build")
}

// PathsToIDs translates storage paths to document ids. Paths not present in
// the cache are skipped with a warning; one miss never fails the batch.
func (c *Cache) PathsToIDs(ctx context.Context, paths []string) []int {
	v := c.ready(ctx)
	if v == nil {
		return []int{}
	}
	out := make([]int, 0, len(paths))
	for _, p := range paths {
		id, ok := v.byPath[p]
		if !ok {
			c.logger.Warn("relations: path not registered", slog.String("path", p))
			continue
		}
		out = append(out, id)
	}
	return out
}

// IDsToPaths translates document ids to their current storage paths, with
// the same per-item miss policy as PathsToIDs.
func (c *Cache) IDsToPaths(ctx context.Context, ids []int) []string {
	v := c.ready(ctx)
	if v == nil {
		return []string{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		e, ok := v.byID[id]
		if !ok {
			c.logger.Warn("relations: id not registered", slog.Int("id", id))
			continue
		}
		out = append(out, e.path)
	}
	return out
}

// IDToTitle returns the display title registered for id.
func (c *Cache) IDToTitle(ctx context.Context, id int) (string, bool) {
	v := c.ready(ctx)
	if v == nil {
		return "", false
	}
	e, ok := v.byID[id]
	if !ok {
		return "", false
	}
	return e.title, true
}

// IDsToTitles returns a map of every requested id that is registered to its
// title. Unknown ids are simply absent from the result.
func (c *Cache) IDsToTitles(ctx context.Context, ids []int) map[int]string {
	out := make(map[int]string, len(ids))
	v := c.ready(ctx)
	if v == nil {
		return out
	}
	for _, id := range ids {
		if e, ok := v.byID[id]; ok {
			out[id] = e.title
		}
	}
	return out
}

// ready returns the current completed view, building it first if necessary.
// Concurrent first callers share a single scan through singleflight. A
// failed scan is swallowed here: the cache stays Empty, the failure is
// logged, and the caller receives nil (empty results), never an error.
func (c *Cache) ready(ctx context.Context) *view {
	c.mu.Lock()
	if c.state == Ready && c.cur != nil {
		v := c.cur
		c.mu.Unlock()
		return v
	}
	c.state = Building
	c.mu.Unlock()

	res, err, _ := c.group.Do("build", func() (any, error) {
		return c.build(ctx)
	})
	if err != nil {
		c.mu.Lock()
		c.state = Empty
		c.cur = nil
		c.mu.Unlock()
		c.logger.Warn("relations: build failed", slog.String("error", err.Error()))
		return nil
	}
	return res.(*view)
}

// build scans every document once and registers those with an assigned id
// in both directions. Unreadable or metadata-less files are skipped; only a
// failed enumeration aborts the build.
func (c *Cache) build(_ context.Context) (*view, error) {
	c.mu.Lock()
	startGen := c.gen
	c.mu.Unlock()

	infos, err := c.repo.List("")
	if err != nil {
		return nil, err
	}

	v := &view{
		byID:   make(map[int]entry),
		byPath: make(map[string]int),
	}
	for _, info := range infos {
		data, err := c.repo.Read(info.Path)
		if err != nil {
			c.logger.Warn("relations: read failed", slog.String("path", info.Path), slog.String("error", err.Error()))
			continue
		}
		doc, ok := metadata.Parse(string(data))
		if !ok || doc.Meta.ID == 0 {
			// id 0 means unassigned; such documents cannot be referenced yet.
			continue
		}
		v.byID[doc.Meta.ID] = entry{path: info.Path, title: title(info.Path)}
		v.byPath[info.Path] = doc.Meta.ID
	}

	// An Invalidate that raced this build wins: the scan started before the
	// reset, so its view may already be stale. Waiters still get v for this
	// one call; the next call runs a fresh scan.
	c.mu.Lock()
	if c.gen == startGen {
		c.state = Ready
		c.cur = v
	}
	c.mu.Unlock()

	c.logger.Debug("relations: built", slog.Int("documents", len(v.byID)))
	return v, nil
}

// title is the document's display name: base filename, extension stripped.
func title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
