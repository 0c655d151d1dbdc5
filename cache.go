package pubcontent

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// postIndex is an immutable snapshot of the indexed collection, keyed the
// way the API reads it.
type postIndex struct {
	posts  []Entry            // newest first
	bySlug map[string]int     // slug -> position in posts
	byTag  map[string][]Entry // normalized tag -> posts, newest first
	tags   []string
	built  time.Time
}

func newPostIndex(posts []Entry, tags []string) *postIndex {
	idx := &postIndex{
		posts:  posts,
		bySlug: make(map[string]int, len(posts)),
		byTag:  make(map[string][]Entry),
		tags:   tags,
		built:  time.Now(),
	}
	for i, p := range posts {
		idx.bySlug[p.Slug] = i
		seen := make(map[string]bool, len(p.Data.Tags))
		for _, t := range p.Data.Tags {
			t = normalizeTag(t)
			if seen[t] {
				continue
			}
			seen[t] = true
			idx.byTag[t] = append(idx.byTag[t], p)
		}
	}
	return idx
}

// PostCache serves reads from a snapshot of the store. Reindex swaps in a
// new snapshot through Invalidate; the TTL picks up writes made by other
// processes, such as `pubcontent index` against the same database.
type PostCache struct {
	store   *Store
	ttl     time.Duration
	current atomic.Pointer[postIndex]
	loading sync.Mutex
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

// Invalidate drops the snapshot so the next read rebuilds it. It waits for
// a rebuild in progress, which may have read the store before the write.
func (c *PostCache) Invalidate() {
	c.loading.Lock()
	c.current.Store(nil)
	c.loading.Unlock()
}

func (c *PostCache) fresh(idx *postIndex) bool {
	return idx != nil && time.Since(idx.built) < c.ttl
}

func (c *PostCache) index(ctx context.Context) (*postIndex, error) {
	if idx := c.current.Load(); c.fresh(idx) {
		return idx, nil
	}

	c.loading.Lock()
	defer c.loading.Unlock()
	if idx := c.current.Load(); c.fresh(idx) {
		return idx, nil
	}
	posts, err := c.store.ListPosts(ctx, "")
	if err != nil {
		return nil, err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	idx := newPostIndex(posts, tags)
	c.current.Store(idx)
	return idx, nil
}

// ListPosts returns posts newest first, optionally filtered by tag. The
// slice is shared with the cache and must not be modified.
func (c *PostCache) ListPosts(ctx context.Context, tag string) ([]Entry, error) {
	idx, err := c.index(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return idx.posts, nil
	}
	if posts, ok := idx.byTag[normalizeTag(tag)]; ok {
		return posts, nil
	}
	return []Entry{}, nil
}

// ListTags returns all normalized tags, sorted.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	idx, err := c.index(ctx)
	if err != nil {
		return nil, err
	}
	return idx.tags, nil
}

// GetPost returns a single post by slug, or ErrNotFound.
func (c *PostCache) GetPost(ctx context.Context, slug string) (Entry, error) {
	idx, err := c.index(ctx)
	if err != nil {
		return Entry{}, err
	}
	i, ok := idx.bySlug[slug]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return idx.posts[i], nil
}
