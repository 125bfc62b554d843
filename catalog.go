package blogengine

import (
	"sync"
	"time"
)

// Catalog owns the in-memory post collection the query engine reads from.
// It is an explicit object rather than package state so tests can build
// isolated instances. The collection is loaded from the store and refreshed
// after the TTL expires; the only mutation between reloads is the per-post
// view counter, which writes through to the store first and swaps in a
// fresh slice so outstanding readers keep a consistent snapshot.
type Catalog struct {
	mu      sync.RWMutex
	posts   []BlogPost
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewCatalog creates a Catalog backed by the given Store.
func NewCatalog(s *Store, ttl time.Duration) *Catalog {
	return &Catalog{store: s, ttl: ttl}
}

// NewStaticCatalog creates a Catalog over a fixed post slice with no backing
// store. View counters still work; they just are not persisted.
func NewStaticCatalog(posts []BlogPost) *Catalog {
	return &Catalog{posts: posts, fetched: time.Now(), ttl: time.Duration(1<<62 - 1)}
}

func (c *Catalog) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the catalog so the next read triggers a fresh load.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

func (c *Catalog) load() error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.LoadCatalog()
	if err != nil {
		return StoreErr("load catalog", err)
	}
	c.posts = posts
	c.fetched = time.Now()
	return nil
}

// Posts returns the collection in store order. The returned slice is shared;
// callers must not mutate it.
func (c *Catalog) Posts() ([]BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.posts, nil
}

// PeekPost finds the published post with the given slug without touching its
// view counter. Returns ErrNotFound for a missing or non-published slug.
func (c *Catalog) PeekPost(slug string) (*BlogPost, error) {
	posts, err := c.Posts()
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug && posts[i].Published() {
			out := posts[i]
			return &out, nil
		}
	}
	return nil, NotFoundErr("slug " + slug)
}

// ViewPost finds the published post with the given slug, bumps its view
// counter by one, and returns a copy reflecting the new count. The store
// increment happens first so a store failure leaves the in-memory state
// untouched. Returns ErrNotFound for a missing or non-published slug.
func (c *Catalog) ViewPost(slug string) (*BlogPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(); err != nil {
		return nil, err
	}
	for i := range c.posts {
		if c.posts[i].Slug != slug || !c.posts[i].Published() {
			continue
		}
		if c.store != nil {
			if err := c.store.IncrementViews(c.posts[i].ID); err != nil {
				return nil, StoreErr("increment views", err)
			}
		}
		// Replace the collection instead of bumping the element in place:
		// Posts() callers may still be iterating the previous slice.
		next := make([]BlogPost, len(c.posts))
		copy(next, c.posts)
		next[i].ViewCount++
		c.posts = next
		out := next[i]
		return &out, nil
	}
	return nil, NotFoundErr("slug " + slug)
}
