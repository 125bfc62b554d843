package blogengine

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding the seeded blog content. The engine
// reads the whole collection into a Catalog at startup; the only write path
// back into the store is the per-post view counter.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS authors (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    bio TEXT NOT NULL DEFAULT '',
    twitter TEXT NOT NULL DEFAULT '',
    website TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    parent_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    content TEXT NOT NULL,
    author_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    featured INTEGER NOT NULL DEFAULT 0,
    published_at TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT '',
    view_count INTEGER NOT NULL DEFAULT 0,
    reading_time INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS post_categories (
    post_id TEXT NOT NULL,
    category_id TEXT NOT NULL,
    PRIMARY KEY (post_id, category_id)
);

CREATE TABLE IF NOT EXISTS post_tags (
    post_id TEXT NOT NULL,
    tag_id TEXT NOT NULL,
    PRIMARY KEY (post_id, tag_id)
);

CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
CREATE INDEX IF NOT EXISTS idx_posts_published_at ON posts(published_at);
`)
	return err
}

// IncrementViews bumps the view counter for one post by exactly 1. The
// increment happens inside SQLite, so concurrent callers never lose updates.
func (s *Store) IncrementViews(postID string) error {
	res, err := s.db.Exec(`UPDATE posts SET view_count = view_count + 1 WHERE id = ?`, postID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LoadCatalog reads the full content graph into memory. Posts come back in
// collection order: published_at descending, slug ascending on ties. That
// order is what "store order" means everywhere else in this package.
func (s *Store) LoadCatalog() ([]BlogPost, error) {
	authors, err := s.loadAuthors()
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	categories, err := s.loadCategories()
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	tags, err := s.loadTags()
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	postCats, err := s.loadJoin(`SELECT post_id, category_id FROM post_categories`)
	if err != nil {
		return nil, fmt.Errorf("load post categories: %w", err)
	}
	postTags, err := s.loadJoin(`SELECT post_id, tag_id FROM post_tags`)
	if err != nil {
		return nil, fmt.Errorf("load post tags: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, slug, title, excerpt, content, author_id, status, featured,
		       published_at, updated_at, created_at, view_count, reading_time
		FROM posts
		ORDER BY published_at DESC, slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		var (
			p                                 BlogPost
			content, authorID                 string
			featured                          int
			publishedAt, updatedAt, createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Excerpt, &content, &authorID,
			&p.Status, &featured, &publishedAt, &updatedAt, &createdAt,
			&p.ViewCount, &p.ReadingTime); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(content), &p.Content); err != nil {
			return nil, fmt.Errorf("post %s: decode content: %w", p.Slug, err)
		}
		p.Featured = featured == 1
		p.PublishedAt = parseTime(publishedAt)
		p.UpdatedAt = parseTime(updatedAt)
		p.CreatedAt = parseTime(createdAt)
		p.Author = authors[authorID]
		for _, catID := range postCats[p.ID] {
			if c, ok := categories[catID]; ok {
				p.Categories = append(p.Categories, c)
			}
		}
		for _, tagID := range postTags[p.ID] {
			if t, ok := tags[tagID]; ok {
				p.Tags = append(p.Tags, t)
			}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListCategories returns all categories ordered by slug.
func (s *Store) ListCategories() ([]Category, error) {
	byID, err := s.loadCategories()
	if err != nil {
		return nil, err
	}
	return sortedCategories(byID), nil
}

// ListTags returns all tags ordered by slug.
func (s *Store) ListTags() ([]Tag, error) {
	byID, err := s.loadTags()
	if err != nil {
		return nil, err
	}
	return sortedTags(byID), nil
}

func (s *Store) loadAuthors() (map[string]Author, error) {
	rows, err := s.db.Query(`SELECT id, name, email, bio, twitter, website FROM authors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]Author)
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Bio, &a.Twitter, &a.Website); err != nil {
			return nil, err
		}
		out[a.ID] = a
	}
	return out, rows.Err()
}

func (s *Store) loadCategories() (map[string]Category, error) {
	rows, err := s.db.Query(`SELECT id, name, slug, parent_id FROM categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]Category)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (s *Store) loadTags() (map[string]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, slug FROM tags`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]Tag)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		out[t.ID] = t
	}
	return out, rows.Err()
}

// loadJoin reads a two-column join table into a parent->children map,
// preserving insertion order of the children.
func (s *Store) loadJoin(query string) (map[string][]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]string)
	for rows.Next() {
		var parent, child string
		if err := rows.Scan(&parent, &child); err != nil {
			return nil, err
		}
		out[parent] = append(out[parent], child)
	}
	return out, rows.Err()
}

func sortedCategories(byID map[string]Category) []Category {
	out := make([]Category, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func sortedTags(byID map[string]Tag) []Tag {
	out := make([]Tag, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
