package blogengine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// SeedFile is the on-disk JSON format the store is populated from at startup.
// Posts reference authors by id and categories/tags by slug.
type SeedFile struct {
	Authors    []Author   `json:"authors"`
	Categories []Category `json:"categories"`
	Tags       []Tag      `json:"tags"`
	Posts      []SeedPost `json:"posts"`
}

// SeedPost is a BlogPost with references flattened for the seed file.
type SeedPost struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Excerpt     string         `json:"excerpt"`
	Content     []ContentBlock `json:"content"`
	AuthorID    string         `json:"author"`
	Categories  []string       `json:"categories"`
	Tags        []string       `json:"tags"`
	PublishedAt string         `json:"publishedAt"`
	UpdatedAt   string         `json:"updatedAt"`
	CreatedAt   string         `json:"createdAt"`
	Status      Status         `json:"status"`
	Featured    bool           `json:"featured"`
	ViewCount   int64          `json:"viewCount"`
	ReadingTime int            `json:"readingTime"`
}

// SeedFromFile loads the JSON seed at path and upserts its records. Records
// without an id get one assigned. Existing posts keep their view counters so
// re-seeding on restart does not reset stats.
func (s *Store) SeedFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed SeedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	return s.Seed(seed)
}

// Seed upserts the given records inside a single transaction.
func (s *Store) Seed(seed SeedFile) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range seed.Authors {
		a := &seed.Authors[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if _, err := tx.Exec(`INSERT OR REPLACE INTO authors (id, name, email, bio, twitter, website) VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, a.Email, a.Bio, a.Twitter, a.Website); err != nil {
			return fmt.Errorf("seed author %s: %w", a.Name, err)
		}
	}

	catID := make(map[string]string, len(seed.Categories))
	for i := range seed.Categories {
		c := &seed.Categories[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		catID[c.Slug] = c.ID
		if _, err := tx.Exec(`INSERT OR REPLACE INTO categories (id, name, slug, parent_id) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Slug, c.ParentID); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}

	tagID := make(map[string]string, len(seed.Tags))
	for i := range seed.Tags {
		t := &seed.Tags[i]
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		tagID[t.Slug] = t.ID
		if _, err := tx.Exec(`INSERT OR REPLACE INTO tags (id, name, slug) VALUES (?, ?, ?)`,
			t.ID, t.Name, t.Slug); err != nil {
			return fmt.Errorf("seed tag %s: %w", t.Slug, err)
		}
	}

	for i := range seed.Posts {
		p := &seed.Posts[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Slug == "" {
			p.Slug = Slugify(p.Title)
		}
		if !p.Status.Valid() {
			return fmt.Errorf("seed post %s: unknown status %q", p.Slug, p.Status)
		}
		content, err := json.Marshal(p.Content)
		if err != nil {
			return fmt.Errorf("seed post %s: encode content: %w", p.Slug, err)
		}
		featured := 0
		if p.Featured {
			featured = 1
		}
		// Preserve an existing view counter across re-seeds.
		if _, err := tx.Exec(`
			INSERT INTO posts (id, slug, title, excerpt, content, author_id, status, featured,
			                   published_at, updated_at, created_at, view_count, reading_time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
			    slug=excluded.slug, title=excluded.title, excerpt=excluded.excerpt,
			    content=excluded.content, author_id=excluded.author_id, status=excluded.status,
			    featured=excluded.featured, published_at=excluded.published_at,
			    updated_at=excluded.updated_at, created_at=excluded.created_at,
			    reading_time=excluded.reading_time`,
			p.ID, p.Slug, p.Title, p.Excerpt, string(content), p.AuthorID, string(p.Status), featured,
			p.PublishedAt, p.UpdatedAt, p.CreatedAt, p.ViewCount, p.ReadingTime); err != nil {
			return fmt.Errorf("seed post %s: %w", p.Slug, err)
		}
		if _, err := tx.Exec(`DELETE FROM post_categories WHERE post_id = ?`, p.ID); err != nil {
			return err
		}
		for _, slug := range p.Categories {
			id, ok := catID[slug]
			if !ok {
				return fmt.Errorf("seed post %s: unknown category %q", p.Slug, slug)
			}
			if _, err := tx.Exec(`INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`, p.ID, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = ?`, p.ID); err != nil {
			return err
		}
		for _, slug := range p.Tags {
			id, ok := tagID[slug]
			if !ok {
				return fmt.Errorf("seed post %s: unknown tag %q", p.Slug, slug)
			}
			if _, err := tx.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, p.ID, id); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}
