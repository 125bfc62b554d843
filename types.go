package blogengine

import "time"

// Status is the lifecycle state of a blog post. Only published posts are
// visible through public-facing queries.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusScheduled Status = "scheduled"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusScheduled, StatusArchived:
		return true
	}
	return false
}

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockImage     BlockType = "image"
	BlockCode      BlockType = "code"
	BlockQuote     BlockType = "quote"
	BlockList      BlockType = "list"
	BlockEmbed     BlockType = "embed"
)

// ContentBlock is one typed unit of post body content. The query engine
// treats blocks as opaque except for their text, which full-text search reads.
type ContentBlock struct {
	Type     BlockType `json:"type"`
	Text     string    `json:"text,omitempty"`
	Level    int       `json:"level,omitempty"`
	URL      string    `json:"url,omitempty"`
	Alt      string    `json:"alt,omitempty"`
	Language string    `json:"language,omitempty"`
	Items    []string  `json:"items,omitempty"`
}

// Author is a shared reference entity; many posts point at one author.
type Author struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Bio     string `json:"bio,omitempty"`
	Twitter string `json:"twitter,omitempty"`
	Website string `json:"website,omitempty"`
}

// Category is a lightweight reference entity. Categories may nest via
// ParentID (tree, not cycle-checked).
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID string `json:"parentId,omitempty"`
}

// Tag is a lightweight reference entity with a slug unique among tags.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// BlogPost is the core content record. Slug is unique across all posts
// regardless of status. ViewCount only ever increases.
type BlogPost struct {
	ID          string         `json:"id"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	Excerpt     string         `json:"excerpt"`
	Content     []ContentBlock `json:"content"`
	Author      Author         `json:"author"`
	Categories  []Category     `json:"categories"`
	Tags        []Tag          `json:"tags"`
	PublishedAt time.Time      `json:"publishedAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	CreatedAt   time.Time      `json:"createdAt"`
	Status      Status         `json:"status"`
	Featured    bool           `json:"featured"`
	ViewCount   int64          `json:"viewCount"`
	ReadingTime int            `json:"readingTime"`
}

// Published reports whether the post is publicly visible.
func (p *BlogPost) Published() bool {
	return p.Status == StatusPublished
}

// HasCategory reports whether the post carries a category with the given slug.
func (p *BlogPost) HasCategory(slug string) bool {
	for _, c := range p.Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

// HasTag reports whether the post carries a tag with the given slug.
func (p *BlogPost) HasTag(slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// PostPage is one page of a filtered, sorted post listing.
type PostPage struct {
	Items   []BlogPost `json:"items"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	Limit   int        `json:"limit"`
	HasNext bool       `json:"hasNext"`
	HasPrev bool       `json:"hasPrev"`
}

// ArchiveMonth groups the published posts of one calendar month.
type ArchiveMonth struct {
	Month time.Month `json:"month"`
	Count int        `json:"count"`
	Posts []BlogPost `json:"posts"`
}

// ArchiveYear groups the archive months of one calendar year,
// months in descending order.
type ArchiveYear struct {
	Year   int            `json:"year"`
	Months []ArchiveMonth `json:"months"`
}
