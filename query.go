package blogengine

import (
	"sort"
	"strings"
	"time"
)

// SortField selects the post attribute a listing is ordered by.
type SortField string

const (
	SortPublishedAt SortField = "publishedAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortTitle       SortField = "title"
	SortViewCount   SortField = "viewCount"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	// DefaultRelatedLimit is how many related posts are suggested when the
	// caller does not ask for a specific number.
	DefaultRelatedLimit = 3
)

// Filters narrows a post listing. All set fields are AND-combined.
// The zero value matches everything.
type Filters struct {
	Category string    // any category slug equals this
	Tag      string    // any tag slug equals this
	Author   string    // author id equals this
	Status   Status    // overrides the implicit published-only default
	Featured *bool     // featured flag equals this
	DateFrom time.Time // publishedAt >= this (inclusive), zero = unset
	DateTo   time.Time // publishedAt <= this (inclusive), zero = unset
	Search   string    // case-insensitive substring over title/excerpt/block text
}

// ListParams carries pagination, filtering, and sorting for a listing call.
type ListParams struct {
	Page    int
	Limit   int
	Filters Filters
	SortBy  SortField
	Order   SortOrder
}

func (p *ListParams) setDefaults() {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.SortBy == "" {
		p.SortBy = SortPublishedAt
	}
	if p.Order == "" {
		if p.SortBy == SortPublishedAt {
			p.Order = OrderDesc
		} else {
			p.Order = OrderAsc
		}
	}
}

// Engine answers read-only queries over the post catalog: filtering, sorting,
// pagination, search, related-post suggestion, and the year/month archive.
// Aside from the view counter bumped by GetPostBySlug it never mutates the
// collection.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an Engine over the given catalog.
func NewEngine(c *Catalog) *Engine {
	return &Engine{catalog: c}
}

// ListPosts returns one page of posts matching params. Public listings see
// published posts only; an explicit status filter replaces that default.
// A page past the end yields an empty page, not an error.
func (e *Engine) ListPosts(params ListParams) (*PostPage, error) {
	params.setDefaults()
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	status := StatusPublished
	if params.Filters.Status != "" {
		if !params.Filters.Status.Valid() {
			return nil, InvalidParamErr("status " + string(params.Filters.Status))
		}
		status = params.Filters.Status
	}
	matched := filterPosts(posts, status, params.Filters)
	sortPosts(matched, params.SortBy, params.Order)
	return paginate(matched, params.Page, params.Limit), nil
}

// GetPostBySlug returns the published post with the given slug, bumping its
// view counter by one. The slug match is exact and case-sensitive. Returns
// ErrNotFound when no published post carries the slug.
func (e *Engine) GetPostBySlug(slug string) (*BlogPost, error) {
	return e.catalog.ViewPost(slug)
}

// PeekPostBySlug is GetPostBySlug without the view-counter side effect.
func (e *Engine) PeekPostBySlug(slug string) (*BlogPost, error) {
	return e.catalog.PeekPost(slug)
}

// PublishedPosts returns every published post, newest first.
func (e *Engine) PublishedPosts() ([]BlogPost, error) {
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	published := publishedOnly(posts)
	sortPosts(published, SortPublishedAt, OrderDesc)
	return published, nil
}

// SearchPosts returns every published post whose title, excerpt, or block
// text contains query, case-insensitively. Results keep store order; no
// relevance ranking is applied.
func (e *Engine) SearchPosts(query string) ([]BlogPost, error) {
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []BlogPost{}
	for _, p := range posts {
		if p.Published() && matchesSearch(&p, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// FeaturedPosts returns all published posts flagged featured, in store order.
func (e *Engine) FeaturedPosts() ([]BlogPost, error) {
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	out := []BlogPost{}
	for _, p := range posts {
		if p.Published() && p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecentPosts returns the limit most recently published posts,
// newest first.
func (e *Engine) RecentPosts(limit int) ([]BlogPost, error) {
	if limit < 1 {
		return nil, InvalidParamErr("limit must be >= 1")
	}
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	recent := publishedOnly(posts)
	sortPosts(recent, SortPublishedAt, OrderDesc)
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// RelatedPosts suggests up to limit published posts related to the post with
// the given id. Relevance is the count of shared category and tag slugs;
// ties go to the more recently published candidate. Posts sharing nothing
// with the source are excluded.
func (e *Engine) RelatedPosts(postID string, limit int) ([]BlogPost, error) {
	if limit < 1 {
		limit = DefaultRelatedLimit
	}
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	var source *BlogPost
	for i := range posts {
		if posts[i].ID == postID {
			source = &posts[i]
			break
		}
	}
	if source == nil {
		return nil, NotFoundErr("id " + postID)
	}

	catSet := make(map[string]struct{}, len(source.Categories))
	for _, c := range source.Categories {
		catSet[c.Slug] = struct{}{}
	}
	tagSet := make(map[string]struct{}, len(source.Tags))
	for _, t := range source.Tags {
		tagSet[t.Slug] = struct{}{}
	}

	type scored struct {
		post  BlogPost
		score int
	}
	var candidates []scored
	for _, p := range posts {
		if p.ID == postID || !p.Published() {
			continue
		}
		score := 0
		for _, c := range p.Categories {
			if _, ok := catSet[c.Slug]; ok {
				score++
			}
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[t.Slug]; ok {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{post: p, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].post.PublishedAt.After(candidates[j].post.PublishedAt)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]BlogPost, len(candidates))
	for i, c := range candidates {
		out[i] = c.post
	}
	return out, nil
}

// PostsByCategory lists posts in the category with the given slug, composed
// with any further filters, sort, and pagination in params.
func (e *Engine) PostsByCategory(categorySlug string, params ListParams) (*PostPage, error) {
	params.Filters.Category = categorySlug
	return e.ListPosts(params)
}

// PostsByTag lists posts carrying the tag with the given slug, composed with
// any further filters, sort, and pagination in params.
func (e *Engine) PostsByTag(tagSlug string, params ListParams) (*PostPage, error) {
	params.Filters.Tag = tagSlug
	return e.ListPosts(params)
}

// Archive groups every published post by calendar year and month of its
// publication date. Years descend, months descend within a year, and posts
// descend by publication date within a month. Flattening the result yields
// exactly the published-post set.
func (e *Engine) Archive() ([]ArchiveYear, error) {
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	published := publishedOnly(posts)
	sortPosts(published, SortPublishedAt, OrderDesc)

	archive := []ArchiveYear{}
	for _, p := range published {
		year, month := p.PublishedAt.Year(), p.PublishedAt.Month()
		if len(archive) == 0 || archive[len(archive)-1].Year != year {
			archive = append(archive, ArchiveYear{Year: year})
		}
		y := &archive[len(archive)-1]
		if len(y.Months) == 0 || y.Months[len(y.Months)-1].Month != month {
			y.Months = append(y.Months, ArchiveMonth{Month: month})
		}
		m := &y.Months[len(y.Months)-1]
		m.Posts = append(m.Posts, p)
		m.Count++
	}
	return archive, nil
}

// AllPosts is the admin listing: no implicit status filter, every lifecycle
// state visible. Otherwise identical to ListPosts.
func (e *Engine) AllPosts(params ListParams) (*PostPage, error) {
	params.setDefaults()
	posts, err := e.catalog.Posts()
	if err != nil {
		return nil, err
	}
	matched := filterPosts(posts, "", params.Filters)
	sortPosts(matched, params.SortBy, params.Order)
	return paginate(matched, params.Page, params.Limit), nil
}

// TotalViews sums the view counters across the whole collection, drafts and
// scheduled posts included.
func (e *Engine) TotalViews() (int64, error) {
	posts, err := e.catalog.Posts()
	if err != nil {
		return 0, err
	}
	var total int64
	for i := range posts {
		total += posts[i].ViewCount
	}
	return total, nil
}

func publishedOnly(posts []BlogPost) []BlogPost {
	out := []BlogPost{}
	for _, p := range posts {
		if p.Published() {
			out = append(out, p)
		}
	}
	return out
}

// filterPosts keeps posts matching status (empty = any) and every set filter.
// It always returns a fresh slice so callers may sort it in place.
func filterPosts(posts []BlogPost, status Status, f Filters) []BlogPost {
	q := strings.ToLower(f.Search)
	out := []BlogPost{}
	for _, p := range posts {
		if status != "" && p.Status != status {
			continue
		}
		if f.Category != "" && !p.HasCategory(f.Category) {
			continue
		}
		if f.Tag != "" && !p.HasTag(f.Tag) {
			continue
		}
		if f.Author != "" && p.Author.ID != f.Author {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if !f.DateFrom.IsZero() && p.PublishedAt.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && p.PublishedAt.After(f.DateTo) {
			continue
		}
		if q != "" && !matchesSearch(&p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesSearch reports whether the lowercased needle q occurs in the post's
// title, excerpt, or any content block text.
func matchesSearch(p *BlogPost, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Excerpt), q) {
		return true
	}
	for _, b := range p.Content {
		if b.Text != "" && strings.Contains(strings.ToLower(b.Text), q) {
			return true
		}
	}
	return false
}

// sortPosts orders posts in place. The sort is stable, so posts with equal
// keys keep their store order.
func sortPosts(posts []BlogPost, field SortField, order SortOrder) {
	less := func(a, b *BlogPost) bool {
		switch field {
		case SortUpdatedAt:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case SortTitle:
			return a.Title < b.Title
		case SortViewCount:
			return a.ViewCount < b.ViewCount
		default:
			return a.PublishedAt.Before(b.PublishedAt)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if order == OrderDesc {
			return less(&posts[j], &posts[i])
		}
		return less(&posts[i], &posts[j])
	})
}

func paginate(posts []BlogPost, page, limit int) *PostPage {
	total := len(posts)
	start := (page - 1) * limit
	end := start + limit
	items := []BlogPost{}
	if start < total {
		if end > total {
			end = total
		}
		items = append(items, posts[start:end]...)
	}
	return &PostPage{
		Items:   items,
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasNext: start+limit < total,
		HasPrev: start > 0,
	}
}
