package blogengine

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

var (
	authorAna = Author{ID: "a1", Name: "Ana Reyes", Email: "ana@example.com"}
	authorBen = Author{ID: "a2", Name: "Ben Okafor", Email: "ben@example.com"}

	catAdventure = Category{ID: "c1", Name: "Adventure", Slug: "adventure"}
	catBeaches   = Category{ID: "c2", Name: "Beaches", Slug: "beaches"}
	catFood      = Category{ID: "c3", Name: "Food", Slug: "food"}

	tagTrek   = Tag{ID: "t1", Name: "Trek", Slug: "trek"}
	tagBudget = Tag{ID: "t2", Name: "Budget", Slug: "budget"}
	tagBeach  = Tag{ID: "t3", Name: "Beach", Slug: "beach"}
)

// samplePosts returns the fixture collection in store order
// (publishedAt descending).
func samplePosts() []BlogPost {
	return []BlogPost{
		{
			ID: "p-zion", Slug: "zion-canyon-guide", Title: "Zion Canyon Guide",
			Excerpt: "Slot canyons and sandstone cliffs",
			Content: []ContentBlock{{Type: BlockParagraph, Text: "The narrows reward an early start."}},
			Author:  authorAna, Categories: []Category{catAdventure}, Tags: []Tag{tagTrek},
			PublishedAt: day(2024, time.March, 5), UpdatedAt: day(2024, time.March, 6),
			Status: StatusPublished, Featured: true, ViewCount: 40, ReadingTime: 7,
		},
		{
			ID: "p-andes", Slug: "andes-crossing", Title: "Andes Crossing",
			Excerpt: "Two weeks above four thousand meters",
			Content: []ContentBlock{{Type: BlockParagraph, Text: "Acclimatize before the first pass."}},
			Author:  authorBen, Categories: []Category{catAdventure}, Tags: []Tag{tagTrek, tagBudget},
			PublishedAt: day(2024, time.January, 20), UpdatedAt: day(2024, time.January, 21),
			Status: StatusPublished, ViewCount: 10, ReadingTime: 9,
		},
		{
			ID: "p-himalaya", Slug: "five-passes", Title: "Five Passes",
			Excerpt: "Notes from a Himalayan Trek",
			Content: []ContentBlock{{Type: BlockParagraph, Text: "Tea houses every few hours."}},
			Author:  authorAna, Categories: []Category{catAdventure}, Tags: []Tag{tagTrek},
			PublishedAt: day(2024, time.January, 10), UpdatedAt: day(2024, time.January, 10),
			Status: StatusPublished, ViewCount: 25, ReadingTime: 12,
		},
		{
			ID: "p-beach", Slug: "budget-beach-week", Title: "Budget Beach Week",
			Excerpt: "Seven days of sand for very little money",
			Author:  authorAna, Categories: []Category{catBeaches}, Tags: []Tag{tagBeach, tagBudget},
			PublishedAt: day(2023, time.December, 1), UpdatedAt: day(2023, time.December, 2),
			Status: StatusPublished, Featured: true, ViewCount: 90, ReadingTime: 5,
		},
		{
			ID: "p-bali", Slug: "bali-shoestring", Title: "Bali on a Shoestring",
			Excerpt: "Warungs, scooters, and quiet coves",
			Author:  authorBen, Categories: []Category{catBeaches}, Tags: []Tag{tagBeach},
			PublishedAt: day(2023, time.November, 15), UpdatedAt: day(2023, time.November, 15),
			Status: StatusPublished, ViewCount: 70, ReadingTime: 6,
		},
		{
			ID: "p-food", Slug: "hanoi-street-food", Title: "Street Food in Hanoi",
			Excerpt: "Plastic stools and pho at dawn",
			Author:  authorBen, Categories: []Category{catFood}, Tags: nil,
			PublishedAt: day(2023, time.October, 2), UpdatedAt: day(2023, time.October, 2),
			Status: StatusPublished, ViewCount: 5, ReadingTime: 4,
		},
		{
			ID: "p-crete", Slug: "crete-on-a-budget", Title: "Crete on a Budget",
			Excerpt: "Shoulder-season ferries and empty beaches",
			Author:  authorAna, Categories: []Category{catBeaches}, Tags: []Tag{tagBeach, tagBudget},
			PublishedAt: day(2023, time.September, 1), UpdatedAt: day(2023, time.September, 1),
			Status: StatusPublished, ViewCount: 55, ReadingTime: 8,
		},
		{
			ID: "p-draft", Slug: "unwritten-draft", Title: "Unwritten Draft",
			Excerpt: "Not ready yet",
			Author:  authorAna, Categories: []Category{catAdventure}, Tags: []Tag{tagTrek},
			PublishedAt: day(2024, time.May, 1), UpdatedAt: day(2024, time.May, 1),
			Status: StatusDraft, ViewCount: 0, ReadingTime: 3,
		},
		{
			ID: "p-sched", Slug: "north-cape-winter", Title: "North Cape in Winter",
			Excerpt: "Scheduled for the season",
			Author:  authorBen, Categories: []Category{catAdventure}, Tags: nil,
			PublishedAt: day(2024, time.June, 1), UpdatedAt: day(2024, time.June, 1),
			Status: StatusScheduled, ViewCount: 0, ReadingTime: 3,
		},
	}
}

func testEngine() *Engine {
	return NewEngine(NewStaticCatalog(samplePosts()))
}

const publishedCount = 7

func TestListPostsPublishedOnly(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{Limit: 100})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != publishedCount {
		t.Fatalf("Total = %d, want %d", page.Total, publishedCount)
	}
	for _, p := range page.Items {
		if p.Status != StatusPublished {
			t.Errorf("public listing leaked %s post %s", p.Status, p.Slug)
		}
	}
}

func TestListPostsDefaultSort(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{Limit: 100})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].PublishedAt.After(page.Items[i-1].PublishedAt) {
			t.Errorf("default sort not publishedAt desc: %s before %s",
				page.Items[i-1].Slug, page.Items[i].Slug)
		}
	}
}

func TestListPostsCategoryFilterTitleSort(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{
		Page:    1,
		Limit:   2,
		Filters: Filters{Category: "adventure"},
		SortBy:  SortTitle,
		Order:   OrderAsc,
	})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3", page.Total)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if page.Items[0].Title != "Andes Crossing" || page.Items[1].Title != "Five Passes" {
		t.Errorf("title sort gave [%s, %s]", page.Items[0].Title, page.Items[1].Title)
	}
	if !page.HasNext {
		t.Error("HasNext should be true with a third match remaining")
	}
	if page.HasPrev {
		t.Error("HasPrev should be false on page 1")
	}
}

func TestListPostsPaginationBounds(t *testing.T) {
	e := testEngine()
	limit := 3
	seen := map[string]bool{}
	for pageNum := 1; ; pageNum++ {
		page, err := e.ListPosts(ListParams{Page: pageNum, Limit: limit})
		if err != nil {
			t.Fatalf("page %d failed: %v", pageNum, err)
		}
		if len(page.Items) > limit {
			t.Fatalf("page %d has %d items, limit %d", pageNum, len(page.Items), limit)
		}
		if page.HasNext && len(page.Items) != limit {
			t.Errorf("page %d is short (%d items) but claims HasNext", pageNum, len(page.Items))
		}
		if (pageNum > 1) != page.HasPrev {
			t.Errorf("page %d HasPrev = %v", pageNum, page.HasPrev)
		}
		for _, p := range page.Items {
			if seen[p.ID] {
				t.Errorf("post %s appeared twice across pages", p.Slug)
			}
			seen[p.ID] = true
		}
		if !page.HasNext {
			break
		}
	}
	if len(seen) != publishedCount {
		t.Errorf("pages covered %d posts, want %d", len(seen), publishedCount)
	}
}

func TestListPostsOutOfRangePage(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{Page: 99, Limit: 10})
	if err != nil {
		t.Fatalf("out-of-range page should not error: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("items = %d, want 0", len(page.Items))
	}
	if page.HasNext {
		t.Error("HasNext should be false past the end")
	}
	if page.Total != publishedCount {
		t.Errorf("Total = %d, want %d", page.Total, publishedCount)
	}

	// hasPrev derives from the offset alone, even when nothing matched.
	empty, err := e.ListPosts(ListParams{Page: 3, Limit: 10, Filters: Filters{Category: "no-such-category"}})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if empty.Total != 0 || len(empty.Items) != 0 {
		t.Errorf("Total = %d, items = %d, want empty page", empty.Total, len(empty.Items))
	}
	if !empty.HasPrev {
		t.Error("HasPrev should be true on page 3")
	}
	if empty.HasNext {
		t.Error("HasNext should be false on an empty result set")
	}
}

func TestListPostsDateRangeInclusive(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{
		Limit: 100,
		Filters: Filters{
			DateFrom: day(2024, time.January, 10),
			DateTo:   day(2024, time.January, 20),
		},
	})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("Total = %d, want 2 (both boundary days inclusive)", page.Total)
	}
	for _, p := range page.Items {
		if p.Slug != "andes-crossing" && p.Slug != "five-passes" {
			t.Errorf("unexpected post %s in date range", p.Slug)
		}
	}
}

func TestListPostsFeaturedAndAuthorFilters(t *testing.T) {
	e := testEngine()
	featured := true
	page, err := e.ListPosts(ListParams{
		Limit:   100,
		Filters: Filters{Featured: &featured, Author: "a1"},
	})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("Total = %d, want 2", page.Total)
	}
	for _, p := range page.Items {
		if !p.Featured || p.Author.ID != "a1" {
			t.Errorf("post %s does not match featured+author filter", p.Slug)
		}
	}
}

func TestListPostsStatusOverride(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{Limit: 100, Filters: Filters{Status: StatusDraft}})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if page.Total != 1 || page.Items[0].Slug != "unwritten-draft" {
		t.Errorf("status filter should surface only the draft, got %+v", page.Items)
	}

	_, err = e.ListPosts(ListParams{Filters: Filters{Status: Status("bogus")}})
	if !errors.Is(err, &Error{Code: CodeInvalidParam}) {
		t.Errorf("unknown status should be an invalid_param error, got %v", err)
	}
}

func TestListPostsFilterIdempotent(t *testing.T) {
	e := testEngine()
	params := ListParams{Limit: 100, Filters: Filters{Tag: "beach", Search: "beaches"}}
	first, err := e.ListPosts(params)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := e.ListPosts(params)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if first.Total != second.Total || len(first.Items) != len(second.Items) {
		t.Fatalf("filter not idempotent: %d/%d vs %d/%d",
			first.Total, len(first.Items), second.Total, len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Errorf("item %d differs between identical calls", i)
		}
	}
}

func TestSortByViewCount(t *testing.T) {
	e := testEngine()
	page, err := e.ListPosts(ListParams{Limit: 100, SortBy: SortViewCount, Order: OrderDesc})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].ViewCount > page.Items[i-1].ViewCount {
			t.Errorf("viewCount sort out of order at %d: %d > %d",
				i, page.Items[i].ViewCount, page.Items[i-1].ViewCount)
		}
	}
}

func TestSortStableOnTies(t *testing.T) {
	posts := samplePosts()
	// Give two posts the same publication instant; store order must decide.
	posts[1].PublishedAt = posts[2].PublishedAt
	e := NewEngine(NewStaticCatalog(posts))

	page, err := e.ListPosts(ListParams{Limit: 100})
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	iAndes, iHimalaya := -1, -1
	for i, p := range page.Items {
		switch p.ID {
		case "p-andes":
			iAndes = i
		case "p-himalaya":
			iHimalaya = i
		}
	}
	if iAndes == -1 || iHimalaya == -1 {
		t.Fatal("fixture posts missing from listing")
	}
	if iAndes > iHimalaya {
		t.Errorf("tie-break should keep store order: andes at %d, himalaya at %d", iAndes, iHimalaya)
	}
}

func TestGetPostBySlugIncrements(t *testing.T) {
	e := testEngine()
	var got *BlogPost
	for i := 0; i < 3; i++ {
		p, err := e.GetPostBySlug("andes-crossing")
		if err != nil {
			t.Fatalf("GetPostBySlug failed: %v", err)
		}
		got = p
	}
	if got.ViewCount != 13 {
		t.Errorf("ViewCount = %d, want 13 after three views of a post starting at 10", got.ViewCount)
	}

	// The increment must be visible to later viewCount-sorted queries.
	peek, err := e.PeekPostBySlug("andes-crossing")
	if err != nil {
		t.Fatalf("PeekPostBySlug failed: %v", err)
	}
	if peek.ViewCount != 13 {
		t.Errorf("peek ViewCount = %d, want 13", peek.ViewCount)
	}
}

func TestGetPostBySlugNotFound(t *testing.T) {
	e := testEngine()
	cases := []string{
		"no-such-post",
		"unwritten-draft",   // exists but draft
		"north-cape-winter", // exists but scheduled
		"Andes-Crossing",    // slug match is case-sensitive
		"ANDES-CROSSING",
	}
	for _, slug := range cases {
		if _, err := e.GetPostBySlug(slug); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetPostBySlug(%q) = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestViewPostConcurrent(t *testing.T) {
	e := testEngine()
	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := e.GetPostBySlug("five-passes"); err != nil {
				t.Errorf("concurrent view failed: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := e.PeekPostBySlug("five-passes")
	if err != nil {
		t.Fatalf("PeekPostBySlug failed: %v", err)
	}
	if p.ViewCount != 25+workers {
		t.Errorf("ViewCount = %d, want %d (no lost updates)", p.ViewCount, 25+workers)
	}
}

// Listings iterate the catalog slice outside the lock, so view-counter
// updates must never write into a slice a reader may still hold.
func TestViewPostConcurrentWithListing(t *testing.T) {
	e := testEngine()
	const pairs = 8
	var wg sync.WaitGroup
	wg.Add(pairs * 2)
	for i := 0; i < pairs; i++ {
		go func() {
			defer wg.Done()
			params := ListParams{SortBy: SortViewCount, Order: OrderDesc}
			if _, err := e.ListPosts(params); err != nil {
				t.Errorf("concurrent listing failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := e.GetPostBySlug("five-passes"); err != nil {
				t.Errorf("concurrent view failed: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := e.PeekPostBySlug("five-passes")
	if err != nil {
		t.Fatalf("PeekPostBySlug failed: %v", err)
	}
	if p.ViewCount != 25+pairs {
		t.Errorf("ViewCount = %d, want %d", p.ViewCount, 25+pairs)
	}
}

func TestSearchPostsCaseInsensitive(t *testing.T) {
	e := testEngine()
	for _, q := range []string{"trek", "TREK", "Trek"} {
		posts, err := e.SearchPosts(q)
		if err != nil {
			t.Fatalf("SearchPosts(%q) failed: %v", q, err)
		}
		found := false
		for _, p := range posts {
			if p.Slug == "five-passes" {
				found = true
			}
			if p.Slug == "hanoi-street-food" {
				t.Errorf("SearchPosts(%q) matched a post without the substring", q)
			}
		}
		if !found {
			t.Errorf("SearchPosts(%q) missed the excerpt match", q)
		}
	}
}

func TestSearchPostsMatchesBlockText(t *testing.T) {
	e := testEngine()
	posts, err := e.SearchPosts("tea houses")
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "five-passes" {
		t.Errorf("block-text search gave %+v", posts)
	}
}

func TestSearchPostsKeepsStoreOrder(t *testing.T) {
	e := testEngine()
	posts, err := e.SearchPosts("a")
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].PublishedAt.After(posts[i-1].PublishedAt) {
			t.Errorf("search results reordered away from store order at %d", i)
		}
	}
}

func TestFeaturedPostsStoreOrder(t *testing.T) {
	e := testEngine()
	posts, err := e.FeaturedPosts()
	if err != nil {
		t.Fatalf("FeaturedPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("featured count = %d, want 2", len(posts))
	}
	if posts[0].Slug != "zion-canyon-guide" || posts[1].Slug != "budget-beach-week" {
		t.Errorf("featured order = [%s, %s], want store order", posts[0].Slug, posts[1].Slug)
	}
}

func TestRecentPosts(t *testing.T) {
	e := testEngine()
	posts, err := e.RecentPosts(3)
	if err != nil {
		t.Fatalf("RecentPosts failed: %v", err)
	}
	want := []string{"zion-canyon-guide", "andes-crossing", "five-passes"}
	if len(posts) != len(want) {
		t.Fatalf("recent count = %d, want %d", len(posts), len(want))
	}
	for i, slug := range want {
		if posts[i].Slug != slug {
			t.Errorf("recent[%d] = %s, want %s", i, posts[i].Slug, slug)
		}
	}

	if _, err := e.RecentPosts(0); !errors.Is(err, &Error{Code: CodeInvalidParam}) {
		t.Errorf("RecentPosts(0) = %v, want invalid_param error", err)
	}
}

func TestRelatedPostsScoring(t *testing.T) {
	e := testEngine()
	// Source shares tags {beach, budget} and category beaches.
	related, err := e.RelatedPosts("p-beach", 3)
	if err != nil {
		t.Fatalf("RelatedPosts failed: %v", err)
	}
	if len(related) != 3 {
		t.Fatalf("related count = %d, want 3", len(related))
	}
	// crete shares category + both tags, bali category + one tag,
	// andes one tag only.
	want := []string{"crete-on-a-budget", "bali-shoestring", "andes-crossing"}
	for i, slug := range want {
		if related[i].Slug != slug {
			t.Errorf("related[%d] = %s, want %s", i, related[i].Slug, slug)
		}
	}
	for _, p := range related {
		if p.ID == "p-beach" {
			t.Error("related posts must exclude the source post")
		}
		if p.ID == "p-food" {
			t.Error("a post sharing nothing must not be suggested")
		}
	}
}

func TestRelatedPostsUnknownSource(t *testing.T) {
	e := testEngine()
	if _, err := e.RelatedPosts("no-such-id", 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("RelatedPosts for unknown id = %v, want ErrNotFound", err)
	}
}

func TestPostsByCategoryComposition(t *testing.T) {
	e := testEngine()
	page, err := e.PostsByCategory("beaches", ListParams{
		Limit:   100,
		Filters: Filters{Tag: "budget"},
	})
	if err != nil {
		t.Fatalf("PostsByCategory failed: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("Total = %d, want 2 (beaches AND budget)", page.Total)
	}
	for _, p := range page.Items {
		if !p.HasCategory("beaches") || !p.HasTag("budget") {
			t.Errorf("post %s escaped the composed filter", p.Slug)
		}
	}
}

func TestPostsByTag(t *testing.T) {
	e := testEngine()
	page, err := e.PostsByTag("trek", ListParams{Limit: 100})
	if err != nil {
		t.Fatalf("PostsByTag failed: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("Total = %d, want 3 published trek posts", page.Total)
	}
}

func TestArchiveGrouping(t *testing.T) {
	e := testEngine()
	archive, err := e.Archive()
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if len(archive) != 2 {
		t.Fatalf("years = %d, want 2", len(archive))
	}
	if archive[0].Year != 2024 || archive[1].Year != 2023 {
		t.Fatalf("years = [%d, %d], want descending [2024, 2023]", archive[0].Year, archive[1].Year)
	}

	y2024 := archive[0]
	if len(y2024.Months) != 2 {
		t.Fatalf("2024 months = %d, want 2", len(y2024.Months))
	}
	if y2024.Months[0].Month != time.March || y2024.Months[0].Count != 1 {
		t.Errorf("2024 first month = %v(%d), want March(1)", y2024.Months[0].Month, y2024.Months[0].Count)
	}
	if y2024.Months[1].Month != time.January || y2024.Months[1].Count != 2 {
		t.Errorf("2024 second month = %v(%d), want January(2)", y2024.Months[1].Month, y2024.Months[1].Count)
	}
}

func TestArchiveCoversPublishedSetExactly(t *testing.T) {
	e := testEngine()
	archive, err := e.Archive()
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	flat := map[string]int{}
	for _, y := range archive {
		for i := 1; i < len(y.Months); i++ {
			if y.Months[i].Month >= y.Months[i-1].Month {
				t.Errorf("%d months not strictly descending", y.Year)
			}
		}
		for _, m := range y.Months {
			if m.Count != len(m.Posts) {
				t.Errorf("%d-%d Count=%d but %d posts", y.Year, m.Month, m.Count, len(m.Posts))
			}
			for _, p := range m.Posts {
				flat[p.ID]++
			}
		}
	}
	if len(flat) != publishedCount {
		t.Errorf("archive covers %d posts, want %d", len(flat), publishedCount)
	}
	for id, n := range flat {
		if n != 1 {
			t.Errorf("post %s appears %d times in the archive", id, n)
		}
	}
	if _, ok := flat["p-draft"]; ok {
		t.Error("draft leaked into the archive")
	}
}
