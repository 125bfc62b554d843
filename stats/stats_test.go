package stats

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndTopPosts(t *testing.T) {
	s := setupTestStore(t)
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := s.Record("p-zion", now); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := s.Record("p-andes", now); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	top, err := s.TopPosts(10, now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("TopPosts failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("top = %d rows, want 2", len(top))
	}
	if top[0].PostID != "p-zion" || top[0].Count != 3 {
		t.Errorf("top[0] = %+v, want p-zion with 3 views", top[0])
	}
	if top[1].PostID != "p-andes" || top[1].Count != 1 {
		t.Errorf("top[1] = %+v, want p-andes with 1 view", top[1])
	}
}

func TestTopPostsRespectsSince(t *testing.T) {
	s := setupTestStore(t)
	old := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	if err := s.Record("p-old", old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record("p-new", recent); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	top, err := s.TopPosts(10, recent.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("TopPosts failed: %v", err)
	}
	if len(top) != 1 || top[0].PostID != "p-new" {
		t.Errorf("top = %+v, want only the recent post", top)
	}
}

func TestDailyCounts(t *testing.T) {
	s := setupTestStore(t)
	d1 := time.Now().UTC().AddDate(0, 0, -2)
	d2 := time.Now().UTC().AddDate(0, 0, -1)

	if err := s.Record("p1", d1); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record("p2", d1); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record("p1", d2); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	daily, err := s.DailyCounts(7)
	if err != nil {
		t.Fatalf("DailyCounts failed: %v", err)
	}
	if len(daily) != 2 {
		t.Fatalf("daily = %d rows, want 2", len(daily))
	}
	if daily[0].Day != d1.Format(dayFormat) || daily[0].Count != 2 {
		t.Errorf("daily[0] = %+v, want %s with 2 views", daily[0], d1.Format(dayFormat))
	}
	if daily[1].Count != 1 {
		t.Errorf("daily[1] = %+v, want 1 view", daily[1])
	}
}

func TestCleanupOldViews(t *testing.T) {
	s := setupTestStore(t)
	old := time.Now().UTC().AddDate(0, 0, -400)
	recent := time.Now().UTC()

	if err := s.Record("p1", old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record("p1", recent); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := s.CleanupOldViews(365); err != nil {
		t.Fatalf("CleanupOldViews failed: %v", err)
	}

	top, err := s.TopPosts(10, old.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("TopPosts failed: %v", err)
	}
	if len(top) != 1 || top[0].Count != 1 {
		t.Errorf("after cleanup top = %+v, want a single remaining view", top)
	}
}
