// Package stats tracks per-post view events in SQLite and serves the
// aggregates behind the admin stats endpoint. Events are bucketed per day;
// old buckets are pruned by a background scheduler.
package stats

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const dayFormat = "2006-01-02"

// Store provides database operations for view statistics.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the stats database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS post_views (
			post_id TEXT NOT NULL,
			day TEXT NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (post_id, day)
		);

		CREATE INDEX IF NOT EXISTS idx_post_views_day ON post_views(day);
	`)
	return err
}

// Record counts one view of the given post in the event's daily bucket.
// The increment happens inside SQLite, so concurrent recorders never lose
// an event.
func (s *Store) Record(postID string, at time.Time) error {
	day := at.UTC().Format(dayFormat)
	_, err := s.db.Exec(`
		INSERT INTO post_views (post_id, day, count) VALUES (?, ?, 1)
		ON CONFLICT(post_id, day) DO UPDATE SET count = count + 1`,
		postID, day)
	return err
}

// TopPost is one row of the views-per-post ranking.
type TopPost struct {
	PostID string
	Count  int64
}

// TopPosts returns the most viewed posts since the given time, busiest first.
func (s *Store) TopPosts(limit int, since time.Time) ([]TopPost, error) {
	rows, err := s.db.Query(`
		SELECT post_id, SUM(count) AS views
		FROM post_views
		WHERE day >= ?
		GROUP BY post_id
		ORDER BY views DESC, post_id ASC
		LIMIT ?`,
		since.UTC().Format(dayFormat), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopPost
	for rows.Next() {
		var t TopPost
		if err := rows.Scan(&t.PostID, &t.Count); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DailyCount is the total views recorded on one day.
type DailyCount struct {
	Day   string
	Count int64
}

// DailyCounts returns per-day totals for the last n days, oldest first.
func (s *Store) DailyCounts(days int) ([]DailyCount, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(dayFormat)
	rows, err := s.db.Query(`
		SELECT day, SUM(count)
		FROM post_views
		WHERE day >= ?
		GROUP BY day
		ORDER BY day ASC`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyCount
	for rows.Next() {
		var d DailyCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CleanupOldViews deletes daily buckets older than retentionDays.
func (s *Store) CleanupOldViews(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(dayFormat)
	_, err := s.db.Exec(`DELETE FROM post_views WHERE day < ?`, cutoff)
	return err
}

// StartCleanupScheduler runs periodic cleanup of old data. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldViews(retentionDays); err != nil {
					fmt.Printf("stats cleanup error: %v\n", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
