package blogengine

import "time"

// SiteConfig holds all configuration for a blogengine service.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description used in the RSS channel
	Language    string // RSS channel language (default "en-us")
	Copyright   string // RSS channel copyright line
	WebMaster   string // RSS channel webMaster email
	Editor      string // RSS channel managingEditor email
	FeedLimit   int    // Number of posts in the RSS feed (default 20)
	FeedTTL     int    // RSS channel ttl in minutes (default 60)

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/blog.db")
	SeedPath     string // JSON seed file loaded at startup (optional)

	StatsEnabled       bool   // Enable view statistics (default off)
	StatsDatabasePath  string // Stats SQLite path (default "data/stats.db")
	StatsRetentionDays int    // Days of view events to keep (default 365)

	AdminPassword string // Required when admin routes are enabled
	SessionSecret string // Required when admin routes are enabled
	CookieSecure  bool   // Set true for HTTPS deployments

	CatalogTTL time.Duration // Catalog refresh interval (default 5min)

	// StaticPages are site sections included in the sitemap alongside
	// blog content (paths relative to URL).
	StaticPages []string
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Language == "" {
		c.Language = "en-us"
	}
	if c.FeedLimit == 0 {
		c.FeedLimit = 20
	}
	if c.FeedTTL == 0 {
		c.FeedTTL = 60
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.StatsDatabasePath == "" {
		c.StatsDatabasePath = "data/stats.db"
	}
	if c.StatsRetentionDays == 0 {
		c.StatsRetentionDays = 365
	}
	if c.CatalogTTL == 0 {
		c.CatalogTTL = 5 * time.Minute
	}
	if c.StaticPages == nil {
		c.StaticPages = []string{"", "destinations", "tours", "blog", "about", "contact"}
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStore injects an already-open store, bypassing DatabasePath.
// Useful for tests that share a store between the app and assertions.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
