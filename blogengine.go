// Package blogengine is the content service behind a travel site's blog:
// a read-only query engine over seeded posts with filtering, sorting,
// pagination, search, related-post suggestion, a year/month archive,
// an RSS feed, and a sitemap, served over a JSON/XML HTTP API.
//
// Content is seeded once at startup from a JSON file into SQLite and held in
// an in-memory catalog; the only write path is the per-post view counter.
package blogengine

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voyagio/blogengine/stats"
)

// App is the central blogengine application. It wires together the store,
// catalog, query engine, handlers, and middleware.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Store  *Store
	Engine *Engine

	catalog      *Catalog
	loginLimiter *loginLimiter
	statsStore   *stats.Store
	customRoutes []func(*App)
	stopCleanup  func()
}

// New creates a new blogengine App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the store, seeds it when a seed file is configured, and builds
// the catalog, engine, and routes. Start calls this; tests may call it
// directly and drive the Echo instance themselves.
func (a *App) Init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("blogengine: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("blogengine: SessionSecret is required")
	}

	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("blogengine: init store: %w", err)
		}
		a.Store = store
	}

	if a.Config.SeedPath != "" {
		if err := a.Store.SeedFromFile(a.Config.SeedPath); err != nil {
			return fmt.Errorf("blogengine: seed: %w", err)
		}
	}

	a.catalog = NewCatalog(a.Store, a.Config.CatalogTTL)
	a.Engine = NewEngine(a.catalog)
	a.loginLimiter = newLoginLimiter(5, time.Minute)

	if a.Config.StatsEnabled {
		statsStore, err := stats.NewStore(a.Config.StatsDatabasePath)
		if err != nil {
			return fmt.Errorf("blogengine: init stats: %w", err)
		}
		a.statsStore = statsStore
		a.stopCleanup = statsStore.StartCleanupScheduler(a.Config.StatsRetentionDays, 24*time.Hour)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and runs the HTTP server until it shuts down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Public XML surfaces
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/robots.txt", a.handleRobots)

	// Public JSON API
	api := e.Group("/api")
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/:slug", a.handleGetPost)
	api.GET("/posts/:slug/related", a.handleRelatedPosts)
	api.GET("/search", a.handleSearch)
	api.GET("/featured", a.handleFeatured)
	api.GET("/recent", a.handleRecent)
	api.GET("/archive", a.handleArchive)
	api.GET("/categories/:slug/posts", a.handlePostsByCategory)
	api.GET("/tags/:slug/posts", a.handlePostsByTag)

	// Admin
	e.POST("/admin/login", a.handleAdminLogin)
	e.POST("/admin/logout", handleAdminLogout)
	admin := e.Group("/admin/api", a.requireAdmin)
	admin.GET("/posts", a.handleAdminPosts)
	admin.GET("/stats", a.handleAdminStats)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	if a.statsStore != nil {
		a.statsStore.Close()
	}
	return nil
}
