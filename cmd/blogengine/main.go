package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/voyagio/blogengine"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := blogengine.SiteConfig{
		Name:        blogengine.EnvOr("SITE_NAME", "Voyagio Travel Blog"),
		URL:         blogengine.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: blogengine.EnvOr("SITE_DESCRIPTION", "Travel stories, destination guides, and tips"),
		Language:    blogengine.EnvOr("SITE_LANGUAGE", "en-us"),
		Copyright:   os.Getenv("SITE_COPYRIGHT"),
		WebMaster:   os.Getenv("SITE_WEBMASTER"),
		Editor:      os.Getenv("SITE_EDITOR"),

		Addr:         blogengine.EnvOr("ADDR", ":3000"),
		DatabasePath: blogengine.EnvOr("DATABASE_PATH", "data/blog.db"),
		SeedPath:     os.Getenv("SEED_PATH"),

		StatsEnabled:      envBool("STATS_ENABLED"),
		StatsDatabasePath: blogengine.EnvOr("STATS_DATABASE_PATH", "data/stats.db"),

		AdminPassword: blogengine.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: blogengine.MustEnv("SESSION_SECRET"),
		CookieSecure:  envBool("COOKIE_SECURE"),

		CatalogTTL: envDuration("CATALOG_TTL", 5*time.Minute),
	}

	app := blogengine.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
