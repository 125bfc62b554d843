package blogengine

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// buildSitemap lists the static section pages, every published post, and
// every category and tag index. Featured posts get a higher priority.
func buildSitemap(cfg SiteConfig, posts []BlogPost, categories []Category, tags []Tag, now time.Time) sitemapURLSet {
	today := now.UTC().Format("2006-01-02")
	urls := make([]sitemapURL, 0, len(cfg.StaticPages)+len(posts)+len(categories)+len(tags))
	for _, page := range cfg.StaticPages {
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(cfg.URL, page),
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "1.0",
		})
	}
	for _, p := range posts {
		priority := "0.8"
		if p.Featured {
			priority = "0.9"
		}
		lastMod := p.UpdatedAt
		if lastMod.IsZero() {
			lastMod = p.PublishedAt
		}
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(cfg.URL, "blog", p.Slug),
			LastMod:    lastMod.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}
	for _, c := range categories {
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(cfg.URL, "blog", "category", c.Slug),
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{
			Loc:        BuildURL(cfg.URL, "blog", "tag", t.Slug),
			LastMod:    today,
			ChangeFreq: "weekly",
			Priority:   "0.6",
		})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, posts []BlogPost, categories []Category, tags []Tag) error {
	sitemap := buildSitemap(a.Config, posts, categories, tags, time.Now())
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
