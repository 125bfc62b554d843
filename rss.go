package blogengine

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// cdata renders its value inside a CDATA section.
type cdata struct {
	Value string `xml:",cdata"`
}

type rssXML struct {
	XMLName    xml.Name   `xml:"rss"`
	Version    string     `xml:"version,attr"`
	ContentNS  string     `xml:"xmlns:content,attr"`
	DublinCore string     `xml:"xmlns:dc,attr"`
	Channel    rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title          cdata     `xml:"title"`
	Description    cdata     `xml:"description"`
	Link           string    `xml:"link"`
	Language       string    `xml:"language"`
	LastBuildDate  string    `xml:"lastBuildDate"`
	Generator      string    `xml:"generator"`
	WebMaster      string    `xml:"webMaster,omitempty"`
	ManagingEditor string    `xml:"managingEditor,omitempty"`
	Copyright      string    `xml:"copyright,omitempty"`
	Categories     []cdata   `xml:"category"`
	TTL            int       `xml:"ttl"`
	Image          *rssImage `xml:"image,omitempty"`
	Items          []rssItem `xml:"item"`
}

type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       cdata   `xml:"title"`
	Description cdata   `xml:"description"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
	Author      string  `xml:"author,omitempty"`
	Creator     *cdata  `xml:"dc:creator,omitempty"`
	Categories  []cdata `xml:"category"`
	Content     *cdata  `xml:"content:encoded,omitempty"`
}

// buildFeed assembles the RSS document for the given posts, which are
// expected to be the most recent published posts, newest first.
func buildFeed(cfg SiteConfig, posts []BlogPost, now time.Time) rssXML {
	items := make([]rssItem, 0, len(posts))
	for i := range posts {
		items = append(items, feedItem(cfg, &posts[i]))
	}
	channel := rssChannel{
		Title:          cdata{cfg.Name},
		Description:    cdata{cfg.Description},
		Link:           BuildURL(cfg.URL),
		Language:       cfg.Language,
		LastBuildDate:  now.UTC().Format(time.RFC1123Z),
		Generator:      "blogengine",
		WebMaster:      cfg.WebMaster,
		ManagingEditor: cfg.Editor,
		Copyright:      cfg.Copyright,
		TTL:            cfg.FeedTTL,
		Items:          items,
	}
	return rssXML{
		Version:    "2.0",
		ContentNS:  "http://purl.org/rss/1.0/modules/content/",
		DublinCore: "http://purl.org/dc/elements/1.1/",
		Channel:    channel,
	}
}

func feedItem(cfg SiteConfig, p *BlogPost) rssItem {
	link := BuildURL(cfg.URL, "blog", p.Slug)
	item := rssItem{
		Title:       cdata{p.Title},
		Description: cdata{p.Excerpt},
		Link:        link,
		GUID:        rssGUID{IsPermaLink: true, Value: link},
		PubDate:     p.PublishedAt.UTC().Format(time.RFC1123Z),
		Author:      p.Author.Email,
	}
	if p.Author.Name != "" {
		item.Creator = &cdata{p.Author.Name}
	}
	for _, c := range p.Categories {
		item.Categories = append(item.Categories, cdata{c.Name})
	}
	if html := ContentHTML(p.Content); html != "" {
		item.Content = &cdata{html}
	} else if p.Excerpt != "" {
		item.Content = &cdata{p.Excerpt}
	}
	return item
}

// ContentHTML renders content blocks as minimal HTML for content:encoded.
// Blocks without a text representation are skipped.
func ContentHTML(blocks []ContentBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch blk.Type {
		case BlockParagraph:
			if blk.Text != "" {
				fmt.Fprintf(&b, "<p>%s</p>", blk.Text)
			}
		case BlockHeading:
			level := blk.Level
			if level < 1 || level > 6 {
				level = 2
			}
			fmt.Fprintf(&b, "<h%d>%s</h%d>", level, blk.Text, level)
		case BlockQuote:
			fmt.Fprintf(&b, "<blockquote>%s</blockquote>", blk.Text)
		case BlockCode:
			fmt.Fprintf(&b, "<pre><code>%s</code></pre>", blk.Text)
		case BlockImage:
			fmt.Fprintf(&b, `<img src=%q alt=%q/>`, blk.URL, blk.Alt)
		case BlockList:
			if len(blk.Items) == 0 {
				continue
			}
			b.WriteString("<ul>")
			for _, it := range blk.Items {
				fmt.Fprintf(&b, "<li>%s</li>", it)
			}
			b.WriteString("</ul>")
		}
	}
	return b.String()
}

func (a *App) renderRSS(c echo.Context, posts []BlogPost) error {
	feed := buildFeed(a.Config, posts, time.Now())
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
