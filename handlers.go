package blogengine

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleListPosts(c echo.Context) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}
	// Public path: drafts stay invisible regardless of query string.
	params.Filters.Status = ""
	page, err := a.Engine.ListPosts(params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Engine.GetPostBySlug(c.Param("slug"))
	if err != nil {
		return err
	}
	if a.statsStore != nil {
		if err := a.statsStore.Record(post.ID, time.Now()); err != nil {
			c.Logger().Errorf("record view: %v", err)
		}
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleRelatedPosts(c echo.Context) error {
	post, err := a.Engine.PeekPostBySlug(c.Param("slug"))
	if err != nil {
		return err
	}
	limit := intParam(c, "limit", DefaultRelatedLimit)
	related, err := a.Engine.RelatedPosts(post.ID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, related)
}

func (a *App) handleSearch(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return InvalidParamErr("q is required")
	}
	posts, err := a.Engine.SearchPosts(q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleFeatured(c echo.Context) error {
	posts, err := a.Engine.FeaturedPosts()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleRecent(c echo.Context) error {
	posts, err := a.Engine.RecentPosts(intParam(c, "limit", 5))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleArchive(c echo.Context) error {
	archive, err := a.Engine.Archive()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, archive)
}

func (a *App) handlePostsByCategory(c echo.Context) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}
	params.Filters.Status = ""
	page, err := a.Engine.PostsByCategory(c.Param("slug"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (a *App) handlePostsByTag(c echo.Context) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}
	params.Filters.Status = ""
	page, err := a.Engine.PostsByTag(c.Param("slug"), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Engine.RecentPosts(a.Config.FeedLimit)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Engine.PublishedPosts()
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return StoreErr("list categories", err)
	}
	tags, err := a.Store.ListTags()
	if err != nil {
		return StoreErr("list tags", err)
	}
	return a.renderSitemap(c, posts, categories, tags)
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %ssitemap.xml\n", BuildURL(a.Config.URL))
	return c.String(http.StatusOK, body)
}

// parseListParams reads pagination, filter, and sort settings from the query
// string. Unknown sort fields and malformed dates are rejected; missing
// values fall back to the engine defaults.
func parseListParams(c echo.Context) (ListParams, error) {
	params := ListParams{
		Page:  intParam(c, "page", 0),
		Limit: intParam(c, "limit", 0),
		Filters: Filters{
			Category: c.QueryParam("category"),
			Tag:      c.QueryParam("tag"),
			Author:   c.QueryParam("author"),
			Search:   c.QueryParam("q"),
		},
	}

	if v := c.QueryParam("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return params, InvalidParamErr("featured must be true or false")
		}
		params.Filters.Featured = &featured
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return params, InvalidParamErr("from: " + err.Error())
		}
		params.Filters.DateFrom = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			return params, InvalidParamErr("to: " + err.Error())
		}
		// A bare date means the whole day, inclusive.
		if len(v) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		params.Filters.DateTo = t
	}
	if v := c.QueryParam("sort"); v != "" {
		switch SortField(v) {
		case SortPublishedAt, SortUpdatedAt, SortTitle, SortViewCount:
			params.SortBy = SortField(v)
		default:
			return params, InvalidParamErr("sort " + v)
		}
	}
	if v := c.QueryParam("order"); v != "" {
		switch SortOrder(v) {
		case OrderAsc, OrderDesc:
			params.Order = SortOrder(v)
		default:
			return params, InvalidParamErr("order " + v)
		}
	}
	return params, nil
}

func parseDateParam(v string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func intParam(c echo.Context, name string, fallback int) int {
	v := c.QueryParam(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// httpErrorHandler maps engine errors onto HTTP statuses and renders every
// failure in the uniform {code, message, details} shape.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		code := CodeInternal
		if he.Code == http.StatusNotFound {
			code = CodeNotFound
		}
		_ = c.JSON(he.Code, &Error{Code: code, Message: fmt.Sprintf("%v", he.Message)})
		return
	}
	e := AsError(err)
	status := http.StatusInternalServerError
	switch e.Code {
	case CodeNotFound:
		status = http.StatusNotFound
	case CodeInvalidParam:
		status = http.StatusBadRequest
	}
	if status >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	_ = c.JSON(status, e)
}
