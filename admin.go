package blogengine

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			return echo.NewHTTPError(http.StatusUnauthorized, "admin session required")
		}
		return next(c)
	}
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "wrong password")
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleAdminPosts lists posts across every lifecycle state. The same query
// string as the public listing applies, including an explicit status filter.
func (a *App) handleAdminPosts(c echo.Context) error {
	params, err := parseListParams(c)
	if err != nil {
		return err
	}
	if v := c.QueryParam("status"); v != "" {
		status := Status(v)
		if !status.Valid() {
			return InvalidParamErr("status " + v)
		}
		params.Filters.Status = status
	}
	var page *PostPage
	if params.Filters.Status != "" {
		page, err = a.Engine.ListPosts(params)
	} else {
		page, err = a.Engine.AllPosts(params)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// adminStats is the payload of the admin stats endpoint.
type adminStats struct {
	TopPosts    []adminTopPost   `json:"topPosts"`
	DailyViews  []adminDailyView `json:"dailyViews"`
	TotalViews  int64            `json:"totalViews"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

type adminTopPost struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	ViewCount int64  `json:"viewCount"`
	Recent    int64  `json:"recentViews"`
}

type adminDailyView struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

func (a *App) handleAdminStats(c echo.Context) error {
	posts, err := a.Engine.AllPosts(ListParams{Limit: 10, SortBy: SortViewCount, Order: OrderDesc})
	if err != nil {
		return err
	}

	total, err := a.Engine.TotalViews()
	if err != nil {
		return err
	}

	out := adminStats{TotalViews: total, GeneratedAt: time.Now().UTC()}
	recentBy := map[string]int64{}
	if a.statsStore != nil {
		since := time.Now().AddDate(0, 0, -30)
		top, err := a.statsStore.TopPosts(10, since)
		if err != nil {
			return StoreErr("top posts", err)
		}
		for _, t := range top {
			recentBy[t.PostID] = t.Count
		}
		daily, err := a.statsStore.DailyCounts(30)
		if err != nil {
			return StoreErr("daily counts", err)
		}
		for _, d := range daily {
			out.DailyViews = append(out.DailyViews, adminDailyView{Day: d.Day, Count: d.Count})
		}
	}
	for _, p := range posts.Items {
		out.TopPosts = append(out.TopPosts, adminTopPost{
			Slug:      p.Slug,
			Title:     p.Title,
			ViewCount: p.ViewCount,
			Recent:    recentBy[p.ID],
		})
	}
	return c.JSON(http.StatusOK, out)
}
