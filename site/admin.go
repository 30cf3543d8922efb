package site

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"suorganizer/archive"
	"suorganizer/constants"
	"suorganizer/database"
	"suorganizer/pagination"
)

type adminPostListPage struct {
	Rows   []database.AdminPostRow
	Total  int64
	Query  string
	Year   int
	Month  time.Month
	Page   pagination.Page
	Links  pagination.Links
	// Drill-down choices for the date hierarchy: years when none is
	// selected, months of the selected year otherwise.
	Years  []int
	Months []time.Time
}

// adminLink keeps the search and date filters in pagination links.
func adminLink(query url.Values, link string) string {
	if link == "" {
		return ""
	}
	values := url.Values{}
	for key, vals := range query {
		if key != "page" {
			values[key] = vals
		}
	}
	values.Set("page", strings.TrimPrefix(link, "?page="))
	return "?" + values.Encode()
}

// AdminPostList is the staff changelist for posts: search over title and
// text, a year/month date hierarchy, and per-post tag counts.
func AdminPostList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	allow := allowFuture(r)
	data := adminPostListPage{Query: strings.TrimSpace(query.Get("q"))}
	filter := database.AdminPostFilter{Search: data.Query, AllowFuture: allow}

	if raw := query.Get("year"); raw != "" {
		year, err := archive.ParseYear(raw)
		if err != nil {
			notFound(w, r, "Invalid year.")
			return
		}
		data.Year = year
		window := archive.YearWindow(year)
		if raw := query.Get("month"); raw != "" {
			month, err := archive.ParseMonth(raw)
			if err != nil {
				notFound(w, r, "Invalid month.")
				return
			}
			data.Month = month
			window = archive.MonthWindow(year, month)
		}
		filter.Window = &window
	}

	filter.Limit = constants.ADMIN_PAGINATE_BY
	rows, total, err := database.AdminPosts(filter)
	if err != nil {
		serverError(w, err)
		return
	}

	page, err := pagination.New(total, constants.ADMIN_PAGINATE_BY).ValidatePage(query.Get("page"))
	if err != nil {
		notFound(w, r, "Invalid page.")
		return
	}
	if page.Number > 1 {
		filter.Offset = page.Offset()
		rows, total, err = database.AdminPosts(filter)
		if err != nil {
			serverError(w, err)
			return
		}
	}

	links := pagination.QueryLinks(page)
	links.First = adminLink(query, links.First)
	links.Previous = adminLink(query, links.Previous)
	links.Next = adminLink(query, links.Next)
	links.Last = adminLink(query, links.Last)

	var hierarchy *archive.Window
	if data.Year != 0 {
		window := archive.YearWindow(data.Year)
		hierarchy = &window
	}
	dates, err := database.PostDates(hierarchy, allow)
	if err != nil {
		serverError(w, err)
		return
	}
	if data.Year == 0 {
		data.Years = archive.Years(dates)
	} else if data.Month == 0 {
		data.Months = archive.Months(dates)
	}

	data.Rows, data.Total, data.Page, data.Links = rows, total, page, links
	RenderTemplate(w, r, "admin/post_list", data)
}
