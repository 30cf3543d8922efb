package site

import (
	"net/http"
	"time"

	"suorganizer/archive"
	"suorganizer/database"
	"suorganizer/forms"
	"suorganizer/pagination"

	"github.com/go-chi/chi/v5"
)

type postListPage struct {
	Posts []database.Post
	Page  pagination.Page
	Links pagination.Links
	// Months with at least one visible post, for the archive sidebar.
	Months []time.Time
}

func PostList(w http.ResponseWriter, r *http.Request) {
	allow := allowFuture(r)
	count, err := database.CountPosts(allow)
	if err != nil {
		serverError(w, err)
		return
	}

	page, err := pagination.New(count, settings.PaginateBy).ValidatePage(r.URL.Query().Get("page"))
	if err != nil {
		notFound(w, r, "Invalid page.")
		return
	}

	posts, err := database.ListPosts(allow, page.Offset(), page.Limit())
	if err != nil {
		serverError(w, err)
		return
	}
	dates, err := database.PostDates(nil, allow)
	if err != nil {
		serverError(w, err)
		return
	}

	RenderTemplate(w, r, "blog/post_list", postListPage{
		Posts:  posts,
		Page:   page,
		Links:  pagination.QueryLinks(page),
		Months: archive.Months(dates),
	})
}

type yearArchivePage struct {
	Year   time.Time
	Months []time.Time
	Posts  []database.Post
}

func PostArchiveYear(w http.ResponseWriter, r *http.Request) {
	year, err := archive.ParseYear(chi.URLParam(r, "year"))
	if err != nil {
		notFound(w, r, "Invalid year.")
		return
	}

	allow := allowFuture(r)
	window := archive.YearWindow(year)
	if !allow && archive.IsFuture(window.Start) {
		notFound(w, r, "Future posts are not available.")
		return
	}

	posts, err := database.PostsInWindow(window, allow)
	if err != nil {
		serverError(w, err)
		return
	}
	if len(posts) == 0 {
		notFound(w, r, "No posts available.")
		return
	}
	dates, err := database.PostDates(&window, allow)
	if err != nil {
		serverError(w, err)
		return
	}

	RenderTemplate(w, r, "blog/post_archive_year", yearArchivePage{
		Year:   window.Start,
		Months: archive.Months(dates),
		Posts:  posts,
	})
}

type monthArchivePage struct {
	Month         time.Time
	Posts         []database.Post
	PreviousMonth *time.Time
	NextMonth     *time.Time
}

func PostArchiveMonth(w http.ResponseWriter, r *http.Request) {
	window, ok := monthWindowFromURL(w, r)
	if !ok {
		return
	}

	allow := allowFuture(r)
	posts, err := database.PostsInWindow(window, allow)
	if err != nil {
		serverError(w, err)
		return
	}
	if len(posts) == 0 {
		notFound(w, r, "No posts available.")
		return
	}

	data := monthArchivePage{Month: window.Start, Posts: posts}

	previous, err := database.LatestPostBefore(window.Start, allow)
	if err != nil {
		serverError(w, err)
		return
	}
	if previous != nil {
		month := archive.MonthOf(previous.Published()).Start
		data.PreviousMonth = &month
	}

	next, err := database.EarliestPostFrom(window.End, allow)
	if err != nil {
		serverError(w, err)
		return
	}
	if next != nil {
		month := archive.MonthOf(next.Published()).Start
		if allow || !archive.IsFuture(month) {
			data.NextMonth = &month
		}
	}

	RenderTemplate(w, r, "blog/post_archive_month", data)
}

// monthWindowFromURL parses {year}/{month} and hides future months from
// users who may not see future posts.
func monthWindowFromURL(w http.ResponseWriter, r *http.Request) (archive.Window, bool) {
	year, err := archive.ParseYear(chi.URLParam(r, "year"))
	if err != nil {
		notFound(w, r, "Invalid year.")
		return archive.Window{}, false
	}
	month, err := archive.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		notFound(w, r, "Invalid month.")
		return archive.Window{}, false
	}

	window := archive.MonthWindow(year, month)
	if !allowFuture(r) && archive.IsFuture(window.Start) {
		notFound(w, r, "Future posts are not available.")
		return archive.Window{}, false
	}
	return window, true
}

func postFromURL(w http.ResponseWriter, r *http.Request) (*database.Post, bool) {
	window, ok := monthWindowFromURL(w, r)
	if !ok {
		return nil, false
	}

	post, err := database.GetPostInWindow(window, chi.URLParam(r, "slug"), allowFuture(r))
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	if post == nil {
		notFound(w, r, "No post by that date and slug.")
		return nil, false
	}
	return post, true
}

func PostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := postFromURL(w, r)
	if !ok {
		return
	}
	RenderTemplate(w, r, "blog/post_detail", post)
}

type postFormPage struct {
	Post     *database.Post
	Form     *forms.PostForm
	Errors   forms.Errors
	Tags     []database.Tag
	Startups []database.Startup
}

func renderPostForm(w http.ResponseWriter, r *http.Request, page postFormPage) {
	tags, err := database.AllTags()
	if err != nil {
		serverError(w, err)
		return
	}
	startups, err := database.AllStartups()
	if err != nil {
		serverError(w, err)
		return
	}
	page.Tags, page.Startups = tags, startups
	if page.Errors == nil {
		page.Errors = forms.Errors{}
	}
	RenderTemplate(w, r, "blog/post_form", page)
}

// savePostForm validates the submitted form and saves it onto post. It
// reports false after re-rendering the form or writing an error.
func savePostForm(w http.ResponseWriter, r *http.Request, post *database.Post) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	form := forms.NewPostForm(r.PostForm)
	errs, err := form.Clean(post.ID)
	if err != nil {
		serverError(w, err)
		return false
	}
	if errs.Any() {
		page := postFormPage{Form: form, Errors: errs}
		if post.ID != 0 {
			page.Post = post
		}
		renderPostForm(w, r, page)
		return false
	}

	tags, startups := form.Apply(post)
	if err := database.SavePost(post, tags, startups); err != nil {
		serverError(w, err)
		return false
	}
	return true
}

func PostCreate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		renderPostForm(w, r, postFormPage{Form: forms.InitialPostForm()})

	case "POST":
		author := getSignedInUserOrFail(r)
		post := &database.Post{AuthorID: &author.ID}
		if savePostForm(w, r, post) {
			http.Redirect(w, r, post.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func PostUpdate(w http.ResponseWriter, r *http.Request) {
	post, ok := postFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		renderPostForm(w, r, postFormPage{Post: post, Form: forms.PostFormFrom(post)})

	case "POST":
		if savePostForm(w, r, post) {
			http.Redirect(w, r, post.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func PostDelete(w http.ResponseWriter, r *http.Request) {
	post, ok := postFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "blog/post_confirm_delete", post)

	case "POST":
		if err := database.DeletePost(post); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, "/blog/", http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
