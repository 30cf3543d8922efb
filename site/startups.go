package site

import (
	"net/http"

	"suorganizer/database"
	"suorganizer/forms"
	"suorganizer/pagination"

	"github.com/go-chi/chi/v5"
)

type startupListPage struct {
	Startups []database.Startup
	Latest   *database.Startup
	Page     pagination.Page
	Links    pagination.Links
}

func StartupList(w http.ResponseWriter, r *http.Request) {
	count, err := database.CountStartups()
	if err != nil {
		serverError(w, err)
		return
	}
	page, err := pagination.New(count, settings.PaginateBy).ValidatePage(r.URL.Query().Get("page"))
	if err != nil {
		notFound(w, r, "Invalid page.")
		return
	}

	startups, err := database.ListStartups(page.Offset(), page.Limit())
	if err != nil {
		serverError(w, err)
		return
	}
	latest, err := database.LatestStartup()
	if err != nil {
		serverError(w, err)
		return
	}
	RenderTemplate(w, r, "organizer/startup_list", startupListPage{
		Startups: startups,
		Latest:   latest,
		Page:     page,
		Links:    pagination.QueryLinks(page),
	})
}

func startupFromURL(w http.ResponseWriter, r *http.Request) (*database.Startup, bool) {
	startup, err := database.GetStartupDetail(chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	if startup == nil {
		notFound(w, r, "No startup found matching the query.")
		return nil, false
	}
	return startup, true
}

type startupDetailPage struct {
	Startup *database.Startup
	Posts   []database.Post
}

func StartupDetail(w http.ResponseWriter, r *http.Request) {
	startup, ok := startupFromURL(w, r)
	if !ok {
		return
	}
	posts, err := database.StartupPosts(startup.ID, false)
	if err != nil {
		serverError(w, err)
		return
	}
	RenderTemplate(w, r, "organizer/startup_detail", startupDetailPage{Startup: startup, Posts: posts})
}

type startupFormPage struct {
	Startup *database.Startup
	Form    *forms.StartupForm
	Errors  forms.Errors
	Tags    []database.Tag
}

func renderStartupForm(w http.ResponseWriter, r *http.Request, page startupFormPage) {
	tags, err := database.AllTags()
	if err != nil {
		serverError(w, err)
		return
	}
	page.Tags = tags
	if page.Errors == nil {
		page.Errors = forms.Errors{}
	}
	RenderTemplate(w, r, "organizer/startup_form", page)
}

func saveStartupForm(w http.ResponseWriter, r *http.Request, startup *database.Startup) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	form := forms.NewStartupForm(r.PostForm)
	errs, err := form.Clean(startup.ID)
	if err != nil {
		serverError(w, err)
		return false
	}
	if errs.Any() {
		page := startupFormPage{Form: form, Errors: errs}
		if startup.ID != 0 {
			page.Startup = startup
		}
		renderStartupForm(w, r, page)
		return false
	}

	tags := form.Apply(startup)
	if err := database.SaveStartup(startup, tags); err != nil {
		serverError(w, err)
		return false
	}
	return true
}

func StartupCreate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		renderStartupForm(w, r, startupFormPage{Form: &forms.StartupForm{}})

	case "POST":
		startup := &database.Startup{}
		if saveStartupForm(w, r, startup) {
			http.Redirect(w, r, startup.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func StartupUpdate(w http.ResponseWriter, r *http.Request) {
	startup, ok := startupFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		renderStartupForm(w, r, startupFormPage{Startup: startup, Form: forms.StartupFormFrom(startup)})

	case "POST":
		// news links are saved separately
		startup.NewsLinks = nil
		if saveStartupForm(w, r, startup) {
			http.Redirect(w, r, startup.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func StartupDelete(w http.ResponseWriter, r *http.Request) {
	startup, ok := startupFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/startup_confirm_delete", startup)

	case "POST":
		if err := database.DeleteStartup(startup); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, "/startup/", http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
