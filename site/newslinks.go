package site

import (
	"net/http"

	"suorganizer/database"
	"suorganizer/forms"

	"github.com/go-chi/chi/v5"
)

type newsLinkFormPage struct {
	Startup  *database.Startup
	NewsLink *database.NewsLink
	Form     *forms.NewsLinkForm
	Errors   forms.Errors
}

func startupForNewsLink(w http.ResponseWriter, r *http.Request) (*database.Startup, bool) {
	startup, err := database.GetStartupWithSlug(chi.URLParam(r, "slug"))
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

func newsLinkFromURL(w http.ResponseWriter, r *http.Request) (*database.NewsLink, bool) {
	link, err := database.GetNewsLink(chi.URLParam(r, "slug"), chi.URLParam(r, "newslink"))
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	if link == nil {
		notFound(w, r, "No news article found matching the query.")
		return nil, false
	}
	return link, true
}

func saveNewsLinkForm(w http.ResponseWriter, r *http.Request, startup *database.Startup, link *database.NewsLink) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	form := forms.NewNewsLinkForm(r.PostForm)
	errs, err := form.Clean(startup, link.ID)
	if err != nil {
		serverError(w, err)
		return false
	}
	if errs.Any() {
		page := newsLinkFormPage{Startup: startup, Form: form, Errors: errs}
		if link.ID != 0 {
			page.NewsLink = link
		}
		RenderTemplate(w, r, "organizer/newslink_form", page)
		return false
	}

	form.Apply(startup, link)
	if err := database.SaveNewsLink(link); err != nil {
		serverError(w, err)
		return false
	}
	return true
}

func NewsLinkCreate(w http.ResponseWriter, r *http.Request) {
	startup, ok := startupForNewsLink(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/newslink_form", newsLinkFormPage{Startup: startup, Form: &forms.NewsLinkForm{}, Errors: forms.Errors{}})

	case "POST":
		link := &database.NewsLink{}
		if saveNewsLinkForm(w, r, startup, link) {
			http.Redirect(w, r, link.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func NewsLinkUpdate(w http.ResponseWriter, r *http.Request) {
	link, ok := newsLinkFromURL(w, r)
	if !ok {
		return
	}
	startup := link.Startup

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/newslink_form", newsLinkFormPage{
			Startup:  &startup,
			NewsLink: link,
			Form:     forms.NewsLinkFormFrom(link),
			Errors:   forms.Errors{},
		})

	case "POST":
		if saveNewsLinkForm(w, r, &startup, link) {
			http.Redirect(w, r, link.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func NewsLinkDelete(w http.ResponseWriter, r *http.Request) {
	link, ok := newsLinkFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/newslink_confirm_delete", link)

	case "POST":
		if err := database.DeleteNewsLink(link); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, link.Startup.AbsoluteURL(), http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
