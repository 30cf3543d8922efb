package site

import (
	"net/http"

	"suorganizer/database"
	"suorganizer/forms"
	"suorganizer/pagination"

	"github.com/go-chi/chi/v5"
)

type tagListPage struct {
	Tags  []database.Tag
	Page  pagination.Page
	Links pagination.Links
}

func renderTagPage(w http.ResponseWriter, r *http.Request, page pagination.Page, links pagination.Links) {
	tags, err := database.ListTags(page.Offset(), page.Limit())
	if err != nil {
		serverError(w, err)
		return
	}
	RenderTemplate(w, r, "organizer/tag_list", tagListPage{Tags: tags, Page: page, Links: links})
}

// TagList pages with ?page=N and answers 404 for invalid pages.
func TagList(w http.ResponseWriter, r *http.Request) {
	count, err := database.CountTags()
	if err != nil {
		serverError(w, err)
		return
	}
	page, err := pagination.New(count, settings.PaginateBy).ValidatePage(r.URL.Query().Get("page"))
	if err != nil {
		notFound(w, r, "Invalid page.")
		return
	}
	renderTagPage(w, r, page, pagination.QueryLinks(page))
}

// TagPageList serves /tag/page/{n}/, falling back to the first page for
// garbage and to the last page when n is out of range.
func TagPageList(w http.ResponseWriter, r *http.Request) {
	count, err := database.CountTags()
	if err != nil {
		serverError(w, err)
		return
	}
	page := pagination.New(count, settings.PaginateBy).LenientPage(chi.URLParam(r, "page"))
	renderTagPage(w, r, page, pagination.PathLinks(page, "/tag/page/%d/"))
}

func tagFromURL(w http.ResponseWriter, r *http.Request) (*database.Tag, bool) {
	tag, err := database.GetTagWithSlug(chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	if tag == nil {
		notFound(w, r, "No tag found matching the query.")
		return nil, false
	}
	return tag, true
}

type tagDetailPage struct {
	Tag   *database.Tag
	Posts []database.Post
}

func TagDetail(w http.ResponseWriter, r *http.Request) {
	tag, err := database.GetTagDetail(chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, err)
		return
	}
	if tag == nil {
		notFound(w, r, "No tag found matching the query.")
		return
	}

	posts, err := database.TagPosts(tag.ID, false)
	if err != nil {
		serverError(w, err)
		return
	}
	RenderTemplate(w, r, "organizer/tag_detail", tagDetailPage{Tag: tag, Posts: posts})
}

type tagFormPage struct {
	Tag    *database.Tag
	Form   *forms.TagForm
	Errors forms.Errors
}

func saveTagForm(w http.ResponseWriter, r *http.Request, tag *database.Tag) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	form := forms.NewTagForm(r.PostForm)
	errs, err := form.Clean(tag.ID)
	if err != nil {
		serverError(w, err)
		return false
	}
	if errs.Any() {
		page := tagFormPage{Form: form, Errors: errs}
		if tag.ID != 0 {
			page.Tag = tag
		}
		RenderTemplate(w, r, "organizer/tag_form", page)
		return false
	}

	form.Apply(tag)
	if err := database.SaveTag(tag); err != nil {
		serverError(w, err)
		return false
	}
	return true
}

func TagCreate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/tag_form", tagFormPage{Form: &forms.TagForm{}, Errors: forms.Errors{}})

	case "POST":
		tag := &database.Tag{}
		if saveTagForm(w, r, tag) {
			http.Redirect(w, r, tag.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func TagUpdate(w http.ResponseWriter, r *http.Request) {
	tag, ok := tagFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/tag_form", tagFormPage{Tag: tag, Form: forms.TagFormFrom(tag), Errors: forms.Errors{}})

	case "POST":
		if saveTagForm(w, r, tag) {
			http.Redirect(w, r, tag.AbsoluteURL(), http.StatusSeeOther)
		}

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func TagDelete(w http.ResponseWriter, r *http.Request) {
	tag, ok := tagFromURL(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "organizer/tag_confirm_delete", tag)

	case "POST":
		if err := database.DeleteTag(tag); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, "/tag/", http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
