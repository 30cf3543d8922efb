package site

import (
	"encoding/json"
	"log"
	"net/http"

	"suorganizer/constants"
	"suorganizer/database"

	"github.com/go-chi/chi/v5"
)

type apiTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type apiNewsLink struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	PubDate string `json:"pub_date"`
	Link    string `json:"link"`
}

type apiStartup struct {
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	FoundedDate string        `json:"founded_date"`
	Contact     string        `json:"contact"`
	Website     string        `json:"website"`
	URL         string        `json:"url"`
	Tags        []apiTag      `json:"tags"`
	NewsLinks   []apiNewsLink `json:"news_links,omitempty"`
}

func toAPITag(tag database.Tag) apiTag {
	return apiTag{Name: tag.Name, Slug: tag.Slug, URL: settings.PublicURL + tag.AbsoluteURL()}
}

func toAPIStartup(startup database.Startup) apiStartup {
	out := apiStartup{
		Name:        startup.Name,
		Slug:        startup.Slug,
		FoundedDate: startup.Founded().Format(constants.DATE_LAYOUT),
		Contact:     startup.Contact,
		Website:     startup.Website,
		URL:         settings.PublicURL + startup.AbsoluteURL(),
		Tags:        make([]apiTag, 0, len(startup.Tags)),
	}
	for _, tag := range startup.Tags {
		out.Tags = append(out.Tags, toAPITag(tag))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int) {
	writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func APITagList(w http.ResponseWriter, r *http.Request) {
	tags, err := database.AllTags()
	if err != nil {
		log.Printf("Failed to list tags: %v", err)
		writeJSONError(w, http.StatusInternalServerError)
		return
	}
	out := make([]apiTag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, toAPITag(tag))
	}
	writeJSON(w, http.StatusOK, out)
}

func APIStartupList(w http.ResponseWriter, r *http.Request) {
	count, err := database.CountStartups()
	if err != nil {
		log.Printf("Failed to count startups: %v", err)
		writeJSONError(w, http.StatusInternalServerError)
		return
	}
	startups, err := database.ListStartups(0, int(count))
	if err != nil {
		log.Printf("Failed to list startups: %v", err)
		writeJSONError(w, http.StatusInternalServerError)
		return
	}
	out := make([]apiStartup, 0, len(startups))
	for _, startup := range startups {
		out = append(out, toAPIStartup(startup))
	}
	writeJSON(w, http.StatusOK, out)
}

func APIStartupDetail(w http.ResponseWriter, r *http.Request) {
	startup, err := database.GetStartupDetail(chi.URLParam(r, "slug"))
	if err != nil {
		log.Printf("Failed to load startup: %v", err)
		writeJSONError(w, http.StatusInternalServerError)
		return
	}
	if startup == nil {
		writeJSONError(w, http.StatusNotFound)
		return
	}

	out := toAPIStartup(*startup)
	out.Description = startup.Description
	for _, link := range startup.NewsLinks {
		out.NewsLinks = append(out.NewsLinks, apiNewsLink{
			Title:   link.Title,
			Slug:    link.Slug,
			PubDate: link.Published().Format(constants.DATE_LAYOUT),
			Link:    link.Link,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
