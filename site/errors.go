package site

import (
	"log"
	"net/http"

	"suorganizer/components"

	"github.com/gorilla/csrf"
)

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page := components.ErrorPage(layoutProps(globalData(r)), status, message)
	if err := page.Render(w); err != nil {
		log.Printf("Failed to render error page: %v", err)
	}
}

func notFound(w http.ResponseWriter, r *http.Request, message string) {
	renderError(w, r, http.StatusNotFound, message)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusForbidden, "You do not have permission to access this page.")
}

// CSRFFailure answers POSTs whose CSRF token is missing or wrong.
func CSRFFailure(w http.ResponseWriter, r *http.Request) {
	log.Printf("CSRF check failed for %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	renderError(w, r, http.StatusForbidden, "CSRF verification failed. Request aborted.")
}

// NotFoundHandler is used for unmatched routes.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	notFound(w, r, "")
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("Internal error: %v", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
