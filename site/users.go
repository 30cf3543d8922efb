package site

import (
	"errors"
	"net/http"

	"suorganizer/database"
	"suorganizer/forms"

	"github.com/go-chi/chi/v5"
)

type loginPage struct {
	Form   *forms.LoginForm
	Errors forms.Errors
	Next   string
}

func UserLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		next := safeNext(r.URL.Query().Get("next"))
		if getSignedInUserOrNil(r) != nil {
			http.Redirect(w, r, orDefault(next, LoginRedirectURL), http.StatusSeeOther)
			return
		}
		RenderTemplate(w, r, "user/login", loginPage{Form: &forms.LoginForm{}, Errors: forms.Errors{}, Next: next})

	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		next := safeNext(r.PostForm.Get("next"))
		form := forms.NewLoginForm(r.PostForm)
		user, errs, err := form.Authenticate()
		if err != nil {
			serverError(w, err)
			return
		}
		if user == nil {
			form.Password = ""
			RenderTemplate(w, r, "user/login", loginPage{Form: form, Errors: errs, Next: next})
			return
		}

		if err := signIn(w, user); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, orDefault(next, LoginRedirectURL), http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func UserLogout(w http.ResponseWriter, r *http.Request) {
	if user := getSignedInUserOrNil(r); user != nil {
		if err := database.EndSession(user); err != nil {
			serverError(w, err)
			return
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, LoginRedirectURL, http.StatusSeeOther)
}

type signupPage struct {
	Form   *forms.SignupForm
	Errors forms.Errors
}

func UserSignUp(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		if getSignedInUserOrNil(r) != nil {
			http.Redirect(w, r, "/user/profile/", http.StatusSeeOther)
			return
		}
		RenderTemplate(w, r, "user/signup", signupPage{Form: &forms.SignupForm{}, Errors: forms.Errors{}})

	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		form := forms.NewSignupForm(r.PostForm)
		errs, err := form.Clean()
		if err != nil {
			serverError(w, err)
			return
		}
		if errs.Any() {
			form.Password1, form.Password2 = "", ""
			RenderTemplate(w, r, "user/signup", signupPage{Form: form, Errors: errs})
			return
		}

		user, err := database.CreateUser(form.NewUser())
		if errors.Is(err, database.ErrEmailTaken) {
			errs.Add("email", "User with this Email address already exists.")
			form.Password1, form.Password2 = "", ""
			RenderTemplate(w, r, "user/signup", signupPage{Form: form, Errors: errs})
			return
		}
		if err != nil {
			serverError(w, err)
			return
		}

		if err := signIn(w, user); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, user.AbsoluteURL(), http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type profilePage struct {
	Profile       *database.Profile
	Posts         []database.Post
	IsOwn         bool
	IsContributor bool
}

func renderProfile(w http.ResponseWriter, r *http.Request, profile *database.Profile) {
	posts, err := database.AuthorPosts(profile.UserID, allowFuture(r))
	if err != nil {
		serverError(w, err)
		return
	}
	current := getSignedInUserOrNil(r)
	RenderTemplate(w, r, "user/profile_detail", profilePage{
		Profile:       profile,
		Posts:         posts,
		IsOwn:         current != nil && current.ID == profile.UserID,
		IsContributor: profile.User.InGroup(database.ContributorsGroup),
	})
}

// OwnProfile shows the signed in user's profile.
func OwnProfile(w http.ResponseWriter, r *http.Request) {
	user := getSignedInUserOrFail(r)
	profile, err := database.GetProfileForUser(user.ID)
	if err != nil {
		serverError(w, err)
		return
	}
	if profile == nil {
		notFound(w, r, "No profile found for this account.")
		return
	}
	renderProfile(w, r, profile)
}

func PublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := database.GetProfileWithSlug(chi.URLParam(r, "slug"))
	if err != nil {
		serverError(w, err)
		return
	}
	if profile == nil {
		notFound(w, r, "No profile found matching the query.")
		return
	}
	renderProfile(w, r, profile)
}

type profileFormPage struct {
	Profile *database.Profile
	Form    *forms.ProfileForm
	Errors  forms.Errors
}

func ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user := getSignedInUserOrFail(r)
	profile, err := database.GetProfileForUser(user.ID)
	if err != nil {
		serverError(w, err)
		return
	}
	if profile == nil {
		notFound(w, r, "No profile found for this account.")
		return
	}

	switch r.Method {
	case "GET":
		RenderTemplate(w, r, "user/profile_form", profileFormPage{Profile: profile, Form: forms.ProfileFormFrom(profile), Errors: forms.Errors{}})

	case "POST":
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		form := forms.NewProfileForm(r.PostForm)
		errs, err := form.Clean(profile)
		if err != nil {
			serverError(w, err)
			return
		}
		if errs.Any() {
			RenderTemplate(w, r, "user/profile_form", profileFormPage{Profile: profile, Form: form, Errors: errs})
			return
		}

		form.Apply(profile)
		if err := database.SaveProfile(profile); err != nil {
			serverError(w, err)
			return
		}
		http.Redirect(w, r, profile.AbsoluteURL(), http.StatusSeeOther)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
