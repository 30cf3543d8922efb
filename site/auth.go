package site

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"net/url"
	"strings"

	"suorganizer/database"
)

type AuthCookieName string

const AuthenticatedUserCookieName = AuthCookieName("authenticated_user")
const AuthenticatedUserTokenCookieName = AuthCookieName("authenticated_user_token")

const LoginURL = "/user/login/"
const LoginRedirectURL = "/blog/"

func getSignedInUserOrNil(r *http.Request) *database.User {
	user, _ := r.Context().Value(AuthenticatedUserCookieName).(*database.User)
	return user
}

func getSignedInUserOrFail(r *http.Request) *database.User {
	user := getSignedInUserOrNil(r)
	if user == nil {
		log.Panicf("Expected user to be signed in but it wasn't")
	}

	return user
}

func allowFuture(r *http.Request) bool {
	return getSignedInUserOrNil(r).HasPerm(database.PermViewFuturePost)
}

func generateAuthToken() (string, error) {
	const tokenLength = 32
	tokenBytes := make([]byte, tokenLength)
	_, err := rand.Read(tokenBytes)
	if err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)
	return token, nil
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     string(AuthenticatedUserTokenCookieName),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   settings.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   string(AuthenticatedUserTokenCookieName),
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// signIn starts a fresh session for user and sets the cookie.
func signIn(w http.ResponseWriter, user *database.User) error {
	token, err := generateAuthToken()
	if err != nil {
		return err
	}
	if err := database.StartSession(user, token); err != nil {
		return err
	}
	setSessionCookie(w, token)
	return nil
}

func TryPutUserInContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(string(AuthenticatedUserTokenCookieName))
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := database.GetUserWithSessionToken(cookie.Value)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
		}
		if user == nil || !user.IsActive {
			clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), AuthenticatedUserCookieName, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectToLogin sends visitors to the login page, remembering where they
// were headed.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginURL + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func AuthProtectedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getSignedInUserOrNil(r) == nil {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission redirects visitors to the login page and answers 403 to
// signed in users lacking the permission.
func RequirePermission(codename string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := getSignedInUserOrNil(r)
			if user == nil {
				redirectToLogin(w, r)
				return
			}
			if !user.HasPerm(codename) {
				forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func StaffRequiredMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getSignedInUserOrNil(r)
		if user == nil {
			redirectToLogin(w, r)
			return
		}
		if !user.IsActive || !user.IsStaff {
			forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// safeNext only accepts local absolute paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	return next
}
