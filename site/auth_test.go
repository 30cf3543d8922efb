package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"suorganizer/database"
)

func withUser(r *http.Request, user *database.User) *http.Request {
	if user == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), AuthenticatedUserCookieName, user))
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequirePermission(database.PermAddTag)(ok)

	tests := []struct {
		name     string
		user     *database.User
		status   int
		location string
	}{
		{"visitor", nil, http.StatusSeeOther, "/user/login/?next=%2Ftag%2Fcreate%2F%3Fx%3D1"},
		{"no permission", &database.User{IsActive: true}, http.StatusForbidden, ""},
		{"direct permission", &database.User{IsActive: true, Permissions: []database.Permission{{Codename: database.PermAddTag}}}, http.StatusNoContent, ""},
		{"group permission", &database.User{IsActive: true, Groups: []database.Group{{Name: database.ContributorsGroup, Permissions: []database.Permission{{Codename: database.PermAddTag}}}}}, http.StatusNoContent, ""},
		{"superuser", &database.User{IsActive: true, IsSuperuser: true}, http.StatusNoContent, ""},
		{"inactive superuser", &database.User{IsSuperuser: true}, http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, "/tag/create/?x=1", nil), tt.user)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("got status %d, want %d", rec.Code, tt.status)
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("got location %q, want %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestStaffRequiredMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := StaffRequiredMiddleware(ok)

	tests := []struct {
		name   string
		user   *database.User
		status int
	}{
		{"visitor", nil, http.StatusSeeOther},
		{"regular user", &database.User{IsActive: true}, http.StatusForbidden},
		{"inactive staff", &database.User{IsStaff: true}, http.StatusForbidden},
		{"staff", &database.User{IsActive: true, IsStaff: true}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/admin/posts/", nil), tt.user))
			if rec.Code != tt.status {
				t.Errorf("got status %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/tag/create/", "/tag/create/"},
		{"/blog/?page=2", "/blog/?page=2"},
		{"", ""},
		{"https://evil.example.com/", ""},
		{"//evil.example.com/", ""},
		{`/\evil.example.com`, ""},
		{"blog/", ""},
	}
	for _, tt := range tests {
		if got := safeNext(tt.next); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestGenerateAuthToken(t *testing.T) {
	a, err := generateAuthToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateAuthToken()
	if a == b || len(a) != 44 {
		t.Errorf("expected distinct 44 character tokens, got %q and %q", a, b)
	}
}
