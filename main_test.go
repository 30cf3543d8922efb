package main

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"suorganizer/archive"
	"suorganizer/config"
	"suorganizer/database"
	"suorganizer/site"

	"gorm.io/datatypes"
)

type testApp struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.DatabaseDSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.RateLimitPerMinute = 0
	if err := database.Init(cfg); err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	site.Configure(cfg)

	server := httptest.NewServer(initRouter(cfg))
	t.Cleanup(func() {
		server.Close()
		database.CloseDB()
	})

	return &testApp{t: t, server: server, client: newClient(t)}
}

// newClient keeps cookies and does not follow redirects.
func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(path string) (*http.Response, string) {
	a.t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(a.t, resp)
}

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]+)">`)

// csrfToken reads the token every page carries for the client's CSRF cookie.
func (a *testApp) csrfToken() string {
	a.t.Helper()
	_, body := a.get("/tag/")
	m := csrfMeta.FindStringSubmatch(body)
	if m == nil {
		a.t.Fatal("page has no CSRF token")
	}
	return html.UnescapeString(m[1])
}

func (a *testApp) post(path string, values url.Values) (*http.Response, string) {
	a.t.Helper()
	form := url.Values{}
	for k, v := range values {
		form[k] = v
	}
	form.Set("csrf_token", a.csrfToken())
	resp, err := a.client.PostForm(a.server.URL+path, form)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(a.t, resp)
}

func (a *testApp) login(email string) {
	a.t.Helper()
	a.client = newClient(a.t)
	resp, _ := a.post("/user/login/", url.Values{"email": {email}, "password": {"password123"}})
	if resp.StatusCode != http.StatusSeeOther {
		a.t.Fatalf("login as %s failed with %d", email, resp.StatusCode)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func mustUser(t *testing.T, email string, perms ...string) *database.User {
	t.Helper()
	user, err := database.CreateUser(database.NewUser{Email: email, Password: "password123", Name: strings.Split(email, "@")[0]})
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) > 0 {
		if err := database.GrantPermissions(user, perms...); err != nil {
			t.Fatal(err)
		}
	}
	return user
}

func mustPost(t *testing.T, title, slug string, pub time.Time, tags ...database.Tag) *database.Post {
	t.Helper()
	post := &database.Post{Title: title, Slug: slug, Text: "Some **markdown** text.", PubDate: datatypes.Date(pub)}
	if err := database.SavePost(post, tags, nil); err != nil {
		t.Fatal(err)
	}
	return post
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)

	tag := database.Tag{Name: "django", Slug: "django"}
	if err := database.SaveTag(&tag); err != nil {
		t.Fatal(err)
	}
	startup := &database.Startup{Name: "Boundless", Slug: "boundless", Description: "Open textbooks.", FoundedDate: datatypes.Date(day(2013, time.January, 18)), Contact: "hi@boundless.com", Website: "https://boundless.com"}
	if err := database.SaveStartup(startup, []database.Tag{tag}); err != nil {
		t.Fatal(err)
	}
	mustPost(t, "Django Training", "django-training", day(2015, time.March, 5), tag)
	mustPost(t, "April Post", "april-post", day(2015, time.April, 2))
	mustPost(t, "Hidden Future", "hidden-future", archive.Today().AddDate(2, 0, 0))

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
		excludes string
	}{
		{"root redirects", "/", http.StatusFound, "", ""},
		{"post list", "/blog/", http.StatusOK, "Django Training", "Hidden Future"},
		{"post detail", "/blog/2015/03/django-training/", http.StatusOK, "<strong>markdown</strong>", ""},
		{"post detail case insensitive", "/blog/2015/3/DJANGO-training/", http.StatusOK, "Django Training", ""},
		{"post in wrong month", "/blog/2015/04/django-training/", http.StatusNotFound, "", ""},
		{"invalid month", "/blog/2015/13/", http.StatusNotFound, "", ""},
		{"month archive", "/blog/2015/03/", http.StatusOK, "Posts from April 2015", ""},
		{"empty month archive", "/blog/2015/05/", http.StatusNotFound, "", ""},
		{"year archive", "/blog/2015/", http.StatusOK, "April", ""},
		{"empty year archive", "/blog/2010/", http.StatusNotFound, "", ""},
		{"post list bad page", "/blog/?page=abc", http.StatusNotFound, "", ""},
		{"post list last page", "/blog/?page=last", http.StatusOK, "April Post", ""},
		{"tag list", "/tag/", http.StatusOK, "django", ""},
		{"tag list out of range", "/tag/?page=9", http.StatusNotFound, "", ""},
		{"tag page lenient garbage", "/tag/page/abc/", http.StatusOK, "django", ""},
		{"tag page lenient range", "/tag/page/9/", http.StatusOK, "django", ""},
		{"tag page lenient zero", "/tag/page/0/", http.StatusOK, "django", ""},
		{"tag detail", "/tag/DJANGO/", http.StatusOK, "Boundless", ""},
		{"missing tag", "/tag/nope/", http.StatusNotFound, "No tag found", ""},
		{"startup list", "/startup/", http.StatusOK, "Boundless", ""},
		{"startup list latest", "/startup/", http.StatusOK, `Most recently founded: <a href="/startup/boundless/">Boundless</a>`, ""},
		{"startup detail", "/startup/boundless/", http.StatusOK, "hi@boundless.com", ""},
		{"missing startup", "/startup/nope/", http.StatusNotFound, "", ""},
		{"unknown route", "/nowhere/", http.StatusNotFound, "", ""},
		{"health", "/healthz", http.StatusOK, `{"ok":true}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.get(tt.path)
			if resp.StatusCode != tt.status {
				t.Fatalf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.status)
			}
			if tt.contains != "" && !strings.Contains(body, tt.contains) {
				t.Errorf("GET %s: expected %q in body", tt.path, tt.contains)
			}
			if tt.excludes != "" && strings.Contains(body, tt.excludes) {
				t.Errorf("GET %s: did not expect %q in body", tt.path, tt.excludes)
			}
		})
	}
}

func TestFuturePostsNeedPermission(t *testing.T) {
	app := newTestApp(t)
	mustUser(t, "editor@example.com", database.PermViewFuturePost)

	future := archive.Today().AddDate(1, 0, 0)
	post := mustPost(t, "Coming Soon", "coming-soon", future)

	resp, _ := app.get(post.AbsoluteURL())
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("visitors must not see future posts, got %d", resp.StatusCode)
	}

	app.login("editor@example.com")
	resp, body := app.get(post.AbsoluteURL())
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Coming Soon") {
		t.Errorf("permitted users see future posts, got %d", resp.StatusCode)
	}
	_, body = app.get("/blog/")
	if !strings.Contains(body, "Coming Soon") {
		t.Error("future post should be listed for permitted users")
	}
}

func TestPermissionGates(t *testing.T) {
	app := newTestApp(t)
	mustUser(t, "reader@example.com")
	mustUser(t, "tagger@example.com", database.PermAddTag, database.PermChangeTag, database.PermDeleteTag)

	resp, _ := app.get("/tag/create/")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("visitors are redirected to login, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/user/login/?next=%2Ftag%2Fcreate%2F" {
		t.Errorf("unexpected login redirect %q", loc)
	}

	app.login("reader@example.com")
	resp, _ = app.get("/tag/create/")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("users without permission get 403, got %d", resp.StatusCode)
	}

	app.login("tagger@example.com")
	resp, _ = app.get("/tag/create/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("permitted users see the form, got %d", resp.StatusCode)
	}

	resp, body := app.post("/tag/create/", url.Values{"name": {"Create"}, "slug": {"create"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "may not be") {
		t.Errorf("invalid form re-renders with errors, got %d", resp.StatusCode)
	}

	resp, _ = app.post("/tag/create/", url.Values{"name": {"Web Development"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/tag/web-development/" {
		t.Fatalf("expected redirect to the new tag, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = app.post("/tag/web-development/update/", url.Values{"name": {"web"}, "slug": {"web"}})
	if resp.Header.Get("Location") != "/tag/web/" {
		t.Errorf("update should redirect to the renamed tag, got %q", resp.Header.Get("Location"))
	}

	resp, body = app.get("/tag/web/delete/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Are you sure") {
		t.Errorf("delete GET renders a confirmation, got %d", resp.StatusCode)
	}
	resp, _ = app.post("/tag/web/delete/", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/tag/" {
		t.Errorf("delete POST redirects to the list, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if tag, _ := database.GetTagWithSlug("web"); tag != nil {
		t.Error("tag should be gone")
	}

	resp, _ = app.get("/startup/create/")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("tag permissions do not cover startups, got %d", resp.StatusCode)
	}
}

func TestStartupAndNewsLinkFlow(t *testing.T) {
	app := newTestApp(t)
	admin, err := database.CreateUser(database.NewUser{Email: "root@example.com", Password: "password123", Name: "Root", IsStaff: true, IsSuperuser: true})
	if err != nil {
		t.Fatal(err)
	}
	app.login(admin.Email)

	resp, _ := app.post("/startup/create/", url.Values{
		"name":         {"Jambon"},
		"description":  {"Consulting."},
		"founded_date": {"2013-01-18"},
		"contact":      {"hi@jambon.com"},
		"website":      {"https://jambon.com"},
	})
	if resp.Header.Get("Location") != "/startup/jambon/" {
		t.Fatalf("expected redirect to startup, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = app.post("/startup/jambon/add_article_link/", url.Values{
		"title":    {"Jambon Launches"},
		"pub_date": {"2013-02-01"},
		"link":     {"https://news.example.com/jambon"},
	})
	if resp.Header.Get("Location") != "/startup/jambon/" {
		t.Fatalf("news link create redirects to its startup, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := app.get("/startup/jambon/jambon-launches/update/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Jambon Launches") {
		t.Errorf("news link update form, got %d", resp.StatusCode)
	}

	resp, body = app.get("/api/v1/startups/jambon")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api detail returned %d", resp.StatusCode)
	}
	var detail struct {
		Slug      string `json:"slug"`
		NewsLinks []struct {
			Slug string `json:"slug"`
		} `json:"news_links"`
	}
	if err := json.Unmarshal([]byte(body), &detail); err != nil {
		t.Fatal(err)
	}
	if detail.Slug != "jambon" || len(detail.NewsLinks) != 1 || detail.NewsLinks[0].Slug != "jambon-launches" {
		t.Errorf("unexpected api detail %+v", detail)
	}

	resp, _ = app.post("/startup/jambon/jambon-launches/delete/", nil)
	if resp.Header.Get("Location") != "/startup/jambon/" {
		t.Errorf("news link delete redirects to its startup, got %q", resp.Header.Get("Location"))
	}

	resp, _ = app.post("/startup/jambon/delete/", nil)
	if resp.Header.Get("Location") != "/startup/" {
		t.Errorf("startup delete redirects to the list, got %q", resp.Header.Get("Location"))
	}
	resp, _ = app.get("/api/v1/startups/jambon")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleted startup should 404 in the api, got %d", resp.StatusCode)
	}
}

func TestPostCreateUsesCurrentAuthor(t *testing.T) {
	app := newTestApp(t)
	author := mustUser(t, "writer@example.com", database.PermAddPost)
	app.login(author.Email)

	resp, _ := app.post("/blog/create/", url.Values{
		"title":    {"Hello World"},
		"text":     {"First post."},
		"pub_date": {"2015-03-07"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/blog/2015/03/hello-world/" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	post, err := database.GetPostInWindow(archive.MonthWindow(2015, time.March), "hello-world", false)
	if err != nil || post == nil {
		t.Fatalf("post not stored: %v", err)
	}
	if post.AuthorID == nil || *post.AuthorID != author.ID {
		t.Errorf("author should default to the current user, got %v", post.AuthorID)
	}

	resp, body := app.post("/blog/create/", url.Values{
		"title":    {"Hello Again"},
		"slug":     {"hello-world"},
		"text":     {"Second post."},
		"pub_date": {"2015-03-20"},
	})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "unique for Date published month") {
		t.Errorf("duplicate slug in the same month re-renders the form, got %d", resp.StatusCode)
	}
}

func TestSignupProfileAndLogout(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.post("/user/create/", url.Values{
		"email":     {"grace@example.com"},
		"name":      {"Grace Hopper"},
		"password1": {"password123"},
		"password2": {"password123"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/user/grace-hopper/" {
		t.Fatalf("signup should redirect to the new profile, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, body := app.get("/user/profile/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Grace Hopper") {
		t.Fatalf("signed up users are signed in, got %d", resp.StatusCode)
	}

	resp, body = app.post("/user/profile/edit/", url.Values{"name": {"Grace"}, "slug": {"login"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "may not be") {
		t.Errorf("reserved profile slug must be rejected, got %d", resp.StatusCode)
	}
	resp, _ = app.post("/user/profile/edit/", url.Values{"name": {"Grace"}, "slug": {"grace"}, "about": {"Admiral."}})
	if resp.Header.Get("Location") != "/user/grace/" {
		t.Errorf("profile update redirects to the profile, got %q", resp.Header.Get("Location"))
	}
	resp, body = app.get("/user/grace/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Admiral.") {
		t.Errorf("public profile, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "Contributor") {
		t.Error("new users are not contributors")
	}
	grace, _ := database.GetUserWithEmail("grace@example.com")
	if err := database.AddToGroup(grace, database.ContributorsGroup); err != nil {
		t.Fatal(err)
	}
	if _, body = app.get("/user/grace/"); !strings.Contains(body, `<span class="tag">Contributor</span>`) {
		t.Error("contributors are marked on their profile")
	}

	resp, _ = app.post("/user/logout/", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/blog/" {
		t.Errorf("logout redirects to the blog, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, _ = app.get("/user/profile/")
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("profile requires login after logout, got %d", resp.StatusCode)
	}

	resp, body = app.post("/user/login/", url.Values{"email": {"grace@example.com"}, "password": {"wrong"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Please enter a correct email and password") {
		t.Errorf("failed login re-renders the form, got %d", resp.StatusCode)
	}

	resp, _ = app.post("/user/login/", url.Values{"email": {"grace@example.com"}, "password": {"password123"}, "next": {"//evil.example.com/"}})
	if resp.Header.Get("Location") != "/blog/" {
		t.Errorf("off-site next must be ignored, got %q", resp.Header.Get("Location"))
	}
}

func TestAdminPostList(t *testing.T) {
	app := newTestApp(t)
	mustUser(t, "reader@example.com")
	if _, err := database.CreateUser(database.NewUser{Email: "staff@example.com", Password: "password123", Name: "Staff", IsStaff: true}); err != nil {
		t.Fatal(err)
	}

	tags := []database.Tag{{Name: "a", Slug: "a"}, {Name: "b", Slug: "b"}}
	for i := range tags {
		database.SaveTag(&tags[i])
	}
	mustPost(t, "Tagged Twice", "tagged-twice", day(2015, time.March, 1), tags...)
	mustPost(t, "Other Year", "other-year", day(2016, time.May, 1))

	resp, _ := app.get("/admin/posts/")
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("visitors are sent to login, got %d", resp.StatusCode)
	}

	app.login("reader@example.com")
	resp, _ = app.get("/admin/posts/")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-staff users get 403, got %d", resp.StatusCode)
	}

	app.login("staff@example.com")
	resp, body := app.get("/admin/posts/?q=twice")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("staff sees the admin list, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Tagged Twice") || strings.Contains(body, "Other Year") || !strings.Contains(body, "<td>2</td>") {
		t.Errorf("search should keep only the tagged post with its tag count")
	}

	_, body = app.get("/admin/posts/?year=2016")
	if !strings.Contains(body, "Other Year") || strings.Contains(body, "Tagged Twice") {
		t.Error("year filter should keep only 2016 posts")
	}

	resp, _ = app.get("/admin/posts/?year=%2B016")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("signed year should be rejected, got %d", resp.StatusCode)
	}
}

func TestTagAPI(t *testing.T) {
	app := newTestApp(t)
	database.SaveTag(&database.Tag{Name: "mobile", Slug: "mobile"})

	resp, body := app.get("/api/v1/tags")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	var tags []struct {
		Slug string `json:"slug"`
		URL  string `json:"url"`
	}
	if err := json.Unmarshal([]byte(body), &tags); err != nil {
		t.Fatal(err)
	}
	if len(tags) != 1 || !strings.HasSuffix(tags[0].URL, "/tag/mobile/") {
		t.Errorf("unexpected tags %+v", tags)
	}
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	app := newTestApp(t)
	mustUser(t, "tagger@example.com", database.PermAddTag)
	app.login("tagger@example.com")

	resp, err := app.client.PostForm(app.server.URL+"/tag/create/", url.Values{"name": {"sneaky"}})
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(body, "CSRF verification failed") {
		t.Errorf("tokenless POST should get 403, got %d", resp.StatusCode)
	}
	if tag, _ := database.GetTagWithSlug("sneaky"); tag != nil {
		t.Error("tag must not be created without a token")
	}

	resp, _ = app.post("/tag/create/", url.Values{"name": {"welcome"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("POST with a token should succeed, got %d", resp.StatusCode)
	}
}

func TestLogoutFormCarriesCSRFToken(t *testing.T) {
	app := newTestApp(t)
	mustUser(t, "reader@example.com")
	app.login("reader@example.com")

	_, body := app.get("/blog/")
	if !regexp.MustCompile(`action="/user/logout/"><input type="hidden" name="csrf_token" value="[^"]+"`).MatchString(body) {
		t.Error("logout form should include the CSRF token")
	}
}
