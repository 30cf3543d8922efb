// Package components renders the shared page chrome and small fragments
// with gomponents.
package components

import (
	"bytes"
	"html/template"
	"net/http"

	"suorganizer/constants"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type LayoutProps struct {
	Title    string
	SiteName string
	// CurrentUser is the signed in user's email, or "" for visitors.
	CurrentUser string
	ProfileURL  string
	IsStaff     bool
	CSRFToken   string
}

func NavbarComponent(props LayoutProps) g.Node {
	return Nav(Class("nav"),
		Div(Class("nav-left"),
			Div(Class("brand"), A(Href("/"), g.Text(props.SiteName))),
			A(Href("/blog/"), g.Text("Blog")),
			A(Href("/startup/"), g.Text("Startups")),
			A(Href("/tag/"), g.Text("Tags")),
		),
		Div(Class("nav-links nav-right"),
			g.If(props.CurrentUser == "",
				Div(
					A(Href("/user/login/"), g.Text("Log in")),
					A(Href("/user/create/"), g.Text("Sign up")),
				),
			),
			g.If(props.CurrentUser != "",
				Div(Class("row"),
					Div(Class("col"), A(Href(props.ProfileURL), g.Textf("Signed in as %s", props.CurrentUser))),
					g.If(props.IsStaff, Div(Class("col"), A(Href("/admin/posts/"), g.Text("Admin")))),
					Div(Class("col"),
						FormEl(Method("post"), Action("/user/logout/"),
							Input(Type("hidden"), Name(constants.CSRF_FIELD_NAME), Value(props.CSRFToken)),
							Button(Type("submit"), Class("button clear"), g.Text("Log out")),
						),
					),
				)),
		),
	)
}

func FooterComponent(siteName string) g.Node {
	return Footer(Class("footer"),
		P(Class("text-center"),
			Small(g.Textf("%s: news and blog posts about startups.", siteName)),
		),
	)
}

func Layout(props LayoutProps, children ...g.Node) g.Node {
	title := props.SiteName
	if props.Title != "" {
		title = props.Title + " - " + props.SiteName
	}
	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				Link(Rel("stylesheet"), Href("/assets/css/main.css")),
				g.If(props.CSRFToken != "", Meta(Name("csrf-token"), Content(props.CSRFToken))),
				TitleEl(g.Text(title)),
			),
			Body(
				Div(Class("container"), Style("margin-top: 1.5em;"),
					NavbarComponent(props),
					Main(
						g.Group(children),
					),
				),
				FooterComponent(props.SiteName),
			),
		),
	)
}

// ErrorPage is a complete page for 403, 404 and similar responses.
func ErrorPage(props LayoutProps, status int, message string) g.Node {
	if props.Title == "" {
		props.Title = http.StatusText(status)
	}
	return Layout(props,
		Section(Class("error"),
			H2(g.Textf("%d %s", status, http.StatusText(status))),
			g.If(message != "", P(g.Text(message))),
			P(A(Href("/"), g.Text("Back to the front page"))),
		),
	)
}

// Render converts node for use inside an html/template page. A nil node
// renders as the empty string.
func Render(node g.Node) template.HTML {
	if node == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}
