package components

import (
	"suorganizer/pagination"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

// PaginationNav renders first/previous/next/last links around the current
// page number. Nothing is rendered for a single page.
func PaginationNav(links pagination.Links) g.Node {
	if links.NumPages <= 1 {
		return nil
	}
	link := func(href, label, rel string) g.Node {
		return g.If(href != "", Li(A(Href(href), g.If(rel != "", g.Attr("rel", rel)), g.Text(label))))
	}
	return Nav(Class("pagination"),
		Ul(
			link(links.First, "First", "first"),
			link(links.Previous, "Previous", "prev"),
			Li(Class("current"), g.Textf("Page %d of %d", links.Number, links.NumPages)),
			link(links.Next, "Next", "next"),
			link(links.Last, "Last", "last"),
		),
	)
}

// FormErrors lists validation messages; empty input renders nothing.
func FormErrors(messages []string) g.Node {
	if len(messages) == 0 {
		return nil
	}
	items := make([]g.Node, len(messages))
	for i, message := range messages {
		items[i] = Li(g.Text(message))
	}
	return Ul(Class("errorlist text-error"), g.Group(items))
}
