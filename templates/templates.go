// Package templates embeds the html/template pages. Every page defines
// "title" and "content" blocks rendered inside layout.html.
package templates

import "embed"

//go:embed layout.html blog/*.html organizer/*.html user/*.html admin/*.html
var FS embed.FS
