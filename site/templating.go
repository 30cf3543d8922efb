package site

import (
	"bytes"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"suorganizer/components"
	"suorganizer/database"
	"suorganizer/forms"
	"suorganizer/pagination"
	"suorganizer/templates"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/gorilla/csrf"
)

var templatesCache sync.Map

type GlobalTemplateData struct {
	CurrentUser *database.User
	IsDebug     bool
	SiteName    string
	PublicURL   string
	Path        string
	CSRFToken   string
	CSRFField   template.HTML
}

func globalData(r *http.Request) GlobalTemplateData {
	return GlobalTemplateData{
		CurrentUser: getSignedInUserOrNil(r),
		IsDebug:     settings.Debug,
		SiteName:    settings.SiteName,
		PublicURL:   settings.PublicURL,
		Path:        r.URL.Path,
		CSRFToken:   csrf.Token(r),
		CSRFField:   csrf.TemplateField(r),
	}
}

func layoutProps(global GlobalTemplateData) components.LayoutProps {
	props := components.LayoutProps{SiteName: global.SiteName, CSRFToken: global.CSRFToken}
	if user := global.CurrentUser; user != nil {
		props.CurrentUser = user.Email
		props.ProfileURL = "/user/profile/"
		props.IsStaff = user.IsStaff
	}
	return props
}

func renderMarkdown(markdownStr string) template.HTML {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(markdownStr))

	// create HTML renderer with extensions
	htmlFlags := html.CommonFlags | html.HrefTargetBlank | html.SkipHTML
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return template.HTML(markdown.Render(doc, renderer))
}

var funcs = template.FuncMap{
	"parseMarkdown": renderMarkdown,
	"dateFmt": func(layout string, t time.Time) string {
		return t.Format(layout)
	},
	"now": func() time.Time {
		return time.Now()
	},
	"can": func(user *database.User, codename string) bool {
		return user.HasPerm(codename)
	},
	"navbar": func(global GlobalTemplateData) template.HTML {
		return components.Render(components.NavbarComponent(layoutProps(global)))
	},
	"footer": func(global GlobalTemplateData) template.HTML {
		return components.Render(components.FooterComponent(global.SiteName))
	},
	"paginationNav": func(links pagination.Links) template.HTML {
		return components.Render(components.PaginationNav(links))
	},
	"formErrors": func(errs forms.Errors, field string) template.HTML {
		return components.Render(components.FormErrors(errs.Get(field)))
	},
	"selected": forms.Selected,
}

func templateFS() fs.FS {
	if settings.TemplatesDir != "" {
		return os.DirFS(settings.TemplatesDir)
	}
	return templates.FS
}

func loadTemplate(templateName string) (*template.Template, error) {
	cached, ok := templatesCache.Load(templateName)
	if ok && !settings.Debug {
		return cached.(*template.Template), nil
	}

	baseTemplate := template.New("layout.html").Funcs(funcs)
	actualTemplate, err := baseTemplate.ParseFS(templateFS(), "layout.html", templateName+".html")
	if err != nil {
		return nil, err
	}

	templatesCache.Store(templateName, actualTemplate)
	return actualTemplate, nil
}

// RenderTemplate renders templates/<templateName>.html inside the layout with
// a 200 status.
func RenderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	templateData := struct {
		Global GlobalTemplateData
		Data   any
	}{
		Global: globalData(r),
		Data:   data,
	}

	actualTemplate, err := loadTemplate(templateName)
	if err != nil {
		log.Printf("Template parse error for %s: %v", templateName, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := actualTemplate.Execute(&buf, templateData); err != nil {
		log.Printf("Template execution error: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
