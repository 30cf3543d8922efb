package forms

import (
	"net/url"
	"strings"

	"suorganizer/archive"
	"suorganizer/constants"
	"suorganizer/database"

	"gorm.io/datatypes"
)

// PostForm picks tags and startups by slug. A blank pub_date means today.
type PostForm struct {
	Title    string   `form:"title" validate:"required,max=63"`
	Slug     string   `form:"slug" validate:"required,max=63,slug"`
	Text     string   `form:"text" validate:"required"`
	PubDate  string   `form:"pub_date" validate:"required,datetime=2006-01-02"`
	Tags     []string `form:"tags"`
	Startups []string `form:"startups"`

	tags     []database.Tag
	startups []database.Startup
}

func NewPostForm(values url.Values) *PostForm {
	return &PostForm{
		Title:    strings.TrimSpace(values.Get("title")),
		Slug:     values.Get("slug"),
		Text:     strings.TrimSpace(values.Get("text")),
		PubDate:  strings.TrimSpace(values.Get("pub_date")),
		Tags:     selection(values["tags"]),
		Startups: selection(values["startups"]),
	}
}

// InitialPostForm is the empty create form, dated today.
func InitialPostForm() *PostForm {
	return &PostForm{PubDate: archive.Today().Format(constants.DATE_LAYOUT)}
}

func PostFormFrom(post *database.Post) *PostForm {
	form := &PostForm{
		Title:   post.Title,
		Slug:    post.Slug,
		Text:    post.Text,
		PubDate: post.Published().Format(constants.DATE_LAYOUT),
	}
	for _, tag := range post.Tags {
		form.Tags = append(form.Tags, tag.Slug)
	}
	for _, startup := range post.Startups {
		form.Startups = append(form.Startups, startup.Slug)
	}
	return form
}

// Clean validates the form. The slug must be unique among posts published in
// the same month; excludeID is the post being updated, or 0.
func (f *PostForm) Clean(excludeID uint) (Errors, error) {
	errs := Errors{}
	f.Slug = cleanSlug(f.Slug, f.Title, constants.POST_SLUG_MAX_LENGTH)
	rejectCreate(f.Slug, errs)
	if f.PubDate == "" {
		f.PubDate = archive.Today().Format(constants.DATE_LAYOUT)
	}
	check(f, errs)

	tags, err := resolveTags(f.Tags, errs)
	if err != nil {
		return nil, err
	}
	f.tags = tags

	startups, err := database.GetStartupsWithSlugs(f.Startups)
	if err != nil {
		return nil, err
	}
	if len(startups) != len(f.Startups) {
		for _, s := range f.Startups {
			if !containsStartup(startups, s) {
				invalidChoice("startups", s, errs)
				break
			}
		}
	}
	f.startups = startups

	if errs.Any() {
		return errs, nil
	}

	pub, err := parseDate(f.PubDate)
	if err != nil {
		errs.Add("pub_date", "Enter a valid date.")
		return errs, nil
	}
	taken, err := database.PostSlugTaken(f.Slug, archive.MonthOf(pub), excludeID)
	if err != nil {
		return nil, err
	}
	if taken {
		errs.Add("slug", "Slug must be unique for Date published month.")
	}
	return errs, nil
}

// Apply copies cleaned values onto post and returns its tags and startups.
func (f *PostForm) Apply(post *database.Post) ([]database.Tag, []database.Startup) {
	pub, _ := parseDate(f.PubDate)
	post.Title = f.Title
	post.Slug = f.Slug
	post.Text = f.Text
	post.PubDate = datatypes.Date(pub)
	return f.tags, f.startups
}

func containsStartup(startups []database.Startup, slug string) bool {
	for _, startup := range startups {
		if strings.EqualFold(startup.Slug, slug) {
			return true
		}
	}
	return false
}
