package forms

import (
	"net/url"
	"strings"
	"time"

	"suorganizer/constants"
	"suorganizer/database"

	"gorm.io/datatypes"
)

type TagForm struct {
	Name string `form:"name" validate:"required,max=31"`
	Slug string `form:"slug" validate:"required,max=31,slug"`
}

func NewTagForm(values url.Values) *TagForm {
	return &TagForm{
		Name: strings.TrimSpace(values.Get("name")),
		Slug: values.Get("slug"),
	}
}

func TagFormFrom(tag *database.Tag) *TagForm {
	return &TagForm{Name: tag.Name, Slug: tag.Slug}
}

// Clean validates the form. excludeID is the tag being updated, or 0.
func (f *TagForm) Clean(excludeID uint) (Errors, error) {
	errs := Errors{}
	f.Name = strings.ToLower(f.Name)
	f.Slug = cleanSlug(f.Slug, f.Name, constants.TAG_SLUG_MAX_LENGTH)
	rejectCreate(f.Slug, errs)
	check(f, errs)
	if errs.Any() {
		return errs, nil
	}

	existing, err := database.GetTagWithName(f.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != excludeID {
		errs.Add("name", "Tag with this Name already exists.")
	}

	existing, err = database.GetTagWithSlug(f.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != excludeID {
		errs.Add("slug", "Tag with this Slug already exists.")
	}
	return errs, nil
}

func (f *TagForm) Apply(tag *database.Tag) {
	tag.Name = f.Name
	tag.Slug = f.Slug
}

type StartupForm struct {
	Name        string   `form:"name" validate:"required,max=31"`
	Slug        string   `form:"slug" validate:"required,max=31,slug"`
	Description string   `form:"description" validate:"required"`
	FoundedDate string   `form:"founded_date" validate:"required,datetime=2006-01-02"`
	Contact     string   `form:"contact" validate:"required,email,max=254"`
	Website     string   `form:"website" validate:"required,url,max=255"`
	Tags        []string `form:"tags"`

	tags []database.Tag
}

func NewStartupForm(values url.Values) *StartupForm {
	return &StartupForm{
		Name:        strings.TrimSpace(values.Get("name")),
		Slug:        values.Get("slug"),
		Description: strings.TrimSpace(values.Get("description")),
		FoundedDate: strings.TrimSpace(values.Get("founded_date")),
		Contact:     strings.TrimSpace(values.Get("contact")),
		Website:     strings.TrimSpace(values.Get("website")),
		Tags:        selection(values["tags"]),
	}
}

func StartupFormFrom(startup *database.Startup) *StartupForm {
	form := &StartupForm{
		Name:        startup.Name,
		Slug:        startup.Slug,
		Description: startup.Description,
		FoundedDate: startup.Founded().Format(constants.DATE_LAYOUT),
		Contact:     startup.Contact,
		Website:     startup.Website,
	}
	for _, tag := range startup.Tags {
		form.Tags = append(form.Tags, tag.Slug)
	}
	return form
}

func (f *StartupForm) Clean(excludeID uint) (Errors, error) {
	errs := Errors{}
	f.Slug = cleanSlug(f.Slug, f.Name, constants.STARTUP_SLUG_MAX_LENGTH)
	rejectCreate(f.Slug, errs)
	check(f, errs)

	tags, err := resolveTags(f.Tags, errs)
	if err != nil {
		return nil, err
	}
	f.tags = tags
	if errs.Any() {
		return errs, nil
	}

	existing, err := database.GetStartupWithSlug(f.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != excludeID {
		errs.Add("slug", "Startup with this Slug already exists.")
	}
	return errs, nil
}

// Apply copies cleaned values onto startup and returns the selected tags.
func (f *StartupForm) Apply(startup *database.Startup) []database.Tag {
	founded, _ := time.ParseInLocation(constants.DATE_LAYOUT, f.FoundedDate, time.UTC)
	startup.Name = f.Name
	startup.Slug = f.Slug
	startup.Description = f.Description
	startup.FoundedDate = datatypes.Date(founded)
	startup.Contact = f.Contact
	startup.Website = f.Website
	return f.tags
}

func resolveTags(slugs []string, errs Errors) ([]database.Tag, error) {
	tags, err := database.GetTagsWithSlugs(slugs)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(slugs) {
		for _, s := range slugs {
			if !containsTag(tags, s) {
				invalidChoice("tags", s, errs)
				break
			}
		}
	}
	return tags, nil
}

func containsTag(tags []database.Tag, slug string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag.Slug, slug) {
			return true
		}
	}
	return false
}

// NewsLinkForm has no startup field; the startup comes from the URL.
type NewsLinkForm struct {
	Title   string `form:"title" validate:"required,max=63"`
	Slug    string `form:"slug" validate:"required,max=63,slug"`
	PubDate string `form:"pub_date" validate:"required,datetime=2006-01-02"`
	Link    string `form:"link" validate:"required,url,max=255"`
}

func NewNewsLinkForm(values url.Values) *NewsLinkForm {
	return &NewsLinkForm{
		Title:   strings.TrimSpace(values.Get("title")),
		Slug:    values.Get("slug"),
		PubDate: strings.TrimSpace(values.Get("pub_date")),
		Link:    strings.TrimSpace(values.Get("link")),
	}
}

func NewsLinkFormFrom(link *database.NewsLink) *NewsLinkForm {
	return &NewsLinkForm{
		Title:   link.Title,
		Slug:    link.Slug,
		PubDate: link.Published().Format(constants.DATE_LAYOUT),
		Link:    link.Link,
	}
}

func (f *NewsLinkForm) Clean(startup *database.Startup, excludeID uint) (Errors, error) {
	errs := Errors{}
	f.Slug = cleanSlug(f.Slug, f.Title, constants.NEWSLINK_SLUG_MAX_LENGTH)
	rejectCreate(f.Slug, errs)
	check(f, errs)
	if errs.Any() {
		return errs, nil
	}

	existing, err := database.GetNewsLinkForStartup(startup.ID, f.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != excludeID {
		errs.Add(NonField, "News article with this Slug and Startup already exists.")
	}
	return errs, nil
}

func (f *NewsLinkForm) Apply(startup *database.Startup, link *database.NewsLink) {
	pub, _ := time.ParseInLocation(constants.DATE_LAYOUT, f.PubDate, time.UTC)
	link.Title = f.Title
	link.Slug = f.Slug
	link.PubDate = datatypes.Date(pub)
	link.Link = f.Link
	link.StartupID = startup.ID
	link.Startup = *startup
}
