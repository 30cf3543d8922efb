// Package fixtures dumps and loads organizer and blog content keyed by
// natural keys instead of database ids.
package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"suorganizer/archive"
	"suorganizer/constants"
	"suorganizer/database"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TagRecord struct {
	Name string `json:"name" yaml:"name"`
	Slug string `json:"slug" yaml:"slug"`
}

type StartupRecord struct {
	Name        string   `json:"name" yaml:"name"`
	Slug        string   `json:"slug" yaml:"slug"`
	Description string   `json:"description" yaml:"description"`
	FoundedDate string   `json:"founded_date" yaml:"founded_date"`
	Contact     string   `json:"contact" yaml:"contact"`
	Website     string   `json:"website" yaml:"website"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// NewsLinkRecord is keyed by (Startup, Slug).
type NewsLinkRecord struct {
	Startup string `json:"startup" yaml:"startup"`
	Slug    string `json:"slug" yaml:"slug"`
	Title   string `json:"title" yaml:"title"`
	PubDate string `json:"pub_date" yaml:"pub_date"`
	Link    string `json:"link" yaml:"link"`
}

// PostRecord is keyed by the month of PubDate and Slug. Author is an email.
type PostRecord struct {
	Title    string   `json:"title" yaml:"title"`
	Slug     string   `json:"slug" yaml:"slug"`
	Text     string   `json:"text" yaml:"text"`
	PubDate  string   `json:"pub_date" yaml:"pub_date"`
	Author   string   `json:"author,omitempty" yaml:"author,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Startups []string `json:"startups,omitempty" yaml:"startups,omitempty"`
}

type Document struct {
	Tags      []TagRecord      `json:"tags" yaml:"tags"`
	Startups  []StartupRecord  `json:"startups" yaml:"startups"`
	NewsLinks []NewsLinkRecord `json:"news_links" yaml:"news_links"`
	Posts     []PostRecord     `json:"posts" yaml:"posts"`
}

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown fixture format")

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func Decode(r io.Reader, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s fixture: %w", format, err)
	}
	return &doc, nil
}

func formatDate(d datatypes.Date) string {
	return time.Time(d).Format(constants.DATE_LAYOUT)
}

func parseDate(field, s string) (datatypes.Date, error) {
	t, err := archive.ParseDate(s)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return datatypes.Date(t), nil
}

// Dump reads every tag, startup, news link and post.
func Dump(db *gorm.DB) (*Document, error) {
	doc := &Document{}

	var tags []database.Tag
	if err := db.Order("slug").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("dump tags: %w", err)
	}
	for _, tag := range tags {
		doc.Tags = append(doc.Tags, TagRecord{Name: tag.Name, Slug: tag.Slug})
	}

	var startups []database.Startup
	if err := db.Preload("Tags").Preload("NewsLinks").Order("slug").Find(&startups).Error; err != nil {
		return nil, fmt.Errorf("dump startups: %w", err)
	}
	for _, startup := range startups {
		record := StartupRecord{
			Name:        startup.Name,
			Slug:        startup.Slug,
			Description: startup.Description,
			FoundedDate: formatDate(startup.FoundedDate),
			Contact:     startup.Contact,
			Website:     startup.Website,
		}
		for _, tag := range startup.Tags {
			record.Tags = append(record.Tags, tag.Slug)
		}
		doc.Startups = append(doc.Startups, record)

		for _, link := range startup.NewsLinks {
			doc.NewsLinks = append(doc.NewsLinks, NewsLinkRecord{
				Startup: startup.Slug,
				Slug:    link.Slug,
				Title:   link.Title,
				PubDate: formatDate(link.PubDate),
				Link:    link.Link,
			})
		}
	}

	var posts []database.Post
	err := db.Preload("Author").Preload("Tags").Preload("Startups").Order("pub_date, slug").Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("dump posts: %w", err)
	}
	for _, post := range posts {
		record := PostRecord{
			Title:   post.Title,
			Slug:    post.Slug,
			Text:    post.Text,
			PubDate: formatDate(post.PubDate),
		}
		if post.Author != nil {
			record.Author = post.Author.Email
		}
		for _, tag := range post.Tags {
			record.Tags = append(record.Tags, tag.Slug)
		}
		for _, startup := range post.Startups {
			record.Startups = append(record.Startups, startup.Slug)
		}
		doc.Posts = append(doc.Posts, record)
	}

	return doc, nil
}

type Counts struct {
	Tags      int
	Startups  int
	NewsLinks int
	Posts     int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d tags, %d startups, %d news links, %d posts", c.Tags, c.Startups, c.NewsLinks, c.Posts)
}

// Load upserts the document inside one transaction; any failure leaves the
// database untouched.
func Load(db *gorm.DB, doc *Document) (Counts, error) {
	var counts Counts
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, record := range doc.Tags {
			if err := loadTag(tx, record); err != nil {
				return err
			}
			counts.Tags++
		}
		for _, record := range doc.Startups {
			if err := loadStartup(tx, record); err != nil {
				return err
			}
			counts.Startups++
		}
		for _, record := range doc.NewsLinks {
			if err := loadNewsLink(tx, record); err != nil {
				return err
			}
			counts.NewsLinks++
		}
		for _, record := range doc.Posts {
			if err := loadPost(tx, record); err != nil {
				return err
			}
			counts.Posts++
		}
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return counts, nil
}

// find fills dest and reports whether a row matched.
func find(query *gorm.DB, dest any) (bool, error) {
	err := query.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// uniqueSlugs drops repeated slugs, keeping the first occurrence.
func uniqueSlugs(slugs []string) []string {
	seen := make(map[string]bool, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func tagsWithSlugs(tx *gorm.DB, slugs []string) ([]database.Tag, error) {
	var tags []database.Tag
	slugs = uniqueSlugs(slugs)
	if len(slugs) == 0 {
		return tags, nil
	}
	if err := tx.Where("slug IN ?", slugs).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(slugs) {
		return nil, fmt.Errorf("unknown tag among %v", slugs)
	}
	return tags, nil
}

func loadTag(tx *gorm.DB, record TagRecord) error {
	var tag database.Tag
	if _, err := find(tx.Where("slug = ?", record.Slug), &tag); err != nil {
		return fmt.Errorf("load tag %s: %w", record.Slug, err)
	}
	tag.Name, tag.Slug = record.Name, record.Slug
	if err := tx.Omit(clause.Associations).Save(&tag).Error; err != nil {
		return fmt.Errorf("save tag %s: %w", record.Slug, err)
	}
	return nil
}

func loadStartup(tx *gorm.DB, record StartupRecord) error {
	founded, err := parseDate("founded_date", record.FoundedDate)
	if err != nil {
		return fmt.Errorf("load startup %s: %w", record.Slug, err)
	}
	tags, err := tagsWithSlugs(tx, record.Tags)
	if err != nil {
		return fmt.Errorf("load startup %s: %w", record.Slug, err)
	}

	var startup database.Startup
	if _, err := find(tx.Where("slug = ?", record.Slug), &startup); err != nil {
		return fmt.Errorf("load startup %s: %w", record.Slug, err)
	}
	startup.Name = record.Name
	startup.Slug = record.Slug
	startup.Description = record.Description
	startup.FoundedDate = founded
	startup.Contact = record.Contact
	startup.Website = record.Website
	if err := tx.Omit(clause.Associations).Save(&startup).Error; err != nil {
		return fmt.Errorf("save startup %s: %w", record.Slug, err)
	}
	if err := tx.Model(&startup).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("save startup %s tags: %w", record.Slug, err)
	}
	return nil
}

func loadNewsLink(tx *gorm.DB, record NewsLinkRecord) error {
	key := record.Startup + "/" + record.Slug
	pub, err := parseDate("pub_date", record.PubDate)
	if err != nil {
		return fmt.Errorf("load news link %s: %w", key, err)
	}

	var startup database.Startup
	found, err := find(tx.Where("slug = ?", record.Startup), &startup)
	if err != nil {
		return fmt.Errorf("load news link %s: %w", key, err)
	}
	if !found {
		return fmt.Errorf("load news link %s: unknown startup %q", key, record.Startup)
	}

	var link database.NewsLink
	if _, err := find(tx.Where("startup_id = ? AND slug = ?", startup.ID, record.Slug), &link); err != nil {
		return fmt.Errorf("load news link %s: %w", key, err)
	}
	link.StartupID = startup.ID
	link.Slug = record.Slug
	link.Title = record.Title
	link.PubDate = pub
	link.Link = record.Link
	if err := tx.Omit(clause.Associations).Save(&link).Error; err != nil {
		return fmt.Errorf("save news link %s: %w", key, err)
	}
	return nil
}

func loadPost(tx *gorm.DB, record PostRecord) error {
	key := record.PubDate + "/" + record.Slug
	pub, err := parseDate("pub_date", record.PubDate)
	if err != nil {
		return fmt.Errorf("load post %s: %w", key, err)
	}
	tags, err := tagsWithSlugs(tx, record.Tags)
	if err != nil {
		return fmt.Errorf("load post %s: %w", key, err)
	}

	var startups []database.Startup
	if startupSlugs := uniqueSlugs(record.Startups); len(startupSlugs) > 0 {
		if err := tx.Where("slug IN ?", startupSlugs).Find(&startups).Error; err != nil {
			return fmt.Errorf("load post %s: %w", key, err)
		}
		if len(startups) != len(startupSlugs) {
			return fmt.Errorf("load post %s: unknown startup among %v", key, startupSlugs)
		}
	}

	var post database.Post
	month := archive.MonthOf(time.Time(pub))
	query := tx.Where("slug = ? AND pub_date >= ? AND pub_date < ?", record.Slug, month.Start, month.End)
	if _, err := find(query, &post); err != nil {
		return fmt.Errorf("load post %s: %w", key, err)
	}

	if record.Author != "" {
		var author database.User
		found, err := find(tx.Where("LOWER(email) = LOWER(?)", record.Author), &author)
		if err != nil {
			return fmt.Errorf("load post %s: %w", key, err)
		}
		if !found {
			return fmt.Errorf("load post %s: unknown author %q", key, record.Author)
		}
		post.AuthorID = &author.ID
	}

	post.Title = record.Title
	post.Slug = record.Slug
	post.Text = record.Text
	post.PubDate = pub
	if err := tx.Omit(clause.Associations).Save(&post).Error; err != nil {
		return fmt.Errorf("save post %s: %w", key, err)
	}
	if err := tx.Model(&post).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("save post %s tags: %w", key, err)
	}
	if err := tx.Model(&post).Association("Startups").Replace(startups); err != nil {
		return fmt.Errorf("save post %s startups: %w", key, err)
	}
	return nil
}
