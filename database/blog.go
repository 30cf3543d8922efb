package database

import (
	"strings"
	"time"

	"suorganizer/archive"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postsQuery hides posts dated after today unless allowFuture is set.
func postsQuery(allowFuture bool) *gorm.DB {
	query := GetDB().Model(&Post{})
	if !allowFuture {
		query = query.Where("pub_date <= ?", archive.Today())
	}
	return query
}

func withPostRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author.Profile").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Startups", func(db *gorm.DB) *gorm.DB { return db.Order("name") })
}

func CountPosts(allowFuture bool) (int64, error) {
	var count int64
	result := postsQuery(allowFuture).Count(&count)
	return count, result.Error
}

func ListPosts(allowFuture bool, offset, limit int) ([]Post, error) {
	var posts []Post
	result := withPostRelations(postsQuery(allowFuture)).
		Order("pub_date DESC, title").
		Offset(offset).Limit(limit).
		Find(&posts)
	return posts, result.Error
}

func PostsInWindow(window archive.Window, allowFuture bool) ([]Post, error) {
	var posts []Post
	result := withPostRelations(postsQuery(allowFuture)).
		Where("pub_date >= ? AND pub_date < ?", window.Start, window.End).
		Order("pub_date DESC, title").
		Find(&posts)
	return posts, result.Error
}

// PostDates returns the publication dates inside window, or of all posts
// when window is nil.
func PostDates(window *archive.Window, allowFuture bool) ([]time.Time, error) {
	query := postsQuery(allowFuture)
	if window != nil {
		query = query.Where("pub_date >= ? AND pub_date < ?", window.Start, window.End)
	}
	var raw []datatypes.Date
	if err := query.Order("pub_date").Pluck("pub_date", &raw).Error; err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(raw))
	for i, d := range raw {
		dates[i] = archive.Date(time.Time(d))
	}
	return dates, nil
}

// GetPostInWindow finds a post by slug among the posts of one month.
func GetPostInWindow(window archive.Window, slug string, allowFuture bool) (*Post, error) {
	var post Post
	query := withPostRelations(postsQuery(allowFuture)).
		Where("pub_date >= ? AND pub_date < ?", window.Start, window.End).
		Where("LOWER(slug) = LOWER(?)", slug)
	found, err := first(query, &post)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

// PostSlugTaken reports whether another post in window already uses slug.
func PostSlugTaken(slug string, window archive.Window, excludeID uint) (bool, error) {
	var count int64
	query := GetDB().Model(&Post{}).
		Where("pub_date >= ? AND pub_date < ?", window.Start, window.End).
		Where("LOWER(slug) = LOWER(?)", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	result := query.Count(&count)
	return count > 0, result.Error
}

// LatestPostBefore is the newest post dated strictly before t.
func LatestPostBefore(t time.Time, allowFuture bool) (*Post, error) {
	var post Post
	query := postsQuery(allowFuture).Where("pub_date < ?", t).Order("pub_date DESC")
	found, err := first(query, &post)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

// EarliestPostFrom is the oldest post dated on or after t.
func EarliestPostFrom(t time.Time, allowFuture bool) (*Post, error) {
	var post Post
	query := postsQuery(allowFuture).Where("pub_date >= ?", t).Order("pub_date")
	found, err := first(query, &post)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

func AuthorPosts(authorID uint, allowFuture bool) ([]Post, error) {
	var posts []Post
	result := postsQuery(allowFuture).
		Where("author_id = ?", authorID).
		Order("pub_date DESC, title").
		Find(&posts)
	return posts, result.Error
}

// SavePost creates or updates the post and replaces its tags and startups.
func SavePost(post *Post, tags []Tag, startups []Startup) error {
	return GetDB().Transaction(func(tx *gorm.DB) error {
		post.Tags, post.Startups = nil, nil
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Model(post).Association("Startups").Replace(startups); err != nil {
			return err
		}
		post.Tags, post.Startups = tags, startups
		return nil
	})
}

func DeletePost(post *Post) error {
	return GetDB().Select("Tags", "Startups").Delete(post).Error
}

// likeEscaper makes LIKE wildcards in user input match literally. The escape
// character is '!' because backslash handling differs between drivers.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// AdminPostFilter mirrors the admin changelist controls.
type AdminPostFilter struct {
	Search      string
	Window      *archive.Window
	AllowFuture bool
	Offset      int
	Limit       int
}

type AdminPostRow struct {
	Post     Post
	TagCount int64
}

// AdminPosts returns one page of posts with their tag counts, plus the
// total number of matching posts.
func AdminPosts(filter AdminPostFilter) ([]AdminPostRow, int64, error) {
	filtered := func() *gorm.DB {
		query := postsQuery(filter.AllowFuture)
		if filter.Search != "" {
			like := "%" + likeEscaper.Replace(filter.Search) + "%"
			query = query.Where("(LOWER(title) LIKE LOWER(?) ESCAPE '!' OR LOWER(text) LIKE LOWER(?) ESCAPE '!')", like, like)
		}
		if filter.Window != nil {
			query = query.Where("pub_date >= ? AND pub_date < ?", filter.Window.Start, filter.Window.End)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []Post
	err := filtered().Order("pub_date DESC, title").Offset(filter.Offset).Limit(filter.Limit).Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	counts, err := tagCounts(posts)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]AdminPostRow, len(posts))
	for i, post := range posts {
		rows[i] = AdminPostRow{Post: post, TagCount: counts[post.ID]}
	}
	return rows, total, nil
}

func tagCounts(posts []Post) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(posts))
	if len(posts) == 0 {
		return counts, nil
	}
	ids := make([]uint, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	var rows []struct {
		PostID uint
		Count  int64
	}
	err := GetDB().Table("post_tags").
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}
