package database

import (
	"errors"

	"suorganizer/archive"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// first returns false instead of gorm.ErrRecordNotFound.
func first(query *gorm.DB, dest any) (bool, error) {
	err := query.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func GetTagWithSlug(slug string) (*Tag, error) {
	var tag Tag
	found, err := first(GetDB().Where("LOWER(slug) = LOWER(?)", slug), &tag)
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

func GetTagWithName(name string) (*Tag, error) {
	var tag Tag
	found, err := first(GetDB().Where("LOWER(name) = LOWER(?)", name), &tag)
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

// GetTagDetail loads the tag with its startups, ordered by name.
func GetTagDetail(slug string) (*Tag, error) {
	var tag Tag
	query := GetDB().
		Preload("Startups", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Where("LOWER(slug) = LOWER(?)", slug)
	found, err := first(query, &tag)
	if err != nil || !found {
		return nil, err
	}
	return &tag, nil
}

func GetTagsWithSlugs(slugs []string) ([]Tag, error) {
	var tags []Tag
	if len(slugs) == 0 {
		return tags, nil
	}
	result := GetDB().Where("slug IN ?", slugs).Order("name").Find(&tags)
	return tags, result.Error
}

func AllTags() ([]Tag, error) {
	var tags []Tag
	result := GetDB().Order("name").Find(&tags)
	return tags, result.Error
}

func CountTags() (int64, error) {
	var count int64
	result := GetDB().Model(&Tag{}).Count(&count)
	return count, result.Error
}

func ListTags(offset, limit int) ([]Tag, error) {
	var tags []Tag
	result := GetDB().Order("name").Offset(offset).Limit(limit).Find(&tags)
	return tags, result.Error
}

// TagPosts returns the tag's posts, newest first. Unless includeFuture is
// set only posts dated strictly before today are returned.
func TagPosts(tagID uint, includeFuture bool) ([]Post, error) {
	query := GetDB().
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", tagID)
	if !includeFuture {
		query = query.Where("posts.pub_date < ?", archive.Today())
	}
	var posts []Post
	result := query.Order("posts.pub_date DESC, posts.title").Find(&posts)
	return posts, result.Error
}

func SaveTag(tag *Tag) error {
	return GetDB().Omit(clause.Associations).Save(tag).Error
}

func DeleteTag(tag *Tag) error {
	return GetDB().Select(clause.Associations).Delete(tag).Error
}

func GetStartupWithSlug(slug string) (*Startup, error) {
	var startup Startup
	found, err := first(GetDB().Where("LOWER(slug) = LOWER(?)", slug), &startup)
	if err != nil || !found {
		return nil, err
	}
	return &startup, nil
}

// GetStartupDetail loads tags by name and news links newest first.
func GetStartupDetail(slug string) (*Startup, error) {
	var startup Startup
	query := GetDB().
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("NewsLinks", func(db *gorm.DB) *gorm.DB { return db.Order("pub_date DESC") }).
		Where("LOWER(slug) = LOWER(?)", slug)
	found, err := first(query, &startup)
	if err != nil || !found {
		return nil, err
	}
	for i := range startup.NewsLinks {
		startup.NewsLinks[i].Startup = startup
	}
	return &startup, nil
}

func GetStartupsWithSlugs(slugs []string) ([]Startup, error) {
	var startups []Startup
	if len(slugs) == 0 {
		return startups, nil
	}
	result := GetDB().Where("slug IN ?", slugs).Order("name").Find(&startups)
	return startups, result.Error
}

func AllStartups() ([]Startup, error) {
	var startups []Startup
	result := GetDB().Order("name").Find(&startups)
	return startups, result.Error
}

func CountStartups() (int64, error) {
	var count int64
	result := GetDB().Model(&Startup{}).Count(&count)
	return count, result.Error
}

func ListStartups(offset, limit int) ([]Startup, error) {
	var startups []Startup
	result := GetDB().Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Order("name").Offset(offset).Limit(limit).Find(&startups)
	return startups, result.Error
}

// LatestStartup is the most recently founded startup.
func LatestStartup() (*Startup, error) {
	var startup Startup
	found, err := first(GetDB().Order("founded_date DESC"), &startup)
	if err != nil || !found {
		return nil, err
	}
	return &startup, nil
}

func StartupPosts(startupID uint, includeFuture bool) ([]Post, error) {
	query := GetDB().
		Joins("JOIN post_startups ON post_startups.post_id = posts.id").
		Where("post_startups.startup_id = ?", startupID)
	if !includeFuture {
		query = query.Where("posts.pub_date < ?", archive.Today())
	}
	var posts []Post
	result := query.Order("posts.pub_date DESC, posts.title").Find(&posts)
	return posts, result.Error
}

// SaveStartup creates or updates the startup and replaces its tags.
func SaveStartup(startup *Startup, tags []Tag) error {
	return GetDB().Transaction(func(tx *gorm.DB) error {
		startup.Tags = nil
		if err := tx.Omit(clause.Associations).Save(startup).Error; err != nil {
			return err
		}
		if err := tx.Model(startup).Association("Tags").Replace(tags); err != nil {
			return err
		}
		startup.Tags = tags
		return nil
	})
}

// DeleteStartup removes the startup with its news links and tag/post links.
func DeleteStartup(startup *Startup) error {
	return GetDB().Select(clause.Associations).Delete(startup).Error
}

// GetNewsLink looks a news link up by its natural key.
func GetNewsLink(startupSlug, slug string) (*NewsLink, error) {
	startup, err := GetStartupWithSlug(startupSlug)
	if err != nil || startup == nil {
		return nil, err
	}
	link, err := GetNewsLinkForStartup(startup.ID, slug)
	if err != nil || link == nil {
		return nil, err
	}
	link.Startup = *startup
	return link, nil
}

func GetNewsLinkForStartup(startupID uint, slug string) (*NewsLink, error) {
	var link NewsLink
	query := GetDB().Where("startup_id = ? AND LOWER(slug) = LOWER(?)", startupID, slug)
	found, err := first(query, &link)
	if err != nil || !found {
		return nil, err
	}
	return &link, nil
}

func SaveNewsLink(link *NewsLink) error {
	return GetDB().Omit(clause.Associations).Save(link).Error
}

func DeleteNewsLink(link *NewsLink) error {
	return GetDB().Delete(&NewsLink{}, link.ID).Error
}
