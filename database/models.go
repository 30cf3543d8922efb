package database

import (
	"fmt"
	"time"

	"suorganizer/constants"

	"gorm.io/datatypes"
)

// Model is gorm.Model without soft deletes, so a slug becomes free again as
// soon as its row is deleted.
type Model struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Tag struct {
	Model
	Name     string    `gorm:"size:31;uniqueIndex;not null"`
	Slug     string    `gorm:"size:31;uniqueIndex;not null"`
	Startups []Startup `gorm:"many2many:startup_tags;"`
	Posts    []Post    `gorm:"many2many:post_tags;"`
}

func (t Tag) String() string { return t.Name }

func (t Tag) AbsoluteURL() string { return fmt.Sprintf("/tag/%s/", t.Slug) }
func (t Tag) UpdateURL() string   { return fmt.Sprintf("/tag/%s/update/", t.Slug) }
func (t Tag) DeleteURL() string   { return fmt.Sprintf("/tag/%s/delete/", t.Slug) }

type Startup struct {
	Model
	Name        string `gorm:"size:31;index;not null"`
	Slug        string `gorm:"size:31;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	FoundedDate datatypes.Date
	Contact     string     `gorm:"size:254"`
	Website     string     `gorm:"size:255"`
	Tags        []Tag      `gorm:"many2many:startup_tags;"`
	NewsLinks   []NewsLink `gorm:"foreignKey:StartupID"`
	Posts       []Post     `gorm:"many2many:post_startups;"`
}

func (s Startup) String() string { return s.Name }

func (s Startup) Founded() time.Time { return time.Time(s.FoundedDate) }

func (s Startup) AbsoluteURL() string { return fmt.Sprintf("/startup/%s/", s.Slug) }
func (s Startup) UpdateURL() string   { return fmt.Sprintf("/startup/%s/update/", s.Slug) }
func (s Startup) DeleteURL() string   { return fmt.Sprintf("/startup/%s/delete/", s.Slug) }
func (s Startup) NewsLinkCreateURL() string {
	return fmt.Sprintf("/startup/%s/add_article_link/", s.Slug)
}

type NewsLink struct {
	Model
	Title     string `gorm:"size:63;not null"`
	PubDate   datatypes.Date
	Link      string  `gorm:"size:255"`
	Slug      string  `gorm:"size:63;not null;uniqueIndex:idx_newslink_startup_slug"`
	StartupID uint    `gorm:"not null;uniqueIndex:idx_newslink_startup_slug"`
	Startup   Startup `gorm:"foreignKey:StartupID"`
}

func (n NewsLink) String() string { return fmt.Sprintf("%s:%s", n.Startup.Name, n.Title) }

func (n NewsLink) Published() time.Time { return time.Time(n.PubDate) }

// AbsoluteURL points at the owning startup; news links have no page of their own.
func (n NewsLink) AbsoluteURL() string { return n.Startup.AbsoluteURL() }
func (n NewsLink) UpdateURL() string {
	return fmt.Sprintf("/startup/%s/%s/update/", n.Startup.Slug, n.Slug)
}
func (n NewsLink) DeleteURL() string {
	return fmt.Sprintf("/startup/%s/%s/delete/", n.Startup.Slug, n.Slug)
}

type Post struct {
	Model
	Title    string `gorm:"size:63;not null"`
	Slug     string `gorm:"size:63;not null;index"`
	Text     string `gorm:"type:text"`
	PubDate  datatypes.Date `gorm:"index"`
	AuthorID *uint          `gorm:"index"`
	Author   *User          `gorm:"foreignKey:AuthorID"`
	Tags     []Tag          `gorm:"many2many:post_tags;"`
	Startups []Startup      `gorm:"many2many:post_startups;"`
}

func (p Post) String() string {
	return fmt.Sprintf("%s on %s", p.Title, p.Published().Format(constants.DATE_LAYOUT))
}

func (p Post) Published() time.Time { return time.Time(p.PubDate) }

func (p Post) AbsoluteURL() string {
	pub := p.Published()
	return fmt.Sprintf("/blog/%04d/%02d/%s/", pub.Year(), int(pub.Month()), p.Slug)
}
func (p Post) UpdateURL() string { return p.AbsoluteURL() + "update/" }
func (p Post) DeleteURL() string { return p.AbsoluteURL() + "delete/" }

type Permission struct {
	Model
	Codename string `gorm:"size:100;uniqueIndex;not null"`
	Name     string `gorm:"size:255"`
}

type Group struct {
	Model
	Name        string       `gorm:"size:150;uniqueIndex;not null"`
	Permissions []Permission `gorm:"many2many:group_permissions;"`
}

type User struct {
	Model
	Email        string `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash []byte
	IsStaff      bool
	IsActive     bool
	IsSuperuser  bool
	LastLogin    *time.Time
	SessionToken *string      `gorm:"size:64;uniqueIndex"`
	Profile      *Profile     `gorm:"foreignKey:UserID"`
	Permissions  []Permission `gorm:"many2many:user_permissions;"`
	Groups       []Group      `gorm:"many2many:user_groups;"`
}

func (u User) String() string { return u.Email }

// AbsoluteURL is the public profile page, or "" for users without a profile.
func (u User) AbsoluteURL() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.AbsoluteURL()
}

func (u User) FullName() string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Name
}

// HasPerm expects Permissions and Groups.Permissions to be preloaded.
// Inactive users hold no permissions; active superusers hold all of them.
func (u *User) HasPerm(codename string) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, perm := range u.Permissions {
		if perm.Codename == codename {
			return true
		}
	}
	for _, group := range u.Groups {
		for _, perm := range group.Permissions {
			if perm.Codename == codename {
				return true
			}
		}
	}
	return false
}

func (u *User) InGroup(name string) bool {
	if u == nil {
		return false
	}
	for _, group := range u.Groups {
		if group.Name == name {
			return true
		}
	}
	return false
}

type Profile struct {
	Model
	UserID uint      `gorm:"uniqueIndex;not null"`
	User   *User     `gorm:"foreignKey:UserID"`
	Slug   string    `gorm:"size:30;uniqueIndex;not null"`
	About  string    `gorm:"type:text"`
	Name   string    `gorm:"size:255"`
	Joined time.Time `gorm:"autoCreateTime"`
}

func (p Profile) String() string {
	if p.User == nil {
		return p.Name
	}
	return p.User.Email
}

func (p Profile) AbsoluteURL() string { return fmt.Sprintf("/user/%s/", p.Slug) }
func (p Profile) UpdateURL() string   { return "/user/profile/edit/" }
