package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"suorganizer/constants"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ReservedProfileSlugs collide with the static routes under /user/.
var ReservedProfileSlugs = []string{"create", "login", "logout", "profile"}

var ErrEmailTaken = errors.New("a user with that email already exists")

func IsReservedProfileSlug(s string) bool {
	for _, reserved := range ReservedProfileSlugs {
		if strings.EqualFold(s, reserved) {
			return true
		}
	}
	return false
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

func GetUserWithEmail(email string) (*User, error) {
	var user User
	query := GetDB().Preload("Profile").Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email))
	found, err := first(query, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// GetUserWithSessionToken loads everything HasPerm needs.
func GetUserWithSessionToken(token string) (*User, error) {
	var user User
	query := GetDB().
		Preload("Profile").
		Preload("Permissions").
		Preload("Groups.Permissions").
		Where("session_token = ?", token)
	found, err := first(query, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// StartSession stores a fresh session token and the login time.
func StartSession(user *User, token string) error {
	now := time.Now()
	user.SessionToken = &token
	user.LastLogin = &now
	return GetDB().Model(user).Updates(map[string]any{
		"session_token": token,
		"last_login":    now,
	}).Error
}

func EndSession(user *User) error {
	user.SessionToken = nil
	return GetDB().Model(user).Update("session_token", nil).Error
}

// GetProfileWithSlug loads the profile with its user and the user's groups.
func GetProfileWithSlug(slug string) (*Profile, error) {
	var profile Profile
	found, err := first(GetDB().Preload("User.Groups").Where("LOWER(slug) = LOWER(?)", slug), &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

func GetProfileForUser(userID uint) (*Profile, error) {
	var profile Profile
	found, err := first(GetDB().Preload("User.Groups").Where("user_id = ?", userID), &profile)
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}

func ProfileSlugTaken(s string, excludeID uint) (bool, error) {
	return profileSlugTaken(GetDB(), s, excludeID)
}

func profileSlugTaken(tx *gorm.DB, s string, excludeID uint) (bool, error) {
	var count int64
	query := tx.Model(&Profile{}).Where("LOWER(slug) = LOWER(?)", s)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// uniqueProfileSlug derives a free, non-reserved slug from name by
// appending -2, -3, ... when needed.
func uniqueProfileSlug(tx *gorm.DB, name string) (string, error) {
	base := truncateSlug(slug.Make(name), constants.PROFILE_SLUG_MAX_LENGTH)
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 2; ; i++ {
		if !IsReservedProfileSlug(candidate) {
			taken, err := profileSlugTaken(tx, candidate, 0)
			if err != nil {
				return "", err
			}
			if !taken {
				return candidate, nil
			}
		}
		suffix := fmt.Sprintf("-%d", i)
		candidate = truncateSlug(base, constants.PROFILE_SLUG_MAX_LENGTH-len(suffix)) + suffix
	}
}

func truncateSlug(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}

type NewUser struct {
	Email       string
	Password    string
	Name        string
	About       string
	IsStaff     bool
	IsSuperuser bool
}

// CreateUser creates an active user together with its profile.
func CreateUser(params NewUser) (*User, error) {
	user := &User{
		Email:       NormalizeEmail(params.Email),
		IsActive:    true,
		IsStaff:     params.IsStaff,
		IsSuperuser: params.IsSuperuser,
	}
	if err := user.SetPassword(params.Password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	err := GetDB().Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("LOWER(email) = LOWER(?)", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		if err := tx.Omit("Profile", "Permissions", "Groups").Create(user).Error; err != nil {
			return err
		}

		profileSlug, err := uniqueProfileSlug(tx, params.Name)
		if err != nil {
			return err
		}
		profile := &Profile{UserID: user.ID, Slug: profileSlug, Name: params.Name, About: params.About}
		if err := tx.Omit("User").Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func SaveProfile(profile *Profile) error {
	return GetDB().Omit("User").Save(profile).Error
}

// GrantPermissions adds the named permissions to the user.
func GrantPermissions(user *User, codenames ...string) error {
	var perms []Permission
	if err := GetDB().Where("codename IN ?", codenames).Find(&perms).Error; err != nil {
		return err
	}
	if len(perms) != len(codenames) {
		return fmt.Errorf("unknown permission among %v", codenames)
	}
	return GetDB().Model(user).Association("Permissions").Append(perms)
}

// AddToGroup adds the user to an existing group.
func AddToGroup(user *User, name string) error {
	var group Group
	found, err := first(GetDB().Where("name = ?", name), &group)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("group %q does not exist", name)
	}
	return GetDB().Model(user).Association("Groups").Append(&group)
}

// CreateGroup creates the group if needed and sets its permissions.
func CreateGroup(name string, codenames ...string) (*Group, error) {
	var group Group
	if err := GetDB().Where(Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
		return nil, err
	}
	var perms []Permission
	if err := GetDB().Where("codename IN ?", codenames).Find(&perms).Error; err != nil {
		return nil, err
	}
	if len(perms) != len(codenames) {
		return nil, fmt.Errorf("unknown permission among %v", codenames)
	}
	if err := GetDB().Model(&group).Association("Permissions").Replace(perms); err != nil {
		return nil, err
	}
	group.Permissions = perms
	return &group, nil
}
