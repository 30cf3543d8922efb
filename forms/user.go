package forms

import (
	"fmt"
	"net/url"
	"strings"

	"suorganizer/database"
)

type LoginForm struct {
	Email    string `form:"email" validate:"required,max=254"`
	Password string `form:"password" validate:"required"`
}

func NewLoginForm(values url.Values) *LoginForm {
	return &LoginForm{
		Email:    strings.TrimSpace(values.Get("email")),
		Password: values.Get("password"),
	}
}

// Authenticate returns the active user matching the credentials, or nil with
// form errors.
func (f *LoginForm) Authenticate() (*database.User, Errors, error) {
	errs := Errors{}
	check(f, errs)
	if errs.Any() {
		return nil, errs, nil
	}

	user, err := database.GetUserWithEmail(f.Email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.CheckPassword(f.Password) {
		errs.Add(NonField, "Please enter a correct email and password. Note that both fields may be case-sensitive.")
		return nil, errs, nil
	}
	if !user.IsActive {
		errs.Add(NonField, "This account is inactive.")
		return nil, errs, nil
	}
	return user, errs, nil
}

type SignupForm struct {
	Email     string `form:"email" validate:"required,email,max=254"`
	Name      string `form:"name" validate:"required,max=255"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func NewSignupForm(values url.Values) *SignupForm {
	return &SignupForm{
		Email:     strings.TrimSpace(values.Get("email")),
		Name:      strings.TrimSpace(values.Get("name")),
		Password1: values.Get("password1"),
		Password2: values.Get("password2"),
	}
}

func (f *SignupForm) Clean() (Errors, error) {
	errs := Errors{}
	check(f, errs)
	if errs.Has("email") {
		return errs, nil
	}

	existing, err := database.GetUserWithEmail(f.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		errs.Add("email", "User with this Email address already exists.")
	}
	return errs, nil
}

func (f *SignupForm) NewUser() database.NewUser {
	return database.NewUser{Email: f.Email, Name: f.Name, Password: f.Password1}
}

type ProfileForm struct {
	Name  string `form:"name" validate:"required,max=255"`
	Slug  string `form:"slug" validate:"required,max=30,slug"`
	About string `form:"about"`
}

func NewProfileForm(values url.Values) *ProfileForm {
	return &ProfileForm{
		Name:  strings.TrimSpace(values.Get("name")),
		Slug:  values.Get("slug"),
		About: strings.TrimSpace(values.Get("about")),
	}
}

func ProfileFormFrom(profile *database.Profile) *ProfileForm {
	return &ProfileForm{Name: profile.Name, Slug: profile.Slug, About: profile.About}
}

func (f *ProfileForm) Clean(profile *database.Profile) (Errors, error) {
	errs := Errors{}
	f.Slug = strings.ToLower(strings.TrimSpace(f.Slug))
	if database.IsReservedProfileSlug(f.Slug) {
		errs.Add("slug", fmt.Sprintf("Slug may not be %q", f.Slug))
	}
	check(f, errs)
	if errs.Any() {
		return errs, nil
	}

	taken, err := database.ProfileSlugTaken(f.Slug, profile.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		errs.Add("slug", "Profile with this Slug already exists.")
	}
	return errs, nil
}

func (f *ProfileForm) Apply(profile *database.Profile) {
	profile.Name = f.Name
	profile.Slug = f.Slug
	profile.About = f.About
}
