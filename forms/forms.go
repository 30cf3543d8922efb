// Package forms cleans and validates submitted HTML forms before they are
// applied to database models.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"suorganizer/archive"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

// NonField collects errors that do not belong to a single input.
const NonField = "__all__"

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Errors maps form field names to their error messages.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

func (e Errors) Get(field string) []string {
	return e[field]
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) NonField() []string {
	return e[NonField]
}

func (e Errors) Any() bool {
	for _, messages := range e {
		if len(messages) > 0 {
			return true
		}
	}
	return false
}

// check runs struct validation and records one message per failing field.
func check(form any, errs Errors) {
	err := validate.Struct(form)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(NonField, err.Error())
		return
	}
	for _, fe := range verrs {
		if errs.Has(fe.Field()) {
			continue
		}
		errs.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "datetime":
		return "Enter a valid date."
	case "slug":
		return "Enter a valid 'slug' consisting of letters, numbers, underscores or hyphens."
	case "eqfield":
		return "The two password fields didn't match."
	default:
		return "Enter a valid value."
	}
}

// cleanSlug lowercases raw, or derives a slug from source when raw is blank.
func cleanSlug(raw, source string, max int) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		s = truncate(slug.Make(source), max)
	}
	return s
}

// rejectCreate guards the slug that would shadow a create route.
func rejectCreate(s string, errs Errors) {
	if s == "create" {
		errs.Add("slug", `Slug may not be "create"`)
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}

// parseDate reads a YYYY-MM-DD value, defaulting blank input to today.
func parseDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return archive.Today(), nil
	}
	return archive.ParseDate(strings.TrimSpace(raw))
}

// selection strips blanks and duplicates from a multi-select value.
func selection(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func invalidChoice(field, value string, errs Errors) {
	errs.Add(field, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", value))
}

// Selected reports whether value is among the chosen slugs; templates use it
// to keep multi-select options checked on re-render.
func Selected(chosen []string, value string) bool {
	for _, c := range chosen {
		if strings.EqualFold(c, value) {
			return true
		}
	}
	return false
}
