package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// PostForm carries the editable fields of a post. PubDate is the raw form value.
type PostForm struct {
	Title       string `form:"title" validate:"required,max=256"`
	Text        string `form:"text" validate:"required"`
	PubDate     string `form:"pub_date" validate:"required"`
	LocationID  *uint  `form:"location"`
	CategoryID  *uint  `form:"category"`
	IsPublished bool   `form:"is_published"`
	// Image is the stored path of an uploaded file; empty keeps the current image.
	Image      string `form:"-"`
	ClearImage bool   `form:"image-clear"`
}

// CommentForm is the single-field comment form.
type CommentForm struct {
	Text string `form:"text" validate:"required,max=5000"`
}

// RegistrationForm creates an account.
type RegistrationForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	Password1 string `form:"password1" validate:"required,min=8,max=128"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// ProfileForm edits the current user.
type ProfileForm struct {
	Username  string `form:"username" validate:"required,max=150,username"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Email     string `form:"email" validate:"omitempty,email,max=254"`
}

// PubDateLayouts are accepted in order; the first matches <input type="datetime-local">.
var PubDateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	return v
}

// validateForm runs struct validation and converts failures into a ValidationError.
func validateForm(form any) *ValidationError {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	ve := &ValidationError{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add(NonFieldErrors, err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), message(fe))
	}
	return ve
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
	case "eqfield":
		return "The two password fields didn't match."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	}
	return "Enter a valid value."
}

// parsePubDate reads the pub_date field in loc.
func parsePubDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range PubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
