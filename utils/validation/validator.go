package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// EmailRegex is a simple email validation regex
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]+$`)

	// PasswordMinLength is the minimum password length
	PasswordMinLength = 8
)

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their wire name
// (form tag, then json tag) so errors line up with what the client sent.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(wireName)

	return &Validator{
		validate: v,
	}
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationErrors converts validation errors to a field -> message map
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return errs
	}

	for _, e := range validationErrs {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errs[field] = "Invalid email format"
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s characters", field, e.Param())
		case "max":
			errs[field] = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
		case "gte":
			errs[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
		case "lte":
			errs[field] = fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
		case "oneof":
			errs[field] = fmt.Sprintf("%s must be one of: %s", field, e.Param())
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return errs
}

// ValidateEmail checks if an email is valid
func ValidateEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	return EmailRegex.MatchString(email)
}

// ValidateUsername checks if a username is valid
func ValidateUsername(username string) (bool, string) {
	if len(username) < 3 {
		return false, "Username must be at least 3 characters"
	}
	if len(username) > 150 {
		return false, "Username must be at most 150 characters"
	}
	if !usernameRegex.MatchString(username) {
		return false, "Username can only contain letters, numbers and @/./+/-/_"
	}

	return true, ""
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
