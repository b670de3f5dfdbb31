// Package validation wraps go-playground/validator with a process-wide
// instance, a few project tags and readable error messages.
//
// Request structs declare their rules with `validate` tags; services call
// Struct and get back an error wrapping pkg.ErrBadRequest:
//
//	type RegisterRequest struct {
//	    Username string `json:"username" validate:"required,min=3,max=32,username"`
//	}
//	if err := validation.Struct(req); err != nil { return err }
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// FieldError is one failed rule, named by the JSON field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error collects every failed rule of a struct. It unwraps to
// pkg.ErrBadRequest so the HTTP layer answers 400.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error { return pkg.ErrBadRequest }

// Get returns the shared validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates s. It returns nil or an *Error.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}

	out := &Error{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: translate(fe, fe.Field()),
		}
	}
	return out
}

// Var validates a single value against tag, naming it field in the message.
func Var(field string, value any, tag string) error {
	err := Get().Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", pkg.ErrBadRequest, err)
	}
	fe := fieldErrs[0]
	return &Error{Fields: []FieldError{{Field: field, Tag: fe.Tag(), Message: translate(fe, field)}}}
}

var messages = map[string]string{
	"required":         "%s is required",
	"email":            "%s must be a valid email address",
	"url":              "%s must be a valid URL",
	"http_url":         "%s must be a valid http(s) URL",
	"username":         "%s may only contain letters, numbers and underscores",
	"notblank":         "%s must not be blank",
	"iso3166_1_alpha2": "%s must be a two-letter country code",
	"iso4217":          "%s must be a three-letter currency code",
}

var messagesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
	"len":   "%s must have length %s",
}

func translate(fe validator.FieldError, field string) string {
	tag, param := fe.Tag(), fe.Param()

	if tmpl, ok := messages[tag]; ok {
		return fmt.Sprintf(tmpl, field)
	}
	if tmpl, ok := messagesWithParam[tag]; ok {
		return fmt.Sprintf(tmpl, field, strings.ReplaceAll(param, " ", ", "))
	}

	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch tag {
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
