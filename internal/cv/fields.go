package cv

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Scalar field paths as they appear in the canonical JSON.
const (
	FieldFullName     = "contact_info.full_name"
	FieldEmail        = "contact_info.email"
	FieldPhone        = "contact_info.phone"
	FieldLinkedInURL  = "contact_info.linkedin_url"
	FieldPortfolioURL = "contact_info.portfolio_url"
	FieldAddress      = "contact_info.address"
	FieldSummary      = "summary"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidURL   = errors.New("invalid url")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type setter func(r *Record, value string) error

var scalarFields = map[string]setter{
	FieldFullName: func(r *Record, v string) error { r.contact().FullName = v; return nil },
	FieldEmail: func(r *Record, v string) error {
		if err := CheckEmail(v); err != nil {
			return err
		}
		r.contact().Email = v
		return nil
	},
	FieldPhone: func(r *Record, v string) error { r.contact().Phone = v; return nil },
	FieldLinkedInURL: func(r *Record, v string) error {
		v = NormalizeURL(v)
		if err := CheckURL(v); err != nil {
			return err
		}
		r.contact().LinkedInURL = v
		return nil
	},
	FieldPortfolioURL: func(r *Record, v string) error {
		v = NormalizeURL(v)
		if err := CheckURL(v); err != nil {
			return err
		}
		r.contact().PortfolioURL = v
		return nil
	},
	FieldAddress: func(r *Record, v string) error { r.contact().Address = v; return nil },
	FieldSummary: func(r *Record, v string) error { r.Summary = v; return nil },
}

// HasField reports whether path names a scalar field that Set accepts.
func HasField(path string) bool {
	_, ok := scalarFields[path]
	return ok
}

// Set assigns a trimmed value to the scalar field at path.
// The record is left untouched when the value fails field validation.
func (r *Record) Set(path, value string) error {
	set, ok := scalarFields[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, path)
	}
	return set(r, strings.TrimSpace(value))
}

// CheckEmail validates a single email address.
func CheckEmail(value string) error {
	if err := validate.Var(value, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, value)
	}
	return nil
}

// CheckURL validates a single absolute URL.
func CheckURL(value string) error {
	if err := validate.Var(value, "required,url"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidURL, value)
	}
	return nil
}

// NormalizeURL prepends https:// when the value carries no scheme.
func NormalizeURL(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.Contains(value, "://") {
		return value
	}
	return "https://" + value
}
