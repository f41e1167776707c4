// Package validation checks decoded request bodies against their `validate` tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/target/uxaudit/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var messages = map[string]string{
	"required": "%s is required",
	"min":      "%s must be at least %s characters long",
	"max":      "%s must be no longer than %s characters",
	"url":      "%s must be a valid URL",
	"oneof":    "%s must be one of: %s",
}

func message(e validator.FieldError) string {
	tmpl, ok := messages[e.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid (%s)", e.Field(), e.Tag())
	}
	if strings.Count(tmpl, "%s") == 2 {
		return fmt.Sprintf(tmpl, e.Field(), e.Param())
	}
	return fmt.Sprintf(tmpl, e.Field())
}

// Messages validates v and returns JSON field names mapped to friendly messages.
// An empty map means v is valid.
func Messages(v any) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if err := validate.Struct(v); errors.As(err, &verrs) {
		for _, e := range verrs {
			out[e.Field()] = message(e)
		}
	}
	return out
}

// Struct validates v and returns a validation AppError naming the first
// invalid field (alphabetically), or nil.
func Struct(v any) error {
	msgs := Messages(v)
	if len(msgs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(msgs))
	for f := range msgs {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, msgs[f])
	}
	return apperrors.ValidationField(fields[0], strings.Join(parts, "; "))
}
