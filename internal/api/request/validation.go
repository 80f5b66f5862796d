package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

var validate = newValidator()

// newValidator registers the custom tags the request structs use. The slug
// tag constrains tenant and brand slugs to lowercase DNS-label-safe names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	return v
}

// Decode unmarshals the request body into v and validates it.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return Validate(v)
}

// Validate checks a struct populated outside Decode, e.g. from multipart
// form fields.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// RequireID rejects blank path identifiers before they reach a service
// lookup, where an empty string would surface as a spurious 500.
func RequireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return id, nil
}
