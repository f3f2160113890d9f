// internal/utils/validator.go
package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/digitalhippo/hippo-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields by their JSON names so details line up with payload keys
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("product_category", validateProductCategory)
}

// ValidateStruct checks s against its validate tags and returns a
// *ValidationFailure when any rule fails.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return NewValidationFailure(err)
	}
	return nil
}

func validateProductCategory(fl validator.FieldLevel) bool {
	return models.IsProductCategory(fl.Field().String())
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationFailure is returned for malformed or constraint-violating input.
// It always carries enough detail for the caller to correct the request.
type ValidationFailure struct {
	Errors []ValidationError
}

func (e *ValidationFailure) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		parts = append(parts, v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationFailure converts validator errors; other errors become a
// single request-level failure.
func NewValidationFailure(err error) error {
	var failure *ValidationFailure
	if errors.As(err, &failure) {
		return failure
	}
	if details := GetValidationErrors(err); len(details) > 0 {
		return &ValidationFailure{Errors: details}
	}
	return &ValidationFailure{Errors: []ValidationError{{Field: "request", Tag: "invalid", Message: err.Error()}}}
}

// FieldInvalid builds a failure for one field outside of struct validation.
func FieldInvalid(field, tag, format string, args ...interface{}) error {
	return &ValidationFailure{Errors: []ValidationError{{
		Field:   field,
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
	}}}
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at least " + e.Param() + " characters"
		}
		return e.Field() + " must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return e.Field() + " must be at most " + e.Param() + " characters"
		}
		return e.Field() + " must be at most " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "product_category":
		return e.Field() + " is not a known product category"
	default:
		return e.Field() + " is invalid"
	}
}
