package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrDuplicateSignature = errors.New("duplicate java signature")
	ErrMappingNotFound    = errors.New("mapping not found")
	ErrInvalidMapping     = errors.New("invalid mapping")
)

// ValidationError lists the fields of a mapping that failed validation.
// errors.Is(err, ErrInvalidMapping) holds for every ValidationError.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidMapping, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidMapping }

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("conversion_type", func(fl validator.FieldLevel) bool {
		return ConversionType(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the core fields of m.
func Validate(m APIMapping) error {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, formatFieldError(fe))
	}
	return &ValidationError{Problems: problems}
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "conversion_type":
		return fmt.Sprintf("%s must be one of: direct wrapper complex impossible", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
