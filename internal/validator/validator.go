package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation together with the
// domain business rules.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

// ValidationError represents one failed field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	v := validator.New()
	registerCustomRules(v)

	return &Validator{
		validate: v,
		business: newBusinessValidator(v),
	}
}

// Struct validates struct tags and returns ValidationErrors on failure.
func (v *Validator) Struct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Business returns the business rule validator.
func (v *Validator) Business() *BusinessValidator {
	return v.business
}

// ToValidationErrors converts go-playground errors into the domain shape.
func ToValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrs {
			result = append(result, ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Message: messageForTag(fe),
				Value:   fe.Value(),
				Rule:    fe.Tag(),
			})
		}
		return result
	}

	return ValidationErrors{{Field: "request", Message: err.Error()}}
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "exam_window":
		return "end time must be after start time"
	case "cheat_type":
		return "unknown cheat event type"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
