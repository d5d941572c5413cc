package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"csvanalyst/internal/analysis"
)

// FieldError is one failed rule, named by the JSON field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects every failed rule of a struct
type Errors []FieldError

// Error implements the error interface
func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// StructValidator validates request structs using their validate tags
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates a validator that reports JSON field names and
// knows the cross-field rules of analysis.RunConfig.
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(analysis.StructRules, analysis.RunConfig{})

	return &StructValidator{validate: v}
}

// Struct validates s and returns Errors when any rule fails
func (sv *StructValidator) Struct(s interface{}) error {
	err := sv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: formatFieldError(fe)})
	}
	return out
}

// formatFieldError formats validation error messages
func formatFieldError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_for":
		return fmt.Sprintf("%s is required for %s analysis", field, param)
	case "model_for_task":
		return fmt.Sprintf("%s %q is not available for %s", field, err.Value(), param)
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}
