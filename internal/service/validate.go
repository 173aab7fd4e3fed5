package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vbonduro/eatai/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match what callers sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct returns a *domain.ValidationError for the first rule s breaks.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return domain.NewValidationError(field, "%s must be at most %s characters", field, fe.Param())
		}
		return domain.NewValidationError(field, "%s must be at most %s", field, fe.Param())
	case "min":
		return domain.NewValidationError(field, "%s must be at least %s", field, fe.Param())
	case "oneof":
		return domain.NewValidationError(field, "%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return domain.NewValidationError(field, "%s must match the format %s", field, fe.Param())
	default:
		return domain.NewValidationError(field, "%s is invalid", field)
	}
}
