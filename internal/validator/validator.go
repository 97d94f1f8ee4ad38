package validator

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator возвращает singleton-валидатор с кастомными правилами
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		registerCustomRules(validate)
	})
	return validate
}

// ValidateStruct валидирует структуру и возвращает человекочитаемые детали
func ValidateStruct(s interface{}) []string {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, describeFieldError(fe))
	}
	return details
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "uuid4":
		return fmt.Sprintf("field '%s' must be a valid UUID", fe.Field())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("field '%s' must have at least %s items", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", fe.Field())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", fe.Field(), fe.Param())
	case "notification_kind":
		return fmt.Sprintf("field '%s' is not a known notification kind", fe.Field())
	default:
		return fmt.Sprintf("field '%s' failed validation '%s'", fe.Field(), fe.Tag())
	}
}
