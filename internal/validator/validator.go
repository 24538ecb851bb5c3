package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError - ошибки по полям запроса: "поле" -> "сообщение"
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("field '%s': %s", field, e.Errors[field]))
	}
	return "Validation failed: " + strings.Join(parts, "; ")
}

// Validator - обертка над go-playground/validator с доменными правилами
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// В ответе поля называются так же, как в JSON или query
	v.RegisterTagNameFunc(fieldName)
	registerCustomRules(v)

	return &Validator{validate: v}
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	if name == "-" {
		return ""
	}
	return name
}

// Validate возвращает *ValidationError для ошибок полей, остальные ошибки как есть
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := make(map[string]string, len(fieldErrors))
	for _, fe := range fieldErrors {
		result[fe.Field()] = errorMessage(fe)
	}
	return &ValidationError{Errors: result}
}

var staticMessages = map[string]string{
	"required":    "This field is required",
	"email":       "Must be a valid email address",
	"url":         "Must be a valid URL",
	"uuid":        "Must be a valid UUID",
	"future-time": "Must be in the future",
	"is-category": "Unsupported donation category",
}

var statusTags = map[string]bool{
	"is-contribution-status": true,
	"is-payment-status":      true,
	"is-pickup-status":       true,
	"is-offer-status":        true,
	"is-verification-status": true,
}

func errorMessage(fe validator.FieldError) string {
	if msg, ok := staticMessages[fe.Tag()]; ok {
		return msg
	}
	if statusTags[fe.Tag()] {
		return fmt.Sprintf("Unknown status %v", fe.Value())
	}

	switch fe.Tag() {
	case "min":
		switch fe.Kind() {
		case reflect.String, reflect.Slice, reflect.Map:
			return fmt.Sprintf("Must be at least %s items/characters long", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s items/characters long", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	case "gtfield":
		return fmt.Sprintf("Must be after %s", fe.Param())
	default:
		return fmt.Sprintf("Invalid value (failed on '%s' tag)", fe.Tag())
	}
}
