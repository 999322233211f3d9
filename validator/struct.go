package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// errorMessages maps validation tags to friendly messages
var errorMessages = map[string]string{
	"required":    "The field '%s' is required.",
	"required_if": "The field '%s' is required when %s.",
	"oneof":       "The field '%s' must be one of [%s].",
	"lte":         "The field '%s' must be less than or equal to %s.",
	"gte":         "The field '%s' must be greater than or equal to %s.",
	"gt":          "The field '%s' must be greater than %s.",
	"lt":          "The field '%s' must be less than %s.",
}

// parseMessage constructs a friendly error message based on the validation tag
func parseMessage(name string, e validator.FieldError) string {
	if msg, exists := errorMessages[e.Tag()]; exists {
		switch strings.Count(msg, "%s") {
		case 1:
			return fmt.Sprintf(msg, name)
		case 2:
			return fmt.Sprintf(msg, name, e.Param())
		}
	}
	return fmt.Sprintf("Field '%s' is invalid: %s", name, e.Tag())
}

// ValidateStruct validates a struct pointer and returns a map of field names
// to friendly error messages. Names come from the yaml tag, then the json tag.
func ValidateStruct(s any) map[string]string {
	validationErrors := make(map[string]string)

	err := validate.Struct(s)
	if err == nil {
		return validationErrors
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		validationErrors["_"] = err.Error()
		return validationErrors
	}

	structType := reflect.TypeOf(s)
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	for _, e := range validationErrs {
		name := e.StructField()
		if field, ok := structType.FieldByName(e.StructField()); ok {
			name = tagName(field, name)
		}
		validationErrors[name] = parseMessage(name, e)
	}
	return validationErrors
}

// Struct validates s and folds every failure into one error, or returns nil
func Struct(section string, s any) error {
	if s == nil || (reflect.ValueOf(s).Kind() == reflect.Pointer && reflect.ValueOf(s).IsNil()) {
		return nil
	}

	errs := ValidateStruct(s)
	if len(errs) == 0 {
		return nil
	}

	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, errs[name])
	}
	return fmt.Errorf("invalid %s config: %s", section, strings.Join(msgs, " "))
}

func tagName(field reflect.StructField, fallback string) string {
	for _, key := range []string{"yaml", "json"} {
		if tag := strings.Split(field.Tag.Get(key), ",")[0]; tag != "" && tag != "-" {
			return tag
		}
	}
	return fallback
}
