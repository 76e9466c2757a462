package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"catalogue/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	isbnRe   = regexp.MustCompile(`^\w{10}(\w{3})?$`)
)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	validate.RegisterValidation("isbn", validateISBN)
	validate.RegisterValidation("notblank", validateNotBlank)
}

// ISBN reports whether s is a 10 or 13 word-character ISBN.
func ISBN(s string) bool {
	return isbnRe.MatchString(s)
}

func validateISBN(fl validator.FieldLevel) bool {
	return ISBN(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates s against its `validate` tags and returns one FieldError
// per failing field. Messages use the field's `label` tag when present.
func Struct(s any) []apperr.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []apperr.FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		label := labelFor(s, fe.StructField())
		param := fe.Param()

		var message string
		switch fe.Tag() {
		case "required", "notblank":
			message = fmt.Sprintf("%s is mandatory", label)
		case "min":
			message = fmt.Sprintf("%s should contains %s characters at least", label, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", label, param)
		case "isbn":
			message = fmt.Sprintf("%s format should be ISBN-10 or ISBN-13 format", label)
		default:
			message = fmt.Sprintf("%s is invalid", label)
		}

		out = append(out, apperr.FieldError{Field: fe.Field(), Message: message})
	}
	return out
}

func labelFor(s any, structField string) string {
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		if f, ok := t.FieldByName(structField); ok {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
		}
	}
	return structField
}
