// Package validation runs go-playground/validator struct tags and converts the
// failures into a domain validation error keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	dErrors "pokevault/pkg/domain-errors"
)

const Message = "Validation failed"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("password_policy", passwordPolicy)
	return v
}

// passwordPolicy requires at least one uppercase letter and one digit.
func passwordPolicy(fl validator.FieldLevel) bool {
	var upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && digit
}

// Struct validates s. The returned error is a *dErrors.Error with
// CodeValidation and a field map, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid request")
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe)
		fields[key] = append(fields[key], msgForTag(fe))
	}
	return dErrors.NewValidation(Message, fields)
}

// fieldKey renders nested paths like items.0.poke_id.
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	return ns
}

func msgForTag(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must have at least %s items.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
	case "gte", "gt":
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", field)
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", strings.TrimSuffix(field, " confirmation"))
	case "password_policy":
		return fmt.Sprintf("The %s must contain at least one uppercase letter and one number.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
