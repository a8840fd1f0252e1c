// Package validate evaluates the field rules of the login, signup and
// review forms and returns field-level error strings. It runs before any
// network call; a form with errors is never submitted.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PasswordSymbols is the punctuation set a password must draw at least one
// character from.
const PasswordSymbols = `!@#$%^&*(),.?":{}|<>`

// FieldErrors maps a form field name to its first failing rule's message.
type FieldErrors map[string]string

// Error implements error so a failed validation can travel as one.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

// New returns a Validator with the form rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return fld.Name
	})

	mustRegister(v, "atsign", func(fl validator.FieldLevel) bool {
		return strings.Contains(fl.Field().String(), "@")
	})
	mustRegister(v, "uppercase_char", containsRune(func(r rune) bool { return r >= 'A' && r <= 'Z' }))
	mustRegister(v, "lowercase_char", containsRune(func(r rune) bool { return r >= 'a' && r <= 'z' }))
	mustRegister(v, "digit_char", containsRune(func(r rune) bool { return r >= '0' && r <= '9' }))
	mustRegister(v, "symbol_char", containsRune(func(r rune) bool { return strings.ContainsRune(PasswordSymbols, r) }))
	mustRegister(v, "accepted", func(fl validator.FieldLevel) bool {
		return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
	})

	return &Validator{validate: v}
}

// Struct validates a form and returns nil or FieldErrors.
func (v *Validator) Struct(form interface{}) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(FieldErrors, len(validationErrors))
	for _, fieldError := range validationErrors {
		if _, seen := fields[fieldError.Field()]; seen {
			continue
		}
		fields[fieldError.Field()] = message(fieldError)
	}
	return fields
}

// message maps a failed rule to the text shown next to the field.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "atsign":
		return `Email must contain "@"`
	case "uppercase_char":
		return "Password must contain at least one uppercase letter"
	case "lowercase_char":
		return "Password must contain at least one lowercase letter"
	case "digit_char":
		return "Password must contain at least one digit"
	case "symbol_char":
		return "Password must contain at least one special character"
	case "eqfield":
		return "Passwords must match"
	case "accepted":
		return "You must agree with the terms and conditions"
	case "min":
		if fe.Field() == "rating" {
			return "Rating must be between 1 and 5"
		}
		return fmt.Sprintf("Must be %s characters or more", fe.Param())
	case "max":
		if fe.Field() == "rating" {
			return "Rating must be between 1 and 5"
		}
		return fmt.Sprintf("Must be %s characters or less", fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func containsRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validate: register %q: %v", tag, err))
	}
}
