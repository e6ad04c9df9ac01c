// Package validate wraps go-playground/validator with JSON field names,
// support for guregu/null types and French messages.
package validate

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/guregu/null/v5"

	"github.com/bondly/bondly/internal/platform/httpx"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{6,20}$`)

// Validator checks request DTOs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(nullValue, null.String{}, null.Int{})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

// Struct validates s and returns an *httpx.ValidationError listing every
// failing field.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		key := fieldPath(fe)
		if _, seen := fields[key]; !seen {
			fields[key] = message(key, fe)
		}
	}
	return httpx.NewValidationError(fields)
}

// fieldPath drops the struct name prefix: "CreatePartnerRequest.email" ->
// "email", "req.classifications[0]" -> "classifications[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return field + " est requis"
	case "email":
		return field + " doit être une adresse e-mail valide"
	case "phone":
		return field + " doit être un numéro de téléphone valide"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s doit contenir au moins %s caractères", field, fe.Param())
		}
		return fmt.Sprintf("%s doit être supérieur ou égal à %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s doit contenir au plus %s caractères", field, fe.Param())
		}
		return fmt.Sprintf("%s doit être inférieur ou égal à %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s doit être l'une des valeurs: %s", field, fe.Param())
	case "uuid", "uuid4":
		return field + " doit être un UUID valide"
	default:
		return fmt.Sprintf("%s est invalide (%s)", field, fe.Tag())
	}
}

// nullValue unwraps null.String / null.Int so that "omitempty" skips unset
// values and the remaining tags see the underlying value.
func nullValue(field reflect.Value) any {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		val, err := valuer.Value()
		if err == nil {
			return val
		}
	}
	return nil
}
