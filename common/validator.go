package common

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields under their json names so error keys match the payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("letters_digits", lettersAndDigits); err != nil {
		panic(err)
	}
	return v
}

// lettersAndDigits accepts the empty string; emptiness is the job of "required".
func lettersAndDigits(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Validate runs every field rule on payload and returns all failures at once.
// An empty result means the payload is valid.
func Validate(payload interface{}) ValidationErrors {
	errs := ValidationErrors{}

	err := validate.Struct(payload)
	if err == nil {
		return errs
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range validationErrors {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "letters_digits":
		return fmt.Sprintf("The %s field may only contain letters and digits.", fe.Field())
	case "max":
		return fmt.Sprintf("The %s field must be at most %s characters long.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("The %s field failed the %q rule.", fe.Field(), fe.Tag())
	}
}
