package validation

import (
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"todolist/internal/core/model/response"
	"todolist/internal/core/port"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	if err := Validator.RegisterValidation("integer", isInteger); err != nil {
		panic(err)
	}

	addCustomTranslations()
}

// isInteger accepts base-10 integers that fit in an int64.
func isInteger(fl validator.FieldLevel) bool {
	_, err := strconv.ParseInt(fl.Field().String(), 10, 64)
	return err == nil
}

func addCustomTranslations() {
	Validator.RegisterTranslation("required", Translator, func(ut ut.Translator) error {
		return ut.Add("required", "{0} is required", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("required", strings.ToLower(fe.Field()))
		return t
	})

	Validator.RegisterTranslation("integer", Translator, func(ut ut.Translator) error {
		return ut.Add("integer", "{0} must be an integer", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("integer", strings.ToLower(fe.Field()))
		return t
	})
}

func FormatValidationErrors(err error) []response.ValidationError {
	var errors []response.ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errors = append(errors, response.ValidationError{
				Field:   strings.ToLower(fieldError.Field()),
				Message: fieldError.Translate(Translator),
			})
		}
	}

	return errors
}

// StructValidator exposes the package validator through port.Validator.
type StructValidator struct{}

func NewStructValidator() port.Validator {
	return StructValidator{}
}

func (StructValidator) ValidateStruct(s interface{}) error {
	return Validator.Struct(s)
}

func (StructValidator) FormatValidationErrors(err error) []response.ValidationError {
	return FormatValidationErrors(err)
}
