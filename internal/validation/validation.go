// Package validation holds the shared form validator. Field errors come back
// as domain.ValidationError named by the json tag.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"yardops/internal/domain"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	rgbColorTag = "rgbcolor"
	isoDateTag  = "isodate"

	rgbColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(rgbColorTag, isRGBColor)
	_ = validate.RegisterValidation(isoDateTag, isISODate)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, rgbColorTag, isoDateTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

// Check validates v and returns the first failing field as *domain.ValidationError.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Field: fe.Field(), Message: fe.Translate(translator)}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " is required"
	case rgbColorTag:
		return fe.Field() + " must be a #rrggbb color"
	case isoDateTag:
		return fe.Field() + " must be a YYYY-MM-DD date"
	default:
		return fe.Error()
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func isRGBColor(fl validator.FieldLevel) bool {
	return rgbColor.MatchString(fl.Field().String())
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(strings.TrimSpace(fl.Field().String()))
	return err == nil
}
