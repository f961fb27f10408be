package config

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var currencyCodePattern = regexp.MustCompile(`^[a-z0-9]{3,10}$`)

// RegisterCustomValidators registers the wfa specific validation tags.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("delimiter", validateDelimiter); err != nil {
		return err
	}
	if err := v.RegisterValidation("currency_code", validateCurrencyCode); err != nil {
		return err
	}
	return v.RegisterValidation("url_template", validateURLTemplate)
}

// IsDelimiter reports whether d is a supported CSV field delimiter.
func IsDelimiter(d string) bool {
	return d == "," || d == ";"
}

func validateDelimiter(fl validator.FieldLevel) bool {
	return IsDelimiter(fl.Field().String())
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currencyCodePattern.MatchString(fl.Field().String())
}

func validateURLTemplate(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
		return false
	}
	return strings.Contains(value, "{from}")
}
