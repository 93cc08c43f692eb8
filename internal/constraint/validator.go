package constraint

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every compiled Schema; validator.Validate is safe
// for concurrent use once custom validations are registered.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	mustRegister(v, "iso8601date", isISODate)
	mustRegister(v, "iso8601duration", isISODuration)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Fractional seconds are accepted by time.Parse after any seconds field.
var isoDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

func isISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, layout := range isoDateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

var isoDurationRegex = regexp.MustCompile(
	`^P(?:\d+(?:[.,]\d+)?Y)?(?:\d+(?:[.,]\d+)?M)?(?:\d+(?:[.,]\d+)?W)?(?:\d+(?:[.,]\d+)?D)?` +
		`(?:T(?:\d+(?:[.,]\d+)?H)?(?:\d+(?:[.,]\d+)?M)?(?:\d+(?:[.,]\d+)?S)?)?$`)

func isISODuration(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "P" || strings.HasSuffix(s, "T") {
		return false
	}
	return isoDurationRegex.MatchString(s)
}
