package booking

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/learnbridge/core"
)

var (
	futureTimeTag  = "futuretime"
	futureTimeText = "session time must be in the future"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(futureTimeTag, futureTimeValidation)
	core.RegisterCustomTranslation(futureTimeTag, futureTimeText)
}

// futureTimeValidation checks that the provided time is in the future.
func futureTimeValidation(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.After(timeNow())
}
