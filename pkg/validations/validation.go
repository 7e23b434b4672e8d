// All global custom validations in Saffron are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"Saffron/pkg/log"
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
)

var once sync.Once

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	once.Do(func() {
		// This global validation doesn't allow whitespace in input.
		govalidator.TagMap["nospace"] = govalidator.Validator(func(str string) bool {
			return !govalidator.HasWhitespace(str)
		})
		// Phone numbers are digits only with an optional leading +.
		govalidator.TagMap["phone"] = govalidator.Validator(func(str string) bool {
			return phonePattern.MatchString(str)
		})
		// Calendar date in YYYY-MM-DD.
		govalidator.TagMap["isodate"] = govalidator.Validator(func(str string) bool {
			_, err := time.Parse("2006-01-02", str)
			return err == nil
		})
		// Wall clock time in HH:MM (24h).
		govalidator.TagMap["clock"] = govalidator.Validator(func(str string) bool {
			_, err := time.Parse("15:04", str)
			return err == nil
		})
		govalidator.TagMap["notblank"] = govalidator.Validator(func(str string) bool {
			return !govalidator.HasWhitespaceOnly(str)
		})
		logger.WithCtx(ctx).Debug().Msg("Registered global custom validations.")
	})
}

// NormalizePhone strips the separators customers commonly type into phone numbers.
func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(strings.TrimSpace(phone))
}
