// Custom validations of admin accounts in Saffron.

package user

import (
	"Saffron/pkg/log"
	"context"
	"strings"
	"unicode"

	"github.com/asaskevich/govalidator"
)

func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	// Admin passwords need a letter and a number, and no whitespace.
	govalidator.TagMap["pwdstrength"] = govalidator.Validator(strongPassword)
	logger.WithCtx(ctx).Debug().Msg("Successfully registered admin account custom validations.")
}

func strongPassword(pwd string) bool {
	return strings.IndexFunc(pwd, unicode.IsLetter) >= 0 &&
		strings.IndexFunc(pwd, unicode.IsNumber) >= 0 &&
		strings.IndexFunc(pwd, unicode.IsSpace) < 0
}
