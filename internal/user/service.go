// Service layer of the internal package user.

package user

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"context"
	"fmt"

	"github.com/asaskevich/govalidator"
	"golang.org/x/crypto/bcrypt"
)

// Service layer of internal package user which encapsulates admin account logic of Saffron.
type Service interface {
	// Fetches User Data based on the Username set by the auth middleware
	getuser(context.Context) (entity.User, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	userRepo Repository
	logger   log.Logger
}

func NewService(userRepo Repository, logger log.Logger) Service {
	return service{userRepo, logger}
}

func (s service) getuser(ctx context.Context) (entity.User, error) {
	// get username from context
	username, ok := ctx.Value("Username").(string)
	if !ok || username == "" {
		// username missing from context
		return entity.User{}, errors.InternalServerError("")
	}
	user, dberr := s.userRepo.GetUser(ctx, s.logger, username)
	if dberr != nil {
		// Error occured in GetUser()
		return entity.User{}, dberr
	}
	// Hide password
	user.Password = ""
	return user, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	pwdbyte, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(pwdbyte), nil
}

// SeedAdmin creates the admin account from the environment on boot.
// An existing account is left untouched so a changed password in the DB survives restarts.
func SeedAdmin(ctx context.Context, userRepo Repository, username, password string, logger log.Logger) error {
	if username == "" || password == "" {
		logger.WithCtx(ctx).Warn().Msg("ADMIN_USERNAME or ADMIN_PASSWORD missing, no admin account seeded")
		return nil
	}
	available, err := userRepo.HasUser(ctx, logger, username)
	if err != nil {
		return err
	} else if available {
		logger.WithCtx(ctx).Debug().Str("username", username).Msg("Admin account already present")
		return nil
	}
	admin := entity.User{Username: username, Password: password, Role: entity.RoleAdmin}
	if _, valerr := govalidator.ValidateStruct(admin); valerr != nil {
		return fmt.Errorf("seed admin: %w", valerr)
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	admin.Password = hashed
	if _, err := userRepo.SetOrUpdateUser(ctx, logger, admin, true); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info().Str("username", username).Msg("Seeded admin account")
	return nil
}
